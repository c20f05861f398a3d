package domain

import "time"

// ProviderStatus is the payment provider's status vocabulary as delivered
// in webhook callbacks.
type ProviderStatus string

const (
	ProviderPaymentSuccess  ProviderStatus = "PAYMENT_SUCCESS"
	ProviderPaymentError    ProviderStatus = "PAYMENT_ERROR"
	ProviderPaymentDeclined ProviderStatus = "PAYMENT_DECLINED"
)

// MapProviderStatus translates the provider vocabulary into the internal
// booking/payment status pair. Unknown statuses map to PENDING/PENDING so an
// unexpected callback never moves a booking into a terminal state.
func MapProviderStatus(status ProviderStatus) (BookingStatus, PaymentStatus) {
	switch status {
	case ProviderPaymentSuccess:
		return BookingStatusConfirmed, PaymentStatusPaid
	case ProviderPaymentError, ProviderPaymentDeclined:
		return BookingStatusCancelled, PaymentStatusFailed
	default:
		return BookingStatusPending, PaymentStatusPending
	}
}

// PaymentStatusDoc is the document served by GET /payment-status/{bookingID}
// and consumed by the client-side reconciliation poller.
type PaymentStatusDoc struct {
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId"`
	Amount        int64         `json:"amount"`
	Timestamp     time.Time     `json:"timestamp"`
}
