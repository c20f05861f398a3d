package domain

import (
	"errors"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Terminal reports whether no further payment transition is accepted.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

var ErrBookingNotFound = errors.New("booking not found")

// Booking is a consultation booking. BookingID doubles as the merchant
// transaction id sent to the payment provider.
type Booking struct {
	ID             int64
	BookingID      string
	ProfessionalID int64
	Email          string
	AmountCents    int64
	Status         BookingStatus
	PaymentStatus  PaymentStatus
	ProviderTxID   string
	ScheduledAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
