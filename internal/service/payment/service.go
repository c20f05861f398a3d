package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"wellbook/internal/domain"
	"wellbook/internal/kafka"
	"wellbook/internal/repository"
)

const notifyRetries = 3

type UseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	PaymentStatus(ctx context.Context, bookingID string) (*domain.PaymentStatusDoc, error)
	Ingest(ctx context.Context, payload WebhookPayload) (*IngestResult, error)
	CancelStaleBookings(ctx context.Context) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

// WebhookPayload is the provider callback body. Field order matters for the
// checksum base (see signature.go).
type WebhookPayload struct {
	MerchantID            string `json:"merchantId"`
	MerchantTransactionID string `json:"merchantTransactionId"`
	TransactionID         string `json:"transactionId"`
	Amount                int64  `json:"amount"`
	Status                string `json:"status"`
	ResponseCode          string `json:"responseCode"`
	ResponseMessage       string `json:"responseMessage"`
	Checksum              string `json:"checksum"`
}

// IngestResult reports whether the delivery actually transitioned state.
// Applied is false for idempotent re-delivery of a terminal status.
type IngestResult struct {
	Applied bool
	Booking *domain.Booking
}

type CreateBookingInput struct {
	ProfessionalID int64     `json:"professional_id"`
	Email          string    `json:"email"`
	AmountCents    int64     `json:"amount_cents"`
	ScheduledAt    time.Time `json:"scheduled_at"`
}

type Service struct {
	bookings           repository.BookingRepository
	producer           Producer
	saltKey            string
	saltIndex          string
	notificationsTopic string
	paymentEventsTopic string
	pendingTTL         time.Duration
}

type ServiceOption func(*Service)

func WithNotificationsTopic(topic string) ServiceOption {
	return func(s *Service) {
		s.notificationsTopic = topic
	}
}

func WithPaymentEventsTopic(topic string) ServiceOption {
	return func(s *Service) {
		s.paymentEventsTopic = topic
	}
}

func WithPendingTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.pendingTTL = ttl
	}
}

func NewService(bookings repository.BookingRepository, producer Producer, saltKey, saltIndex string, opts ...ServiceOption) *Service {
	service := &Service{
		bookings:   bookings,
		producer:   producer,
		saltKey:    saltKey,
		saltIndex:  saltIndex,
		pendingTTL: 30 * time.Minute,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *Service) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.ProfessionalID <= 0 {
		return nil, errors.New("professional id is required")
	}
	if input.Email == "" {
		return nil, errors.New("email is required")
	}
	if input.AmountCents <= 0 {
		return nil, errors.New("amount must be positive")
	}

	booking := &domain.Booking{
		BookingID:      uuid.NewString(),
		ProfessionalID: input.ProfessionalID,
		Email:          input.Email,
		AmountCents:    input.AmountCents,
		ScheduledAt:    input.ScheduledAt,
	}

	if err := s.bookings.CreatePending(ctx, booking); err != nil {
		return nil, err
	}

	if err := s.publishEvent(ctx, "booking_created", booking); err != nil {
		log.Printf("WARNING: failed to publish booking_created event for booking %s: %v", booking.BookingID, err)
	}
	return booking, nil
}

func (s *Service) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return s.bookings.GetByBookingID(ctx, bookingID)
}

func (s *Service) PaymentStatus(ctx context.Context, bookingID string) (*domain.PaymentStatusDoc, error) {
	booking, err := s.bookings.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &domain.PaymentStatusDoc{
		Status:        booking.PaymentStatus,
		TransactionID: booking.ProviderTxID,
		Amount:        booking.AmountCents,
		Timestamp:     booking.UpdatedAt,
	}, nil
}

// Ingest validates a provider callback and applies its status to the booking
// keyed by the merchant transaction id. Verification failure short-circuits
// before any persistence write; the verified-but-already-terminal case is
// re-acknowledged without re-mutation or re-notification.
func (s *Service) Ingest(ctx context.Context, payload WebhookPayload) (*IngestResult, error) {
	if err := VerifyChecksum(payload, s.saltKey, s.saltIndex); err != nil {
		return nil, err
	}

	status, paymentStatus := domain.MapProviderStatus(domain.ProviderStatus(payload.Status))
	if !paymentStatus.Terminal() {
		log.Printf("webhook for %s carries non-terminal status %q, acknowledged without transition", payload.MerchantTransactionID, payload.Status)
		return &IngestResult{Applied: false}, nil
	}

	applied, booking, err := s.bookings.ApplyPaymentOutcome(ctx, payload.MerchantTransactionID, payload.TransactionID, status, paymentStatus)
	if err != nil {
		return nil, fmt.Errorf("apply payment outcome: %w", err)
	}
	if !applied {
		log.Printf("webhook for %s re-delivered terminal status %q, already %s", payload.MerchantTransactionID, payload.Status, booking.PaymentStatus)
		return &IngestResult{Applied: false, Booking: booking}, nil
	}

	if paymentStatus == domain.PaymentStatusPaid {
		s.notifyPaid(ctx, booking)
	}
	return &IngestResult{Applied: true, Booking: booking}, nil
}

func (s *Service) CancelStaleBookings(ctx context.Context) ([]domain.Booking, error) {
	deadline := time.Now().Add(-s.pendingTTL)
	cancelled, err := s.bookings.CancelStalePending(ctx, deadline)
	if err != nil {
		return nil, err
	}
	for _, b := range cancelled {
		if err := s.publishEvent(ctx, "booking_cancelled", &b); err != nil {
			log.Printf("WARNING: failed to publish booking_cancelled event for booking %s: %v", b.BookingID, err)
		}
	}
	return cancelled, nil
}

// notifyPaid is best effort: a notification failure never fails the ingest.
func (s *Service) notifyPaid(ctx context.Context, booking *domain.Booking) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}
	event := kafka.PaymentEvent{
		Type:          "payment_confirmed",
		BookingID:     booking.BookingID,
		TransactionID: booking.ProviderTxID,
		Email:         booking.Email,
		AmountCents:   booking.AmountCents,
		Status:        string(booking.PaymentStatus),
		OccurredAt:    time.Now(),
	}
	if err := s.producer.PublishWithRetry(ctx, s.notificationsTopic, booking.BookingID, event, notifyRetries); err != nil {
		log.Printf("WARNING: failed to publish payment_confirmed notification for booking %s: %v", booking.BookingID, err)
	}
}

func (s *Service) publishEvent(ctx context.Context, eventType string, booking *domain.Booking) error {
	if s.producer == nil || s.paymentEventsTopic == "" {
		return nil
	}
	event := kafka.PaymentEvent{
		Type:          eventType,
		BookingID:     booking.BookingID,
		TransactionID: booking.ProviderTxID,
		Email:         booking.Email,
		AmountCents:   booking.AmountCents,
		Status:        string(booking.PaymentStatus),
		OccurredAt:    time.Now(),
	}
	return s.producer.Publish(ctx, s.paymentEventsTopic, booking.BookingID, event)
}

var _ UseCase = (*Service)(nil)
