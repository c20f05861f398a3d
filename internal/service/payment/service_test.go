package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"wellbook/internal/domain"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ApplyPaymentOutcome(ctx context.Context, bookingID, providerTxID string, status domain.BookingStatus, payment domain.PaymentStatus) (bool, *domain.Booking, error) {
	args := m.Called(ctx, bookingID, providerTxID, status, payment)
	if args.Get(1) == nil {
		return args.Bool(0), nil, args.Error(2)
	}
	return args.Bool(0), args.Get(1).(*domain.Booking), args.Error(2)
}

func (m *MockBookingRepository) CancelStalePending(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, deadline)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func (m *MockProducer) PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error {
	args := m.Called(ctx, topic, key, value, maxRetries)
	return args.Error(0)
}

func newTestService(repo *MockBookingRepository, producer *MockProducer) *Service {
	return NewService(repo, producer, "s", "1",
		WithNotificationsTopic("notifications"),
		WithPaymentEventsTopic("payment_events"),
	)
}

func TestService_Ingest_PaymentSuccess(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockRepo, mockProducer)

	ctx := context.Background()
	payload := signedPayload(t, WebhookPayload{
		MerchantID:            "M1",
		MerchantTransactionID: "BK123",
		TransactionID:         "T1",
		Amount:                5000,
		Status:                "PAYMENT_SUCCESS",
	}, "s", "1")

	confirmed := &domain.Booking{
		BookingID:     "BK123",
		Email:         "test@example.com",
		AmountCents:   5000,
		Status:        domain.BookingStatusConfirmed,
		PaymentStatus: domain.PaymentStatusPaid,
		ProviderTxID:  "T1",
	}

	mockRepo.On("ApplyPaymentOutcome", ctx, "BK123", "T1", domain.BookingStatusConfirmed, domain.PaymentStatusPaid).
		Return(true, confirmed, nil).Once()
	mockProducer.On("PublishWithRetry", ctx, "notifications", "BK123", mock.Anything, notifyRetries).
		Return(nil).Once()

	result, err := service.Ingest(ctx, payload)

	assert.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, domain.BookingStatusConfirmed, result.Booking.Status)
	assert.Equal(t, domain.PaymentStatusPaid, result.Booking.PaymentStatus)

	mockRepo.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestService_Ingest_PaymentDeclined(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockRepo, mockProducer)

	ctx := context.Background()
	payload := signedPayload(t, WebhookPayload{
		MerchantTransactionID: "BK123",
		TransactionID:         "T1",
		Status:                "PAYMENT_DECLINED",
	}, "s", "1")

	cancelled := &domain.Booking{
		BookingID:     "BK123",
		Status:        domain.BookingStatusCancelled,
		PaymentStatus: domain.PaymentStatusFailed,
	}

	mockRepo.On("ApplyPaymentOutcome", ctx, "BK123", "T1", domain.BookingStatusCancelled, domain.PaymentStatusFailed).
		Return(true, cancelled, nil).Once()

	result, err := service.Ingest(ctx, payload)

	assert.NoError(t, err)
	assert.True(t, result.Applied)

	// No notification for a failed payment.
	mockProducer.AssertNotCalled(t, "PublishWithRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestService_Ingest_TamperedPayload(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockRepo, mockProducer)

	payload := signedPayload(t, WebhookPayload{
		MerchantTransactionID: "BK123",
		Status:                "PAYMENT_SUCCESS",
		Amount:                5000,
	}, "s", "1")
	payload.Amount = 1

	result, err := service.Ingest(context.Background(), payload)

	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Nil(t, result)

	// Verification failure short-circuits before any persistence write.
	mockRepo.AssertNotCalled(t, "ApplyPaymentOutcome", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockProducer.AssertNotCalled(t, "PublishWithRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Ingest_IdempotentRedelivery(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockRepo, mockProducer)

	ctx := context.Background()
	payload := signedPayload(t, WebhookPayload{
		MerchantTransactionID: "BK123",
		TransactionID:         "T1",
		Status:                "PAYMENT_SUCCESS",
	}, "s", "1")

	alreadyPaid := &domain.Booking{
		BookingID:     "BK123",
		Status:        domain.BookingStatusConfirmed,
		PaymentStatus: domain.PaymentStatusPaid,
	}

	mockRepo.On("ApplyPaymentOutcome", ctx, "BK123", "T1", domain.BookingStatusConfirmed, domain.PaymentStatusPaid).
		Return(false, alreadyPaid, nil).Once()

	result, err := service.Ingest(ctx, payload)

	assert.NoError(t, err)
	assert.False(t, result.Applied)

	// Re-delivery is acknowledged without a second notification.
	mockProducer.AssertNotCalled(t, "PublishWithRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestService_Ingest_UnknownStatusDoesNotMutate(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockRepo, mockProducer)

	payload := signedPayload(t, WebhookPayload{
		MerchantTransactionID: "BK123",
		Status:                "PAYMENT_INITIATED",
	}, "s", "1")

	result, err := service.Ingest(context.Background(), payload)

	assert.NoError(t, err)
	assert.False(t, result.Applied)
	mockRepo.AssertNotCalled(t, "ApplyPaymentOutcome", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Ingest_NotificationFailureDoesNotFailIngest(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockRepo, mockProducer)

	ctx := context.Background()
	payload := signedPayload(t, WebhookPayload{
		MerchantTransactionID: "BK123",
		TransactionID:         "T1",
		Status:                "PAYMENT_SUCCESS",
	}, "s", "1")

	confirmed := &domain.Booking{
		BookingID:     "BK123",
		Status:        domain.BookingStatusConfirmed,
		PaymentStatus: domain.PaymentStatusPaid,
	}

	mockRepo.On("ApplyPaymentOutcome", ctx, "BK123", "T1", domain.BookingStatusConfirmed, domain.PaymentStatusPaid).
		Return(true, confirmed, nil).Once()
	mockProducer.On("PublishWithRetry", ctx, "notifications", "BK123", mock.Anything, notifyRetries).
		Return(errors.New("broker down")).Once()

	result, err := service.Ingest(ctx, payload)

	assert.NoError(t, err)
	assert.True(t, result.Applied)
	mockProducer.AssertExpectations(t)
}

func TestService_CreateBooking_Success(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockRepo, mockProducer)

	ctx := context.Background()
	input := CreateBookingInput{
		ProfessionalID: 7,
		Email:          "test@example.com",
		AmountCents:    5000,
		ScheduledAt:    time.Now().Add(24 * time.Hour),
	}

	mockRepo.On("CreatePending", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()
	mockProducer.On("Publish", ctx, "payment_events", mock.Anything, mock.Anything).Return(nil).Once()

	booking, err := service.CreateBooking(ctx, input)

	assert.NoError(t, err)
	assert.NotNil(t, booking)
	assert.NotEmpty(t, booking.BookingID)
	assert.Equal(t, input.Email, booking.Email)

	mockRepo.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestService_CreateBooking_ValidationErrors(t *testing.T) {
	service := newTestService(&MockBookingRepository{}, &MockProducer{})
	ctx := context.Background()

	testCases := []struct {
		name        string
		input       CreateBookingInput
		expectedErr string
	}{
		{
			name:        "missing professional",
			input:       CreateBookingInput{Email: "test@example.com", AmountCents: 5000},
			expectedErr: "professional id is required",
		},
		{
			name:        "empty email",
			input:       CreateBookingInput{ProfessionalID: 7, AmountCents: 5000},
			expectedErr: "email is required",
		},
		{
			name:        "zero amount",
			input:       CreateBookingInput{ProfessionalID: 7, Email: "test@example.com"},
			expectedErr: "amount must be positive",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			booking, err := service.CreateBooking(ctx, tc.input)
			assert.Nil(t, booking)
			assert.EqualError(t, err, tc.expectedErr)
		})
	}
}

func TestService_PaymentStatus(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	service := newTestService(mockRepo, &MockProducer{})

	ctx := context.Background()
	updatedAt := time.Now()
	mockRepo.On("GetByBookingID", ctx, "BK123").Return(&domain.Booking{
		BookingID:     "BK123",
		PaymentStatus: domain.PaymentStatusPaid,
		ProviderTxID:  "T1",
		AmountCents:   5000,
		UpdatedAt:     updatedAt,
	}, nil).Once()

	doc, err := service.PaymentStatus(ctx, "BK123")

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, doc.Status)
	assert.Equal(t, "T1", doc.TransactionID)
	assert.Equal(t, int64(5000), doc.Amount)
	assert.Equal(t, updatedAt, doc.Timestamp)

	mockRepo.AssertExpectations(t)
}

func TestService_PaymentStatus_NotFound(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	service := newTestService(mockRepo, &MockProducer{})

	ctx := context.Background()
	mockRepo.On("GetByBookingID", ctx, "missing").Return(nil, domain.ErrBookingNotFound).Once()

	doc, err := service.PaymentStatus(ctx, "missing")

	assert.Nil(t, doc)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestService_CancelStaleBookings(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockProducer := &MockProducer{}
	service := newTestService(mockRepo, mockProducer)

	ctx := context.Background()
	stale := []domain.Booking{
		{BookingID: "BK1", Status: domain.BookingStatusCancelled, PaymentStatus: domain.PaymentStatusFailed},
		{BookingID: "BK2", Status: domain.BookingStatusCancelled, PaymentStatus: domain.PaymentStatusFailed},
	}

	mockRepo.On("CancelStalePending", ctx, mock.AnythingOfType("time.Time")).Return(stale, nil).Once()
	mockProducer.On("Publish", ctx, "payment_events", "BK1", mock.Anything).Return(nil).Once()
	mockProducer.On("Publish", ctx, "payment_events", "BK2", mock.Anything).Return(nil).Once()

	cancelled, err := service.CancelStaleBookings(ctx)

	assert.NoError(t, err)
	assert.Len(t, cancelled, 2)

	mockRepo.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}
