package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wellbook/internal/domain"
)

type BookingRepository interface {
	CreatePending(ctx context.Context, booking *domain.Booking) error
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Booking, error)
	// ApplyPaymentOutcome moves the booking keyed by bookingID into the given
	// terminal pair. The transition is applied only while payment status is
	// still PENDING; otherwise the unchanged booking is returned with
	// applied=false, which drives idempotent webhook re-delivery.
	ApplyPaymentOutcome(ctx context.Context, bookingID, providerTxID string, status domain.BookingStatus, payment domain.PaymentStatus) (applied bool, booking *domain.Booking, err error)
	CancelStalePending(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, booking_id, professional_id, email, amount_cents, status, payment_status, provider_tx_id, scheduled_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.BookingID, &b.ProfessionalID, &b.Email, &b.AmountCents, &b.Status, &b.PaymentStatus, &b.ProviderTxID, &b.ScheduledAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	booking.Status = domain.BookingStatusPending
	booking.PaymentStatus = domain.PaymentStatusPending
	return r.db.QueryRow(ctx, `INSERT INTO bookings (booking_id, professional_id, email, amount_cents, status, payment_status, provider_tx_id, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, '', $7)
		RETURNING id, created_at, updated_at`,
		booking.BookingID, booking.ProfessionalID, booking.Email, booking.AmountCents, booking.Status, booking.PaymentStatus, booking.ScheduledAt).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id=$1`, bookingID)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) ApplyPaymentOutcome(ctx context.Context, bookingID, providerTxID string, status domain.BookingStatus, payment domain.PaymentStatus) (bool, *domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$2, payment_status=$3, provider_tx_id=$4, updated_at=now()
		WHERE booking_id=$1 AND payment_status=$5
		RETURNING `+bookingColumns,
		bookingID, status, payment, providerTxID, domain.PaymentStatusPending)
	b, err := scanBooking(row)
	if err == nil {
		return true, b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, nil, err
	}

	// Already terminal, or unknown booking.
	current, err := r.GetByBookingID(ctx, bookingID)
	if err != nil {
		return false, nil, err
	}
	return false, current, nil
}

func (r *PGBookingRepository) CancelStalePending(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE bookings SET status=$1, payment_status=$2, updated_at=now()
		WHERE payment_status=$3 AND created_at <= $4
		RETURNING `+bookingColumns,
		domain.BookingStatusCancelled, domain.PaymentStatusFailed, domain.PaymentStatusPending, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cancelled []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		cancelled = append(cancelled, *b)
	}
	return cancelled, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
