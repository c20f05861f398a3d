package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"wellbook/internal/domain"
)

const DefaultPollInterval = 3000 * time.Millisecond

// PaymentOutcome is the client-side view of a payment session.
type PaymentOutcome string

const (
	PaymentPending PaymentOutcome = "PENDING"
	PaymentSuccess PaymentOutcome = "SUCCESS"
	PaymentFailed  PaymentOutcome = "FAILED"
)

// Terminal reports whether the reconciliation loop should stop.
func (o PaymentOutcome) Terminal() bool {
	return o == PaymentSuccess || o == PaymentFailed
}

// Doer executes one resilient API call.
type Doer interface {
	Execute(ctx context.Context, req Request, opts ...Option) (*Response, error)
}

// TerminalFunc receives the terminal outcome. It is invoked at most once per
// poll, never after cancellation.
type TerminalFunc func(outcome PaymentOutcome)

// Poller reconciles an externally-initiated payment with local booking state
// by polling the status endpoint until a terminal outcome or cancellation.
type Poller struct {
	client   Doer
	interval time.Duration
}

func NewPoller(client Doer, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{client: client, interval: interval}
}

// Poll is the cancellation handle for one reconciliation loop.
type Poll struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the loop. Safe to call repeatedly and after natural
// termination; any further tick becomes a no-op.
func (p *Poll) Cancel() {
	p.cancel()
}

// Done is closed once the loop has fully stopped.
func (p *Poll) Done() <-chan struct{} {
	return p.done
}

// Start begins polling every interval. Transient request errors are logged
// and polling continues; only SUCCESS or FAILED stops the loop and invokes
// onTerminal.
func (p *Poller) Start(ctx context.Context, bookingID string, onTerminal TerminalFunc) (*Poll, error) {
	if bookingID == "" {
		return nil, fmt.Errorf("%w: booking id is required", ErrInvalidArgument)
	}

	ctx, cancel := context.WithCancel(ctx)
	poll := &Poll{cancel: cancel, done: make(chan struct{})}
	go p.run(ctx, cancel, bookingID, onTerminal, poll.done)
	return poll, nil
}

func (p *Poller) run(ctx context.Context, cancel context.CancelFunc, bookingID string, onTerminal TerminalFunc, done chan struct{}) {
	defer close(done)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			outcome, err := p.fetch(ctx, bookingID)
			if ctx.Err() != nil {
				// Cancelled while the request was in flight; discard.
				return
			}
			if err != nil {
				log.Printf("payment poll for %s failed: %v", bookingID, err)
				continue
			}
			if outcome.Terminal() {
				onTerminal(outcome)
				return
			}
		}
	}
}

func (p *Poller) fetch(ctx context.Context, bookingID string) (PaymentOutcome, error) {
	resp, err := p.client.Execute(ctx, Request{Method: http.MethodGet, Path: "/payment-status/" + bookingID})
	if err != nil {
		return PaymentPending, err
	}

	var doc domain.PaymentStatusDoc
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return PaymentPending, fmt.Errorf("decode payment status: %w", err)
	}

	switch doc.Status {
	case domain.PaymentStatusPaid:
		return PaymentSuccess, nil
	case domain.PaymentStatusFailed:
		return PaymentFailed, nil
	default:
		return PaymentPending, nil
	}
}
