package notify

import (
	"context"
	"fmt"

	"wellbook/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.PaymentEvent) error {
	fmt.Printf("notify %s: payment %s for booking %s\n", event.Email, event.Status, event.BookingID)
	return nil
}
