package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume delivers decoded payment events to handler. A message that fails
// to decode is logged and skipped so one malformed event cannot wedge the
// consumer group.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, PaymentEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		event, ok := decodePaymentEvent(msg)
		if !ok {
			continue
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}

func decodePaymentEvent(msg kafka.Message) (PaymentEvent, bool) {
	var event PaymentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("decode payment event at %s/%d offset %d: %v", msg.Topic, msg.Partition, msg.Offset, err)
		return PaymentEvent{}, false
	}
	return event, true
}
