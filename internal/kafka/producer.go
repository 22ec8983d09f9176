package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/psds-microservice/crm-service/internal/logging"
	"github.com/segmentio/kafka-go"
)

// EventProducer publishes record lifecycle events. Implementations must not
// block callers on broker failures.
type EventProducer interface {
	Produce(ctx context.Context, event string, payload map[string]any)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes events to one Kafka topic, best-effort.
type Producer struct {
	writer messageWriter
	topic  string
	log    logging.Logger
}

// NewProducer returns a producer. With no brokers or no topic every call is
// a no-op.
func NewProducer(brokers []string, topic string, log logging.Logger) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{log: log}
	}
	return &Producer{
		topic: topic,
		log:   log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) Enabled() bool { return p.writer != nil }

// Produce sends {"event": event, ...payload}. The record id, when present,
// becomes the message key so that events of one record stay ordered.
func (p *Producer) Produce(ctx context.Context, event string, payload map[string]any) {
	if p.writer == nil {
		return
	}
	msg := map[string]any{"event": event}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		p.log.Error(ctx, "kafka: marshal event", "event", event, "error", err)
		return
	}
	m := kafka.Message{Value: body}
	if id, ok := payload["id"].(string); ok {
		m.Key = []byte(id)
	}
	if err := p.writer.WriteMessages(ctx, m); err != nil {
		p.log.Warn(ctx, "kafka: write event", "event", event, "topic", p.topic, "error", err)
	}
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
