package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink forwards events to a Kafka topic keyed by request id.
type KafkaSink struct {
	writer MessageWriter
}

// NewKafkaWriter builds an async writer that logs delivery failures.
func NewKafkaWriter(brokers []string, topic string, logger *zap.Logger) *kafka.Writer {
	log := logger.Named("events.kafka")
	return &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		Async:    true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warn("kafka delivery failed", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}
}

// NewKafkaSink wraps a writer.
func NewKafkaSink(writer MessageWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

// Handle is an EventHandler that publishes the event as JSON.
func (s *KafkaSink) Handle(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RequestID),
		Value: payload,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
}

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
