package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaNotifier publishes trigger events to a Kafka topic so external
// consumers (alert fan-out, the assistant backend) can react to firings
type KafkaNotifier struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaNotifier creates a producer for the given brokers and topic
func NewKafkaNotifier(brokers []string, topic, clientID string, logger *zap.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		Transport: &kafka.Transport{
			ClientID: clientID,
		},
	}
	return &KafkaNotifier{writer: writer, logger: logger}
}

// Notify publishes the event keyed by trigger id
func (n *KafkaNotifier) Notify(ctx context.Context, event TriggerEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.TriggerID),
		Value: value,
		Time:  event.FiredAt,
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		n.logger.Error("Failed to publish trigger event",
			zap.String("triggerId", event.TriggerID),
			zap.Error(err))
		return err
	}
	return nil
}

// Close flushes and closes the underlying writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
