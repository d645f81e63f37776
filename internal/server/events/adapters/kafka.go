package adapters

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/agentstation/menumerge/internal/server/events"
	"github.com/agentstation/menumerge/pkg/errors"
)

// MessageWriter is the subset of *kafka.Writer the subscriber uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSubscriber publishes events to a Kafka topic, keyed by event type.
type KafkaSubscriber struct {
	writer  MessageWriter
	topic   string
	timeout time.Duration
}

// NewKafkaSubscriber creates a subscriber writing to topic on brokers.
func NewKafkaSubscriber(brokers []string, topic string) (*KafkaSubscriber, error) {
	if len(brokers) == 0 {
		return nil, errors.NewConfigError("kafka", "at least one broker is required", nil)
	}
	if topic == "" {
		return nil, errors.NewConfigError("kafka", "topic is required", nil)
	}
	return NewKafkaSubscriberWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}, topic), nil
}

// NewKafkaSubscriberWithWriter wraps an existing writer.
func NewKafkaSubscriberWithWriter(w MessageWriter, topic string) *KafkaSubscriber {
	return &KafkaSubscriber{writer: w, topic: topic, timeout: 10 * time.Second}
}

// Send writes the event as a JSON message.
func (k *KafkaSubscriber) Send(event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.WrapParse("json", string(event.Type), err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()

	return k.writer.WriteMessages(ctx, kafka.Message{
		Topic: k.topic,
		Key:   []byte(event.Type),
		Value: payload,
		Time:  event.Timestamp,
	})
}

// Close flushes and closes the writer.
func (k *KafkaSubscriber) Close() error {
	return k.writer.Close()
}
