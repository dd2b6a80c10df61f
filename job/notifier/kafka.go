package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/ncobase/jobqueue/job/structs"
	"github.com/segmentio/kafka-go"
)

// DefaultKafkaTopic is the topic events are written to
const DefaultKafkaTopic = "jobqueue.events"

// MessageWriter is the subset of *kafka.Writer used by the notifier
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Kafka writes events to a topic keyed by job id, so one job's events stay
// on one partition in order.
type Kafka struct {
	writer MessageWriter
	topic  string
}

// NewKafka creates a Kafka notifier. The writer must not carry a fixed topic.
func NewKafka(writer MessageWriter, topic string) (*Kafka, error) {
	if writer == nil {
		return nil, errors.New("notifier: nil kafka writer")
	}
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	return &Kafka{writer: writer, topic: topic}, nil
}

func (k *Kafka) Notify(ctx context.Context, event *structs.Event) error {
	data, err := Encode(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Topic:   k.topic,
		Key:     []byte(jobID(event)),
		Value:   data,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(event.Type)}},
		Time:    event.Timestamp,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", event.Type, err)
	}
	return nil
}
