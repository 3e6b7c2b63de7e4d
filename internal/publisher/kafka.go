package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/farellandr/eventboard/internal/logging"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher builds an async writer. Delivery failures are logged
// from the completion callback and never surface to the request.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			Async:                  true,
			AllowAutoTopicCreation: true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					logging.WithOp("publisher.kafka.Completion").
						WithField("messages", len(messages)).
						Warnf("failed to deliver activity: %v", err)
				}
			},
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, activity Activity) error {
	const op = "publisher.KafkaPublisher.Publish"

	value, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(activity.EventID), 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(activity.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
