package producer

import (
	"context"
	"encoding/json"
	"fmt"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/image-resizer/internal/config"
	"github.com/aliskhannn/image-resizer/internal/model"
)

// Producer represents a Kafka producer bound to one topic.
type Producer struct {
	Client   *wbfkafka.Producer
	strategy retry.Strategy
	topic    string
}

// New creates a new Producer writing to topic on the brokers of cfg.
func New(
	cfg *config.Kafka,
	topic string,
	s retry.Strategy,
) *Producer {
	producer := wbfkafka.NewProducer(cfg.Brokers, topic)

	return &Producer{
		Client:   producer,
		strategy: s,
		topic:    topic,
	}
}

// PublishJob serializes the job to JSON and sends it to Kafka.
// The job ID is used as the message key.
func (p *Producer) PublishJob(ctx context.Context, job model.BatchJob) error {
	return p.send(ctx, job.ID.String(), job)
}

// PublishReport serializes the report to JSON and sends it to Kafka.
// The batch ID is used as the message key.
func (p *Producer) PublishReport(ctx context.Context, report model.BatchReport) error {
	return p.send(ctx, report.ID.String(), report)
}

func (p *Producer) send(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err = p.Client.SendWithRetry(ctx, p.strategy, []byte(key), data); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", p.topic, err)
	}

	return nil
}
