package producer

import (
	"context"
	"encoding/json"
	"fmt"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/image-filter/internal/config"
	"github.com/aliskhannn/image-filter/internal/model"
)

// Producer publishes batch outcomes to the results topic.
type Producer struct {
	Client   *wbfkafka.Producer
	strategy retry.Strategy
	cfg      *config.Kafka
}

// New creates a new Producer.
// - cfg: Kafka configuration struct
// - s: retry strategy
func New(
	cfg *config.Kafka,
	s retry.Strategy,
) *Producer {
	producer := wbfkafka.NewProducer(cfg.Brokers, cfg.ResultsTopic)

	return &Producer{
		Client:   producer,
		cfg:      cfg,
		strategy: s,
	}
}

// Publish serializes the Outcome to JSON and sends it to Kafka.
// The batch ID is used as the message key.
func (p *Producer) Publish(ctx context.Context, o model.Outcome) error {
	data, err := Encode(o)
	if err != nil {
		return err
	}

	key := []byte(o.ID.String())

	if err = p.Client.SendWithRetry(ctx, p.strategy, key, data); err != nil {
		return fmt.Errorf("failed to send outcome: %w", err)
	}

	return nil
}

// Encode returns the wire form of an outcome.
func Encode(o model.Outcome) ([]byte, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal outcome: %w", err)
	}

	return data, nil
}
