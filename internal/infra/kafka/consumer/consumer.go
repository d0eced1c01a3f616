package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-filter/internal/config"
)

// requestHandler defines the interface for handling batch request messages.
type requestHandler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// messageClient is the part of *wbfkafka.Consumer the consume loop uses.
type messageClient interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msg kafka.Message) error
}

// Consumer reads batch requests from Kafka and hands them to the handler.
type Consumer struct {
	Client         *wbfkafka.Consumer
	client         messageClient
	requestHandler requestHandler
	cfg            *config.Kafka
	strategy       retry.Strategy
}

// New creates a new Consumer.
// - cfg: Kafka configuration struct
// - s: retry strategy
// - rh: handler for batch request messages
func New(
	cfg *config.Kafka,
	s retry.Strategy,
	rh requestHandler,
) *Consumer {
	consumer := wbfkafka.NewConsumer(cfg.Brokers, cfg.RequestsTopic, cfg.GroupID)

	return &Consumer{
		Client:         consumer,
		client:         consumer,
		requestHandler: rh,
		cfg:            cfg,
		strategy:       s,
	}
}

// Consume continuously fetches messages from Kafka, processes them using the handler,
// and commits offsets after processing. It stops gracefully on context cancellation.
func (c *Consumer) Consume(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	zlog.Logger.Info().
		Str("topic", c.cfg.RequestsTopic).
		Msg("starting consumer")

	for {
		// Exit if context is canceled (graceful shutdown).
		if ctx.Err() != nil {
			zlog.Logger.Info().Msg("shutdown signal received, stopping consumer")
			return
		}

		// Fetch a message from Kafka with retries.
		var msg kafka.Message
		err := retry.Do(func() error {
			var fetchErr error
			msg, fetchErr = c.client.Fetch(ctx)
			return fetchErr
		}, c.strategy)

		if err != nil {
			if ctx.Err() != nil {
				zlog.Logger.Info().Msg("shutdown signal received, stopping consumer")
				return
			}
			zlog.Logger.Err(err).Msg("failed to fetch message")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		// A malformed request is logged and committed; redelivering it would
		// fail the same way.
		if err := c.requestHandler.Handle(ctx, msg); err != nil {
			zlog.Logger.Err(err).
				Str("message", string(msg.Value)).
				Msg("failed to handle batch request")
		}

		// Commit the message with retries.
		err = retry.Do(func() error {
			return c.client.Commit(ctx, msg)
		}, c.strategy)
		if err != nil {
			zlog.Logger.Err(err).Msg("failed to commit message after retries")
			continue
		}

		zlog.Logger.Info().
			Int64("offset", msg.Offset).
			Msg("message handled")
	}
}
