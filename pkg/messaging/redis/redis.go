package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/jwalitptl/hms-api/pkg/messaging"
)

type RedisBroker struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
	logger zerolog.Logger
}

type Config struct {
	URL          string
	MaxRetries   int
	RetryBackoff time.Duration
	PoolSize     int
	MinIdleConns int
	// BreakerFailures consecutive publish failures open the circuit.
	BreakerFailures uint32
	// BreakerTimeout is how long the circuit stays open before a trial publish.
	BreakerTimeout time.Duration
}

func NewRedisBroker(ctx context.Context, config Config, logger zerolog.Logger) (messaging.Broker, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pooling
	if config.MaxRetries != 0 {
		opts.MaxRetries = config.MaxRetries
	}
	if config.RetryBackoff > 0 {
		opts.MinRetryBackoff = config.RetryBackoff
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if config.BreakerFailures == 0 {
		config.BreakerFailures = 5
	}
	if config.BreakerTimeout <= 0 {
		config.BreakerTimeout = 10 * time.Second
	}

	b := &RedisBroker{
		client: client,
		logger: logger.With().Str("component", "redis-broker").Logger(),
	}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "redis-broker",
		Timeout: config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("Broker circuit changed state")
		},
	})
	return b, nil
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	_, err = b.cb.Execute(func() (interface{}, error) {
		return nil, b.client.Publish(ctx, channel, payload).Err()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.logger.Warn().Str("channel", channel).Msg("Dropping message, broker circuit open")
	}
	return err
}

// Subscribe waits for the subscription to be confirmed before returning, so
// messages published afterwards are never missed. The returned channel is
// closed once ctx is done.
func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	pubsub := b.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	msgChan := make(chan []byte, 100)
	done := make(chan struct{})

	// ReceiveMessage does not return on ctx cancellation alone.
	go func() {
		select {
		case <-ctx.Done():
			pubsub.Close()
		case <-done:
		}
	}()

	go func() {
		defer func() {
			close(done)
			pubsub.Close()
			close(msgChan)
		}()

		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, redis.ErrClosed) {
					return
				}
				b.logger.Error().Err(err).Str("channel", channel).Msg("Failed to receive message")
				continue
			}
			select {
			case msgChan <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgChan, nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
