// Package eventbus is the in-process domain event bus, backed by watermill's gochannel pub/sub.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventBus publishes and subscribes to topic-addressed messages.
type EventBus interface {
	Publish(ctx context.Context, topic string, msg *message.Message) error
	Subscribe(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
}

// HandlerFunc processes one message. A returned error is retried with
// backoff; once retries run out the message is logged and dropped.
type HandlerFunc func(ctx context.Context, msg *message.Message) error

// DefaultRetry bounds redelivery of a failing handler. gochannel has no
// server-side redelivery delay, so the backoff lives here.
var DefaultRetry = middleware.Retry{
	MaxRetries:      3,
	InitialInterval: 200 * time.Millisecond,
	MaxInterval:     2 * time.Second,
	Multiplier:      2,
	MaxElapsedTime:  10 * time.Second,
}

// Option configures an event bus.
type Option func(*eventBus)

// WithRetry replaces DefaultRetry.
func WithRetry(retry middleware.Retry) Option {
	return func(eb *eventBus) {
		eb.retry = retry
	}
}

type eventBus struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
	retry  middleware.Retry
	wg     sync.WaitGroup
}

// NewEventBus creates an in-process event bus.
func NewEventBus(logger *slog.Logger, opts ...Option) EventBus {
	wmLogger := watermill.NewSlogLogger(logger)
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		wmLogger,
	)
	eb := &eventBus{pubsub: pubsub, logger: logger, retry: DefaultRetry}
	for _, opt := range opts {
		opt(eb)
	}
	if eb.retry.Logger == nil {
		eb.retry.Logger = wmLogger
	}
	return eb
}

// NewMessage marshals payload to JSON and wraps it in a watermill message.
func NewMessage(payload any) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return message.NewMessage(watermill.NewUUID(), data), nil
}

// Decode unmarshals a message payload into dst.
func Decode(msg *message.Message, dst any) error {
	if err := json.Unmarshal(msg.Payload, dst); err != nil {
		return fmt.Errorf("failed to unmarshal event payload: %w", err)
	}
	return nil
}

func (eb *eventBus) Publish(ctx context.Context, topic string, msg *message.Message) error {
	if msg.UUID == "" {
		msg.UUID = watermill.NewUUID()
	}
	msg.SetContext(context.WithoutCancel(ctx))

	if err := eb.pubsub.Publish(topic, msg); err != nil {
		eb.logger.ErrorContext(ctx, "Failed to publish message",
			slog.String("topic", topic),
			slog.String("message_id", msg.UUID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	eb.logger.DebugContext(ctx, "Message published",
		slog.String("topic", topic),
		slog.String("message_id", msg.UUID),
	)
	return nil
}

func (eb *eventBus) Subscribe(ctx context.Context, topic string, handler HandlerFunc) error {
	messages, err := eb.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	eb.logger.InfoContext(ctx, "Subscription started", slog.String("topic", topic))

	wrapped := eb.retry.Middleware(middleware.Recoverer(func(msg *message.Message) ([]*message.Message, error) {
		return nil, handler(msg.Context(), msg)
	}))

	eb.wg.Add(1)
	go func() {
		defer eb.wg.Done()
		for msg := range messages {
			if _, err := wrapped(msg); err != nil {
				eb.logger.ErrorContext(msg.Context(), "Dropping message after retries",
					slog.String("topic", topic),
					slog.String("message_id", msg.UUID),
					slog.Int("max_retries", eb.retry.MaxRetries),
					slog.String("error", err.Error()),
				)
			}
			msg.Ack()
		}
	}()

	return nil
}

// Close stops the pub/sub and waits for subscriber goroutines to drain.
func (eb *eventBus) Close() error {
	err := eb.pubsub.Close()
	eb.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close event bus: %w", err)
	}
	return nil
}
