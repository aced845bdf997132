package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hoppertalk/hoppertalk-go/contracts"
)

// Rendered is one message handed to the render hook, either replayed from
// history or delivered live.
type Rendered struct {
	Sender      string
	Content     string
	SentAt      time.Time
	FromHistory bool
}

// RenderFunc receives messages in display order.
type RenderFunc func(Rendered)

// ConsumerLoop reconciles persisted history with live delivery for one
// queue. It replays history first, synchronously, then opens the standing
// subscription, so no live message is rendered out of order relative to
// history.
type ConsumerLoop struct {
	history    HistoryStore
	subscriber TransportSubscriber
	render     RenderFunc
	logger     *slog.Logger
}

// ConsumerLoopOption configures the consumer loop.
type ConsumerLoopOption func(*ConsumerLoop)

// WithConsumerLoopLogger sets the logger.
func WithConsumerLoopLogger(logger *slog.Logger) ConsumerLoopOption {
	return func(c *ConsumerLoop) {
		c.logger = logger
	}
}

// NewConsumerLoop creates a consumer loop rendering through the given hook.
func NewConsumerLoop(history HistoryStore, subscriber TransportSubscriber, render RenderFunc, options ...ConsumerLoopOption) *ConsumerLoop {
	c := &ConsumerLoop{
		history:    history,
		subscriber: subscriber,
		render:     render,
		logger:     slog.Default(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// Consume replays history for the queue and then subscribes for live
// delivery. An empty queue defaults to the session's own. The returned
// subscription stays live until its Stop is called or the owning context
// is cancelled.
func (c *ConsumerLoop) Consume(ctx context.Context, session *Session, queue string) (Subscription, error) {
	if queue == "" {
		var err error
		queue, err = session.Queue()
		if err != nil {
			return nil, err
		}
	}

	if err := c.replay(ctx, queue); err != nil {
		return nil, err
	}

	sub, err := c.subscriber.Subscribe(ctx, queue, c.handleDelivery(queue))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrTransportUnavailable, err)
	}
	return sub, nil
}

// replay renders the persisted history for a queue, oldest first. The
// store's read order is not trusted across backends, so records are
// re-sorted here.
func (c *ConsumerLoop) replay(ctx context.Context, queue string) error {
	records, err := c.history.ListByQueue(ctx, queue)
	if err != nil {
		return fmt.Errorf("replay history for %q: %w", queue, err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	for _, rec := range records {
		c.render(Rendered{
			Sender:      rec.Sender,
			Content:     rec.Content,
			SentAt:      rec.Timestamp,
			FromHistory: true,
		})
	}

	c.logger.Info("history replayed", "queue", queue, "messages", len(records))
	return nil
}

// handleDelivery builds the live-phase handler. Malformed envelopes are
// logged and acknowledged anyway: there is no dead-letter policy, and
// redelivering a poison message would just loop it forever.
func (c *ConsumerLoop) handleDelivery(queue string) func(ctx context.Context, delivery amqp.Delivery) {
	return func(ctx context.Context, delivery amqp.Delivery) {
		envelope, err := contracts.DecodeEnvelope(delivery.Body)
		if err != nil {
			c.logger.Error("discarding malformed envelope",
				"queue", queue,
				"error", err,
			)
			c.ack(delivery, queue)
			return
		}

		c.render(Rendered{
			Sender:  envelope.Sender,
			Content: envelope.Content,
			SentAt:  envelope.SentAt(),
		})
		c.ack(delivery, queue)
	}
}

func (c *ConsumerLoop) ack(delivery amqp.Delivery, queue string) {
	if err := delivery.Ack(false); err != nil {
		c.logger.Error("failed to ack delivery", "queue", queue, "error", err)
	}
}
