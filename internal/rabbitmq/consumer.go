package rabbitmq

import (
	"context"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeliveryHandler processes one delivery. The handler owns acknowledgement.
type DeliveryHandler func(ctx context.Context, delivery amqp.Delivery)

// Consumer opens long-lived subscriptions on destination queues. Each
// subscription holds its own connection and channel until stopped.
type Consumer struct {
	url      string
	exchange string
	prefetch int
	logger   *slog.Logger
}

// ConsumerOption configures the consumer.
type ConsumerOption func(*Consumer)

// WithConsumerLogger sets the logger.
func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		c.logger = logger
	}
}

// WithPrefetch sets the per-channel prefetch count.
func WithPrefetch(count int) ConsumerOption {
	return func(c *Consumer) {
		c.prefetch = count
	}
}

// NewConsumer creates a consumer for the given broker URL and exchange.
func NewConsumer(url, exchange string, options ...ConsumerOption) *Consumer {
	c := &Consumer{
		url:      url,
		exchange: exchange,
		prefetch: 1,
		logger:   slog.Default(),
	}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// Subscription is the handle for one standing queue subscription.
type Subscription struct {
	queue  string
	conn   *amqp.Connection
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
}

// Queue returns the queue this subscription consumes from.
func (s *Subscription) Queue() string {
	return s.queue
}

// Stop cancels the delivery loop and closes the channel and connection.
// It blocks until the loop has exited and is safe to call more than once.
func (s *Subscription) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrSubscriptionClosed
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	<-s.done
	return s.conn.Close()
}

// Done is closed once the delivery loop has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Subscribe declares the consume topology for the queue and starts a
// delivery loop feeding the handler. The returned subscription stays live
// until Stop is called or the delivery channel closes.
func (c *Consumer) Subscribe(ctx context.Context, queue string, handler DeliveryHandler) (*Subscription, error) {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return nil, &ConnectionError{
			Op:        "dial",
			URL:       SanitizeURL(c.url),
			Err:       err,
			Timestamp: time.Now(),
		}
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, &ConnectionError{
			Op:        "open channel",
			URL:       SanitizeURL(c.url),
			Err:       err,
			Timestamp: time.Now(),
		}
	}

	if err := DeclareConsumeTopology(ch, c.exchange, queue); err != nil {
		conn.Close()
		return nil, &ConsumerError{Queue: queue, Op: "declare topology", Err: err, Timestamp: time.Now()}
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		conn.Close()
		return nil, &ConsumerError{Queue: queue, Op: "set qos", Err: err, Timestamp: time.Now()}
	}

	deliveries, err := ch.Consume(
		queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, &ConsumerError{Queue: queue, Op: "consume", Err: err, Timestamp: time.Now()}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		queue:  queue,
		conn:   conn,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go c.deliveryLoop(loopCtx, sub, deliveries, handler)

	c.logger.Info("subscribed to queue",
		"queue", queue,
		"bindingKey", ConsumeBindingKey(queue),
		"prefetch", c.prefetch,
	)

	return sub, nil
}

func (c *Consumer) deliveryLoop(ctx context.Context, sub *Subscription, deliveries <-chan amqp.Delivery, handler DeliveryHandler) {
	defer func() {
		close(sub.done)
		c.logger.Info("subscription ended", "queue", sub.queue)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("delivery channel closed", "queue", sub.queue)
				return
			}
			handler(ctx, delivery)
		}
	}
}
