package rabbitmq

import (
	"context"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultCloseGrace is how long a publish connection is left open after the
// broker accepts the publish, so the channel can drain before closing.
const DefaultCloseGrace = 500 * time.Millisecond

// Publisher publishes chat messages to the topic exchange. Each publish
// opens its own connection and channel; nothing is pooled.
type Publisher struct {
	url            string
	exchange       string
	closeGrace     time.Duration
	confirmTimeout time.Duration
	logger         *slog.Logger
}

// PublisherOption configures the publisher.
type PublisherOption func(*Publisher)

// WithPublisherLogger sets the logger.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithCloseGrace sets the delay before the publish connection is closed.
func WithCloseGrace(grace time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.closeGrace = grace
	}
}

// WithConfirmTimeout sets how long to wait for the broker to accept a publish.
func WithConfirmTimeout(timeout time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.confirmTimeout = timeout
	}
}

// NewPublisher creates a publisher for the given broker URL and exchange.
func NewPublisher(url, exchange string, options ...PublisherOption) *Publisher {
	p := &Publisher{
		url:            url,
		exchange:       exchange,
		closeGrace:     DefaultCloseGrace,
		confirmTimeout: 5 * time.Second,
		logger:         slog.Default(),
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// PublishOnce publishes one message under the given routing key and waits
// for the broker to accept it. Acceptance means the broker took the publish,
// not that anyone received it. The connection is scheduled to close after
// the grace delay so in-flight frames can drain.
func (p *Publisher) PublishOnce(ctx context.Context, routingKey string, body []byte) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return &ConnectionError{
			Op:        "dial",
			URL:       SanitizeURL(p.url),
			Err:       err,
			Timestamp: time.Now(),
		}
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return &ConnectionError{
			Op:        "open channel",
			URL:       SanitizeURL(p.url),
			Err:       err,
			Timestamp: time.Now(),
		}
	}

	if err := DeclareExchange(ch, ExchangeDeclaration{Name: p.exchange, Kind: "topic"}); err != nil {
		conn.Close()
		return &PublishError{Exchange: p.exchange, RoutingKey: routingKey, Err: err, Timestamp: time.Now()}
	}
	if err := ch.Qos(1, 0, false); err != nil {
		conn.Close()
		return &PublishError{Exchange: p.exchange, RoutingKey: routingKey, Err: err, Timestamp: time.Now()}
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return &PublishError{Exchange: p.exchange, RoutingKey: routingKey, Err: err, Timestamp: time.Now()}
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	err = ch.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		conn.Close()
		return &PublishError{Exchange: p.exchange, RoutingKey: routingKey, Err: err, Timestamp: time.Now()}
	}

	select {
	case confirm := <-confirms:
		if !confirm.Ack {
			conn.Close()
			return &PublishError{Exchange: p.exchange, RoutingKey: routingKey, Err: ErrPublishNotConfirmed, Timestamp: time.Now()}
		}
	case <-time.After(p.confirmTimeout):
		conn.Close()
		return &PublishError{Exchange: p.exchange, RoutingKey: routingKey, Err: ErrPublishNotConfirmed, Timestamp: time.Now()}
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	}

	p.logger.Debug("message published",
		"exchange", p.exchange,
		"routingKey", routingKey,
	)

	// Let the channel drain before closing.
	time.AfterFunc(p.closeGrace, func() {
		if err := conn.Close(); err != nil {
			p.logger.Warn("closing publish connection", "error", err)
		}
	})

	return nil
}
