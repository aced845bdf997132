package rabbitmq

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

var (
	// ErrConnectionTimeout is returned when the broker does not accept a
	// connection before the dial deadline.
	ErrConnectionTimeout = errors.New("rabbitmq: connection timeout")

	// ErrPublishNotConfirmed is returned when the broker does not confirm
	// a publish before the confirmation deadline.
	ErrPublishNotConfirmed = errors.New("rabbitmq: publish not confirmed")

	// ErrSubscriptionClosed is returned when an operation runs against a
	// subscription that has already been stopped.
	ErrSubscriptionClosed = errors.New("rabbitmq: subscription is closed")
)

// ConnectionError reports a failed connection attempt.
type ConnectionError struct {
	Op        string // operation that failed
	URL       string // connection URL, credentials redacted
	Err       error
	Timestamp time.Time
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("rabbitmq connection error: %s to %s failed: %v", e.Op, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// PublishError reports a failed publish.
type PublishError struct {
	Exchange   string
	RoutingKey string
	Err        error
	Timestamp  time.Time
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("rabbitmq publish error: publish to %s/%s failed: %v",
		e.Exchange, e.RoutingKey, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// ConsumerError reports a failure on the consume path.
type ConsumerError struct {
	Queue     string
	Op        string
	Err       error
	Timestamp time.Time
}

func (e *ConsumerError) Error() string {
	return fmt.Sprintf("rabbitmq consumer error: %s failed on queue %s: %v",
		e.Op, e.Queue, e.Err)
}

func (e *ConsumerError) Unwrap() error {
	return e.Err
}

// SanitizeURL redacts credentials from a connection URL for logging.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.User(u.User.Username())
	}
	return u.Redacted()
}
