package messaging

import (
	"context"

	"github.com/hoppertalk/hoppertalk-go/directory"
	"github.com/hoppertalk/hoppertalk-go/internal/rabbitmq"
)

// DirectoryStore is the slice of the user directory the messaging core
// depends on.
type DirectoryStore interface {
	Create(ctx context.Context, name string) (*directory.UserRecord, error)
	FindByName(ctx context.Context, name string) (*directory.UserRecord, error)
	FindByID(ctx context.Context, id string) (*directory.UserRecord, error)
	MutateContacts(ctx context.Context, userID string, op directory.ContactOp, targetID string) (bool, error)
}

// HistoryStore is the append log of delivered messages.
type HistoryStore interface {
	Append(ctx context.Context, sender, content, destinationQueue string) (*directory.MessageRecord, error)
	ListByQueue(ctx context.Context, queue string) ([]*directory.MessageRecord, error)
}

// TransportPublisher publishes one message under a routing key.
type TransportPublisher interface {
	PublishOnce(ctx context.Context, routingKey string, body []byte) error
}

// Subscription is the handle for a standing queue subscription.
type Subscription interface {
	Queue() string
	Stop() error
	Done() <-chan struct{}
}

// TransportSubscriber opens standing subscriptions on destination queues.
type TransportSubscriber interface {
	Subscribe(ctx context.Context, queue string, handler rabbitmq.DeliveryHandler) (Subscription, error)
}

// NewTransportSubscriber adapts the concrete AMQP consumer to the
// TransportSubscriber interface.
func NewTransportSubscriber(consumer *rabbitmq.Consumer) TransportSubscriber {
	return &amqpSubscriber{consumer: consumer}
}

type amqpSubscriber struct {
	consumer *rabbitmq.Consumer
}

func (s *amqpSubscriber) Subscribe(ctx context.Context, queue string, handler rabbitmq.DeliveryHandler) (Subscription, error) {
	return s.consumer.Subscribe(ctx, queue, handler)
}
