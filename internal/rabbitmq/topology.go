package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeDeclaration defines an exchange to be declared.
type ExchangeDeclaration struct {
	Name    string
	Kind    string // "topic" or "direct"
	Durable bool
}

// QueueDeclaration defines a queue to be declared.
type QueueDeclaration struct {
	Name    string
	Durable bool
}

// Binding defines a queue-to-exchange binding.
type Binding struct {
	Queue      string
	Exchange   string
	BindingKey string
}

// DeclareExchange declares an exchange on the given channel.
func DeclareExchange(ch *amqp.Channel, d ExchangeDeclaration) error {
	return ch.ExchangeDeclare(
		d.Name,
		d.Kind,
		d.Durable,
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
}

// DeclareQueue declares a queue on the given channel.
func DeclareQueue(ch *amqp.Channel, d QueueDeclaration) (amqp.Queue, error) {
	return ch.QueueDeclare(
		d.Name,
		d.Durable,
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
}

// BindQueue binds a queue to an exchange on the given channel.
func BindQueue(ch *amqp.Channel, b Binding) error {
	return ch.QueueBind(
		b.Queue,
		b.BindingKey,
		b.Exchange,
		false, // no-wait
		nil,
	)
}

// ConsumeBindingKey is the binding key a destination queue is attached
// to its exchange with.
func ConsumeBindingKey(queue string) string {
	return "key_" + queue
}

// DeclareConsumeTopology declares the direct exchange, the destination
// queue, and the key_<queue> binding the consume path relies on.
func DeclareConsumeTopology(ch *amqp.Channel, exchange, queue string) error {
	if err := DeclareExchange(ch, ExchangeDeclaration{Name: exchange, Kind: "direct"}); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if _, err := DeclareQueue(ch, QueueDeclaration{Name: queue}); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := BindQueue(ch, Binding{Queue: queue, Exchange: exchange, BindingKey: ConsumeBindingKey(queue)}); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", queue, exchange, err)
	}
	return nil
}
