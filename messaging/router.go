package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hoppertalk/hoppertalk-go/contracts"
	"github.com/hoppertalk/hoppertalk-go/directory"
)

// RoutingKey computes the transport routing key for a sender/recipient
// pair. Both names are sanitized the same way queue names are.
func RoutingKey(sender, recipient string) string {
	return fmt.Sprintf("de_.%s._para_.%s",
		directory.SanitizeName(sender), directory.SanitizeName(recipient))
}

// Router publishes outbound messages. Every send passes through the
// contact ledger first; there is no path to an arbitrary directory entry.
type Router struct {
	ledger    *ContactLedger
	history   HistoryStore
	publisher TransportPublisher
	logger    *slog.Logger
}

// RouterOption configures the router.
type RouterOption func(*Router)

// WithRouterLogger sets the logger.
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// NewRouter creates a router sending through the given ledger, history
// store and transport publisher.
func NewRouter(ledger *ContactLedger, history HistoryStore, publisher TransportPublisher, options ...RouterOption) *Router {
	r := &Router{
		ledger:    ledger,
		history:   history,
		publisher: publisher,
		logger:    slog.Default(),
	}

	for _, opt := range options {
		opt(r)
	}

	return r
}

// Send delivers content to an authorized contact. The ledger gate's failure
// is propagated verbatim. The message is appended to history, keyed by the
// recipient's queue, before the transport publish: history records the
// intent to deliver, not confirmed delivery. Broker setup failures surface
// as ErrTransportUnavailable.
func (r *Router) Send(ctx context.Context, session *Session, content, recipientName string) error {
	sender, err := session.UserName()
	if err != nil {
		return err
	}

	contact, err := r.ledger.FindByName(ctx, session, recipientName)
	if err != nil {
		return err
	}

	if _, err := r.history.Append(ctx, sender, content, contact.Queue); err != nil {
		return fmt.Errorf("record message for %q: %w", contact.Queue, err)
	}

	envelope := contracts.NewEnvelope(sender, content, contact.Queue)
	body, err := envelope.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	key := RoutingKey(sender, contact.Name)
	if err := r.publisher.PublishOnce(ctx, key, body); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrTransportUnavailable, err)
	}

	r.logger.Info("message sent",
		"sender", sender,
		"recipient", contact.Name,
		"routingKey", key,
	)
	return nil
}

// SendByID delivers content to a contact addressed by directory id. The id
// is resolved to a name and funneled through the same authorization path as
// Send; an id lookup never bypasses the contact check.
func (r *Router) SendByID(ctx context.Context, session *Session, content, contactID string) error {
	if _, err := session.UserID(); err != nil {
		return err
	}

	contact, err := r.ledger.store.FindByID(ctx, contactID)
	if err != nil {
		return err
	}
	return r.Send(ctx, session, content, contact.Name)
}
