// Package hoppertalk is a contact-gated chat system over AMQP. Users are
// registered in a shared JSON directory, may only message accounts they
// have added as contacts, and receive messages on a per-user queue with
// persisted history replayed ahead of live delivery.
package hoppertalk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/hoppertalk/hoppertalk-go/directory"
	"github.com/hoppertalk/hoppertalk-go/internal/config"
	"github.com/hoppertalk/hoppertalk-go/internal/rabbitmq"
	"github.com/hoppertalk/hoppertalk-go/messaging"
)

// Client is the entry point wiring the directory, history, session,
// contact ledger, router and consumer loop together for one user process.
type Client struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *directory.Store
	history *directory.HistoryStore
	session *messaging.Session
	ledger  *messaging.ContactLedger
	router  *messaging.Router
	loop    *messaging.ConsumerLoop

	subscriptions []messaging.Subscription
}

type clientOptions struct {
	cfg     *config.Config
	logger  *slog.Logger
	dataDir string
	render  messaging.RenderFunc
}

// ClientOption configures the client.
type ClientOption func(*clientOptions)

// WithConfig sets the broker configuration. The default reads the process
// environment.
func WithConfig(cfg *config.Config) ClientOption {
	return func(o *clientOptions) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithDataDir sets the directory holding the users and messages files.
// Defaults to the working directory.
func WithDataDir(dir string) ClientOption {
	return func(o *clientOptions) {
		o.dataDir = dir
	}
}

// WithRenderFunc sets the hook receiving replayed and live messages.
func WithRenderFunc(render messaging.RenderFunc) ClientOption {
	return func(o *clientOptions) {
		o.render = render
	}
}

// NewClient builds a client. The session is not bound to a user until
// Initialize is called.
func NewClient(options ...ClientOption) *Client {
	opts := &clientOptions{
		cfg:     config.FromEnv(),
		logger:  slog.Default(),
		dataDir: ".",
	}
	for _, opt := range options {
		opt(opts)
	}
	if opts.render == nil {
		logger := opts.logger
		opts.render = func(r messaging.Rendered) {
			logger.Info("message received",
				"sender", r.Sender,
				"content", r.Content,
				"sentAt", r.SentAt,
				"fromHistory", r.FromHistory,
			)
		}
	}

	store := directory.NewStore(filepath.Join(opts.dataDir, "users.json"))
	history := directory.NewHistoryStore(filepath.Join(opts.dataDir, "messages.json"))

	url := opts.cfg.URL()
	publisher := rabbitmq.NewPublisher(url, opts.cfg.Exchange,
		rabbitmq.WithPublisherLogger(opts.logger),
	)
	consumer := rabbitmq.NewConsumer(url, opts.cfg.Exchange,
		rabbitmq.WithConsumerLogger(opts.logger),
	)

	session := messaging.NewSession(store, messaging.WithSessionLogger(opts.logger))
	ledger := messaging.NewContactLedger(store, messaging.WithLedgerLogger(opts.logger))
	router := messaging.NewRouter(ledger, history, publisher,
		messaging.WithRouterLogger(opts.logger),
	)
	loop := messaging.NewConsumerLoop(history, messaging.NewTransportSubscriber(consumer), opts.render,
		messaging.WithConsumerLoopLogger(opts.logger),
	)

	return &Client{
		cfg:     opts.cfg,
		logger:  opts.logger,
		store:   store,
		history: history,
		session: session,
		ledger:  ledger,
		router:  router,
		loop:    loop,
	}
}

// Initialize binds the client to a display name, creating the directory
// record on first use.
func (c *Client) Initialize(ctx context.Context, displayName string) error {
	return c.session.Initialize(ctx, displayName)
}

// User returns the bound directory record.
func (c *Client) User() (*directory.UserRecord, error) {
	return c.session.User()
}

// AddContact adds the named user to the contact list.
func (c *Client) AddContact(ctx context.Context, name string) (*directory.UserRecord, bool, error) {
	return c.ledger.AddContact(ctx, c.session, name)
}

// RemoveContact removes the named user from the contact list.
func (c *Client) RemoveContact(ctx context.Context, name string) error {
	return c.ledger.RemoveContact(ctx, c.session, name)
}

// Contacts lists the current contacts resolved against the directory.
func (c *Client) Contacts(ctx context.Context) ([]*directory.UserRecord, error) {
	return c.ledger.List(ctx, c.session)
}

// Send delivers a message to an authorized contact by display name.
func (c *Client) Send(ctx context.Context, content, recipientName string) error {
	return c.router.Send(ctx, c.session, content, recipientName)
}

// SendByID delivers a message to an authorized contact by directory id.
func (c *Client) SendByID(ctx context.Context, content, contactID string) error {
	return c.router.SendByID(ctx, c.session, content, contactID)
}

// Listen replays history for the queue (the session's own when empty) and
// then tails live deliveries through the render hook. The subscription is
// tracked and torn down by Close.
func (c *Client) Listen(ctx context.Context, queue string) (messaging.Subscription, error) {
	sub, err := c.loop.Consume(ctx, c.session, queue)
	if err != nil {
		return nil, err
	}
	c.subscriptions = append(c.subscriptions, sub)
	return sub, nil
}

// Close stops every open subscription.
func (c *Client) Close() error {
	var firstErr error
	for _, sub := range c.subscriptions {
		err := sub.Stop()
		if errors.Is(err, rabbitmq.ErrSubscriptionClosed) {
			continue // already stopped by the caller
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop subscription on %s: %w", sub.Queue(), err)
		}
	}
	c.subscriptions = nil
	return firstErr
}
