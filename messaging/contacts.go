package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hoppertalk/hoppertalk-go/contracts"
	"github.com/hoppertalk/hoppertalk-go/directory"
)

// ContactLedger owns a session's directed contact relationships. Adding B
// as A's contact lets A message B; it grants B nothing.
//
// Every resolution hits the directory at call time rather than a cached
// snapshot, so a user deleted from the directory becomes unreachable even
// while a stale id lingers in someone's contact set.
type ContactLedger struct {
	store  DirectoryStore
	logger *slog.Logger
}

// LedgerOption configures the contact ledger.
type LedgerOption func(*ContactLedger)

// WithLedgerLogger sets the logger.
func WithLedgerLogger(logger *slog.Logger) LedgerOption {
	return func(l *ContactLedger) {
		l.logger = logger
	}
}

// NewContactLedger creates a ledger backed by the given directory.
func NewContactLedger(store DirectoryStore, options ...LedgerOption) *ContactLedger {
	l := &ContactLedger{
		store:  store,
		logger: slog.Default(),
	}

	for _, opt := range options {
		opt(l)
	}

	return l
}

// AddContact adds the named user to the session's contact set and returns
// the resolved record. It fails with ErrUnknownUser when the name is not in
// the directory and ErrSelfReference when it resolves to the session's own
// id. Adding an existing contact is a no-op reported via added=false, not
// an error.
func (l *ContactLedger) AddContact(ctx context.Context, session *Session, targetName string) (contact *directory.UserRecord, added bool, err error) {
	userID, err := session.UserID()
	if err != nil {
		return nil, false, err
	}

	target, err := l.store.FindByName(ctx, targetName)
	if err != nil {
		return nil, false, err
	}
	if target.ID == userID {
		return nil, false, contracts.ErrSelfReference
	}

	added, err = l.store.MutateContacts(ctx, userID, directory.ContactAdd, target.ID)
	if err != nil {
		return nil, false, fmt.Errorf("add contact %q: %w", targetName, err)
	}
	if added {
		l.logger.Info("contact added", "user", userID, "contact", target.Name)
	}
	return target, added, nil
}

// RemoveContact removes the named user from the session's contact set. It
// fails with ErrUnknownUser when the name is unresolvable and ErrNotContact
// when the user exists but was never added.
func (l *ContactLedger) RemoveContact(ctx context.Context, session *Session, targetName string) error {
	userID, err := session.UserID()
	if err != nil {
		return err
	}

	target, err := l.store.FindByName(ctx, targetName)
	if err != nil {
		return err
	}

	removed, err := l.store.MutateContacts(ctx, userID, directory.ContactRemove, target.ID)
	if err != nil {
		return fmt.Errorf("remove contact %q: %w", targetName, err)
	}
	if !removed {
		return fmt.Errorf("%w: %q", contracts.ErrNotContact, targetName)
	}

	l.logger.Info("contact removed", "user", userID, "contact", target.Name)
	return nil
}

// List resolves the session's contacts to full records against the current
// directory. Ids that no longer resolve are silently dropped; an empty
// result is not an error.
func (l *ContactLedger) List(ctx context.Context, session *Session) ([]*directory.UserRecord, error) {
	userID, err := session.UserID()
	if err != nil {
		return nil, err
	}

	// Re-read the session's own record so the contact set is current.
	user, err := l.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	contacts := make([]*directory.UserRecord, 0, len(user.Contacts))
	for _, id := range user.Contacts {
		contact, err := l.store.FindByID(ctx, id)
		if errors.Is(err, contracts.ErrUnknownUser) {
			continue // stale id, tolerated by policy
		}
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

// FindByName returns the session's contact with the given display name.
// This is the authorization gate the router sends through: a user absent
// from the resolved contact set fails with ErrNotContact whether or not
// they exist in the directory.
func (l *ContactLedger) FindByName(ctx context.Context, session *Session, name string) (*directory.UserRecord, error) {
	contacts, err := l.List(ctx, session)
	if err != nil {
		return nil, err
	}
	for _, c := range contacts {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", contracts.ErrNotContact, name)
}
