package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hoppertalk/hoppertalk-go/contracts"
	"github.com/hoppertalk/hoppertalk-go/directory"
)

// Session binds a display name to a directory record for the lifetime of a
// process. Every authorization check hangs off the session's record; all
// operations fail with ErrNotInitialized until Initialize has succeeded.
//
// Callers must serialize operations on one session. The directory's
// read-modify-write cycle for contact mutation is not atomic across
// concurrent mutators of the same user.
type Session struct {
	store  DirectoryStore
	logger *slog.Logger

	mu          sync.RWMutex
	user        *directory.UserRecord
	initialized bool
}

// SessionOption configures the session.
type SessionOption func(*Session)

// WithSessionLogger sets the logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates an uninitialized session backed by the given directory.
func NewSession(store DirectoryStore, options ...SessionOption) *Session {
	s := &Session{
		store:  store,
		logger: slog.Default(),
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// Initialize resolves the display name to a directory record, creating one
// when absent. Find-or-create is a read followed by a conditional write, so
// a concurrent create of the same name can surface as a conflict; that race
// is absorbed by retrying the lookup once.
func (s *Session) Initialize(ctx context.Context, displayName string) error {
	user, err := s.findOrCreate(ctx, displayName)
	if errors.Is(err, contracts.ErrDirectoryConflict) {
		// Lost the race to another process creating the same name. The
		// record exists now, so the lookup succeeds.
		user, err = s.store.FindByName(ctx, displayName)
	}
	if err != nil {
		return fmt.Errorf("initialize session for %q: %w", displayName, err)
	}

	s.mu.Lock()
	s.user = user
	s.initialized = true
	s.mu.Unlock()

	s.logger.Info("session initialized",
		"user", user.Name,
		"queue", user.Queue,
	)
	return nil
}

func (s *Session) findOrCreate(ctx context.Context, displayName string) (*directory.UserRecord, error) {
	user, err := s.store.FindByName(ctx, displayName)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, contracts.ErrUnknownUser) {
		return nil, err
	}
	return s.store.Create(ctx, displayName)
}

// User returns the session's directory record.
func (s *Session) User() (*directory.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized || s.user == nil {
		return nil, contracts.ErrNotInitialized
	}
	return s.user, nil
}

// UserID returns the session's record id.
func (s *Session) UserID() (string, error) {
	user, err := s.User()
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// UserName returns the session's display name.
func (s *Session) UserName() (string, error) {
	user, err := s.User()
	if err != nil {
		return "", err
	}
	return user.Name, nil
}

// Queue returns the session's destination queue.
func (s *Session) Queue() (string, error) {
	user, err := s.User()
	if err != nil {
		return "", err
	}
	return user.Queue, nil
}
