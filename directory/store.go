package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hoppertalk/hoppertalk-go/contracts"
)

// ContactOp selects the mutation MutateContacts performs.
type ContactOp int

const (
	// ContactAdd appends the target id to the contact set.
	ContactAdd ContactOp = iota
	// ContactRemove deletes the target id from the contact set.
	ContactRemove
)

type storeFile struct {
	Users []*UserRecord `json:"users"`
}

// Store is the JSON-file-backed user directory. It guarantees display-name
// uniqueness at the storage layer.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a directory store backed by the given file. The file is
// created on first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) load() (*storeFile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &storeFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("directory: read %s: %w", s.path, err)
	}
	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("directory: decode %s: %w", s.path, err)
	}
	return &f, nil
}

func (s *Store) save(f *storeFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("directory: encode: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("directory: write %s: %w", s.path, err)
	}
	return nil
}

// Create registers a new user. It fails with ErrDirectoryConflict when the
// display name is already taken.
func (s *Store) Create(ctx context.Context, name string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, u := range f.Users {
		if u.Name == name {
			return nil, fmt.Errorf("%w: %q", contracts.ErrDirectoryConflict, name)
		}
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	user := &UserRecord{
		ID:        id,
		Name:      name,
		Queue:     QueueName(name, id),
		Contacts:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.Users = append(f.Users, user)
	if err := s.save(f); err != nil {
		return nil, err
	}
	return user, nil
}

// FindByName returns the record for a display name, or ErrUnknownUser.
func (s *Store) FindByName(ctx context.Context, name string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, u := range f.Users {
		if u.Name == name {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: name %q", contracts.ErrUnknownUser, name)
}

// FindByID returns the record for an id, or ErrUnknownUser.
func (s *Store) FindByID(ctx context.Context, id string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, u := range f.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: id %q", contracts.ErrUnknownUser, id)
}

// FindByQueue returns the record owning a destination queue, or ErrUnknownUser.
func (s *Store) FindByQueue(ctx context.Context, queue string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, u := range f.Users {
		if u.Queue == queue {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: queue %q", contracts.ErrUnknownUser, queue)
}

// List returns every record in the directory.
func (s *Store) List(ctx context.Context) ([]*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	return f.Users, nil
}

// MutateContacts adds or removes a contact id on a user. It returns false
// without error when the mutation is a no-op: adding an id already present,
// or removing one that is absent.
func (s *Store) MutateContacts(ctx context.Context, userID string, op ContactOp, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return false, err
	}

	var user *UserRecord
	for _, u := range f.Users {
		if u.ID == userID {
			user = u
			break
		}
	}
	if user == nil {
		return false, fmt.Errorf("%w: id %q", contracts.ErrUnknownUser, userID)
	}

	switch op {
	case ContactAdd:
		if user.HasContact(targetID) {
			return false, nil
		}
		user.Contacts = append(user.Contacts, targetID)
	case ContactRemove:
		idx := -1
		for i, c := range user.Contacts {
			if c == targetID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return false, nil
		}
		user.Contacts = append(user.Contacts[:idx], user.Contacts[idx+1:]...)
	default:
		return false, fmt.Errorf("directory: unknown contact op %d", op)
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.save(f); err != nil {
		return false, err
	}
	return true, nil
}

// Rename changes a user's display name and re-derives the queue name.
// It fails with ErrDirectoryConflict when the new name is already taken.
func (s *Store) Rename(ctx context.Context, id, newName string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}

	var user *UserRecord
	for _, u := range f.Users {
		if u.Name == newName && u.ID != id {
			return nil, fmt.Errorf("%w: %q", contracts.ErrDirectoryConflict, newName)
		}
		if u.ID == id {
			user = u
		}
	}
	if user == nil {
		return nil, fmt.Errorf("%w: id %q", contracts.ErrUnknownUser, id)
	}

	user.Name = newName
	user.Queue = QueueName(newName, user.ID)
	user.UpdatedAt = time.Now().UTC()
	if err := s.save(f); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a user from the directory. Contact sets pointing at the
// deleted id are left alone; readers filter dangling ids.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return false, err
	}
	for i, u := range f.Users {
		if u.ID == id {
			f.Users = append(f.Users[:i], f.Users[i+1:]...)
			if err := s.save(f); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// Clear removes every record. Intended for administrative purges and tests.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(&storeFile{})
}
