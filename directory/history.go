package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MessageRecord is one appended entry in the message history. Records are
// immutable once written.
type MessageRecord struct {
	ID               string    `json:"id"`
	Sender           string    `json:"sender"`
	Content          string    `json:"content"`
	Timestamp        time.Time `json:"timestamp"`
	DestinationQueue string    `json:"destination_queue"`
}

type historyFile struct {
	Messages []*MessageRecord `json:"messages"`
}

// HistoryStore is the JSON-file-backed append log of delivered messages,
// queryable by destination queue.
type HistoryStore struct {
	path string
	mu   sync.Mutex
}

// NewHistoryStore creates a history store backed by the given file.
func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{path: path}
}

func (h *HistoryStore) load() (*historyFile, error) {
	data, err := os.ReadFile(h.path)
	if errors.Is(err, os.ErrNotExist) {
		return &historyFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: read %s: %w", h.path, err)
	}
	var f historyFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("history: decode %s: %w", h.path, err)
	}
	return &f, nil
}

func (h *HistoryStore) save(f *historyFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0o644); err != nil {
		return fmt.Errorf("history: write %s: %w", h.path, err)
	}
	return nil
}

// Append records a message bound for a destination queue.
func (h *HistoryStore) Append(ctx context.Context, sender, content, destinationQueue string) (*MessageRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := h.load()
	if err != nil {
		return nil, err
	}
	rec := &MessageRecord{
		ID:               uuid.NewString(),
		Sender:           sender,
		Content:          content,
		Timestamp:        time.Now().UTC(),
		DestinationQueue: destinationQueue,
	}
	f.Messages = append(f.Messages, rec)
	if err := h.save(f); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListByQueue returns the records destined for a queue, ordered by timestamp
// ascending. The stored order is not trusted; records are re-sorted on read.
func (h *HistoryStore) ListByQueue(ctx context.Context, queue string) ([]*MessageRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := h.load()
	if err != nil {
		return nil, err
	}
	var out []*MessageRecord
	for _, m := range f.Messages {
		if m.DestinationQueue == queue {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}
