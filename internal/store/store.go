// Package store provides key-value storage backends for locally cached app state
// (startup info, consent, push tokens, user country).
//
// Values are stored as JSON. A missing key is not an error: GetObject reports found=false.
package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/goccy/go-json"
)

// Store is a JSON key-value store.
type Store interface {
	// GetObject decodes the value under key into out and reports whether the key existed.
	GetObject(ctx context.Context, key string, out any) (bool, error)
	// SetObject encodes value as JSON and stores it under key.
	SetObject(ctx context.Context, key string, value any) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend connection.
	Close() error
}

// InMemoryStore is a Store kept in process memory.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string][]byte)}
}

var _ Store = (*InMemoryStore)(nil)

func (s *InMemoryStore) GetObject(ctx context.Context, key string, out any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		slog.Error("InMemoryStore GetObject decode failed", "key", key, "error", err)
		return false, err
	}
	return true, nil
}

func (s *InMemoryStore) SetObject(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Error("InMemoryStore SetObject encode failed", "key", key, "error", err)
		return err
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
