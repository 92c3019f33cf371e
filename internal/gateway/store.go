package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is the raw body of one successful read.
type Snapshot struct {
	Tag       Tag             `json:"tag"`
	Data      json.RawMessage `json:"data"`
	Version   uint64          `json:"version"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// SnapshotStore keeps the last successful read per query key.
type SnapshotStore interface {
	Get(ctx context.Context, key string) (Snapshot, bool, error)
	Put(ctx context.Context, key string, snap Snapshot) error
	// DropTag removes every snapshot stored under tag.
	DropTag(ctx context.Context, tag Tag) error
	// NextVersion returns a value greater than any version handed out before.
	NextVersion(ctx context.Context) (uint64, error)
	Close() error
}

type memoryStore struct {
	mu      sync.RWMutex
	snaps   map[string]Snapshot
	version atomic.Uint64
}

// NewMemoryStore returns a process-local snapshot store.
func NewMemoryStore() SnapshotStore {
	return &memoryStore{snaps: map[string]Snapshot{}}
}

func (s *memoryStore) Get(_ context.Context, key string) (Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[key]
	return snap, ok, nil
}

func (s *memoryStore) Put(_ context.Context, key string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[key] = snap
	return nil
}

func (s *memoryStore) DropTag(_ context.Context, tag Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, snap := range s.snaps {
		if snap.Tag == tag {
			delete(s.snaps, k)
		}
	}
	return nil
}

func (s *memoryStore) NextVersion(context.Context) (uint64, error) {
	return s.version.Add(1), nil
}

func (s *memoryStore) Close() error { return nil }
