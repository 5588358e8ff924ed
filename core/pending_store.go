package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDispatchNotPending is returned by pending stores when no dispatch is
// outstanding for a token. Any other store error is a storage failure.
var ErrDispatchNotPending = errors.New("correlation token is not pending")

func IsDispatchNotPending(err error) bool {
	return errors.Is(err, ErrDispatchNotPending)
}

// MemoryPendingStore keeps dispatches that are waiting on the external
// process, keyed by correlation token. A token stays reserved until it is
// consumed.
type MemoryPendingStore struct {
	mu      sync.Mutex
	entries map[int64]PendingDispatch
}

func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{entries: map[int64]PendingDispatch{}}
}

func (s *MemoryPendingStore) Save(_ context.Context, pending PendingDispatch) error {
	if s == nil {
		return fmt.Errorf("core: pending store is not configured")
	}
	if pending.Token <= 0 {
		return fmt.Errorf("core: correlation token is required")
	}
	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[pending.Token]; exists {
		return fmt.Errorf("core: correlation token %d is already outstanding", pending.Token)
	}
	s.entries[pending.Token] = clonePendingDispatch(pending)
	return nil
}

func (s *MemoryPendingStore) Get(_ context.Context, token int64) (PendingDispatch, error) {
	if s == nil {
		return PendingDispatch{}, fmt.Errorf("core: pending store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.entries[token]
	if !ok {
		return PendingDispatch{}, fmt.Errorf("core: %w: %d", ErrDispatchNotPending, token)
	}
	return clonePendingDispatch(pending), nil
}

func (s *MemoryPendingStore) UpdateState(_ context.Context, token int64, state DispatchState) error {
	if s == nil {
		return fmt.Errorf("core: pending store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pending, ok := s.entries[token]
	if !ok {
		return fmt.Errorf("core: %w: %d", ErrDispatchNotPending, token)
	}
	pending.State = state
	s.entries[token] = pending
	return nil
}

func (s *MemoryPendingStore) Consume(_ context.Context, token int64) (PendingDispatch, error) {
	if s == nil {
		return PendingDispatch{}, fmt.Errorf("core: pending store is not configured")
	}
	s.mu.Lock()
	pending, ok := s.entries[token]
	if ok {
		delete(s.entries, token)
	}
	s.mu.Unlock()

	if !ok {
		return PendingDispatch{}, fmt.Errorf("core: %w: %d", ErrDispatchNotPending, token)
	}
	return clonePendingDispatch(pending), nil
}

