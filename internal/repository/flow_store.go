package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"nextstop/internal/workflow"
)

// FlowStore keeps in-progress booking flows. Get returns
// workflow.ErrNotFound for unknown or expired ids.
type FlowStore interface {
	Get(ctx context.Context, id string) (*workflow.Flow, error)
	Save(ctx context.Context, f *workflow.Flow) error
	Delete(ctx context.Context, id string) error
}

// MemoryFlowStore holds flows in process memory. Flows are stored as JSON
// so callers never share state with the store.
type MemoryFlowStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	flows map[string]memoryFlow
}

type memoryFlow struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryFlowStore(ttl time.Duration) *MemoryFlowStore {
	return &MemoryFlowStore{ttl: ttl, now: time.Now, flows: make(map[string]memoryFlow)}
}

func (s *MemoryFlowStore) Get(_ context.Context, id string) (*workflow.Flow, error) {
	s.mu.Lock()
	entry, ok := s.flows[id]
	if ok && !s.now().Before(entry.expiresAt) {
		delete(s.flows, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, workflow.ErrNotFound
	}

	var f workflow.Flow
	if err := json.Unmarshal(entry.data, &f); err != nil {
		return nil, fmt.Errorf("decoding flow %s: %w", id, err)
	}
	return &f, nil
}

func (s *MemoryFlowStore) Save(_ context.Context, f *workflow.Flow) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding flow %s: %w", f.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[f.ID] = memoryFlow{data: data, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryFlowStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, id)
	return nil
}

// Sweep drops expired flows and reports how many were removed.
func (s *MemoryFlowStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, entry := range s.flows {
		if !now.Before(entry.expiresAt) {
			delete(s.flows, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryFlowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flows)
}
