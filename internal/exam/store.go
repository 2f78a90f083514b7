package exam

import (
	"context"
	"encoding/json"
	"sync"
)

// AttemptListOpts filters attempt listings for dashboards and "my attempts".
type AttemptListOpts struct {
	BlueprintID string
	UserID      string
	Status      string
	Limit       int
	Offset      int
}

// AttemptStore persists attempts. Mutate is the engine's write path: it must
// apply fn under an exclusive per-attempt lock and persist the result only
// when fn succeeds, giving the read-modify-write atomicity the engine's
// contract requires.
type AttemptStore interface {
	Create(ctx context.Context, a *Attempt) error
	Get(ctx context.Context, id string) (*Attempt, error)
	Mutate(ctx context.Context, id string, fn func(a *Attempt) error) (*Attempt, error)
	List(ctx context.Context, opts AttemptListOpts) ([]*Attempt, error)
}

// BlueprintStore persists exam blueprints.
type BlueprintStore interface {
	Put(ctx context.Context, bp *Blueprint) error
	Get(ctx context.Context, id string) (*Blueprint, error)
	List(ctx context.Context) ([]*Blueprint, error)
}

// memoryAttemptStore keeps attempts in a map. Offline/dev and tests.
type memoryAttemptStore struct {
	mu       sync.Mutex
	attempts map[string]*Attempt
}

func NewMemoryAttemptStore() AttemptStore {
	return &memoryAttemptStore{attempts: map[string]*Attempt{}}
}

func (m *memoryAttemptStore) Create(ctx context.Context, a *Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.attempts {
		if existing.BlueprintID == a.BlueprintID && existing.UserID == a.UserID && existing.Status != StatusCompleted {
			return ErrActiveAttempt
		}
	}
	m.attempts[a.ID] = cloneAttempt(a)
	return nil
}

func (m *memoryAttemptStore) Get(ctx context.Context, id string) (*Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return cloneAttempt(a), nil
}

func (m *memoryAttemptStore) Mutate(ctx context.Context, id string, fn func(a *Attempt) error) (*Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	// fn runs on a copy; commit only on success.
	next := cloneAttempt(a)
	if err := fn(next); err != nil {
		return nil, err
	}
	m.attempts[id] = next
	return cloneAttempt(next), nil
}

func (m *memoryAttemptStore) List(ctx context.Context, opts AttemptListOpts) ([]*Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Attempt{}
	for _, a := range m.attempts {
		if opts.BlueprintID != "" && a.BlueprintID != opts.BlueprintID {
			continue
		}
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && string(a.Status) != opts.Status {
			continue
		}
		out = append(out, cloneAttempt(a))
	}
	return out, nil
}

// cloneAttempt deep-copies through JSON; attempts are small and this keeps
// the copy honest as fields evolve.
func cloneAttempt(a *Attempt) *Attempt {
	buf, _ := json.Marshal(a)
	var out Attempt
	_ = json.Unmarshal(buf, &out)
	out.ensureMaps()
	return &out
}

// memoryBlueprintStore mirrors the attempt store for blueprints.
type memoryBlueprintStore struct {
	mu         sync.RWMutex
	blueprints map[string]*Blueprint
}

func NewMemoryBlueprintStore() BlueprintStore {
	return &memoryBlueprintStore{blueprints: map[string]*Blueprint{}}
}

func (m *memoryBlueprintStore) Put(ctx context.Context, bp *Blueprint) error {
	if err := bp.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blueprints[bp.ID] = bp
	return nil
}

func (m *memoryBlueprintStore) Get(ctx context.Context, id string) (*Blueprint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bp, ok := m.blueprints[id]
	if !ok {
		return nil, ErrBlueprintNotFound
	}
	return bp, nil
}

func (m *memoryBlueprintStore) List(ctx context.Context) ([]*Blueprint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Blueprint, 0, len(m.blueprints))
	for _, bp := range m.blueprints {
		out = append(out, bp)
	}
	return out, nil
}
