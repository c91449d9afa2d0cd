package snapshot

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// task is the handle of a running builder. Cancellation is routed
// through it; done closes when the builder goroutine exits.
type task struct {
	cancel func()
	done   chan struct{}
}

// Store owns the id→snapshot and id→task maps for one collection kind.
// It is constructed once per Service, never shared across kinds.
type Store struct {
	mu    sync.Mutex
	snaps map[string]*Snapshot
	tasks map[string]*task
}

func NewStore() *Store {
	return &Store{
		snaps: make(map[string]*Snapshot),
		tasks: make(map[string]*task),
	}
}

// Create allocates a fresh snapshot with a random id. Never fails.
func (st *Store) Create(params StartParams) *Snapshot {
	snap := &Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		params:    params,
	}
	st.mu.Lock()
	st.snaps[snap.ID] = snap
	st.mu.Unlock()
	return snap
}

// Get returns the snapshot or nil. Presence does not imply readiness.
func (st *Store) Get(id string) *Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snaps[id]
}

func (st *Store) attachTask(id string, t *task) {
	st.mu.Lock()
	st.tasks[id] = t
	st.mu.Unlock()
}

// Remove deletes the snapshot and cancels its builder if still running.
// Cancellation is best-effort: Remove does not wait for the goroutine
// to observe it. Reports whether the snapshot existed.
func (st *Store) Remove(id string) bool {
	st.mu.Lock()
	_, existed := st.snaps[id]
	delete(st.snaps, id)
	t := st.tasks[id]
	delete(st.tasks, id)
	st.mu.Unlock()

	if t != nil {
		t.cancel()
	}
	return existed
}

// Sweep removes every snapshot older than ttl. Called at the top of
// each service operation, so staleness is bounded by call frequency
// rather than by a dedicated timer.
func (st *Store) Sweep(ttl time.Duration) {
	now := time.Now()

	st.mu.Lock()
	var expired []string
	for id, snap := range st.snaps {
		if now.Sub(snap.CreatedAt) > ttl {
			expired = append(expired, id)
		}
	}
	st.mu.Unlock()

	for _, id := range expired {
		st.Remove(id)
	}
}

// len reports the number of live snapshots. Test hook.
func (st *Store) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.snaps)
}
