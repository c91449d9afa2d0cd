package snapshot

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_CreateAndGet(t *testing.T) {
	// WHAT: Create allocates a snapshot visible by id.
	// WHY: Start returns the id as the caller's only handle.
	st := NewStore()

	snap := st.Create(StartParams{Page: 1, Limit: 50})
	if snap.ID == "" {
		t.Fatal("snapshot id should be generated")
	}
	if st.Get(snap.ID) != snap {
		t.Error("Get should return the created snapshot")
	}
	if st.Get("missing") != nil {
		t.Error("unknown id should return nil")
	}
}

func TestStore_UniqueIDs(t *testing.T) {
	st := NewStore()
	a := st.Create(StartParams{})
	b := st.Create(StartParams{})
	if a.ID == b.ID {
		t.Fatalf("ids collide: %s", a.ID)
	}
}

func TestStore_RemoveCancelsTask(t *testing.T) {
	// WHAT: Remove deletes the snapshot and cancels its attached task.
	// WHY: close must stop a running build, not just hide the buffer.
	st := NewStore()
	snap := st.Create(StartParams{})

	var cancelled atomic.Bool
	st.attachTask(snap.ID, &task{
		cancel: func() { cancelled.Store(true) },
		done:   make(chan struct{}),
	})

	if !st.Remove(snap.ID) {
		t.Fatal("Remove should report existed=true")
	}
	if !cancelled.Load() {
		t.Error("task cancel should have been invoked")
	}
	if st.Get(snap.ID) != nil {
		t.Error("snapshot should be gone after Remove")
	}
	if st.Remove(snap.ID) {
		t.Error("second Remove should report existed=false")
	}
}

func TestStore_RemoveUnknown(t *testing.T) {
	st := NewStore()
	if st.Remove("never-issued") {
		t.Error("removing an unknown id should report existed=false")
	}
}

func TestStore_Sweep(t *testing.T) {
	// WHAT: Sweep reclaims snapshots whose age exceeds the ttl.
	// WHY: expiry runs piggy-backed on service calls, not on a timer.
	st := NewStore()

	old := st.Create(StartParams{})
	old.CreatedAt = time.Now().Add(-time.Hour)
	fresh := st.Create(StartParams{})

	var cancelled atomic.Bool
	st.attachTask(old.ID, &task{
		cancel: func() { cancelled.Store(true) },
		done:   make(chan struct{}),
	})

	st.Sweep(15 * time.Minute)

	if st.Get(old.ID) != nil {
		t.Error("expired snapshot should be swept")
	}
	if !cancelled.Load() {
		t.Error("sweep should cancel the expired snapshot's task")
	}
	if st.Get(fresh.ID) == nil {
		t.Error("fresh snapshot should survive the sweep")
	}
	if st.len() != 1 {
		t.Errorf("store len = %d, want 1", st.len())
	}
}
