// CLAUDE:SUMMARY In-memory bulk export buffers: background pagination of an upstream collection into chunk-readable snapshots with TTL expiry and an item cap.

// Package snapshot manages short-lived in-memory exports of a paginated
// upstream collection. A snapshot is started, filled by a background
// builder, read in arbitrary-offset chunks while still building, and
// reclaimed either explicitly or by a TTL sweep. Nothing is persisted.
package snapshot

import (
	"context"
	"sync"
	"time"
)

// PageFetcher returns one page of normalized records. Page numbers are
// 1-based. Exhaustion is signaled by returning fewer records than
// perPage; there is no reliable total-count signal upstream.
type PageFetcher func(ctx context.Context, page, perPage int, filters map[string]string) ([]map[string]any, error)

// Projector reduces raw records to the caller's requested field set.
type Projector func(items []map[string]any, fields []string) []map[string]any

// StartParams is the original build request, kept on the snapshot for
// introspection via Status. The builder reads it once at launch.
type StartParams struct {
	Page    int               `json:"page"`
	Limit   int               `json:"limit"`
	Filters map[string]string `json:"filters,omitempty"`
	Fields  []string          `json:"fields,omitempty"`
}

// Snapshot is one in-progress or completed export. Items are appended
// by the owning builder only, in upstream page order. ready and err are
// mutually exclusive terminal markers.
type Snapshot struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	items  []map[string]any
	ready  bool
	errMsg string
	params StartParams
}

func (s *Snapshot) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// append adds a projected page to the buffer.
func (s *Snapshot) append(items []map[string]any) {
	s.mu.Lock()
	s.items = append(s.items, items...)
	s.mu.Unlock()
}

func (s *Snapshot) setReady() {
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
}

// fail records the terminal error. The first message wins.
func (s *Snapshot) fail(msg string) {
	s.mu.Lock()
	if s.errMsg == "" {
		s.errMsg = msg
	}
	s.mu.Unlock()
}

// state returns a consistent reading of the mutable fields.
func (s *Snapshot) state() (ready bool, total int, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready, len(s.items), s.errMsg
}

// slice copies items[start:end] clamped to the current buffer. The copy
// keeps readers independent of the builder's ongoing appends.
func (s *Snapshot) slice(start, end int) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if start > len(s.items) {
		start = len(s.items)
	}
	if end > len(s.items) {
		end = len(s.items)
	}
	out := make([]map[string]any, end-start)
	copy(out, s.items[start:end])
	return out
}
