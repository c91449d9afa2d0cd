package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultTTL bounds how long an abandoned snapshot lingers before a
	// sweep reclaims it.
	DefaultTTL = 15 * time.Minute
	// DefaultMaxItems caps the buffer of a single snapshot. Exceeding it
	// fails the build while keeping the accumulated items readable.
	DefaultMaxItems = 250_000
)

// Service exposes the four snapshot operations for one collection kind.
// Each operation sweeps expired snapshots before doing its own work.
type Service struct {
	store    *Store
	fetch    PageFetcher
	project  Projector
	ttl      time.Duration
	maxItems int
	pageCap  int
	log      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides the expiry window.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithMaxItems overrides the per-snapshot item cap.
func WithMaxItems(n int) Option {
	return func(s *Service) { s.maxItems = n }
}

// WithPageSizeCap clamps the build page size to an upstream maximum
// (the availability endpoint rejects pages above 1000).
func WithPageSizeCap(n int) Option {
	return func(s *Service) { s.pageCap = n }
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// New builds a Service around a page fetcher and a projector.
func New(fetch PageFetcher, project Projector, opts ...Option) *Service {
	s := &Service{
		store:    NewStore(),
		fetch:    fetch,
		project:  project,
		ttl:      DefaultTTL,
		maxItems: DefaultMaxItems,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartResult is the immediate reply to Start; the build continues in
// the background.
type StartResult struct {
	SnapshotID string `json:"snapshotId"`
	Ready      bool   `json:"ready"`
	Total      int    `json:"total"`
}

// StatusResult mirrors a snapshot's metadata. Error is null while the
// build is healthy.
type StatusResult struct {
	SnapshotID string      `json:"snapshotId"`
	Ready      bool        `json:"ready"`
	Total      int         `json:"total"`
	Error      *string     `json:"error"`
	Params     StartParams `json:"params"`
}

// ChunkResult carries one slice of the buffer. A nil NextOffset means
// nothing more is buffered right now, not that the build finished.
type ChunkResult struct {
	SnapshotID string           `json:"snapshotId"`
	Ready      bool             `json:"ready"`
	Total      int              `json:"total"`
	Items      []map[string]any `json:"items"`
	NextOffset *int             `json:"nextOffset"`
}

// CloseResult always reports ok; Existed tells the caller whether there
// was anything to clean up.
type CloseResult struct {
	OK         bool   `json:"ok"`
	SnapshotID string `json:"snapshotId"`
	Existed    bool   `json:"existed"`
}

// Start allocates a snapshot and launches its builder as a detached
// goroutine. It returns before any page is fetched.
func (s *Service) Start(params StartParams) StartResult {
	s.store.Sweep(s.ttl)

	snap := s.store.Create(params)

	// The builder outlives the tool call that started it, so it runs on
	// its own context, cancelled only through the task handle.
	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel, done: make(chan struct{})}
	s.store.attachTask(snap.ID, t)
	go s.build(ctx, snap, t)

	s.log.Debug("snapshot started", "snapshot_id", snap.ID, "page", params.Page, "limit", params.Limit)
	return StartResult{SnapshotID: snap.ID, Ready: false, Total: 0}
}

// Status reports a snapshot's progress. The second return is false when
// the id is unknown or expired.
func (s *Service) Status(id string) (StatusResult, bool) {
	s.store.Sweep(s.ttl)

	snap := s.store.Get(id)
	if snap == nil {
		return StatusResult{}, false
	}
	ready, total, errMsg := snap.state()
	res := StatusResult{
		SnapshotID: snap.ID,
		Ready:      ready,
		Total:      total,
		Params:     snap.params,
	}
	if errMsg != "" {
		res.Error = &errMsg
	}
	return res, true
}

// Chunk reads items[offset:offset+limit] clamped to the current buffer.
// It never waits for the build; a poller of a still-building snapshot
// may need to retry the same offset later as more items arrive.
func (s *Service) Chunk(id string, offset, limit int) (ChunkResult, bool) {
	s.store.Sweep(s.ttl)

	snap := s.store.Get(id)
	if snap == nil {
		return ChunkResult{}, false
	}

	start := offset
	if start < 0 {
		start = 0
	}
	end := start + limit
	if end < start {
		end = start
	}

	items := snap.slice(start, end)
	ready, total, _ := snap.state()

	res := ChunkResult{
		SnapshotID: snap.ID,
		Ready:      ready,
		Total:      total,
		Items:      items,
	}
	if next := start + len(items); next < total {
		res.NextOffset = &next
	}
	return res, true
}

// Close removes the snapshot and cancels its builder. Idempotent:
// closing an unknown or already-closed id reports existed=false.
func (s *Service) Close(id string) CloseResult {
	s.store.Sweep(s.ttl)

	existed := s.store.Remove(id)
	return CloseResult{OK: true, SnapshotID: id, Existed: existed}
}

// build drives one snapshot to ready or error. It is the last line of
// defense: no failure may escape the goroutine.
func (s *Service) build(ctx context.Context, snap *Snapshot, t *task) {
	defer close(t.done)
	defer func() {
		if r := recover(); r != nil {
			snap.fail(fmt.Sprintf("snapshot build panic: %v", r))
			s.log.Error("snapshot build panic", "snapshot_id", snap.ID, "panic", r)
		}
	}()

	page := snap.params.Page
	if page < 1 {
		page = 1
	}
	perPage := snap.params.Limit
	if s.pageCap > 0 && perPage > s.pageCap {
		perPage = s.pageCap
	}

	for {
		records, err := s.fetch(ctx, page, perPage, snap.params.Filters)
		if err != nil {
			if ctx.Err() != nil {
				// Cancelled through close or sweep: the snapshot is
				// already gone, nobody is left to observe an error.
				return
			}
			snap.fail(err.Error())
			s.log.Warn("snapshot build failed", "snapshot_id", snap.ID, "page", page, "error", err)
			return
		}

		if ctx.Err() != nil {
			// Removed mid-fetch: discard the page and stop silently.
			return
		}

		projected := s.project(records, snap.params.Fields)

		if snap.total()+len(projected) > s.maxItems {
			snap.fail(fmt.Sprintf("Snapshot item cap reached (%d).", s.maxItems))
			s.log.Warn("snapshot item cap reached", "snapshot_id", snap.ID, "cap", s.maxItems)
			return
		}
		snap.append(projected)

		// A short page means the collection is exhausted. The upstream
		// API has no trustworthy total-count signal, so an exact
		// multiple of perPage costs one extra empty fetch.
		if len(records) < perPage {
			break
		}
		page++
	}

	snap.setReady()
	s.log.Debug("snapshot ready", "snapshot_id", snap.ID, "total", snap.total())
}
