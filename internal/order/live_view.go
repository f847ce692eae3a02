package order

import (
	"context"
	"sync"

	"github.com/appetiteclub/apt"
)

type ViewStatus string

const (
	ViewIdle    ViewStatus = "idle"
	ViewLoading ViewStatus = "loading"
	ViewReady   ViewStatus = "ready"
	ViewFailed  ViewStatus = "failed"
)

// RowFetcher retrieves the current flattened view from the backend.
type RowFetcher interface {
	FetchAll(ctx context.Context) ([]FlatRow, error)
}

// LiveView owns the authoritative client-side aggregate collection. It
// refetches on demand and on change notifications, and hands out derived
// projections; nothing else mutates the collection.
//
// Overlapping refreshes are resolved with a fetch generation counter: each
// Refresh bumps the generation before fetching and a resolution whose
// generation is no longer current is discarded, so a slow, stale fetch can
// never overwrite a newer result.
type LiveView struct {
	mu         sync.RWMutex
	fetcher    RowFetcher
	logger     apt.Logger
	status     ViewStatus
	aggregates []*OrderAggregate
	lastErr    string
	generation uint64
}

func NewLiveView(fetcher RowFetcher, logger apt.Logger) *LiveView {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &LiveView{
		fetcher: fetcher,
		logger:  logger,
		status:  ViewIdle,
	}
}

// Refresh fetches the flattened view and replaces the aggregate collection.
// Safe to call concurrently; only the newest generation's result is kept.
func (v *LiveView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	v.status = ViewLoading
	v.generation++
	gen := v.generation
	v.mu.Unlock()

	rows, err := v.fetcher.FetchAll(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.generation {
		v.logger.Debug("discarding stale fetch result", "generation", gen, "current", v.generation)
		return nil
	}

	if err != nil {
		v.status = ViewFailed
		v.aggregates = nil
		v.lastErr = err.Error()
		v.logger.Error("failed to fetch orders view", "error", err)
		return err
	}

	v.aggregates = Aggregate(rows)
	v.status = ViewReady
	v.lastErr = ""
	v.logger.Debug("orders view refreshed", "rows", len(rows), "orders", len(v.aggregates))
	return nil
}

func (v *LiveView) Status() ViewStatus {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status
}

// Err returns the message of the last failed fetch, empty when Ready.
func (v *LiveView) Err() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastErr
}

// Aggregates returns the current snapshot. The returned slice is a copy; the
// aggregates themselves are rebuilt on every fetch and must not be mutated.
func (v *LiveView) Aggregates() []*OrderAggregate {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*OrderAggregate, len(v.aggregates))
	copy(out, v.aggregates)
	return out
}

// Find returns the aggregate with the given code, or nil.
func (v *LiveView) Find(code string) *OrderAggregate {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, a := range v.aggregates {
		if a.Code == code {
			return a
		}
	}
	return nil
}

// Project applies the view parameters to the current snapshot.
func (v *LiveView) Project(p ViewParams) []*OrderAggregate {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Project(v.aggregates, p)
}

// Counts returns per-state totals for filter badges.
func (v *LiveView) Counts(includeDeleted bool) map[string]int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return StateCounts(v.aggregates, includeDeleted)
}
