package production

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// selectionIdleTTL is how long an unused selection stays cached.
const selectionIdleTTL = time.Hour

// SelectionRegistry holds one Selection per producer-day.
type SelectionRegistry struct {
	mu         sync.Mutex
	selections map[string]*cachedSelection
	svc        *Service
	now        func() time.Time
	logger     *zap.Logger
}

type cachedSelection struct {
	sel      *Selection
	lastUsed time.Time
}

// NewSelectionRegistry creates a registry whose selections persist through svc.
func NewSelectionRegistry(svc *Service, logger *zap.Logger) *SelectionRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectionRegistry{
		selections: make(map[string]*cachedSelection),
		svc:        svc,
		now:        time.Now,
		logger:     logger,
	}
}

// For returns the selection of a producer-day, refreshed from the store
// when no toggle is in flight. The read happens under the producer-day lock
// so a concurrent toggle either shows as pending or is already persisted.
func (r *SelectionRegistry) For(ctx context.Context, date, producerID string) (*Selection, error) {
	if err := validateKey(date, producerID); err != nil {
		return nil, err
	}

	key := dayKey(date, producerID)
	unlock := r.svc.locks.Lock(key)
	defer unlock()

	day, _, err := r.svc.store.ReadDay(ctx, date, producerID)
	if err != nil {
		return nil, fmt.Errorf("load production: %w", err)
	}
	ids := day.SelectedIDs()

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictIdleLocked(now)

	cached, ok := r.selections[key]
	if !ok {
		sel := NewSelection(ids, func(ctx context.Context, productID string, selected bool) error {
			_, err := r.svc.SetSelected(ctx, date, producerID, productID, selected)
			return err
		}, r.logger.With(zap.String("date", date), zap.String("producer_id", producerID)))
		r.selections[key] = &cachedSelection{sel: sel, lastUsed: now}
		return sel, nil
	}

	cached.lastUsed = now
	cached.sel.Reset(ids)
	return cached.sel, nil
}

// Toggle flips productID in the selection of a producer-day.
func (r *SelectionRegistry) Toggle(ctx context.Context, date, producerID, productID string) (bool, SelectionState, error) {
	sel, err := r.For(ctx, date, producerID)
	if err != nil {
		return false, Unselected, err
	}
	selected, err := sel.Toggle(ctx, productID)
	return selected, sel.State(productID), err
}

// Forget drops the cached selection of a producer-day.
func (r *SelectionRegistry) Forget(date, producerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.selections, dayKey(date, producerID))
}

// evictIdleLocked drops selections unused for selectionIdleTTL that have no
// toggle in flight. Callers hold r.mu.
func (r *SelectionRegistry) evictIdleLocked(now time.Time) {
	for key, cached := range r.selections {
		if now.Sub(cached.lastUsed) >= selectionIdleTTL && !cached.sel.Busy() {
			delete(r.selections, key)
			r.logger.Debug("idle selection evicted", zap.String("day", key))
		}
	}
}
