package production

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

// SelectionState is the per-product state of the optimistic selection set.
type SelectionState string

const (
	Unselected      SelectionState = "unselected"
	SelectPending   SelectionState = "select-pending"
	Selected        SelectionState = "selected"
	DeselectPending SelectionState = "deselect-pending"
)

// SelectionPersister writes the selection of one product.
type SelectionPersister func(ctx context.Context, productID string, selected bool) error

// Selection keeps an optimistic local selection set in step with the store.
// A toggle flips the local set first, persists, and reverts on failure.
type Selection struct {
	mu       sync.Mutex
	selected map[string]bool
	pending  map[string]bool
	persist  SelectionPersister
	logger   *zap.Logger
}

// NewSelection seeds a synchronizer with the persisted selected ids.
func NewSelection(initial []string, persist SelectionPersister, logger *zap.Logger) *Selection {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Selection{
		selected: make(map[string]bool, len(initial)),
		pending:  make(map[string]bool),
		persist:  persist,
		logger:   logger,
	}
	for _, id := range initial {
		s.selected[id] = true
	}
	return s
}

// Toggle flips productID and persists the change. It returns the resulting
// membership. A toggle for a product that is still pending is rejected
// with ErrTogglePending.
func (s *Selection) Toggle(ctx context.Context, productID string) (bool, error) {
	s.mu.Lock()
	if s.pending[productID] {
		s.mu.Unlock()
		return s.IsSelected(productID), fmt.Errorf("product %s: %w", productID, models.ErrTogglePending)
	}
	target := !s.selected[productID]
	s.apply(productID, target)
	s.pending[productID] = true
	s.mu.Unlock()

	err := s.persist(ctx, productID, target)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, productID)
	if err != nil {
		s.apply(productID, !target)
		s.logger.Warn("selection persist failed, reverted",
			zap.String("product_id", productID),
			zap.Bool("selected", target),
			zap.Error(err))
		return !target, err
	}
	return target, nil
}

// State reports the state machine position of productID.
func (s *Selection) State(productID string) SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch selected, pending := s.selected[productID], s.pending[productID]; {
	case pending && selected:
		return SelectPending
	case pending:
		return DeselectPending
	case selected:
		return Selected
	default:
		return Unselected
	}
}

// IsSelected reports local membership, pending toggles included.
func (s *Selection) IsSelected(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected[productID]
}

// Selected lists the locally selected ids, sorted.
func (s *Selection) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Busy reports whether a toggle is in flight.
func (s *Selection) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// Reset replaces the local set with persisted ids unless a toggle is in
// flight, and reports whether it did.
func (s *Selection) Reset(ids []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) > 0 {
		return false
	}
	s.selected = make(map[string]bool, len(ids))
	for _, id := range ids {
		s.selected[id] = true
	}
	return true
}

func (s *Selection) apply(productID string, selected bool) {
	if selected {
		s.selected[productID] = true
		return
	}
	delete(s.selected, productID)
}
