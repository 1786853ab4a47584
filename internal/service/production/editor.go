package production

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/bakery/internal/autosave"
	"github.com/mamadbah2/bakery/internal/domain/models"
)

const commitTimeout = 10 * time.Second

// errSuperseded marks a staged write replaced by a later edit of the same product.
var errSuperseded = errors.New("staged edit superseded")

// Editor debounces quantity edits per product: staged edits are written
// once the product has been quiet for the autosave delay, explicit commits
// cancel the staged write and save immediately.
type Editor struct {
	mu     sync.Mutex
	svc    *Service
	delay  time.Duration
	seq    uint64
	edits  map[string]*stagedEdit
	opts   []autosave.Option
	logger *zap.Logger
}

// stagedEdit tracks the latest edit of one product. seq identifies that
// edit; entries are dropped once their edit has been written or replaced.
type stagedEdit struct {
	coordinator *autosave.Coordinator
	seq         uint64
}

// NewEditor wires an editor writing through svc.
func NewEditor(svc *Service, delay time.Duration, logger *zap.Logger, opts ...autosave.Option) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{
		svc:    svc,
		delay:  delay,
		edits:  make(map[string]*stagedEdit),
		opts:   opts,
		logger: logger,
	}
}

// StageQuantity schedules a delayed write of quantity, replacing any staged
// write for the same product.
func (e *Editor) StageQuantity(date, producerID, productID string, quantity int) error {
	if err := validateEdit(date, producerID, productID, quantity); err != nil {
		return err
	}
	key := editKey(date, producerID, productID)

	e.mu.Lock()
	edit, ok := e.edits[key]
	if !ok {
		edit = &stagedEdit{
			coordinator: autosave.NewCoordinator(e.delay, e.logger.With(zap.String("edit", key)), e.opts...),
		}
		e.edits[key] = edit
	}
	e.seq++
	seq := e.seq
	edit.seq = seq
	edit.coordinator.Arm(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		return e.commitStaged(ctx, key, seq, date, producerID, productID, quantity)
	})
	e.mu.Unlock()

	e.logger.Debug("quantity staged",
		zap.String("date", date),
		zap.String("producer_id", producerID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity))
	return nil
}

// CommitQuantity cancels any staged write and saves quantity now. A staged
// write that already fired but has not reached the store yet is discarded.
func (e *Editor) CommitQuantity(ctx context.Context, date, producerID, productID string, quantity int) (models.ProductionRecord, error) {
	if err := validateEdit(date, producerID, productID, quantity); err != nil {
		return models.ProductionRecord{}, err
	}
	key := editKey(date, producerID, productID)

	e.mu.Lock()
	e.seq++
	seq := e.seq
	if edit, ok := e.edits[key]; ok {
		edit.seq = seq
		edit.coordinator.Cancel()
	}
	e.mu.Unlock()

	defer e.release(key, seq)
	return e.svc.SetQuantity(ctx, date, producerID, productID, quantity)
}

// Pending reports whether a staged write is waiting for the product.
func (e *Editor) Pending(date, producerID, productID string) bool {
	e.mu.Lock()
	edit, ok := e.edits[editKey(date, producerID, productID)]
	e.mu.Unlock()
	return ok && edit.coordinator.Pending()
}

// FlushAll commits every staged write synchronously, returning the first error.
func (e *Editor) FlushAll() error {
	e.mu.Lock()
	coordinators := make([]*autosave.Coordinator, 0, len(e.edits))
	for _, edit := range e.edits {
		coordinators = append(coordinators, edit.coordinator)
	}
	e.mu.Unlock()

	var firstErr error
	for _, c := range coordinators {
		if _, err := c.Flush(); err != nil {
			e.logger.Error("failed to flush staged quantity", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// commitStaged writes a staged quantity unless a later edit of the same
// product replaced it. The check runs under the producer-day lock.
func (e *Editor) commitStaged(ctx context.Context, key string, seq uint64, date, producerID, productID string, quantity int) error {
	defer e.release(key, seq)

	_, err := e.svc.update(ctx, date, producerID, productID, func(rec *models.ProductionRecord) error {
		if !e.current(key, seq) {
			return errSuperseded
		}
		rec.Quantity = quantity
		return nil
	})
	if errors.Is(err, errSuperseded) {
		e.logger.Debug("staged quantity superseded", zap.String("edit", key), zap.Int("quantity", quantity))
		return nil
	}
	return err
}

func (e *Editor) current(key string, seq uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	edit, ok := e.edits[key]
	return ok && edit.seq == seq
}

// release drops the entry of key if seq is still its latest edit.
func (e *Editor) release(key string, seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if edit, ok := e.edits[key]; ok && edit.seq == seq && !edit.coordinator.Pending() {
		delete(e.edits, key)
	}
}

func editKey(date, producerID, productID string) string {
	return fmt.Sprintf("%s/%s/%s", date, producerID, productID)
}

func validateEdit(date, producerID, productID string, quantity int) error {
	if err := validateKey(date, producerID); err != nil {
		return err
	}
	if err := models.ValidateID("product_id", productID); err != nil {
		return err
	}
	if quantity < 0 {
		return models.Invalid("quantity", fmt.Sprintf("invalid quantity %d for product %s", quantity, productID))
	}
	return nil
}
