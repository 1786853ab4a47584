package production

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mamadbah2/bakery/internal/autosave"
	"github.com/mamadbah2/bakery/internal/domain/models"
)

type manualTimer struct {
	f       func()
	stopped bool
}

func (m *manualTimer) Stop() bool {
	was := !m.stopped
	m.stopped = true
	return was
}

type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (c *manualClock) AfterFunc(_ time.Duration, f func()) autosave.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) fire() {
	c.mu.Lock()
	timers := c.timers
	c.timers = nil
	c.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.f()
		}
	}
}

func TestEditorStageQuantityDebounces(t *testing.T) {
	svc, store := newTestService(t)
	clock := &manualClock{}
	editor := NewEditor(svc, time.Second, nil, autosave.WithAfterFunc(clock.AfterFunc))

	for _, q := range []int{1, 2, 3, 7} {
		if err := editor.StageQuantity(testDate, "p1", "A", q); err != nil {
			t.Fatalf("StageQuantity(%d) error = %v", q, err)
		}
	}
	if !editor.Pending(testDate, "p1", "A") {
		t.Fatal("Pending() = false after staging")
	}
	if _, ok := readDay(t, store, "p1"); ok {
		t.Fatal("staged quantity written before the delay elapsed")
	}

	clock.fire()

	day, _ := readDay(t, store, "p1")
	if day["A"].Quantity != 7 {
		t.Errorf("stored quantity = %d, want 7", day["A"].Quantity)
	}
	if editor.Pending(testDate, "p1", "A") {
		t.Error("Pending() = true after commit")
	}
}

func TestEditorCommitCancelsStaged(t *testing.T) {
	svc, store := newTestService(t)
	clock := &manualClock{}
	editor := NewEditor(svc, time.Second, nil, autosave.WithAfterFunc(clock.AfterFunc))

	if err := editor.StageQuantity(testDate, "p1", "A", 3); err != nil {
		t.Fatalf("StageQuantity() error = %v", err)
	}
	rec, err := editor.CommitQuantity(context.Background(), testDate, "p1", "A", 5)
	if err != nil || rec.Quantity != 5 {
		t.Fatalf("CommitQuantity() = %+v, %v", rec, err)
	}

	clock.fire()

	day, _ := readDay(t, store, "p1")
	if day["A"].Quantity != 5 {
		t.Errorf("stored quantity = %d, want the committed 5", day["A"].Quantity)
	}
}

func TestEditorKeepsProductsIndependent(t *testing.T) {
	svc, store := newTestService(t)
	clock := &manualClock{}
	editor := NewEditor(svc, time.Second, nil, autosave.WithAfterFunc(clock.AfterFunc))

	if err := editor.StageQuantity(testDate, "p1", "A", 4); err != nil {
		t.Fatalf("StageQuantity(A) error = %v", err)
	}
	if err := editor.StageQuantity(testDate, "p1", "B", 6); err != nil {
		t.Fatalf("StageQuantity(B) error = %v", err)
	}

	if err := editor.FlushAll(); err != nil {
		t.Fatalf("FlushAll() error = %v", err)
	}
	day, _ := readDay(t, store, "p1")
	if day["A"].Quantity != 4 || day["B"].Quantity != 6 {
		t.Errorf("day = %+v, want A=4 B=6", day)
	}
}

func TestEditorRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	editor := NewEditor(svc, time.Second, nil)

	if err := editor.StageQuantity(testDate, "p1", "A", -1); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("StageQuantity(-1) error = %v, want ErrInvalidInput", err)
	}
	if _, err := editor.CommitQuantity(context.Background(), "2024/03/05", "p1", "A", 1); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("CommitQuantity(bad date) error = %v, want ErrInvalidInput", err)
	}
	if editor.Pending(testDate, "p1", "A") {
		t.Error("rejected edit left a pending commit")
	}
}

func TestEditorDropsFinishedEdits(t *testing.T) {
	tests := []struct {
		name   string
		finish func(t *testing.T, editor *Editor, clock *manualClock)
	}{
		{
			name:   "timer fired",
			finish: func(_ *testing.T, _ *Editor, clock *manualClock) { clock.fire() },
		},
		{
			name: "flushed",
			finish: func(t *testing.T, editor *Editor, _ *manualClock) {
				if err := editor.FlushAll(); err != nil {
					t.Fatalf("FlushAll() error = %v", err)
				}
			},
		},
		{
			name: "explicit commit",
			finish: func(t *testing.T, editor *Editor, _ *manualClock) {
				if _, err := editor.CommitQuantity(context.Background(), testDate, "p1", "A", 9); err != nil {
					t.Fatalf("CommitQuantity() error = %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			clock := &manualClock{}
			editor := NewEditor(svc, time.Second, nil, autosave.WithAfterFunc(clock.AfterFunc))

			if err := editor.StageQuantity(testDate, "p1", "A", 2); err != nil {
				t.Fatalf("StageQuantity() error = %v", err)
			}
			tt.finish(t, editor, clock)

			editor.mu.Lock()
			left := len(editor.edits)
			editor.mu.Unlock()
			if left != 0 {
				t.Errorf("editor tracks %d edits after they finished, want 0", left)
			}
		})
	}
}

func TestEditorLateStagedWriteLosesToCommit(t *testing.T) {
	svc, store := newTestService(t)
	clock := &manualClock{}
	editor := NewEditor(svc, time.Second, nil, autosave.WithAfterFunc(clock.AfterFunc))
	key := editKey(testDate, "p1", "A")

	if err := editor.StageQuantity(testDate, "p1", "A", 3); err != nil {
		t.Fatalf("StageQuantity() error = %v", err)
	}
	editor.mu.Lock()
	staged := editor.edits[key].seq
	editor.mu.Unlock()

	if _, err := editor.CommitQuantity(context.Background(), testDate, "p1", "A", 8); err != nil {
		t.Fatalf("CommitQuantity() error = %v", err)
	}

	// The timer fired before the commit but its write only reaches the store now.
	if err := editor.commitStaged(context.Background(), key, staged, testDate, "p1", "A", 3); err != nil {
		t.Fatalf("commitStaged() error = %v", err)
	}

	day, _ := readDay(t, store, "p1")
	if day["A"].Quantity != 8 {
		t.Errorf("stored quantity = %d, want the committed 8", day["A"].Quantity)
	}
}
