package production

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

func TestSelectionToggle(t *testing.T) {
	var persisted []bool
	sel := NewSelection([]string{"A"}, func(_ context.Context, _ string, selected bool) error {
		persisted = append(persisted, selected)
		return nil
	}, nil)

	selected, err := sel.Toggle(context.Background(), "A")
	if err != nil || selected {
		t.Fatalf("Toggle(A) = %v, %v, want false, nil", selected, err)
	}
	selected, err = sel.Toggle(context.Background(), "B")
	if err != nil || !selected {
		t.Fatalf("Toggle(B) = %v, %v, want true, nil", selected, err)
	}

	if got := sel.Selected(); len(got) != 1 || got[0] != "B" {
		t.Errorf("Selected() = %v, want [B]", got)
	}
	if sel.State("B") != Selected || sel.State("A") != Unselected {
		t.Errorf("states = %s/%s, want selected/unselected", sel.State("B"), sel.State("A"))
	}
	if len(persisted) != 2 || persisted[0] || !persisted[1] {
		t.Errorf("persisted = %v, want [false true]", persisted)
	}
}

func TestSelectionRevertsOnFailure(t *testing.T) {
	boom := errors.New("write failed")
	sel := NewSelection(nil, func(context.Context, string, bool) error { return boom }, nil)

	selected, err := sel.Toggle(context.Background(), "A")
	if !errors.Is(err, boom) {
		t.Fatalf("Toggle() error = %v, want %v", err, boom)
	}
	if selected || sel.IsSelected("A") {
		t.Error("failed toggle left A selected")
	}
	if sel.State("A") != Unselected {
		t.Errorf("State(A) = %s, want unselected", sel.State("A"))
	}
}

func TestSelectionRejectsToggleWhilePending(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	sel := NewSelection(nil, func(context.Context, string, bool) error {
		close(entered)
		<-release
		return nil
	}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := sel.Toggle(context.Background(), "A")
		done <- err
	}()
	<-entered

	if sel.State("A") != SelectPending {
		t.Errorf("State(A) = %s, want select-pending", sel.State("A"))
	}
	if _, err := sel.Toggle(context.Background(), "A"); !errors.Is(err, models.ErrTogglePending) {
		t.Errorf("second Toggle() error = %v, want ErrTogglePending", err)
	}
	if sel.Reset(nil) {
		t.Error("Reset() succeeded while a toggle was pending")
	}

	close(release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first Toggle() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("first Toggle() did not return")
	}
	if sel.State("A") != Selected {
		t.Errorf("State(A) = %s, want selected", sel.State("A"))
	}
}

func TestSelectionRegistryToggle(t *testing.T) {
	svc, store := newTestService(t)
	reg := NewSelectionRegistry(svc, nil)
	ctx := context.Background()

	if _, err := svc.SetSelected(ctx, testDate, "p1", "A", true); err != nil {
		t.Fatalf("SetSelected() error = %v", err)
	}

	sel, err := reg.For(ctx, testDate, "p1")
	if err != nil {
		t.Fatalf("For() error = %v", err)
	}
	if !sel.IsSelected("A") {
		t.Fatal("registry did not load the persisted selection")
	}

	selected, state, err := reg.Toggle(ctx, testDate, "p1", "B")
	if err != nil || !selected || state != Selected {
		t.Fatalf("Toggle(B) = %v, %s, %v", selected, state, err)
	}
	day, _ := readDay(t, store, "p1")
	if !day["B"].Selected {
		t.Error("toggle was not persisted")
	}

	// Writes outside the registry are picked up on the next lookup.
	if _, err := svc.SetSelected(ctx, testDate, "p1", "A", false); err != nil {
		t.Fatalf("SetSelected() error = %v", err)
	}
	sel, err = reg.For(ctx, testDate, "p1")
	if err != nil {
		t.Fatalf("For() error = %v", err)
	}
	if sel.IsSelected("A") {
		t.Error("registry kept a stale selection")
	}

	if _, _, err := reg.Toggle(ctx, "bad", "p1", "A"); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Toggle(bad date) error = %v, want ErrInvalidInput", err)
	}
}

func TestSelectionRegistryEvictsIdleSelections(t *testing.T) {
	svc, _ := newTestService(t)
	reg := NewSelectionRegistry(svc, nil)
	ctx := context.Background()
	now := time.Date(2024, time.March, 5, 8, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	if _, err := reg.For(ctx, "2024-03-04", "p1"); err != nil {
		t.Fatalf("For(yesterday) error = %v", err)
	}
	if _, err := reg.For(ctx, testDate, "p1"); err != nil {
		t.Fatalf("For(today) error = %v", err)
	}

	now = now.Add(30 * time.Minute)
	if _, err := reg.For(ctx, testDate, "p1"); err != nil {
		t.Fatalf("For(today) error = %v", err)
	}
	if got := len(reg.selections); got != 2 {
		t.Fatalf("cached selections = %d, want 2 before the idle window", got)
	}

	now = now.Add(selectionIdleTTL)
	if _, err := reg.For(ctx, testDate, "p2"); err != nil {
		t.Fatalf("For(p2) error = %v", err)
	}
	if _, ok := reg.selections[dayKey("2024-03-04", "p1")]; ok {
		t.Error("idle selection of a past day is still cached")
	}
	if got := len(reg.selections); got != 1 {
		t.Errorf("cached selections = %d, want only the new one", got)
	}
}
