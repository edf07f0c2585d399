package folio

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTracker_MutationsPersistedInOrder(t *testing.T) {
	ctx := context.Background()
	files := newMemFiles()
	files.seed(Position{"MSFT", "1"})
	tracker := NewTracker(files, newFakeProvider(map[string]float64{"AAPL": 150, "MSFT": 400}), nil, nil)
	user := "alice@example.com"

	if _, err := tracker.Add(ctx, user, nil, "AAPL", Q(5)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := tracker.Edit(ctx, user, nil, "AAPL", Q(8)); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if err := tracker.Delete(ctx, user, nil, "AAPL"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := tracker.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	want := [][]Position{
		{{"MSFT", "1"}, {"AAPL", "5"}},
		{{"MSFT", "1"}, {"AAPL", "8"}},
		{{"MSFT", "1"}},
	}
	if diff := cmp.Diff(want, files.Writes()); diff != "" {
		t.Errorf("persisted writes mismatch (-want +got):\n%s", diff)
	}
	final, err := NewRepository(files).Load(ctx, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff([]Position{{"MSFT", "1"}}, final); diff != "" {
		t.Errorf("final stored state mismatch (-want +got):\n%s", diff)
	}
}

func TestTracker_Add(t *testing.T) {
	ctx := context.Background()
	files := newMemFiles()
	files.seed(Position{"AAPL", "5"})
	tracker := NewTracker(files, newFakeProvider(map[string]float64{"AAPL": 150}), nil, nil)
	defer tracker.Close(ctx)
	user := "alice@example.com"

	v, err := tracker.Add(ctx, user, nil, "aapl", Q(5))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if len(v.Positions) != 1 || v.Positions[0].Quantity != "10" {
		t.Errorf("Add() of a held ticker = %v, want AAPL 10", v.Positions)
	}
	if !v.Total.Equal(USD(1500)) {
		t.Errorf("Add().Total = %v, want %v", v.Total, USD(1500))
	}

	// the cached path sees the mutation.
	cached := tracker.Assembler.RenderCached(ctx, user, nil)
	if len(cached.Positions) != 1 || cached.Positions[0].Quantity != "10" {
		t.Errorf("RenderCached() = %v, want AAPL 10", cached.Positions)
	}

	if _, err := tracker.Add(ctx, user, nil, "  ", Q(1)); !errors.Is(err, ErrEmptyTicker) {
		t.Errorf("Add() with an empty ticker: error = %v, want %v", err, ErrEmptyTicker)
	}
}

func TestTracker_View(t *testing.T) {
	ctx := context.Background()
	files := newMemFiles()
	files.seed(Position{"AAPL", "10"}, Position{"XXX", "1"})
	provider := newFakeProvider(map[string]float64{"AAPL": 150})
	tracker := NewTracker(files, provider, nil, nil)
	defer tracker.Close(ctx)

	v := tracker.View(ctx, "alice@example.com", nil)
	if len(v.Positions) != 2 {
		t.Fatalf("View() = %v, want 2 positions", v.Positions)
	}
	if v.Positions[1].TotalValue.IsAvailable() {
		t.Errorf("View(): unknown ticker has a value %v", v.Positions[1].TotalValue)
	}
	if !v.Total.Equal(USD(1500)) {
		t.Errorf("View().Total = %v, want %v", v.Total, USD(1500))
	}

	// the full read path always reads the store.
	tracker.View(ctx, "alice@example.com", nil)
	if n := files.Reads(); n != 2 {
		t.Errorf("View() twice read the store %d times, want 2", n)
	}
}

func TestTracker_View_StoreFailure(t *testing.T) {
	ctx := context.Background()
	files := newMemFiles()
	files.fail = errors.New("drive is down")
	tracker := NewTracker(files, newFakeProvider(nil), nil, nil)
	defer tracker.Close(ctx)

	v := tracker.View(ctx, "alice@example.com", nil)
	if len(v.Positions) != 0 || !v.Total.IsZero() {
		t.Errorf("View() on a failing store = %v, want an empty valuation", v)
	}
}
