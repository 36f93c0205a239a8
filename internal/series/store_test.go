package series

import (
	"context"
	"testing"

	"DivPulse/internal/domain/models"
)

func TestFileStoreRoundtrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	start := dayMS(2024, 3, 1)
	ds := &models.Dataset{
		Name:  "spx",
		Shape: models.ShapeSimple,
		Points: []models.TimePoint{
			models.SimplePoint(start, 5000),
			models.Gap(start + models.DayMS),
			models.SimplePoint(start+2*models.DayMS, 5100),
		},
	}
	if err := store.Save(ctx, ds); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, "spx")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Name != "spx" || got.Shape != models.ShapeSimple {
		t.Fatalf("metadata lost: %+v", got)
	}
	if len(got.Points) != 3 {
		t.Fatalf("want 3 points, got %d", len(got.Points))
	}
	if !got.Points[1].IsGap(models.ShapeSimple) {
		t.Fatalf("gap not preserved")
	}
	if *got.Points[2].Value != 5100 {
		t.Fatalf("value lost")
	}
}

func TestFileStoreMissingDataset(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	got, err := store.Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("missing dataset must not error: %v", err)
	}
	if got != nil {
		t.Fatalf("want nil dataset, got %+v", got)
	}
}

func TestFileStoreListAndDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	start := dayMS(2024, 3, 1)
	for _, name := range []string{"b", "a"} {
		ds := &models.Dataset{Name: name, Shape: models.ShapeSimple,
			Points: []models.TimePoint{models.SimplePoint(start, 1)}}
		if err := store.Save(ctx, ds); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	names, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected names: %v", names)
	}

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("double delete must be a no-op: %v", err)
	}
	names, _ = store.List(ctx)
	if len(names) != 1 || names[0] != "b" {
		t.Fatalf("unexpected names after delete: %v", names)
	}
}
