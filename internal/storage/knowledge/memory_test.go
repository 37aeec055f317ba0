package knowledge

import (
	"context"
	"testing"

	"chatbot-platform/pkg/errors"
)

func TestMemoryStorePutListDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := &Item{AgentID: "a1", Title: "Hours", Content: "We are open 9-5 daily"}
	second := &Item{AgentID: "a1", Title: "Refunds", Content: "30 day refund policy"}
	if err := store.Put(ctx, first); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, second); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if first.ID == "" {
		t.Error("Put should assign an id")
	}

	items, err := store.List(ctx, "a1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "Hours" || items[1].Title != "Refunds" {
		t.Errorf("items out of insertion order: %+v", items)
	}

	if err := store.Delete(ctx, "a1", first.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	items, _ = store.List(ctx, "a1")
	if len(items) != 1 || items[0].Title != "Refunds" {
		t.Errorf("unexpected items after delete: %+v", items)
	}

	if err := store.Delete(ctx, "a1", "missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreCandidates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_ = store.Put(ctx, &Item{AgentID: "a1", Title: "Hours", Content: "9-5"})
	_ = store.Put(ctx, &Item{AgentID: "a2", Title: "Other", Content: "x"})

	candidates, err := store.Candidates(ctx, "a1")
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Title != "Hours" {
		t.Errorf("unexpected candidates: %+v", candidates)
	}
}

func TestMemoryStorePutRequiresAgent(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Put(context.Background(), &Item{Title: "x"}); !errors.Is(err, errors.ErrInvalidArg) {
		t.Errorf("expected ErrInvalidArg, got %v", err)
	}
}
