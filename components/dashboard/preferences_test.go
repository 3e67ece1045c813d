package dashboard

import (
	"context"
	"testing"
)

func TestInMemoryPreferenceStore(t *testing.T) {
	store := NewInMemoryPreferenceStore()
	viewer := ViewerContext{UserID: "user-1", Locale: "en"}
	overrides := LayoutOverrides{
		AreaOrder: map[string][]string{
			AreaMain: {"w2", " ", "w1", "w2"},
		},
		HiddenWidgets: map[string]bool{"w3": true, "w4": false},
	}
	if err := store.SaveLayoutOverrides(context.Background(), viewer, overrides); err != nil {
		t.Fatalf("SaveLayoutOverrides returned error: %v", err)
	}
	out, err := store.LayoutOverrides(context.Background(), viewer)
	if err != nil {
		t.Fatalf("LayoutOverrides returned error: %v", err)
	}
	if out.Locale != "en" {
		t.Fatalf("expected locale metadata persisted, got %q", out.Locale)
	}
	if order := out.AreaOrder[AreaMain]; len(order) != 2 || order[0] != "w2" || order[1] != "w1" {
		t.Fatalf("expected cleaned override order, got %v", order)
	}
	if !out.HiddenWidgets["w3"] {
		t.Fatalf("expected hidden widget persisted")
	}
	if _, ok := out.HiddenWidgets["w4"]; ok {
		t.Fatalf("expected false hidden entries dropped")
	}

	out.AreaOrder[AreaMain][0] = "mutated"
	again, _ := store.LayoutOverrides(context.Background(), viewer)
	if again.AreaOrder[AreaMain][0] != "w2" {
		t.Fatalf("expected store to return copies")
	}
}

func TestInMemoryPreferenceStoreAnonymousAndClear(t *testing.T) {
	store := NewInMemoryPreferenceStore()
	ctx := context.Background()
	if err := store.SaveLayoutOverrides(ctx, ViewerContext{}, LayoutOverrides{}); err == nil {
		t.Fatalf("expected error for anonymous viewer")
	}
	anon, err := store.LayoutOverrides(ctx, ViewerContext{Locale: "es"})
	if err != nil || anon.Locale != "es" || anon.AreaOrder == nil {
		t.Fatalf("expected default overrides, got %+v (%v)", anon, err)
	}

	viewer := ViewerContext{UserID: "user-2"}
	_ = store.SaveLayoutOverrides(ctx, viewer, LayoutOverrides{HiddenWidgets: map[string]bool{"w1": true}})
	if err := store.Clear(ctx, viewer); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	out, _ := store.LayoutOverrides(ctx, viewer)
	if len(out.HiddenWidgets) != 0 {
		t.Fatalf("expected overrides cleared, got %v", out.HiddenWidgets)
	}
}
