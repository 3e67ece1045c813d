package dashboard

import (
	"context"
	"errors"
	"testing"
)

func TestRefreshHooksFanOut(t *testing.T) {
	first := &collectingHook{}
	boom := errors.New("boom")
	failing := RefreshHookFunc(func(context.Context, WidgetEvent) error { return boom })
	second := &collectingHook{}

	err := RefreshHooks{first, nil, failing, second}.WidgetUpdated(context.Background(), WidgetEvent{Reason: "chat.reply"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(first.events) != 1 || len(second.events) != 1 {
		t.Fatalf("expected every hook to run, got %d and %d", len(first.events), len(second.events))
	}
}
