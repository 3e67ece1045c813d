package dashboard

import (
	"context"
	"errors"
)

// RefreshHookFunc adapts a function into a RefreshHook.
type RefreshHookFunc func(ctx context.Context, event WidgetEvent) error

// WidgetUpdated calls f.
func (f RefreshHookFunc) WidgetUpdated(ctx context.Context, event WidgetEvent) error {
	return f(ctx, event)
}

// RefreshHooks fans an event out to every hook. All hooks run even when one
// fails; the failures are joined.
type RefreshHooks []RefreshHook

// WidgetUpdated implements RefreshHook.
func (h RefreshHooks) WidgetUpdated(ctx context.Context, event WidgetEvent) error {
	var errs error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.WidgetUpdated(ctx, event); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}
