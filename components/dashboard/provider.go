package dashboard

import (
	"context"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard/collab"
)

// Provider fetches data required to render a widget instance.
type Provider interface {
	Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error)
}

// ProviderFunc adapts a function into a Provider.
type ProviderFunc func(ctx context.Context, meta WidgetContext) (WidgetData, error)

// Fetch calls f.
func (f ProviderFunc) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	return f(ctx, meta)
}

// DetailResolver is implemented by providers that support drill-down.
// Detail returns ErrRecordNotFound when key does not match a record.
type DetailResolver interface {
	Detail(ctx context.Context, meta WidgetContext, key string) (WidgetData, error)
}

// ChatProvider marks providers that render a collaboration panel. The
// service switches the panel's conversation when ConversationFilter changes.
type ChatProvider interface {
	ConversationFilter() string
}

// Escalator is implemented by providers whose records can be escalated.
type Escalator interface {
	Escalate(ctx context.Context, meta WidgetContext, req EscalationRequest) (Acknowledgment, error)
}

// WidgetContext contains the metadata needed by providers.
type WidgetContext struct {
	Instance   WidgetInstance
	Viewer     ViewerContext
	Translator TranslationService
	// Filters holds the effective selection for every declared filter.
	Filters map[string]string
	View    ViewState
	// Chat is only populated for ChatProvider widgets.
	Chat *collab.Transcript
}

// Filter returns the active option for key, or fallback when unset.
func (meta WidgetContext) Filter(key, fallback string) string {
	if v, ok := meta.Filters[key]; ok && v != "" {
		return v
	}
	return fallback
}

// WidgetData is an opaque payload passed to templates.
type WidgetData map[string]any
