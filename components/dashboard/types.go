package dashboard

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInstanceNotFound is returned when a widget instance cannot be resolved.
	ErrInstanceNotFound = errors.New("dashboard: widget instance not found")
	// ErrRecordNotFound is returned when a drill-down key does not match a record.
	ErrRecordNotFound = errors.New("dashboard: record not found")
	// ErrUnknownFilter is returned when a widget does not declare the requested filter.
	ErrUnknownFilter = errors.New("dashboard: unknown filter")
	// ErrInvalidFilterOption is returned when an option is outside the filter's option set.
	ErrInvalidFilterOption = errors.New("dashboard: invalid filter option")
	// ErrDetailUnsupported is returned for widgets without drill-down views.
	ErrDetailUnsupported = errors.New("dashboard: widget does not support drill-down")
	// ErrChatUnsupported is returned when chat operations target a non-chat widget.
	ErrChatUnsupported = errors.New("dashboard: widget does not support chat")
	// ErrEscalationUnsupported is returned when escalations target a widget without requests.
	ErrEscalationUnsupported = errors.New("dashboard: widget does not support escalation")
	// ErrInvalidEscalationTarget is returned for escalation targets other than rmg/tag.
	ErrInvalidEscalationTarget = errors.New("dashboard: invalid escalation target")
)

// WidgetStore encapsulates the persistence + orchestration hooks for widget
// areas and instances. Implementations ensure thread safety and idempotency.
type WidgetStore interface {
	EnsureArea(ctx context.Context, def WidgetAreaDefinition) (bool, error)
	EnsureDefinition(ctx context.Context, def WidgetDefinition) (bool, error)
	CreateInstance(ctx context.Context, input CreateWidgetInstanceInput) (WidgetInstance, error)
	DeleteInstance(ctx context.Context, instanceID string) error
	AssignInstance(ctx context.Context, input AssignWidgetInput) error
	FindInstance(ctx context.Context, instanceID string) (WidgetInstance, error)
	ResolveArea(ctx context.Context, input ResolveAreaInput) (ResolvedArea, error)
}

// Authorizer determines if a viewer can see a widget instance.
type Authorizer interface {
	CanViewWidget(ctx context.Context, viewer ViewerContext, instance WidgetInstance) bool
}

// PreferenceStore returns layout overrides per viewer.
type PreferenceStore interface {
	LayoutOverrides(ctx context.Context, viewer ViewerContext) (LayoutOverrides, error)
	SaveLayoutOverrides(ctx context.Context, viewer ViewerContext, overrides LayoutOverrides) error
}

// ProviderRegistry stores widget definitions/providers discoverable via hooks or manifests.
type ProviderRegistry interface {
	RegisterDefinition(def WidgetDefinition) error
	RegisterProvider(code string, provider Provider) error
	Definition(code string) (WidgetDefinition, bool)
	Provider(code string) (Provider, bool)
	Definitions() []WidgetDefinition
}

// RefreshHook notifies transports (REST/WebSocket) about widget changes.
type RefreshHook interface {
	WidgetUpdated(ctx context.Context, event WidgetEvent) error
}

// WidgetAreaDefinition models a dashboard widget area (main/sidebar/footer).
type WidgetAreaDefinition struct {
	Code        string
	Name        string
	Description string
}

// WidgetDefinition describes a widget, its configuration schema and the
// filters/tabs its view exposes.
type WidgetDefinition struct {
	Code                 string            `json:"code" yaml:"code"`
	Name                 string            `json:"name" yaml:"name"`
	NameLocalized        map[string]string `json:"name_localized,omitempty" yaml:"name_localized,omitempty"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	DescriptionLocalized map[string]string `json:"description_localized,omitempty" yaml:"description_localized,omitempty"`
	Schema               map[string]any    `json:"schema,omitempty" yaml:"schema,omitempty"`
	Category             string            `json:"category,omitempty" yaml:"category,omitempty"`
	Filters              []FilterSpec      `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// Filter returns the filter spec registered under key.
func (def WidgetDefinition) Filter(key string) (FilterSpec, bool) {
	for _, spec := range def.Filters {
		if spec.Key == key {
			return spec, true
		}
	}
	return FilterSpec{}, false
}

// WidgetInstance represents a widget placed on the dashboard.
type WidgetInstance struct {
	ID            string         `json:"id"`
	DefinitionID  string         `json:"definition_id"`
	AreaCode      string         `json:"area_code,omitempty"`
	Configuration map[string]any `json:"configuration,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// CreateWidgetInstanceInput configures new instances.
type CreateWidgetInstanceInput struct {
	DefinitionID  string
	Configuration map[string]any
	Visibility    WidgetVisibility
	Metadata      map[string]any
}

// WidgetVisibility defines runtime visibility constraints.
type WidgetVisibility struct {
	Roles    []string
	StartAt  *time.Time
	EndAt    *time.Time
	Audience []string
}

// AssignWidgetInput associates a widget instance with an area.
type AssignWidgetInput struct {
	AreaCode   string
	InstanceID string
	Position   *int
}

// ResolveAreaInput requests widget instances for a given area and audience.
type ResolveAreaInput struct {
	AreaCode string
	Audience []string
	Locale   string
}

// ResolvedArea is a container for widgets returned by the store.
type ResolvedArea struct {
	AreaCode string
	Widgets  []WidgetInstance
}

// LayoutOverrides captures per-user adjustments.
type LayoutOverrides struct {
	Locale        string              `json:"locale,omitempty"`
	AreaOrder     map[string][]string `json:"area_order,omitempty"`
	HiddenWidgets map[string]bool     `json:"hidden_widgets,omitempty"`
}

// ViewerContext captures the active user/locale information needed to render dashboards.
type ViewerContext struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles,omitempty"`
	Locale string   `json:"locale,omitempty"`
}

// Layout describes the resolved widget instances per dashboard area.
type Layout struct {
	Areas map[string][]WidgetInstance
}

// WidgetEvent describes changes that transports might care about.
// UserID scopes the event to one viewer; empty events reach everyone.
type WidgetEvent struct {
	AreaCode string         `json:"area_code,omitempty"`
	UserID   string         `json:"user_id,omitempty"`
	Instance WidgetInstance `json:"instance"`
	Reason   string         `json:"reason"`
}
