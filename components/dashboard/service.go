package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard/collab"
	"github.com/goliatone/go-rmg-dashboard/pkg/activity"
)

const defaultFetchConcurrency = 4

var (
	errMissingWidgetStore = errors.New("dashboard: widget store not configured")
	errInvalidArea        = errors.New("dashboard: area code is required")
	errInvalidDefinition  = errors.New("dashboard: definition id is required")
	errUnknownDefinition  = errors.New("dashboard: widget definition not registered")
)

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap implementations.
type Options struct {
	WidgetStore     WidgetStore
	Authorizer      Authorizer
	PreferenceStore PreferenceStore
	Providers       ProviderRegistry
	ConfigValidator ConfigValidator
	RefreshHook     RefreshHook
	Telemetry       Telemetry
	Translator      TranslationService
	// ViewStates keeps per-session filters, menus and drill-downs.
	ViewStates ViewStateStore
	// Chat owns the collaboration panels. Built from ChatOptions when nil.
	Chat        *collab.Hub[SessionKey]
	ChatOptions collab.Options
	// FetchConcurrency bounds concurrent provider fetches per area.
	FetchConcurrency int
	ActivityHooks    activity.Hooks
	ActivityConfig   activity.Config
	Clock            func() time.Time
	Areas            []string
}

// Service orchestrates the RMG dashboard: layout, widget data and the
// per-viewer view-state every widget derives its display from.
type Service struct {
	opts     Options
	activity *activity.Emitter
	// serializes view-state read-modify-write cycles
	viewMu sync.Mutex
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Authorizer == nil {
		opts.Authorizer = allowAllAuthorizer{}
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Providers == nil {
		opts.Providers = NewRegistry()
	}
	if opts.ConfigValidator == nil {
		opts.ConfigValidator = NewJSONSchemaValidator()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.PreferenceStore == nil {
		opts.PreferenceStore = NewInMemoryPreferenceStore()
	}
	if opts.ViewStates == nil {
		opts.ViewStates = NewInMemoryViewStateStore()
	}
	if opts.Chat == nil {
		opts.Chat = collab.NewHub[SessionKey](opts.ChatOptions)
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = defaultFetchConcurrency
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{
		opts:     opts,
		activity: activity.NewEmitter(opts.ActivityHooks, opts.ActivityConfig),
	}
}

// AddWidgetRequest captures the data required to create widget assignments.
type AddWidgetRequest struct {
	DefinitionID  string         `json:"definition_id"`
	AreaCode      string         `json:"area_code"`
	Configuration map[string]any `json:"configuration,omitempty"`
	Position      *int           `json:"position,omitempty"`
	Roles         []string       `json:"roles,omitempty"`
	StartAt       *time.Time     `json:"start_at,omitempty"`
	EndAt         *time.Time     `json:"end_at,omitempty"`
	ActorID       string         `json:"actor_id,omitempty"`
	UserID        string         `json:"user_id,omitempty"`
	TenantID      string         `json:"tenant_id,omitempty"`
}

// AddWidget creates a widget instance and assigns it to an area.
func (s *Service) AddWidget(ctx context.Context, req AddWidgetRequest) error {
	store, err := s.widgetStore()
	if err != nil {
		return err
	}
	if req.AreaCode == "" {
		return errInvalidArea
	}
	if req.DefinitionID == "" {
		return errInvalidDefinition
	}
	if err := s.validateConfiguration(req.DefinitionID, req.Configuration); err != nil {
		return err
	}
	instance, err := store.CreateInstance(ctx, CreateWidgetInstanceInput{
		DefinitionID:  req.DefinitionID,
		Configuration: req.Configuration,
		Visibility: WidgetVisibility{
			Roles:   req.Roles,
			StartAt: req.StartAt,
			EndAt:   req.EndAt,
		},
		Metadata: map[string]any{
			"user_id": req.UserID,
		},
	})
	if err != nil {
		return err
	}
	if err := store.AssignInstance(ctx, AssignWidgetInput{
		AreaCode:   req.AreaCode,
		InstanceID: instance.ID,
		Position:   req.Position,
	}); err != nil {
		return err
	}
	instance.AreaCode = req.AreaCode
	if err := s.opts.RefreshHook.WidgetUpdated(ctx, WidgetEvent{
		AreaCode: req.AreaCode,
		Instance: instance,
		Reason:   "add",
	}); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.add", map[string]any{
		"area_code":     req.AreaCode,
		"definition_id": req.DefinitionID,
	})
	s.emitActivity(ctx, activity.Event{
		Verb:           "dashboard.widget.add",
		ActorID:        req.ActorID,
		UserID:         req.UserID,
		TenantID:       req.TenantID,
		ObjectType:     "widget_instance",
		ObjectID:       instance.ID,
		DefinitionCode: req.DefinitionID,
		Metadata: map[string]any{
			"area_code":     req.AreaCode,
			"definition_id": req.DefinitionID,
		},
	})
	return nil
}

// RemoveWidget deletes the widget instance along with the view-state and chat
// panels bound to it.
func (s *Service) RemoveWidget(ctx context.Context, widgetID string) error {
	store, err := s.widgetStore()
	if err != nil {
		return err
	}
	if widgetID == "" {
		return errors.New("dashboard: widget id is required")
	}
	instance, findErr := store.FindInstance(ctx, widgetID)
	if findErr != nil && !errors.Is(findErr, ErrInstanceNotFound) {
		return findErr
	}
	if err := store.DeleteInstance(ctx, widgetID); err != nil {
		return err
	}
	s.viewMu.Lock()
	err = s.opts.ViewStates.DeleteInstance(ctx, widgetID)
	s.viewMu.Unlock()
	if err != nil {
		return err
	}
	s.opts.Chat.CloseWhere(func(key SessionKey) bool {
		return key.InstanceID == widgetID
	})
	if err := s.opts.RefreshHook.WidgetUpdated(ctx, WidgetEvent{
		AreaCode: instance.AreaCode,
		Instance: WidgetInstance{ID: widgetID, DefinitionID: instance.DefinitionID},
		Reason:   "delete",
	}); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.remove", map[string]any{"widget_id": widgetID})
	s.emitActivity(ctx, activity.Event{
		Verb:           "dashboard.widget.remove",
		ObjectType:     "widget_instance",
		ObjectID:       widgetID,
		DefinitionCode: instance.DefinitionID,
		Metadata: map[string]any{
			"area_code":     instance.AreaCode,
			"definition_id": instance.DefinitionID,
		},
	})
	return nil
}

// ConfigureLayout resolves widgets for each dashboard area respecting
// preferences and authorization, then attaches provider data and view-state.
func (s *Service) ConfigureLayout(ctx context.Context, viewer ViewerContext) (Layout, error) {
	store, err := s.widgetStore()
	if err != nil {
		return Layout{}, err
	}
	overrides, err := s.opts.PreferenceStore.LayoutOverrides(ctx, viewer)
	if err != nil {
		return Layout{}, err
	}
	layout := Layout{Areas: make(map[string][]WidgetInstance)}
	for _, area := range s.areaList() {
		resolved, err := store.ResolveArea(ctx, ResolveAreaInput{
			AreaCode: area,
			Audience: viewer.Roles,
			Locale:   viewer.Locale,
		})
		if err != nil {
			return Layout{}, err
		}
		for i := range resolved.Widgets {
			resolved.Widgets[i].AreaCode = area
		}
		visible := s.filterAuthorized(ctx, viewer, resolved.Widgets)
		ordered := applyOrderOverride(visible, overrides.AreaOrder[area])
		layout.Areas[area] = s.attachProviderData(ctx, viewer, applyHiddenFilter(ordered, overrides.HiddenWidgets))
	}
	s.recordTelemetry(ctx, "dashboard.layout.resolve", map[string]any{
		"viewer": viewer.UserID,
	})
	return layout, nil
}

// RenderWidget resolves one widget for the viewer with its data and view.
// Unlike layout resolution, provider errors are returned.
func (s *Service) RenderWidget(ctx context.Context, viewer ViewerContext, instanceID string) (WidgetInstance, error) {
	inst, def, provider, err := s.resolveWidget(ctx, viewer, instanceID)
	if err != nil {
		return WidgetInstance{}, err
	}
	if err := s.enrich(ctx, viewer, &inst, def, provider); err != nil {
		return WidgetInstance{}, err
	}
	return inst, nil
}

func (s *Service) widgetStore() (WidgetStore, error) {
	if s.opts.WidgetStore == nil {
		return nil, errMissingWidgetStore
	}
	return s.opts.WidgetStore, nil
}

func (s *Service) validateConfiguration(definitionID string, config map[string]any) error {
	if s.opts.ConfigValidator == nil || s.opts.Providers == nil {
		return nil
	}
	def, ok := s.opts.Providers.Definition(definitionID)
	if !ok {
		return nil
	}
	return s.opts.ConfigValidator.Validate(def, config)
}

func (s *Service) areaList() []string {
	if len(s.opts.Areas) > 0 {
		return s.opts.Areas
	}
	return DefaultAreaCodes()
}

func (s *Service) filterAuthorized(ctx context.Context, viewer ViewerContext, widgets []WidgetInstance) []WidgetInstance {
	var filtered []WidgetInstance
	for _, w := range widgets {
		if s.opts.Authorizer.CanViewWidget(ctx, viewer, w) {
			filtered = append(filtered, w)
		}
	}
	return filtered
}

// resolveWidget loads an instance the viewer may see together with its
// definition and provider. provider is nil for definitions without one.
func (s *Service) resolveWidget(ctx context.Context, viewer ViewerContext, instanceID string) (WidgetInstance, WidgetDefinition, Provider, error) {
	store, err := s.widgetStore()
	if err != nil {
		return WidgetInstance{}, WidgetDefinition{}, nil, err
	}
	inst, err := store.FindInstance(ctx, instanceID)
	if err != nil {
		return WidgetInstance{}, WidgetDefinition{}, nil, err
	}
	if !s.opts.Authorizer.CanViewWidget(ctx, viewer, inst) {
		return WidgetInstance{}, WidgetDefinition{}, nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID)
	}
	def, ok := s.opts.Providers.Definition(inst.DefinitionID)
	if !ok {
		return WidgetInstance{}, WidgetDefinition{}, nil, fmt.Errorf("%w: %s", errUnknownDefinition, inst.DefinitionID)
	}
	provider, _ := s.opts.Providers.Provider(inst.DefinitionID)
	return inst, def, provider, nil
}

// attachProviderData fetches every widget concurrently. Failures are recorded
// and the widget renders without data.
func (s *Service) attachProviderData(ctx context.Context, viewer ViewerContext, widgets []WidgetInstance) []WidgetInstance {
	if len(widgets) == 0 {
		return widgets
	}
	enriched := make([]WidgetInstance, len(widgets))
	copy(enriched, widgets)
	var g errgroup.Group
	g.SetLimit(s.opts.FetchConcurrency)
	for i := range enriched {
		g.Go(func() error {
			inst := &enriched[i]
			def, ok := s.opts.Providers.Definition(inst.DefinitionID)
			if !ok {
				return nil
			}
			provider, _ := s.opts.Providers.Provider(inst.DefinitionID)
			if err := s.enrich(ctx, viewer, inst, def, provider); err != nil {
				s.recordTelemetry(ctx, "dashboard.widget.provider_error", map[string]any{
					"definition_id": inst.DefinitionID,
					"widget_id":     inst.ID,
					"error":         err.Error(),
				})
			}
			return nil
		})
	}
	_ = g.Wait()
	return enriched
}

// enrich writes metadata["view"] and, when a provider exists,
// metadata["data"] (plus metadata["detail"] for an open drill-down).
func (s *Service) enrich(ctx context.Context, viewer ViewerContext, inst *WidgetInstance, def WidgetDefinition, provider Provider) error {
	meta, err := s.widgetContext(ctx, viewer, *inst, def, provider)
	if err != nil {
		return err
	}
	metadata := make(map[string]any, len(inst.Metadata)+3)
	for k, v := range inst.Metadata {
		metadata[k] = v
	}
	metadata["view"] = buildWidgetView(ctx, def, meta, provider)
	inst.Metadata = metadata
	if provider == nil {
		return nil
	}
	data, err := provider.Fetch(ctx, meta)
	if err != nil {
		return err
	}
	metadata["data"] = data
	if meta.View.HasDetail() {
		if resolver, ok := provider.(DetailResolver); ok {
			detail, err := resolver.Detail(ctx, meta, meta.View.Detail)
			if err != nil {
				return err
			}
			metadata["detail"] = detail
		}
	}
	return nil
}

func (s *Service) widgetContext(ctx context.Context, viewer ViewerContext, inst WidgetInstance, def WidgetDefinition, provider Provider) (WidgetContext, error) {
	key := NewSessionKey(viewer, inst.ID)
	state, err := s.opts.ViewStates.Load(ctx, key)
	if err != nil {
		return WidgetContext{}, err
	}
	meta := WidgetContext{
		Instance:   inst,
		Viewer:     viewer,
		Translator: s.opts.Translator,
		Filters:    ResolveFilters(def.Filters, inst.Configuration, state),
		View:       state,
	}
	if _, ok := provider.(ChatProvider); ok {
		if panel, ok := s.opts.Chat.Lookup(key); ok {
			transcript := panel.Transcript()
			meta.Chat = &transcript
		}
	}
	return meta, nil
}

// NotifyWidgetUpdated exposes refresh hook invocation for commands/transports.
func (s *Service) NotifyWidgetUpdated(ctx context.Context, event WidgetEvent) error {
	if err := s.opts.RefreshHook.WidgetUpdated(ctx, event); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.event", map[string]any{
		"area_code": event.AreaCode,
		"widget_id": event.Instance.ID,
		"reason":    event.Reason,
	})
	return nil
}

// SavePreferences persists per-viewer layout overrides.
func (s *Service) SavePreferences(ctx context.Context, viewer ViewerContext, overrides LayoutOverrides) error {
	if viewer.UserID == "" {
		return errors.New("dashboard: viewer context missing user id")
	}
	normalizeOverrides(&overrides)
	if err := s.opts.PreferenceStore.SaveLayoutOverrides(ctx, viewer, overrides); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.preferences.save", map[string]any{
		"viewer": viewer.UserID,
		"hidden": len(overrides.HiddenWidgets),
	})
	return nil
}

// Definitions lists the registered widget definitions.
func (s *Service) Definitions() []WidgetDefinition {
	return s.opts.Providers.Definitions()
}

// Close cancels every pending chat reply.
func (s *Service) Close() {
	s.opts.Chat.Shutdown()
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

// emitActivity fills identifiers from the context's ActivityContext (then
// the viewer) and forwards the event. Emission failures never fail the
// calling operation.
func (s *Service) emitActivity(ctx context.Context, evt activity.Event) {
	if !s.activity.Enabled() {
		return
	}
	meta := activityContextFrom(ctx)
	if evt.ActorID == "" {
		evt.ActorID = meta.ActorID
	}
	if evt.UserID == "" {
		evt.UserID = meta.UserID
	}
	if evt.TenantID == "" {
		evt.TenantID = meta.TenantID
	}
	if evt.ActorID == "" {
		evt.ActorID = evt.UserID
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = s.opts.Clock().UTC()
	}
	if err := s.activity.Emit(ctx, evt); err != nil {
		s.recordTelemetry(ctx, "dashboard.activity.error", map[string]any{
			"verb":  evt.Verb,
			"error": err.Error(),
		})
	}
}

type allowAllAuthorizer struct{}

func (allowAllAuthorizer) CanViewWidget(context.Context, ViewerContext, WidgetInstance) bool {
	return true
}

type noopRefreshHook struct{}

func (noopRefreshHook) WidgetUpdated(context.Context, WidgetEvent) error {
	return nil
}
