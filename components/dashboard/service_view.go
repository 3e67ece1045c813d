package dashboard

import (
	"context"
	"fmt"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard/collab"
	"github.com/goliatone/go-rmg-dashboard/pkg/activity"
)

// FilterView is a filter spec with the viewer's effective selection.
type FilterView struct {
	FilterSpec
	Selected string `json:"selected"`
	Open     bool   `json:"open"`
}

// WidgetView is the view-state published to templates and transports.
type WidgetView struct {
	Filters      []FilterView `json:"filters"`
	OpenMenu     string       `json:"open_menu,omitempty"`
	Detail       string       `json:"detail,omitempty"`
	CanDrillDown bool         `json:"can_drill_down"`
	CanChat      bool         `json:"can_chat"`
	CanEscalate  bool         `json:"can_escalate"`
}

func buildWidgetView(ctx context.Context, def WidgetDefinition, meta WidgetContext, provider Provider) WidgetView {
	view := WidgetView{
		Filters:  make([]FilterView, len(def.Filters)),
		OpenMenu: meta.View.OpenMenu,
		Detail:   meta.View.Detail,
	}
	for i, spec := range def.Filters {
		view.Filters[i] = FilterView{
			FilterSpec: spec,
			Selected:   meta.Filters[spec.Key],
			Open:       meta.View.OpenMenu == spec.Key,
		}
	}
	localizeFilters(ctx, meta.Translator, meta.Viewer.Locale, view.Filters)
	_, view.CanDrillDown = provider.(DetailResolver)
	_, view.CanChat = provider.(ChatProvider)
	_, view.CanEscalate = provider.(Escalator)
	return view
}

// mutateView runs fn on the session's stored view-state and saves the result
// unless fn fails.
func (s *Service) mutateView(ctx context.Context, key SessionKey, fn func(*ViewState) error) (ViewState, error) {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	state, err := s.opts.ViewStates.Load(ctx, key)
	if err != nil {
		return ViewState{}, err
	}
	if err := fn(&state); err != nil {
		return ViewState{}, err
	}
	if err := s.opts.ViewStates.Save(ctx, key, state); err != nil {
		return ViewState{}, err
	}
	return state, nil
}

// SelectFilter sets one filter/tab of a widget for the viewer. The option menu
// closes and any open drill-down is dismissed. On the collaboration widget the
// conversation filter also switches the chat panel.
func (s *Service) SelectFilter(ctx context.Context, viewer ViewerContext, instanceID, key, value string) error {
	inst, def, provider, err := s.resolveWidget(ctx, viewer, instanceID)
	if err != nil {
		return err
	}
	if err := validateSelection(def, key, value); err != nil {
		return err
	}
	session := NewSessionKey(viewer, inst.ID)
	if _, err := s.mutateView(ctx, session, func(state *ViewState) error {
		state.selectOption(key, value)
		return nil
	}); err != nil {
		return err
	}
	if chat, ok := provider.(ChatProvider); ok && chat.ConversationFilter() == key {
		if panel, ok := s.opts.Chat.Lookup(session); ok {
			if err := panel.Switch(collab.Conversation(value)); err != nil {
				return err
			}
		}
	}
	s.recordTelemetry(ctx, "dashboard.widget.filter", map[string]any{
		"widget_id": inst.ID,
		"filter":    key,
		"value":     value,
	})
	return nil
}

// ToggleFilterMenu opens the option menu of key, or closes it when already
// open. Opening one menu closes any other.
func (s *Service) ToggleFilterMenu(ctx context.Context, viewer ViewerContext, instanceID, key string) error {
	inst, def, _, err := s.resolveWidget(ctx, viewer, instanceID)
	if err != nil {
		return err
	}
	if _, ok := def.Filter(key); !ok {
		return fmt.Errorf("%w %q for %s", ErrUnknownFilter, key, def.Code)
	}
	_, err = s.mutateView(ctx, NewSessionKey(viewer, inst.ID), func(state *ViewState) error {
		state.toggleMenu(key)
		return nil
	})
	return err
}

// OpenDetail resolves recordKey through the widget's DetailResolver and marks
// it open. A failed lookup leaves the view-state untouched.
func (s *Service) OpenDetail(ctx context.Context, viewer ViewerContext, instanceID, recordKey string) (WidgetData, error) {
	inst, def, provider, err := s.resolveWidget(ctx, viewer, instanceID)
	if err != nil {
		return nil, err
	}
	resolver, ok := provider.(DetailResolver)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDetailUnsupported, def.Code)
	}
	meta, err := s.widgetContext(ctx, viewer, inst, def, provider)
	if err != nil {
		return nil, err
	}
	detail, err := resolver.Detail(ctx, meta, recordKey)
	if err != nil {
		return nil, err
	}
	if _, err := s.mutateView(ctx, NewSessionKey(viewer, inst.ID), func(state *ViewState) error {
		state.openDetail(recordKey)
		return nil
	}); err != nil {
		return nil, err
	}
	s.recordTelemetry(ctx, "dashboard.widget.detail_open", map[string]any{
		"widget_id": inst.ID,
		"record":    recordKey,
	})
	s.emitActivity(ctx, activity.Event{
		Verb:           "dashboard.detail.open",
		UserID:         viewer.UserID,
		ObjectType:     "widget_record",
		ObjectID:       recordKey,
		DefinitionCode: def.Code,
		Metadata:       map[string]any{"widget_id": inst.ID},
	})
	return detail, nil
}

// CloseDetail dismisses the drill-down and restores the view-state captured
// when it was opened.
func (s *Service) CloseDetail(ctx context.Context, viewer ViewerContext, instanceID string) error {
	inst, _, _, err := s.resolveWidget(ctx, viewer, instanceID)
	if err != nil {
		return err
	}
	_, err = s.mutateView(ctx, NewSessionKey(viewer, inst.ID), func(state *ViewState) error {
		state.closeDetail()
		return nil
	})
	return err
}

// ResetView drops the viewer's state for one widget and closes its chat panel.
func (s *Service) ResetView(ctx context.Context, viewer ViewerContext, instanceID string) error {
	inst, _, _, err := s.resolveWidget(ctx, viewer, instanceID)
	if err != nil {
		return err
	}
	session := NewSessionKey(viewer, inst.ID)
	s.viewMu.Lock()
	err = s.opts.ViewStates.Delete(ctx, session)
	s.viewMu.Unlock()
	if err != nil {
		return err
	}
	s.opts.Chat.Close(session)
	s.recordTelemetry(ctx, "dashboard.widget.reset", map[string]any{"widget_id": inst.ID})
	return nil
}

// ResetViewer drops every widget state of the viewer, as on navigation away
// from the dashboard.
func (s *Service) ResetViewer(ctx context.Context, viewer ViewerContext) error {
	session := NewSessionKey(viewer, "")
	s.viewMu.Lock()
	err := s.opts.ViewStates.DeleteViewer(ctx, session.UserID)
	s.viewMu.Unlock()
	if err != nil {
		return err
	}
	closed := s.opts.Chat.CloseWhere(func(key SessionKey) bool {
		return key.UserID == session.UserID
	})
	s.recordTelemetry(ctx, "dashboard.viewer.reset", map[string]any{
		"viewer":        session.UserID,
		"panels_closed": closed,
	})
	return nil
}
