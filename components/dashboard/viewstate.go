package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FilterAll is the conventional "no restriction" option value.
const FilterAll = "all"

// FilterKind distinguishes tab strips from dropdown selectors.
type FilterKind string

const (
	FilterKindTab    FilterKind = "tab"
	FilterKindSelect FilterKind = "select"
)

// FilterOption is a single selectable value.
type FilterOption struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FilterSpec declares a filter or tab a widget exposes. Options form a fixed set.
type FilterSpec struct {
	Key     string         `json:"key" yaml:"key"`
	Label   string         `json:"label" yaml:"label"`
	Kind    FilterKind     `json:"kind" yaml:"kind"`
	Options []FilterOption `json:"options" yaml:"options"`
	Default string         `json:"default" yaml:"default"`
}

// Allows reports whether value is one of the declared options.
func (f FilterSpec) Allows(value string) bool {
	for _, opt := range f.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// DefaultValue returns Default, or the first option when Default is unset.
func (f FilterSpec) DefaultValue() string {
	if f.Default != "" {
		return f.Default
	}
	if len(f.Options) > 0 {
		return f.Options[0].Value
	}
	return ""
}

// Values lists the option values in declaration order.
func (f FilterSpec) Values() []string {
	out := make([]string, len(f.Options))
	for i, opt := range f.Options {
		out[i] = opt.Value
	}
	return out
}

// SessionKey scopes view-state to one viewer looking at one widget instance.
type SessionKey struct {
	UserID     string
	InstanceID string
}

const anonymousViewer = "anonymous"

// NewSessionKey builds the key for viewer and instance.
func NewSessionKey(viewer ViewerContext, instanceID string) SessionKey {
	user := strings.TrimSpace(viewer.UserID)
	if user == "" {
		user = anonymousViewer
	}
	return SessionKey{UserID: user, InstanceID: instanceID}
}

// ViewState is the only mutable state a widget owns: the active filters/tabs,
// which option menu is expanded, and the open drill-down record.
type ViewState struct {
	Filters  map[string]string `json:"filters"`
	OpenMenu string            `json:"open_menu,omitempty"`
	Detail   string            `json:"detail,omitempty"`

	// prior is the snapshot taken when the first detail was opened.
	prior *ViewState
}

// Clone returns a deep copy of the state.
func (s ViewState) Clone() ViewState {
	out := ViewState{
		OpenMenu: s.OpenMenu,
		Detail:   s.Detail,
	}
	if s.Filters != nil {
		out.Filters = make(map[string]string, len(s.Filters))
		for k, v := range s.Filters {
			out.Filters[k] = v
		}
	}
	if s.prior != nil {
		prior := s.prior.Clone()
		out.prior = &prior
	}
	return out
}

// HasDetail reports whether a drill-down is open.
func (s ViewState) HasDetail() bool {
	return s.Detail != ""
}

func (s *ViewState) selectOption(key, value string) {
	if s.Filters == nil {
		s.Filters = map[string]string{}
	}
	s.Filters[key] = value
	s.OpenMenu = ""
	// the open record may not belong to the new subset
	s.Detail = ""
	s.prior = nil
}

func (s *ViewState) toggleMenu(key string) {
	if s.OpenMenu == key {
		s.OpenMenu = ""
		return
	}
	s.OpenMenu = key
}

func (s *ViewState) openDetail(key string) {
	if s.Detail == "" {
		snapshot := s.Clone()
		s.prior = &snapshot
	}
	s.Detail = key
	s.OpenMenu = ""
}

func (s *ViewState) closeDetail() {
	if s.prior != nil {
		*s = *s.prior
		return
	}
	s.Detail = ""
}

// ResolveFilters merges declared defaults, instance configuration and the
// viewer's selections, in that order of precedence. Invalid values are ignored.
func ResolveFilters(specs []FilterSpec, config map[string]any, state ViewState) map[string]string {
	out := make(map[string]string, len(specs))
	for _, spec := range specs {
		value := spec.DefaultValue()
		if configured, ok := config[spec.Key].(string); ok && spec.Allows(configured) {
			value = configured
		}
		if selected, ok := state.Filters[spec.Key]; ok && spec.Allows(selected) {
			value = selected
		}
		out[spec.Key] = value
	}
	return out
}

func validateSelection(def WidgetDefinition, key, value string) error {
	spec, ok := def.Filter(key)
	if !ok {
		return fmt.Errorf("%w %q for %s", ErrUnknownFilter, key, def.Code)
	}
	if !spec.Allows(value) {
		return fmt.Errorf("%w %q for filter %s (allowed: %s)", ErrInvalidFilterOption, value, key, strings.Join(spec.Values(), ", "))
	}
	return nil
}

// ViewStateStore persists view-state per session.
type ViewStateStore interface {
	Load(ctx context.Context, key SessionKey) (ViewState, error)
	Save(ctx context.Context, key SessionKey, state ViewState) error
	Delete(ctx context.Context, key SessionKey) error
	DeleteViewer(ctx context.Context, userID string) error
	DeleteInstance(ctx context.Context, instanceID string) error
}

// InMemoryViewStateStore keeps view-state for the lifetime of the process.
type InMemoryViewStateStore struct {
	mu     sync.RWMutex
	states map[SessionKey]ViewState
}

// NewInMemoryViewStateStore creates an empty store.
func NewInMemoryViewStateStore() *InMemoryViewStateStore {
	return &InMemoryViewStateStore{states: make(map[SessionKey]ViewState)}
}

// Load returns a copy of the stored state, or an empty state.
func (s *InMemoryViewStateStore) Load(_ context.Context, key SessionKey) (ViewState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[key]
	if !ok {
		return ViewState{Filters: map[string]string{}}, nil
	}
	return state.Clone(), nil
}

// Save stores a copy of state.
func (s *InMemoryViewStateStore) Save(_ context.Context, key SessionKey, state ViewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = state.Clone()
	return nil
}

// Delete drops the session's state.
func (s *InMemoryViewStateStore) Delete(_ context.Context, key SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	return nil
}

// DeleteViewer drops every session owned by userID.
func (s *InMemoryViewStateStore) DeleteViewer(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.states {
		if key.UserID == userID {
			delete(s.states, key)
		}
	}
	return nil
}

// DeleteInstance drops every session bound to the widget instance.
func (s *InMemoryViewStateStore) DeleteInstance(_ context.Context, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.states {
		if key.InstanceID == instanceID {
			delete(s.states, key)
		}
	}
	return nil
}
