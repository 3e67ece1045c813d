package dashboard

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type storedInstance struct {
	instance   WidgetInstance
	visibility WidgetVisibility
}

// InMemoryWidgetStore is a WidgetStore for demos, tests and single-process
// deployments. Instances are assigned to at most one area.
type InMemoryWidgetStore struct {
	mu          sync.RWMutex
	areas       map[string]WidgetAreaDefinition
	definitions map[string]WidgetDefinition
	instances   map[string]storedInstance
	placements  map[string][]string
	now         func() time.Time
	newID       func() string
}

// NewInMemoryWidgetStore creates an empty store. clock may be nil.
func NewInMemoryWidgetStore(clock func() time.Time) *InMemoryWidgetStore {
	if clock == nil {
		clock = time.Now
	}
	return &InMemoryWidgetStore{
		areas:       map[string]WidgetAreaDefinition{},
		definitions: map[string]WidgetDefinition{},
		instances:   map[string]storedInstance{},
		placements:  map[string][]string{},
		now:         clock,
		newID:       uuid.NewString,
	}
}

// EnsureArea registers def, reporting whether it was new.
func (s *InMemoryWidgetStore) EnsureArea(_ context.Context, def WidgetAreaDefinition) (bool, error) {
	if def.Code == "" {
		return false, errInvalidArea
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.areas[def.Code]; ok {
		return false, nil
	}
	s.areas[def.Code] = def
	return true, nil
}

// EnsureDefinition registers def, reporting whether it was new.
func (s *InMemoryWidgetStore) EnsureDefinition(_ context.Context, def WidgetDefinition) (bool, error) {
	if def.Code == "" {
		return false, errInvalidDefinition
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.definitions[def.Code]; ok {
		return false, nil
	}
	s.definitions[def.Code] = def
	return true, nil
}

// CreateInstance stores a new, unassigned instance. The definition must have
// been ensured first.
func (s *InMemoryWidgetStore) CreateInstance(_ context.Context, input CreateWidgetInstanceInput) (WidgetInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.definitions[input.DefinitionID]; !ok {
		return WidgetInstance{}, fmt.Errorf("%w: %s", errUnknownDefinition, input.DefinitionID)
	}
	inst := WidgetInstance{
		ID:            s.newID(),
		DefinitionID:  input.DefinitionID,
		Configuration: cloneAnyMap(input.Configuration),
		Metadata:      cloneAnyMap(input.Metadata),
	}
	s.instances[inst.ID] = storedInstance{instance: inst, visibility: input.Visibility}
	return cloneInstance(inst), nil
}

// DeleteInstance removes the instance and its placement.
func (s *InMemoryWidgetStore) DeleteInstance(_ context.Context, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.instances[instanceID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID)
	}
	delete(s.instances, instanceID)
	if area := stored.instance.AreaCode; area != "" {
		s.placements[area] = slices.DeleteFunc(s.placements[area], func(id string) bool { return id == instanceID })
	}
	return nil
}

// AssignInstance places the instance in an area at Position (appended when
// nil or out of range), moving it out of any previous area.
func (s *InMemoryWidgetStore) AssignInstance(_ context.Context, input AssignWidgetInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.areas[input.AreaCode]; !ok {
		return fmt.Errorf("dashboard: unknown area %s", input.AreaCode)
	}
	stored, ok := s.instances[input.InstanceID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInstanceNotFound, input.InstanceID)
	}
	if prev := stored.instance.AreaCode; prev != "" {
		s.placements[prev] = slices.DeleteFunc(s.placements[prev], func(id string) bool { return id == input.InstanceID })
	}
	order := s.placements[input.AreaCode]
	pos := len(order)
	if input.Position != nil && *input.Position >= 0 && *input.Position < len(order) {
		pos = *input.Position
	}
	s.placements[input.AreaCode] = slices.Insert(order, pos, input.InstanceID)
	stored.instance.AreaCode = input.AreaCode
	s.instances[input.InstanceID] = stored
	return nil
}

// FindInstance returns a copy of the instance.
func (s *InMemoryWidgetStore) FindInstance(_ context.Context, instanceID string) (WidgetInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.instances[instanceID]
	if !ok {
		return WidgetInstance{}, fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID)
	}
	return cloneInstance(stored.instance), nil
}

// ResolveArea returns the area's instances visible to the audience now.
func (s *InMemoryWidgetStore) ResolveArea(_ context.Context, input ResolveAreaInput) (ResolvedArea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	out := ResolvedArea{AreaCode: input.AreaCode, Widgets: []WidgetInstance{}}
	for _, id := range s.placements[input.AreaCode] {
		stored := s.instances[id]
		if !stored.visibility.visible(input.Audience, now) {
			continue
		}
		out.Widgets = append(out.Widgets, cloneInstance(stored.instance))
	}
	return out, nil
}

// visible reports whether an audience may see the widget at now. Roles
// restrict the widget to viewers holding at least one of them.
func (v WidgetVisibility) visible(audience []string, now time.Time) bool {
	if v.StartAt != nil && now.Before(*v.StartAt) {
		return false
	}
	if v.EndAt != nil && !now.Before(*v.EndAt) {
		return false
	}
	if len(v.Roles) == 0 {
		return true
	}
	for _, role := range v.Roles {
		if slices.Contains(audience, role) {
			return true
		}
	}
	return false
}

func cloneInstance(in WidgetInstance) WidgetInstance {
	in.Configuration = cloneAnyMap(in.Configuration)
	in.Metadata = cloneAnyMap(in.Metadata)
	return in
}

func cloneAnyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
