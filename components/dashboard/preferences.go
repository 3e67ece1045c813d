package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var errPreferenceViewer = errors.New("dashboard: preference store requires viewer user id")

// InMemoryPreferenceStore keeps layout overrides per viewer in memory.
type InMemoryPreferenceStore struct {
	mu   sync.RWMutex
	data map[string]LayoutOverrides
}

// NewInMemoryPreferenceStore creates an empty preference store.
func NewInMemoryPreferenceStore() *InMemoryPreferenceStore {
	return &InMemoryPreferenceStore{
		data: make(map[string]LayoutOverrides),
	}
}

// LayoutOverrides returns a copy of the stored overrides, or empty defaults.
// Anonymous viewers always get defaults.
func (s *InMemoryPreferenceStore) LayoutOverrides(_ context.Context, viewer ViewerContext) (LayoutOverrides, error) {
	out := LayoutOverrides{Locale: viewer.Locale}
	if viewer.UserID != "" {
		s.mu.RLock()
		stored, ok := s.data[viewer.UserID]
		s.mu.RUnlock()
		if ok {
			out = cloneOverrides(stored)
		}
	}
	if out.Locale == "" {
		out.Locale = viewer.Locale
	}
	normalizeOverrides(&out)
	return out, nil
}

// SaveLayoutOverrides persists a copy of overrides for the viewer.
func (s *InMemoryPreferenceStore) SaveLayoutOverrides(_ context.Context, viewer ViewerContext, overrides LayoutOverrides) error {
	if viewer.UserID == "" {
		return errPreferenceViewer
	}
	if overrides.Locale == "" {
		overrides.Locale = viewer.Locale
	}
	overrides = cloneOverrides(overrides)
	normalizeOverrides(&overrides)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[viewer.UserID] = overrides
	return nil
}

// Clear drops the viewer's overrides.
func (s *InMemoryPreferenceStore) Clear(_ context.Context, viewer ViewerContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, viewer.UserID)
	return nil
}

// normalizeOverrides fills nil maps and drops blank or duplicate widget ids.
func normalizeOverrides(overrides *LayoutOverrides) {
	if overrides.AreaOrder == nil {
		overrides.AreaOrder = map[string][]string{}
	}
	if overrides.HiddenWidgets == nil {
		overrides.HiddenWidgets = map[string]bool{}
	}
	for area, order := range overrides.AreaOrder {
		seen := make(map[string]struct{}, len(order))
		cleaned := order[:0]
		for _, id := range order {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			cleaned = append(cleaned, id)
		}
		overrides.AreaOrder[area] = cleaned
	}
	for id, hidden := range overrides.HiddenWidgets {
		if !hidden || strings.TrimSpace(id) == "" {
			delete(overrides.HiddenWidgets, id)
		}
	}
}

func cloneOverrides(in LayoutOverrides) LayoutOverrides {
	out := LayoutOverrides{Locale: in.Locale}
	if in.AreaOrder != nil {
		out.AreaOrder = make(map[string][]string, len(in.AreaOrder))
		for area, order := range in.AreaOrder {
			out.AreaOrder[area] = append([]string(nil), order...)
		}
	}
	if in.HiddenWidgets != nil {
		out.HiddenWidgets = make(map[string]bool, len(in.HiddenWidgets))
		for id, hidden := range in.HiddenWidgets {
			out.HiddenWidgets[id] = hidden
		}
	}
	return out
}
