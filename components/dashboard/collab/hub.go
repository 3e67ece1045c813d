package collab

import "sync"

// Hub owns one Panel per session key. Keys are compared exactly, so callers
// select panels by their key fields rather than by string prefixes.
type Hub[K comparable] struct {
	opts Options

	mu     sync.Mutex
	panels map[K]*Panel
}

// NewHub creates a hub whose panels share opts.
func NewHub[K comparable](opts Options) *Hub[K] {
	return &Hub[K]{
		opts:   opts.normalize(),
		panels: map[K]*Panel{},
	}
}

// Panel returns the panel for key, creating it on conversation when absent.
// onReply is bound only at creation.
func (h *Hub[K]) Panel(key K, conversation Conversation, onReply func(Message)) *Panel {
	h.mu.Lock()
	defer h.mu.Unlock()
	if p, ok := h.panels[key]; ok {
		return p
	}
	p := NewPanel(conversation, h.opts, onReply)
	h.panels[key] = p
	return p
}

// Lookup returns the panel for key without creating it.
func (h *Hub[K]) Lookup(key K) (*Panel, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.panels[key]
	return p, ok
}

// Close closes and forgets the panel for key.
func (h *Hub[K]) Close(key K) {
	h.mu.Lock()
	p, ok := h.panels[key]
	delete(h.panels, key)
	h.mu.Unlock()
	if ok {
		p.Close()
	}
}

// CloseWhere closes every panel whose key satisfies match.
func (h *Hub[K]) CloseWhere(match func(key K) bool) int {
	h.mu.Lock()
	var closing []*Panel
	for key, p := range h.panels {
		if match(key) {
			closing = append(closing, p)
			delete(h.panels, key)
		}
	}
	h.mu.Unlock()
	for _, p := range closing {
		p.Close()
	}
	return len(closing)
}

// Shutdown closes every panel.
func (h *Hub[K]) Shutdown() {
	h.CloseWhere(func(K) bool { return true })
}
