package input

import "sync"

// TextWidget is an editable widget that can receive a forwarded character.
// The widget inserts the rune at its current caret position and leaves the
// caret just after it.
type TextWidget interface {
	InsertRune(r rune)
}

// Registry maps widget identities to their widgets and tracks which one holds
// logical focus. Popups register their nested text widgets here instead of
// relying on any ambient focus tracking, because widgets live inside the
// popup's own drawing scope. Popup teardown runs on the exit-transition
// timer goroutine, so every method locks.
type Registry struct {
	mu      sync.Mutex
	widgets map[string]TextWidget
	focused string
}

// NewRegistry creates an empty focus registry.
func NewRegistry() *Registry {
	return &Registry{widgets: make(map[string]TextWidget)}
}

// Register adds or replaces a widget under the given id. Re-registering an
// id updates the backing widget without disturbing focus.
func (g *Registry) Register(id string, w TextWidget) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.widgets[id] = w
}

// Unregister removes a widget. If it held focus, focus is cleared.
func (g *Registry) Unregister(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.widgets, id)
	if g.focused == id {
		g.focused = ""
	}
}

// Focus moves logical focus to the given id. Focusing an unregistered id
// clears focus instead.
func (g *Registry) Focus(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.widgets[id]; ok {
		g.focused = id
	} else {
		g.focused = ""
	}
}

// Blur clears logical focus.
func (g *Registry) Blur() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.focused = ""
}

// Focused returns the id and widget holding logical focus.
func (g *Registry) Focused() (string, TextWidget, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.focused == "" {
		return "", nil, false
	}
	w, ok := g.widgets[g.focused]
	if !ok {
		return "", nil, false
	}
	return g.focused, w, true
}

// Clear removes every widget and clears focus. Popups call this when they are
// destroyed so stale widgets never receive forwarded input.
func (g *Registry) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.widgets = make(map[string]TextWidget)
	g.focused = ""
}

// Router reclaims single printable characters for popup widgets before the
// page keymap can interpret them as shortcuts. Anything else passes through
// to the widget's own key handling or, outside a typing context, the page.
type Router struct {
	reg *Registry
}

// NewRouter creates a router over the given focus registry.
func NewRouter(reg *Registry) *Router {
	return &Router{reg: reg}
}

// Route handles one key press. It returns true when the key was consumed:
// the character has been forwarded to the focused widget and must not reach
// the page keymap. It returns false when the key should proceed untouched:
// either no widget holds focus (the user is not in a typing context) or the
// key is a control key the widget handles natively.
func (r *Router) Route(k Key) bool {
	_, w, ok := r.reg.Focused()
	if !ok {
		return false
	}
	if !k.Printable() {
		return false
	}
	w.InsertRune(k.Rune)
	return true
}
