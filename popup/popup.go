// Package popup implements the floating panels raised over the page: the
// quick-action popup shown after a selection and the detail popup hosting an
// action panel. Popups are anchored to the selection and reposition
// themselves as the page scrolls or their content changes size.
package popup

import (
	"sync"
	"time"

	"gloss/input"
	"gloss/selection"
)

// State is the lifecycle state of a popup.
type State int

const (
	Hidden State = iota
	Showing
	Visible
	Hiding
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Showing:
		return "showing"
	case Visible:
		return "visible"
	case Hiding:
		return "hiding"
	default:
		return "unknown"
	}
}

// Surface is the drawing host a popup lives on. It reports viewport size and
// page scroll, and lets popups request a redraw on the next frame.
type Surface interface {
	// Size returns the viewport dimensions in cells.
	Size() (width, height int)

	// ScrollOffset returns the page scroll position.
	ScrollOffset() (x, y int)

	// RequestFrame asks the host loop to redraw soon. The appear transition
	// completes on the next frame so it always runs from a defined initial
	// state.
	RequestFrame()
}

// Base is the shared popup lifecycle: Hidden → Showing → Visible → Hiding →
// Hidden, with idempotent show/hide, deferred outside-click dismissal, and
// optional inactivity auto-hide.
type Base struct {
	mu      sync.Mutex
	state   State
	surface Surface

	x, y, w, h int // current placement, viewport coordinates

	outsideClickArmedAt time.Time
	removeTimer         *time.Timer
	autoHideTimer       *time.Timer

	// OutsideClickDelay defers the outside-click listener so the click that
	// triggered Show cannot immediately dismiss the popup.
	OutsideClickDelay time.Duration
	// HideDuration is how long the exit transition stays on screen before
	// the popup is removed.
	HideDuration time.Duration
	// AutoHideDelay hides the popup after inactivity when non-zero, unless
	// the pointer is over it.
	AutoHideDelay time.Duration

	// OnHidden is called once the popup has fully left the screen.
	OnHidden func()
}

// NewBase creates a popup base with the standard timings.
func NewBase(surface Surface) *Base {
	return &Base{
		surface:           surface,
		OutsideClickDelay: 100 * time.Millisecond,
		HideDuration:      300 * time.Millisecond,
	}
}

// State returns the current lifecycle state.
func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Bounds returns the popup placement in viewport coordinates.
func (b *Base) Bounds() (x, y, w, h int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.x, b.y, b.w, b.h
}

// SetBounds records the popup placement.
func (b *Base) SetBounds(x, y, w, h int) {
	b.mu.Lock()
	b.x, b.y, b.w, b.h = x, y, w, h
	b.mu.Unlock()
}

// Contains reports whether a viewport point lies inside the popup.
func (b *Base) Contains(x, y int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state != Hidden &&
		x >= b.x && x < b.x+b.w && y >= b.y && y < b.y+b.h
}

// Show transitions Hidden → Showing. Calling it while already Showing or
// Visible is a no-op, so listeners are never double-registered. The caller
// positions the popup via SetBounds before the next frame; Frame completes
// the transition to Visible.
func (b *Base) Show() bool {
	b.mu.Lock()
	if b.state == Showing || b.state == Visible {
		b.mu.Unlock()
		return false
	}
	if b.removeTimer != nil {
		b.removeTimer.Stop()
		b.removeTimer = nil
	}
	b.state = Showing
	b.outsideClickArmedAt = time.Now().Add(b.OutsideClickDelay)
	b.mu.Unlock()

	b.scheduleAutoHide()
	b.surface.RequestFrame()
	return true
}

// Frame advances the appear transition. The host loop calls this on every
// redraw.
func (b *Base) Frame() {
	b.mu.Lock()
	if b.state == Showing {
		b.state = Visible
	}
	b.mu.Unlock()
}

// Hide transitions Visible → Hiding and schedules removal after the exit
// transition. Calling it when not Visible is a no-op; the removal is never
// double-scheduled.
func (b *Base) Hide() bool {
	b.mu.Lock()
	if b.state != Visible && b.state != Showing {
		b.mu.Unlock()
		return false
	}
	b.state = Hiding
	b.stopAutoHideLocked()
	if b.removeTimer == nil {
		b.removeTimer = time.AfterFunc(b.HideDuration, b.finishHide)
	}
	b.mu.Unlock()

	b.surface.RequestFrame()
	return true
}

// HideImmediate removes the popup with no exit transition. The quick-action
// popup uses this when an action is picked, so two popups never overlap.
func (b *Base) HideImmediate() {
	b.mu.Lock()
	if b.state == Hidden {
		b.mu.Unlock()
		return
	}
	b.state = Hidden
	b.stopAutoHideLocked()
	if b.removeTimer != nil {
		b.removeTimer.Stop()
		b.removeTimer = nil
	}
	cb := b.OnHidden
	b.mu.Unlock()

	if cb != nil {
		cb()
	}
	b.surface.RequestFrame()
}

func (b *Base) finishHide() {
	b.mu.Lock()
	if b.state != Hiding {
		b.mu.Unlock()
		return
	}
	b.state = Hidden
	b.removeTimer = nil
	cb := b.OnHidden
	b.mu.Unlock()

	if cb != nil {
		cb()
	}
	b.surface.RequestFrame()
}

// HandleOutsideClick dismisses the popup when a pointer-down lands outside
// it, once the deferred listener has armed. Returns true if the popup hid.
func (b *Base) HandleOutsideClick(p input.Pointer) bool {
	if p.Kind != input.PointerDown {
		return false
	}
	b.mu.Lock()
	armed := b.state == Visible && time.Now().After(b.outsideClickArmedAt)
	inside := p.X >= b.x && p.X < b.x+b.w && p.Y >= b.y && p.Y < b.y+b.h
	b.mu.Unlock()

	if !armed || inside {
		return false
	}
	return b.Hide()
}

// PointerActivity feeds pointer events into the auto-hide logic: while the
// pointer is over the popup the timer is cancelled, and it is rescheduled
// when the pointer leaves.
func (b *Base) PointerActivity(p input.Pointer) {
	if b.AutoHideDelay == 0 {
		return
	}
	if b.Contains(p.X, p.Y) {
		b.mu.Lock()
		b.stopAutoHideLocked()
		b.mu.Unlock()
	} else {
		b.scheduleAutoHide()
	}
}

func (b *Base) scheduleAutoHide() {
	if b.AutoHideDelay == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Hidden || b.state == Hiding {
		return
	}
	if b.autoHideTimer != nil {
		b.autoHideTimer.Stop()
	}
	b.autoHideTimer = time.AfterFunc(b.AutoHideDelay, func() { b.Hide() })
}

func (b *Base) stopAutoHideLocked() {
	if b.autoHideTimer != nil {
		b.autoHideTimer.Stop()
		b.autoHideTimer = nil
	}
}

// anchorFromRect converts a selection rect to the document-coordinate anchor
// point: the selection's horizontal centre and bottom edge, offset by the
// current scroll so the anchor survives scrolling.
func anchorFromRect(r selection.Rect, scrollX, scrollY int) (docX, docY int) {
	return r.Left + r.Width/2 + scrollX, r.Bottom + scrollY
}
