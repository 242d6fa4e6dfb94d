// Package selection tracks the live and saved text selection on the page.
package selection

import (
	"strings"
	"sync"
	"time"
)

// Rect is a viewport-relative bounding box of a selection, in cells.
type Rect struct {
	Top    int
	Left   int
	Bottom int
	Right  int
	Width  int
	Height int
}

// Snapshot captures the selection state handed to popups.
type Snapshot struct {
	Text      string
	Rect      Rect
	SavedText string
}

// Tracker maintains the current and saved selection. Live text updates
// continuously while the user drags; SavedText is frozen exactly once per
// qualifying pointer-up and is never touched by later selection changes.
type Tracker struct {
	mu        sync.Mutex
	text      string
	rect      *Rect
	savedText string

	lastApply time.Time
	pending   bool
	pendText  string
	pendRect  *Rect

	// Throttle bounds how often selection changes are applied during a drag.
	Throttle time.Duration
	// FreezeDelay is how long after pointer-up the saved text is frozen,
	// one tick past the throttle so the final geometry has been applied.
	FreezeDelay time.Duration

	// InTypingContext reports whether the user is typing in a recognized
	// widget; pointer-ups while typing never freeze a selection.
	InTypingContext func() bool

	// OnFinalized is called once per qualifying pointer-up with the frozen
	// snapshot. It may be nil.
	OnFinalized func(Snapshot)
}

// NewTracker creates a tracker with the standard throttle and freeze delay.
func NewTracker() *Tracker {
	return &Tracker{
		Throttle:    10 * time.Millisecond,
		FreezeDelay: 11 * time.Millisecond,
	}
}

// SelectionChanged records a change to the live selection. Calls arriving
// faster than the throttle interval are coalesced; the last one always takes
// effect once the interval has passed.
func (t *Tracker) SelectionChanged(text string, rect *Rect) {
	t.mu.Lock()
	defer t.mu.Unlock()

	text = strings.TrimSpace(text)
	now := time.Now()

	if now.Sub(t.lastApply) < t.Throttle {
		t.pendText = text
		t.pendRect = rect
		if !t.pending {
			t.pending = true
			delay := t.Throttle - now.Sub(t.lastApply)
			time.AfterFunc(delay, t.applyPending)
		}
		return
	}

	t.lastApply = now
	t.text = text
	t.rect = rect
}

func (t *Tracker) applyPending() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.pending {
		return
	}
	t.pending = false
	t.lastApply = time.Now()
	t.text = t.pendText
	t.rect = t.pendRect
}

// PointerUp freezes the saved text if the tracked text is non-empty and the
// user is not typing in a recognized widget. The freeze happens after
// FreezeDelay so a coalesced trailing selection change lands first.
func (t *Tracker) PointerUp() {
	if t.InTypingContext != nil && t.InTypingContext() {
		return
	}
	time.AfterFunc(t.FreezeDelay, t.freeze)
}

func (t *Tracker) freeze() {
	t.mu.Lock()
	if t.text == "" {
		t.mu.Unlock()
		return
	}
	t.savedText = t.text
	var snap *Snapshot
	if t.rect != nil {
		snap = &Snapshot{Text: t.text, Rect: *t.rect, SavedText: t.savedText}
	}
	cb := t.OnFinalized
	t.mu.Unlock()

	// No rect means the selection had no geometry; popups must not show.
	if snap != nil && cb != nil {
		cb(*snap)
	}
}

// Text returns the live selection text.
func (t *Tracker) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text
}

// SavedText returns the frozen selection text.
func (t *Tracker) SavedText() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.savedText
}

// Rect returns the live selection rect, or false if the selection has no
// geometry.
func (t *Tracker) Rect() (Rect, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rect == nil {
		return Rect{}, false
	}
	return *t.rect, true
}

// Clear resets all tracked state. Popups call this when dismissed.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text = ""
	t.rect = nil
	t.savedText = ""
	t.pending = false
}
