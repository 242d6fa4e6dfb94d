package popup

import (
	"sync/atomic"
	"testing"
	"time"

	"gloss/input"
	"gloss/render"
	"gloss/selection"
)

type fakeSurface struct {
	w, h             int
	scrollX, scrollY int
	frames           atomic.Int32
}

func (s *fakeSurface) Size() (int, int)         { return s.w, s.h }
func (s *fakeSurface) ScrollOffset() (int, int) { return s.scrollX, s.scrollY }
func (s *fakeSurface) RequestFrame()            { s.frames.Add(1) }

type fakePanel struct {
	w, h      int
	destroyed bool
}

func (p *fakePanel) Title() string { return "test" }
func (p *fakePanel) PreferredSize(maxW, maxH int) (int, int) {
	w, h := p.w, p.h
	if w > maxW {
		w = maxW
	}
	if h > maxH {
		h = maxH
	}
	return w, h
}
func (p *fakePanel) Draw(c *render.Canvas, x, y, w, h int)                    {}
func (p *fakePanel) HandleKey(k input.Key) bool                               { return false }
func (p *fakePanel) HandlePointer(pt input.Pointer, originX, originY int) bool { return false }
func (p *fakePanel) Destroy()                                                  { p.destroyed = true }

func TestShowHideIdempotent(t *testing.T) {
	s := &fakeSurface{w: 100, h: 40}
	b := NewBase(s)
	b.HideDuration = time.Millisecond

	if !b.Show() {
		t.Fatal("first show should transition")
	}
	if b.Show() {
		t.Error("second show must be a no-op")
	}
	b.Frame()
	if b.State() != Visible {
		t.Fatalf("expected visible, got %v", b.State())
	}

	hidden := 0
	b.OnHidden = func() { hidden++ }

	if !b.Hide() {
		t.Fatal("first hide should transition")
	}
	if b.Hide() {
		t.Error("second hide must be a no-op")
	}

	time.Sleep(20 * time.Millisecond)
	if b.State() != Hidden {
		t.Fatalf("expected hidden, got %v", b.State())
	}
	if hidden != 1 {
		t.Errorf("expected exactly one removal, got %d", hidden)
	}

	// Hide on an already-hidden popup must not panic or fire again.
	if b.Hide() {
		t.Error("hide while hidden must be a no-op")
	}
	time.Sleep(5 * time.Millisecond)
	if hidden != 1 {
		t.Errorf("removal double-scheduled: %d", hidden)
	}
}

func TestOutsideClickDeferred(t *testing.T) {
	s := &fakeSurface{w: 100, h: 40}
	b := NewBase(s)
	b.OutsideClickDelay = 20 * time.Millisecond
	b.Show()
	b.Frame()
	b.SetBounds(10, 10, 20, 5)

	// The click that triggered show arrives immediately; it must not
	// dismiss.
	if b.HandleOutsideClick(input.Pointer{Kind: input.PointerDown, X: 0, Y: 0}) {
		t.Error("outside click before the listener armed must not dismiss")
	}

	time.Sleep(30 * time.Millisecond)
	if !b.HandleOutsideClick(input.Pointer{Kind: input.PointerDown, X: 0, Y: 0}) {
		t.Error("outside click after arming should dismiss")
	}
}

func TestInsideClickDoesNotDismiss(t *testing.T) {
	s := &fakeSurface{w: 100, h: 40}
	b := NewBase(s)
	b.OutsideClickDelay = time.Millisecond
	b.Show()
	b.Frame()
	b.SetBounds(10, 10, 20, 5)
	time.Sleep(10 * time.Millisecond)

	if b.HandleOutsideClick(input.Pointer{Kind: input.PointerDown, X: 15, Y: 12}) {
		t.Error("click inside the popup must not dismiss")
	}
}

func TestAutoHideCancelledWhileHovered(t *testing.T) {
	s := &fakeSurface{w: 100, h: 40}
	b := NewBase(s)
	b.AutoHideDelay = 30 * time.Millisecond
	b.Show()
	b.Frame()
	b.SetBounds(10, 10, 20, 5)

	// Pointer moves over the popup: the timer is cancelled.
	b.PointerActivity(input.Pointer{Kind: input.PointerDrag, X: 15, Y: 12})
	time.Sleep(50 * time.Millisecond)
	if b.State() != Visible {
		t.Fatal("popup auto-hid while hovered")
	}

	// Pointer leaves: the timer is rescheduled.
	b.PointerActivity(input.Pointer{Kind: input.PointerDrag, X: 0, Y: 0})
	time.Sleep(50 * time.Millisecond)
	if b.State() == Visible {
		return
	}
	if b.State() != Hiding && b.State() != Hidden {
		t.Fatalf("expected auto-hide after pointer left, got %v", b.State())
	}
}

func TestQuickSuppressWindow(t *testing.T) {
	s := &fakeSurface{w: 100, h: 40}
	q := NewQuick(s)
	q.SuppressWindow = 50 * time.Millisecond

	rect := selection.Rect{Left: 40, Top: 10, Bottom: 11, Width: 10, Height: 1}
	if !q.ShowAt(rect, "word") {
		t.Fatal("initial show failed")
	}
	q.Frame()

	// Draw to lay out hit regions, then click the first button.
	c := render.NewCanvas(100, 40)
	q.Draw(c)

	var gotAction Action
	var gotText string
	fired := 0
	q.OnAction = func(a Action, text string) {
		gotAction = a
		gotText = text
		fired++
	}

	x, y, _, _ := q.Bounds()
	if !q.HandlePointer(input.Pointer{Kind: input.PointerDown, X: x + 2, Y: y + 1}) {
		t.Fatal("button click not consumed")
	}
	if fired != 1 || gotAction != ActionLearn {
		t.Fatalf("expected learn action, fired=%d action=%v", fired, gotAction)
	}
	if gotText != "word" {
		t.Errorf("callback must receive the saved text, got %q", gotText)
	}
	if q.State() != Hidden {
		t.Error("quick popup must hide immediately on action")
	}

	// A show inside the suppress window is ignored.
	if q.ShowAt(rect, "again") {
		t.Error("show inside suppress window must be ignored")
	}
	time.Sleep(60 * time.Millisecond)
	if !q.ShowAt(rect, "later") {
		t.Error("show after suppress window should succeed")
	}
}

func repositionedBounds(t *testing.T, vw, vh, panelW, panelH int, rect selection.Rect) (x, y, w, h int) {
	t.Helper()
	s := &fakeSurface{w: vw, h: vh}
	d := NewDetail(s, ActionLearn, &fakePanel{w: panelW, h: panelH})
	if !d.ShowAt(rect) {
		t.Fatal("show failed")
	}
	d.Frame()
	return d.Bounds()
}

func TestRepositionClampsWithinMargins(t *testing.T) {
	cases := []struct {
		name string
		rect selection.Rect
	}{
		{"near left edge", selection.Rect{Left: 0, Width: 4, Bottom: 5}},
		{"near right edge", selection.Rect{Left: 115, Width: 4, Bottom: 5}},
		{"near bottom", selection.Rect{Left: 60, Width: 4, Bottom: 38}},
		{"centered", selection.Rect{Left: 60, Width: 4, Bottom: 10}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			x, y, w, h := repositionedBounds(t, 120, 40, 30, 10, tc.rect)
			if x < viewportMargin || x+w > 120-viewportMargin {
				t.Errorf("horizontal bounds violated: x=%d w=%d", x, w)
			}
			if y < viewportMargin || y+h > 40-viewportMargin {
				t.Errorf("vertical bounds violated: y=%d h=%d", y, h)
			}
		})
	}
}

func TestRepositionPrefersBelowAnchor(t *testing.T) {
	rect := selection.Rect{Left: 58, Width: 4, Bottom: 5}
	x, y, w, _ := repositionedBounds(t, 120, 60, 30, 10, rect)

	// Preferred placement: centred on anchor x, anchorGap below anchor y.
	wantY := rect.Bottom + anchorGap
	if y != wantY {
		t.Errorf("expected y=%d, got %d", wantY, y)
	}
	wantX := (rect.Left + rect.Width/2) - w/2
	if x != wantX {
		t.Errorf("expected x=%d, got %d", wantX, x)
	}
}

func TestRepositionOversizedPopup(t *testing.T) {
	// Taller than the viewport: pinned to the top margin.
	_, y, _, _ := repositionedBounds(t, 120, 20, 30, 60, selection.Rect{Left: 58, Width: 4, Bottom: 10})
	if y != viewportMargin {
		t.Errorf("oversized popup should pin to top margin, got y=%d", y)
	}

	// Wider than the viewport: centred.
	x, _, w, _ := repositionedBounds(t, 30, 40, 60, 5, selection.Rect{Left: 12, Width: 4, Bottom: 10})
	if x != (30-w)/2 {
		t.Errorf("oversized popup should centre, got x=%d w=%d", x, w)
	}
}

func TestRepositionFollowsScroll(t *testing.T) {
	s := &fakeSurface{w: 120, h: 60}
	d := NewDetail(s, ActionLearn, &fakePanel{w: 30, h: 10})
	d.ShowAt(selection.Rect{Left: 58, Width: 4, Bottom: 20})
	d.Frame()
	_, y1, _, _ := d.Bounds()

	// Page scrolls down 5 lines; the popup follows the anchor up.
	s.scrollY = 5
	d.Scrolled()
	_, y2, _, _ := d.Bounds()
	if y2 != y1-5 {
		t.Errorf("expected popup to follow anchor by 5, got %d -> %d", y1, y2)
	}
}

func TestContentResizeRepositions(t *testing.T) {
	s := &fakeSurface{w: 120, h: 40}
	panel := &fakePanel{w: 30, h: 5}
	d := NewDetail(s, ActionLearn, panel)
	d.ShowAt(selection.Rect{Left: 58, Width: 4, Bottom: 25})
	d.Frame()
	_, y1, _, h1 := d.Bounds()

	// Async data grows the panel; the popup must re-clamp so it stays on
	// screen.
	panel.h = 20
	d.ContentResized()
	_, y2, _, h2 := d.Bounds()
	if h2 <= h1 {
		t.Fatalf("expected height growth, got %d -> %d", h1, h2)
	}
	if y2+h2 > 40-viewportMargin {
		t.Errorf("grown popup overflows bottom margin: y=%d h=%d", y2, y2+h2)
	}
	if y2 >= y1 {
		t.Errorf("expected popup to shift up, got y %d -> %d", y1, y2)
	}
}

func TestHideDestroysPanel(t *testing.T) {
	s := &fakeSurface{w: 120, h: 40}
	panel := &fakePanel{w: 30, h: 5}
	d := NewDetail(s, ActionNote, panel)
	d.ShowAt(selection.Rect{Left: 58, Width: 4, Bottom: 10})
	d.Frame()
	d.HideDuration = time.Millisecond
	d.Hide()
	time.Sleep(20 * time.Millisecond)

	if !panel.destroyed {
		t.Error("hiding the detail popup must destroy its panel")
	}
}
