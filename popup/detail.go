package popup

import (
	"sync"
	"time"

	"gloss/input"
	"gloss/render"
	"gloss/selection"
)

const (
	// viewportMargin is the minimum gap kept between a detail popup and the
	// viewport edges.
	viewportMargin = 8
	// anchorGap is the preferred distance below the anchor point.
	anchorGap = 10
)

// Panel is an action panel hosted inside a detail popup.
type Panel interface {
	// Title returns the text shown in the popup's top border.
	Title() string

	// PreferredSize returns the content size the panel wants, bounded by
	// the given maximums.
	PreferredSize(maxWidth, maxHeight int) (width, height int)

	// Draw renders the panel into the given content region.
	Draw(c *render.Canvas, x, y, width, height int)

	// HandleKey processes a control key. Returns true if consumed.
	HandleKey(k input.Key) bool

	// HandlePointer processes a pointer event with the panel's content
	// origin in viewport coordinates. Returns true if consumed.
	HandlePointer(p input.Pointer, originX, originY int) bool

	// Destroy releases the panel's widgets and listeners.
	Destroy()
}

// Detail is the expanded popup hosting one of the action panels. It anchors
// to the selection point in document coordinates and repositions itself on
// scroll, window resize, and panel content growth.
type Detail struct {
	*Base

	mu                 sync.Mutex
	anchorDocX         int
	anchorDocY         int
	panel              Panel
	action             Action
	contentW, contentH int
	resizeTimer        *time.Timer

	// ResizeDebounce delays repositioning after a window resize.
	ResizeDebounce time.Duration
}

// NewDetail creates a detail popup hosting the given panel.
func NewDetail(surface Surface, action Action, panel Panel) *Detail {
	d := &Detail{
		Base:           NewBase(surface),
		panel:          panel,
		action:         action,
		ResizeDebounce: 120 * time.Millisecond,
	}
	d.OnHidden = d.destroyPanel
	return d
}

// Action returns the workflow this popup hosts.
func (d *Detail) Action() Action {
	return d.action
}

// Panel returns the hosted panel.
func (d *Detail) Panel() Panel {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.panel
}

// ShowAt opens the popup anchored to the selection rect. The anchor is the
// rect's horizontal centre and bottom edge converted to document coordinates
// at open time; the first placement happens before the appear transition so
// the popup never animates in from a stale position.
func (d *Detail) ShowAt(rect selection.Rect) bool {
	if !d.Show() {
		return false
	}

	scrollX, scrollY := d.surface.ScrollOffset()
	d.mu.Lock()
	d.anchorDocX, d.anchorDocY = anchorFromRect(rect, scrollX, scrollY)
	d.mu.Unlock()

	d.measure()
	d.Reposition()
	return true
}

// measure refreshes the cached content size from the panel.
func (d *Detail) measure() {
	vw, vh := d.surface.Size()
	maxW := vw - 2*viewportMargin
	maxH := vh - 2*viewportMargin
	if maxW < 1 {
		maxW = 1
	}
	if maxH < 1 {
		maxH = 1
	}

	d.mu.Lock()
	panel := d.panel
	d.mu.Unlock()
	if panel == nil {
		return
	}
	w, h := panel.PreferredSize(maxW, maxH)

	d.mu.Lock()
	d.contentW, d.contentH = w, h
	d.mu.Unlock()
}

// Reposition recomputes the popup placement from the stored document anchor:
// preferred placement is horizontally centred on the anchor, anchorGap below
// it; then clamped so the popup stays within the viewport margin. A popup
// wider than the available width is centred; one taller than the available
// height is pinned to the top margin.
func (d *Detail) Reposition() {
	vw, vh := d.surface.Size()
	scrollX, scrollY := d.surface.ScrollOffset()

	d.mu.Lock()
	ax := d.anchorDocX - scrollX
	ay := d.anchorDocY - scrollY
	w := d.contentW + 2 // box border
	h := d.contentH + 2
	d.mu.Unlock()

	x := ax - w/2
	y := ay + anchorGap

	// Horizontal clamp: shift by the minimum amount needed to stay within
	// the margin; centre if wider than the available width.
	if w > vw-2*viewportMargin {
		x = (vw - w) / 2
	} else {
		if x < viewportMargin {
			x = viewportMargin
		}
		if x+w > vw-viewportMargin {
			x = vw - viewportMargin - w
		}
	}

	// Vertical clamp: shift up by exactly the overflow, then respect the
	// top margin; pin to the top when taller than the available height.
	if h > vh-2*viewportMargin {
		y = viewportMargin
	} else {
		if overflow := (y + h) - (vh - viewportMargin); overflow > 0 {
			y -= overflow
		}
		if y < viewportMargin {
			y = viewportMargin
		}
	}

	d.SetBounds(x, y, w, h)
	d.surface.RequestFrame()
}

// ContentResized is the panel's resize-observer hook: panels call it when
// asynchronous data changes their height after initial layout.
func (d *Detail) ContentResized() {
	if d.State() == Hidden {
		return
	}
	d.measure()
	d.Reposition()
}

// WindowResized schedules a debounced reposition after the terminal resizes.
func (d *Detail) WindowResized() {
	d.mu.Lock()
	if d.resizeTimer != nil {
		d.resizeTimer.Stop()
	}
	d.resizeTimer = time.AfterFunc(d.ResizeDebounce, func() {
		d.mu.Lock()
		d.resizeTimer = nil
		d.mu.Unlock()
		if d.State() != Hidden {
			d.measure()
			d.Reposition()
		}
	})
	d.mu.Unlock()
}

// Scrolled repositions immediately so the popup follows the anchor point
// through page scrolls.
func (d *Detail) Scrolled() {
	if d.State() != Hidden {
		d.Reposition()
	}
}

// HandleKey forwards control keys to the hosted panel.
func (d *Detail) HandleKey(k input.Key) bool {
	if d.State() == Hidden {
		return false
	}
	d.mu.Lock()
	panel := d.panel
	d.mu.Unlock()
	if panel == nil {
		return false
	}
	return panel.HandleKey(k)
}

// HandlePointer dismisses on outside clicks and forwards inside events to
// the panel. Returns true if consumed.
func (d *Detail) HandlePointer(p input.Pointer) bool {
	if d.State() == Hidden {
		return false
	}

	if d.Contains(p.X, p.Y) {
		x, y, _, _ := d.Bounds()
		d.mu.Lock()
		panel := d.panel
		d.mu.Unlock()
		if panel != nil {
			panel.HandlePointer(p, x+1, y+1)
		}
		return true
	}

	return d.HandleOutsideClick(p)
}

func (d *Detail) destroyPanel() {
	d.mu.Lock()
	panel := d.panel
	d.panel = nil
	if d.resizeTimer != nil {
		d.resizeTimer.Stop()
		d.resizeTimer = nil
	}
	d.mu.Unlock()
	if panel != nil {
		panel.Destroy()
	}
}

// Draw renders the popup frame and its panel.
func (d *Detail) Draw(c *render.Canvas) {
	state := d.State()
	if state == Hidden {
		return
	}

	x, y, w, h := d.Bounds()
	style := render.Style{}
	if state == Hiding || state == Showing {
		style.Dim = true
	}

	c.FillRect(x, y, w, h, ' ', style)

	d.mu.Lock()
	panel := d.panel
	d.mu.Unlock()

	title := ""
	if panel != nil {
		title = panel.Title()
	}
	c.DrawBoxWithTitle(x, y, w, h, title, render.RoundedBox, style, render.Style{Bold: true})

	if panel != nil && w > 2 && h > 2 {
		panel.Draw(c, x+1, y+1, w-2, h-2)
	}
}
