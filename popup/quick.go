package popup

import (
	"sync"
	"time"

	"gloss/input"
	"gloss/render"
	"gloss/selection"
)

// Action identifies a quick-action workflow.
type Action int

const (
	ActionLearn Action = iota
	ActionNote
	ActionChat
)

func (a Action) String() string {
	switch a {
	case ActionLearn:
		return "learn"
	case ActionNote:
		return "note"
	case ActionChat:
		return "chat"
	default:
		return "unknown"
	}
}

var quickButtons = []struct {
	label  string
	action Action
}{
	{"📖 Learn", ActionLearn},
	{"📝 Note", ActionNote},
	{"💬 Ask", ActionChat},
}

// Quick is the three-button popup shown immediately after a selection is
// finalized.
type Quick struct {
	*Base

	mu        sync.Mutex
	savedText string
	suppress  time.Time
	regions   []hitRegion

	// SuppressWindow blocks reopening for a short period after an action is
	// picked, so selection events fired by the click cannot pop it back up.
	SuppressWindow time.Duration

	// OnAction receives the picked action and the saved selection text.
	OnAction func(action Action, savedText string)
}

type hitRegion struct {
	x, y, w int
	action  Action
}

// NewQuick creates the quick-action popup on the given surface.
func NewQuick(surface Surface) *Quick {
	q := &Quick{
		Base:           NewBase(surface),
		SuppressWindow: 350 * time.Millisecond,
	}
	q.AutoHideDelay = 3 * time.Second
	return q
}

// ShowAt shows the popup under the selection rect. Calls inside the
// suppress-reopen window are ignored.
func (q *Quick) ShowAt(rect selection.Rect, savedText string) bool {
	q.mu.Lock()
	if time.Now().Before(q.suppress) {
		q.mu.Unlock()
		return false
	}
	q.savedText = savedText
	q.mu.Unlock()

	if !q.Show() {
		return false
	}

	w := q.contentWidth() + 4
	h := 3
	vw, vh := q.surfaceSize()
	x := rect.Left + rect.Width/2 - w/2
	y := rect.Bottom + 1
	if x < 0 {
		x = 0
	}
	if x+w > vw {
		x = vw - w
	}
	if y+h > vh {
		y = rect.Top - h
		if y < 0 {
			y = 0
		}
	}
	q.SetBounds(x, y, w, h)
	return true
}

func (q *Quick) surfaceSize() (int, int) {
	return q.Base.surface.Size()
}

func (q *Quick) contentWidth() int {
	w := 0
	for i, b := range quickButtons {
		if i > 0 {
			w += 2
		}
		w += render.StringWidth(b.label)
	}
	return w
}

// HandlePointer processes a pointer event. A click on an action button hides
// the popup immediately (no exit animation), opens the suppress window, and
// fires the action callback with the saved text. Returns true if consumed.
func (q *Quick) HandlePointer(p input.Pointer) bool {
	if q.State() == Hidden {
		return false
	}

	if p.Kind == input.PointerDown && q.Contains(p.X, p.Y) {
		q.mu.Lock()
		var hit *hitRegion
		for i := range q.regions {
			r := &q.regions[i]
			if p.Y == r.y && p.X >= r.x && p.X < r.x+r.w {
				hit = r
				break
			}
		}
		savedText := q.savedText
		q.mu.Unlock()

		if hit != nil {
			q.mu.Lock()
			q.suppress = time.Now().Add(q.SuppressWindow)
			q.mu.Unlock()
			q.HideImmediate()
			if q.OnAction != nil {
				q.OnAction(hit.action, savedText)
			}
		}
		return true
	}

	return q.HandleOutsideClick(p)
}

// Draw renders the popup onto the canvas.
func (q *Quick) Draw(c *render.Canvas) {
	state := q.State()
	if state == Hidden {
		return
	}

	x, y, w, h := q.Bounds()
	style := render.Style{}
	if state == Hiding || state == Showing {
		style.Dim = true
	}

	c.FillRect(x, y, w, h, ' ', style)
	c.DrawBox(x, y, w, h, render.RoundedBox, style)

	q.mu.Lock()
	q.regions = q.regions[:0]
	bx := x + 2
	for _, b := range quickButtons {
		lw := render.StringWidth(b.label)
		q.regions = append(q.regions, hitRegion{x: bx, y: y + 1, w: lw, action: b.action})
		bx += lw + 2
	}
	regions := make([]hitRegion, len(q.regions))
	copy(regions, q.regions)
	q.mu.Unlock()

	for i, b := range quickButtons {
		bs := style
		bs.Bold = true
		c.WriteString(regions[i].x, regions[i].y, b.label, bs)
	}
}
