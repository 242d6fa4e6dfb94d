// Package note implements the note panel: tag entry with chip-style
// editing and an optional comment, feeding the save flow.
package note

import (
	"strings"
	"sync"

	"gloss/input"
	"gloss/lineedit"
	"gloss/render"
)

// DefaultMaxTags bounds how many tags one record can carry.
const DefaultMaxTags = 10

type hitKind int

const (
	hitNone hitKind = iota
	hitTag
	hitTagField
	hitCommentButton
	hitCommentField
	hitSave
)

type hitRegion struct {
	kind hitKind
	x, y int
	w    int
	idx  int
}

// Deps carries the note panel's collaborators.
type Deps struct {
	Registry     *input.Registry
	NotifyResize func()
	RequestFrame func()

	// OnSave receives the committed tags and comment. The host decides
	// what to do with them and when to dismiss the popup.
	OnSave func(tags []string, comment string)

	// MaxTags overrides DefaultMaxTags when positive.
	MaxTags int
}

// Panel is the note surface: an ordered, de-duplicated tag list with
// chip renaming, plus a comment area that stays collapsed until used.
type Panel struct {
	mu sync.Mutex

	registry     *input.Registry
	notifyResize func()
	requestFrame func()
	onSave       func([]string, string)

	text    string
	tags    []string
	maxTags int

	tagField   *lineedit.Editor
	tagFieldID string

	// renaming is the index of the tag being renamed, -1 otherwise. While
	// renaming, the tag field holds the working text and renameBackup the
	// original for Escape-cancel.
	renaming     int
	renameBackup string

	commentOpen bool
	comment     *lineedit.Area
	commentID   string

	msg     string
	regions []hitRegion
}

// NewPanel builds a note panel for the given selected text and registers
// its fields. The tag field starts focused.
func NewPanel(text string, deps Deps) *Panel {
	max := deps.MaxTags
	if max <= 0 {
		max = DefaultMaxTags
	}
	p := &Panel{
		registry:     deps.Registry,
		notifyResize: deps.NotifyResize,
		requestFrame: deps.RequestFrame,
		onSave:       deps.OnSave,
		text:         text,
		maxTags:      max,
		tagField:     lineedit.New(),
		tagFieldID:   "note.tags",
		renaming:     -1,
		comment:      lineedit.NewArea(),
		commentID:    "note.comment",
	}
	if p.registry != nil {
		p.registry.Register(p.tagFieldID, p.tagField)
		p.registry.Register(p.commentID, p.comment)
		p.registry.Focus(p.tagFieldID)
	}
	return p
}

// Tags returns a copy of the committed tags.
func (p *Panel) Tags() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.tags...)
}

// Comment returns the comment text.
func (p *Panel) Comment() string {
	return p.comment.Text()
}

// Msg returns the inline message, if any.
func (p *Panel) Msg() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.msg
}

// AddTag commits a tag: trimmed, non-empty, unique, bounded by the tag
// limit. Returns false with an inline message when rejected.
func (p *Panel) AddTag(s string) bool {
	s = strings.TrimSpace(s)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addTagLocked(s)
}

func (p *Panel) addTagLocked(s string) bool {
	if s == "" {
		return false
	}
	for _, t := range p.tags {
		if t == s {
			p.msg = "tag already added"
			return false
		}
	}
	if len(p.tags) >= p.maxTags {
		p.msg = "tag limit reached"
		return false
	}
	p.tags = append(p.tags, s)
	p.msg = ""
	return true
}

// RemoveLastTag pops the newest tag. Used by Backspace on an empty field.
func (p *Panel) RemoveLastTag() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tags) == 0 {
		return "", false
	}
	last := p.tags[len(p.tags)-1]
	p.tags = p.tags[:len(p.tags)-1]
	return last, true
}

// BeginRename loads a tag into the field for editing. Any text already in
// the field is committed as a tag first so it is not lost.
func (p *Panel) BeginRename(idx int) {
	p.mu.Lock()
	if idx < 0 || idx >= len(p.tags) {
		p.mu.Unlock()
		return
	}
	if pending := strings.TrimSpace(p.tagField.Text()); pending != "" && p.renaming < 0 {
		p.addTagLocked(pending)
	}
	p.renaming = idx
	p.renameBackup = p.tags[idx]
	p.tagField.Set(p.tags[idx])
	p.mu.Unlock()
	if p.registry != nil {
		p.registry.Focus(p.tagFieldID)
	}
	p.changed()
}

// commitRenameLocked applies the field text to the tag under rename.
// Renaming to empty or to a duplicate of another tag restores the original.
func (p *Panel) commitRenameLocked() {
	idx := p.renaming
	p.renaming = -1
	next := strings.TrimSpace(p.tagField.Text())
	p.tagField.Clear()
	if idx < 0 || idx >= len(p.tags) {
		return
	}
	if next == "" {
		p.tags[idx] = p.renameBackup
		return
	}
	for i, t := range p.tags {
		if i != idx && t == next {
			p.tags[idx] = p.renameBackup
			p.msg = "tag already added"
			return
		}
	}
	p.tags[idx] = next
}

func (p *Panel) cancelRenameLocked() {
	if p.renaming >= 0 && p.renaming < len(p.tags) {
		p.tags[p.renaming] = p.renameBackup
	}
	p.renaming = -1
	p.tagField.Clear()
}

// OpenComment expands the comment area and focuses it.
func (p *Panel) OpenComment() {
	p.mu.Lock()
	p.commentOpen = true
	p.mu.Unlock()
	if p.registry != nil {
		p.registry.Focus(p.commentID)
	}
	p.changed()
}

// collapseEmptyComment folds the comment area back behind its button when
// focus leaves it with nothing typed. Any blur counts, not just Escape.
func (p *Panel) collapseEmptyComment() {
	p.mu.Lock()
	if p.comment.Empty() {
		p.commentOpen = false
	}
	p.mu.Unlock()
}

// save hands the current tags and comment to the host. An uncommitted tag
// still sitting in the field is committed first.
func (p *Panel) save() {
	p.mu.Lock()
	if p.renaming >= 0 {
		p.commitRenameLocked()
	} else if pending := strings.TrimSpace(p.tagField.Text()); pending != "" {
		if p.addTagLocked(pending) {
			p.tagField.Clear()
		}
	}
	tags := append([]string(nil), p.tags...)
	comment := p.comment.Text()
	cb := p.onSave
	p.mu.Unlock()
	if cb != nil {
		cb(tags, comment)
	}
}

func (p *Panel) changed() {
	if p.notifyResize != nil {
		p.notifyResize()
	}
	if p.requestFrame != nil {
		p.requestFrame()
	}
}

// Title implements the host popup's panel contract.
func (p *Panel) Title() string {
	return "Note"
}

// PreferredSize reports the panel's natural size given its tag rows and
// comment state.
func (p *Panel) PreferredSize(maxW, maxH int) (int, int) {
	w := 44
	if w > maxW {
		w = maxW
	}
	p.mu.Lock()
	h := 1 // selected-text line
	h += len(p.tagRowsLocked(w))
	h++ // input field
	if p.msg != "" {
		h++
	}
	if p.commentOpen || !p.comment.Empty() {
		n := p.comment.LineCount()
		if n < 3 {
			n = 3
		}
		h += n + 1 // comment label plus body
	} else {
		h++ // add-comment button
	}
	h++ // save hint
	p.mu.Unlock()
	if h > maxH {
		h = maxH
	}
	return w, h
}

// tagRowsLocked lays committed tags out as chip rows within the width.
func (p *Panel) tagRowsLocked(w int) [][]string {
	var rows [][]string
	var row []string
	used := 0
	for _, t := range p.tags {
		cw := render.StringWidth(t) + 2 // brackets
		if used+cw+1 > w && len(row) > 0 {
			rows = append(rows, row)
			row, used = nil, 0
		}
		row = append(row, t)
		used += cw + 1
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

// Draw renders the tag chips, input field, comment section, and save hint.
func (p *Panel) Draw(c *render.Canvas, x, y, w, h int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.regions = p.regions[:0]
	row := y

	c.WriteString(x, row, render.Truncate(p.text, w), render.Style{Dim: true})
	row++

	for _, chips := range p.tagRowsLocked(w) {
		cx := x
		for _, t := range chips {
			idx := p.tagIndexLocked(t)
			label := "[" + t + "]"
			style := render.Style{Reverse: true}
			if idx == p.renaming {
				style = render.Style{Underline: true}
			}
			c.WriteString(cx, row, label, style)
			p.regions = append(p.regions, hitRegion{
				kind: hitTag, x: cx, y: row, w: render.StringWidth(label), idx: idx,
			})
			cx += render.StringWidth(label) + 1
		}
		row++
	}

	prompt := "tag: " + p.tagField.Text()
	if p.renaming >= 0 {
		prompt = "rename: " + p.tagField.Text()
	}
	c.WriteString(x, row, render.Truncate(prompt, w), render.Style{})
	p.regions = append(p.regions, hitRegion{kind: hitTagField, x: x, y: row, w: w})
	row++

	if p.msg != "" {
		c.WriteString(x, row, render.Truncate(p.msg, w), render.Style{Dim: true})
		row++
	}

	if p.commentOpen || !p.comment.Empty() {
		c.WriteString(x, row, "comment:", render.Style{Dim: true})
		row++
		for _, ln := range p.comment.Lines() {
			if row >= y+h-1 {
				break
			}
			c.WriteString(x+2, row, render.TruncateToWidth(ln, w-2), render.Style{})
			p.regions = append(p.regions, hitRegion{kind: hitCommentField, x: x, y: row, w: w})
			row++
		}
	} else {
		label := "[+ add comment]"
		c.WriteString(x, row, label, render.Style{Underline: true})
		p.regions = append(p.regions, hitRegion{
			kind: hitCommentButton, x: x, y: row, w: render.StringWidth(label),
		})
		row++
	}

	hint := "enter adds tag · ctrl+enter saves"
	hy := y + h - 1
	c.WriteString(x, hy, render.Truncate(hint, w), render.Style{Dim: true})
	p.regions = append(p.regions, hitRegion{kind: hitSave, x: x, y: hy, w: render.StringWidth(hint)})
}

func (p *Panel) tagIndexLocked(tag string) int {
	for i, t := range p.tags {
		if t == tag {
			return i
		}
	}
	return -1
}

// HandleKey processes control keys for whichever field is focused.
// Printable characters are routed into the fields before reaching here.
func (p *Panel) HandleKey(k input.Key) bool {
	focused := ""
	if p.registry != nil {
		focused, _, _ = p.registry.Focused()
	}

	if k.Ctrl && k.Special == input.SpecEnter {
		p.save()
		return true
	}

	switch focused {
	case p.tagFieldID:
		return p.handleTagKey(k)
	case p.commentID:
		return p.handleCommentKey(k)
	}

	if k.Special == input.SpecEnter && p.registry != nil {
		p.registry.Focus(p.tagFieldID)
		return true
	}
	return false
}

func (p *Panel) handleTagKey(k input.Key) bool {
	switch k.Special {
	case input.SpecEnter:
		p.mu.Lock()
		if p.renaming >= 0 {
			p.commitRenameLocked()
			p.mu.Unlock()
			if p.registry != nil {
				p.registry.Blur()
			}
			p.changed()
			return true
		}
		text := strings.TrimSpace(p.tagField.Text())
		if text != "" {
			if p.addTagLocked(text) {
				p.tagField.Clear()
			}
			p.mu.Unlock()
			p.changed()
			return true
		}
		hasTags := len(p.tags) > 0
		p.mu.Unlock()
		if hasTags {
			// Enter on an empty field with tags committed is the
			// implicit save.
			p.save()
		}
		return true
	case input.SpecEscape:
		p.mu.Lock()
		wasRenaming := p.renaming >= 0
		if wasRenaming {
			p.cancelRenameLocked()
		}
		p.mu.Unlock()
		if p.registry != nil {
			p.registry.Blur()
		}
		p.changed()
		return true
	case input.SpecBackspace:
		if p.tagField.Len() > 0 {
			p.tagField.DeleteBackward()
		} else {
			p.mu.Lock()
			renaming := p.renaming >= 0
			p.mu.Unlock()
			if !renaming {
				p.RemoveLastTag()
			}
		}
		p.changed()
		return true
	case input.SpecDelete:
		p.tagField.DeleteForward()
		return true
	case input.SpecLeft:
		p.tagField.Left()
		return true
	case input.SpecRight:
		p.tagField.Right()
		return true
	case input.SpecHome:
		p.tagField.Home()
		return true
	case input.SpecEnd:
		p.tagField.End()
		return true
	case input.SpecTab:
		p.OpenComment()
		return true
	}
	return false
}

func (p *Panel) handleCommentKey(k input.Key) bool {
	switch k.Special {
	case input.SpecEnter:
		p.comment.Newline()
	case input.SpecEscape:
		if p.registry != nil {
			p.registry.Blur()
		}
		p.collapseEmptyComment()
	case input.SpecBackspace:
		p.comment.DeleteBackward()
	case input.SpecLeft:
		p.comment.Left()
	case input.SpecRight:
		p.comment.Right()
	case input.SpecUp:
		p.comment.Up()
	case input.SpecDown:
		p.comment.Down()
	case input.SpecHome:
		p.comment.Home()
	case input.SpecEnd:
		p.comment.End()
	default:
		return false
	}
	p.changed()
	return true
}

// HandlePointer dispatches clicks against the regions recorded by the last
// Draw.
func (p *Panel) HandlePointer(pt input.Pointer, originX, originY int) bool {
	if pt.Kind != input.PointerDown {
		return false
	}
	p.mu.Lock()
	hit := hitRegion{kind: hitNone}
	for _, r := range p.regions {
		if pt.Y == r.y && pt.X >= r.x && pt.X < r.x+r.w {
			hit = r
			break
		}
	}
	p.mu.Unlock()

	switch hit.kind {
	case hitTag:
		p.collapseEmptyComment()
		p.BeginRename(hit.idx)
	case hitTagField:
		p.collapseEmptyComment()
		if p.registry != nil {
			p.registry.Focus(p.tagFieldID)
		}
	case hitCommentButton:
		p.OpenComment()
	case hitCommentField:
		if p.registry != nil {
			p.registry.Focus(p.commentID)
		}
	case hitSave:
		p.save()
	default:
		return false
	}
	return true
}

// Destroy releases the panel's field registrations.
func (p *Panel) Destroy() {
	if p.registry == nil {
		return
	}
	if f, _, ok := p.registry.Focused(); ok && (f == p.tagFieldID || f == p.commentID) {
		p.registry.Blur()
	}
	p.registry.Unregister(p.tagFieldID)
	p.registry.Unregister(p.commentID)
}
