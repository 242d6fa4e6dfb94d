package learn

import (
	"fmt"
	"strings"
	"sync"

	"gloss/input"
	"gloss/lineedit"
	"gloss/render"
)

// Deps carries the panel's collaborators. Everything network-facing sits
// behind an interface so tests can substitute fakes.
type Deps struct {
	Detector   Detector
	Dictionary Dictionary
	Translator Translator
	Player     AudioPlayer

	// Registry receives the panel's editable fields so printable keys are
	// routed to whichever field holds focus.
	Registry *input.Registry

	// NotifyResize is called whenever async results change the panel's
	// natural size, so the host can re-measure and reposition.
	NotifyResize func()

	// RequestFrame asks the host for a redraw.
	RequestFrame func()

	// ReducedMotion disables the scroll animation when expanding meanings.
	ReducedMotion bool
}

// meaningEditors holds the editable fields for one expanded meaning. Keyed
// by meaning pointer rather than index so translate-result front insertion
// does not orphan them.
type meaningEditors struct {
	titleID string
	defID   string
	title   *lineedit.Editor
	def     *lineedit.Area
}

type hitKind int

const (
	hitNone hitKind = iota
	hitTab
	hitMeaning
	hitMark
	hitAudio
	hitAddCustom
	hitTitleField
	hitDefField
)

// hitRegion is a clickable span recorded during Draw, in absolute canvas
// coordinates.
type hitRegion struct {
	kind hitKind
	x, y int
	w    int
	pos  string
	idx  int
}

// MarkedMeaning pairs a marked meaning with its part of speech for the
// save flow.
type MarkedMeaning struct {
	PartOfSpeech string
	Title        string
	Definition   string
}

// Panel is the learn surface: detection, dictionary/translate results,
// expandable meanings with mark toggles and custom definitions.
type Panel struct {
	mu sync.Mutex

	detector   Detector
	dictionary Dictionary
	translator Translator
	player     AudioPlayer

	registry      *input.Registry
	notifyResize  func()
	requestFrame  func()
	reducedMotion bool

	text, source, target string
	status               Status
	data                 *Entry
	activeTab            string
	msg                  Message
	cache                map[string]cachedLookup
	gen                  int
	destroyed            bool

	editors    map[*Meaning]*meaningEditors
	editorSeq  int
	scrollTop  int
	scrollGoal int
	lastW      int
	lastBodyH  int
	regions    []hitRegion
	spinner    int
}

// NewPanel builds a learn panel with an empty cache. The cache lives for
// the panel's lifetime and is never evicted.
func NewPanel(deps Deps) *Panel {
	return &Panel{
		detector:      deps.Detector,
		dictionary:    deps.Dictionary,
		translator:    deps.Translator,
		player:        deps.Player,
		registry:      deps.Registry,
		notifyResize:  deps.NotifyResize,
		requestFrame:  deps.RequestFrame,
		reducedMotion: deps.ReducedMotion,
		data:          NewEntry(),
		cache:         make(map[string]cachedLookup),
		editors:       make(map[*Meaning]*meaningEditors),
	}
}

func (p *Panel) resetViewLocked() {
	p.scrollTop = 0
	p.scrollGoal = 0
	for _, ed := range p.editors {
		p.unregisterLocked(ed)
	}
	p.editors = make(map[*Meaning]*meaningEditors)
}

func (p *Panel) contentChanged() {
	if p.notifyResize != nil {
		p.notifyResize()
	}
	if p.requestFrame != nil {
		p.requestFrame()
	}
}

// Status reports the current fetch status.
func (p *Panel) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Msg reports the inline message slot.
func (p *Panel) Msg() Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.msg
}

// ActiveTab reports the selected part-of-speech tab.
func (p *Panel) ActiveTab() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeTab
}

// Snapshot returns a deep clone of the displayed entry.
func (p *Panel) Snapshot() *Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.Clone()
}

// SetActiveTab switches the visible part-of-speech tab and resets scroll.
func (p *Panel) SetActiveTab(pos string) {
	p.mu.Lock()
	if _, ok := p.data.Meanings[pos]; ok {
		p.activeTab = pos
		p.scrollTop = 0
		p.scrollGoal = 0
	}
	p.mu.Unlock()
	p.contentChanged()
}

// ToggleMark flips the marked state of a meaning on the given tab.
func (p *Panel) ToggleMark(pos string, idx int) {
	p.mu.Lock()
	list := p.data.Meanings[pos]
	if idx >= 0 && idx < len(list) {
		list[idx].Marked = !list[idx].Marked
	}
	p.mu.Unlock()
	if p.requestFrame != nil {
		p.requestFrame()
	}
}

// ToggleExpanded flips a meaning open or closed. Expanding pulls any
// overflowing part of the meaning back into view by the minimum scroll
// delta; collapsing never scrolls.
func (p *Panel) ToggleExpanded(pos string, idx int, viewHeight int) {
	p.mu.Lock()
	list := p.data.Meanings[pos]
	if idx < 0 || idx >= len(list) {
		p.mu.Unlock()
		return
	}
	m := list[idx]
	m.Expanded = !m.Expanded
	if m.Expanded {
		p.ensureEditorsLocked(m)
		if p.lastW > 0 && viewHeight > 0 {
			top, bottom := p.meaningSpanLocked(pos, idx, p.lastW)
			delta := minimalScrollDelta(top, bottom, p.scrollGoal, viewHeight)
			p.scrollGoal += delta
			if p.reducedMotion {
				p.scrollTop = p.scrollGoal
			}
		}
	} else {
		if ed, ok := p.editors[m]; ok {
			m.CustomTitle = ed.title.Text()
			m.Definition = ed.def.Text()
		}
	}
	p.mu.Unlock()
	p.contentChanged()
}

// AddCustomMeaning appends an empty, pre-expanded meaning to the active tab
// and focuses its definition field. Returns the new meaning's index.
func (p *Panel) AddCustomMeaning() int {
	p.mu.Lock()
	pos := p.activeTab
	if pos == "" {
		pos = "noun"
		if _, ok := p.data.Meanings[pos]; !ok {
			p.data.PartsOfSpeech = append(p.data.PartsOfSpeech, pos)
			p.data.Meanings[pos] = nil
		}
		p.activeTab = pos
	}
	m := &Meaning{Expanded: true}
	p.data.Meanings[pos] = append(p.data.Meanings[pos], m)
	idx := len(p.data.Meanings[pos]) - 1
	ed := p.ensureEditorsLocked(m)
	p.mu.Unlock()

	if p.registry != nil {
		p.registry.Focus(ed.defID)
	}
	p.contentChanged()
	return idx
}

// PlayAudio plays the entry's pronunciation, if any. Player failures land
// in the inline message slot rather than escaping.
func (p *Panel) PlayAudio() {
	p.mu.Lock()
	ph := p.data.Phonetic
	gen := p.gen
	p.mu.Unlock()
	if ph == nil || ph.AudioURL == "" || p.player == nil {
		return
	}
	go func() {
		if err := p.player.Play(ph.AudioURL); err != nil {
			p.mu.Lock()
			if gen == p.gen && !p.destroyed {
				p.msg = Message{Kind: MessageError, Text: "audio playback failed"}
			}
			p.mu.Unlock()
			if p.requestFrame != nil {
				p.requestFrame()
			}
		}
	}()
}

// MarkedMeanings collects every marked meaning across all tabs, syncing
// editor text first so in-progress edits are included.
func (p *Panel) MarkedMeanings() []MarkedMeaning {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.syncEditorsLocked()
	var out []MarkedMeaning
	for _, pos := range p.data.PartsOfSpeech {
		for _, m := range p.data.Meanings[pos] {
			if m.Marked {
				out = append(out, MarkedMeaning{
					PartOfSpeech: pos,
					Title:        m.Title(),
					Definition:   m.Definition,
				})
			}
		}
	}
	return out
}

func (p *Panel) syncEditorsLocked() {
	for m, ed := range p.editors {
		m.CustomTitle = ed.title.Text()
		m.Definition = ed.def.Text()
	}
}

func (p *Panel) ensureEditorsLocked(m *Meaning) *meaningEditors {
	if ed, ok := p.editors[m]; ok {
		return ed
	}
	p.editorSeq++
	ed := &meaningEditors{
		titleID: fmt.Sprintf("learn.title.%d", p.editorSeq),
		defID:   fmt.Sprintf("learn.def.%d", p.editorSeq),
		title:   lineedit.New(),
		def:     lineedit.NewArea(),
	}
	ed.title.Set(m.CustomTitle)
	ed.def.Set(m.Definition)
	if p.registry != nil {
		p.registry.Register(ed.titleID, ed.title)
		p.registry.Register(ed.defID, ed.def)
	}
	p.editors[m] = ed
	return ed
}

func (p *Panel) unregisterLocked(ed *meaningEditors) {
	if p.registry == nil {
		return
	}
	if f, _, ok := p.registry.Focused(); ok && (f == ed.titleID || f == ed.defID) {
		p.registry.Blur()
	}
	p.registry.Unregister(ed.titleID)
	p.registry.Unregister(ed.defID)
}

// minimalScrollDelta returns the smallest scroll adjustment that brings the
// span [top, bottom) back within [scrollTop, scrollTop+height). Zero when
// already visible; never overshoots past the span's top edge.
func minimalScrollDelta(top, bottom, scrollTop, height int) int {
	if top < scrollTop {
		return top - scrollTop
	}
	if bottom > scrollTop+height {
		d := bottom - (scrollTop + height)
		if max := top - scrollTop; d > max {
			d = max
		}
		return d
	}
	return 0
}

// Title implements the host popup's panel contract.
func (p *Panel) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.text == "" {
		return "Learn"
	}
	return "Learn: " + render.Truncate(p.text, 24)
}

// PreferredSize reports the panel's natural content size, bounded by the
// host's maximums.
func (p *Panel) PreferredSize(maxW, maxH int) (int, int) {
	w := 52
	if w > maxW {
		w = maxW
	}
	p.mu.Lock()
	h := p.contentHeightLocked(w)
	p.mu.Unlock()
	if h < 4 {
		h = 4
	}
	if h > maxH {
		h = maxH
	}
	return w, h
}

func (p *Panel) contentHeightLocked(w int) int {
	h := 1 // header line
	if p.msg.Kind != MessageNone {
		h++
	}
	switch p.status {
	case StatusDetecting, StatusFetching, StatusFailed, StatusSkipped:
		return h + 1
	}
	if len(p.data.PartsOfSpeech) > 1 {
		h++ // tab bar
	}
	for _, m := range p.data.Meanings[p.activeTab] {
		h += p.meaningHeightLocked(m, w)
	}
	h++ // add-custom line
	if len(p.data.Synonyms) > 0 {
		h += len(render.WrapText("syn: "+strings.Join(p.data.Synonyms, ", "), w))
	}
	if len(p.data.Antonyms) > 0 {
		h += len(render.WrapText("ant: "+strings.Join(p.data.Antonyms, ", "), w))
	}
	return h
}

// meaningSpanLocked returns the [top, bottom) row range of a meaning within
// the meanings list, in content rows relative to the list start.
func (p *Panel) meaningSpanLocked(pos string, idx int, w int) (int, int) {
	row := 0
	for i, m := range p.data.Meanings[pos] {
		mh := p.meaningHeightLocked(m, w)
		if i == idx {
			return row, row + mh
		}
		row += mh
	}
	return row, row
}

func (p *Panel) meaningHeightLocked(m *Meaning, w int) int {
	if !m.Expanded {
		return 1
	}
	h := 2 // title row plus custom-title field
	if ed, ok := p.editors[m]; ok {
		h += ed.def.LineCount()
	} else {
		h += len(render.WrapText(m.Definition, w-4))
	}
	if m.Example != "" {
		h += len(render.WrapText("e.g. "+m.Example, w-4))
	}
	return h
}

var spinnerFrames = []rune{'|', '/', '-', '\\'}

// Draw renders the panel content into the given region. Hit regions for
// pointer dispatch are rebuilt on every draw.
func (p *Panel) Draw(c *render.Canvas, x, y, w, h int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastW = w
	p.regions = p.regions[:0]
	p.animateScrollLocked()

	row := y

	// Header: the looked-up text, phonetic, audio affordance.
	head := render.Truncate(p.text, w-10)
	c.WriteString(x, row, head, render.Style{Bold: true})
	if p.data.Phonetic != nil {
		px := x + render.StringWidth(head) + 1
		c.WriteString(px, row, p.data.Phonetic.Text, render.Style{Dim: true})
		if p.data.Phonetic.AudioURL != "" {
			ax := px + render.StringWidth(p.data.Phonetic.Text) + 1
			c.WriteString(ax, row, "[♪]", render.Style{})
			p.regions = append(p.regions, hitRegion{kind: hitAudio, x: ax, y: row, w: 3})
		}
	}
	row++

	if p.msg.Kind != MessageNone {
		style := render.Style{Dim: true}
		if p.msg.Kind == MessageError {
			style = render.Style{Bold: true}
		}
		c.WriteString(x, row, render.Truncate(p.msg.Text, w), style)
		row++
	}

	switch p.status {
	case StatusDetecting, StatusFetching:
		p.spinner = (p.spinner + 1) % len(spinnerFrames)
		label := "looking up"
		if p.status == StatusDetecting {
			label = "detecting language"
		}
		c.WriteString(x, row, string(spinnerFrames[p.spinner])+" "+label, render.Style{Dim: true})
		if p.requestFrame != nil {
			p.requestFrame()
		}
		return
	case StatusFailed, StatusSkipped:
		return
	}

	// Tab bar.
	if len(p.data.PartsOfSpeech) > 1 {
		tx := x
		for _, pos := range p.data.PartsOfSpeech {
			label := " " + pos + " "
			style := render.Style{Dim: true}
			if pos == p.activeTab {
				style = render.Style{Reverse: true}
			}
			c.WriteString(tx, row, label, style)
			p.regions = append(p.regions, hitRegion{
				kind: hitTab, x: tx, y: row, w: render.StringWidth(label), pos: pos,
			})
			tx += render.StringWidth(label) + 1
		}
		row++
	}

	// Meanings list, scrolled, with the add-custom affordance pinned to the
	// final row.
	bodyH := h - (row - y) - 1
	if bodyH < 1 {
		bodyH = 1
	}
	p.lastBodyH = bodyH
	p.drawMeaningsLocked(c, x, row, w, bodyH)

	footer := "[+ custom definition]"
	fy := y + h - 1
	c.WriteString(x, fy, footer, render.Style{Underline: true})
	p.regions = append(p.regions, hitRegion{
		kind: hitAddCustom, x: x, y: fy, w: render.StringWidth(footer),
	})
}

func (p *Panel) animateScrollLocked() {
	if p.scrollTop == p.scrollGoal {
		return
	}
	const step = 3
	d := p.scrollGoal - p.scrollTop
	if d > step {
		d = step
	} else if d < -step {
		d = -step
	}
	p.scrollTop += d
	if p.scrollTop != p.scrollGoal && p.requestFrame != nil {
		p.requestFrame()
	}
}

func (p *Panel) drawMeaningsLocked(c *render.Canvas, x, y, w, h int) {
	row := -p.scrollTop
	visible := func() bool { return row >= 0 && row < h }

	for i, m := range p.data.Meanings[p.activeTab] {
		if visible() {
			mark := "[ ]"
			if m.Marked {
				mark = "[x]"
			}
			arrow := "▸"
			if m.Expanded {
				arrow = "▾"
			}
			line := fmt.Sprintf("%s %s %s", mark, arrow, m.Title())
			c.WriteString(x, y+row, render.Truncate(line, w), render.Style{})
			p.regions = append(p.regions,
				hitRegion{kind: hitMark, x: x, y: y + row, w: 3, pos: p.activeTab, idx: i},
				hitRegion{kind: hitMeaning, x: x + 4, y: y + row, w: w - 4, pos: p.activeTab, idx: i},
			)
		}
		row++

		if !m.Expanded {
			continue
		}
		ed := p.editors[m]

		if visible() {
			titleText := m.CustomTitle
			if ed != nil {
				titleText = ed.title.Text()
			}
			c.WriteString(x+4, y+row, render.Truncate("title: "+titleText, w-4), render.Style{Underline: true})
			p.regions = append(p.regions, hitRegion{
				kind: hitTitleField, x: x + 4, y: y + row, w: w - 4, pos: p.activeTab, idx: i,
			})
		}
		row++

		if ed != nil {
			for _, ln := range ed.def.Lines() {
				if visible() {
					c.WriteString(x+4, y+row, render.TruncateToWidth(ln, w-4), render.Style{})
					p.regions = append(p.regions, hitRegion{
						kind: hitDefField, x: x + 4, y: y + row, w: w - 4, pos: p.activeTab, idx: i,
					})
				}
				row++
			}
		} else {
			for _, ln := range render.WrapText(m.Definition, w-4) {
				if visible() {
					c.WriteString(x+4, y+row, ln, render.Style{})
				}
				row++
			}
		}

		if m.Example != "" {
			for _, ln := range render.WrapText("e.g. "+m.Example, w-4) {
				if visible() {
					c.WriteString(x+4, y+row, ln, render.Style{Dim: true})
				}
				row++
			}
		}
	}
}

// HandleKey handles panel-level keys. Printable characters destined for a
// focused field never arrive here; control and navigation keys do.
func (p *Panel) HandleKey(k input.Key) bool {
	if p.registry != nil {
		if _, _, ok := p.registry.Focused(); ok {
			return p.routeToFocusedField(k)
		}
	}
	switch k.Special {
	case input.SpecUp:
		p.mu.Lock()
		if p.scrollGoal > 0 {
			p.scrollGoal--
			p.scrollTop = p.scrollGoal
		}
		p.mu.Unlock()
	case input.SpecDown:
		p.mu.Lock()
		p.scrollGoal++
		p.scrollTop = p.scrollGoal
		p.mu.Unlock()
	default:
		return false
	}
	if p.requestFrame != nil {
		p.requestFrame()
	}
	return true
}

func (p *Panel) routeToFocusedField(k input.Key) bool {
	p.mu.Lock()
	focused, _, _ := p.registry.Focused()
	var ed *meaningEditors
	var owner *Meaning
	for m, e := range p.editors {
		if e.titleID == focused || e.defID == focused {
			ed, owner = e, m
			break
		}
	}
	p.mu.Unlock()
	if ed == nil {
		return false
	}

	if k.Special == input.SpecEscape {
		p.mu.Lock()
		owner.CustomTitle = ed.title.Text()
		owner.Definition = ed.def.Text()
		p.mu.Unlock()
		p.registry.Blur()
		if p.requestFrame != nil {
			p.requestFrame()
		}
		return true
	}

	handled := true
	if focused == ed.titleID {
		switch k.Special {
		case input.SpecBackspace:
			ed.title.DeleteBackward()
		case input.SpecDelete:
			ed.title.DeleteForward()
		case input.SpecLeft:
			ed.title.Left()
		case input.SpecRight:
			ed.title.Right()
		case input.SpecHome:
			ed.title.Home()
		case input.SpecEnd:
			ed.title.End()
		case input.SpecEnter, input.SpecTab:
			p.registry.Focus(ed.defID)
		default:
			handled = false
		}
	} else {
		switch k.Special {
		case input.SpecBackspace:
			ed.def.DeleteBackward()
		case input.SpecEnter:
			ed.def.Newline()
		case input.SpecLeft:
			ed.def.Left()
		case input.SpecRight:
			ed.def.Right()
		case input.SpecUp:
			ed.def.Up()
		case input.SpecDown:
			ed.def.Down()
		case input.SpecHome:
			ed.def.Home()
		case input.SpecEnd:
			ed.def.End()
		default:
			handled = false
		}
	}
	if handled {
		p.contentChanged()
	}
	return handled
}

// HandlePointer dispatches clicks against the regions recorded by the last
// Draw. Coordinates are canvas-absolute.
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
	viewH := p.lastBodyH
	p.mu.Unlock()

	switch hit.kind {
	case hitTab:
		p.SetActiveTab(hit.pos)
	case hitMark:
		p.ToggleMark(hit.pos, hit.idx)
	case hitMeaning:
		p.ToggleExpanded(hit.pos, hit.idx, viewH)
	case hitAudio:
		p.PlayAudio()
	case hitAddCustom:
		p.AddCustomMeaning()
	case hitTitleField:
		p.focusField(hit.pos, hit.idx, true)
	case hitDefField:
		p.focusField(hit.pos, hit.idx, false)
	default:
		return false
	}
	return true
}

func (p *Panel) focusField(pos string, idx int, title bool) {
	p.mu.Lock()
	list := p.data.Meanings[pos]
	if idx < 0 || idx >= len(list) {
		p.mu.Unlock()
		return
	}
	ed := p.ensureEditorsLocked(list[idx])
	p.mu.Unlock()
	if p.registry == nil {
		return
	}
	if title {
		p.registry.Focus(ed.titleID)
	} else {
		p.registry.Focus(ed.defID)
	}
	if p.requestFrame != nil {
		p.requestFrame()
	}
}

// Destroy tears down field registrations and invalidates in-flight fetches.
func (p *Panel) Destroy() {
	p.mu.Lock()
	p.destroyed = true
	p.gen++
	p.syncEditorsLocked()
	for _, ed := range p.editors {
		p.unregisterLocked(ed)
	}
	p.editors = make(map[*Meaning]*meaningEditors)
	p.mu.Unlock()
}
