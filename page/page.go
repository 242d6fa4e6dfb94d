package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"gloss/render"
	"gloss/selection"
)

const maxContentWidth = 80

// Line is one laid-out row of page content.
type Line struct {
	Text  string
	X     int // left edge on the canvas
	Style render.Style
}

// Page holds a laid-out document plus its scroll position. Coordinates
// follow the canvas: viewport y plus scroll offset gives the document row.
type Page struct {
	doc     *Document
	url     string
	width   int
	margin  int
	lines   []Line
	scrollY int
}

// NewPage lays a document out for the given canvas width.
func NewPage(doc *Document, url string, canvasWidth int) *Page {
	p := &Page{doc: doc, url: url}
	p.Relayout(canvasWidth)
	return p
}

// URL returns the page's source address.
func (p *Page) URL() string { return p.url }

// Title returns the document title.
func (p *Page) Title() string { return p.doc.Title }

// ScrollY returns the current scroll offset in rows.
func (p *Page) ScrollY() int { return p.scrollY }

// Relayout reflows the document for a new canvas width, clamping scroll to
// the new content height.
func (p *Page) Relayout(canvasWidth int) {
	content := canvasWidth - 4
	if content > maxContentWidth {
		content = maxContentWidth
	}
	if content < 10 {
		content = 10
	}
	p.width = content
	p.margin = (canvasWidth - content) / 2
	p.lines = p.layout()
	if max := p.maxScrollFloor(); p.scrollY > max {
		p.scrollY = max
	}
}

func (p *Page) layout() []Line {
	var lines []Line
	add := func(text string, x int, style render.Style) {
		lines = append(lines, Line{Text: text, X: x, Style: style})
	}
	blank := func() {
		lines = append(lines, Line{X: p.margin})
	}

	if p.doc.Title != "" {
		for _, ln := range render.WrapText(p.doc.Title, p.width) {
			add(ln, p.margin, render.Style{Bold: true})
		}
		blank()
	}

	for _, b := range p.doc.Blocks {
		switch b.Kind {
		case BlockHeading1, BlockHeading2:
			for _, ln := range render.WrapText(b.Text, p.width) {
				add(ln, p.margin, render.Style{Bold: true})
			}
			blank()
		case BlockHeading3:
			for _, ln := range render.WrapText(b.Text, p.width) {
				add(ln, p.margin, render.Style{Bold: true, Underline: true})
			}
			blank()
		case BlockParagraph:
			for _, ln := range render.WrapText(b.Text, p.width) {
				add(ln, p.margin, render.Style{})
			}
			blank()
		case BlockListItem:
			for i, ln := range render.WrapText(b.Text, p.width-2) {
				if i == 0 {
					add("• "+ln, p.margin, render.Style{})
				} else {
					add(ln, p.margin+2, render.Style{})
				}
			}
		case BlockQuote:
			for _, ln := range render.WrapText(b.Text, p.width-2) {
				add("│ "+ln, p.margin, render.Style{Dim: true})
			}
			blank()
		case BlockCode:
			for _, ln := range strings.Split(b.Text, "\n") {
				add(render.TruncateToWidth(ln, p.width), p.margin, render.Style{Dim: true})
			}
			blank()
		}
	}
	return lines
}

// ContentHeight returns the total number of laid-out rows.
func (p *Page) ContentHeight() int { return len(p.lines) }

func (p *Page) maxScrollFloor() int {
	if len(p.lines) == 0 {
		return 0
	}
	return len(p.lines) - 1
}

// Scroll moves by delta rows, clamped to the content.
func (p *Page) Scroll(delta, viewportHeight int) {
	p.scrollY += delta
	max := len(p.lines) - viewportHeight
	if max < 0 {
		max = 0
	}
	if p.scrollY > max {
		p.scrollY = max
	}
	if p.scrollY < 0 {
		p.scrollY = 0
	}
}

// Render draws the visible slice of the page.
func (p *Page) Render(c *render.Canvas) {
	c.Clear()
	for row := 0; row < c.Height(); row++ {
		i := row + p.scrollY
		if i < 0 || i >= len(p.lines) {
			continue
		}
		ln := p.lines[i]
		if ln.Text != "" {
			c.WriteString(ln.X, row, ln.Text, ln.Style)
		}
	}
}

// TextBetween extracts the text between two drag endpoints in viewport
// coordinates, along with the selection's bounding rectangle, also in
// viewport coordinates. Returns false when nothing selectable lies between
// them.
func (p *Page) TextBetween(x1, y1, x2, y2 int) (string, selection.Rect, bool) {
	d1, d2 := y1+p.scrollY, y2+p.scrollY
	if d2 < d1 || (d1 == d2 && x2 < x1) {
		d1, d2 = d2, d1
		x1, x2 = x2, x1
	}

	var parts []string
	left, right := -1, -1
	firstRow, lastRow := -1, -1

	for row := d1; row <= d2 && row < len(p.lines); row++ {
		if row < 0 {
			continue
		}
		ln := p.lines[row]
		runes := []rune(ln.Text)
		if len(runes) == 0 {
			if firstRow >= 0 {
				parts = append(parts, "")
			}
			continue
		}

		from, to := 0, len(runes)
		if row == d1 {
			from = clamp(x1-ln.X, 0, len(runes))
		}
		if row == d2 {
			to = clamp(x2-ln.X+1, 0, len(runes))
		}
		if to <= from {
			continue
		}

		parts = append(parts, string(runes[from:to]))
		if firstRow < 0 {
			firstRow = row
		}
		lastRow = row
		if l := ln.X + from; left < 0 || l < left {
			left = l
		}
		if r := ln.X + to; r > right {
			right = r
		}
	}

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" || firstRow < 0 {
		return "", selection.Rect{}, false
	}

	rect := selection.Rect{
		Top:    firstRow - p.scrollY,
		Bottom: lastRow - p.scrollY + 1,
		Left:   left,
		Right:  right,
	}
	rect.Width = rect.Right - rect.Left
	rect.Height = rect.Bottom - rect.Top
	return text, rect, true
}

// ContextAround finds the paragraph containing the selected text, for the
// surrounding-sentence context sent with lookups. Falls back to the
// selection itself when no enclosing paragraph is found.
func (p *Page) ContextAround(sel string) string {
	sel = strings.TrimSpace(sel)
	if sel == "" || p.doc.raw == "" {
		return sel
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.doc.raw))
	if err != nil {
		return sel
	}
	context := sel
	doc.Find("p, li, blockquote").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := collapseSpace(s.Text())
		if strings.Contains(text, sel) {
			context = text
			return false
		}
		return true
	})
	return context
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
