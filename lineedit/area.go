package lineedit

import "strings"

// Area is a multi-line text area with row/column cursor tracking, used for
// definition, example, and comment fields.
type Area struct {
	lines [][]rune
	row   int
	col   int
}

// NewArea creates a new empty Area.
func NewArea() *Area {
	return &Area{lines: [][]rune{nil}}
}

// Text returns the current text with lines joined by newlines.
func (a *Area) Text() string {
	parts := make([]string, len(a.lines))
	for i, l := range a.lines {
		parts[i] = string(l)
	}
	return strings.Join(parts, "\n")
}

// Set replaces the text and moves the cursor to the end.
func (a *Area) Set(text string) {
	split := strings.Split(text, "\n")
	a.lines = make([][]rune, len(split))
	for i, l := range split {
		a.lines[i] = []rune(l)
	}
	a.row = len(a.lines) - 1
	a.col = len(a.lines[a.row])
}

// Clear resets the area to a single empty line.
func (a *Area) Clear() {
	a.lines = [][]rune{nil}
	a.row = 0
	a.col = 0
}

// Empty reports whether the area contains only whitespace.
func (a *Area) Empty() bool {
	return strings.TrimSpace(a.Text()) == ""
}

// Cursor returns the cursor position as (row, col) in runes.
func (a *Area) Cursor() (row, col int) {
	return a.row, a.col
}

// Lines returns the text split into lines.
func (a *Area) Lines() []string {
	parts := make([]string, len(a.lines))
	for i, l := range a.lines {
		parts[i] = string(l)
	}
	return parts
}

// LineCount returns the number of lines.
func (a *Area) LineCount() int {
	return len(a.lines)
}

// InsertRune adds a character at the cursor and leaves the cursor after it.
func (a *Area) InsertRune(r rune) {
	line := a.lines[a.row]
	line = append(line, 0)
	copy(line[a.col+1:], line[a.col:])
	line[a.col] = r
	a.lines[a.row] = line
	a.col++
}

// InsertString adds a string at the cursor, honouring embedded newlines.
func (a *Area) InsertString(s string) {
	for _, r := range s {
		if r == '\n' {
			a.Newline()
		} else {
			a.InsertRune(r)
		}
	}
}

// Newline splits the current line at the cursor.
func (a *Area) Newline() {
	line := a.lines[a.row]
	rest := make([]rune, len(line[a.col:]))
	copy(rest, line[a.col:])
	a.lines[a.row] = line[:a.col]

	a.lines = append(a.lines, nil)
	copy(a.lines[a.row+2:], a.lines[a.row+1:])
	a.lines[a.row+1] = rest

	a.row++
	a.col = 0
}

// DeleteBackward removes the character before the cursor, joining lines when
// at the start of a line. Returns true if anything was deleted.
func (a *Area) DeleteBackward() bool {
	if a.col > 0 {
		line := a.lines[a.row]
		a.lines[a.row] = append(line[:a.col-1], line[a.col:]...)
		a.col--
		return true
	}
	if a.row == 0 {
		return false
	}
	prev := a.lines[a.row-1]
	a.col = len(prev)
	a.lines[a.row-1] = append(prev, a.lines[a.row]...)
	a.lines = append(a.lines[:a.row], a.lines[a.row+1:]...)
	a.row--
	return true
}

// Left moves the cursor one position left, wrapping to the previous line.
func (a *Area) Left() bool {
	if a.col > 0 {
		a.col--
		return true
	}
	if a.row == 0 {
		return false
	}
	a.row--
	a.col = len(a.lines[a.row])
	return true
}

// Right moves the cursor one position right, wrapping to the next line.
func (a *Area) Right() bool {
	if a.col < len(a.lines[a.row]) {
		a.col++
		return true
	}
	if a.row >= len(a.lines)-1 {
		return false
	}
	a.row++
	a.col = 0
	return true
}

// Up moves the cursor one line up, clamping the column.
func (a *Area) Up() bool {
	if a.row == 0 {
		return false
	}
	a.row--
	if a.col > len(a.lines[a.row]) {
		a.col = len(a.lines[a.row])
	}
	return true
}

// Down moves the cursor one line down, clamping the column.
func (a *Area) Down() bool {
	if a.row >= len(a.lines)-1 {
		return false
	}
	a.row++
	if a.col > len(a.lines[a.row]) {
		a.col = len(a.lines[a.row])
	}
	return true
}

// Home moves the cursor to the start of the current line.
func (a *Area) Home() {
	a.col = 0
}

// End moves the cursor to the end of the current line.
func (a *Area) End() {
	a.col = len(a.lines[a.row])
}
