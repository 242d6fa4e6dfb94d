// Package lineedit provides the text editing widgets nested inside popups:
// a single-line editor and a multi-line area, both with cursor tracking.
package lineedit

// Editor is a single-line text editor with cursor tracking.
type Editor struct {
	text   []rune
	cursor int
}

// New creates a new empty Editor.
func New() *Editor {
	return &Editor{}
}

// Text returns the current text.
func (e *Editor) Text() string {
	return string(e.text)
}

// Cursor returns the current cursor position in runes.
func (e *Editor) Cursor() int {
	return e.cursor
}

// SetCursor sets the cursor position, clamping to valid range.
func (e *Editor) SetCursor(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(e.text) {
		pos = len(e.text)
	}
	e.cursor = pos
}

// Len returns the length of the text in runes.
func (e *Editor) Len() int {
	return len(e.text)
}

// Clear resets the editor to empty state.
func (e *Editor) Clear() {
	e.text = e.text[:0]
	e.cursor = 0
}

// Set replaces the text and moves cursor to end.
func (e *Editor) Set(text string) {
	e.text = []rune(text)
	e.cursor = len(e.text)
}

// InsertRune adds a character at the cursor position and leaves the cursor
// just after it.
func (e *Editor) InsertRune(r rune) {
	e.text = append(e.text, 0)
	copy(e.text[e.cursor+1:], e.text[e.cursor:])
	e.text[e.cursor] = r
	e.cursor++
}

// InsertString adds a string at the cursor position.
func (e *Editor) InsertString(s string) {
	for _, r := range s {
		e.InsertRune(r)
	}
}

// DeleteBackward removes the character before the cursor (backspace).
// Returns true if a character was deleted.
func (e *Editor) DeleteBackward() bool {
	if e.cursor == 0 {
		return false
	}
	e.text = append(e.text[:e.cursor-1], e.text[e.cursor:]...)
	e.cursor--
	return true
}

// DeleteForward removes the character at the cursor (delete).
// Returns true if a character was deleted.
func (e *Editor) DeleteForward() bool {
	if e.cursor >= len(e.text) {
		return false
	}
	e.text = append(e.text[:e.cursor], e.text[e.cursor+1:]...)
	return true
}

// Left moves cursor one character left. Returns true if cursor moved.
func (e *Editor) Left() bool {
	if e.cursor == 0 {
		return false
	}
	e.cursor--
	return true
}

// Right moves cursor one character right. Returns true if cursor moved.
func (e *Editor) Right() bool {
	if e.cursor >= len(e.text) {
		return false
	}
	e.cursor++
	return true
}

// Home moves cursor to beginning of line.
func (e *Editor) Home() {
	e.cursor = 0
}

// End moves cursor to end of line.
func (e *Editor) End() {
	e.cursor = len(e.text)
}

// KillToEnd deletes from cursor to end of line (Ctrl+K).
func (e *Editor) KillToEnd() {
	e.text = e.text[:e.cursor]
}

// KillToStart deletes from beginning to cursor (Ctrl+U).
func (e *Editor) KillToStart() {
	e.text = append(e.text[:0], e.text[e.cursor:]...)
	e.cursor = 0
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r > 127
}

func charClass(r rune) int {
	if r == ' ' || r == '\t' {
		return 0
	}
	if isWordRune(r) {
		return 1
	}
	return 2
}

// wordBoundaryLeft finds the position of the previous word boundary.
func (e *Editor) wordBoundaryLeft() int {
	if e.cursor == 0 {
		return 0
	}
	i := e.cursor - 1
	for i > 0 && charClass(e.text[i]) == 0 {
		i--
	}
	if i == 0 {
		return 0
	}
	class := charClass(e.text[i])
	for i > 0 && charClass(e.text[i-1]) == class {
		i--
	}
	return i
}

// wordBoundaryRight finds the position of the next word boundary.
func (e *Editor) wordBoundaryRight() int {
	if e.cursor >= len(e.text) {
		return len(e.text)
	}
	i := e.cursor
	class := charClass(e.text[i])
	for i < len(e.text) && charClass(e.text[i]) == class {
		i++
	}
	for i < len(e.text) && charClass(e.text[i]) == 0 {
		i++
	}
	return i
}

// WordLeft moves cursor to the previous word boundary.
func (e *Editor) WordLeft() {
	e.cursor = e.wordBoundaryLeft()
}

// WordRight moves cursor to the next word boundary.
func (e *Editor) WordRight() {
	e.cursor = e.wordBoundaryRight()
}

// DeleteWordBackward deletes from cursor to previous word boundary (Ctrl+W).
func (e *Editor) DeleteWordBackward() {
	newPos := e.wordBoundaryLeft()
	e.text = append(e.text[:newPos], e.text[e.cursor:]...)
	e.cursor = newPos
}
