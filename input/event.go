// Package input decodes raw terminal bytes into key and pointer events and
// routes keys between popup widgets and the page keymap.
package input

import "unicode/utf8"

// Special identifies non-printable keys.
type Special int

const (
	SpecNone Special = iota
	SpecEnter
	SpecBackspace
	SpecEscape
	SpecTab
	SpecUp
	SpecDown
	SpecLeft
	SpecRight
	SpecHome
	SpecEnd
	SpecDelete
)

// Key represents a decoded key press.
type Key struct {
	Rune    rune    // printable character, 0 for special keys
	Special Special // non-printable key, SpecNone otherwise
	Ctrl    bool
	Alt     bool
}

// Printable reports whether the key is a single printable character with no
// modifiers held. These are the keys the router reclaims from the page.
func (k Key) Printable() bool {
	return k.Rune != 0 && k.Special == SpecNone && !k.Ctrl && !k.Alt
}

// PointerKind identifies the type of a pointer event.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerDrag
	PointerUp
	PointerScrollUp
	PointerScrollDown
)

// Pointer represents a decoded mouse event with 0-based cell coordinates.
type Pointer struct {
	Kind PointerKind
	X, Y int
}

// Event is a single decoded input event, either a key or a pointer event.
type Event struct {
	Key     *Key
	Pointer *Pointer
}

// Parse decodes one event from buf and returns it with the number of bytes
// consumed. Returns a zero Event and consumed 0 if the buffer is empty, or
// consumed > 0 with a zero Event for sequences we recognise but ignore.
func Parse(buf []byte) (Event, int) {
	if len(buf) == 0 {
		return Event{}, 0
	}

	if buf[0] == 27 {
		return parseEscape(buf)
	}

	switch {
	case buf[0] == 13 || buf[0] == 10:
		return Event{Key: &Key{Special: SpecEnter}}, 1
	case buf[0] == 127 || buf[0] == 8:
		return Event{Key: &Key{Special: SpecBackspace}}, 1
	case buf[0] == 9:
		return Event{Key: &Key{Special: SpecTab}}, 1
	case buf[0] < 32:
		// Ctrl+letter: Ctrl+A is 1, Ctrl+Z is 26.
		return Event{Key: &Key{Rune: rune('a' + buf[0] - 1), Ctrl: true}}, 1
	}

	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError && size <= 1 {
		return Event{}, 1
	}
	return Event{Key: &Key{Rune: r}}, size
}

func parseEscape(buf []byte) (Event, int) {
	if len(buf) == 1 {
		return Event{Key: &Key{Special: SpecEscape}}, 1
	}

	// SGR mouse: ESC [ < b ; x ; y (M|m)
	if len(buf) >= 3 && buf[1] == '[' && buf[2] == '<' {
		return parseMouse(buf)
	}

	if buf[1] == '[' && len(buf) >= 3 {
		switch buf[2] {
		case 'A':
			return Event{Key: &Key{Special: SpecUp}}, 3
		case 'B':
			return Event{Key: &Key{Special: SpecDown}}, 3
		case 'C':
			return Event{Key: &Key{Special: SpecRight}}, 3
		case 'D':
			return Event{Key: &Key{Special: SpecLeft}}, 3
		case 'H':
			return Event{Key: &Key{Special: SpecHome}}, 3
		case 'F':
			return Event{Key: &Key{Special: SpecEnd}}, 3
		}
		if buf[2] >= '0' && buf[2] <= '9' {
			return parseNumericCSI(buf)
		}
		return Event{}, 3
	}

	// Alt+key
	r, size := utf8.DecodeRune(buf[1:])
	if r == utf8.RuneError && size <= 1 {
		return Event{Key: &Key{Special: SpecEscape}}, 1
	}
	return Event{Key: &Key{Rune: r, Alt: true}}, 1 + size
}

// parseNumericCSI decodes the numeric-parameter sequences: "ESC [ 3 ~"
// (delete), CSI-u modified keys "ESC [ code ; mod u" (kitty and friends),
// and xterm modifyOtherKeys "ESC [ 27 ; mod ; code ~". These are how a
// terminal reports chords like Ctrl+Enter that the legacy encoding folds
// into plain bytes.
func parseNumericCSI(buf []byte) (Event, int) {
	i := 2
	var nums []int
	for {
		n, ok := 0, false
		for i < len(buf) && buf[i] >= '0' && buf[i] <= '9' {
			n = n*10 + int(buf[i]-'0')
			i++
			ok = true
		}
		if !ok || i >= len(buf) {
			return Event{}, min(i, len(buf))
		}
		nums = append(nums, n)
		if buf[i] != ';' {
			break
		}
		i++
	}

	final := buf[i]
	i++

	code, mod := -1, 1
	switch {
	case final == '~' && len(nums) == 1 && nums[0] == 3:
		return Event{Key: &Key{Special: SpecDelete}}, i
	case final == '~' && len(nums) == 3 && nums[0] == 27:
		mod, code = nums[1], nums[2]
	case final == 'u' && len(nums) >= 1:
		code = nums[0]
		if len(nums) >= 2 {
			mod = nums[1]
		}
	default:
		return Event{}, i
	}

	k := Key{}
	m := mod - 1
	k.Ctrl = m&4 != 0
	k.Alt = m&2 != 0
	switch code {
	case 13, 10:
		k.Special = SpecEnter
	case 9:
		k.Special = SpecTab
	case 27:
		k.Special = SpecEscape
	case 127, 8:
		k.Special = SpecBackspace
	default:
		if code < 32 {
			return Event{}, i
		}
		k.Rune = rune(code)
	}
	return Event{Key: &k}, i
}

// parseMouse decodes an SGR mouse sequence: ESC [ < button ; col ; row M/m
func parseMouse(buf []byte) (Event, int) {
	i := 3
	readNum := func() (int, bool) {
		n := 0
		ok := false
		for i < len(buf) && buf[i] >= '0' && buf[i] <= '9' {
			n = n*10 + int(buf[i]-'0')
			i++
			ok = true
		}
		return n, ok
	}

	button, ok := readNum()
	if !ok || i >= len(buf) || buf[i] != ';' {
		return Event{}, min(i, len(buf))
	}
	i++
	col, ok := readNum()
	if !ok || i >= len(buf) || buf[i] != ';' {
		return Event{}, min(i, len(buf))
	}
	i++
	row, ok := readNum()
	if !ok || i >= len(buf) {
		return Event{}, min(i, len(buf))
	}

	release := buf[i] == 'm'
	if buf[i] != 'M' && buf[i] != 'm' {
		return Event{}, i
	}
	i++

	p := Pointer{X: col - 1, Y: row - 1}
	switch {
	case button == 64:
		p.Kind = PointerScrollUp
	case button == 65:
		p.Kind = PointerScrollDown
	case release:
		p.Kind = PointerUp
	case button&32 != 0:
		p.Kind = PointerDrag
	default:
		p.Kind = PointerDown
	}

	return Event{Pointer: &p}, i
}
