package lineedit

import "gloss/input"

// EmacsScheme implements emacs-style control keybindings.
type EmacsScheme struct{}

// Name returns the scheme name.
func (s *EmacsScheme) Name() string {
	return "emacs"
}

// HandleKey processes a control key press using emacs keybindings.
func (s *EmacsScheme) HandleKey(e *Editor, k input.Key) Event {
	if k.Alt {
		switch k.Rune {
		case 'b', 'B':
			e.WordLeft()
			return Event{Consumed: true}
		case 'f', 'F':
			e.WordRight()
			return Event{Consumed: true}
		}
		return Event{}
	}

	if k.Ctrl {
		switch k.Rune {
		case 'a':
			e.Home()
			return Event{Consumed: true}
		case 'e':
			e.End()
			return Event{Consumed: true}
		case 'f':
			e.Right()
			return Event{Consumed: true}
		case 'b':
			e.Left()
			return Event{Consumed: true}
		case 'd':
			changed := e.DeleteForward()
			return Event{Consumed: true, TextChanged: changed}
		case 'k':
			e.KillToEnd()
			return Event{Consumed: true, TextChanged: true}
		case 'u':
			e.KillToStart()
			return Event{Consumed: true, TextChanged: true}
		case 'w':
			e.DeleteWordBackward()
			return Event{Consumed: true, TextChanged: true}
		}
		return Event{}
	}

	switch k.Special {
	case input.SpecEnter:
		return Event{Consumed: true, Submit: true}
	case input.SpecEscape:
		return Event{Consumed: true, Cancel: true}
	case input.SpecBackspace:
		changed := e.DeleteBackward()
		return Event{Consumed: true, TextChanged: changed}
	case input.SpecDelete:
		changed := e.DeleteForward()
		return Event{Consumed: true, TextChanged: changed}
	case input.SpecLeft:
		e.Left()
		return Event{Consumed: true}
	case input.SpecRight:
		e.Right()
		return Event{Consumed: true}
	case input.SpecHome:
		e.Home()
		return Event{Consumed: true}
	case input.SpecEnd:
		e.End()
		return Event{Consumed: true}
	}

	return Event{}
}

// PlainScheme implements the minimal keybinding set: movement, backspace,
// Enter, and Escape, with no emacs chords.
type PlainScheme struct{}

// Name returns the scheme name.
func (s *PlainScheme) Name() string {
	return "plain"
}

// HandleKey processes a control key press with plain keybindings.
func (s *PlainScheme) HandleKey(e *Editor, k input.Key) Event {
	if k.Ctrl || k.Alt {
		return Event{}
	}

	switch k.Special {
	case input.SpecEnter:
		return Event{Consumed: true, Submit: true}
	case input.SpecEscape:
		return Event{Consumed: true, Cancel: true}
	case input.SpecBackspace:
		changed := e.DeleteBackward()
		return Event{Consumed: true, TextChanged: changed}
	case input.SpecDelete:
		changed := e.DeleteForward()
		return Event{Consumed: true, TextChanged: changed}
	case input.SpecLeft:
		e.Left()
		return Event{Consumed: true}
	case input.SpecRight:
		e.Right()
		return Event{Consumed: true}
	case input.SpecHome:
		e.Home()
		return Event{Consumed: true}
	case input.SpecEnd:
		e.End()
		return Event{Consumed: true}
	}

	return Event{}
}
