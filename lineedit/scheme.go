package lineedit

import "gloss/input"

// Event represents the result of handling a key press.
type Event struct {
	Consumed    bool // true if the scheme handled the key
	TextChanged bool // true if editor content was modified
	Submit      bool // true if user wants to submit (Enter)
	Cancel      bool // true if user wants to cancel/exit
}

// KeyScheme interprets control keys and translates them to editor actions.
// Printable characters never reach a scheme; the input router forwards those
// straight to the widget.
type KeyScheme interface {
	// Name returns the scheme name for display/config.
	Name() string

	// HandleKey processes a decoded key press and performs editor actions.
	HandleKey(e *Editor, k input.Key) Event
}

// SchemeByName returns the scheme for a config value, defaulting to emacs.
func SchemeByName(name string) KeyScheme {
	switch name {
	case "plain":
		return &PlainScheme{}
	default:
		return &EmacsScheme{}
	}
}
