package render

import (
	"os"

	"golang.org/x/sys/unix"
)

// Terminal handles raw mode, screen control, and mouse reporting.
type Terminal struct {
	fd       int
	original unix.Termios
}

// NewTerminal creates a terminal controller for the given file.
func NewTerminal(f *os.File) (*Terminal, error) {
	fd := int(f.Fd())
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, err
	}
	return &Terminal{fd: fd, original: *termios}, nil
}

// EnterRawMode puts the terminal into raw mode for direct character input.
func (t *Terminal) EnterRawMode() error {
	raw := t.original
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 1
	return unix.IoctlSetTermios(t.fd, ioctlSetTermios, &raw)
}

// RestoreMode restores the original terminal mode.
func (t *Terminal) RestoreMode() error {
	return unix.IoctlSetTermios(t.fd, ioctlSetTermios, &t.original)
}

const (
	ClearScreen    = "\033[2J"
	CursorHome     = "\033[H"
	CursorHide     = "\033[?25l"
	CursorShow     = "\033[?25h"
	AltScreenEnter = "\033[?1049h"
	AltScreenExit  = "\033[?1049l"

	// SGR mouse reporting with button-event tracking, so drags arrive as
	// motion events while a button is held. Selection tracking needs the
	// motion stream, not just press/release.
	mouseEnable  = "\033[?1002h\033[?1006h"
	mouseDisable = "\033[?1006l\033[?1002l"

	// Modified-key reporting: xterm modifyOtherKeys level 1 plus the kitty
	// disambiguate flag. Without one of these, chords like Ctrl+Enter
	// arrive as a plain carriage return.
	modKeysEnable  = "\033[>4;1m\033[>1u"
	modKeysDisable = "\033[<u\033[>4;0m"
)

// EnterAltScreen switches to the alternate screen buffer.
func EnterAltScreen(f *os.File) {
	f.WriteString(AltScreenEnter + CursorHide + ClearScreen)
}

// ExitAltScreen returns to the main screen buffer.
func ExitAltScreen(f *os.File) {
	f.WriteString(CursorShow + AltScreenExit)
}

// EnableMouse turns on SGR mouse reporting.
func EnableMouse(f *os.File) {
	f.WriteString(mouseEnable)
}

// DisableMouse turns off SGR mouse reporting.
func DisableMouse(f *os.File) {
	f.WriteString(mouseDisable)
}

// EnableModifiedKeys asks the terminal to report modified control keys as
// distinct escape sequences. Terminals that support neither protocol
// ignore the request.
func EnableModifiedKeys(f *os.File) {
	f.WriteString(modKeysEnable)
}

// DisableModifiedKeys restores the legacy key encoding.
func DisableModifiedKeys(f *os.File) {
	f.WriteString(modKeysDisable)
}
