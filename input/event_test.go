package input

import "testing"

func TestParsePrintable(t *testing.T) {
	ev, n := Parse([]byte("j"))
	if n != 1 || ev.Key == nil {
		t.Fatalf("expected key event, got %+v (%d)", ev, n)
	}
	if ev.Key.Rune != 'j' || !ev.Key.Printable() {
		t.Errorf("expected printable 'j', got %+v", ev.Key)
	}
}

func TestParseUTF8(t *testing.T) {
	ev, n := Parse([]byte("é"))
	if ev.Key == nil || ev.Key.Rune != 'é' {
		t.Fatalf("expected 'é', got %+v", ev.Key)
	}
	if n != 2 {
		t.Errorf("expected 2 bytes consumed, got %d", n)
	}
}

func TestParseEnterBackspace(t *testing.T) {
	ev, _ := Parse([]byte{13})
	if ev.Key == nil || ev.Key.Special != SpecEnter {
		t.Errorf("expected Enter, got %+v", ev.Key)
	}
	ev, _ = Parse([]byte{127})
	if ev.Key == nil || ev.Key.Special != SpecBackspace {
		t.Errorf("expected Backspace, got %+v", ev.Key)
	}
	if ev.Key.Printable() {
		t.Error("Backspace must not be printable")
	}
}

func TestParseCtrl(t *testing.T) {
	ev, _ := Parse([]byte{5}) // Ctrl+E
	if ev.Key == nil || ev.Key.Rune != 'e' || !ev.Key.Ctrl {
		t.Errorf("expected Ctrl+E, got %+v", ev.Key)
	}
	if ev.Key.Printable() {
		t.Error("Ctrl+E must not be printable")
	}
}

func TestParseEscapeAlone(t *testing.T) {
	ev, n := Parse([]byte{27})
	if ev.Key == nil || ev.Key.Special != SpecEscape || n != 1 {
		t.Errorf("expected Escape, got %+v (%d)", ev.Key, n)
	}
}

func TestParseArrows(t *testing.T) {
	ev, n := Parse([]byte{27, '[', 'A'})
	if ev.Key == nil || ev.Key.Special != SpecUp || n != 3 {
		t.Errorf("expected Up, got %+v (%d)", ev.Key, n)
	}
}

func TestParseMousePress(t *testing.T) {
	ev, n := Parse([]byte("\033[<0;10;5M"))
	if ev.Pointer == nil {
		t.Fatalf("expected pointer event, got %+v", ev)
	}
	if ev.Pointer.Kind != PointerDown || ev.Pointer.X != 9 || ev.Pointer.Y != 4 {
		t.Errorf("unexpected pointer: %+v", ev.Pointer)
	}
	if n != 10 {
		t.Errorf("expected 10 bytes consumed, got %d", n)
	}
}

func TestParseMouseDragAndRelease(t *testing.T) {
	ev, _ := Parse([]byte("\033[<32;3;3M"))
	if ev.Pointer == nil || ev.Pointer.Kind != PointerDrag {
		t.Errorf("expected drag, got %+v", ev.Pointer)
	}
	ev, _ = Parse([]byte("\033[<0;3;3m"))
	if ev.Pointer == nil || ev.Pointer.Kind != PointerUp {
		t.Errorf("expected release, got %+v", ev.Pointer)
	}
}

func TestParseMouseScroll(t *testing.T) {
	ev, _ := Parse([]byte("\033[<64;1;1M"))
	if ev.Pointer == nil || ev.Pointer.Kind != PointerScrollUp {
		t.Errorf("expected scroll up, got %+v", ev.Pointer)
	}
	ev, _ = Parse([]byte("\033[<65;1;1M"))
	if ev.Pointer == nil || ev.Pointer.Kind != PointerScrollDown {
		t.Errorf("expected scroll down, got %+v", ev.Pointer)
	}
}

func TestParseCSIuCtrlEnter(t *testing.T) {
	ev, n := Parse([]byte("\x1b[13;5u"))
	if ev.Key == nil || n != 7 {
		t.Fatalf("expected key event, got %+v (%d)", ev, n)
	}
	if ev.Key.Special != SpecEnter || !ev.Key.Ctrl {
		t.Errorf("expected Ctrl+Enter, got %+v", ev.Key)
	}
}

func TestParseModifyOtherKeysCtrlEnter(t *testing.T) {
	ev, n := Parse([]byte("\x1b[27;5;13~"))
	if ev.Key == nil || n != 10 {
		t.Fatalf("expected key event, got %+v (%d)", ev, n)
	}
	if ev.Key.Special != SpecEnter || !ev.Key.Ctrl {
		t.Errorf("expected Ctrl+Enter, got %+v", ev.Key)
	}
}

func TestParseCSIuAltEnter(t *testing.T) {
	ev, _ := Parse([]byte("\x1b[13;3u"))
	if ev.Key == nil || ev.Key.Special != SpecEnter || !ev.Key.Alt || ev.Key.Ctrl {
		t.Errorf("expected Alt+Enter, got %+v", ev.Key)
	}
}

func TestParseDeleteStillDecodes(t *testing.T) {
	ev, n := Parse([]byte("\x1b[3~"))
	if ev.Key == nil || ev.Key.Special != SpecDelete || n != 4 {
		t.Errorf("expected Delete, got %+v (%d)", ev.Key, n)
	}
}
