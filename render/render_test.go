package render

import "testing"

func TestWrapText(t *testing.T) {
	lines := WrapText("the quick brown fox jumps", 10)
	for i, line := range lines {
		if StringWidth(line) > 10 {
			t.Errorf("line %d exceeds width: %q", i, line)
		}
	}
	if len(lines) != 3 {
		t.Errorf("expected 3 lines, got %d: %v", len(lines), lines)
	}
}

func TestWrapTextLongWord(t *testing.T) {
	lines := WrapText("antidisestablishmentarianism", 10)
	if len(lines) != 3 {
		t.Errorf("expected 3 lines, got %d: %v", len(lines), lines)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello world", 8); got != "hello..." {
		t.Errorf("expected 'hello...', got %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("expected 'short', got %q", got)
	}
}

func TestStringWidthWideChars(t *testing.T) {
	if w := StringWidth("日本語"); w != 6 {
		t.Errorf("expected width 6, got %d", w)
	}
	if w := StringWidth("abc"); w != 3 {
		t.Errorf("expected width 3, got %d", w)
	}
}

func TestCanvasSetGet(t *testing.T) {
	c := NewCanvas(10, 5)
	c.Set(3, 2, 'x', Style{Bold: true})
	cell := c.Get(3, 2)
	if cell.Rune != 'x' || !cell.Style.Bold {
		t.Errorf("unexpected cell: %+v", cell)
	}

	// Out of bounds is a no-op
	c.Set(-1, 0, 'y', Style{})
	c.Set(10, 0, 'y', Style{})
	if c.Get(-1, 0).Rune != ' ' {
		t.Error("out-of-bounds Get should return blank cell")
	}
}

func TestCanvasWriteString(t *testing.T) {
	c := NewCanvas(5, 1)
	used := c.WriteString(0, 0, "hello world", Style{})
	if used != 5 {
		t.Errorf("expected 5 cells used, got %d", used)
	}
	if c.Get(4, 0).Rune != 'o' {
		t.Errorf("expected 'o' at end, got %q", c.Get(4, 0).Rune)
	}
}

func TestFillRect(t *testing.T) {
	c := NewCanvas(10, 10)
	c.FillRect(2, 2, 3, 3, '#', Style{})
	if c.Get(2, 2).Rune != '#' || c.Get(4, 4).Rune != '#' {
		t.Error("FillRect did not fill region")
	}
	if c.Get(5, 5).Rune != ' ' {
		t.Error("FillRect wrote outside region")
	}
}

func TestDrawBox(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawBox(0, 0, 10, 5, SingleBox, Style{})
	if c.Get(0, 0).Rune != '┌' || c.Get(9, 4).Rune != '┘' {
		t.Error("box corners not drawn")
	}
	if c.Get(5, 0).Rune != '─' || c.Get(0, 2).Rune != '│' {
		t.Error("box edges not drawn")
	}
}
