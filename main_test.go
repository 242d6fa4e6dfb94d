package main

import (
	"testing"

	"gloss/render"
	"gloss/selection"
)

func TestDrawSelectionInvertsOnlySelectedCells(t *testing.T) {
	a := &app{
		canvas:  render.NewCanvas(20, 8),
		tracker: selection.NewTracker(),
	}
	rect := selection.Rect{Top: 2, Bottom: 4, Left: 5, Right: 9, Width: 4, Height: 2}
	a.tracker.SelectionChanged("word", &rect)

	c := a.canvas
	a.drawSelection(c)

	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			inside := y >= rect.Top && y < rect.Bottom && x >= rect.Left && x < rect.Right
			if got := c.Get(x, y).Style.Reverse; got != inside {
				t.Fatalf("cell (%d,%d): reverse = %v, want %v", x, y, got, inside)
			}
		}
	}
}

func TestDrawSelectionNoGeometryIsNoop(t *testing.T) {
	a := &app{
		canvas:  render.NewCanvas(10, 4),
		tracker: selection.NewTracker(),
	}
	a.drawSelection(a.canvas)

	for y := 0; y < 4; y++ {
		for x := 0; x < 10; x++ {
			if a.canvas.Get(x, y).Style.Reverse {
				t.Fatalf("cell (%d,%d) inverted with no selection", x, y)
			}
		}
	}
}
