package learn

import (
	"testing"

	"gloss/input"
)

func readyPanel(t *testing.T, reg *input.Registry) *Panel {
	t.Helper()
	p := NewPanel(Deps{
		Detector:   &fakeDetector{},
		Dictionary: &fakeDict{entries: nil},
		Translator: &fakeTranslator{},
		Registry:   reg,
	})
	p.mu.Lock()
	p.data.PartsOfSpeech = []string{"noun"}
	p.data.Meanings["noun"] = []*Meaning{
		{Definition: "a thing"},
		{Definition: "another thing", Example: "such a thing"},
	}
	p.activeTab = "noun"
	p.status = StatusReady
	p.mu.Unlock()
	return p
}

func TestMinimalScrollDelta(t *testing.T) {
	tests := []struct {
		name                       string
		top, bottom, scroll, height int
		want                       int
	}{
		{"fully visible", 2, 5, 0, 10, 0},
		{"bottom overflow", 8, 14, 0, 10, 4},
		{"top above view", 3, 6, 5, 10, -2},
		{"taller than view pins top", 0, 30, 0, 10, 0},
		{"tall span scrolls only to its top", 12, 40, 0, 10, 12},
	}
	for _, tt := range tests {
		if got := minimalScrollDelta(tt.top, tt.bottom, tt.scroll, tt.height); got != tt.want {
			t.Errorf("%s: delta = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestAddCustomMeaningFocusesDefinitionField(t *testing.T) {
	reg := input.NewRegistry()
	p := readyPanel(t, reg)

	idx := p.AddCustomMeaning()
	if idx != 2 {
		t.Fatalf("custom meaning index = %d, want appended at 2", idx)
	}

	snap := p.Snapshot()
	m := snap.Meanings["noun"][2]
	if !m.Expanded {
		t.Error("custom meaning not pre-expanded")
	}
	if m.Definition != "" || m.CustomTitle != "" {
		t.Errorf("custom meaning not empty: %+v", m)
	}

	if _, _, ok := reg.Focused(); !ok {
		t.Fatal("no field focused after adding a custom meaning")
	}
	// Typing goes straight into the focused definition field.
	router := input.NewRouter(reg)
	for _, r := range "my own" {
		if !router.Route(input.Key{Rune: r}) {
			t.Fatalf("router did not consume %q", r)
		}
	}
	marked := func() string {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.syncEditorsLocked()
		return p.data.Meanings["noun"][2].Definition
	}
	if got := marked(); got != "my own" {
		t.Errorf("definition after typing = %q, want %q", got, "my own")
	}
}

func TestEscapeCommitsAndBlursField(t *testing.T) {
	reg := input.NewRegistry()
	p := readyPanel(t, reg)

	p.AddCustomMeaning()
	router := input.NewRouter(reg)
	for _, r := range "draft" {
		router.Route(input.Key{Rune: r})
	}

	if !p.HandleKey(input.Key{Special: input.SpecEscape}) {
		t.Fatal("escape not handled while a field is focused")
	}
	if id, _, ok := reg.Focused(); ok {
		t.Errorf("field still focused after escape: %q", id)
	}
	snap := p.Snapshot()
	if got := snap.Meanings["noun"][2].Definition; got != "draft" {
		t.Errorf("definition = %q, want committed text", got)
	}
}

func TestMarkedMeaningsIncludesPendingEdits(t *testing.T) {
	reg := input.NewRegistry()
	p := readyPanel(t, reg)

	p.ToggleMark("noun", 0)
	idx := p.AddCustomMeaning()
	p.ToggleMark("noun", idx)

	router := input.NewRouter(reg)
	for _, r := range "in progress" {
		router.Route(input.Key{Rune: r})
	}

	marked := p.MarkedMeanings()
	if len(marked) != 2 {
		t.Fatalf("marked = %d, want 2", len(marked))
	}
	if marked[0].Definition != "a thing" {
		t.Errorf("marked[0] = %+v", marked[0])
	}
	if marked[1].Definition != "in progress" {
		t.Errorf("marked[1].Definition = %q, want the un-blurred edit", marked[1].Definition)
	}
}

func TestToggleMarkDoesNotRemoveMeaning(t *testing.T) {
	p := readyPanel(t, nil)
	p.ToggleMark("noun", 1)
	p.ToggleMark("noun", 1)
	snap := p.Snapshot()
	if len(snap.Meanings["noun"]) != 2 {
		t.Fatalf("meanings = %d after double toggle, want 2", len(snap.Meanings["noun"]))
	}
	if snap.Meanings["noun"][1].Marked {
		t.Error("mark survived an even number of toggles")
	}
}

func TestExpandScrollsByMinimumDelta(t *testing.T) {
	p := readyPanel(t, input.NewRegistry())
	p.mu.Lock()
	// Pad the tab so the last meaning sits below a short viewport.
	for i := 0; i < 8; i++ {
		p.data.Meanings["noun"] = append(p.data.Meanings["noun"], &Meaning{Definition: "pad"})
	}
	p.lastW = 40
	p.reducedMotion = true
	p.mu.Unlock()

	last := len(p.Snapshot().Meanings["noun"]) - 1
	p.ToggleExpanded("noun", last, 5)

	p.mu.Lock()
	top, bottom := p.meaningSpanLocked("noun", last, 40)
	scroll := p.scrollTop
	p.mu.Unlock()

	if top < scroll {
		t.Errorf("expanded meaning top %d scrolled past view top %d", top, scroll)
	}
	if want := minimalScrollDelta(top, bottom, 0, 5); scroll != want {
		t.Errorf("scroll = %d, want minimal delta %d", scroll, want)
	}
}

func TestCollapseSyncsEditorText(t *testing.T) {
	reg := input.NewRegistry()
	p := readyPanel(t, reg)

	p.ToggleExpanded("noun", 0, 20)
	router := input.NewRouter(reg)
	p.focusField("noun", 0, false)
	router.Route(input.Key{Rune: '!'})
	p.ToggleExpanded("noun", 0, 20)

	snap := p.Snapshot()
	if got := snap.Meanings["noun"][0].Definition; got != "a thing!" {
		t.Errorf("definition after collapse = %q, want %q", got, "a thing!")
	}
}

func TestDestroyUnregistersFields(t *testing.T) {
	reg := input.NewRegistry()
	p := readyPanel(t, reg)

	p.AddCustomMeaning()
	if _, _, ok := reg.Focused(); !ok {
		t.Fatal("expected a focused field before destroy")
	}

	p.Destroy()
	if id, _, ok := reg.Focused(); ok {
		t.Errorf("field still focused after destroy: %q", id)
	}
	router := input.NewRouter(reg)
	if router.Route(input.Key{Rune: 'x'}) {
		t.Error("router consumed a key after the panel was destroyed")
	}
}
