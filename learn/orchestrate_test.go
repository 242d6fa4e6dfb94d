package learn

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"gloss/dict"
	"gloss/translate"
)

type fakeDetector struct {
	result DetectResult
	calls  int
}

func (f *fakeDetector) DetectLanguage(ctx context.Context, text string) DetectResult {
	f.calls++
	return f.result
}

type fakeDict struct {
	mu      sync.Mutex
	calls   int
	entries map[string][]dict.Entry
	err     error
	gate    chan struct{} // when non-nil, Define blocks until closed
}

func (f *fakeDict) Define(ctx context.Context, word string) ([]dict.Entry, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.entries[word], f.err
}

func (f *fakeDict) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeTranslator struct {
	mu     sync.Mutex
	calls  int
	result translate.Result
	err    error
}

func (f *fakeTranslator) Translate(ctx context.Context, req translate.Request) (translate.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.result, f.err
}

func newTestPanel(d Detector, dc Dictionary, tr Translator) *Panel {
	return NewPanel(Deps{Detector: d, Dictionary: dc, Translator: tr})
}

func waitStatus(t *testing.T, p *Panel, want Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.Status() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("status = %v, want %v", p.Status(), want)
}

func defs(texts ...string) []dict.Definition {
	out := make([]dict.Definition, len(texts))
	for i, s := range texts {
		out[i] = dict.Definition{Definition: s}
	}
	return out
}

func TestDictionaryLookupGroupsByPartOfSpeech(t *testing.T) {
	// Two response entries whose meanings overlap in part of speech must
	// merge into single tabs, in first-seen order.
	d := &fakeDict{entries: map[string][]dict.Entry{
		"same": {
			{Word: "same", Meanings: []dict.Meaning{
				{PartOfSpeech: "adjective", Definitions: defs("a1", "a2", "a3")},
				{PartOfSpeech: "pronoun", Definitions: defs("p1", "p2")},
			}},
			{Word: "same", Meanings: []dict.Meaning{
				{PartOfSpeech: "adjective", Definitions: defs("a4", "a5")},
				{PartOfSpeech: "pronoun", Definitions: defs("p3", "p4")},
				{PartOfSpeech: "interjection", Definitions: defs("i1")},
				{PartOfSpeech: "adverb", Definitions: defs("d1")},
			}},
		},
	}}
	p := newTestPanel(&fakeDetector{}, d, &fakeTranslator{})

	p.Run("same", "en", "en")
	waitStatus(t, p, StatusReady)

	snap := p.Snapshot()
	wantOrder := []string{"adjective", "pronoun", "interjection", "adverb"}
	if len(snap.PartsOfSpeech) != len(wantOrder) {
		t.Fatalf("parts of speech = %v, want %v", snap.PartsOfSpeech, wantOrder)
	}
	for i, pos := range wantOrder {
		if snap.PartsOfSpeech[i] != pos {
			t.Errorf("parts of speech[%d] = %q, want %q", i, snap.PartsOfSpeech[i], pos)
		}
	}
	wantCounts := map[string]int{"adjective": 5, "pronoun": 4, "interjection": 1, "adverb": 1}
	for pos, n := range wantCounts {
		if got := len(snap.Meanings[pos]); got != n {
			t.Errorf("meanings[%q] = %d, want %d", pos, got, n)
		}
	}
	if p.ActiveTab() != "adjective" {
		t.Errorf("active tab = %q, want adjective", p.ActiveTab())
	}
}

func TestSynonymsDedupedAcrossMeanings(t *testing.T) {
	d := &fakeDict{entries: map[string][]dict.Entry{
		"word": {
			{Word: "word", Meanings: []dict.Meaning{
				{
					PartOfSpeech: "noun",
					Definitions:  []dict.Definition{{Definition: "n1", Synonyms: []string{"alike", "equal"}}},
					Synonyms:     []string{"equal", "matching"},
				},
				{
					PartOfSpeech: "adjective",
					Definitions:  []dict.Definition{{Definition: "a1", Synonyms: []string{"alike"}}},
					Antonyms:     []string{"different", "different"},
				},
			}},
		},
	}}
	p := newTestPanel(&fakeDetector{}, d, &fakeTranslator{})

	p.Run("word", "en", "en")
	waitStatus(t, p, StatusReady)

	snap := p.Snapshot()
	wantSyn := []string{"alike", "equal", "matching"}
	if len(snap.Synonyms) != len(wantSyn) {
		t.Fatalf("synonyms = %v, want %v", snap.Synonyms, wantSyn)
	}
	for i, s := range wantSyn {
		if snap.Synonyms[i] != s {
			t.Errorf("synonyms[%d] = %q, want %q", i, snap.Synonyms[i], s)
		}
	}
	if len(snap.Antonyms) != 1 || snap.Antonyms[0] != "different" {
		t.Errorf("antonyms = %v, want [different]", snap.Antonyms)
	}
}

func TestCacheHitSkipsCollaborators(t *testing.T) {
	d := &fakeDict{entries: map[string][]dict.Entry{
		"cached": {{Word: "cached", Meanings: []dict.Meaning{
			{PartOfSpeech: "noun", Definitions: defs("the stored one")},
		}}},
	}}
	p := newTestPanel(&fakeDetector{}, d, &fakeTranslator{})

	p.Run("cached", "en", "en")
	waitStatus(t, p, StatusReady)
	if d.callCount() != 1 {
		t.Fatalf("first run calls = %d, want 1", d.callCount())
	}

	// Mutating the displayed copy must not leak into the cache.
	p.ToggleMark("noun", 0)

	p.Run("cached", "en", "en")
	waitStatus(t, p, StatusReady)
	if d.callCount() != 1 {
		t.Errorf("second run calls = %d, want 1 (cache hit)", d.callCount())
	}
	snap := p.Snapshot()
	if snap.Meanings["noun"][0].Marked {
		t.Error("cached entry carries a mark set on the displayed copy")
	}
	if snap.Meanings["noun"][0].Definition != "the stored one" {
		t.Errorf("restored definition = %q", snap.Meanings["noun"][0].Definition)
	}
}

func TestStaleResponseIgnored(t *testing.T) {
	gate := make(chan struct{})
	d := &fakeDict{
		gate: gate,
		entries: map[string][]dict.Entry{
			"alpha": {{Word: "alpha", Meanings: []dict.Meaning{
				{PartOfSpeech: "noun", Definitions: defs("first word")},
			}}},
			"beta": {{Word: "beta", Meanings: []dict.Meaning{
				{PartOfSpeech: "noun", Definitions: defs("second word")},
			}}},
		},
	}
	p := newTestPanel(&fakeDetector{}, d, &fakeTranslator{})

	p.Run("alpha", "en", "en") // blocks inside Define
	waitStatus(t, p, StatusFetching)

	// Supersede it, then let both lookups complete.
	p.Run("beta", "en", "en")
	close(gate)
	waitStatus(t, p, StatusReady)

	time.Sleep(20 * time.Millisecond) // give the stale completion a chance to land
	snap := p.Snapshot()
	if got := snap.Meanings["noun"][0].Definition; got != "second word" {
		t.Errorf("displayed definition = %q, want the later request's result", got)
	}
	if p.Status() != StatusReady {
		t.Errorf("status = %v after stale completion, want ready", p.Status())
	}
}

func TestAutoDetectSkipsNonEnglish(t *testing.T) {
	det := &fakeDetector{result: DetectResult{Success: true, Language: "fr", Confidence: 0.98}}
	d := &fakeDict{}
	p := newTestPanel(det, d, &fakeTranslator{})

	p.Run("bonjour le monde", "auto", "en")
	waitStatus(t, p, StatusSkipped)

	if d.callCount() != 0 {
		t.Errorf("dictionary called %d times for skipped language", d.callCount())
	}
	msg := p.Msg()
	if msg.Kind != MessageInfo || !strings.Contains(msg.Text, "fr") {
		t.Errorf("message = %+v, want info naming the detected language", msg)
	}
}

func TestAutoDetectFailureFallsThroughToLookup(t *testing.T) {
	det := &fakeDetector{result: DetectResult{Success: false}}
	d := &fakeDict{entries: map[string][]dict.Entry{
		"hello": {{Word: "hello", Meanings: []dict.Meaning{
			{PartOfSpeech: "interjection", Definitions: defs("a greeting")},
		}}},
	}}
	p := newTestPanel(det, d, &fakeTranslator{})

	p.Run("hello", "auto", "en")
	waitStatus(t, p, StatusReady)

	if det.calls != 1 {
		t.Errorf("detector calls = %d, want 1", det.calls)
	}
	if d.callCount() != 1 {
		t.Errorf("dictionary calls = %d, want 1", d.callCount())
	}
}

func TestEmptyDictionaryResultOpensCustomPath(t *testing.T) {
	p := newTestPanel(&fakeDetector{}, &fakeDict{}, &fakeTranslator{})

	p.Run("zzghq", "en", "en")
	waitStatus(t, p, StatusReady)

	snap := p.Snapshot()
	if len(snap.PartsOfSpeech) != 1 || snap.PartsOfSpeech[0] != "noun" {
		t.Errorf("parts of speech = %v, want a single noun tab", snap.PartsOfSpeech)
	}
	if len(snap.Meanings["noun"]) != 0 {
		t.Errorf("meanings = %d, want 0", len(snap.Meanings["noun"]))
	}
	if msg := p.Msg(); msg.Kind != MessageInfo {
		t.Errorf("message kind = %v, want info", msg.Kind)
	}
}

func TestCachedEmptyResultKeepsInfoMessage(t *testing.T) {
	d := &fakeDict{}
	p := newTestPanel(&fakeDetector{}, d, &fakeTranslator{})

	p.Run("zzghq", "en", "en")
	waitStatus(t, p, StatusReady)
	first := p.Msg()

	// Revisit: served from cache, message included.
	p.Run("zzghq", "en", "en")
	waitStatus(t, p, StatusReady)

	if d.callCount() != 1 {
		t.Errorf("dictionary calls = %d, want 1 (cache hit)", d.callCount())
	}
	if msg := p.Msg(); msg.Kind != MessageInfo || msg.Text != first.Text {
		t.Errorf("cached revisit message = %+v, want %+v", msg, first)
	}
}

func TestLookupFailureReportsError(t *testing.T) {
	d := &fakeDict{err: context.DeadlineExceeded}
	p := newTestPanel(&fakeDetector{}, d, &fakeTranslator{})

	p.Run("whatever", "en", "en")
	waitStatus(t, p, StatusFailed)

	if msg := p.Msg(); msg.Kind != MessageError {
		t.Errorf("message kind = %v, want error", msg.Kind)
	}
}

func TestTranslateBranchChosenForDistinctPair(t *testing.T) {
	d := &fakeDict{}
	tr := &fakeTranslator{result: translate.Result{
		Definitions: []translate.Definition{{Definition: "hola"}},
	}}
	p := newTestPanel(&fakeDetector{}, d, tr)

	p.Run("hello", "en", "es")
	waitStatus(t, p, StatusReady)

	if d.callCount() != 0 {
		t.Errorf("dictionary called %d times on the translate branch", d.callCount())
	}
	snap := p.Snapshot()
	// Missing part of speech defaults to noun; the result arrives expanded
	// at the front of its tab.
	list := snap.Meanings["noun"]
	if len(list) != 1 || list[0].Definition != "hola" {
		t.Fatalf("noun meanings = %+v", list)
	}
	if !list[0].Expanded {
		t.Error("translated meaning not expanded")
	}
	if p.ActiveTab() != "noun" {
		t.Errorf("active tab = %q, want noun", p.ActiveTab())
	}
}

func TestTranslateInsertionDedupesByTrimmedText(t *testing.T) {
	tr := &fakeTranslator{result: translate.Result{
		PartOfSpeech: "noun",
		Definitions:  []translate.Definition{{Definition: "  hola "}},
	}}
	p := newTestPanel(&fakeDetector{}, &fakeDict{}, tr)

	p.mu.Lock()
	p.data.PartsOfSpeech = []string{"noun"}
	p.data.Meanings["noun"] = []*Meaning{{Definition: "hola"}}
	gen := p.gen
	p.mu.Unlock()

	p.fetchTranslation(context.Background(), gen, "hello", "en", "es")

	snap := p.Snapshot()
	if got := len(snap.Meanings["noun"]); got != 1 {
		t.Errorf("noun meanings = %d after duplicate insert, want 1", got)
	}
}

func TestAutoSourceNeverTranslates(t *testing.T) {
	det := &fakeDetector{result: DetectResult{Success: true, Language: "en"}}
	d := &fakeDict{entries: map[string][]dict.Entry{
		"run": {{Word: "run", Meanings: []dict.Meaning{
			{PartOfSpeech: "verb", Definitions: defs("to move quickly")},
		}}},
	}}
	tr := &fakeTranslator{}
	p := newTestPanel(det, d, tr)

	p.Run("run", "auto", "es")
	waitStatus(t, p, StatusReady)

	tr.mu.Lock()
	calls := tr.calls
	tr.mu.Unlock()
	if calls != 0 {
		t.Errorf("translator called %d times with auto source", calls)
	}
	if d.callCount() != 1 {
		t.Errorf("dictionary calls = %d, want 1", d.callCount())
	}
}

func TestBestPhoneticPrefersTextWithAudio(t *testing.T) {
	entries := []dict.Entry{
		{Phonetics: []dict.Phonetic{{Text: "/təˈmeɪtoʊ/"}}},
		{Phonetics: []dict.Phonetic{
			{Audio: "https://example.com/a.mp3"},
			{Text: "/təˈmɑːtoʊ/", Audio: "https://example.com/b.mp3"},
		}},
	}
	got := bestPhonetic(entries)
	if got == nil || got.Text != "/təˈmɑːtoʊ/" || got.AudioURL != "https://example.com/b.mp3" {
		t.Errorf("bestPhonetic = %+v, want the text+audio candidate", got)
	}

	if ph := bestPhonetic(nil); ph != nil {
		t.Errorf("bestPhonetic(nil) = %+v, want nil", ph)
	}
}

func TestMeaningTitleTruncation(t *testing.T) {
	long := strings.Repeat("x", 80)
	m := &Meaning{Definition: long + "\nsecond line"}
	title := m.Title()
	if !strings.HasSuffix(title, "…") {
		t.Errorf("title = %q, want ellipsis suffix", title)
	}
	if got := len([]rune(title)); got != titleLimit+1 {
		t.Errorf("title length = %d runes, want %d", got, titleLimit+1)
	}

	m.CustomTitle = "mine"
	if m.Title() != "mine" {
		t.Errorf("custom title not honored: %q", m.Title())
	}
}
