// Package learn implements the learn panel: the orchestration of language
// detection, dictionary lookup, and translation for a selected word, with
// per-language-pair caching and race-safe state transitions.
package learn

import (
	"context"
	"strings"

	"gloss/dict"
	"gloss/translate"
)

// Status is the fetch status of the panel for the current
// (text, source, target) triple.
type Status int

const (
	StatusIdle Status = iota
	StatusDetecting
	StatusSkipped
	StatusFetching
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusDetecting:
		return "detecting"
	case StatusSkipped:
		return "skipped"
	case StatusFetching:
		return "fetching"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Detector resolves the language of a piece of text. Implementations must
// resolve rather than fail: errors are reported through Success=false.
type Detector interface {
	DetectLanguage(ctx context.Context, text string) DetectResult
}

// DetectResult is the outcome of a language detection call.
type DetectResult struct {
	Success    bool
	Language   string
	Confidence float64
}

// Dictionary looks up a word. Unknown words return an empty slice, not an
// error.
type Dictionary interface {
	Define(ctx context.Context, word string) ([]dict.Entry, error)
}

// Translator translates a word between a language pair.
type Translator interface {
	Translate(ctx context.Context, req translate.Request) (translate.Result, error)
}

// AudioPlayer plays a pronunciation audio URL.
type AudioPlayer interface {
	Play(url string) error
}

// Phonetic is the pronunciation selected from a dictionary response.
type Phonetic struct {
	Text     string
	AudioURL string
}

// Meaning is one editable definition/example pair displayed within a
// part-of-speech tab.
type Meaning struct {
	// CustomTitle overrides the derived title when non-empty.
	CustomTitle string
	Definition  string
	Example     string
	Expanded    bool
	// Marked flags the meaning for inclusion when the learn result is
	// saved. Toggling it never removes the entry from its list.
	Marked bool
}

const titleLimit = 60

// Title returns the display title: the custom title if set, otherwise the
// first line of the definition truncated to 60 characters with an ellipsis.
func (m *Meaning) Title() string {
	if m.CustomTitle != "" {
		return m.CustomTitle
	}
	first := m.Definition
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	runes := []rune(first)
	if len(runes) > titleLimit {
		return string(runes[:titleLimit]) + "…"
	}
	return first
}

// Entry is the shaped lookup result for one (text, source, target) triple.
// Cached entries are immutable snapshots: consumers deep-clone before
// mutating so toggling expanded/marked flags on a displayed copy never
// corrupts a cached entry that might be restored later.
type Entry struct {
	Meanings      map[string][]*Meaning // keyed by part of speech
	PartsOfSpeech []string              // first-seen order
	Synonyms      []string              // global, de-duplicated
	Antonyms      []string              // global, de-duplicated
	Phonetic      *Phonetic
}

// NewEntry creates an empty entry.
func NewEntry() *Entry {
	return &Entry{Meanings: make(map[string][]*Meaning)}
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := &Entry{
		Meanings:      make(map[string][]*Meaning, len(e.Meanings)),
		PartsOfSpeech: append([]string(nil), e.PartsOfSpeech...),
		Synonyms:      append([]string(nil), e.Synonyms...),
		Antonyms:      append([]string(nil), e.Antonyms...),
	}
	for pos, list := range e.Meanings {
		cloned := make([]*Meaning, len(list))
		for i, m := range list {
			mc := *m
			cloned[i] = &mc
		}
		c.Meanings[pos] = cloned
	}
	if e.Phonetic != nil {
		p := *e.Phonetic
		c.Phonetic = &p
	}
	return c
}

// MessageKind distinguishes benign notices from genuine failures.
type MessageKind int

const (
	MessageNone MessageKind = iota
	MessageInfo
	MessageError
)

// Message is the panel's single inline message slot. The latest status
// overwrites the previous one; messages are never stacked.
type Message struct {
	Kind MessageKind
	Text string
}

// cacheKey identifies a cached lookup for one language pair.
func cacheKey(text, source, target string) string {
	return text + "|" + source + "|" + target
}

// firstLine returns the first line of the selection, which is what gets sent
// to language detection.
func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}
