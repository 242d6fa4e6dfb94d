package learn

import (
	"context"
	"fmt"
	"strings"

	"gloss/dict"
	"gloss/translate"
)

// cachedLookup is one finished lookup: the shaped entry plus the inline
// message it ended with, so a revisit shows exactly what the first visit
// showed (the "no meanings found" hint included).
type cachedLookup struct {
	entry *Entry
	msg   Message
}

// Run starts the detect → lookup/translate → populate chain for a new
// (text, source, target) triple. Displayed state is cleared synchronously
// before anything asynchronous happens, so results from a previous pair can
// never linger; a generation counter makes completions from superseded
// chains no-ops.
func (p *Panel) Run(text, source, target string) {
	text = strings.TrimSpace(text)

	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.text, p.source, p.target = text, source, target
	p.data = NewEntry()
	p.activeTab = ""
	p.status = StatusIdle
	p.msg = Message{}
	p.resetViewLocked()

	key := cacheKey(text, source, target)
	if cached, ok := p.cache[key]; ok {
		p.data = cached.entry.Clone()
		p.status = StatusReady
		p.msg = cached.msg
		if len(p.data.PartsOfSpeech) > 0 {
			p.activeTab = p.data.PartsOfSpeech[0]
		}
		p.mu.Unlock()
		p.contentChanged()
		return
	}
	p.mu.Unlock()
	p.contentChanged()

	go p.fetch(gen, text, source, target)
}

func (p *Panel) fetch(gen int, text, source, target string) {
	ctx := context.Background()

	if source == "auto" {
		if !p.transition(gen, StatusDetecting, Message{}) {
			return
		}
		det := p.detector.DetectLanguage(ctx, firstLine(text))
		if det.Success && det.Language != "en" {
			p.transition(gen, StatusSkipped, Message{
				Kind: MessageInfo,
				Text: fmt.Sprintf("this looks like %q; dictionary lookup covers English only", det.Language),
			})
			return
		}
		// Detection failure falls through to the lookup rather than
		// blocking the user.
	}

	if !p.transition(gen, StatusFetching, Message{}) {
		return
	}

	if target != source && source != "auto" {
		p.fetchTranslation(ctx, gen, text, source, target)
		return
	}
	p.fetchDictionary(ctx, gen, text, source, target)
}

func (p *Panel) fetchDictionary(ctx context.Context, gen int, text, source, target string) {
	entries, err := p.dictionary.Define(ctx, text)
	if err != nil {
		p.transition(gen, StatusFailed, Message{
			Kind: MessageError,
			Text: "lookup failed; check your connection and try again",
		})
		return
	}

	if len(entries) == 0 {
		// Valid response, zero entries: a distinct UX path, not a failure.
		empty := NewEntry()
		empty.PartsOfSpeech = []string{"noun"}
		empty.Meanings["noun"] = nil
		p.complete(gen, cacheKey(text, source, target), empty, "noun", Message{
			Kind: MessageInfo,
			Text: "no meanings found; add a custom definition",
		})
		return
	}

	built := buildEntry(entries)
	active := ""
	if len(built.PartsOfSpeech) > 0 {
		active = built.PartsOfSpeech[0]
	}
	p.complete(gen, cacheKey(text, source, target), built, active, Message{})
}

func (p *Panel) fetchTranslation(ctx context.Context, gen int, text, source, target string) {
	res, err := p.translator.Translate(ctx, translate.Request{
		Word:   text,
		Source: source,
		Target: target,
	})
	if err != nil {
		p.transition(gen, StatusFailed, Message{
			Kind: MessageError,
			Text: "translation failed; check your connection and try again",
		})
		return
	}

	var defText string
	if len(res.Definitions) > 0 {
		defText = strings.TrimSpace(res.Definitions[0].Definition)
	}
	if defText == "" {
		p.transition(gen, StatusFailed, Message{
			Kind: MessageError,
			Text: "translation returned no result",
		})
		return
	}

	pos := res.PartOfSpeech
	if pos == "" {
		pos = "noun"
	}

	p.mu.Lock()
	if gen != p.gen || p.destroyed {
		p.mu.Unlock()
		return
	}
	list := p.data.Meanings[pos]
	if !containsDefinition(list, defText) {
		// The translated meaning goes at the front of its tab.
		m := &Meaning{Definition: defText, Expanded: true}
		p.data.Meanings[pos] = append([]*Meaning{m}, list...)
	}
	if !containsString(p.data.PartsOfSpeech, pos) {
		p.data.PartsOfSpeech = append(p.data.PartsOfSpeech, pos)
	}
	p.activeTab = pos
	p.status = StatusReady
	p.msg = Message{}
	p.cache[cacheKey(text, source, target)] = cachedLookup{entry: p.data.Clone()}
	p.mu.Unlock()
	p.contentChanged()
}

// transition applies a status and message if the chain is still current.
// Returns false when the completion has been superseded.
func (p *Panel) transition(gen int, status Status, msg Message) bool {
	p.mu.Lock()
	defer func() {
		p.mu.Unlock()
		p.contentChanged()
	}()
	if gen != p.gen || p.destroyed {
		return false
	}
	p.status = status
	p.msg = msg
	return true
}

// complete installs a built entry, caches a deep-cloned snapshot, and ends
// in Ready. Superseded chains discard the result entirely.
func (p *Panel) complete(gen int, key string, built *Entry, activeTab string, msg Message) {
	p.mu.Lock()
	if gen != p.gen || p.destroyed {
		p.mu.Unlock()
		return
	}
	p.data = built
	p.activeTab = activeTab
	p.status = StatusReady
	p.msg = msg
	p.cache[key] = cachedLookup{entry: built.Clone(), msg: msg}
	p.mu.Unlock()
	p.contentChanged()
}

// buildEntry shapes raw dictionary entries into panel data: parts of speech
// in first-seen order, meanings flattened per part of speech, global
// de-duplicated synonym/antonym sets, and the best phonetic across all
// entries.
func buildEntry(entries []dict.Entry) *Entry {
	e := NewEntry()
	seenSyn := make(map[string]bool)
	seenAnt := make(map[string]bool)

	addSyns := func(words []string) {
		for _, w := range words {
			w = strings.TrimSpace(w)
			if w == "" || seenSyn[w] {
				continue
			}
			seenSyn[w] = true
			e.Synonyms = append(e.Synonyms, w)
		}
	}
	addAnts := func(words []string) {
		for _, w := range words {
			w = strings.TrimSpace(w)
			if w == "" || seenAnt[w] {
				continue
			}
			seenAnt[w] = true
			e.Antonyms = append(e.Antonyms, w)
		}
	}

	for _, entry := range entries {
		for _, m := range entry.Meanings {
			pos := m.PartOfSpeech
			if pos == "" {
				pos = "noun"
			}
			if _, ok := e.Meanings[pos]; !ok {
				e.PartsOfSpeech = append(e.PartsOfSpeech, pos)
				e.Meanings[pos] = nil
			}
			for _, d := range m.Definitions {
				e.Meanings[pos] = append(e.Meanings[pos], &Meaning{
					Definition: d.Definition,
					Example:    d.Example,
				})
				addSyns(d.Synonyms)
				addAnts(d.Antonyms)
			}
			addSyns(m.Synonyms)
			addAnts(m.Antonyms)
		}
	}

	e.Phonetic = bestPhonetic(entries)
	return e
}

// bestPhonetic selects the pronunciation across all entries with strict
// preference: text+audio over audio-only over text-only. First seen wins
// within a rank.
func bestPhonetic(entries []dict.Entry) *Phonetic {
	var best *Phonetic
	bestRank := 0

	for _, entry := range entries {
		for _, ph := range entry.Phonetics {
			rank := 0
			switch {
			case ph.Text != "" && ph.Audio != "":
				rank = 3
			case ph.Audio != "":
				rank = 2
			case ph.Text != "":
				rank = 1
			}
			if rank > bestRank {
				bestRank = rank
				best = &Phonetic{Text: ph.Text, AudioURL: ph.Audio}
			}
		}
	}

	return best
}

func containsDefinition(list []*Meaning, trimmed string) bool {
	for _, m := range list {
		if strings.TrimSpace(m.Definition) == trimmed {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
