// Package record persists saved selections: what was selected, where, the
// tags and comment attached to it, and any dictionary meanings marked for
// keeping.
package record

import (
	"time"

	"github.com/google/uuid"
)

// Record types.
const (
	TypeNote  = "note"
	TypeLearn = "learn"
)

// MeaningRecord is one kept dictionary meaning.
type MeaningRecord struct {
	PartOfSpeech string `json:"partOfSpeech"`
	Title        string `json:"title"`
	Definition   string `json:"definition"`
}

// Record is one saved selection.
type Record struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	SourceURL string          `json:"sourceUrl"`
	Tags      []string        `json:"tags,omitempty"`
	Comment   string          `json:"comment,omitempty"`
	Meanings  []MeaningRecord `json:"meanings,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Finalize assigns an id and timestamp to a record that lacks them.
func (r *Record) Finalize() {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}
