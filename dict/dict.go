// Package dict provides a dictionary lookup client using the Free Dictionary
// API.
package dict

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIURL  = "https://api.dictionaryapi.dev/api/v2/entries/en/"
	defaultTimeout = 5 * time.Second
)

// Phonetic represents pronunciation info.
type Phonetic struct {
	Text  string `json:"text"`
	Audio string `json:"audio"`
}

// Definition represents a single definition from the API.
type Definition struct {
	Definition string   `json:"definition"`
	Example    string   `json:"example"`
	Synonyms   []string `json:"synonyms"`
	Antonyms   []string `json:"antonyms"`
}

// Meaning represents a part of speech and its definitions.
type Meaning struct {
	PartOfSpeech string       `json:"partOfSpeech"`
	Definitions  []Definition `json:"definitions"`
	Synonyms     []string     `json:"synonyms"`
	Antonyms     []string     `json:"antonyms"`
}

// Entry represents a dictionary entry for a word.
type Entry struct {
	Word      string     `json:"word"`
	Phonetic  string     `json:"phonetic"`
	Phonetics []Phonetic `json:"phonetics"`
	Meanings  []Meaning  `json:"meanings"`
}

// Client is a dictionary API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new dictionary client.
func NewClient() *Client {
	return &Client{
		baseURL:    defaultAPIURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// WithBaseURL points the client at a different endpoint.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// Define looks up a word and returns its entries. An unknown word returns an
// empty slice, not an error.
func (c *Client) Define(ctx context.Context, word string) ([]Entry, error) {
	reqURL := strings.TrimRight(c.baseURL, "/") + "/" + url.PathEscape(word)

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching definition: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Word not found.
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dictionary API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return entries, nil
}
