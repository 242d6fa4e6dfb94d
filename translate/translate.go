// Package translate provides word translation and language detection using
// the Lingva Translate API.
package translate

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

const defaultTimeout = 5 * time.Second

// Known working Lingva instances, tried in order.
var defaultInstances = []string{
	"https://translate.plausibility.cloud",
}

// Request describes a single word translation.
type Request struct {
	Word    string
	Source  string // ISO code or "auto"
	Target  string
	Context string // optional surrounding text, unused by Lingva
}

// Definition is one translated definition.
type Definition struct {
	Definition string
}

// Result is the outcome of a translation. On failure the client returns a
// best-effort shape with an empty definition rather than an error where it
// can.
type Result struct {
	PartOfSpeech   string
	Definitions    []Definition
	DetectedSource string
}

// Detection is the outcome of a language detection call. Detection never
// returns an error to the caller; failures are reported via Success=false.
type Detection struct {
	Success    bool
	Language   string
	Confidence float64
}

// Client is a translation API client.
type Client struct {
	instances  []string
	httpClient *http.Client
}

// NewClient creates a new translation client.
func NewClient() *Client {
	return &Client{
		instances:  defaultInstances,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// WithInstances replaces the instance list, for config overrides and tests.
func (c *Client) WithInstances(instances ...string) *Client {
	c.instances = instances
	return c
}

type lingvaResponse struct {
	Translation string `json:"translation"`
	Info        struct {
		DetectedSource string `json:"detectedSource"`
	} `json:"info"`
}

// Translate translates a single word. The response carries the translated
// text as its first definition; Lingva does not expose a part of speech, so
// PartOfSpeech is left empty for the caller to default.
func (c *Client) Translate(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Word) == "" {
		return Result{Definitions: []Definition{{}}}, nil
	}

	source := req.Source
	if source == "" {
		source = "auto"
	}

	resp, err := c.call(ctx, source, req.Target, req.Word)
	if err != nil {
		return Result{Definitions: []Definition{{}}}, err
	}

	return Result{
		Definitions:    []Definition{{Definition: resp.Translation}},
		DetectedSource: resp.Info.DetectedSource,
	}, nil
}

// Detect determines the language of the given text by asking Lingva to
// auto-detect during a throwaway translation. It never returns an error;
// failures resolve to Success=false.
func (c *Client) Detect(ctx context.Context, text string) Detection {
	text = strings.TrimSpace(text)
	if text == "" {
		return Detection{}
	}

	resp, err := c.call(ctx, "auto", "en", text)
	if err != nil || resp.Info.DetectedSource == "" {
		return Detection{}
	}

	// Lingva reports a single detected code without a confidence score;
	// treat a definite answer as high confidence.
	return Detection{Success: true, Language: resp.Info.DetectedSource, Confidence: 1}
}

func (c *Client) call(ctx context.Context, source, target, text string) (lingvaResponse, error) {
	encoded := url.PathEscape(text)

	var lastErr error
	for _, instance := range c.instances {
		reqURL := fmt.Sprintf("%s/api/v1/%s/%s/%s", instance, source, target, encoded)

		req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
		if err != nil {
			lastErr = err
			continue
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("%s returned %d", instance, resp.StatusCode)
			continue
		}

		var result lingvaResponse
		if err := json.Unmarshal(body, &result); err != nil {
			lastErr = err
			continue
		}

		return result, nil
	}

	return lingvaResponse{}, fmt.Errorf("all instances failed: %v", lastErr)
}
