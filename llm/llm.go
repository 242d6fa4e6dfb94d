// Package llm abstracts the language model behind the ask panel.
package llm

import (
	"context"
	"errors"
)

// ErrNoProvider is returned when no provider is configured or available.
var ErrNoProvider = errors.New("no LLM provider available")

// Message is a single turn in a conversation.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Provider is a language model backend.
type Provider interface {
	// Name returns the provider name for display and logging.
	Name() string

	// Available checks if this provider is ready to use.
	Available() bool

	// CompleteWithSystem sends a single prompt with a system message.
	CompleteWithSystem(ctx context.Context, system, prompt string) (string, error)

	// CompleteConversation sends a multi-turn conversation. Messages
	// alternate between user and assistant roles.
	CompleteConversation(ctx context.Context, system string, messages []Message) (string, error)
}

// Client selects the first available provider from an ordered list.
type Client struct {
	providers []Provider
}

// NewClient creates a client. Providers are tried in order of preference.
func NewClient(providers ...Provider) *Client {
	return &Client{providers: providers}
}

// Provider returns the active provider, or nil when none is available.
func (c *Client) Provider() Provider {
	for _, p := range c.providers {
		if p.Available() {
			return p
		}
	}
	return nil
}

// Available reports whether any provider is usable.
func (c *Client) Available() bool {
	return c.Provider() != nil
}

// CompleteWithSystem sends a prompt to the best available provider.
func (c *Client) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	p := c.Provider()
	if p == nil {
		return "", ErrNoProvider
	}
	return p.CompleteWithSystem(ctx, system, prompt)
}

// CompleteConversation sends a conversation to the best available provider.
func (c *Client) CompleteConversation(ctx context.Context, system string, messages []Message) (string, error) {
	p := c.Provider()
	if p == nil {
		return "", ErrNoProvider
	}
	return p.CompleteConversation(ctx, system, messages)
}
