package llm

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/google/uuid"
)

// ClaudeCode implements Provider by shelling out to the claude CLI, for
// users with the CLI installed and no API key configured.
type ClaudeCode struct {
	cliPath string
}

// NewClaudeCode creates a CLI-backed provider.
func NewClaudeCode() *ClaudeCode {
	return &ClaudeCode{}
}

// Name returns the provider name.
func (c *ClaudeCode) Name() string {
	return "claude-cli"
}

// Available checks if the claude CLI is on PATH.
func (c *ClaudeCode) Available() bool {
	path, err := exec.LookPath("claude")
	if err != nil {
		return false
	}
	c.cliPath = path
	return true
}

// CompleteWithSystem sends a single prompt through the CLI.
func (c *ClaudeCode) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	return c.run(ctx, system, prompt)
}

// CompleteConversation replays the user turns into one CLI session so the
// model keeps the conversation context.
func (c *ClaudeCode) CompleteConversation(ctx context.Context, system string, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", nil
	}

	sessionID := uuid.NewString()
	var lastResponse string
	first := true

	for _, msg := range messages {
		if msg.Role != "user" {
			continue // assistant turns already live in the session
		}

		args := []string{"--print", "--session-id", sessionID}
		if first && system != "" {
			args = append(args, "--system-prompt", system)
		}
		first = false
		args = append(args, msg.Content)

		out, err := c.exec(ctx, args)
		if err != nil {
			return "", err
		}
		lastResponse = out
	}
	return lastResponse, nil
}

func (c *ClaudeCode) run(ctx context.Context, system, prompt string) (string, error) {
	args := []string{"--print"}
	if system != "" {
		args = append(args, "--system-prompt", system)
	}
	args = append(args, prompt)
	return c.exec(ctx, args)
}

func (c *ClaudeCode) exec(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, c.cliPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return "", &CLIError{Err: err, Stderr: stderr.String()}
		}
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}

// CLIError wraps CLI execution failures with their stderr output.
type CLIError struct {
	Err    error
	Stderr string
}

func (e *CLIError) Error() string {
	if e.Stderr != "" {
		return e.Err.Error() + ": " + e.Stderr
	}
	return e.Err.Error()
}

func (e *CLIError) Unwrap() error {
	return e.Err
}
