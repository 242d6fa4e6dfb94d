// Package chat implements the ask panel: a conversation with a language
// model about the selected text, in the context of the page it came from.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gloss/input"
	"gloss/lineedit"
	"gloss/llm"
	"gloss/render"
)

const systemPrompt = "You are helping someone read an article in a terminal. " +
	"They have selected a piece of text and want to understand it better. " +
	"Answer concisely in plain text; no markdown."

// Completer is the conversation half of the llm client, abstracted for
// tests.
type Completer interface {
	Available() bool
	CompleteConversation(ctx context.Context, system string, messages []llm.Message) (string, error)
}

// Deps carries the panel's collaborators.
type Deps struct {
	Client       Completer
	Registry     *input.Registry
	NotifyResize func()
	RequestFrame func()
}

// Panel is the ask surface: the selection, the conversation so far, and a
// prompt line.
type Panel struct {
	mu sync.Mutex

	client       Completer
	registry     *input.Registry
	notifyResize func()
	requestFrame func()

	text     string
	pageCtx  string
	messages []llm.Message
	waiting  bool
	errText  string

	editor    *lineedit.Editor
	fieldID   string
	gen       int
	destroyed bool
	scrollTop int
	spinner   int
}

// NewPanel builds an ask panel for the selected text and its surrounding
// page context. The prompt field starts focused.
func NewPanel(text, pageContext string, deps Deps) *Panel {
	p := &Panel{
		client:       deps.Client,
		registry:     deps.Registry,
		notifyResize: deps.NotifyResize,
		requestFrame: deps.RequestFrame,
		text:         text,
		pageCtx:      pageContext,
		editor:       lineedit.New(),
		fieldID:      "chat.prompt",
	}
	if p.registry != nil {
		p.registry.Register(p.fieldID, p.editor)
		p.registry.Focus(p.fieldID)
	}
	return p
}

// Messages returns a copy of the conversation.
func (p *Panel) Messages() []llm.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.Message(nil), p.messages...)
}

// Waiting reports whether a completion is in flight.
func (p *Panel) Waiting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waiting
}

// Err returns the last completion error text, if any.
func (p *Panel) Err() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errText
}

// Send submits the prompt field as the next user turn and requests a
// completion asynchronously. A send while one is in flight is ignored.
func (p *Panel) Send() {
	question := strings.TrimSpace(p.editor.Text())
	if question == "" {
		return
	}

	p.mu.Lock()
	if p.waiting || p.destroyed {
		p.mu.Unlock()
		return
	}
	if p.client == nil || !p.client.Available() {
		p.errText = "no assistant configured; set an API key"
		p.mu.Unlock()
		p.changed()
		return
	}
	p.editor.Clear()
	// The first turn carries the selection and its context.
	if len(p.messages) == 0 {
		question = fmt.Sprintf("Selected text: %q\nContext: %q\n\n%s", p.text, p.pageCtx, question)
	}
	p.messages = append(p.messages, llm.Message{Role: "user", Content: question})
	p.waiting = true
	p.errText = ""
	p.gen++
	gen := p.gen
	history := append([]llm.Message(nil), p.messages...)
	p.mu.Unlock()
	p.changed()

	go func() {
		reply, err := p.client.CompleteConversation(context.Background(), systemPrompt, history)
		p.mu.Lock()
		if gen != p.gen || p.destroyed {
			p.mu.Unlock()
			return
		}
		p.waiting = false
		if err != nil {
			p.errText = "assistant error: " + err.Error()
		} else {
			p.messages = append(p.messages, llm.Message{Role: "assistant", Content: reply})
		}
		p.mu.Unlock()
		p.changed()
	}()
}

func (p *Panel) changed() {
	if p.notifyResize != nil {
		p.notifyResize()
	}
	if p.requestFrame != nil {
		p.requestFrame()
	}
}

// Title implements the host popup's panel contract.
func (p *Panel) Title() string {
	return "Ask: " + render.Truncate(p.text, 24)
}

// PreferredSize reports the panel's natural size for the conversation so
// far.
func (p *Panel) PreferredSize(maxW, maxH int) (int, int) {
	w := 56
	if w > maxW {
		w = maxW
	}
	p.mu.Lock()
	h := 2 // selection line + prompt line
	for _, m := range p.messages {
		h += len(render.WrapText(m.Content, w-4)) + 1
	}
	if p.waiting || p.errText != "" {
		h++
	}
	p.mu.Unlock()
	if h < 6 {
		h = 6
	}
	if h > maxH {
		h = maxH
	}
	return w, h
}

var spinnerFrames = []rune{'|', '/', '-', '\\'}

// Draw renders the conversation with the prompt pinned to the bottom row.
func (p *Panel) Draw(c *render.Canvas, x, y, w, h int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c.WriteString(x, y, render.Truncate("› "+p.text, w), render.Style{Dim: true})

	// Conversation body between header and prompt.
	bodyTop := y + 1
	bodyH := h - 2
	row := -p.scrollTop
	put := func(line string, style render.Style) {
		if row >= 0 && row < bodyH {
			c.WriteString(x, bodyTop+row, line, style)
		}
		row++
	}

	for _, m := range p.messages {
		label := "you"
		style := render.Style{Bold: true}
		if m.Role == "assistant" {
			label = "ai"
			style = render.Style{}
		}
		content := m.Content
		if strings.HasPrefix(content, "Selected text:") {
			// Show only the question part of the seeded first turn.
			if i := strings.Index(content, "\n\n"); i >= 0 {
				content = content[i+2:]
			}
		}
		lines := render.WrapText(content, w-4)
		for i, ln := range lines {
			if i == 0 {
				put(render.TruncateToWidth(label+": "+ln, w), style)
			} else {
				put("    "+ln, style)
			}
		}
		row++ // blank line between turns
	}

	if p.waiting {
		p.spinner = (p.spinner + 1) % len(spinnerFrames)
		put(string(spinnerFrames[p.spinner])+" thinking", render.Style{Dim: true})
		if p.requestFrame != nil {
			p.requestFrame()
		}
	} else if p.errText != "" {
		put(render.Truncate(p.errText, w), render.Style{Bold: true})
	}

	// Keep the newest turns visible.
	if overflow := row - bodyH; overflow > p.scrollTop {
		p.scrollTop = overflow
	}

	prompt := "> " + p.editor.Text()
	c.WriteString(x, y+h-1, render.TruncateToWidth(prompt, w), render.Style{})
}

// HandleKey processes control keys. Printable characters flow into the
// prompt field through the focus registry.
func (p *Panel) HandleKey(k input.Key) bool {
	focused := false
	if p.registry != nil {
		if id, _, ok := p.registry.Focused(); ok && id == p.fieldID {
			focused = true
		}
	}
	if !focused {
		if k.Special == input.SpecEnter && p.registry != nil {
			p.registry.Focus(p.fieldID)
			return true
		}
		return false
	}

	switch k.Special {
	case input.SpecEnter:
		p.Send()
	case input.SpecBackspace:
		p.editor.DeleteBackward()
	case input.SpecDelete:
		p.editor.DeleteForward()
	case input.SpecLeft:
		p.editor.Left()
	case input.SpecRight:
		p.editor.Right()
	case input.SpecHome:
		p.editor.Home()
	case input.SpecEnd:
		p.editor.End()
	case input.SpecUp:
		p.mu.Lock()
		if p.scrollTop > 0 {
			p.scrollTop--
		}
		p.mu.Unlock()
	case input.SpecDown:
		p.mu.Lock()
		p.scrollTop++
		p.mu.Unlock()
	default:
		return false
	}
	if p.requestFrame != nil {
		p.requestFrame()
	}
	return true
}

// HandlePointer focuses the prompt on any click inside the panel.
func (p *Panel) HandlePointer(pt input.Pointer, originX, originY int) bool {
	if pt.Kind != input.PointerDown {
		return false
	}
	if p.registry != nil {
		p.registry.Focus(p.fieldID)
	}
	return true
}

// Destroy releases the prompt field and invalidates in-flight completions.
func (p *Panel) Destroy() {
	p.mu.Lock()
	p.destroyed = true
	p.gen++
	p.mu.Unlock()
	if p.registry == nil {
		return
	}
	if id, _, ok := p.registry.Focused(); ok && id == p.fieldID {
		p.registry.Blur()
	}
	p.registry.Unregister(p.fieldID)
}
