package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gloss/input"
	"gloss/llm"
)

type fakeCompleter struct {
	reply     string
	err       error
	available bool
	calls     chan []llm.Message
}

func (f *fakeCompleter) Available() bool { return f.available }

func (f *fakeCompleter) CompleteConversation(ctx context.Context, system string, messages []llm.Message) (string, error) {
	if f.calls != nil {
		f.calls <- messages
	}
	return f.reply, f.err
}

func newTestPanel(c Completer) (*Panel, *input.Router) {
	reg := input.NewRegistry()
	p := NewPanel("ephemeral", "the ephemeral nature of fame", Deps{Client: c, Registry: reg})
	return p, input.NewRouter(reg)
}

func waitIdle(t *testing.T, p *Panel) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !p.Waiting() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("completion never finished")
}

func TestFirstTurnCarriesSelectionContext(t *testing.T) {
	f := &fakeCompleter{available: true, reply: "it means short-lived", calls: make(chan []llm.Message, 1)}
	p, router := newTestPanel(f)

	for _, r := range "what does it mean?" {
		router.Route(input.Key{Rune: r})
	}
	p.HandleKey(input.Key{Special: input.SpecEnter})

	sent := <-f.calls
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if !strings.Contains(sent[0].Content, "ephemeral") {
		t.Errorf("first turn missing selection: %q", sent[0].Content)
	}
	if !strings.Contains(sent[0].Content, "what does it mean?") {
		t.Errorf("first turn missing question: %q", sent[0].Content)
	}

	waitIdle(t, p)
	msgs := p.Messages()
	if len(msgs) != 2 || msgs[1].Role != "assistant" || msgs[1].Content != "it means short-lived" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestEmptyPromptNotSent(t *testing.T) {
	f := &fakeCompleter{available: true, calls: make(chan []llm.Message, 1)}
	p, _ := newTestPanel(f)

	p.HandleKey(input.Key{Special: input.SpecEnter})

	select {
	case <-f.calls:
		t.Error("empty prompt reached the provider")
	case <-time.After(50 * time.Millisecond):
	}
	if len(p.Messages()) != 0 {
		t.Errorf("messages = %+v", p.Messages())
	}
}

func TestCompletionErrorSurfaced(t *testing.T) {
	f := &fakeCompleter{available: true, err: errors.New("rate limited")}
	p, router := newTestPanel(f)

	for _, r := range "hi" {
		router.Route(input.Key{Rune: r})
	}
	p.HandleKey(input.Key{Special: input.SpecEnter})
	waitIdle(t, p)

	if !strings.Contains(p.Err(), "rate limited") {
		t.Errorf("err = %q", p.Err())
	}
	// The user turn stays in the transcript so it can be retried.
	if len(p.Messages()) != 1 {
		t.Errorf("messages = %+v", p.Messages())
	}
}

func TestUnavailableProviderReportsSetupHint(t *testing.T) {
	f := &fakeCompleter{available: false}
	p, router := newTestPanel(f)

	for _, r := range "hi" {
		router.Route(input.Key{Rune: r})
	}
	p.HandleKey(input.Key{Special: input.SpecEnter})

	if !strings.Contains(p.Err(), "API key") {
		t.Errorf("err = %q, want setup hint", p.Err())
	}
	if p.Waiting() {
		t.Error("panel stuck waiting with no provider")
	}
}

func TestDestroyDiscardsLateReply(t *testing.T) {
	f := &fakeCompleter{available: true, reply: "late", calls: make(chan []llm.Message)}
	p, router := newTestPanel(f)

	for _, r := range "hi" {
		router.Route(input.Key{Rune: r})
	}
	p.HandleKey(input.Key{Special: input.SpecEnter})

	p.Destroy()
	<-f.calls // release the in-flight completion

	time.Sleep(20 * time.Millisecond)
	for _, m := range p.Messages() {
		if m.Role == "assistant" {
			t.Errorf("assistant reply landed after destroy: %+v", m)
		}
	}
}
