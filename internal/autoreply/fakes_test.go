package autoreply

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

type call struct {
	Op   string
	Msg  string
	Text string
}

type fakeTransport struct {
	mu sync.Mutex

	calls    []call
	inflight int
	maxSeen  int

	contact    Contact
	contactErr error
	seenErr    error
	typingErr  error
	replyErr   error
	sendErr    error
}

func (f *fakeTransport) record(op string, msg *InboundMessage, text string) {
	id := ""
	if msg != nil {
		id = msg.ID
	}
	f.calls = append(f.calls, call{Op: op, Msg: id, Text: text})
}

func (f *fakeTransport) Contact(_ context.Context, msg *InboundMessage) (Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("contact", msg, "")
	return f.contact, f.contactErr
}

func (f *fakeTransport) MarkSeen(_ context.Context, msg *InboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("seen", msg, "")
	f.inflight++
	f.maxSeen = max(f.maxSeen, f.inflight)
	return f.seenErr
}

func (f *fakeTransport) StartTyping(_ context.Context, msg *InboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("typing", msg, "")
	return f.typingErr
}

func (f *fakeTransport) StopTyping(_ context.Context, msg *InboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("clear", msg, "")
	return f.typingErr
}

func (f *fakeTransport) Reply(_ context.Context, msg *InboundMessage, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("reply", msg, text)
	if f.replyErr == nil {
		f.inflight--
	}
	return f.replyErr
}

func (f *fakeTransport) Send(_ context.Context, chatID string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Op: "send", Msg: chatID, Text: text})
	f.inflight--
	return f.sendErr
}

func (f *fakeTransport) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeTransport) Ops(op string) []call {
	var out []call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// fakeAI answers prompts in order: style prompts get style, reply prompts get reply.
type fakeAI struct {
	mu       sync.Mutex
	style    string
	styleErr error
	reply    string
	replyErr error
	prompts  []string
	block    bool
}

func (f *fakeAI) GetReply(ctx context.Context, _ string, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}

	if isStylePrompt(prompt) {
		return f.style, f.styleErr
	}
	return f.reply, f.replyErr
}

func (f *fakeAI) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func isStylePrompt(p string) bool {
	return len(p) >= len(styleSelectorHeader) && p[:len(styleSelectorHeader)] == styleSelectorHeader
}

// staticCompleter returns a fixed reply.
type staticCompleter struct {
	mu    sync.Mutex
	reply Reply
	seen  [][]string
}

func (s *staticCompleter) GetReply(_ context.Context, _, _, _ string, history []string) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, history)
	return s.reply
}

var errBoom = errors.New("boom")

func textMessage(id, sender, body string) *InboundMessage {
	return &InboundMessage{
		ID:       id,
		ChatID:   sender + "@s.whatsapp.net",
		SenderID: sender,
		Body:     body,
		Kind:     KindText,
	}
}
