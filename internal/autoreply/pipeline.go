package autoreply

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type PipelineConfig struct {
	// Capacity bounds the queue; the oldest item is discarded when full. 0 = unbounded.
	Capacity int
	Limits   WordLimits
	Seen     SeenPolicy
	Typing   TypingPolicy

	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Pipeline is a FIFO queue drained by one worker. At most one item is between
// its seen delay and delivery at any time.
type Pipeline struct {
	transport Transport
	completer Completer
	history   History
	cfg       PipelineConfig
	log       *log.Logger

	mu     sync.Mutex
	queue  []*QueuedItem
	active *QueuedItem
	wake   chan struct{}
}

func NewPipeline(
	transport Transport,
	completer Completer,
	history History,
	cfg PipelineConfig,
	logger *log.Logger,
) *Pipeline {
	if cfg.Limits == nil {
		cfg.Limits = CompactWordLimits
	}
	if cfg.Seen == nil {
		cfg.Seen = NewRecencySeen(nil)
	}
	if cfg.Typing == nil {
		cfg.Typing = TieredTyping
	}
	if cfg.Sleep == nil {
		cfg.Sleep = Sleep
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Pipeline{
		transport: transport,
		completer: completer,
		history:   history,
		cfg:       cfg,
		log:       logger.WithPrefix("pipeline"),
		wake:      make(chan struct{}, 1),
	}
}

// Enqueue appends item and wakes the worker. It returns the item discarded
// to make room, if any.
func (p *Pipeline) Enqueue(item *QueuedItem) (dropped *QueuedItem) {
	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = p.cfg.Now()
	}

	p.mu.Lock()
	if p.cfg.Capacity > 0 && len(p.queue) >= p.cfg.Capacity {
		dropped = p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
	}
	p.queue = append(p.queue, item)
	depth := len(p.queue)
	p.mu.Unlock()

	if dropped != nil {
		p.log.Warn("queue full, discarded oldest item",
			"item", dropped.ID, "sender", dropped.Message.SenderID)
	}
	p.log.Debug("queued", "item", item.ID, "sender", item.Message.SenderID, "depth", depth)

	select {
	case p.wake <- struct{}{}:
	default:
	}
	return dropped
}

// Len is the number of items waiting, not counting the active one.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Pipeline) Processing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

// Run drains the queue until ctx is done. An idle queue costs no timers.
// Pending delays are abandoned on shutdown.
func (p *Pipeline) Run(ctx context.Context) error {
	p.log.Info("worker started")
	for {
		select {
		case <-ctx.Done():
			p.log.Info("worker stopped", "pending", p.Len())
			return nil
		case <-p.wake:
		}

		for ctx.Err() == nil {
			item := p.next()
			if item == nil {
				break
			}
			p.process(ctx, item)
		}
	}
}

func (p *Pipeline) next() *QueuedItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return nil
	}
	item := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	p.active = item
	return item
}

func (p *Pipeline) done() {
	p.mu.Lock()
	p.active = nil
	p.mu.Unlock()
}

func (p *Pipeline) process(ctx context.Context, item *QueuedItem) {
	msg := item.Message
	l := p.log.With("item", item.ID, "sender", msg.SenderID)

	defer p.done()
	defer func() {
		if r := recover(); r != nil {
			l.Error("panic while processing item", "panic", r)
		}
	}()

	// seen
	now := p.cfg.Now()
	receivedAt := msg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = now
	}
	seenDelay := p.cfg.Seen.SeenDelay(msg.SenderID, receivedAt)
	l.Info("waiting before seen", "delay", seenDelay, "queued_for", now.Sub(item.EnqueuedAt))
	if err := p.cfg.Sleep(ctx, seenDelay); err != nil {
		l.Warn("item abandoned", "stage", "seen", "err", err)
		return
	}
	p.signal(ctx, l, "seen", p.transport.MarkSeen, msg)
	l.Debug("seen", "body", msg.Body)

	// reply
	history := p.history.Last(msg.SenderID, ContextWindow)
	reply := p.completer.GetReply(ctx, item.ResolvedSenderName, msg.SenderID, msg.Body, history)

	text := reply.Text
	if !reply.Fallback {
		text = EnforceSize(Sanitize(text), reply.Style.Size, p.cfg.Limits)
	}
	if text == "" {
		text = FallbackReply(item.ResolvedSenderName)
	}

	// typing
	p.signal(ctx, l, "typing", p.transport.StartTyping, msg)
	typingDelay := p.cfg.Typing(text)
	l.Info("typing", "delay", typingDelay, "words", WordCount(text))
	if err := p.cfg.Sleep(ctx, typingDelay); err != nil {
		l.Warn("item abandoned", "stage", "typing", "err", err)
		return
	}
	p.signal(ctx, l, "clear typing", p.transport.StopTyping, msg)

	// deliver
	if err := p.deliver(ctx, msg, text); err != nil {
		l.Error("delivery failed, item dropped", "err", err)
		return
	}

	p.history.Append(msg.SenderID, msg.Body)
	l.Info("replied",
		"to", item.ResolvedSenderName,
		"style", fmt.Sprintf("%s/%s/%s/%s", reply.Style.Role, reply.Style.Size, reply.Style.Tone, reply.Style.Language),
		"fallback", reply.Fallback,
	)
	l.Debug("reply text", "text", text)
}

// signal fires a presence side channel; failures only get logged.
func (p *Pipeline) signal(
	ctx context.Context,
	l *log.Logger,
	name string,
	fn func(context.Context, *InboundMessage) error,
	msg *InboundMessage,
) {
	if err := fn(ctx, msg); err != nil {
		l.Warn("signal failed", "signal", name, "err", err)
	}
}

func (p *Pipeline) deliver(ctx context.Context, msg *InboundMessage, text string) error {
	replyErr := p.transport.Reply(ctx, msg, text)
	if replyErr == nil {
		return nil
	}
	p.log.Warn("threaded reply failed, sending plain", "sender", msg.SenderID, "err", replyErr)

	if err := p.transport.Send(ctx, msg.ChatID, text); err != nil {
		return errors.Join(replyErr, err)
	}
	return nil
}
