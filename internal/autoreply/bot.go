package autoreply

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Bot routes transport messages through the gate into the pipeline.
type Bot struct {
	transport Transport
	gate      *Gate
	state     *RuntimeState
	pipeline  *Pipeline
	lifecycle *Lifecycle
	log       *log.Logger
}

func NewBot(
	transport Transport,
	state *RuntimeState,
	pipeline *Pipeline,
	lifecycle *Lifecycle,
	logger *log.Logger,
) *Bot {
	return &Bot{
		transport: transport,
		gate:      NewGate(state),
		state:     state,
		pipeline:  pipeline,
		lifecycle: lifecycle,
		log:       logger.WithPrefix("bot"),
	}
}

// HandleIncoming classifies msg. Commands are answered right away, accepted
// messages are queued.
func (b *Bot) HandleIncoming(ctx context.Context, msg *InboundMessage) error {
	decision := b.gate.Classify(msg)

	switch decision.Verdict {
	case VerdictDrop:
		b.log.Debug("ignored message", "sender", msg.SenderID, "reason", decision.Reason)
		return nil

	case VerdictCommand:
		text := b.gate.Execute(decision.Command)
		b.log.Info("command", "command", decision.Command, "sender", msg.SenderID,
			"auto_reply", b.state.AutoReply())
		if err := b.transport.Reply(ctx, msg, text); err != nil {
			return fmt.Errorf("reply to %s: %w", decision.Command, err)
		}
		return nil
	}

	b.log.Info("received", "sender", msg.SenderID, "id", msg.ID)
	b.pipeline.Enqueue(&QueuedItem{
		ID:                 uuid.NewString(),
		Message:            msg,
		ResolvedSenderName: b.senderName(ctx, msg),
	})
	return nil
}

// senderName prefers the contact's display name, then its number.
func (b *Bot) senderName(ctx context.Context, msg *InboundMessage) string {
	contact, err := b.transport.Contact(ctx, msg)
	if err != nil {
		b.log.Warn("contact lookup failed", "sender", msg.SenderID, "err", err)
	}
	for _, name := range []string{
		contact.DisplayName,
		msg.SenderDisplayName,
		contact.NormalizedNumber,
		msg.SenderID,
	} {
		if name != "" {
			return name
		}
	}
	return "there"
}

type Status struct {
	State      string `json:"state"`
	Ready      bool   `json:"ready"`
	AutoReply  bool   `json:"auto_reply"`
	Queued     int    `json:"queued"`
	Processing bool   `json:"processing"`
}

func (b *Bot) Status() Status {
	return Status{
		State:      b.lifecycle.State().String(),
		Ready:      b.lifecycle.Ready(),
		AutoReply:  b.state.AutoReply(),
		Queued:     b.pipeline.Len(),
		Processing: b.pipeline.Processing(),
	}
}
