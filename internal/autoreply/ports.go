package autoreply

import (
	"context"
	"time"
)

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindOther MessageKind = "other"
)

// InboundMessage is produced by the transport and never modified afterwards.
type InboundMessage struct {
	ID                string
	ChatID            string
	SenderID          string
	SenderDisplayName string
	Body              string
	Kind              MessageKind
	FromSelf          bool
	StatusBroadcast   bool
	Group             bool
	ReceivedAt        time.Time

	// Raw carries the transport's own message value (needed for quoting).
	Raw any
}

// Contact is what the transport knows about a sender.
type Contact struct {
	DisplayName      string
	NormalizedNumber string
}

type QueuedItem struct {
	ID                 string
	Message            *InboundMessage
	ResolvedSenderName string
	EnqueuedAt         time.Time
}

// Transport: мессенджер, ядро знает только эти операции
type Transport interface {
	Contact(ctx context.Context, msg *InboundMessage) (Contact, error)
	MarkSeen(ctx context.Context, msg *InboundMessage) error
	StartTyping(ctx context.Context, msg *InboundMessage) error
	StopTyping(ctx context.Context, msg *InboundMessage) error
	// Reply sends text quoting msg.
	Reply(ctx context.Context, msg *InboundMessage, text string) error
	// Send posts text to the conversation without quoting.
	Send(ctx context.Context, chatID string, text string) error
}

// Completer produces a reply and the style it was written in.
// Implementations never fail: they fall back on their own.
type Completer interface {
	GetReply(ctx context.Context, senderName, senderID, text string, history []string) Reply
}

// History is per-sender context for prompts.
type History interface {
	Append(senderID, text string)
	Last(senderID string, n int) []string
}
