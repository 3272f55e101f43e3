package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"github.com/Vovarama1992/whatsapp-autoreply/internal/autoreply"
)

var _ autoreply.Transport = (*Client)(nil)

var errNoSource = errors.New("message has no whatsapp source")

func sourceOf(msg *autoreply.InboundMessage) (*events.Message, error) {
	evt, ok := msg.Raw.(*events.Message)
	if !ok || evt == nil {
		return nil, errNoSource
	}
	return evt, nil
}

func (c *Client) Contact(ctx context.Context, msg *autoreply.InboundMessage) (autoreply.Contact, error) {
	out := autoreply.Contact{
		DisplayName:      msg.SenderDisplayName,
		NormalizedNumber: msg.SenderID,
	}
	if c.client == nil {
		return out, errNotInitialized
	}
	evt, err := sourceOf(msg)
	if err != nil {
		return out, err
	}

	info, err := c.client.Store.Contacts.GetContact(ctx, senderJID(evt.Info))
	if err != nil {
		return out, fmt.Errorf("get contact: %w", err)
	}
	for _, name := range []string{info.PushName, info.FullName, info.BusinessName, info.FirstName} {
		if name = strings.TrimSpace(name); name != "" {
			out.DisplayName = name
			break
		}
	}
	return out, nil
}

func (c *Client) MarkSeen(ctx context.Context, msg *autoreply.InboundMessage) error {
	if c.client == nil {
		return errNotInitialized
	}
	evt, err := sourceOf(msg)
	if err != nil {
		return err
	}
	return c.client.MarkRead(ctx, []types.MessageID{evt.Info.ID}, time.Now(), evt.Info.Chat, evt.Info.Sender)
}

func (c *Client) StartTyping(ctx context.Context, msg *autoreply.InboundMessage) error {
	return c.chatPresence(ctx, msg, types.ChatPresenceComposing)
}

func (c *Client) StopTyping(ctx context.Context, msg *autoreply.InboundMessage) error {
	return c.chatPresence(ctx, msg, types.ChatPresencePaused)
}

func (c *Client) chatPresence(ctx context.Context, msg *autoreply.InboundMessage, state types.ChatPresence) error {
	if c.client == nil {
		return errNotInitialized
	}
	evt, err := sourceOf(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, presenceTimeout)
	defer cancel()
	return c.client.SendChatPresence(ctx, evt.Info.Chat, state, types.ChatPresenceMediaText)
}

// Reply quotes the original message.
func (c *Client) Reply(ctx context.Context, msg *autoreply.InboundMessage, text string) error {
	if c.client == nil {
		return errNotInitialized
	}
	evt, err := sourceOf(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err = c.client.SendMessage(ctx, evt.Info.Chat, quoted(evt, text))
	if err != nil {
		return fmt.Errorf("send whatsapp reply: %w", err)
	}
	return nil
}

func (c *Client) Send(ctx context.Context, chatID string, text string) error {
	if c.client == nil {
		return errNotInitialized
	}

	chatJID, err := parseJID(chatID)
	if err != nil {
		return fmt.Errorf("parse whatsapp chat id %q: %w", chatID, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err = c.client.SendMessage(ctx, chatJID, &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	return nil
}

func quoted(evt *events.Message, text string) *waE2E.Message {
	return &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(text),
			ContextInfo: &waE2E.ContextInfo{
				StanzaID:      proto.String(string(evt.Info.ID)),
				Participant:   proto.String(evt.Info.Sender.ToNonAD().String()),
				QuotedMessage: evt.Message,
			},
		},
	}
}

// senderJID prefers the phone-number JID when the sender is addressed by LID.
func senderJID(info types.MessageInfo) types.JID {
	sender := info.Sender.ToNonAD()
	if sender.Server == types.HiddenUserServer && !info.SenderAlt.IsEmpty() {
		return info.SenderAlt.ToNonAD()
	}
	return sender
}

func toInbound(evt *events.Message) *autoreply.InboundMessage {
	info := evt.Info
	body, kind := extractText(evt.Message)

	return &autoreply.InboundMessage{
		ID:                string(info.ID),
		ChatID:            info.Chat.String(),
		SenderID:          autoreply.NormalizeNumber(senderJID(info).User),
		SenderDisplayName: strings.TrimSpace(info.PushName),
		Body:              body,
		Kind:              kind,
		FromSelf:          info.IsFromMe,
		StatusBroadcast:   info.Chat == types.StatusBroadcastJID || info.Chat.Server == types.BroadcastServer,
		Group:             info.IsGroup || info.Chat.Server == types.GroupServer,
		ReceivedAt:        info.Timestamp,
		Raw:               evt,
	}
}

func extractText(msg *waE2E.Message) (string, autoreply.MessageKind) {
	if msg == nil {
		return "", autoreply.KindOther
	}
	if text := msg.GetConversation(); text != "" {
		return text, autoreply.KindText
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil && ext.GetText() != "" {
		return ext.GetText(), autoreply.KindText
	}
	if img := msg.GetImageMessage(); img != nil {
		return img.GetCaption(), autoreply.KindOther
	}
	if vid := msg.GetVideoMessage(); vid != nil {
		return vid.GetCaption(), autoreply.KindOther
	}
	return "", autoreply.KindOther
}

func parseJID(raw string) (types.JID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.EmptyJID, errors.New("empty jid")
	}
	if strings.Contains(raw, "@") {
		return types.ParseJID(raw)
	}

	user := autoreply.NormalizeNumber(raw)
	if user == "" {
		return types.EmptyJID, fmt.Errorf("invalid jid %q", raw)
	}
	return types.NewJID(user, types.DefaultUserServer), nil
}
