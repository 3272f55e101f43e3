package whatsapp

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"github.com/Vovarama1992/whatsapp-autoreply/internal/autoreply"
	"github.com/Vovarama1992/whatsapp-autoreply/internal/config"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func makeEvent(chat, sender types.JID, msg *waE2E.Message) *events.Message {
	return &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Sender: sender,
				Chat:   chat,
			},
			ID:        types.MessageID("msg-1"),
			PushName:  "Rahul",
			Timestamp: time.Now(),
		},
		Message: msg,
	}
}

func TestNew_SQLiteStore(t *testing.T) {
	dsn := "file:" + filepath.ToSlash(filepath.Join(t.TempDir(), "session.db")) + "?_pragma=foreign_keys(1)"

	c, err := New(context.Background(), config.WhatsAppConfig{
		StoreDialect: "sqlite",
		StoreDSN:     dsn,
	}, autoreply.NewLifecycle(testLogger()), testLogger())
	require.NoError(t, err)
	require.NotNil(t, c.client)

	require.NoError(t, c.Stop())
}

func TestToInbound_DirectText(t *testing.T) {
	user := types.NewJID("919999999999", types.DefaultUserServer)
	evt := makeEvent(user, user, &waE2E.Message{Conversation: proto.String("kya kar rha")})

	msg := toInbound(evt)
	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, "919999999999", msg.SenderID)
	assert.Equal(t, "Rahul", msg.SenderDisplayName)
	assert.Equal(t, "kya kar rha", msg.Body)
	assert.Equal(t, autoreply.KindText, msg.Kind)
	assert.Equal(t, "919999999999@s.whatsapp.net", msg.ChatID)
	assert.False(t, msg.Group)
	assert.False(t, msg.StatusBroadcast)
	assert.Same(t, evt, msg.Raw)
}

func TestToInbound_Origins(t *testing.T) {
	user := types.NewJID("919999999999", types.DefaultUserServer)
	text := &waE2E.Message{Conversation: proto.String("hi")}

	group := makeEvent(types.NewJID("1203630", types.GroupServer), user, text)
	group.Info.IsGroup = true
	assert.True(t, toInbound(group).Group)

	status := makeEvent(types.StatusBroadcastJID, user, text)
	assert.True(t, toInbound(status).StatusBroadcast)

	self := makeEvent(user, user, text)
	self.Info.IsFromMe = true
	assert.True(t, toInbound(self).FromSelf)
}

func TestToInbound_LIDSender(t *testing.T) {
	lid := types.NewJID("123456789", types.HiddenUserServer)
	evt := makeEvent(lid, lid, &waE2E.Message{Conversation: proto.String("hi")})
	evt.Info.SenderAlt = types.NewJID("919999999999", types.DefaultUserServer)

	assert.Equal(t, "919999999999", toInbound(evt).SenderID)
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name     string
		msg      *waE2E.Message
		wantBody string
		wantKind autoreply.MessageKind
	}{
		{
			name:     "conversation",
			msg:      &waE2E.Message{Conversation: proto.String("hello")},
			wantBody: "hello",
			wantKind: autoreply.KindText,
		},
		{
			name: "extended text",
			msg: &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{
				Text: proto.String("quoted reply"),
			}},
			wantBody: "quoted reply",
			wantKind: autoreply.KindText,
		},
		{
			name: "image caption",
			msg: &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
				Caption: proto.String("look"),
			}},
			wantBody: "look",
			wantKind: autoreply.KindOther,
		},
		{
			name:     "nil",
			msg:      nil,
			wantKind: autoreply.KindOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, kind := extractText(tt.msg)
			assert.Equal(t, tt.wantBody, body)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestQuoted(t *testing.T) {
	user := types.NewJID("919999999999", types.DefaultUserServer)
	orig := &waE2E.Message{Conversation: proto.String("kya kar rha")}
	evt := makeEvent(user, user, orig)

	out := quoted(evt, "kuch nahi bhai")
	ext := out.GetExtendedTextMessage()
	require.NotNil(t, ext)
	assert.Equal(t, "kuch nahi bhai", ext.GetText())
	assert.Equal(t, "msg-1", ext.GetContextInfo().GetStanzaID())
	assert.Equal(t, "919999999999@s.whatsapp.net", ext.GetContextInfo().GetParticipant())
	assert.Same(t, orig, ext.GetContextInfo().GetQuotedMessage())
}

func TestParseJID(t *testing.T) {
	jid, err := parseJID("+91 99999-99999")
	require.NoError(t, err)
	assert.Equal(t, "919999999999@s.whatsapp.net", jid.String())

	jid, err = parseJID("919999999999@s.whatsapp.net")
	require.NoError(t, err)
	assert.Equal(t, "919999999999", jid.User)

	_, err = parseJID("  ")
	assert.Error(t, err)

	_, err = parseJID("abc")
	assert.Error(t, err)
}

func TestTransport_NilClient(t *testing.T) {
	c := &Client{}
	msg := &autoreply.InboundMessage{SenderID: "919999999999"}
	ctx := context.Background()

	assert.ErrorIs(t, c.MarkSeen(ctx, msg), errNotInitialized)
	assert.ErrorIs(t, c.StartTyping(ctx, msg), errNotInitialized)
	assert.ErrorIs(t, c.StopTyping(ctx, msg), errNotInitialized)
	assert.ErrorIs(t, c.Reply(ctx, msg, "hi"), errNotInitialized)
	assert.ErrorIs(t, c.Send(ctx, "919999999999", "hi"), errNotInitialized)

	contact, err := c.Contact(ctx, &autoreply.InboundMessage{SenderID: "9199", SenderDisplayName: "Priya"})
	assert.ErrorIs(t, err, errNotInitialized)
	assert.Equal(t, "Priya", contact.DisplayName)
	assert.Equal(t, "9199", contact.NormalizedNumber)
}

type recordingHandler struct {
	got []*autoreply.InboundMessage
}

func (h *recordingHandler) HandleIncoming(_ context.Context, msg *autoreply.InboundMessage) error {
	h.got = append(h.got, msg)
	return nil
}

func TestHandleEvent(t *testing.T) {
	lc := autoreply.NewLifecycle(testLogger())
	h := &recordingHandler{}
	c := &Client{lifecycle: lc, log: testLogger(), ctx: context.Background()}
	c.SetHandler(h)

	user := types.NewJID("919999999999", types.DefaultUserServer)
	c.handleEvent(makeEvent(user, user, &waE2E.Message{Conversation: proto.String("hi")}))
	c.handleEvent(&events.Message{Info: types.MessageInfo{ID: "empty"}})
	require.Len(t, h.got, 1)
	assert.Equal(t, "hi", h.got[0].Body)

	c.handleEvent(&events.PairSuccess{ID: user})
	assert.Equal(t, autoreply.StateAuthenticated, lc.State())

	c.handleEvent(&events.Disconnected{})
	assert.Equal(t, autoreply.StateDisconnected, lc.State())

	c.handleEvent(&events.LoggedOut{})
	assert.Equal(t, autoreply.StateDisconnected, lc.State())
}
