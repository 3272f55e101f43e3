package autoreply

import (
	"strings"
	"unicode/utf8"
)

type Verdict int

const (
	VerdictAccept Verdict = iota
	VerdictCommand
	VerdictDrop
)

type Command string

const (
	CmdEnable  Command = "!enable"
	CmdDisable Command = "!disable"
	CmdStatus  Command = "!status"
	CmdHelp    Command = "help"
)

const (
	DropIgnoredOrigin = "ignored-origin"
	DropDisabled      = "auto-reply-disabled"
	DropFlagged       = "flagged-content"
)

// MaxInboundChars is the longest message that still gets an auto-reply.
const MaxInboundChars = 1000

const HelpText = `*Admin Commands:*
!enable - Enable auto-reply
!disable - Disable auto-reply
!status - Show auto-reply status
help - Show this help

⚠ *Only for Admins*`

type Decision struct {
	Verdict Verdict
	Command Command
	Reason  string
}

// Gate classifies inbound messages. It never mutates state itself.
type Gate struct {
	state *RuntimeState
}

func NewGate(state *RuntimeState) *Gate {
	return &Gate{state: state}
}

func (g *Gate) Classify(msg *InboundMessage) Decision {
	if msg.FromSelf || msg.StatusBroadcast || msg.Group {
		return Decision{Verdict: VerdictDrop, Reason: DropIgnoredOrigin}
	}

	command := Command(strings.ToLower(strings.TrimSpace(msg.Body)))

	if g.state.IsAdmin(msg.SenderID) {
		switch command {
		case CmdEnable, CmdDisable, CmdStatus:
			return Decision{Verdict: VerdictCommand, Command: command}
		}
	}

	if command == CmdHelp {
		return Decision{Verdict: VerdictCommand, Command: CmdHelp}
	}

	if !g.state.AutoReply() {
		return Decision{Verdict: VerdictDrop, Reason: DropDisabled}
	}

	if flagged(msg) {
		return Decision{Verdict: VerdictDrop, Reason: DropFlagged}
	}

	return Decision{Verdict: VerdictAccept}
}

func flagged(msg *InboundMessage) bool {
	return utf8.RuneCountInString(msg.Body) > MaxInboundChars ||
		strings.Contains(strings.ToLower(msg.Body), "urgent") ||
		strings.HasPrefix(msg.Body, "http") ||
		msg.Kind != KindText
}

// Execute applies an admin command and returns the text to reply with.
func (g *Gate) Execute(cmd Command) string {
	switch cmd {
	case CmdEnable:
		g.state.SetAutoReply(true)
		return "Auto-reply ✅"
	case CmdDisable:
		g.state.SetAutoReply(false)
		return "Auto-reply ❌"
	case CmdStatus:
		if g.state.AutoReply() {
			return "Auto-reply is ✅ enabled."
		}
		return "Auto-reply is ❌ disabled."
	default:
		return HelpText
	}
}
