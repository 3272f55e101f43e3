package autoreply

import (
	"fmt"
	"strings"
)

// Persona is the name the assistant writes as.
const Persona = "Mohidul"

// RespectedName gets extra-respectful treatment in replies.
const RespectedName = "abdul hanif"

// ContextWindow is how many prior messages go into a prompt.
const ContextWindow = 3

const styleSelectorHeader = `You choose messaging style settings for a WhatsApp reply. Output MUST be a single valid JSON object with EXACTLY these four keys and allowed values. NO extra text, NO markdown fences.`

const styleSelectorRules = `Schema (use only these values):
- role: ["casual_friend", "romantic_flirt", "helpful_support"]
- size: ["veryVeryshort", "veryshort", "short", "medium", "long"]
- tone: ["friendly", "funny", "romantic", "serious", "formal"]
- language: ["hinglish", "banglish", "english"]

Selection rules:
- Prefer "hinglish" or "banglish" (romanized) for casual chat.
- Use "english" with "serious"/"formal" when message is sensitive, formal, or unclear.
- Choose "helpful_support" for questions, links, or requests.
- Choose "romantic_flirt" ONLY when flirting is explicit/appropriate; avoid sexual content.
- size: veryVeryshort (exactly 1 word like "ok", "done", "yes", "no"), veryshort (2-4 words; greetings/ack), short (quick reply), medium (some detail), long (more guidance).

Return JSON ONLY, for example: {"role":"casual_friend","size":"short","tone":"friendly","language":"hinglish"}`

const replyStyleRules = `Style rules:
- Keep it human, casual, concise.
- 0-2 emojis max; no long paragraphs.
- No talk about AI/bots, privacy, politics, religion, or personal details.
- Use respectful language.
- If sender seems male, "bhai/bhiya" is okay; if female, "didi/yaar" is okay; else neutral.
- If name is "` + RespectedName + `", be extra respectful.
- Prefer a single line unless truly needed.`

func contextLines(history []string) string {
	if len(history) > ContextWindow {
		history = history[len(history)-ContextWindow:]
	}
	lines := make([]string, 0, len(history))
	for i, msg := range history {
		lines = append(lines, fmt.Sprintf("Prev msg %d: %s", i+1, msg))
	}
	return strings.Join(lines, "\n")
}

// BuildStylePrompt asks the model to pick a Style for the incoming message.
func BuildStylePrompt(senderName, message string, history []string) string {
	var b strings.Builder
	b.WriteString(styleSelectorHeader)
	b.WriteString("\n\nInput:\n")
	fmt.Fprintf(&b, "- Sender: %s\n", senderName)
	fmt.Fprintf(&b, "- Message: %q\n", message)
	if ctx := contextLines(history); ctx != "" {
		b.WriteString("- Context:\n")
		b.WriteString(ctx)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styleSelectorRules)
	return b.String()
}

func lengthRule(size Size, limit int) string {
	switch size {
	case SizeVeryVeryShort:
		return "Reply with EXACTLY 1 word. No punctuation or emojis."
	case SizeVeryShort:
		return fmt.Sprintf("Reply in at most %d words. Keep it crisp.", limit)
	default:
		return fmt.Sprintf("Hard limit: %d words.", limit)
	}
}

func languageGuide(lang Language) string {
	switch lang {
	case LangBanglish:
		return "Write in Bangla+English (Banglish) using roman script."
	case LangHinglish:
		return "Write in Hindi+English (Hinglish) using roman script."
	default:
		return "Write in natural English."
	}
}

func roleGuide(role Role) string {
	switch role {
	case RoleHelpfulSupport:
		return "Be helpful and clear like friendly support."
	case RoleRomanticFlirt:
		return "Be playful and romantic only when appropriate. Avoid NSFW."
	default:
		return "Sound like a chill close friend."
	}
}

// BuildReplyPrompt turns a chosen style into writing instructions.
func BuildReplyPrompt(senderName, message string, style Style, limits WordLimits, history []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a friendly WhatsApp assistant.\n", Persona)
	b.WriteString(roleGuide(style.Role) + "\n")
	fmt.Fprintf(&b, "Tone: %s.\n", style.Tone)
	b.WriteString(languageGuide(style.Language) + "\n")
	b.WriteString(replyStyleRules)
	b.WriteString("\n\n")
	b.WriteString(lengthRule(style.Size, limits.Limit(style.Size)) + "\n")
	fmt.Fprintf(&b, "Incoming from %s: %q\n", senderName, message)
	if ctx := contextLines(history); ctx != "" {
		b.WriteString(ctx + "\n")
	}
	b.WriteString("\nWrite the reply now.")
	return b.String()
}

// FallbackReply is sent when no reply could be generated.
func FallbackReply(senderName string) string {
	return fmt.Sprintf("Hi %s, I'm a bit busy right now. Will ping you soon! 😊", senderName)
}
