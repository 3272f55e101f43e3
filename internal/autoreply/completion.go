package autoreply

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Vovarama1992/whatsapp-autoreply/internal/ai"
)

// Reply is what the completion stage hands to the pipeline.
type Reply struct {
	Text     string
	Style    Style
	Fallback bool
}

type replier struct {
	ai      ai.AI
	limits  WordLimits
	timeout time.Duration
	log     *log.Logger
}

// NewReplier runs the two-stage flow: pick a style, then write under it.
// A zero timeout leaves each call bounded only by ctx.
func NewReplier(aiClient ai.AI, limits WordLimits, timeout time.Duration, logger *log.Logger) Completer {
	if limits == nil {
		limits = CompactWordLimits
	}
	return &replier{
		ai:      aiClient,
		limits:  limits,
		timeout: timeout,
		log:     logger.WithPrefix("completion"),
	}
}

func (r *replier) GetReply(
	ctx context.Context,
	senderName string,
	senderID string,
	text string,
	history []string,
) Reply {

	// --------------------------------------------------
	// STEP 1: STYLE
	// --------------------------------------------------

	style := r.determineStyle(ctx, senderName, text, history)

	// --------------------------------------------------
	// STEP 2: REPLY
	// --------------------------------------------------

	raw, ok := r.generate(ctx, senderName, text, style, history)
	if !ok {
		r.log.Info("using fallback reply", "sender", senderID)
		return Reply{Text: FallbackReply(senderName), Style: style, Fallback: true}
	}

	return Reply{Text: raw, Style: style}
}

// ------------------------------------------------------------

func (r *replier) determineStyle(
	ctx context.Context,
	senderName string,
	text string,
	history []string,
) Style {

	raw, err := r.call(ctx, BuildStylePrompt(senderName, text, history))
	if err != nil {
		r.log.Warn("style selection failed, using default", "err", err)
		return DefaultStyle
	}

	style, ok := ParseStyle(raw)
	if !ok {
		r.log.Warn("style response unusable, using default", "raw", short(raw))
		return DefaultStyle
	}

	r.log.Debug("style selected",
		"role", style.Role, "size", style.Size, "tone", style.Tone, "language", style.Language,
	)
	return style
}

func (r *replier) generate(
	ctx context.Context,
	senderName string,
	text string,
	style Style,
	history []string,
) (string, bool) {

	raw, err := r.call(ctx, BuildReplyPrompt(senderName, text, style, r.limits, history))
	if err != nil {
		r.log.Warn("reply generation failed", "err", err)
		return "", false
	}
	if raw == "" {
		return "", false
	}
	return raw, true
}

func (r *replier) call(ctx context.Context, prompt string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.ai.GetReply(ctx, ai.DefaultSystemPrompt, prompt)
}

func short(s string) string {
	if len(s) > 180 {
		return s[:180] + "..."
	}
	return s
}
