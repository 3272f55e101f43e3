package autoreply

import (
	"regexp"
	"strings"
)

// MaxReplyChars caps a sanitized reply.
const MaxReplyChars = 600

var (
	replyFenceOpenRe  = regexp.MustCompile("(?i)^```+[a-z]*\n?")
	replyFenceCloseRe = regexp.MustCompile("```+$")
	lineBreakRe       = regexp.MustCompile(`[\r\n]+`)
	spaceRunRe        = regexp.MustCompile(`\s{2,}`)
	edgePunctRe       = regexp.MustCompile(`^[^\p{L}\p{N}@#]+|[^\p{L}\p{N}@#]+$`)
)

// Sanitize strips code fences, flattens the text onto one line and caps its length.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	t := replyFenceOpenRe.ReplaceAllString(text, "")
	t = replyFenceCloseRe.ReplaceAllString(t, "")
	t = lineBreakRe.ReplaceAllString(t, " ")
	t = strings.TrimSpace(t)
	t = strings.TrimSpace(spaceRunRe.ReplaceAllString(t, " "))

	if r := []rune(t); len(r) > MaxReplyChars {
		t = strings.TrimSpace(string(r[:MaxReplyChars]))
	}
	return t
}

// EnforceSize trims text to the word limit of size. veryVeryshort keeps the
// first token only, without surrounding punctuation. Unknown sizes are a no-op.
func EnforceSize(text string, size Size, limits WordLimits) string {
	if text == "" {
		return text
	}
	words := strings.Fields(text)

	if size == SizeVeryVeryShort {
		if len(words) == 0 {
			return ""
		}
		return edgePunctRe.ReplaceAllString(words[0], "")
	}

	limit, ok := limits[size]
	if !ok || limit <= 0 {
		return text
	}
	if len(words) > limit {
		words = words[:limit]
	}
	return strings.Join(words, " ")
}

func WordCount(text string) int {
	return len(strings.Fields(text))
}
