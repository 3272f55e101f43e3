package autoreply

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

type Role string

const (
	RoleCasualFriend   Role = "casual_friend"
	RoleRomanticFlirt  Role = "romantic_flirt"
	RoleHelpfulSupport Role = "helpful_support"
)

type Size string

const (
	SizeVeryVeryShort Size = "veryVeryshort"
	SizeVeryShort     Size = "veryshort"
	SizeShort         Size = "short"
	SizeMedium        Size = "medium"
	SizeLong          Size = "long"
)

type Tone string

const (
	ToneFriendly Tone = "friendly"
	ToneFunny    Tone = "funny"
	ToneRomantic Tone = "romantic"
	ToneSerious  Tone = "serious"
	ToneFormal   Tone = "formal"
)

type Language string

const (
	LangHinglish Language = "hinglish"
	LangBanglish Language = "banglish"
	LangEnglish  Language = "english"
)

// Style decides how a reply is worded. It is either fully valid or DefaultStyle.
type Style struct {
	Role     Role     `json:"role"`
	Size     Size     `json:"size"`
	Tone     Tone     `json:"tone"`
	Language Language `json:"language"`
}

var DefaultStyle = Style{
	Role:     RoleCasualFriend,
	Size:     SizeShort,
	Tone:     ToneFriendly,
	Language: LangHinglish,
}

var (
	validRoles     = map[Role]bool{RoleCasualFriend: true, RoleRomanticFlirt: true, RoleHelpfulSupport: true}
	validSizes     = map[Size]bool{SizeVeryVeryShort: true, SizeVeryShort: true, SizeShort: true, SizeMedium: true, SizeLong: true}
	validTones     = map[Tone]bool{ToneFriendly: true, ToneFunny: true, ToneRomantic: true, ToneSerious: true, ToneFormal: true}
	validLanguages = map[Language]bool{LangHinglish: true, LangBanglish: true, LangEnglish: true}
)

func (s Style) Valid() bool {
	return validRoles[s.Role] && validSizes[s.Size] && validTones[s.Tone] && validLanguages[s.Language]
}

// WordLimits maps a size to the maximum number of words in a reply.
type WordLimits map[Size]int

// Two tables were in use; CompactWordLimits is the default.
var (
	CompactWordLimits = WordLimits{
		SizeVeryVeryShort: 1,
		SizeVeryShort:     4,
		SizeShort:         18,
		SizeMedium:        35,
		SizeLong:          70,
	}
	RelaxedWordLimits = WordLimits{
		SizeVeryVeryShort: 1,
		SizeVeryShort:     4,
		SizeShort:         20,
		SizeMedium:        50,
		SizeLong:          100,
	}
)

func WordLimitsByName(name string) (WordLimits, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "compact":
		return CompactWordLimits, nil
	case "relaxed":
		return RelaxedWordLimits, nil
	default:
		return nil, fmt.Errorf("unknown word limit table %q", name)
	}
}

// Limit falls back to the short limit for unknown sizes.
func (l WordLimits) Limit(size Size) int {
	if n, ok := l[size]; ok {
		return n
	}
	return l[SizeShort]
}

var (
	fenceOpenRe  = regexp.MustCompile("(?i)^```json[\r\n]*")
	fenceBareRe  = regexp.MustCompile("^```[\r\n]*")
	fenceCloseRe = regexp.MustCompile("```$")
)

// ParseStyle reads the style-selection answer. Anything short of four valid
// keys yields DefaultStyle.
func ParseStyle(raw string) (Style, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = fenceOpenRe.ReplaceAllString(cleaned, "")
	cleaned = fenceBareRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(fenceCloseRe.ReplaceAllString(cleaned, ""))
	if cleaned == "" {
		return DefaultStyle, false
	}

	// Keys are matched exactly, lower case only.
	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return DefaultStyle, false
	}
	s := Style{
		Role:     Role(stringField(fields, "role")),
		Size:     Size(stringField(fields, "size")),
		Tone:     Tone(stringField(fields, "tone")),
		Language: Language(stringField(fields, "language")),
	}
	if !s.Valid() {
		return DefaultStyle, false
	}

	return s, true
}

func stringField(fields map[string]any, key string) string {
	v, _ := fields[key].(string)
	return v
}
