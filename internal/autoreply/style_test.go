package autoreply

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStyle(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   Style
		wantOK bool
	}{
		{
			name:   "plain json",
			raw:    `{"role":"helpful_support","size":"medium","tone":"serious","language":"english"}`,
			want:   Style{RoleHelpfulSupport, SizeMedium, ToneSerious, LangEnglish},
			wantOK: true,
		},
		{
			name:   "json fence",
			raw:    "```json\n{\"role\":\"romantic_flirt\",\"size\":\"veryVeryshort\",\"tone\":\"romantic\",\"language\":\"banglish\"}\n```",
			want:   Style{RoleRomanticFlirt, SizeVeryVeryShort, ToneRomantic, LangBanglish},
			wantOK: true,
		},
		{
			name:   "bare fence",
			raw:    "```\n{\"role\":\"casual_friend\",\"size\":\"long\",\"tone\":\"funny\",\"language\":\"hinglish\"}```",
			want:   Style{RoleCasualFriend, SizeLong, ToneFunny, LangHinglish},
			wantOK: true,
		},
		{name: "invalid enum", raw: `{"role":"x"}`, want: DefaultStyle},
		{name: "missing key", raw: `{"role":"casual_friend","size":"short","tone":"friendly"}`, want: DefaultStyle},
		{name: "wrong value", raw: `{"role":"casual_friend","size":"tiny","tone":"friendly","language":"hinglish"}`, want: DefaultStyle},
		{name: "not json", raw: "Sure! Here is the style you asked for.", want: DefaultStyle},
		{name: "empty", raw: "", want: DefaultStyle},
		{name: "array", raw: `["casual_friend"]`, want: DefaultStyle},
		{
			name: "keys in other case",
			raw:  `{"ROLE":"romantic_flirt","Size":"long","TONE":"funny","Language":"english"}`,
			want: DefaultStyle,
		},
		{
			name: "non-string value",
			raw:  `{"role":"casual_friend","size":3,"tone":"friendly","language":"hinglish"}`,
			want: DefaultStyle,
		},
		{
			name:   "extra keys ignored",
			raw:    `{"role":"casual_friend","size":"short","tone":"friendly","language":"english","why":"chat"}`,
			want:   Style{RoleCasualFriend, SizeShort, ToneFriendly, LangEnglish},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseStyle(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestDefaultStyle(t *testing.T) {
	assert.Equal(t, Style{
		Role:     RoleCasualFriend,
		Size:     SizeShort,
		Tone:     ToneFriendly,
		Language: LangHinglish,
	}, DefaultStyle)
	assert.True(t, DefaultStyle.Valid())
}

func TestWordLimits(t *testing.T) {
	compact, err := WordLimitsByName("")
	require.NoError(t, err)
	assert.Equal(t, 18, compact.Limit(SizeShort))
	assert.Equal(t, 35, compact.Limit(SizeMedium))
	assert.Equal(t, 70, compact.Limit(SizeLong))
	assert.Equal(t, 18, compact.Limit(Size("nope")))

	relaxed, err := WordLimitsByName("Relaxed")
	require.NoError(t, err)
	assert.Equal(t, 20, relaxed.Limit(SizeShort))
	assert.Equal(t, 50, relaxed.Limit(SizeMedium))
	assert.Equal(t, 100, relaxed.Limit(SizeLong))
	assert.Equal(t, 1, relaxed.Limit(SizeVeryVeryShort))
	assert.Equal(t, 4, relaxed.Limit(SizeVeryShort))

	_, err = WordLimitsByName("huge")
	assert.Error(t, err)
}

func TestBuildStylePrompt(t *testing.T) {
	p := BuildStylePrompt("Priya", "kal milte hai?", []string{"m1", "m2", "m3", "m4"})

	assert.True(t, strings.HasPrefix(p, styleSelectorHeader))
	assert.Contains(t, p, "- Sender: Priya")
	assert.Contains(t, p, `- Message: "kal milte hai?"`)
	assert.Contains(t, p, "Prev msg 1: m2\nPrev msg 2: m3\nPrev msg 3: m4")
	assert.NotContains(t, p, "m1")
	assert.Contains(t, p, `"veryVeryshort"`)

	noCtx := BuildStylePrompt("Priya", "hi", nil)
	assert.NotContains(t, noCtx, "Context:")
}

func TestBuildReplyPrompt(t *testing.T) {
	style := Style{RoleHelpfulSupport, SizeMedium, ToneFormal, LangBanglish}
	p := BuildReplyPrompt("Abdul Hanif", "link bhejo", style, CompactWordLimits, []string{"prev"})

	assert.True(t, strings.HasPrefix(p, "You are "+Persona+", a friendly WhatsApp assistant.\n"))
	assert.Contains(t, p, "Be helpful and clear like friendly support.")
	assert.Contains(t, p, "Tone: formal.")
	assert.Contains(t, p, "Banglish")
	assert.Contains(t, p, "Hard limit: 35 words.")
	assert.Contains(t, p, `If name is "abdul hanif", be extra respectful.`)
	assert.Contains(t, p, "No talk about AI/bots")
	assert.Contains(t, p, `Incoming from Abdul Hanif: "link bhejo"`)
	assert.Contains(t, p, "Prev msg 1: prev")
	assert.True(t, strings.HasSuffix(p, "Write the reply now."))
}

func TestBuildReplyPrompt_LengthRules(t *testing.T) {
	one := BuildReplyPrompt("A", "ok?", Style{RoleCasualFriend, SizeVeryVeryShort, ToneFriendly, LangEnglish}, CompactWordLimits, nil)
	assert.Contains(t, one, "Reply with EXACTLY 1 word.")
	assert.Contains(t, one, "Write in natural English.")
	assert.Contains(t, one, "Sound like a chill close friend.")

	four := BuildReplyPrompt("A", "hi", Style{RoleRomanticFlirt, SizeVeryShort, ToneRomantic, LangHinglish}, CompactWordLimits, nil)
	assert.Contains(t, four, "Reply in at most 4 words.")
	assert.Contains(t, four, "Avoid NSFW.")

	long := BuildReplyPrompt("A", "hi", Style{RoleCasualFriend, SizeLong, ToneFunny, LangHinglish}, RelaxedWordLimits, nil)
	assert.Contains(t, long, "Hard limit: 100 words.")
}

func TestFallbackReply(t *testing.T) {
	assert.Equal(t, "Hi Rahul, I'm a bit busy right now. Will ping you soon! 😊", FallbackReply("Rahul"))
}
