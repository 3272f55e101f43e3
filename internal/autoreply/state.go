package autoreply

import (
	"strings"
	"sync"
	"unicode"
)

// RuntimeState holds the flags admin commands act on. Admins are fixed at startup.
type RuntimeState struct {
	mu        sync.RWMutex
	autoReply bool
	admins    map[string]struct{}
}

func NewRuntimeState(autoReply bool, admins []string) *RuntimeState {
	set := make(map[string]struct{}, len(admins))
	for _, a := range admins {
		if n := NormalizeNumber(a); n != "" {
			set[n] = struct{}{}
		}
	}
	return &RuntimeState{autoReply: autoReply, admins: set}
}

func (s *RuntimeState) AutoReply() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoReply
}

func (s *RuntimeState) SetAutoReply(enabled bool) {
	s.mu.Lock()
	s.autoReply = enabled
	s.mu.Unlock()
}

func (s *RuntimeState) IsAdmin(senderID string) bool {
	_, ok := s.admins[NormalizeNumber(senderID)]
	return ok
}

// NormalizeNumber keeps only ASCII digits.
func NormalizeNumber(raw string) string {
	return strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
}
