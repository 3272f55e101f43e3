package autoreply

import "sync"

// DefaultHistoryLimit is how many messages are kept per sender.
const DefaultHistoryLimit = 10

type memoryHistory struct {
	mu       sync.RWMutex
	limit    int
	bySender map[string][]string
}

// NewMemoryHistory keeps the last limit inbound texts per sender, in memory only.
func NewMemoryHistory(limit int) History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &memoryHistory{
		limit:    limit,
		bySender: make(map[string][]string),
	}
}

func (h *memoryHistory) Append(senderID, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := append(h.bySender[senderID], text)
	if len(msgs) > h.limit {
		msgs = append([]string(nil), msgs[len(msgs)-h.limit:]...)
	}
	h.bySender[senderID] = msgs
}

func (h *memoryHistory) Last(senderID string, n int) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msgs := h.bySender[senderID]
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}

	out := make([]string, len(msgs))
	copy(out, msgs)
	return out
}
