package autoreply

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// SeenPolicy picks how long to wait before marking a message seen.
type SeenPolicy interface {
	SeenDelay(senderID string, now time.Time) time.Duration
}

// TypingPolicy maps a reply to how long the typing indicator stays on.
type TypingPolicy func(reply string) time.Duration

const (
	UniformSeenMin = 2 * time.Second
	UniformSeenMax = 42 * time.Second

	RecentWindow      = 30 * time.Second
	RecentSeenMin     = 3 * time.Second
	RecentSeenMax     = 13 * time.Second
	IdleSeenMin       = 10 * time.Second
	IdleSeenMax       = 40 * time.Second
	recentSendersKept = 1024
)

type randSource interface {
	Int64N(n int64) int64
}

func between(r randSource, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(r.Int64N(int64(max-min)+1))
}

// UniformSeen waits uniformly in [UniformSeenMin, UniformSeenMax].
type UniformSeen struct {
	mu  sync.Mutex
	rng randSource
}

func NewUniformSeen(rng *rand.Rand) *UniformSeen {
	return &UniformSeen{rng: orDefaultRand(rng)}
}

func (p *UniformSeen) SeenDelay(string, time.Time) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return between(p.rng, UniformSeenMin, UniformSeenMax)
}

// RecencySeen answers faster when the sender wrote within RecentWindow,
// as if the chat were already open.
type RecencySeen struct {
	mu   sync.Mutex
	rng  randSource
	last map[string]time.Time
}

func NewRecencySeen(rng *rand.Rand) *RecencySeen {
	return &RecencySeen{rng: orDefaultRand(rng), last: make(map[string]time.Time)}
}

func (p *RecencySeen) SeenDelay(senderID string, now time.Time) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev, seen := p.last[senderID]
	if len(p.last) >= recentSendersKept {
		p.forgetOlderThan(now.Add(-RecentWindow))
	}
	p.last[senderID] = now

	if seen && now.Sub(prev) < RecentWindow {
		return between(p.rng, RecentSeenMin, RecentSeenMax)
	}
	return between(p.rng, IdleSeenMin, IdleSeenMax)
}

func (p *RecencySeen) forgetOlderThan(cutoff time.Time) {
	for id, ts := range p.last {
		if ts.Before(cutoff) {
			delete(p.last, id)
		}
	}
}

// FlatTyping is min(8s + 300ms per word, 30s).
func FlatTyping(reply string) time.Duration {
	d := 8*time.Second + time.Duration(WordCount(reply))*300*time.Millisecond
	return min(d, 30*time.Second)
}

// TieredTyping answers one-word and short replies quickly.
func TieredTyping(reply string) time.Duration {
	words := WordCount(reply)
	switch {
	case words <= 1:
		return 1500 * time.Millisecond
	case words <= 4:
		return 3 * time.Second
	default:
		d := 6*time.Second + time.Duration(words)*250*time.Millisecond
		return min(d, 25*time.Second)
	}
}

func SeenPolicyByName(name string, rng *rand.Rand) (SeenPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "recency":
		return NewRecencySeen(rng), nil
	case "uniform":
		return NewUniformSeen(rng), nil
	default:
		return nil, fmt.Errorf("unknown seen delay policy %q", name)
	}
}

func TypingPolicyByName(name string) (TypingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "tiered":
		return TieredTyping, nil
	case "flat":
		return FlatTyping, nil
	default:
		return nil, fmt.Errorf("unknown typing delay policy %q", name)
	}
}

func orDefaultRand(rng *rand.Rand) randSource {
	if rng == nil {
		return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return rng
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
