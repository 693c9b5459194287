package recognition

import (
	"sync"
	"time"
)

// DuplicateGuard drops a transcript identical to the last accepted one when
// it arrives within Window of it.
type DuplicateGuard struct {
	Window time.Duration

	mu     sync.Mutex
	last   string
	lastAt time.Time
}

// Allow reports whether text at now should be processed, and records it
// when it is.
func (g *DuplicateGuard) Allow(text string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if text == g.last && !g.lastAt.IsZero() && now.Sub(g.lastAt) < g.Window {
		return false
	}
	g.last = text
	g.lastAt = now
	return true
}

// Reset forgets the last transcript.
func (g *DuplicateGuard) Reset() {
	g.mu.Lock()
	g.last = ""
	g.lastAt = time.Time{}
	g.mu.Unlock()
}
