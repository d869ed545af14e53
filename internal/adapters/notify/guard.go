package notify

import "sync"

const defaultGuardSize = 10000

// seenGuard is a bounded set of already-notified keys with FIFO
// eviction. It only suppresses repeat reports; verdicts never consult
// it.
type seenGuard struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
	max   int
}

// newSeenGuard creates a guard keeping at most max keys. A max of zero
// or less disables the guard.
func newSeenGuard(max int) *seenGuard {
	return &seenGuard{
		seen: make(map[string]struct{}),
		max:  max,
	}
}

// seenAndRecord reports whether key was already recorded, recording it
// if not. A disabled guard always reports false.
func (g *seenGuard) seenAndRecord(key string) bool {
	if g.max <= 0 {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[key]; ok {
		return true
	}

	if len(g.order) >= g.max {
		oldest := g.order[0]
		g.order = g.order[1:]
		delete(g.seen, oldest)
	}
	g.seen[key] = struct{}{}
	g.order = append(g.order, key)
	return false
}
