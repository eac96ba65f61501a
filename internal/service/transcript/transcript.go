// Package transcript holds the ordered conversation shown for one authenticated session.
package transcript

import (
	"sort"
	"sync"

	"github.com/riseai/rise-chat/internal/model/chat"
)

// Transcript is an ordered log of turns: merged server history first, then the turns
// appended live during this session. Safe for concurrent use.
type Transcript struct {
	mu      sync.RWMutex
	history []chat.Turn
	live    []chat.Turn
	seen    map[chat.TurnKey]struct{}
}

// New returns an empty transcript.
func New() *Transcript {
	return &Transcript{seen: make(map[chat.TurnKey]struct{})}
}

// Append adds turn at the tail.
func (t *Transcript) Append(turn chat.Turn) {
	t.mu.Lock()
	t.live = append(t.live, turn)
	t.seen[turn.Key()] = struct{}{}
	t.mu.Unlock()
}

// MergeHistory inserts server exchanges, supplied newest-first, ahead of the live turns.
// Turns already present (same role, content and timestamp) are skipped, so replaying
// the same snapshot is a no-op. It returns the number of turns added.
func (t *Transcript) MergeHistory(records []chat.Exchange) int {
	if len(records) == 0 {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	added := 0
	for i := len(records) - 1; i >= 0; i-- {
		for _, turn := range records[i].Turns() {
			key := turn.Key()
			if _, dup := t.seen[key]; dup {
				continue
			}
			t.seen[key] = struct{}{}
			t.history = append(t.history, turn)
			added++
		}
	}

	if added > 0 {
		sortChronologically(t.history)
	}
	return added
}

// sortChronologically orders turns by timestamp, keeping insertion order for ties so a
// user turn stays ahead of the reply that shares its timestamp. Nothing is reordered
// unless every timestamp parses.
func sortChronologically(turns []chat.Turn) {
	times := make(map[string]int64, len(turns))
	for _, turn := range turns {
		parsed, ok := turn.Time()
		if !ok {
			return
		}
		times[turn.Timestamp] = parsed.UnixNano()
	}
	sort.SliceStable(turns, func(i, j int) bool {
		return times[turns[i].Timestamp] < times[turns[j].Timestamp]
	})
}

// Clear empties the transcript.
func (t *Transcript) Clear() {
	t.mu.Lock()
	t.history = nil
	t.live = nil
	t.seen = make(map[chat.TurnKey]struct{})
	t.mu.Unlock()
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.history) + len(t.live)
}

// Snapshot returns a copy of the turns in display order.
func (t *Transcript) Snapshot() []chat.Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]chat.Turn, 0, len(t.history)+len(t.live))
	out = append(out, t.history...)
	return append(out, t.live...)
}
