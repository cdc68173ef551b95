// Package scoreboard keeps the rolling win tally shown in the lobby.
package scoreboard

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultWindow is how far back wins are counted.
const DefaultWindow = 24 * time.Hour

// Entry is one row of the scoreboard.
type Entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type win struct {
	name string
	at   time.Time
}

// Board is an append-only, time-ordered log of wins.
type Board struct {
	window   time.Duration
	wins     []win
	collator *collate.Collator
	mu       sync.Mutex
}

// New creates a board counting wins over window. A non-positive window falls
// back to DefaultWindow.
func New(window time.Duration) *Board {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Board{
		window:   window,
		wins:     []win{},
		collator: collate.New(language.Und),
	}
}

// RecordWin appends a win. Out-of-order timestamps are pulled forward so the
// log stays sorted.
func (b *Board) RecordWin(name string, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n := len(b.wins); n > 0 && at.Before(b.wins[n-1].at) {
		at = b.wins[n-1].at
	}
	b.wins = append(b.wins, win{name: name, at: at})
}

// Standings trims expired wins and returns the tally, highest count first and
// names in collation order on ties.
func (b *Board) Standings(now time.Time) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := now.Add(-b.window)
	drop := 0
	for drop < len(b.wins) && b.wins[drop].at.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		b.wins = append([]win{}, b.wins[drop:]...)
	}

	counts := make(map[string]int)
	for _, w := range b.wins {
		counts[w.name]++
	}

	entries := make([]Entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, Entry{Name: name, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		if c := b.collator.CompareString(entries[i].Name, entries[j].Name); c != 0 {
			return c < 0
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Len returns the number of wins currently held, expired ones included.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.wins)
}
