package lobby

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/playmatatu/eightball/internal/game"
	"github.com/playmatatu/eightball/internal/models"
	"github.com/playmatatu/eightball/internal/scoreboard"
)

var epoch = time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)

// manualClock only moves when the test advances it.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: epoch}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) NewTicker(time.Duration) Ticker {
	return idleTicker{ch: make(chan time.Time)}
}

// Advance moves time forward and runs due timers on the caller's goroutine.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()

	for _, f := range due {
		f()
	}
}

func (c *manualClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// idleTicker never ticks; tests drive tickMatch directly.
type idleTicker struct {
	ch chan time.Time
}

func (t idleTicker) C() <-chan time.Time { return t.ch }
func (t idleTicker) Stop()               {}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Publish(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) all() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event{}, n.events...)
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}

func (n *recordingNotifier) of(kind string) []Event {
	var out []Event
	for _, ev := range n.all() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (n *recordingNotifier) sentTo(participantID, kind string) []Event {
	var out []Event
	for _, ev := range n.of(kind) {
		if ev.Audience.Scope == ScopeParticipant && ev.Audience.Target == participantID {
			out = append(out, ev)
		}
	}
	return out
}

// indexOf returns the position of the first event of kind sent to the
// participant, or -1.
func (n *recordingNotifier) indexOf(participantID, kind string) int {
	for i, ev := range n.all() {
		if ev.Kind == kind && ev.Audience.Scope == ScopeParticipant && ev.Audience.Target == participantID {
			return i
		}
	}
	return -1
}

type fakePresence struct {
	mu   sync.Mutex
	gone map[string]bool
}

func (p *fakePresence) Reachable(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.gone[id]
}

func (p *fakePresence) drop(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gone[id] = true
}

type memoryRecorder struct {
	mu      sync.Mutex
	results []models.MatchResult
}

func (r *memoryRecorder) SaveResult(_ context.Context, res *models.MatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, *res)
	return nil
}

func (r *memoryRecorder) saved() []models.MatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.MatchResult{}, r.results...)
}

type harness struct {
	s        *Scheduler
	clock    *manualClock
	notifier *recordingNotifier
	presence *fakePresence
	recorder *memoryRecorder
	board    *scoreboard.Board
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:    newManualClock(),
		notifier: &recordingNotifier{},
		presence: &fakePresence{gone: map[string]bool{}},
		recorder: &memoryRecorder{},
		board:    scoreboard.New(scoreboard.DefaultWindow),
	}
	h.s = New(DefaultConfig(), h.clock, h.notifier, h.presence, h.board, h.recorder)
	t.Cleanup(h.s.Close)
	return h
}

func (h *harness) match() *game.Match {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if h.s.active == nil {
		return nil
	}
	return h.s.active.match
}

func (h *harness) queueIDs() []string {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	ids := make([]string, 0, len(h.s.queue))
	for _, e := range h.s.queue {
		ids = append(ids, e.ID)
	}
	return ids
}

// sinkEightEarly makes the seat on turn pot the eight before clearing a
// group, handing the match to the other seat.
func (h *harness) sinkEightEarly(t *testing.T) {
	t.Helper()
	m := h.match()
	if m == nil {
		t.Fatal("no active match")
	}

	m.Engine().Balls[game.EightBall].Position = game.NewVec2(60, 60)
	place := game.NewVec2(80, 80)
	h.s.Shoot(m.CurrentTurn, game.ShotInput{DX: -1, DY: -1, Power: 0.3, Place: &place})

	for i := 0; i < 20000 && h.match() == m; i++ {
		h.s.tickMatch(m)
	}
	if h.match() == m {
		t.Fatal("match did not end")
	}
}
