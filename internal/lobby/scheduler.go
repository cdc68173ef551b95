// Package lobby runs the single pool table: the challenger queue, the
// champion hold and the tick loop of the active match.
package lobby

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/playmatatu/eightball/internal/game"
	"github.com/playmatatu/eightball/internal/models"
	"github.com/playmatatu/eightball/internal/scoreboard"
)

const defaultName = "Player"

// Config holds the scheduler knobs.
type Config struct {
	TickInterval  time.Duration
	BroadcastHz   int
	HoldDuration  time.Duration
	NameMaxLength int
}

// DefaultConfig matches the arcade table defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval:  16 * time.Millisecond,
		BroadcastHz:   30,
		HoldDuration:  30 * time.Second,
		NameMaxLength: 20,
	}
}

// Recorder archives match results. It may be slow; it is never called with
// the scheduler lock held.
type Recorder interface {
	SaveResult(ctx context.Context, result *models.MatchResult) error
}

// QueueEntry represents a challenger waiting for the table.
type QueueEntry struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

type activeMatch struct {
	match         *game.Match
	stop          chan struct{}
	lastBroadcast time.Time
}

// Scheduler owns the queue, the champion hold, the active match and the
// scoreboard. Every exported method and every timer callback runs under mu.
type Scheduler struct {
	cfg            Config
	clock          Clock
	notifier       Notifier
	presence       Presence
	recorder       Recorder
	board          *scoreboard.Board
	rng            *rand.Rand
	broadcastEvery time.Duration

	queue  []QueueEntry
	hold   *championHold
	active *activeMatch
	closed bool
	mu     sync.Mutex
}

// New creates a scheduler. recorder may be nil.
func New(cfg Config, clock Clock, notifier Notifier, presence Presence, board *scoreboard.Board, recorder Recorder) *Scheduler {
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.BroadcastHz <= 0 {
		cfg.BroadcastHz = def.BroadcastHz
	}
	if cfg.HoldDuration <= 0 {
		cfg.HoldDuration = def.HoldDuration
	}
	if cfg.NameMaxLength <= 0 {
		cfg.NameMaxLength = def.NameMaxLength
	}
	if clock == nil {
		clock = SystemClock{}
	}

	return &Scheduler{
		cfg:            cfg,
		clock:          clock,
		notifier:       notifier,
		presence:       presence,
		recorder:       recorder,
		board:          board,
		rng:            rand.New(rand.NewSource(clock.Now().UnixNano())),
		broadcastEvery: time.Second / time.Duration(cfg.BroadcastHz),
		queue:          []QueueEntry{},
	}
}

// Greet sends the current lobby view to a newly connected participant.
func (s *Scheduler) Greet(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifier.Publish(toParticipant(participantID, EventQueueUpdate, s.queueUpdate()))
	s.notifier.Publish(toParticipant(participantID, EventScoreUpdate, s.board.Standings(s.clock.Now())))
	if s.active != nil {
		s.notifier.Publish(toParticipant(participantID, EventMatchState, s.active.match.Snapshot()))
	}
}

// Enqueue adds a challenger. Participants already queued, seated or holding
// the champion slot are ignored.
func (s *Scheduler) Enqueue(participantID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	switch {
	case s.queuedAt(participantID) >= 0:
		log.Printf("[LOBBY] %s already queued", participantID)
		return
	case s.active != nil && s.active.match.HasPlayer(participantID):
		log.Printf("[LOBBY] %s is playing; enqueue ignored", participantID)
		return
	case s.hold != nil && s.hold.participantID == participantID:
		log.Printf("[LOBBY] %s holds the table; enqueue ignored", participantID)
		return
	}

	entry := QueueEntry{ID: participantID, Name: s.cleanName(name), JoinedAt: s.clock.Now()}
	s.queue = append(s.queue, entry)
	log.Printf("[LOBBY] %s (%s) joined the queue (size=%d)", entry.Name, participantID, len(s.queue))

	s.publishQueue()
	s.tryAdmit()
}

// Dequeue removes a challenger from the queue.
func (s *Scheduler) Dequeue(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.removeFromQueue(participantID) {
		return
	}
	log.Printf("[LOBBY] %s left the queue", participantID)
	s.notifier.Publish(toParticipant(participantID, EventQueueLeft, nil))
	s.publishQueue()
}

// Shoot forwards a shot to the active match. Invalid shots are dropped.
func (s *Scheduler) Shoot(participantID string, in game.ShotInput) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.matchFor(participantID)
	if m == nil {
		log.Printf("[MATCH] shot from %s ignored: not seated", participantID)
		return
	}
	if err := m.Shoot(participantID, in); err != nil {
		log.Printf("[MATCH] shot from %s ignored: %v", participantID, err)
		return
	}
	s.broadcastState()
}

// PlaceCueBall forwards a ball-in-hand placement to the active match.
func (s *Scheduler) PlaceCueBall(participantID string, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.matchFor(participantID)
	if m == nil {
		log.Printf("[MATCH] placement from %s ignored: not seated", participantID)
		return
	}
	if err := m.PlaceCueBall(participantID, x, y); err != nil {
		log.Printf("[MATCH] placement from %s ignored: %v", participantID, err)
		return
	}
	s.broadcastState()
}

// Disconnect removes a participant from everything they occupy. A seated
// participant forfeits and the table is freed. Safe to call repeatedly.
func (s *Scheduler) Disconnect(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queueChanged := s.removeFromQueue(participantID)

	if s.hold != nil && s.hold.participantID == participantID {
		log.Printf("[LOBBY] champion %s disconnected; hold cleared", participantID)
		s.clearHold()
	}

	if m := s.matchFor(participantID); m != nil {
		if err := m.Forfeit(participantID); err != nil {
			log.Printf("[MATCH] forfeit for %s failed: %v", participantID, err)
		} else {
			opponentID := m.GetOpponentID(participantID)
			log.Printf("[MATCH] %s left room %s; %s is free", participantID, m.ID, opponentID)
			s.notifier.Publish(toParticipant(opponentID, EventOpponentLeft, nil))
			s.retireActive()
			s.archive(m)
		}
	}

	if queueChanged {
		s.publishQueue()
	}
	s.tryAdmit()
}

// Close stops the tick loop and the hold timer. The scheduler ignores
// further joins.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.active != nil {
		close(s.active.stop)
		s.active = nil
	}
	if s.hold != nil {
		s.clearHold()
	}
}

// Queue returns the current queue view.
func (s *Scheduler) Queue() QueueUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queueUpdate()
}

// Standings returns the scoreboard.
func (s *Scheduler) Standings() []scoreboard.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Standings(s.clock.Now())
}

// ActiveMatch returns a snapshot of the match on the table, if any.
func (s *Scheduler) ActiveMatch() (game.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return game.Snapshot{}, false
	}
	return s.active.match.Snapshot(), true
}

// === Admission ===

// tryAdmit starts a match when the table is free and the queue and hold
// allow it. Called after every queue, hold or table change.
func (s *Scheduler) tryAdmit() {
	if s.closed || s.active != nil {
		return
	}

	var p1, p2 QueueEntry
	switch {
	case s.hold != nil:
		if s.clock.Now().Before(s.hold.readyAt) || len(s.queue) == 0 {
			return
		}
		champion := QueueEntry{ID: s.hold.participantID, Name: s.hold.name}
		challenger := s.queue[0]

		champOK := s.presence.Reachable(champion.ID)
		challengerOK := s.presence.Reachable(challenger.ID)
		if !champOK || !challengerOK {
			if !champOK {
				log.Printf("[LOBBY] champion %s unreachable; hold dropped", champion.ID)
				s.clearHold()
			}
			if !challengerOK {
				log.Printf("[LOBBY] challenger %s unreachable; dropped from queue", challenger.ID)
				s.queue = s.queue[1:]
				s.publishQueue()
			}
			return
		}

		s.clearHold()
		s.queue = s.queue[1:]
		p1, p2 = champion, challenger

	case len(s.queue) >= 2:
		a, b := s.queue[0], s.queue[1]
		aOK := s.presence.Reachable(a.ID)
		bOK := s.presence.Reachable(b.ID)
		if !aOK || !bOK {
			rest := append([]QueueEntry{}, s.queue[2:]...)
			head := make([]QueueEntry, 0, 2)
			for _, e := range []struct {
				entry QueueEntry
				ok    bool
			}{{a, aOK}, {b, bOK}} {
				if e.ok {
					head = append(head, e.entry)
				} else {
					log.Printf("[LOBBY] %s unreachable; dropped from queue", e.entry.ID)
				}
			}
			s.queue = append(head, rest...)
			s.publishQueue()
			return
		}

		s.queue = s.queue[2:]
		p1, p2 = a, b

	default:
		return
	}

	s.startMatch(p1, p2)
}

func (s *Scheduler) startMatch(p1, p2 QueueEntry) {
	now := s.clock.Now()
	room := newRoomID()
	m := game.NewMatch(room, p1.ID, p1.Name, p2.ID, p2.Name, s.rng, now)

	am := &activeMatch{match: m, stop: make(chan struct{}), lastBroadcast: now}
	s.active = am
	log.Printf("[MATCH] room %s started: %s vs %s", room, p1.Name, p2.Name)

	s.notifier.Publish(Event{
		Kind:     EventRoomOpen,
		Audience: Audience{Scope: ScopeRoom, Target: room},
		Payload:  RoomMembers{Room: room, Members: []string{p1.ID, p2.ID}},
	})
	s.notifier.Publish(toParticipant(p1.ID, EventMatchStart, MatchStart{Room: room, Opponent: p2.Name, You: p1.ID, OpponentID: p2.ID}))
	s.notifier.Publish(toParticipant(p2.ID, EventMatchStart, MatchStart{Room: room, Opponent: p1.Name, You: p2.ID, OpponentID: p1.ID}))
	s.notifier.Publish(toRoom(room, EventMatchState, m.Snapshot()))
	s.publishQueue()

	ticker := s.clock.NewTicker(s.cfg.TickInterval)
	go s.runMatch(m, ticker, am.stop)
}

// === Tick loop ===

func (s *Scheduler) runMatch(m *game.Match, ticker Ticker, stop <-chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			s.tickMatch(m)
		}
	}
}

// tickMatch advances m by one step if it is still the active match.
func (s *Scheduler) tickMatch(m *game.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.active.match != m {
		return
	}

	outcome := m.Tick()
	now := s.clock.Now()
	if outcome != nil || now.Sub(s.active.lastBroadcast) >= s.broadcastEvery {
		s.broadcastState()
	}

	if outcome == nil {
		return
	}
	if outcome.Foul != nil {
		log.Printf("[MATCH] room %s: foul by %s (%s)", m.ID, outcome.Shooter, outcome.Foul.Type)
	}
	if outcome.GameOver {
		s.finishMatch(m)
	}
}

func (s *Scheduler) broadcastState() {
	if s.active == nil {
		return
	}
	s.active.lastBroadcast = s.clock.Now()
	m := s.active.match
	s.notifier.Publish(toRoom(m.ID, EventMatchState, m.Snapshot()))
}

// finishMatch handles a match decided on the table: the winner is
// announced, scored and given the champion hold.
func (s *Scheduler) finishMatch(m *game.Match) {
	winner := m.GetPlayerByID(m.Winner)
	loser := m.GetPlayerByID(m.Loser)
	now := s.clock.Now()

	log.Printf("[MATCH] room %s over: %s beat %s (%s)", m.ID, winner.DisplayName, loser.DisplayName, m.WinType)

	s.notifier.Publish(toRoom(m.ID, EventMatchEnd, MatchEnd{
		Winner:     winner.ID,
		Loser:      loser.ID,
		WinnerName: winner.DisplayName,
		LoserName:  loser.DisplayName,
		Reason:     m.WinType,
	}))
	s.retireActive()

	s.notifier.Publish(toLobby(EventSystem, SystemMessage{Message: fmt.Sprintf("%s wins!", winner.DisplayName)}))
	s.board.RecordWin(winner.DisplayName, now)
	s.notifier.Publish(toLobby(EventScoreUpdate, s.board.Standings(now)))

	s.removeFromQueue(winner.ID)
	s.removeFromQueue(loser.ID)
	s.grantHold(winner.ID, winner.DisplayName)
	s.archive(m)

	s.publishQueue()
	s.tryAdmit()
}

// retireActive stops the tick loop and dissolves the room.
func (s *Scheduler) retireActive() {
	if s.active == nil {
		return
	}
	room := s.active.match.ID
	close(s.active.stop)
	s.active = nil
	s.notifier.Publish(Event{Kind: EventRoomClose, Audience: Audience{Scope: ScopeRoom, Target: room}})
}

func (s *Scheduler) archive(m *game.Match) {
	if s.recorder == nil {
		return
	}
	result := &models.MatchResult{
		Room:        m.ID,
		Player1ID:   m.Player1.ID,
		Player1Name: m.Player1.DisplayName,
		Player2ID:   m.Player2.ID,
		Player2Name: m.Player2.DisplayName,
		WinnerID:    m.Winner,
		WinType:     m.WinType,
		Status:      string(m.Status),
		Shots:       m.ShotNumber,
		StartedAt:   m.StartedAt,
		CompletedAt: s.clock.Now(),
	}
	if w := m.GetPlayerByID(m.Winner); w != nil {
		result.WinnerName = w.DisplayName
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.recorder.SaveResult(ctx, result); err != nil {
			log.Printf("[ARCHIVE] failed to save result for room %s: %v", result.Room, err)
		}
	}()
}

// === Helpers ===

func (s *Scheduler) matchFor(participantID string) *game.Match {
	if s.active == nil || !s.active.match.HasPlayer(participantID) {
		return nil
	}
	return s.active.match
}

func (s *Scheduler) queuedAt(participantID string) int {
	for i, e := range s.queue {
		if e.ID == participantID {
			return i
		}
	}
	return -1
}

func (s *Scheduler) removeFromQueue(participantID string) bool {
	i := s.queuedAt(participantID)
	if i < 0 {
		return false
	}
	s.queue = append(s.queue[:i], s.queue[i+1:]...)
	return true
}

func (s *Scheduler) queueUpdate() QueueUpdate {
	names := make([]string, 0, len(s.queue))
	for _, e := range s.queue {
		names = append(names, e.Name)
	}
	return QueueUpdate{Count: len(s.queue), Names: names}
}

func (s *Scheduler) publishQueue() {
	s.notifier.Publish(toLobby(EventQueueUpdate, s.queueUpdate()))
}

// cleanName trims and caps a display name.
func (s *Scheduler) cleanName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > s.cfg.NameMaxLength {
		name = strings.TrimSpace(string([]rune(name)[:s.cfg.NameMaxLength]))
	}
	if name == "" {
		return defaultName
	}
	return name
}

func newRoomID() string {
	return "room_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
