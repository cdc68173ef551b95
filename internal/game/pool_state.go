package game

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

// Command rejections. Callers log them and never echo them to participants.
var (
	ErrMatchOver          = errors.New("match is not in progress")
	ErrUnknownParticipant = errors.New("participant is not seated in this match")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrNotAwaitingShot    = errors.New("balls are still moving")
	ErrNoBallInHand       = errors.New("not ball-in-hand")
	ErrInvalidPlacement   = errors.New("invalid cue ball placement")
	ErrInvalidShot        = errors.New("invalid shot direction")
)

// BallGroup represents a player's assigned ball group.
type BallGroup string

const (
	GroupNone    BallGroup = ""
	GroupSolids  BallGroup = "solid"
	GroupStripes BallGroup = "stripe"
)

// PoolPlayer represents a seat in a match.
type PoolPlayer struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	BallGroup   BallGroup `json:"group"`
	CanPotEight bool      `json:"can_pot_eight"`
	Potted      []int     `json:"potted"`
}

// BallState represents a ball's position and status for serialization.
type BallState struct {
	ID       int     `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Pocketed bool    `json:"pocketed"`
}

// ShotInput is a shoot command. Place is honoured only with ball-in-hand.
type ShotInput struct {
	DX    float64 `json:"dx"`
	DY    float64 `json:"dy"`
	Power float64 `json:"power"`
	Place *Vec2   `json:"place,omitempty"`
}

// Snapshot is the read-only projection of a match broadcast to observers.
type Snapshot struct {
	Room         string       `json:"room"`
	Table        Table        `json:"table"`
	Balls        []BallState  `json:"balls"`
	Players      []PoolPlayer `json:"players"`
	CurrentTurn  string       `json:"current_turn"`
	BallInHand   bool         `json:"ball_in_hand"`
	AwaitingShot bool         `json:"awaiting_shot"`
	Phase        Phase        `json:"phase"`
	ShotNumber   int          `json:"shot_number"`
	Status       GameStatus   `json:"status"`
	Winner       string       `json:"winner,omitempty"`
	WinType      string       `json:"win_type,omitempty"`
}

// Match is the full state of the single table. It is not safe for concurrent
// use; its owner serializes every call.
type Match struct {
	ID           string
	Player1      *PoolPlayer
	Player2      *PoolPlayer
	CurrentTurn  string
	BallInHand   bool
	AwaitingShot bool
	Status       GameStatus
	Winner       string
	Loser        string
	WinType      string
	ShotNumber   int
	StartedAt    time.Time

	engine *PhysicsEngine
	turn   TurnLog
}

// NewMatch racks the balls and gives player 1 the opening shot with
// ball-in-hand.
func NewMatch(id string, p1ID, p1Name, p2ID, p2Name string, rng *rand.Rand, now time.Time) *Match {
	rack := Standard8BallRack(rng)
	var balls [NumBalls]*Ball
	for i := 0; i < NumBalls; i++ {
		balls[i] = &Ball{ID: i, Position: rack[i]}
	}

	return &Match{
		ID:           id,
		Player1:      &PoolPlayer{ID: p1ID, DisplayName: p1Name, Potted: []int{}},
		Player2:      &PoolPlayer{ID: p2ID, DisplayName: p2Name, Potted: []int{}},
		CurrentTurn:  p1ID,
		BallInHand:   true,
		AwaitingShot: true,
		Status:       StatusInProgress,
		StartedAt:    now,
		engine:       NewPhysicsEngine(balls, NewStandard8BallTable()),
		turn:         NewTurnLog(),
	}
}

// Engine exposes the simulator, mainly for tests and tooling.
func (m *Match) Engine() *PhysicsEngine {
	return m.engine
}

// Phase reports where the match is in its shot cycle.
func (m *Match) Phase() Phase {
	switch {
	case m.Status != StatusInProgress:
		return PhaseEnded
	case m.AwaitingShot:
		return PhaseAwaitingShot
	default:
		return PhaseBallsInMotion
	}
}

// HasPlayer reports whether playerID holds one of the two seats.
func (m *Match) HasPlayer(playerID string) bool {
	return m.GetPlayerByID(playerID) != nil
}

func (m *Match) GetPlayerByID(playerID string) *PoolPlayer {
	if m.Player1.ID == playerID {
		return m.Player1
	}
	if m.Player2.ID == playerID {
		return m.Player2
	}
	return nil
}

func (m *Match) GetOpponentID(playerID string) string {
	if m.Player1.ID == playerID {
		return m.Player2.ID
	}
	return m.Player1.ID
}

// Shoot applies a cue impulse for the turn owner.
func (m *Match) Shoot(playerID string, in ShotInput) error {
	if err := m.checkTurn(playerID); err != nil {
		return err
	}

	dir := NewVec2(in.DX, in.DY)
	if !dir.IsFinite() || dir.IsZero() {
		return ErrInvalidShot
	}

	cue := m.engine.Balls[CueBall]
	if m.BallInHand && in.Place != nil && in.Place.IsFinite() {
		cue.Position = in.Place.ClampToTable()
		cue.Velocity = Vec2{}
		cue.Pocketed = false
	}

	power := in.Power
	if math.IsNaN(power) {
		power = 0
	}
	power = clamp(power, 0, MaxPower)
	cue.Velocity = cue.Velocity.Plus(dir.Normalize().Times(power * CueImpulse))

	m.BallInHand = false
	m.AwaitingShot = false
	m.turn = NewTurnLog()
	m.ShotNumber++
	return nil
}

// PlaceCueBall moves the cue ball for a ball-in-hand turn.
func (m *Match) PlaceCueBall(playerID string, x, y float64) error {
	if err := m.checkTurn(playerID); err != nil {
		return err
	}
	if !m.BallInHand {
		return ErrNoBallInHand
	}

	p := NewVec2(x, y)
	if !p.IsFinite() {
		return ErrInvalidPlacement
	}
	p = p.ClampToTable()

	if _, ok := m.engine.Table.PocketAt(p); ok {
		return ErrInvalidPlacement
	}
	for _, b := range m.engine.Balls {
		if b.ID == CueBall || b.Pocketed {
			continue
		}
		if p.DistanceTo(b.Position) < 2*BallRadius {
			return ErrInvalidPlacement
		}
	}

	cue := m.engine.Balls[CueBall]
	cue.Position = p
	cue.Velocity = Vec2{}
	cue.Pocketed = false
	return nil
}

// Tick advances the match by one fixed step. It returns the resolved turn
// once every ball has come to rest, nil otherwise.
func (m *Match) Tick() *TurnOutcome {
	if m.Status != StatusInProgress || m.AwaitingShot {
		return nil
	}
	m.engine.Step(&m.turn)
	if m.engine.Moving() {
		return nil
	}
	return m.resolveTurn()
}

// Forfeit ends the match because playerID left. The other seat is recorded
// as winner for the archive only.
func (m *Match) Forfeit(playerID string) error {
	if m.Status != StatusInProgress {
		return ErrMatchOver
	}
	player := m.GetPlayerByID(playerID)
	if player == nil {
		return ErrUnknownParticipant
	}
	_, opponent := m.getPlayerAndOpponent(playerID)

	m.Status = StatusCancelled
	m.Winner = opponent.ID
	m.Loser = player.ID
	m.WinType = WinForfeit
	m.AwaitingShot = false
	return nil
}

// Snapshot returns a copy of the full match state.
func (m *Match) Snapshot() Snapshot {
	balls := make([]BallState, NumBalls)
	for i, b := range m.engine.Balls {
		balls[i] = BallState{
			ID:       b.ID,
			X:        b.Position.X,
			Y:        b.Position.Y,
			VX:       b.Velocity.X,
			VY:       b.Velocity.Y,
			Pocketed: b.Pocketed,
		}
	}

	table := *m.engine.Table
	table.Pockets = append([]Pocket(nil), m.engine.Table.Pockets...)

	return Snapshot{
		Room:         m.ID,
		Table:        table,
		Balls:        balls,
		Players:      []PoolPlayer{copyPlayer(m.Player1), copyPlayer(m.Player2)},
		CurrentTurn:  m.CurrentTurn,
		BallInHand:   m.BallInHand,
		AwaitingShot: m.AwaitingShot,
		Phase:        m.Phase(),
		ShotNumber:   m.ShotNumber,
		Status:       m.Status,
		Winner:       m.Winner,
		WinType:      m.WinType,
	}
}

// === Internal helpers ===

func (m *Match) checkTurn(playerID string) error {
	if m.Status != StatusInProgress {
		return ErrMatchOver
	}
	if !m.HasPlayer(playerID) {
		return ErrUnknownParticipant
	}
	if m.CurrentTurn != playerID {
		return ErrNotYourTurn
	}
	if !m.AwaitingShot {
		return ErrNotAwaitingShot
	}
	return nil
}

func (m *Match) switchTurn() {
	m.CurrentTurn = m.GetOpponentID(m.CurrentTurn)
}

func (m *Match) getPlayerAndOpponent(playerID string) (*PoolPlayer, *PoolPlayer) {
	if m.Player1.ID == playerID {
		return m.Player1, m.Player2
	}
	return m.Player2, m.Player1
}

func copyPlayer(p *PoolPlayer) PoolPlayer {
	c := *p
	c.Potted = append([]int{}, p.Potted...)
	return c
}
