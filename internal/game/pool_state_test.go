package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTurn(t *testing.T, m *Match) *TurnOutcome {
	t.Helper()
	for i := 0; i < maxTestTicks; i++ {
		if out := m.Tick(); out != nil {
			return out
		}
	}
	t.Fatalf("turn did not settle after %d ticks", maxTestTicks)
	return nil
}

func TestNewMatchOpeningState(t *testing.T) {
	m := newTestMatch()

	assert.Equal(t, "p1", m.CurrentTurn)
	assert.True(t, m.BallInHand)
	assert.True(t, m.AwaitingShot)
	assert.Equal(t, StatusInProgress, m.Status)
	assert.Equal(t, CueStart, m.engine.Balls[CueBall].Position)
	assert.Equal(t, NewVec2(TableWidth*0.66+2*(BallRadius*1.73+0.5), TableHeight*0.5), m.engine.Balls[EightBall].Position)
	assert.Equal(t, GroupNone, m.Player1.BallGroup)
	assert.Equal(t, GroupNone, m.Player2.BallGroup)
}

func TestShootRejections(t *testing.T) {
	m := newTestMatch()

	assert.ErrorIs(t, m.Shoot("p2", ShotInput{DX: 1, Power: 1}), ErrNotYourTurn)
	assert.ErrorIs(t, m.Shoot("ghost", ShotInput{DX: 1, Power: 1}), ErrUnknownParticipant)
	assert.ErrorIs(t, m.Shoot("p1", ShotInput{Power: 1}), ErrInvalidShot)
	assert.ErrorIs(t, m.Shoot("p1", ShotInput{DX: math.NaN(), DY: 1, Power: 1}), ErrInvalidShot)

	require.NoError(t, m.Shoot("p1", ShotInput{DX: 1, Power: 0.5}))
	assert.ErrorIs(t, m.Shoot("p1", ShotInput{DX: 1, Power: 0.5}), ErrNotAwaitingShot)
	assert.Equal(t, 1, m.ShotNumber)
}

func TestShootClampsPowerAndAddsImpulse(t *testing.T) {
	m := newTestMatch()
	m.engine.Balls[CueBall].Velocity = NewVec2(0, 1)

	require.NoError(t, m.Shoot("p1", ShotInput{DX: 3, DY: 0, Power: 5}))

	v := m.engine.Balls[CueBall].Velocity
	assert.InDelta(t, CueImpulse*MaxPower, v.X, 1e-9)
	assert.InDelta(t, 1, v.Y, 1e-9, "impulse is added to the existing velocity")
	assert.False(t, m.BallInHand)
	assert.Equal(t, PhaseBallsInMotion, m.Phase())
}

func TestShootNegativeOrNaNPowerIsZero(t *testing.T) {
	for _, power := range []float64{-1, math.NaN()} {
		m := newTestMatch()
		require.NoError(t, m.Shoot("p1", ShotInput{DX: 1, Power: power}))
		assert.True(t, m.engine.Balls[CueBall].Velocity.IsZero())
	}
}

func TestShootPlacementNeedsBallInHand(t *testing.T) {
	m := newTestMatch()
	place := NewVec2(-500, 200)

	require.NoError(t, m.Shoot("p1", ShotInput{DX: 1, Power: 0, Place: &place}))
	assert.Equal(t, NewVec2(MinX, 200), m.engine.Balls[CueBall].Position, "placement is clamped")

	runTurn(t, m)
	require.Equal(t, "p2", m.CurrentTurn)
	require.True(t, m.BallInHand, "a shot without contact fouls")

	m.BallInHand = false
	before := m.engine.Balls[CueBall].Position
	place = NewVec2(300, 300)
	require.NoError(t, m.Shoot("p2", ShotInput{DX: 0, DY: 1, Power: 0, Place: &place}))
	assert.Equal(t, before, m.engine.Balls[CueBall].Position)
}

func TestPlaceCueBall(t *testing.T) {
	m := newTestMatch()

	assert.ErrorIs(t, m.PlaceCueBall("p2", 200, 200), ErrNotYourTurn)
	assert.ErrorIs(t, m.PlaceCueBall("p1", math.Inf(1), 200), ErrInvalidPlacement)
	assert.ErrorIs(t, m.PlaceCueBall("p1", 0, 0), ErrInvalidPlacement, "clamped into a corner pocket")
	apex := m.engine.Balls[1].Position
	assert.ErrorIs(t, m.PlaceCueBall("p1", apex.X-5, apex.Y), ErrInvalidPlacement, "overlaps the rack")
	assert.Equal(t, CueStart, m.engine.Balls[CueBall].Position)

	require.NoError(t, m.PlaceCueBall("p1", 200, 5000))
	assert.Equal(t, NewVec2(200, MaxY), m.engine.Balls[CueBall].Position)
	assert.True(t, m.BallInHand, "ball-in-hand lasts until the shot")

	m.BallInHand = false
	assert.ErrorIs(t, m.PlaceCueBall("p1", 250, 250), ErrNoBallInHand)
}

func TestOpeningScratch(t *testing.T) {
	m := newTestMatch()
	place := NewVec2(60, 60)

	require.NoError(t, m.Shoot("p1", ShotInput{DX: -1, DY: -1, Power: 0.3, Place: &place}))
	out := runTurn(t, m)

	require.NotNil(t, out.Foul)
	assert.Equal(t, FoulScratch, out.Foul.Type)
	assert.Equal(t, []int{CueBall}, out.PocketedBalls)
	assert.Equal(t, "p2", m.CurrentTurn)
	assert.True(t, m.BallInHand)
	assert.Equal(t, CueStart, m.engine.Balls[CueBall].Position)
	assert.Equal(t, GroupNone, m.Player1.BallGroup)
	assert.Equal(t, GroupNone, m.Player2.BallGroup)

	assert.Nil(t, m.Tick(), "idle table does not tick")
}

func TestForfeit(t *testing.T) {
	m := newTestMatch()

	assert.ErrorIs(t, m.Forfeit("ghost"), ErrUnknownParticipant)
	require.NoError(t, m.Forfeit("p2"))

	assert.Equal(t, StatusCancelled, m.Status)
	assert.Equal(t, "p1", m.Winner)
	assert.Equal(t, WinForfeit, m.WinType)
	assert.Equal(t, PhaseEnded, m.Phase())
	assert.ErrorIs(t, m.Forfeit("p1"), ErrMatchOver)
	assert.ErrorIs(t, m.Shoot("p1", ShotInput{DX: 1}), ErrMatchOver)
}

func TestSnapshotIsACopy(t *testing.T) {
	m := newTestMatch()
	settleWith(m, 3, 3)

	snap := m.Snapshot()
	require.Len(t, snap.Balls, NumBalls)
	require.Len(t, snap.Table.Pockets, 6)
	assert.Equal(t, "room_test", snap.Room)
	assert.Equal(t, []int{3}, snap.Players[0].Potted)
	assert.Equal(t, GroupSolids, snap.Players[0].BallGroup)
	assert.True(t, snap.Balls[3].Pocketed)

	snap.Players[0].Potted[0] = 99
	snap.Table.Pockets[0].Position = Vec2{}
	assert.Equal(t, []int{3}, m.Player1.Potted)
	assert.Equal(t, NewVec2(RailMargin, RailMargin), m.engine.Table.Pockets[0].Position)
	assert.Equal(t, snap.ShotNumber, m.Snapshot().ShotNumber)
}
