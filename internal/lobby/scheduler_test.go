package lobby

import (
	"strings"
	"testing"
	"time"

	"github.com/playmatatu/eightball/internal/game"
	"github.com/playmatatu/eightball/internal/scoreboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwoChallengersStartMatch(t *testing.T) {
	h := newHarness(t)

	h.s.Enqueue("a", "Alice")
	assert.Nil(t, h.match(), "one challenger is not enough")

	h.s.Enqueue("b", "Bob")
	m := h.match()
	require.NotNil(t, m)

	assert.True(t, strings.HasPrefix(m.ID, "room_"))
	assert.Empty(t, h.queueIDs())

	snap := m.Snapshot()
	assert.Equal(t, "a", snap.CurrentTurn)
	assert.True(t, snap.BallInHand)
	assert.True(t, snap.AwaitingShot)
	assert.Equal(t, game.CueStart, game.NewVec2(snap.Balls[game.CueBall].X, snap.Balls[game.CueBall].Y))
	assert.InDelta(t, game.TableHeight*0.5, snap.Balls[game.EightBall].Y, 1e-9)

	startA := h.notifier.sentTo("a", EventMatchStart)
	require.Len(t, startA, 1)
	assert.Equal(t, MatchStart{Room: m.ID, Opponent: "Bob", You: "a", OpponentID: "b"}, startA[0].Payload)
	startB := h.notifier.sentTo("b", EventMatchStart)
	require.Len(t, startB, 1)
	assert.Equal(t, MatchStart{Room: m.ID, Opponent: "Alice", You: "b", OpponentID: "a"}, startB[0].Payload)

	open := h.notifier.of(EventRoomOpen)
	require.Len(t, open, 1)
	assert.Equal(t, RoomMembers{Room: m.ID, Members: []string{"a", "b"}}, open[0].Payload)
}

func TestEnqueueIgnoresDuplicatesAndPlayers(t *testing.T) {
	h := newHarness(t)

	h.s.Enqueue("a", "Alice")
	h.s.Enqueue("a", "Alice again")
	assert.Equal(t, []string{"a"}, h.queueIDs())

	h.s.Enqueue("b", "Bob")
	require.NotNil(t, h.match())

	h.s.Enqueue("a", "Alice")
	assert.Empty(t, h.queueIDs(), "seated players cannot queue")
}

func TestOnlyOneMatchAtATime(t *testing.T) {
	h := newHarness(t)

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		h.s.Enqueue(id, strings.ToUpper(id))
	}

	assert.Len(t, h.notifier.of(EventRoomOpen), 1)
	assert.Equal(t, []string{"c", "d", "e"}, h.queueIDs())
	assert.Equal(t, QueueUpdate{Count: 3, Names: []string{"C", "D", "E"}}, h.s.Queue())
}

func TestDequeue(t *testing.T) {
	h := newHarness(t)
	h.s.Enqueue("a", "Alice")

	h.s.Dequeue("a")
	h.s.Dequeue("a")

	assert.Empty(t, h.queueIDs())
	assert.Len(t, h.notifier.sentTo("a", EventQueueLeft), 1)
}

func TestNamesAreCleaned(t *testing.T) {
	h := newHarness(t)

	h.s.Enqueue("b", "  Bartholomew the Magnificent  ")
	h.s.Enqueue("c", "ünïcödé")

	m := h.match()
	require.NotNil(t, m)
	assert.Equal(t, "Bartholomew the Magn", m.Player1.DisplayName)
	assert.Equal(t, "ünïcödé", m.Player2.DisplayName)

	h.s.Enqueue("x", "   ")
	assert.Equal(t, []string{"Player"}, h.s.Queue().Names)
}

func TestChampionHoldPairsWinnerWithNextChallenger(t *testing.T) {
	h := newHarness(t)
	h.s.Enqueue("a", "Alice")
	h.s.Enqueue("b", "Bob")
	first := h.match()

	h.sinkEightEarly(t)

	end := h.notifier.of(EventMatchEnd)
	require.Len(t, end, 1)
	assert.Equal(t, ScopeRoom, end[0].Audience.Scope)
	assert.Equal(t, first.ID, end[0].Audience.Target)
	assert.Equal(t, MatchEnd{Winner: "b", Loser: "a", WinnerName: "Bob", LoserName: "Alice", Reason: game.WinIllegalEight}, end[0].Payload)
	assert.Len(t, h.notifier.of(EventRoomClose), 1)
	assert.Equal(t, []scoreboard.Entry{{Name: "Bob", Count: 1}}, h.s.Standings())

	hold, ok := h.s.Hold()
	require.True(t, ok)
	assert.Equal(t, "b", hold.ParticipantID)
	assert.Equal(t, epoch.Add(30*time.Second), hold.ReadyAt)

	h.clock.Advance(10 * time.Second)
	h.s.Enqueue("c", "Cleo")
	assert.Nil(t, h.match(), "champion still resting")

	h.notifier.reset()
	h.clock.Advance(20 * time.Second)
	next := h.match()
	require.NotNil(t, next)
	assert.Equal(t, "b", next.Player1.ID)
	assert.Equal(t, "c", next.Player2.ID)
	assert.Empty(t, h.queueIDs())
	assert.Len(t, h.notifier.sentTo("b", EventWinnerTimeout), 1, "expiry is announced even when a challenger waits")
	assert.Less(t, h.notifier.indexOf("b", EventWinnerTimeout), h.notifier.indexOf("b", EventMatchStart))

	_, ok = h.s.Hold()
	assert.False(t, ok)

	assert.Eventually(t, func() bool { return len(h.recorder.saved()) == 1 }, time.Second, 5*time.Millisecond)
	saved := h.recorder.saved()[0]
	assert.Equal(t, "b", saved.WinnerID)
	assert.Equal(t, "Bob", saved.WinnerName)
	assert.Equal(t, game.WinIllegalEight, saved.WinType)
	assert.Equal(t, string(game.StatusCompleted), saved.Status)
}

func TestHoldExpiresWithoutChallenger(t *testing.T) {
	h := newHarness(t)
	h.s.Enqueue("a", "Alice")
	h.s.Enqueue("b", "Bob")
	h.sinkEightEarly(t)

	h.clock.Advance(30 * time.Second)
	assert.Len(t, h.notifier.sentTo("b", EventWinnerTimeout), 1)
	assert.Nil(t, h.match())

	hold, ok := h.s.Hold()
	require.True(t, ok)
	assert.Equal(t, epoch.Add(30*time.Second), hold.ReadyAt)

	h.s.Enqueue("a", "Alice")
	m := h.match()
	require.NotNil(t, m)
	assert.Equal(t, "b", m.Player1.ID)
	assert.Equal(t, "a", m.Player2.ID)
}

func TestChampionCannotQueue(t *testing.T) {
	h := newHarness(t)
	h.s.Enqueue("a", "Alice")
	h.s.Enqueue("b", "Bob")
	h.sinkEightEarly(t)

	h.s.Enqueue("b", "Bob")
	assert.Empty(t, h.queueIDs())
}

func TestCancelHold(t *testing.T) {
	h := newHarness(t)
	h.s.Enqueue("a", "Alice")
	h.s.Enqueue("b", "Bob")
	h.sinkEightEarly(t)
	h.s.Enqueue("a", "Alice")
	h.s.Enqueue("c", "Cleo")
	require.Nil(t, h.match())

	h.s.CancelHold("a")
	_, ok := h.s.Hold()
	assert.True(t, ok, "only the champion can cancel")

	h.s.CancelHold("b")
	_, ok = h.s.Hold()
	assert.False(t, ok)
	assert.Zero(t, h.clock.pending(), "hold timer stopped")

	m := h.match()
	require.NotNil(t, m)
	assert.Equal(t, "a", m.Player1.ID)
	assert.Equal(t, "c", m.Player2.ID)

	// The old timer must not touch anything when time passes
	h.clock.Advance(time.Minute)
	assert.Empty(t, h.notifier.sentTo("b", EventWinnerTimeout))
	assert.Same(t, m, h.match())
}

func TestUnreachableChampionLosesHold(t *testing.T) {
	h := newHarness(t)
	h.s.Enqueue("a", "Alice")
	h.s.Enqueue("b", "Bob")
	h.sinkEightEarly(t)
	h.s.Enqueue("c", "Cleo")
	h.presence.drop("b")

	h.clock.Advance(30 * time.Second)

	assert.Nil(t, h.match(), "no match this cycle")
	_, ok := h.s.Hold()
	assert.False(t, ok)
	assert.Equal(t, []string{"c"}, h.queueIDs())

	h.s.Enqueue("d", "Dan")
	m := h.match()
	require.NotNil(t, m)
	assert.Equal(t, "c", m.Player1.ID)
	assert.Equal(t, "d", m.Player2.ID)
}

func TestUnreachableChallengerIsDropped(t *testing.T) {
	h := newHarness(t)
	h.presence.drop("a")

	h.s.Enqueue("a", "Alice")
	h.s.Enqueue("b", "Bob")

	assert.Nil(t, h.match())
	assert.Equal(t, []string{"b"}, h.queueIDs())

	h.s.Enqueue("c", "Cleo")
	m := h.match()
	require.NotNil(t, m)
	assert.Equal(t, "b", m.Player1.ID)
	assert.Equal(t, "c", m.Player2.ID)
}

func TestDisconnectMidMatchFreesTable(t *testing.T) {
	h := newHarness(t)
	h.s.Enqueue("a", "Alice")
	h.s.Enqueue("b", "Bob")
	h.s.Enqueue("c", "Cleo")
	m := h.match()
	require.NotNil(t, m)

	h.s.Disconnect("a")

	assert.Len(t, h.notifier.sentTo("b", EventOpponentLeft), 1)
	assert.Equal(t, game.StatusCancelled, m.Status)
	assert.Empty(t, h.s.Standings(), "forfeits are not scored")
	_, ok := h.s.Hold()
	assert.False(t, ok, "no hold for the remaining player")
	assert.Nil(t, h.match(), "c alone cannot start a match")
	assert.Equal(t, []string{"c"}, h.queueIDs())

	assert.Eventually(t, func() bool { return len(h.recorder.saved()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, game.WinForfeit, h.recorder.saved()[0].WinType)
	assert.Equal(t, "b", h.recorder.saved()[0].WinnerID)

	// Stale ticks for the dead match do nothing
	h.notifier.reset()
	h.s.tickMatch(m)
	assert.Empty(t, h.notifier.all())

	h.s.Disconnect("a")
	h.s.Enqueue("b", "Bob")
	next := h.match()
	require.NotNil(t, next)
	assert.Equal(t, "c", next.Player1.ID)
	assert.Equal(t, "b", next.Player2.ID)
}

func TestDisconnectClearsHoldAndQueue(t *testing.T) {
	h := newHarness(t)
	h.s.Enqueue("a", "Alice")
	h.s.Enqueue("b", "Bob")
	h.sinkEightEarly(t)
	h.s.Enqueue("c", "Cleo")
	h.s.Enqueue("d", "Dan")

	h.s.Disconnect("b")
	_, ok := h.s.Hold()
	assert.False(t, ok)
	assert.Zero(t, h.clock.pending())

	m := h.match()
	require.NotNil(t, m, "without a hold two challengers pair up")
	assert.Equal(t, "c", m.Player1.ID)
	assert.Equal(t, "d", m.Player2.ID)

	h.s.Disconnect("zed")
}

func TestCommandsFromOutsidersAreIgnored(t *testing.T) {
	h := newHarness(t)
	h.s.Enqueue("a", "Alice")
	h.s.Enqueue("b", "Bob")
	m := h.match()
	h.notifier.reset()

	h.s.Shoot("b", game.ShotInput{DX: 1, Power: 1})
	h.s.Shoot("zed", game.ShotInput{DX: 1, Power: 1})
	h.s.PlaceCueBall("zed", 200, 200)

	assert.Empty(t, h.notifier.all(), "rejected commands produce no frames")
	assert.Equal(t, game.PhaseAwaitingShot, m.Phase())

	h.s.PlaceCueBall("a", 200, 200)
	assert.Len(t, h.notifier.of(EventMatchState), 1)

	h.s.Shoot("a", game.ShotInput{DX: 1, Power: 1})
	assert.Equal(t, game.PhaseBallsInMotion, m.Phase())
}

func TestStateBroadcastIsRateLimited(t *testing.T) {
	h := newHarness(t)
	h.s.Enqueue("a", "Alice")
	h.s.Enqueue("b", "Bob")
	m := h.match()
	h.s.Shoot("a", game.ShotInput{DX: 1, Power: 1})
	h.notifier.reset()

	for i := 0; i < 10; i++ {
		h.s.tickMatch(m)
	}
	assert.Empty(t, h.notifier.of(EventMatchState), "clock has not moved")

	h.clock.Advance(40 * time.Millisecond)
	h.s.tickMatch(m)
	h.s.tickMatch(m)
	assert.Len(t, h.notifier.of(EventMatchState), 1)
}

func TestGreet(t *testing.T) {
	h := newHarness(t)
	h.s.Enqueue("a", "Alice")
	h.notifier.reset()

	h.s.Greet("z")

	queue := h.notifier.sentTo("z", EventQueueUpdate)
	require.Len(t, queue, 1)
	assert.Equal(t, QueueUpdate{Count: 1, Names: []string{"Alice"}}, queue[0].Payload)
	assert.Len(t, h.notifier.sentTo("z", EventScoreUpdate), 1)
	assert.Empty(t, h.notifier.sentTo("z", EventMatchState))
}

func TestCloseStopsEverything(t *testing.T) {
	h := newHarness(t)
	h.s.Enqueue("a", "Alice")
	h.s.Enqueue("b", "Bob")

	h.s.Close()

	_, ok := h.s.ActiveMatch()
	assert.False(t, ok)
	h.s.Enqueue("c", "Cleo")
	assert.Empty(t, h.queueIDs())
}
