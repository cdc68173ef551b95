package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/playmatatu/eightball/internal/lobby"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu   sync.Mutex
	envs []Envelope
}

func (s *captureSink) Deliver(env Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envs = append(s.envs, env)
}

func TestEncodeRoutesAndPayload(t *testing.T) {
	env, err := Encode(lobby.Event{
		Kind:     lobby.EventQueueUpdate,
		Audience: lobby.Audience{Scope: lobby.ScopeLobby},
		Payload:  lobby.QueueUpdate{Count: 2, Names: []string{"Alice", "Bob"}},
	})
	require.NoError(t, err)

	assert.Equal(t, lobby.EventQueueUpdate, env.Kind)
	assert.Equal(t, lobby.ScopeLobby, env.Scope)
	assert.JSONEq(t, `{"count":2,"names":["Alice","Bob"]}`, string(env.Data))

	frame, err := env.Frame()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"queue:update","data":{"count":2,"names":["Alice","Bob"]}}`, string(frame))
}

func TestEncodeWithoutPayload(t *testing.T) {
	env, err := Encode(lobby.Event{
		Kind:     lobby.EventOpponentLeft,
		Audience: lobby.Audience{Scope: lobby.ScopeParticipant, Target: "p2"},
	})
	require.NoError(t, err)
	assert.Nil(t, env.Data)

	frame, err := env.Frame()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"opponent:left"}`, string(frame))
}

func TestEncodeRejectsBadPayload(t *testing.T) {
	_, err := Encode(lobby.Event{Kind: "x", Payload: make(chan int)})
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	raw, err := json.Marshal(Envelope{Kind: lobby.EventMatchEnd, Scope: lobby.ScopeRoom, Target: "room_1", Data: json.RawMessage(`{"winner":"p1"}`)})
	require.NoError(t, err)

	env, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "room_1", env.Target)
	assert.JSONEq(t, `{"winner":"p1"}`, string(env.Data))

	_, err = Decode([]byte(`{"scope":"lobby"}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestLocalBusDeliversInOrder(t *testing.T) {
	sink := &captureSink{}
	bus := NewBus(nil, "pool_events", sink)

	bus.Publish(lobby.Event{Kind: lobby.EventRoomOpen, Audience: lobby.Audience{Scope: lobby.ScopeRoom, Target: "room_1"}})
	bus.Publish(lobby.Event{Kind: lobby.EventMatchState, Audience: lobby.Audience{Scope: lobby.ScopeRoom, Target: "room_1"}, Payload: map[string]int{"shot_number": 1}})
	bus.Publish(lobby.Event{Kind: "bad", Payload: func() {}})

	require.Len(t, sink.envs, 2)
	assert.Equal(t, lobby.EventRoomOpen, sink.envs[0].Kind)
	assert.Equal(t, lobby.EventMatchState, sink.envs[1].Kind)

	// Run is a no-op without Redis
	bus.Run(context.Background())
}
