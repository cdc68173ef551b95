package lobby

// Outbound event kinds. They double as the "type" field of client frames.
const (
	EventQueueUpdate   = "queue:update"
	EventScoreUpdate   = "score:update"
	EventMatchStart    = "match:start"
	EventMatchState    = "match:state"
	EventMatchEnd      = "match:end"
	EventSystem        = "system"
	EventOpponentLeft  = "opponent:left"
	EventQueueLeft     = "queue:left"
	EventWinnerTimeout = "winner:timeout"

	// Room membership changes, consumed by the transport only
	EventRoomOpen  = "room:open"
	EventRoomClose = "room:close"
)

// Scope selects who receives an event.
type Scope string

const (
	ScopeLobby       Scope = "lobby"
	ScopeRoom        Scope = "room"
	ScopeParticipant Scope = "participant"
)

// Audience is the routing part of an event. Target is a room id or a
// participant id depending on Scope.
type Audience struct {
	Scope  Scope  `json:"scope"`
	Target string `json:"target,omitempty"`
}

// Event is one outbound message produced by the scheduler.
type Event struct {
	Kind     string      `json:"type"`
	Audience Audience    `json:"audience"`
	Payload  interface{} `json:"data,omitempty"`
}

// Notifier delivers events. Publish must not block.
type Notifier interface {
	Publish(ev Event)
}

// Presence tells the scheduler whether a participant still has a live session.
type Presence interface {
	Reachable(participantID string) bool
}

// QueueUpdate is the payload of queue:update.
type QueueUpdate struct {
	Count int      `json:"count"`
	Names []string `json:"names"`
}

// MatchStart is sent to each seat individually.
type MatchStart struct {
	Room       string `json:"room"`
	Opponent   string `json:"opponent"`
	You        string `json:"you"`
	OpponentID string `json:"opponentId"`
}

// MatchEnd is the payload of match:end.
type MatchEnd struct {
	Winner     string `json:"winner"`
	Loser      string `json:"loser"`
	WinnerName string `json:"winnerName"`
	LoserName  string `json:"loserName"`
	Reason     string `json:"reason"`
}

// SystemMessage is a lobby announcement.
type SystemMessage struct {
	Message string `json:"message"`
}

// RoomMembers announces who belongs to a room.
type RoomMembers struct {
	Room    string   `json:"room"`
	Members []string `json:"members"`
}

func toLobby(kind string, payload interface{}) Event {
	return Event{Kind: kind, Audience: Audience{Scope: ScopeLobby}, Payload: payload}
}

func toRoom(room, kind string, payload interface{}) Event {
	return Event{Kind: kind, Audience: Audience{Scope: ScopeRoom, Target: room}, Payload: payload}
}

func toParticipant(id, kind string, payload interface{}) Event {
	return Event{Kind: kind, Audience: Audience{Scope: ScopeParticipant, Target: id}, Payload: payload}
}

