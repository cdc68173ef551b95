package game

// GameStatus represents the lifecycle of a match.
type GameStatus string

const (
	StatusInProgress GameStatus = "IN_PROGRESS"
	StatusCompleted  GameStatus = "COMPLETED"
	StatusCancelled  GameStatus = "CANCELLED"
)

// Phase is the simulation state of a match.
type Phase string

const (
	PhaseAwaitingShot  Phase = "awaiting_shot"
	PhaseBallsInMotion Phase = "balls_in_motion"
	PhaseEnded         Phase = "ended"
)

// Win types recorded on a finished match.
const (
	WinPotEight     = "pot_eight"
	WinIllegalEight = "illegal_eight"
	WinForfeit      = "forfeit"
)

// Foul types.
const (
	FoulScratch   = "scratch"
	FoulNoContact = "no_contact"
)
