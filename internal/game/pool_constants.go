package game

// Table geometry and physics constants for the arcade table.
// Units are table pixels and ticks; velocities are pixels per tick.
// They are exposed in every snapshot so renderers need no copy of them.

const (
	TableWidth  = 1080.0
	TableHeight = 540.0
	RailMargin  = 30.0

	BallRadius      = 10.0
	PocketRadius    = 18.0
	PocketTolerance = 2.0
	Friction        = 0.992
	StopEpsilon     = 0.04
	CueImpulse      = 7.5
	MaxPower        = 1.0

	// Upper bound on overlap-relaxation passes per tick.
	SeparationPasses = 64

	NumBalls  = 16 // 0=cue, 1-7=solids, 8=eight, 9-15=stripes
	CueBall   = 0
	EightBall = 8
)

// Playable rectangle for ball centres.
const (
	MinX = RailMargin + BallRadius
	MaxX = TableWidth - RailMargin - BallRadius
	MinY = RailMargin + BallRadius
	MaxY = TableHeight - RailMargin - BallRadius
)

// CueStart is where the cue ball is racked and respotted after a scratch.
var CueStart = Vec2{X: TableWidth * 0.25, Y: TableHeight * 0.5}
