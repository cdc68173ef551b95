package game

import "math"

// Ball represents a single pool ball's physics state.
type Ball struct {
	ID       int  `json:"id"`
	Position Vec2 `json:"position"`
	Velocity Vec2 `json:"velocity"`
	Pocketed bool `json:"pocketed"`
}

// TurnLog collects what the simulator observed since the last shot.
type TurnLog struct {
	Pocketed     []int // in pocket order
	FirstContact int   // first object ball touched by the cue ball, -1 if none
}

// NewTurnLog returns an empty log.
func NewTurnLog() TurnLog {
	return TurnLog{FirstContact: -1}
}

// CueContact reports whether the cue ball touched any object ball.
func (l TurnLog) CueContact() bool {
	return l.FirstContact >= 0
}

// PhysicsEngine advances the balls of one table in fixed steps.
type PhysicsEngine struct {
	Balls [NumBalls]*Ball
	Table *Table
}

// NewPhysicsEngine creates a physics engine from ball states and table geometry.
func NewPhysicsEngine(balls [NumBalls]*Ball, table *Table) *PhysicsEngine {
	return &PhysicsEngine{
		Balls: balls,
		Table: table,
	}
}

// Step advances the simulation by one tick, recording contacts and pots in log.
func (pe *PhysicsEngine) Step(log *TurnLog) {
	pe.integrate()
	pe.resolveBallCollisions(log)
	pe.capturePockets(log)
}

// Moving reports whether any ball on the table still has a velocity
// component above the stop epsilon.
func (pe *PhysicsEngine) Moving() bool {
	for _, b := range pe.Balls {
		if b.Pocketed {
			continue
		}
		if math.Abs(b.Velocity.X) > StopEpsilon || math.Abs(b.Velocity.Y) > StopEpsilon {
			return true
		}
	}
	return false
}

func (pe *PhysicsEngine) integrate() {
	for _, b := range pe.Balls {
		if b.Pocketed {
			continue
		}
		b.Position = b.Position.Plus(b.Velocity)
		b.Velocity = b.Velocity.Times(Friction)
		bounceRails(b)

		if math.Abs(b.Velocity.X) < StopEpsilon {
			b.Velocity.X = 0
		}
		if math.Abs(b.Velocity.Y) < StopEpsilon {
			b.Velocity.Y = 0
		}
	}
}

// bounceRails clamps a ball back onto the cloth and points the offending
// velocity component back into the table.
func bounceRails(b *Ball) {
	if b.Position.X < MinX {
		b.Position.X = MinX
		b.Velocity.X = math.Abs(b.Velocity.X)
	} else if b.Position.X > MaxX {
		b.Position.X = MaxX
		b.Velocity.X = -math.Abs(b.Velocity.X)
	}
	if b.Position.Y < MinY {
		b.Position.Y = MinY
		b.Velocity.Y = math.Abs(b.Velocity.Y)
	} else if b.Position.Y > MaxY {
		b.Position.Y = MaxY
		b.Velocity.Y = -math.Abs(b.Velocity.Y)
	}
}

func (pe *PhysicsEngine) resolveBallCollisions(log *TurnLog) {
	for pass := 0; pass < SeparationPasses; pass++ {
		overlapped := false

		for i := 0; i < NumBalls; i++ {
			a := pe.Balls[i]
			if a.Pocketed {
				continue
			}
			for j := i + 1; j < NumBalls; j++ {
				b := pe.Balls[j]
				if b.Pocketed {
					continue
				}

				delta := b.Position.Minus(a.Position)
				d := delta.Magnitude()
				if d == 0 || d >= 2*BallRadius {
					continue
				}
				overlapped = true

				n := delta.Times(1 / d)
				separate(a, b, n, 2*BallRadius-d)

				exchangeNormal(a, b, n)
				recordContact(log, a, b)
			}
		}

		if !overlapped {
			return
		}
	}
}

// separate pushes a and b apart by overlap along n, half each. Whatever a
// rail takes from one ball is made up by the other.
func separate(a, b *Ball, n Vec2, overlap float64) {
	start := b.Position.Minus(a.Position).Dot(n)
	pa := a.Position.Minus(n.Times(overlap / 2)).ClampToTable()
	pb := b.Position.Plus(n.Times(overlap / 2)).ClampToTable()

	if short := start + overlap - pb.Minus(pa).Dot(n); short > 0 {
		pb = pb.Plus(n.Times(short)).ClampToTable()
		if short = start + overlap - pb.Minus(pa).Dot(n); short > 0 {
			pa = pa.Minus(n.Times(short)).ClampToTable()
		}
	}

	a.Position = pa
	b.Position = pb
}

// exchangeNormal swaps the normal components of two equal-mass balls that
// are closing along n (pointing from a to b). Tangential parts are kept.
func exchangeNormal(a, b *Ball, n Vec2) {
	va := a.Velocity.Dot(n)
	vb := b.Velocity.Dot(n)
	if va-vb <= 0 {
		return
	}
	a.Velocity = a.Velocity.Plus(n.Times(vb - va))
	b.Velocity = b.Velocity.Plus(n.Times(va - vb))
}

func recordContact(log *TurnLog, a, b *Ball) {
	if log == nil || log.FirstContact >= 0 {
		return
	}
	switch {
	case a.ID == CueBall:
		log.FirstContact = b.ID
	case b.ID == CueBall:
		log.FirstContact = a.ID
	}
}

func (pe *PhysicsEngine) capturePockets(log *TurnLog) {
	for _, b := range pe.Balls {
		if b.Pocketed {
			continue
		}
		if _, ok := pe.Table.PocketAt(b.Position); !ok {
			continue
		}
		b.Pocketed = true
		b.Velocity = Vec2{}
		if log != nil {
			log.Pocketed = append(log.Pocketed, b.ID)
		}
	}
}
