package game

// FoulInfo contains details about a foul.
type FoulInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// TurnOutcome describes how a settled shot was resolved.
type TurnOutcome struct {
	Shooter       string    `json:"shooter"`
	PocketedBalls []int     `json:"pocketed_balls"`
	Foul          *FoulInfo `json:"foul,omitempty"`
	GroupAssigned bool      `json:"group_assigned"`
	Player1Group  BallGroup `json:"player1_group"`
	Player2Group  BallGroup `json:"player2_group"`
	Retained      bool      `json:"retained"`
	NextTurn      string    `json:"next_turn"`
	BallInHand    bool      `json:"ball_in_hand"`
	GameOver      bool      `json:"game_over"`
	Winner        string    `json:"winner,omitempty"`
	Loser         string    `json:"loser,omitempty"`
	WinType       string    `json:"win_type,omitempty"`
}

// GroupOf returns the group an object ball belongs to. The cue and the
// eight belong to none.
func GroupOf(ballID int) BallGroup {
	switch {
	case ballID >= 1 && ballID <= 7:
		return GroupSolids
	case ballID >= 9 && ballID <= 15:
		return GroupStripes
	default:
		return GroupNone
	}
}

func opposite(g BallGroup) BallGroup {
	switch g {
	case GroupSolids:
		return GroupStripes
	case GroupStripes:
		return GroupSolids
	default:
		return GroupNone
	}
}

// resolveTurn applies the 8-ball rules to the shot that just settled.
// Order matters: fouls, credit, groups, eligibility, the eight, continuation.
func (m *Match) resolveTurn() *TurnOutcome {
	shooter, opponent := m.getPlayerAndOpponent(m.CurrentTurn)
	log := m.turn
	m.settle()

	outcome := &TurnOutcome{
		Shooter:       shooter.ID,
		PocketedBalls: append([]int{}, log.Pocketed...),
	}

	cuePocketed := containsBall(log.Pocketed, CueBall)
	eightPocketed := containsBall(log.Pocketed, EightBall)

	// 1. Fouls
	switch {
	case cuePocketed:
		outcome.Foul = &FoulInfo{Type: FoulScratch, Message: "Cue ball pocketed"}
		m.respotCueBall()
	case !log.CueContact():
		outcome.Foul = &FoulInfo{Type: FoulNoContact, Message: "Cue ball did not hit any ball"}
	}
	m.BallInHand = outcome.Foul != nil

	// 2. Credit object balls to the shooter
	objects := objectBalls(log.Pocketed)
	shooter.Potted = append(shooter.Potted, objects...)

	// 3. The first object ball potted on an open table decides the groups,
	// foul or not
	if len(objects) > 0 {
		outcome.GroupAssigned = assignGroups(shooter, opponent, GroupOf(objects[0]))
	}
	outcome.Player1Group = m.Player1.BallGroup
	outcome.Player2Group = m.Player2.BallGroup

	// 4. Eight-ball eligibility
	m.updateEightEligibility(m.Player1)
	m.updateEightEligibility(m.Player2)

	// 5. The eight ends the match
	if eightPocketed {
		if outcome.Foul == nil && shooter.CanPotEight {
			m.finish(shooter, opponent, WinPotEight)
		} else {
			m.finish(opponent, shooter, WinIllegalEight)
		}
		m.BallInHand = false
		m.turn = NewTurnLog()

		outcome.GameOver = true
		outcome.Winner = m.Winner
		outcome.Loser = m.Loser
		outcome.WinType = m.WinType
		outcome.NextTurn = m.CurrentTurn
		return outcome
	}

	// 6. Continuation
	if outcome.Foul == nil {
		for _, id := range objects {
			if shooter.BallGroup == GroupNone || GroupOf(id) == shooter.BallGroup {
				outcome.Retained = true
				break
			}
		}
	}
	if !outcome.Retained {
		m.switchTurn()
	}

	m.turn = NewTurnLog()
	m.AwaitingShot = true

	outcome.NextTurn = m.CurrentTurn
	outcome.BallInHand = m.BallInHand
	return outcome
}

// assignGroups gives the shooter group g and the opponent the other one.
// It is a no-op once groups are set.
func assignGroups(shooter, opponent *PoolPlayer, g BallGroup) bool {
	if shooter.BallGroup != GroupNone || g == GroupNone {
		return false
	}
	shooter.BallGroup = g
	opponent.BallGroup = opposite(g)
	return true
}

// updateEightEligibility is true only when every ball of the player's group
// is off the table.
func (m *Match) updateEightEligibility(p *PoolPlayer) {
	if p.BallGroup == GroupNone {
		p.CanPotEight = false
		return
	}
	for _, b := range m.engine.Balls {
		if GroupOf(b.ID) == p.BallGroup && !b.Pocketed {
			p.CanPotEight = false
			return
		}
	}
	p.CanPotEight = true
}

func (m *Match) finish(winner, loser *PoolPlayer, winType string) {
	m.Status = StatusCompleted
	m.Winner = winner.ID
	m.Loser = loser.ID
	m.WinType = winType
	m.AwaitingShot = false
}

// settle zeroes the residual sub-epsilon velocities of a table at rest.
func (m *Match) settle() {
	for _, b := range m.engine.Balls {
		b.Velocity = Vec2{}
	}
}

func (m *Match) respotCueBall() {
	cue := m.engine.Balls[CueBall]
	cue.Position = CueStart
	cue.Velocity = Vec2{}
	cue.Pocketed = false
}

func objectBalls(pocketed []int) []int {
	out := make([]int, 0, len(pocketed))
	for _, id := range pocketed {
		if id != CueBall && id != EightBall {
			out = append(out, id)
		}
	}
	return out
}

func containsBall(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
