package game

import "math/rand"

// Pocket represents one of the 6 pockets on the table.
type Pocket struct {
	ID       int  `json:"id"`
	Position Vec2 `json:"position"`
}

// Table holds the fixed table geometry.
type Table struct {
	Width           float64  `json:"width"`
	Height          float64  `json:"height"`
	RailMargin      float64  `json:"rail_margin"`
	BallRadius      float64  `json:"ball_radius"`
	PocketRadius    float64  `json:"pocket_radius"`
	Pockets         []Pocket `json:"pockets"`
	captureDistance float64
}

// NewStandard8BallTable creates the arcade table: four corner pockets and
// two on the long rails, all sitting on the rail line.
func NewStandard8BallTable() *Table {
	m := RailMargin
	w, h := TableWidth, TableHeight

	return &Table{
		Width:        w,
		Height:       h,
		RailMargin:   m,
		BallRadius:   BallRadius,
		PocketRadius: PocketRadius,
		Pockets: []Pocket{
			{ID: 0, Position: NewVec2(m, m)},
			{ID: 1, Position: NewVec2(w/2, m)},
			{ID: 2, Position: NewVec2(w-m, m)},
			{ID: 3, Position: NewVec2(m, h-m)},
			{ID: 4, Position: NewVec2(w/2, h-m)},
			{ID: 5, Position: NewVec2(w-m, h-m)},
		},
		captureDistance: PocketRadius - PocketTolerance,
	}
}

// PocketAt returns the pocket capturing a ball centred at p, if any.
func (t *Table) PocketAt(p Vec2) (Pocket, bool) {
	for _, pocket := range t.Pockets {
		if p.DistanceTo(pocket.Position) < t.captureDistance {
			return pocket, true
		}
	}
	return Pocket{}, false
}

// Standard8BallRack returns the initial positions for all 16 balls.
// The eight sits in the centre of the third row; the other object balls are
// shuffled with rng. A nil rng keeps numeric order (deterministic tests).
func Standard8BallRack(rng *rand.Rand) [NumBalls]Vec2 {
	var pos [NumBalls]Vec2

	rowDX := BallRadius*1.73 + 0.5
	colDY := BallRadius*2 + 0.5
	apex := NewVec2(TableWidth*0.66, TableHeight*0.5)

	slots := make([]Vec2, 0, NumBalls-1)
	for row := 0; row < 5; row++ {
		x := apex.X + float64(row)*rowDX
		top := apex.Y - float64(row)*colDY/2
		for k := 0; k <= row; k++ {
			slots = append(slots, NewVec2(x, top+float64(k)*colDY))
		}
	}

	// Row 3, middle slot
	const eightSlot = 4

	order := make([]int, 0, NumBalls-2)
	for id := 1; id < NumBalls; id++ {
		if id != EightBall {
			order = append(order, id)
		}
	}
	if rng != nil {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	pos[CueBall] = CueStart
	pos[EightBall] = slots[eightSlot]
	next := 0
	for i, slot := range slots {
		if i == eightSlot {
			continue
		}
		pos[order[next]] = slot
		next++
	}

	return pos
}
