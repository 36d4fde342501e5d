package combat

// Pos is a board cell. Row 0 is the top edge, col 0 the left edge.
type Pos struct{ Row, Col int }

func (a Pos) Add(b Pos) Pos { return Pos{a.Row + b.Row, a.Col + b.Col} }
func (a Pos) Sub(b Pos) Pos { return Pos{a.Row - b.Row, a.Col - b.Col} }

// Manhattan is the grid distance between two cells.
func (a Pos) Manhattan(b Pos) int {
	d := a.Sub(b)
	return abs(d.Row) + abs(d.Col)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Direction is one of the four orthogonal moves.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

var directionDelta = [...]Pos{
	Up:    {Row: -1},
	Down:  {Row: +1},
	Left:  {Col: -1},
	Right: {Col: +1},
}

// Delta is the unit vector of d.
func (d Direction) Delta() Pos { return directionDelta[d] }

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}
