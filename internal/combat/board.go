package combat

// Board tracks which entity occupies which cell. location and occupant are
// kept as exact inverses; a cell holds at most one entity.
type Board struct {
	Rows, Cols int

	location map[Handle]Pos
	occupant map[Pos]Handle
}

func NewBoard(rows, cols int) *Board {
	if rows <= 0 || cols <= 0 {
		violate("board.new", "invalid dimensions %dx%d", rows, cols)
	}
	return &Board{
		Rows:     rows,
		Cols:     cols,
		location: map[Handle]Pos{},
		occupant: map[Pos]Handle{},
	}
}

func (b *Board) InBounds(p Pos) bool {
	return p.Row >= 0 && p.Row < b.Rows && p.Col >= 0 && p.Col < b.Cols
}

func (b *Board) mustInBounds(op string, p Pos) {
	if !b.InBounds(p) {
		violate(op, "cell (%d,%d) outside %dx%d board", p.Row, p.Col, b.Rows, b.Cols)
	}
}

func (b *Board) Free(p Pos) bool {
	b.mustInBounds("board.free", p)
	_, taken := b.occupant[p]
	return !taken
}

func (b *Board) Used(p Pos) bool {
	b.mustInBounds("board.used", p)
	return !b.Free(p)
}

func (b *Board) Add(h Handle, p Pos) {
	b.mustInBounds("board.add", p)
	if !b.Free(p) {
		violate("board.add", "cell (%d,%d) already holds %d", p.Row, p.Col, b.occupant[p])
	}
	if _, ok := b.location[h]; ok {
		violate("board.add", "entity %d already on the board", h)
	}
	b.occupant[p] = h
	b.location[h] = p
}

func (b *Board) Remove(h Handle) {
	p, ok := b.location[h]
	if !ok {
		violate("board.remove", "entity %d not on the board", h)
	}
	delete(b.occupant, p)
	delete(b.location, h)
}

// Move relocates whatever stands on from to the free cell to. All checks run
// before any mutation so a failed move leaves the board untouched.
func (b *Board) Move(from, to Pos) {
	b.mustInBounds("board.move", from)
	b.mustInBounds("board.move", to)
	h, ok := b.occupant[from]
	if !ok {
		violate("board.move", "no entity at (%d,%d)", from.Row, from.Col)
	}
	if !b.Free(to) {
		violate("board.move", "destination (%d,%d) occupied", to.Row, to.Col)
	}
	delete(b.occupant, from)
	b.occupant[to] = h
	b.location[h] = to
}

func (b *Board) Query(h Handle) Pos {
	p, ok := b.location[h]
	if !ok {
		violate("board.query", "entity %d not on the board", h)
	}
	return p
}

func (b *Board) Locate(p Pos) Handle {
	b.mustInBounds("board.locate", p)
	h, ok := b.occupant[p]
	if !ok {
		violate("board.locate", "cell (%d,%d) is empty", p.Row, p.Col)
	}
	return h
}

func (b *Board) Contains(h Handle) bool {
	_, ok := b.location[h]
	return ok
}

// Adjacent is true for orthogonal neighbours, and for h1 == h2 while it is
// on the board. Off-board entities are never adjacent to anything.
func (b *Board) Adjacent(h1, h2 Handle) bool {
	p1, ok1 := b.location[h1]
	p2, ok2 := b.location[h2]
	if !ok1 || !ok2 {
		return false
	}
	if h1 == h2 {
		return true
	}
	return p1.Manhattan(p2) == 1
}

// Len is the number of occupied cells.
func (b *Board) Len() int { return len(b.location) }
