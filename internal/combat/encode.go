package combat

// Observation categories, relative to the observing entity.
const (
	CatSelf = iota
	CatMeleeAlly
	CatRangedAlly
	CatMeleeEnemy
	CatRangedEnemy

	CellDim
)

// Observation is a rows × cols × slots × CellDim one-hot tensor stored
// row-major in a flat slice.
type Observation struct {
	Rows, Cols, Slots int
	Data              []float32
}

func newObservation(rows, cols, slots int) *Observation {
	return &Observation{
		Rows: rows, Cols: cols, Slots: slots,
		Data: make([]float32, rows*cols*slots*CellDim),
	}
}

func (o *Observation) index(row, col, slot, cat int) int {
	return ((row*o.Cols+col)*o.Slots+slot)*CellDim + cat
}

func (o *Observation) At(row, col, slot, cat int) float32 {
	return o.Data[o.index(row, col, slot, cat)]
}

func (o *Observation) set(row, col, slot, cat int) {
	o.Data[o.index(row, col, slot, cat)] = 1
}

func (o *Observation) Shape() [4]int { return [4]int{o.Rows, o.Cols, o.Slots, CellDim} }

// Flat returns the backing slice; callers must not modify it.
func (o *Observation) Flat() []float32 { return o.Data }

// Occupant is one decoded one-hot entry of an observation.
type Occupant struct {
	Pos      Pos
	Slot     Handle
	Category int
}

func (o Occupant) Self() bool   { return o.Category == CatSelf }
func (o Occupant) Ally() bool   { return o.Category == CatMeleeAlly || o.Category == CatRangedAlly }
func (o Occupant) Enemy() bool  { return o.Category == CatMeleeEnemy || o.Category == CatRangedEnemy }
func (o Occupant) Ranged() bool { return o.Category == CatRangedAlly || o.Category == CatRangedEnemy }

// Occupants lists every set entry, scanning cells in row-major order.
func (o *Observation) Occupants() []Occupant {
	var out []Occupant
	for i, v := range o.Data {
		if v == 0 {
			continue
		}
		cat := i % CellDim
		rest := i / CellDim
		slot := rest % o.Slots
		cell := rest / o.Slots
		out = append(out, Occupant{
			Pos:      Pos{Row: cell / o.Cols, Col: cell % o.Cols},
			Slot:     Handle(slot),
			Category: cat,
		})
	}
	return out
}

// Self finds the observer's own entry.
func (o *Observation) Self() (Occupant, bool) {
	for _, oc := range o.Occupants() {
		if oc.Self() {
			return oc, true
		}
	}
	return Occupant{}, false
}

func category(observer, e *Entity, self bool) int {
	switch {
	case self:
		return CatSelf
	case Allied(e, observer) && !e.Ranged:
		return CatMeleeAlly
	case Allied(e, observer):
		return CatRangedAlly
	case !e.Ranged:
		return CatMeleeEnemy
	default:
		return CatRangedEnemy
	}
}

// Encode renders the board from the perspective of observer. Only entities
// present on the board contribute; the dead were removed when they fell.
func (g *Engine) Encode(observer Handle) *Observation {
	me := g.entity("encode", observer)
	obs := newObservation(g.board.Rows, g.board.Cols, len(g.entities))
	for h, p := range g.board.location {
		e := g.entities[h]
		obs.set(p.Row, p.Col, int(h), category(me, e, h == observer))
	}
	return obs
}
