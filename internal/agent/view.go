package agent

import "skirmish/internal/combat"

// view is an observation decoded from one entity's perspective.
type view struct {
	rows, cols int
	self       combat.Occupant
	seen       bool
	enemies    []combat.Occupant
	allies     []combat.Occupant
	taken      map[combat.Pos]bool
}

func look(obs *combat.Observation) view {
	v := view{rows: obs.Rows, cols: obs.Cols, taken: map[combat.Pos]bool{}}
	for _, oc := range obs.Occupants() {
		v.taken[oc.Pos] = true
		switch {
		case oc.Self():
			v.self, v.seen = oc, true
		case oc.Enemy():
			v.enemies = append(v.enemies, oc)
		default:
			v.allies = append(v.allies, oc)
		}
	}
	return v
}

func (v view) open(p combat.Pos) bool {
	return p.Row >= 0 && p.Row < v.rows && p.Col >= 0 && p.Col < v.cols && !v.taken[p]
}

// nearest returns the closest of group by grid distance, lowest slot on ties.
func (v view) nearest(group []combat.Occupant) (combat.Occupant, bool) {
	best, found := combat.Occupant{}, false
	for _, oc := range group {
		if !found || v.self.Pos.Manhattan(oc.Pos) < v.self.Pos.Manhattan(best.Pos) {
			best, found = oc, true
		}
	}
	return best, found
}

func (v view) adjacent(group []combat.Occupant) (combat.Occupant, bool) {
	for _, oc := range group {
		if v.self.Pos.Manhattan(oc.Pos) == 1 {
			return oc, true
		}
	}
	return combat.Occupant{}, false
}

// toward picks an open neighbouring cell that closes the distance to p.
func (v view) toward(p combat.Pos) (combat.Direction, bool) {
	d0 := v.self.Pos.Manhattan(p)
	for d := combat.Up; d <= combat.Right; d++ {
		next := v.self.Pos.Add(d.Delta())
		if v.open(next) && next.Manhattan(p) < d0 {
			return d, true
		}
	}
	return combat.Up, false
}

// away picks the open neighbouring cell farthest from every enemy.
func (v view) away() (combat.Direction, bool) {
	best, bestScore, found := combat.Up, -1, false
	for d := combat.Up; d <= combat.Right; d++ {
		next := v.self.Pos.Add(d.Delta())
		if !v.open(next) {
			continue
		}
		score := v.rows + v.cols
		for _, e := range v.enemies {
			score = min(score, next.Manhattan(e.Pos))
		}
		if score > bestScore {
			best, bestScore, found = d, score, true
		}
	}
	return best, found
}
