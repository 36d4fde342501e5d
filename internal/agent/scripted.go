package agent

import "skirmish/internal/combat"

// Random picks uniformly from the whole action space.
type Random struct {
	noLearning
	seat Seat
}

func NewRandom(seat Seat) *Random { return &Random{seat: seat} }

func (a *Random) GetAction(*combat.Observation) int {
	return a.seat.Rng.Intn(a.seat.actionDim())
}

// Nearest charges the closest enemy and hits it once in reach.
type Nearest struct {
	noLearning
	seat Seat
}

func NewNearest(seat Seat) *Nearest { return &Nearest{seat: seat} }

func (a *Nearest) GetAction(obs *combat.Observation) int {
	return attackNearest(a.seat, look(obs))
}

// Flee keeps away from the enemy and drinks when badly hurt.
type Flee struct {
	noLearning
	seat Seat
}

func NewFlee(seat Seat) *Flee { return &Flee{seat: seat} }

func (a *Flee) GetAction(obs *combat.Observation) int {
	e := a.seat.Entity
	if e.Potions > 0 && e.HP*2 < e.MaxHP {
		return a.seat.heal(a.seat.Self)
	}
	return flee(a.seat, look(obs))
}

// tactics shared by the scripted strategies and the rule actions

func attackNearest(seat Seat, v view) int {
	target, ok := v.nearest(v.enemies)
	if !ok || !v.seen {
		return seat.Rng.Intn(seat.actionDim())
	}
	if seat.Entity.Ranged || v.self.Pos.Manhattan(target.Pos) == 1 {
		return seat.attack(target.Slot)
	}
	return approach(seat, v)
}

func approach(seat Seat, v view) int {
	target, ok := v.nearest(v.enemies)
	if !ok || !v.seen {
		return seat.Rng.Intn(seat.actionDim())
	}
	if d, ok := v.toward(target.Pos); ok {
		return seat.move(d)
	}
	// boxed in: swing at whoever is closest
	return seat.attack(target.Slot)
}

func flee(seat Seat, v view) int {
	if !v.seen {
		return seat.Rng.Intn(seat.actionDim())
	}
	if d, ok := v.away(); ok {
		return seat.move(d)
	}
	if target, ok := v.adjacent(v.enemies); ok {
		return seat.attack(target.Slot)
	}
	return seat.Rng.Intn(seat.actionDim())
}

func healAlly(seat Seat, v view) int {
	if ally, ok := v.adjacent(v.allies); ok {
		return seat.heal(ally.Slot)
	}
	return seat.heal(seat.Self)
}
