package combat

import "fmt"

type ActionKind int

const (
	ActAttack ActionKind = iota
	ActHeal
	ActMove
)

func (k ActionKind) String() string {
	switch k {
	case ActAttack:
		return "attack"
	case ActHeal:
		return "heal"
	case ActMove:
		return "move"
	}
	return "unknown"
}

// Action is a decoded action index.
type Action struct {
	Kind   ActionKind
	Target Handle    // attack/heal
	Dir    Direction // move
}

// ActionDim is the size of the action space for n registered entities.
func ActionDim(n int) int { return 4 + 2*n }

// Decode maps an index in [0, 2n+4) onto attack, heal or move.
func Decode(action, n int) (Action, error) {
	switch {
	case action >= 0 && action < n:
		return Action{Kind: ActAttack, Target: Handle(action)}, nil
	case action >= n && action < 2*n:
		return Action{Kind: ActHeal, Target: Handle(action - n)}, nil
	case action >= 2*n && action < 2*n+4:
		return Action{Kind: ActMove, Dir: Direction(action - 2*n)}, nil
	}
	return Action{}, contractErr("decode", "action %d outside [0,%d)", action, ActionDim(n))
}

// Encode is the inverse of Decode.
func (a Action) Encode(n int) int {
	switch a.Kind {
	case ActAttack:
		return int(a.Target)
	case ActHeal:
		return n + int(a.Target)
	default:
		return 2*n + int(a.Dir)
	}
}

func (a Action) String() string {
	if a.Kind == ActMove {
		return fmt.Sprintf("move %s", a.Dir)
	}
	return fmt.Sprintf("%s %d", a.Kind, a.Target)
}

const penalty = -1.0

// resolve applies action for actor and returns its reward.
func (g *Engine) resolve(actor Handle, action int) float64 {
	act, err := Decode(action, len(g.entities))
	if err != nil {
		panic(err)
	}
	switch act.Kind {
	case ActAttack:
		return g.attack(actor, act.Target)
	case ActHeal:
		return g.heal(actor, act.Target)
	default:
		return g.move(actor, act.Dir)
	}
}

func (g *Engine) attack(actor, target Handle) float64 {
	a, t := g.entities[actor], g.entities[target]
	log := g.log.With("actor", a.Label, "target", t.Label)
	log.Debug("attack")

	if g.dead[target] {
		log.Debug("target is already dead")
		g.emit("Attack", map[string]any{"actor": a.Label, "target": t.Label, "result": "dead_target", "reward": penalty})
		return penalty
	}
	if !a.Ranged && !g.board.Adjacent(actor, target) {
		log.Debug("target out of reach")
		g.emit("Attack", map[string]any{"actor": a.Label, "target": t.Label, "result": "unreachable", "reward": penalty})
		return penalty
	}
	roll := a.RollAttack(g.dice)
	if roll < t.AC {
		log.Debug("missed", "roll", roll, "ac", t.AC)
		g.emit("Attack", map[string]any{"actor": a.Label, "target": t.Label, "result": "miss", "roll": roll, "reward": penalty})
		return penalty
	}

	dmg := a.RollDamage(g.dice)
	t.TakeDamage(dmg)
	reward := float64(dmg)
	switch {
	case actor == target:
		reward *= -2
	case Allied(a, t):
		reward = -reward
	}
	killed := !t.Alive()
	if killed {
		reward *= 2
		g.dead[target] = true
		g.order.Drop(target)
		g.board.Remove(target)
	}
	log.Debug("hit", "damage", dmg, "hp", t.HP, "killed", killed, "reward", reward)
	g.emit("Attack", map[string]any{
		"actor": a.Label, "target": t.Label, "result": "hit", "roll": roll,
		"damage": dmg, "hp": t.HP, "reward": reward,
	})
	if killed {
		g.emit("Kill", map[string]any{"actor": a.Label, "target": t.Label})
	}
	return reward
}

// heal spends the potion before checking the target: a dead or distant
// target wastes it.
func (g *Engine) heal(actor, target Handle) float64 {
	a, t := g.entities[actor], g.entities[target]
	log := g.log.With("actor", a.Label, "target", t.Label)
	log.Debug("heal")

	points := a.UsePotion(g.dice)
	result := ""
	switch {
	case points == 0:
		result = "no_potions"
	case !t.Alive():
		result = "dead_target"
	case !g.board.Adjacent(actor, target):
		result = "unreachable"
	}
	if result != "" {
		log.Debug("heal failed", "reason", result)
		g.emit("Heal", map[string]any{"actor": a.Label, "target": t.Label, "result": result, "reward": penalty})
		return penalty
	}

	reward := float64(points)
	if !Allied(a, t) {
		reward = -reward
	}
	t.Heal(points)
	log.Debug("healed", "points", points, "hp", t.HP, "reward", reward)
	g.emit("Heal", map[string]any{
		"actor": a.Label, "target": t.Label, "result": "healed",
		"points": points, "hp": t.HP, "reward": reward,
	})
	return reward
}

func (g *Engine) move(actor Handle, dir Direction) float64 {
	a := g.entities[actor]
	from := g.board.Query(actor)
	to := from.Add(dir.Delta())
	if !g.board.InBounds(to) || g.board.Used(to) {
		g.log.Debug("move blocked", "actor", a.Label, "dir", dir.String())
		g.emit("Move", map[string]any{"actor": a.Label, "dir": dir.String(), "result": "blocked", "reward": penalty})
		return penalty
	}
	g.board.Move(from, to)
	g.log.Debug("moved", "actor", a.Label, "dir", dir.String(), "row", to.Row, "col", to.Col)
	g.emit("Move", map[string]any{
		"actor": a.Label, "dir": dir.String(), "result": "moved",
		"from": []int{from.Row, from.Col}, "to": []int{to.Row, to.Col}, "reward": 0.0,
	})
	return 0
}
