package agent

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"skirmish/internal/combat"
	"skirmish/internal/config"
)

// RuleEnv is what a rule condition can see. Its methods are callable from
// expr, e.g. `HP() * 2 < MaxHP() && Potions() > 0`.
type RuleEnv struct {
	entity *combat.Entity
	v      view
}

func (e RuleEnv) HP() int        { return e.entity.HP }
func (e RuleEnv) MaxHP() int     { return e.entity.MaxHP }
func (e RuleEnv) Potions() int   { return e.entity.Potions }
func (e RuleEnv) Ranged() bool   { return e.entity.Ranged }
func (e RuleEnv) Enemies() int   { return len(e.v.enemies) }
func (e RuleEnv) Allies() int    { return len(e.v.allies) }
func (e RuleEnv) Row() int       { return e.v.self.Pos.Row }
func (e RuleEnv) Col() int       { return e.v.self.Pos.Col }
func (e RuleEnv) HPPercent() int { return e.entity.HP * 100 / max(e.entity.MaxHP, 1) }

func (e RuleEnv) EnemyAdjacent() bool {
	_, ok := e.v.adjacent(e.v.enemies)
	return ok
}

func (e RuleEnv) AllyAdjacent() bool {
	_, ok := e.v.adjacent(e.v.allies)
	return ok
}

// NearestEnemy is the grid distance to the closest enemy, -1 if none.
func (e RuleEnv) NearestEnemy() int {
	oc, ok := e.v.nearest(e.v.enemies)
	if !ok {
		return -1
	}
	return e.v.self.Pos.Manhattan(oc.Pos)
}

type tactic func(seat Seat, v view) int

var tactics = map[string]tactic{
	"attack_nearest": attackNearest,
	"heal_self":      func(seat Seat, _ view) int { return seat.heal(seat.Self) },
	"heal_ally":      healAlly,
	"approach":       approach,
	"flee":           flee,
	"random":         func(seat Seat, _ view) int { return seat.Rng.Intn(seat.actionDim()) },
}

type rule struct {
	config.RuleDef
	program *vm.Program
	do      tactic
}

// Rules fires the highest priority rule whose condition holds and plays
// random when none does.
type Rules struct {
	noLearning
	seat  Seat
	rules []rule
}

func NewRules(seat Seat) (*Rules, error) {
	compiled, err := compileRules(seat.Rules)
	if err != nil {
		return nil, err
	}
	return &Rules{seat: seat, rules: compiled}, nil
}

func compileRules(defs []config.RuleDef) ([]rule, error) {
	out := make([]rule, 0, len(defs))
	for _, d := range defs {
		do, ok := tactics[d.Do]
		if !ok {
			return nil, fmt.Errorf("rule %q: unknown action %q", d.Name, d.Do)
		}
		program, err := expr.Compile(d.When, expr.Env(RuleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", d.Name, err)
		}
		out = append(out, rule{RuleDef: d, program: program, do: do})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

func (a *Rules) GetAction(obs *combat.Observation) int {
	v := look(obs)
	env := RuleEnv{entity: a.seat.Entity, v: v}
	for _, r := range a.rules {
		result, err := vm.Run(r.program, env)
		if err != nil {
			slog.Warn("rule condition error", "rule", r.Name, "error", err)
			continue
		}
		if match, ok := result.(bool); ok && match {
			slog.Debug("rule fired", "rule", r.Name, "entity", a.seat.Entity.Label)
			return r.do(a.seat, v)
		}
	}
	return a.seat.Rng.Intn(a.seat.actionDim())
}
