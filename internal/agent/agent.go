// Package agent holds the decision makers that drive entities: scripted
// strategies, an expression rule set, keyboard input and a Q-learner.
package agent

import (
	"fmt"
	"io"
	"math/rand"

	"skirmish/internal/combat"
	"skirmish/internal/config"
)

// Transition is one experience tuple handed to Update.
type Transition struct {
	State   *combat.Observation
	Action  int
	Outcome *combat.Observation
	Reward  float64
	Done    bool
}

// Agent picks actions from observations. GetAction must not mutate the
// engine; Update and Optimize are no-ops for agents that do not learn.
type Agent interface {
	GetAction(obs *combat.Observation) int
	Update(t Transition)
	Optimize()
}

type noLearning struct{}

func (noLearning) Update(Transition) {}
func (noLearning) Optimize()         {}

// Seat is what an agent knows about the entity it controls.
type Seat struct {
	Self      combat.Handle
	Entity    *combat.Entity // read-only view of the controlled entity
	NumAgents int
	StateDim  int
	Rng       *rand.Rand

	Rules   []config.RuleDef
	Learner config.LearnerConfig

	In  io.Reader
	Out io.Writer
}

func (s Seat) actionDim() int { return combat.ActionDim(s.NumAgents) }

func (s Seat) attack(target combat.Handle) int {
	return combat.Action{Kind: combat.ActAttack, Target: target}.Encode(s.NumAgents)
}

func (s Seat) heal(target combat.Handle) int {
	return combat.Action{Kind: combat.ActHeal, Target: target}.Encode(s.NumAgents)
}

func (s Seat) move(d combat.Direction) int {
	return combat.Action{Kind: combat.ActMove, Dir: d}.Encode(s.NumAgents)
}

// New builds the agent for a strategy name.
func New(strategy string, seat Seat) (Agent, error) {
	switch strategy {
	case config.StrategyRandom:
		return NewRandom(seat), nil
	case config.StrategyNearest:
		return NewNearest(seat), nil
	case config.StrategyFlee:
		return NewFlee(seat), nil
	case config.StrategyManual:
		return NewManual(seat), nil
	case config.StrategyRules:
		return NewRules(seat)
	case config.StrategyLearned:
		return NewLearner(seat), nil
	}
	return nil, fmt.Errorf("unknown strategy %q", strategy)
}
