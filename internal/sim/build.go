// Package sim drives episodes: it seats agents on an engine built from a
// scenario, runs the reset/act/step/learn loop and aggregates results.
package sim

import (
	"fmt"
	"io"
	"log/slog"

	"skirmish/internal/agent"
	"skirmish/internal/combat"
	"skirmish/internal/config"
	"skirmish/internal/util"
)

// Match is an engine with one agent per registered slot.
type Match struct {
	Scenario *config.Scenario
	Engine   *combat.Engine
	Agents   []agent.Agent
	Seed     int64
}

type BuildOptions struct {
	Seed   int64 // overrides the scenario seed when non-zero
	Logger *slog.Logger
	In     io.Reader // keyboard input for manual entities
	Out    io.Writer
}

// Build registers every scenario entity at its spawn and creates its agent.
// Agents draw from their own sources so a learner's exploration does not
// shift the dice.
func Build(sc *config.Scenario, opts BuildOptions) (*Match, error) {
	seed := sc.Seed
	if opts.Seed != 0 {
		seed = opts.Seed
	}
	eng := combat.NewEngine(sc.Board.Rows, sc.Board.Cols,
		combat.WithSeed(seed),
		combat.WithLogger(opts.Logger),
		combat.WithCarryVitals(sc.CarryVitals),
	)
	for _, d := range sc.Entities {
		e := combat.NewEntity(d.Label, d.Faction, d.HP, d.AC, d.AttackMod, d.DamageMod, d.Potions, d.Ranged)
		e.Name = d.Name
		if _, err := eng.Register(e, d.Spawn.Row, d.Spawn.Col); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}

	m := &Match{Scenario: sc, Engine: eng, Seed: seed}
	for i, d := range sc.Entities {
		h := combat.Handle(i)
		a, err := agent.New(d.Strategy, agent.Seat{
			Self:      h,
			Entity:    eng.Entity(h),
			NumAgents: eng.NumAgents(),
			StateDim:  eng.StateDim(),
			Rng:       util.New(seed + int64(i+1)*104729),
			Rules:     sc.Rules,
			Learner:   sc.Learner,
			In:        opts.In,
			Out:       opts.Out,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Label, err)
		}
		m.Agents = append(m.Agents, a)
	}
	return m, nil
}
