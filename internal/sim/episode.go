package sim

import (
	"context"
	"fmt"

	"skirmish/internal/agent"
	"skirmish/internal/combat"
)

type EpisodeResult struct {
	Episode   int                `json:"episode"`
	Steps     int                `json:"steps"`
	Truncated bool               `json:"truncated"`
	Winner    string             `json:"winner,omitempty"` // faction left standing
	Rewards   map[string]float64 `json:"rewards"`
}

// RunEpisode plays one episode from Reset until the engine reports done or
// maxSteps actions have been taken (maxSteps <= 0 means no limit). The
// acting agent sees its transition and optimizes after every step.
func RunEpisode(ctx context.Context, eng *combat.Engine, agents []agent.Agent, maxSteps int) (EpisodeResult, error) {
	if len(agents) != eng.NumAgents() {
		return EpisodeResult{}, fmt.Errorf("%d agents for %d entities", len(agents), eng.NumAgents())
	}
	res := EpisodeResult{Rewards: map[string]float64{}}
	for _, h := range eng.Handles() {
		res.Rewards[eng.Entity(h).Label] = 0
	}

	var (
		obs *combat.Observation
		cur combat.Handle
	)
	if err := combat.Recover(func() { obs, cur = eng.Reset() }); err != nil {
		return res, err
	}
	for maxSteps <= 0 || res.Steps < maxSteps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		a := agents[cur]
		action := a.GetAction(obs)

		var step combat.StepResult
		if err := combat.Recover(func() { step = eng.Step(cur, action) }); err != nil {
			return res, fmt.Errorf("step %d, %s: %w", res.Steps, eng.Entity(cur).Label, err)
		}
		res.Steps++
		res.Rewards[eng.Entity(cur).Label] += step.Reward

		a.Update(agent.Transition{State: obs, Action: action, Outcome: step.Outcome, Reward: step.Reward, Done: step.Done})
		a.Optimize()

		if step.Done {
			if order := eng.Order(); len(order) > 0 {
				res.Winner = eng.Entity(order[0]).Faction
			}
			return res, nil
		}
		obs, cur = step.Next, step.NextAgent
	}
	res.Truncated = true
	return res, nil
}
