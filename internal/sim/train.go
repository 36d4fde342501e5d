package sim

import (
	"context"
	"log/slog"
	"time"

	"skirmish/internal/store"
	"skirmish/internal/trace"
)

type TrainOptions struct {
	Episodes int
	MaxSteps int
	RunID    string
	Trace    *trace.Writer // optional
	Store    *store.Store  // optional
	Logger   *slog.Logger
	Render   func(episode int, board string) // called after each episode
	Keep     bool                            // keep per-episode results in the summary
}

// Train plays opts.Episodes episodes on one match so learners carry their
// experience from one episode to the next.
func Train(ctx context.Context, m *Match, opts TrainOptions) (Summary, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.RunID == "" {
		opts.RunID = store.NewRunID()
	}
	if opts.Store != nil {
		err := opts.Store.RecordRun(ctx, store.Run{
			ID: opts.RunID, Seed: m.Seed, Scenario: m.Scenario.Name, StartedAt: time.Now(),
		})
		if err != nil {
			return Summary{}, err
		}
	}

	t := newTally()
	var kept []EpisodeResult
	for ep := 0; ep < opts.Episodes; ep++ {
		if opts.Trace != nil {
			m.Engine.Emit = opts.Trace.Sink(opts.RunID, ep, func(err error) {
				log.Warn("trace write failed", "episode", ep, "error", err)
			})
		}
		res, err := RunEpisode(ctx, m.Engine, m.Agents, opts.MaxSteps)
		res.Episode = ep
		if err != nil {
			return t.summary(), err
		}
		t.add(res)
		if opts.Keep {
			kept = append(kept, res)
		}
		if opts.Store != nil {
			if err := opts.Store.RecordEpisode(ctx, opts.RunID, store.Episode{
				Episode: ep, Steps: res.Steps, Truncated: res.Truncated, Winner: res.Winner, Rewards: res.Rewards,
			}); err != nil {
				return t.summary(), err
			}
		}
		if opts.Render != nil {
			opts.Render(ep, m.Engine.String())
		}
		log.Debug("episode finished", "episode", ep, "steps", res.Steps, "winner", res.Winner, "truncated", res.Truncated)
		if (ep+1)%100 == 0 {
			log.Info("training progress", "episodes", ep+1, "wins", t.wins)
		}
	}
	s := t.summary()
	s.Episodes = kept
	return s, nil
}
