package sim

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"skirmish/internal/config"
)

type EvalOptions struct {
	Runs     int
	Workers  int // defaults to GOMAXPROCS
	Seed     int64
	MaxSteps int
	Logger   *slog.Logger
}

// Evaluate plays opts.Runs independent single-episode matches of sc in
// parallel. Run i is seeded with Seed + i*7919, so results do not depend on
// how jobs land on workers.
func Evaluate(ctx context.Context, sc *config.Scenario, opts EvalOptions) (Summary, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = sc.Seed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		t        = newTally()
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				m, err := Build(sc, BuildOptions{Seed: seed + int64(i)*7919, Logger: log})
				if err != nil {
					fail(err)
					continue
				}
				res, err := RunEpisode(ctx, m.Engine, m.Agents, opts.MaxSteps)
				if err != nil {
					fail(err)
					continue
				}
				res.Episode = i
				mu.Lock()
				t.add(res)
				mu.Unlock()
			}
		}()
	}
feed:
	for i := 0; i < opts.Runs; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return t.summary(), firstErr
	}
	if err := ctx.Err(); err != nil {
		return t.summary(), err
	}
	return t.summary(), nil
}
