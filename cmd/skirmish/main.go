package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"skirmish/internal/config"
	"skirmish/internal/sim"
	"skirmish/internal/store"
	"skirmish/internal/trace"
)

func main() {
	var cfgPath, out, tracePath, dbPath string
	var seed int64
	var episodes, maxSteps, evalRuns, workers int
	var render, verbose bool
	flag.StringVar(&cfgPath, "config", "assets/scenario.yaml", "scenario file")
	flag.StringVar(&out, "out", "out.json", "summary file")
	flag.StringVar(&tracePath, "trace", "", "write episode events to this zstd JSONL file")
	flag.StringVar(&dbPath, "db", "", "record run results in this sqlite file")
	flag.Int64Var(&seed, "seed", 0, "seed (0 = scenario seed)")
	flag.IntVar(&episodes, "episodes", 0, "training episodes (0 = scenario value)")
	flag.IntVar(&maxSteps, "max-steps", -1, "truncate episodes after this many actions (-1 = scenario value, 0 = never)")
	flag.IntVar(&evalRuns, "eval", 0, "run this many independent seeded episodes in parallel instead of training")
	flag.IntVar(&workers, "workers", 8, "evaluation workers")
	flag.BoolVar(&render, "render", false, "print the board after each episode")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, log, options{
		cfgPath: cfgPath, out: out, tracePath: tracePath, dbPath: dbPath,
		seed: seed, episodes: episodes, maxSteps: maxSteps,
		evalRuns: evalRuns, workers: workers, render: render,
	}); err != nil {
		log.Error("skirmish failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	cfgPath, out, tracePath, dbPath string
	seed                            int64
	episodes, maxSteps              int
	evalRuns, workers               int
	render                          bool
}

func run(ctx context.Context, log *slog.Logger, o options) error {
	sc, err := config.Load(o.cfgPath)
	if err != nil {
		return err
	}
	if o.episodes > 0 {
		sc.Episodes = o.episodes
	}
	if o.maxSteps >= 0 {
		sc.MaxSteps = o.maxSteps
	}

	if o.evalRuns > 0 {
		sum, err := sim.Evaluate(ctx, sc, sim.EvalOptions{
			Runs: o.evalRuns, Workers: o.workers, Seed: o.seed, MaxSteps: sc.MaxSteps, Logger: log,
		})
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.out, sim.MarshalPretty(sum), 0644); err != nil {
			return err
		}
		fmt.Printf("Batch %d done, win rate %v -> %s\n", sum.Runs, sum.WinRate, filepath.Base(o.out))
		return nil
	}

	m, err := sim.Build(sc, sim.BuildOptions{Seed: o.seed, Logger: log, In: os.Stdin, Out: os.Stdout})
	if err != nil {
		return err
	}
	topts := sim.TrainOptions{
		Episodes: sc.Episodes,
		MaxSteps: sc.MaxSteps,
		RunID:    store.NewRunID(),
		Logger:   log,
	}
	if o.tracePath != "" {
		tw, err := trace.Create(o.tracePath)
		if err != nil {
			return err
		}
		defer func() {
			if err := tw.Close(); err != nil {
				log.Warn("closing trace", "error", err)
			}
		}()
		topts.Trace = tw
	}
	if o.dbPath != "" {
		st, err := store.OpenSQLite(o.dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		topts.Store = st
	}
	if o.render {
		topts.Render = func(ep int, board string) {
			fmt.Printf("episode %d\n%s\n", ep, board)
		}
	}

	log.Info("training", "scenario", sc.Name, "run", topts.RunID, "episodes", sc.Episodes, "seed", m.Seed)
	sum, err := sim.Train(ctx, m, topts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(o.out, sim.MarshalPretty(sum), 0644); err != nil {
		return err
	}
	fmt.Printf("Training finished. Episodes=%d, wins=%v, truncated=%d -> %s\n", sum.Runs, sum.Wins, sum.Truncated, o.out)
	return nil
}
