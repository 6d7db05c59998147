// Headless runner: simulates rounds between scripted drones and writes
// per-episode stats. Use cmd/play for the interactive client.
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/PufferAI/impulse-wars/config"
	"github.com/PufferAI/impulse-wars/game"
	"github.com/PufferAI/impulse-wars/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	episodes := flag.Int("episodes", 10, "Number of rounds to simulate")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs (overrides config)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	dir := *outputDir
	if dir == "" && cfg.Telemetry.Enabled {
		dir = cfg.Telemetry.OutputDir
	}
	output, err := telemetry.NewOutputManager(dir)
	if err != nil {
		logger.Error("failed to create output manager", "error", err)
		os.Exit(1)
	}
	if err := output.WriteConfig(cfg); err != nil {
		logger.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	env, err := game.NewEnv(cfg, rngSeed, logger)
	if err != nil {
		logger.Error("failed to create environment", "error", err)
		os.Exit(1)
	}

	bots := make([]*game.Bot, cfg.Round.NumDrones)
	for i := range bots {
		bots[i] = game.NewBot(i, rngSeed+int64(i)+1)
	}

	logger.Info("starting simulation",
		"seed", rngSeed,
		"episodes", *episodes,
		"drones", cfg.Round.NumDrones,
	)

	// Hard per-episode cap: sudden death guarantees termination well
	// before this, it only guards against pathological configs.
	stepCap := cfg.Round.MaxSteps * 10

	actions := make([]game.Action, cfg.Round.NumDrones)
	for ep := 0; ep < *episodes; ep++ {
		for {
			snap := env.Snapshot()
			for i, bot := range bots {
				actions[i] = bot.Act(env, snap)
			}
			info := env.Step(actions)
			if info.RoundOver || info.Step >= stepCap {
				break
			}
		}

		final := env.Snapshot()
		logger.Info("episode finished",
			"episode", ep,
			"map", final.MapName,
			"steps", final.Step,
			"winner", final.Winner,
			"suddenDeath", final.SuddenDeath,
		)
		if err := output.RecordEpisode(final); err != nil {
			logger.Error("failed to record episode", "error", err)
			os.Exit(1)
		}

		if ep+1 < *episodes {
			if err := env.Reset(); err != nil {
				logger.Error("failed to reset environment", "error", err)
				os.Exit(1)
			}
		}
	}

	if err := output.Close(); err != nil {
		logger.Error("failed to close output", "error", err)
		os.Exit(1)
	}
}
