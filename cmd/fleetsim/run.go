package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/talgya/fleet-adapt/internal/adaptation"
	"github.com/talgya/fleet-adapt/internal/api"
	"github.com/talgya/fleet-adapt/internal/config"
	"github.com/talgya/fleet-adapt/internal/engine"
	"github.com/talgya/fleet-adapt/internal/persistence"
	"github.com/talgya/fleet-adapt/internal/seascape"
)

var (
	scenarioPath string
	runSeed      int64
	runTicks     uint64
	runAlgorithm string
	runDB        string
	runAddr      string
	linger       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate the fleet",
	Long: `Generates the sea and the fleet, runs the adaptation loop, saves decisions
to SQLite every sim-day and optionally serves the read-only API.`,
	RunE: runSimulation,
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "config", "", "Scenario YAML file (defaults when empty)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Override the scenario seed")
	runCmd.Flags().Uint64Var(&runTicks, "ticks", 0, "Override the number of ticks")
	runCmd.Flags().StringVar(&runAlgorithm, "algorithm", "", "Override the algorithm: beam, pso, gravitational")
	runCmd.Flags().StringVar(&runDB, "db", "", "Override the database path (\"-\" disables storage)")
	runCmd.Flags().StringVar(&runAddr, "addr", "", "Serve the API on this address, e.g. :8080")
	runCmd.Flags().BoolVar(&linger, "linger", false, "Keep serving the API after the run until interrupted")
	rootCmd.AddCommand(runCmd)
}

func loadScenario(cmd *cobra.Command) (config.Scenario, error) {
	// Flags may repair what the file got wrong, so validation waits for them.
	cfg, err := config.Load(scenarioPath)
	if err != nil && !errors.Is(err, adaptation.ErrInvalidConfig) {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed, cfg.Map.Seed = runSeed, runSeed
	}
	if flags.Changed("ticks") {
		cfg.Engine.Ticks = runTicks
	}
	if flags.Changed("algorithm") {
		cfg.Adaptation.Algorithm = runAlgorithm
	}
	if flags.Changed("db") {
		cfg.Storage.Path = runDB
		if runDB == "-" {
			cfg.Storage.Path = ""
		}
	}
	if flags.Changed("addr") {
		cfg.API.Addr = runAddr
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Sea and fleet ────────────────────────────────────────────────
	slog.Info("generating sea", "width", cfg.Map.Width, "height", cfg.Map.Height, "seed", cfg.Seed)
	sim, err := engine.NewSimulation(cfg)
	if err != nil {
		return err
	}
	counts := seascape.CellCounts(sim.Sea)
	slog.Info("fleet ready",
		"fishers", len(sim.Fishers),
		"sea_cells", counts.Sea,
		"land_cells", counts.Land,
		"ports", counts.Ports,
		"algorithm", cfg.Adaptation.Algorithm,
	)

	// ── Database ─────────────────────────────────────────────────────
	var db *persistence.DB
	var runID string
	if cfg.Storage.Path != "" {
		if dir := filepath.Dir(cfg.Storage.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
		}
		db, err = persistence.Open(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := db.StartRun(cfg.Seed, cfg.Adaptation.Algorithm, len(sim.Fishers))
		if err != nil {
			return err
		}
		runID = run.ID
		if scenario, err := yaml.Marshal(cfg); err == nil {
			if err := db.SaveMeta(runID, "scenario", string(scenario)); err != nil {
				slog.Warn("scenario not stored", "error", err)
			}
		}
		slog.Info("database opened", "path", cfg.Storage.Path, "run", runID)
	}

	// ── HTTP API ─────────────────────────────────────────────────────
	if cfg.API.Addr != "" {
		srv := &api.Server{Sim: sim, DB: db, RunID: runID, Addr: cfg.API.Addr}
		srv.Start(ctx)
	}

	// ── Engine ───────────────────────────────────────────────────────
	eng := engine.NewEngine(cfg.Engine.TicksPerDay)
	eng.OnTick = sim.Tick
	eng.OnDay = func(tick uint64) {
		sim.TickDay(tick)
		if db != nil {
			if err := db.SaveRunState(runID, sim); err != nil {
				slog.Error("daily save failed", "error", err)
			}
		}
	}

	start := time.Now()
	runErr := eng.RunFor(ctx, cfg.Engine.Ticks)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if db != nil {
		slog.Info("final save...")
		if err := db.SaveRunState(runID, sim); err != nil {
			slog.Error("final save failed", "error", err)
		}
	}

	printSummary(cmd, sim, runID, time.Since(start))

	if linger && cfg.API.Addr != "" && runErr == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "API still serving on %s (Ctrl+C to stop)\n", cfg.API.Addr)
		<-ctx.Done()
	}
	return nil
}

func printSummary(cmd *cobra.Command, sim *engine.Simulation, runID string, elapsed time.Duration) {
	status := sim.Status()
	st := status.Stats
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "\n%s boats fished %s ticks (%s) in %s.\n",
		humanize.Comma(int64(st.Fishers)), humanize.Comma(int64(status.Tick)), status.SimTime, elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "Fleet cash: %s   mean profit per haul: %s   stock left: %s\n",
		humanize.CommafWithDigits(st.TotalCash, 0),
		humanize.CommafWithDigits(st.MeanProfit, 2),
		humanize.CommafWithDigits(st.TotalBiomass, 0))
	fmt.Fprintf(out, "Explored %s, imitated %s, exploited %s, reverted %s, severed %s friendships.\n",
		humanize.Comma(int64(st.Explored)), humanize.Comma(int64(st.Imitated)),
		humanize.Comma(int64(st.Exploited)), humanize.Comma(int64(st.Reverted)),
		humanize.Comma(int64(st.Severed)))
	if runID != "" {
		fmt.Fprintf(out, "Run %s saved; see `fleetsim history --run %s`.\n", runID, runID)
	}
}
