package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/fleet-adapt/internal/persistence"
)

var (
	historyDB     string
	historyRun    string
	historyFisher uint64
	historyLimit  int
	listRuns      bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored runs and decisions",
	Long: `Reads a fleetsim database. With --runs it lists runs; otherwise it prints
the newest decisions of a run (the latest run by default), or one fisher's
trail with --fisher.`,
	RunE: showHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyDB, "db", "data/fleet.db", "Database path")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Run ID (latest when empty)")
	historyCmd.Flags().Uint64Var(&historyFisher, "fisher", 0, "Only this fisher's decisions")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum rows")
	historyCmd.Flags().BoolVar(&listRuns, "runs", false, "List runs instead of decisions")
	rootCmd.AddCommand(historyCmd)
}

func showHistory(cmd *cobra.Command, args []string) error {
	db, err := persistence.Open(historyDB)
	if err != nil {
		return err
	}
	defer db.Close()

	out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer out.Flush()

	runs, err := db.Runs(historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if listRuns {
		fmt.Fprintln(out, "RUN\tSEED\tALGORITHM\tFISHERS\tSTARTED")
		for _, r := range runs {
			fmt.Fprintf(out, "%s\t%d\t%s\t%d\t%s\n", r.ID, r.Seed, r.Algorithm, r.Fishers, started(r.Started))
		}
		return nil
	}

	run := historyRun
	if run == "" {
		if len(runs) == 0 {
			return fmt.Errorf("no runs stored in %s", historyDB)
		}
		run = runs[0].ID
	}

	var decisions []persistence.Decision
	if historyFisher != 0 {
		decisions, err = db.FisherHistory(run, historyFisher, historyLimit)
	} else {
		decisions, err = db.RecentDecisions(run, historyLimit)
	}
	if err != nil {
		return fmt.Errorf("query decisions: %w", err)
	}

	fmt.Fprintln(out, "TICK\tFISHER\tACTION\tVERDICT\tSPOT\tPROFIT\tPEER")
	for _, d := range decisions {
		profit := "-"
		if d.Profit != nil {
			profit = humanize.CommafWithDigits(*d.Profit, 2)
		}
		peer := "-"
		if d.PeerID != 0 {
			peer = fmt.Sprintf("%d", d.PeerID)
			if d.Severed {
				peer += " (severed)"
			}
		}
		fmt.Fprintf(out, "%d\t%d\t%s\t%s\t(%d,%d)\t%s\t%s\n",
			d.Tick, d.FisherID, d.Action, d.Verdict, d.X, d.Y, profit, peer)
	}
	return nil
}

func started(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return humanize.Time(t)
}
