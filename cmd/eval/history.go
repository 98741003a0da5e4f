package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/havoice-eval/internal/store"
)

func newHistoryCmd(st *cliState) *cobra.Command {
	var limit int
	var showSamples bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show stored benchmark runs",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return st.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(st.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if len(args) == 1 {
				return showRun(cmd, db, strings.TrimSpace(args[0]), showSamples)
			}
			return listRuns(cmd, db, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to show")
	cmd.Flags().BoolVar(&showSamples, "samples", false, "include per-sample verdicts")
	return cmd
}

func listRuns(cmd *cobra.Command, db store.Store, limit int) error {
	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "no stored runs")
		return nil
	}

	fmt.Fprintf(w, "%-22s %-20s %-10s %-26s %8s %8s\n",
		"RUN", "STARTED", "PROVIDER", "MODEL", "SAMPLES", "ACC")
	for _, run := range runs {
		fmt.Fprintf(w, "%-22s %-20s %-10s %-26s %8d %7.1f%%\n",
			run.ID,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Provider,
			run.Model,
			run.TotalSamples,
			run.Accuracy*100)
	}
	return nil
}

func showRun(cmd *cobra.Command, db store.Store, id string, showSamples bool) error {
	run, err := db.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run:       %s\n", run.ID)
	fmt.Fprintf(w, "Started:   %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Dataset:   %s\n", run.Dataset)
	fmt.Fprintf(w, "Provider:  %s", run.Provider)
	if run.Model != "" {
		fmt.Fprintf(w, " (%s)", run.Model)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Tool tier: %s\n", run.ToolTier)
	fmt.Fprintf(w, "Samples:   %d total, %d correct, %d errored\n",
		run.TotalSamples, run.CorrectSamples, run.ErroredSamples)
	fmt.Fprintf(w, "Accuracy:  %.1f%%\n", run.Accuracy*100)

	if !showSamples {
		return nil
	}

	samples, err := db.GetSamples(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	for _, s := range samples {
		switch {
		case s.Error != "":
			fmt.Fprintf(w, "  %-28s error: %s\n", s.CaseID, s.Error)
		case s.MatchedAlternative > 0:
			fmt.Fprintf(w, "  %-28s %s (alternative %d)\n", s.CaseID, s.Overall, s.MatchedAlternative)
		default:
			fmt.Fprintf(w, "  %-28s %s\n", s.CaseID, s.Overall)
		}
	}
	return nil
}
