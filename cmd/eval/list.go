package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/havoice-eval/internal/hatools"
	"github.com/stellarlinkco/havoice-eval/internal/testcase"
)

func newListCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List test cases or intent tools",
	}
	cmd.AddCommand(newListCasesCmd(st))
	cmd.AddCommand(newListToolsCmd())
	return cmd
}

func newListCasesCmd(st *cliState) *cobra.Command {
	var dataFile, tier string

	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List test cases in a data file",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return st.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(dataFile)
			if path == "" {
				path = strings.TrimSpace(st.cfg.Bench.DataFile)
			}
			if path == "" {
				return fmt.Errorf("no test case file: pass --data or set bench.data_file")
			}

			cases, err := testcase.LoadFromFile(path, tier)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, c := range cases {
				fmt.Fprintf(w, "%-28s %-16s %q\n", c.ID, c.ResponseType, c.Utterance)
			}
			fmt.Fprintf(w, "\n%d cases\n", len(cases))
			return nil
		},
	}

	cmd.Flags().StringVar(&dataFile, "data", "", "NDJSON test case file")
	cmd.Flags().StringVar(&tier, "tier", "", "filter cases by inventory tier")
	return cmd
}

func newListToolsCmd() *cobra.Command {
	var tier string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the intent tools exposed to the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := hatools.ForTier(tier)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, t := range tools {
				fmt.Fprintf(w, "%-32s %s\n", t.Name, t.Description)
			}
			fmt.Fprintf(w, "\n%d tools (%s tier)\n", len(tools), tier)
			return nil
		},
	}

	cmd.Flags().StringVar(&tier, "tier", hatools.TierMVP, "tool tier: mvp or full")
	return cmd
}
