package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/havoice-eval/internal/config"
	"github.com/stellarlinkco/havoice-eval/internal/llm"
	"github.com/stellarlinkco/havoice-eval/internal/prompt"
	"github.com/stellarlinkco/havoice-eval/internal/runner"
	"github.com/stellarlinkco/havoice-eval/internal/store"
	"github.com/stellarlinkco/havoice-eval/internal/testcase"
)

type runOptions struct {
	dataFile    string
	tier        string
	toolTier    string
	provider    string
	concurrency int
	maxTokens   int
	output      string
	save        bool
	minAccuracy float64
	verbose     bool
}

func newRunCmd(st *cliState) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark against a provider",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return st.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd, st, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dataFile, "data", "", "NDJSON test case file (defaults to bench.data_file)")
	cmd.Flags().StringVar(&opts.tier, "tier", "", "filter cases by inventory tier")
	cmd.Flags().StringVar(&opts.toolTier, "tool-tier", "", "tool tier to expose: mvp or full")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "provider name (defaults to llm.default_provider)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "max concurrent samples")
	cmd.Flags().IntVar(&opts.maxTokens, "max-tokens", 0, "per-request output token budget")
	cmd.Flags().StringVar(&opts.output, "output", "", "output format: text or json")
	cmd.Flags().BoolVar(&opts.save, "save", false, "persist the run to storage")
	cmd.Flags().Float64Var(&opts.minAccuracy, "min-accuracy", 0, "exit non-zero when accuracy falls below this")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "print explanations for incorrect samples")

	return cmd
}

func runBenchmark(cmd *cobra.Command, st *cliState, opts *runOptions) error {
	cfg := st.cfg

	dataFile := strings.TrimSpace(opts.dataFile)
	if dataFile == "" {
		dataFile = strings.TrimSpace(cfg.Bench.DataFile)
	}
	if dataFile == "" {
		return fmt.Errorf("no test case file: pass --data or set bench.data_file")
	}

	cases, err := testcase.LoadFromFile(dataFile, opts.tier)
	if err != nil {
		return err
	}

	providerName := strings.TrimSpace(opts.provider)
	if providerName == "" {
		providerName = cfg.LLM.DefaultProvider
	}
	provider, err := llm.ProviderFromConfig(cfg, providerName)
	if err != nil {
		return err
	}

	toolTier := strings.TrimSpace(opts.toolTier)
	if toolTier == "" {
		toolTier = cfg.Evaluation.ToolTier
	}

	concurrency := opts.concurrency
	if concurrency <= 0 {
		concurrency = cfg.Evaluation.Concurrency
	}

	builder := prompt.NewBuilder(cfg.Bench.BaseDir)
	r, err := runner.NewRunner(provider, builder, toolTier, runner.Config{
		Concurrency: concurrency,
		Timeout:     cfg.Evaluation.Timeout,
		MaxTokens:   opts.maxTokens,
	})
	if err != nil {
		return err
	}

	summary, err := r.RunAll(cmd.Context(), dataFile, cases)
	if err != nil {
		return err
	}
	summary.Model = configuredModel(cfg, provider.Name())

	format := strings.TrimSpace(opts.output)
	if format == "" {
		format = cfg.Evaluation.OutputFormat
	}
	switch strings.ToLower(format) {
	case "", "text":
		writeSummaryText(cmd.OutOrStdout(), summary, opts.verbose)
	case "json":
		if err := writeSummaryJSON(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	if opts.save {
		if err := saveRun(cmd, cfg, summary); err != nil {
			return err
		}
	}

	if opts.minAccuracy > 0 && summary.Accuracy < opts.minAccuracy {
		fmt.Fprintf(cmd.ErrOrStderr(), "accuracy %.1f%% below threshold %.1f%%\n",
			summary.Accuracy*100, opts.minAccuracy*100)
		return errBelowThreshold
	}
	return nil
}

func saveRun(cmd *cobra.Command, cfg *config.Config, summary *runner.Summary) error {
	db, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rec := toRunRecord(newRunID(), summary)
	if err := db.SaveRun(cmd.Context(), rec); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved run %s\n", rec.ID)
	return nil
}

func toRunRecord(id string, summary *runner.Summary) *store.RunRecord {
	rec := &store.RunRecord{
		ID:             id,
		StartedAt:      summary.StartedAt,
		FinishedAt:     summary.FinishedAt,
		Dataset:        summary.Dataset,
		Provider:       summary.Provider,
		Model:          summary.Model,
		ToolTier:       summary.ToolTier,
		TotalSamples:   summary.TotalSamples,
		CorrectSamples: summary.CorrectSamples,
		ErroredSamples: summary.ErroredSamples,
		Accuracy:       summary.Accuracy,
		TotalLatencyMs: summary.TotalLatencyMs,
		TotalTokens:    summary.TotalTokens,
	}

	for _, res := range summary.Results {
		sample := store.SampleRecord{
			CaseID:             res.CaseID,
			Overall:            string(res.Verdict.Overall),
			MatchedAlternative: res.Verdict.MatchedAlternative,
			Explanation:        res.Verdict.Explanation,
			LatencyMs:          res.LatencyMs,
			TokensUsed:         res.TokensUsed,
		}
		if res.Err != nil {
			sample.Error = res.Err.Error()
		} else {
			dims := make(map[string]string)
			for name, grade := range res.Verdict.Dimensions.Map() {
				dims[name] = string(grade)
			}
			sample.Dimensions = dims
		}
		if len(res.ToolCalls) > 0 {
			if b, err := json.Marshal(res.ToolCalls); err == nil {
				sample.ToolCallsJSON = string(b)
			}
		}
		rec.Samples = append(rec.Samples, sample)
	}
	return rec
}

func configuredModel(cfg *config.Config, providerName string) string {
	for name, pcfg := range cfg.LLM.Providers {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "anthropic" {
			key = "claude"
		}
		if key == strings.ToLower(providerName) {
			return pcfg.Model
		}
	}
	return ""
}

func newRunID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", os.Getpid())
	}
	return "run-" + hex.EncodeToString(b[:])
}
