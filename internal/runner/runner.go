// Package runner drives one benchmark run: it assembles the system prompt
// for each sample, invokes the model with the intent tool schemas, and
// hands the captured tool calls to the scorer. The runner owns endpoint
// discipline (concurrency bound, per-sample timeout); the scorer stays a
// pure computation.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stellarlinkco/havoice-eval/internal/hatools"
	"github.com/stellarlinkco/havoice-eval/internal/llm"
	"github.com/stellarlinkco/havoice-eval/internal/prompt"
	"github.com/stellarlinkco/havoice-eval/internal/scorer"
	"github.com/stellarlinkco/havoice-eval/internal/testcase"
)

type Runner struct {
	provider  llm.Provider
	builder   *prompt.Builder
	tools     []llm.ToolDefinition
	scorerCfg scorer.Config
	toolTier  string
	cfg       Config

	sem chan struct{}
}

// NewRunner creates a Runner exposing the given tool tier.
func NewRunner(provider llm.Provider, builder *prompt.Builder, toolTier string, cfg Config) (*Runner, error) {
	if provider == nil {
		return nil, errors.New("runner: nil provider")
	}
	if builder == nil {
		return nil, errors.New("runner: nil prompt builder")
	}

	tools, err := hatools.ForTier(toolTier)
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}
	validNames, err := hatools.Names(toolTier)
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}

	defs := make([]llm.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	return &Runner{
		provider: provider,
		builder:  builder,
		tools:    defs,
		scorerCfg: scorer.Config{
			ValidTools: validNames,
			QueryTools: hatools.QueryToolNames(),
		},
		toolTier: toolTier,
		cfg:      cfg,
		sem:      make(chan struct{}, cfg.Concurrency),
	}, nil
}

// RunAll evaluates every case and aggregates a run summary. Sample order
// in the summary matches the input order regardless of scheduling.
func (r *Runner) RunAll(ctx context.Context, dataset string, cases []testcase.Case) (*Summary, error) {
	if r == nil {
		return nil, errors.New("runner: nil runner")
	}
	if ctx == nil {
		return nil, errors.New("runner: nil context")
	}
	if len(cases) == 0 {
		return nil, errors.New("runner: no cases")
	}

	summary := &Summary{
		Dataset:   dataset,
		Provider:  r.provider.Name(),
		ToolTier:  r.toolTier,
		StartedAt: time.Now(),
		Results:   make([]SampleResult, len(cases)),
	}

	var wg sync.WaitGroup
	for i := range cases {
		if err := r.acquire(ctx); err != nil {
			// Record cancellation for the remaining samples and stop
			// scheduling new ones.
			for j := i; j < len(cases); j++ {
				summary.Results[j] = SampleResult{CaseID: cases[j].ID, Err: err}
			}
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer r.release()
			summary.Results[i] = r.runSample(ctx, cases[i])
		}(i)
	}
	wg.Wait()

	summary.FinishedAt = time.Now()
	aggregate(summary)
	return summary, nil
}

func (r *Runner) runSample(ctx context.Context, c testcase.Case) SampleResult {
	out := SampleResult{CaseID: c.ID, Utterance: c.Utterance}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	systemPrompt, err := r.builder.SystemPrompt(c.InventoryFile)
	if err != nil {
		out.Err = err
		return out
	}

	req := &llm.Request{
		System:    systemPrompt,
		Messages:  []llm.Message{{Role: "user", Content: c.Utterance}},
		MaxTokens: r.cfg.MaxTokens,
		Tools:     r.tools,
	}

	res, err := r.provider.CompleteWithTools(ctx, req)
	if err != nil {
		out.Err = err
		if res != nil {
			out.LatencyMs = res.LatencyMs
		}
		return out
	}

	out.ToolCalls = res.ToolCalls
	out.ResponseText = res.TextContent
	out.LatencyMs = res.LatencyMs
	out.TokensUsed = res.InputTokens + res.OutputTokens

	out.Verdict = scorer.Score(r.scorerCfg, scorer.Input{
		Expected:     c.Expected,
		Alternatives: c.Alternatives,
		ResponseType: c.ResponseType,
		Actual:       toScorerCalls(res.ToolCalls),
		FinalText:    res.TextContent,
	})
	return out
}

func toScorerCalls(calls []llm.ToolUse) []scorer.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]scorer.ToolCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, scorer.ToolCall{
			Name:       c.Name,
			Arguments:  c.Input,
			ParseError: c.ParseError,
		})
	}
	return out
}

func aggregate(summary *Summary) {
	dims := make(map[string]Tally, len(scorer.DimensionOrder))
	for _, res := range summary.Results {
		summary.TotalSamples++
		summary.TotalLatencyMs += res.LatencyMs
		summary.TotalTokens += res.TokensUsed

		if res.Err != nil {
			summary.ErroredSamples++
			continue
		}
		if res.Verdict.Overall == scorer.Correct {
			summary.CorrectSamples++
		}
		for name, grade := range res.Verdict.Dimensions.Map() {
			t := dims[name]
			switch grade {
			case scorer.Correct:
				t.Correct++
			case scorer.Incorrect:
				t.Incorrect++
			case scorer.NotApplicable:
				t.NotApplicable++
			}
			dims[name] = t
		}
	}
	summary.Dimensions = dims
	if summary.TotalSamples > 0 {
		summary.Accuracy = float64(summary.CorrectSamples) / float64(summary.TotalSamples)
	}
}

func (r *Runner) acquire(ctx context.Context) error {
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) release() {
	<-r.sem
}
