package runner

import (
	"time"

	"github.com/stellarlinkco/havoice-eval/internal/llm"
	"github.com/stellarlinkco/havoice-eval/internal/scorer"
)

// Config defines runner behavior.
type Config struct {
	Concurrency int           // Max concurrent samples
	Timeout     time.Duration // Per-sample timeout, zero = none
	MaxTokens   int           // Per-request output budget
}

// SampleResult reports the outcome for one test case.
type SampleResult struct {
	CaseID       string
	Utterance    string
	Verdict      scorer.Verdict
	ToolCalls    []llm.ToolUse
	ResponseText string
	LatencyMs    int64
	TokensUsed   int
	Err          error
}

// Tally counts grades for one dimension across a run.
type Tally struct {
	Correct       int
	Incorrect     int
	NotApplicable int
}

// Summary aggregates one benchmark run. Accuracy is the share of samples
// whose overall verdict is Correct; errored samples count against it.
type Summary struct {
	Dataset        string
	Provider       string
	Model          string
	ToolTier       string
	TotalSamples   int
	CorrectSamples int
	ErroredSamples int
	Accuracy       float64
	Dimensions     map[string]Tally
	TotalLatencyMs int64
	TotalTokens    int
	StartedAt      time.Time
	FinishedAt     time.Time
	Results        []SampleResult
}
