package store

import (
	"context"
	"time"
)

// Store persists benchmark runs and per-sample verdicts.
type Store interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]*RunRecord, error)
	GetSamples(ctx context.Context, runID string) ([]*SampleRecord, error)
	Close() error
}

// RunRecord stores one benchmark run summary.
type RunRecord struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Dataset        string
	Provider       string
	Model          string
	ToolTier       string
	TotalSamples   int
	CorrectSamples int
	ErroredSamples int
	Accuracy       float64
	TotalLatencyMs int64
	TotalTokens    int
	Samples        []SampleRecord
}

// SampleRecord stores one sample's verdict.
type SampleRecord struct {
	CaseID             string
	Overall            string
	Dimensions         map[string]string // dimension name -> C/I/N
	MatchedAlternative int
	Explanation        string
	ToolCallsJSON      string
	LatencyMs          int64
	TokensUsed         int
	Error              string
}
