package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/stellarlinkco/havoice-eval/internal/runner"
	"github.com/stellarlinkco/havoice-eval/internal/scorer"
)

func writeSummaryText(w io.Writer, s *runner.Summary, verbose bool) {
	fmt.Fprintf(w, "Dataset:   %s\n", s.Dataset)
	fmt.Fprintf(w, "Provider:  %s", s.Provider)
	if s.Model != "" {
		fmt.Fprintf(w, " (%s)", s.Model)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Tool tier: %s\n", s.ToolTier)
	fmt.Fprintf(w, "Duration:  %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Samples:   %d total, %d correct, %d errored\n",
		s.TotalSamples, s.CorrectSamples, s.ErroredSamples)
	fmt.Fprintf(w, "Accuracy:  %.1f%%\n", s.Accuracy*100)
	if s.TotalTokens > 0 {
		fmt.Fprintf(w, "Tokens:    %d\n", s.TotalTokens)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Dimension                 C     I     N")
	for _, name := range scorer.DimensionOrder {
		t := s.Dimensions[name]
		fmt.Fprintf(w, "%-22s %5d %5d %5d\n", name, t.Correct, t.Incorrect, t.NotApplicable)
	}

	failed := failedResults(s)
	if len(failed) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Failed samples (%d):\n", len(failed))
	for _, res := range failed {
		if res.Err != nil {
			fmt.Fprintf(w, "  %s: error: %v\n", res.CaseID, res.Err)
			continue
		}
		fmt.Fprintf(w, "  %s: %q\n", res.CaseID, res.Utterance)
		if verbose {
			fmt.Fprintln(w, indent(res.Verdict.Explanation, "    "))
		}
	}
}

func writeSummaryJSON(w io.Writer, s *runner.Summary) error {
	out := jsonSummary{
		Dataset:        s.Dataset,
		Provider:       s.Provider,
		Model:          s.Model,
		ToolTier:       s.ToolTier,
		StartedAt:      s.StartedAt,
		FinishedAt:     s.FinishedAt,
		TotalSamples:   s.TotalSamples,
		CorrectSamples: s.CorrectSamples,
		ErroredSamples: s.ErroredSamples,
		Accuracy:       s.Accuracy,
		TotalTokens:    s.TotalTokens,
		Dimensions:     make(map[string]jsonTally, len(s.Dimensions)),
	}
	for name, t := range s.Dimensions {
		out.Dimensions[name] = jsonTally{Correct: t.Correct, Incorrect: t.Incorrect, NotApplicable: t.NotApplicable}
	}
	for _, res := range s.Results {
		jr := jsonResult{
			CaseID:    res.CaseID,
			Utterance: res.Utterance,
			LatencyMs: res.LatencyMs,
			Tokens:    res.TokensUsed,
		}
		if res.Err != nil {
			jr.Error = res.Err.Error()
		} else {
			jr.Overall = string(res.Verdict.Overall)
			jr.Dimensions = make(map[string]string)
			for name, grade := range res.Verdict.Dimensions.Map() {
				jr.Dimensions[name] = string(grade)
			}
			jr.MatchedAlternative = res.Verdict.MatchedAlternative
			jr.Explanation = res.Verdict.Explanation
		}
		out.Results = append(out.Results, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

type jsonSummary struct {
	Dataset        string               `json:"dataset"`
	Provider       string               `json:"provider"`
	Model          string               `json:"model,omitempty"`
	ToolTier       string               `json:"tool_tier"`
	StartedAt      time.Time            `json:"started_at"`
	FinishedAt     time.Time            `json:"finished_at"`
	TotalSamples   int                  `json:"total_samples"`
	CorrectSamples int                  `json:"correct_samples"`
	ErroredSamples int                  `json:"errored_samples"`
	Accuracy       float64              `json:"accuracy"`
	TotalTokens    int                  `json:"total_tokens,omitempty"`
	Dimensions     map[string]jsonTally `json:"dimensions"`
	Results        []jsonResult         `json:"results"`
}

type jsonTally struct {
	Correct       int `json:"correct"`
	Incorrect     int `json:"incorrect"`
	NotApplicable int `json:"not_applicable"`
}

type jsonResult struct {
	CaseID             string            `json:"case_id"`
	Utterance          string            `json:"utterance"`
	Overall            string            `json:"overall,omitempty"`
	Dimensions         map[string]string `json:"dimensions,omitempty"`
	MatchedAlternative int               `json:"matched_alternative,omitempty"`
	Explanation        string            `json:"explanation,omitempty"`
	LatencyMs          int64             `json:"latency_ms"`
	Tokens             int               `json:"tokens,omitempty"`
	Error              string            `json:"error,omitempty"`
}

func failedResults(s *runner.Summary) []runner.SampleResult {
	var out []runner.SampleResult
	for _, res := range s.Results {
		if res.Err != nil || res.Verdict.Overall != scorer.Correct {
			out = append(out, res)
		}
	}
	return out
}

func indent(text, prefix string) string {
	if text == "" {
		return text
	}
	lines := make([]byte, 0, len(text)+len(prefix)*8)
	lines = append(lines, prefix...)
	for i := 0; i < len(text); i++ {
		lines = append(lines, text[i])
		if text[i] == '\n' && i != len(text)-1 {
			lines = append(lines, prefix...)
		}
	}
	return string(lines)
}
