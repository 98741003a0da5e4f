// Package scorer grades one sample's tool calls against its expected call
// sets. It is a pure function of its inputs: no I/O, no shared state, safe
// to invoke concurrently for independent samples. Disagreements surface as
// Incorrect dimensions with explanatory text, never as errors.
package scorer

import (
	"fmt"
	"strings"

	"github.com/stellarlinkco/havoice-eval/internal/testcase"
)

// Score produces the verdict for one sample. If the primary expected call
// set yields an Incorrect overall and alternatives were supplied, the call
// comparison is re-run against each alternative in order, stopping at the
// first whose overall is Correct. Dimensions that depend only on the
// actual calls (response_type, format_valid, no_hallucinated_tools) are
// held from the primary evaluation.
func Score(cfg Config, in Input) Verdict {
	dims := Dimensions{
		ResponseType:        checkResponseType(cfg, in),
		FormatValid:         checkFormatValid(in.Actual),
		CallCount:           checkCallCount(in.Expected, in.Actual),
		ToolName:            checkToolNames(in.Expected, in.Actual),
		Args:                checkArgs(cfg, in.Expected, in.Actual),
		NoHallucinatedTools: checkNoHallucinated(cfg, in.Actual),
	}

	overall := dims.Overall()
	matchedAlt := 0
	quality := "optimal"
	reason := ""
	expected := in.Expected

	if overall == Incorrect {
		for i, alt := range in.Alternatives {
			altDims := dims
			altDims.CallCount = checkCallCount(alt.Calls, in.Actual)
			altDims.ToolName = checkToolNames(alt.Calls, in.Actual)
			altDims.Args = checkArgs(cfg, alt.Calls, in.Actual)
			if altDims.Overall() != Correct {
				continue
			}
			dims = altDims
			overall = Correct
			matchedAlt = i + 1
			quality = alt.Quality
			if quality == "" {
				quality = "acceptable"
			}
			reason = alt.Reason
			expected = alt.Calls
			break
		}
	}

	return Verdict{
		Overall:            overall,
		Dimensions:         dims,
		Explanation:        buildExplanation(in, expected, dims, matchedAlt, quality, reason),
		MatchedAlternative: matchedAlt,
	}
}

// checkResponseType applies the category-specific rule. An unrecognized
// category grades N; it is flagged in the explanation as a data-contract
// violation rather than raised as an error.
func checkResponseType(cfg Config, in Input) Grade {
	switch in.ResponseType {
	case testcase.ResponseActionDone:
		if len(in.Actual) > 0 {
			return Correct
		}
		return Incorrect
	case testcase.ResponseQuery:
		for _, call := range in.Actual {
			if _, ok := cfg.QueryTools[call.Name]; ok {
				return Correct
			}
		}
		return Incorrect
	case testcase.ResponseText:
		if len(in.Actual) == 0 && strings.TrimSpace(in.FinalText) != "" {
			return Correct
		}
		return Incorrect
	case testcase.ResponseError, testcase.ResponseClarification:
		if len(in.Actual) == 0 {
			return Correct
		}
		return Incorrect
	default:
		return NotApplicable
	}
}

func checkFormatValid(actual []ToolCall) Grade {
	if len(actual) == 0 {
		return NotApplicable
	}
	for _, call := range actual {
		if call.Name == "" || call.ParseError != "" {
			return Incorrect
		}
	}
	return Correct
}

// checkCallCount compares multiset sizes only, independent of content.
func checkCallCount(expected []testcase.ExpectedCall, actual []ToolCall) Grade {
	if len(expected) == len(actual) {
		return Correct
	}
	return Incorrect
}

// checkToolNames verifies that every expected call can be paired with a
// distinct actual call of the same tool name, order-independent.
func checkToolNames(expected []testcase.ExpectedCall, actual []ToolCall) Grade {
	if len(expected) == 0 {
		return NotApplicable
	}
	if len(actual) < len(expected) {
		return Incorrect
	}

	available := make(map[string]int, len(actual))
	for _, call := range actual {
		available[call.Name]++
	}
	for _, exp := range expected {
		if available[exp.Name] == 0 {
			return Incorrect
		}
		available[exp.Name]--
	}
	return Correct
}

func checkNoHallucinated(cfg Config, actual []ToolCall) Grade {
	if len(actual) == 0 {
		return NotApplicable
	}
	for _, call := range actual {
		if call.Name == "" {
			// Scored by format_valid, not as a hallucination.
			continue
		}
		if _, ok := cfg.ValidTools[call.Name]; !ok {
			return Incorrect
		}
	}
	return Correct
}

func buildExplanation(in Input, expected []testcase.ExpectedCall, dims Dimensions, matchedAlt int, quality, reason string) string {
	var lines []string

	if in.ResponseType != "" && dims.ResponseType == NotApplicable {
		lines = append(lines, fmt.Sprintf("DATA CONTRACT: unrecognized expected_response_type %q", in.ResponseType))
	}

	lines = append(lines, "MATCH_QUALITY: "+quality)
	if reason != "" {
		lines = append(lines, "MATCH_REASON: "+reason)
	}
	if matchedAlt > 0 {
		lines = append(lines, fmt.Sprintf("matched alternative %d", matchedAlt))
	}

	lines = append(lines, fmt.Sprintf("Expected %d call(s):", len(expected)))
	for _, c := range expected {
		lines = append(lines, "  "+formatExpectedCall(c))
	}
	lines = append(lines, fmt.Sprintf("Got %d call(s):", len(in.Actual)))
	for _, c := range in.Actual {
		lines = append(lines, "  "+formatActualCall(c))
	}

	lines = append(lines, "", "Checks:")
	grades := dims.Map()
	for _, name := range DimensionOrder {
		mark := "-"
		switch grades[name] {
		case Correct:
			mark = "C"
		case Incorrect:
			mark = "I"
		}
		lines = append(lines, fmt.Sprintf("  %s %s", mark, name))
	}

	return strings.Join(lines, "\n")
}

func formatExpectedCall(c testcase.ExpectedCall) string {
	if len(c.Args) == 0 {
		return c.Name + "()"
	}
	parts := make([]string, 0, len(c.Args))
	for _, key := range sortedKeys(c.Args) {
		spec := c.Args[key]
		switch spec.Kind {
		case testcase.SpecAnyOf:
			parts = append(parts, fmt.Sprintf("%s=any_of%v", key, spec.AnyOf))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", key, spec.Value))
		}
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(parts, ", "))
}

func formatActualCall(c ToolCall) string {
	if c.ParseError != "" {
		return fmt.Sprintf("%s(<unparseable: %s>)", c.Name, c.ParseError)
	}
	if len(c.Arguments) == 0 {
		return c.Name + "()"
	}
	parts := make([]string, 0, len(c.Arguments))
	for _, key := range sortedKeys(c.Arguments) {
		parts = append(parts, fmt.Sprintf("%s=%v", key, c.Arguments[key]))
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(parts, ", "))
}
