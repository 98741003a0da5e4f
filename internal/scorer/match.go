package scorer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stellarlinkco/havoice-eval/internal/testcase"
)

const numericTolerance = 0.01

// checkArgs verifies that a matching exists pairing every expected call
// with a distinct actual call that has the same tool name and satisfies
// every argument constraint. Expected and actual are unordered multisets;
// extra actual calls are penalized by call_count, not here.
func checkArgs(cfg Config, expected []testcase.ExpectedCall, actual []ToolCall) Grade {
	if len(expected) == 0 {
		return NotApplicable
	}
	if len(actual) < len(expected) {
		return Incorrect
	}

	used := make([]bool, len(actual))
	bound := cfg.maxMatchCalls()
	if len(expected) > bound || len(actual) > bound {
		// Pathologically large call sets: greedy first-fit still
		// terminates and is exact for the sizes this domain produces.
		if greedyAssign(expected, actual, used) {
			return Correct
		}
		return Incorrect
	}

	if assign(expected, 0, actual, used) {
		return Correct
	}
	return Incorrect
}

// assign searches for a full assignment of expected[i:] onto unused actual
// calls via backtracking. Exact for small sets; callers cap the size.
func assign(expected []testcase.ExpectedCall, i int, actual []ToolCall, used []bool) bool {
	if i == len(expected) {
		return true
	}
	for j := range actual {
		if used[j] {
			continue
		}
		if !callMatches(expected[i], actual[j]) {
			continue
		}
		used[j] = true
		if assign(expected, i+1, actual, used) {
			return true
		}
		used[j] = false
	}
	return false
}

func greedyAssign(expected []testcase.ExpectedCall, actual []ToolCall, used []bool) bool {
	for _, exp := range expected {
		matched := false
		for j := range actual {
			if used[j] || !callMatches(exp, actual[j]) {
				continue
			}
			used[j] = true
			matched = true
			break
		}
		if !matched {
			return false
		}
	}
	return true
}

// callMatches reports whether one actual call satisfies one expected call:
// equal tool name and every argument constraint met. An expected call with
// no constraints is satisfied by any call of the same name.
func callMatches(expected testcase.ExpectedCall, actual ToolCall) bool {
	if expected.Name != actual.Name {
		return false
	}
	if len(expected.Args) == 0 {
		return true
	}
	for key, spec := range expected.Args {
		got, ok := actual.Arguments[key]
		if !ok {
			// Absence of an expected key is itself a failure, not a
			// silently skipped check.
			return false
		}
		if !specSatisfied(spec, got) {
			return false
		}
	}
	return true
}

func specSatisfied(spec testcase.ArgSpec, got any) bool {
	if spec.Kind == testcase.SpecAnyOf {
		for _, candidate := range spec.AnyOf {
			if valueEqual(candidate, got) {
				return true
			}
		}
		return false
	}
	return valueEqual(spec.Value, got)
}

// valueEqual applies the tolerance rules: numbers within an absolute
// tolerance of 0.01 when both sides are numeric, arrays as case-insensitive
// sets, everything else as trimmed case-insensitive strings. Mixed
// numeric/string pairs fall through to the string comparison, so a numeric
// expectation still accepts its string rendering.
func valueEqual(want, got any) bool {
	if wf, ok := toFloat64(want); ok {
		if gf, ok := toFloat64(got); ok {
			diff := wf - gf
			if diff < 0 {
				diff = -diff
			}
			return diff <= numericTolerance
		}
	}

	if wantSlice, ok := asAnySlice(want); ok {
		gotSlice, ok := asAnySlice(got)
		if !ok {
			return false
		}
		return setEqual(wantSlice, gotSlice)
	}

	return normalize(want) == normalize(got)
}

// setEqual compares two arrays as sets of normalized strings; order and
// duplicates are irrelevant.
func setEqual(a, b []any) bool {
	as := normalizedSet(a)
	bs := normalizedSet(b)
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if _, ok := bs[v]; !ok {
			return false
		}
	}
	return true
}

func normalizedSet(values []any) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[normalize(v)] = struct{}{}
	}
	return out
}

func normalize(v any) string {
	return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", v)))
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}

func asAnySlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	default:
		return nil, false
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
