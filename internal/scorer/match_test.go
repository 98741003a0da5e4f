package scorer

import (
	"testing"

	"github.com/stellarlinkco/havoice-eval/internal/testcase"
)

func TestCheckArgs_NumericTolerance(t *testing.T) {
	t.Parallel()

	expected := []testcase.ExpectedCall{
		{Name: "HassLightSet", Args: map[string]testcase.ArgSpec{
			"brightness": testcase.Literal(float64(50)),
		}},
	}
	cfg := testConfig()

	within := []ToolCall{
		{Name: "HassLightSet", Arguments: map[string]any{"brightness": 49.99}},
	}
	if g := checkArgs(cfg, expected, within); g != Correct {
		t.Fatalf("49.99 vs 50: got %v want %v", g, Correct)
	}

	outside := []ToolCall{
		{Name: "HassLightSet", Arguments: map[string]any{"brightness": 49.9}},
	}
	if g := checkArgs(cfg, expected, outside); g != Incorrect {
		t.Fatalf("49.9 vs 50: got %v want %v", g, Incorrect)
	}

	// Integer-typed expectation against a float payload.
	intExpected := []testcase.ExpectedCall{
		{Name: "HassLightSet", Args: map[string]testcase.ArgSpec{
			"brightness": testcase.Literal(50),
		}},
	}
	if g := checkArgs(cfg, intExpected, within); g != Correct {
		t.Fatalf("int 50 vs 49.99: got %v want %v", g, Correct)
	}
}

// A numeric expectation accepts the exact string rendering of the number,
// but string fallback is exact: no tolerance window applies to strings.
func TestCheckArgs_NumericExpectationStringPayload(t *testing.T) {
	t.Parallel()

	expected := []testcase.ExpectedCall{
		{Name: "HassLightSet", Args: map[string]testcase.ArgSpec{
			"brightness": testcase.Literal(50),
		}},
	}
	cfg := testConfig()

	rendered := []ToolCall{
		{Name: "HassLightSet", Arguments: map[string]any{"brightness": "50"}},
	}
	if g := checkArgs(cfg, expected, rendered); g != Correct {
		t.Fatalf("string \"50\" vs 50: got %v want %v", g, Correct)
	}

	near := []ToolCall{
		{Name: "HassLightSet", Arguments: map[string]any{"brightness": "49.99"}},
	}
	if g := checkArgs(cfg, expected, near); g != Incorrect {
		t.Fatalf("string \"49.99\" vs 50: got %v want %v", g, Incorrect)
	}
}

func TestCheckArgs_CaseInsensitiveStrings(t *testing.T) {
	t.Parallel()

	expected := []testcase.ExpectedCall{
		{Name: "HassTurnOn", Args: map[string]testcase.ArgSpec{
			"name": testcase.Literal("Kitchen Light"),
		}},
	}
	actual := []ToolCall{
		{Name: "HassTurnOn", Arguments: map[string]any{"name": "  kitchen light "}},
	}
	if g := checkArgs(testConfig(), expected, actual); g != Correct {
		t.Fatalf("got %v want %v", g, Correct)
	}
}

func TestCheckArgs_MissingKeyFails(t *testing.T) {
	t.Parallel()

	expected := []testcase.ExpectedCall{
		{Name: "HassLightSet", Args: map[string]testcase.ArgSpec{
			"name":       testcase.Literal("lamp"),
			"brightness": testcase.Literal(30),
		}},
	}
	actual := []ToolCall{
		{Name: "HassLightSet", Arguments: map[string]any{"name": "lamp"}},
	}
	if g := checkArgs(testConfig(), expected, actual); g != Incorrect {
		t.Fatalf("got %v want %v", g, Incorrect)
	}
}

func TestCheckArgs_AnyOf(t *testing.T) {
	t.Parallel()

	expected := []testcase.ExpectedCall{
		{Name: "HassTurnOn", Args: map[string]testcase.ArgSpec{
			"name": testcase.AnyOf("ceiling light", "Main Light"),
		}},
	}
	cfg := testConfig()

	for _, got := range []string{"ceiling light", "MAIN LIGHT", " main light"} {
		actual := []ToolCall{
			{Name: "HassTurnOn", Arguments: map[string]any{"name": got}},
		}
		if g := checkArgs(cfg, expected, actual); g != Correct {
			t.Fatalf("%q: got %v want %v", got, g, Correct)
		}
	}

	actual := []ToolCall{
		{Name: "HassTurnOn", Arguments: map[string]any{"name": "desk light"}},
	}
	if g := checkArgs(cfg, expected, actual); g != Incorrect {
		t.Fatalf("non-candidate: got %v want %v", g, Incorrect)
	}
}

func TestCheckArgs_ArraysAsSets(t *testing.T) {
	t.Parallel()

	expected := []testcase.ExpectedCall{
		{Name: "HassTurnOff", Args: map[string]testcase.ArgSpec{
			"entities": testcase.Literal([]any{"light.kitchen", "light.hall"}),
		}},
	}
	cfg := testConfig()

	reordered := []ToolCall{
		{Name: "HassTurnOff", Arguments: map[string]any{
			"entities": []any{"Light.Hall", "light.kitchen", "light.hall"},
		}},
	}
	if g := checkArgs(cfg, expected, reordered); g != Correct {
		t.Fatalf("reordered with duplicate: got %v want %v", g, Correct)
	}

	short := []ToolCall{
		{Name: "HassTurnOff", Arguments: map[string]any{
			"entities": []any{"light.kitchen"},
		}},
	}
	if g := checkArgs(cfg, expected, short); g != Incorrect {
		t.Fatalf("missing element: got %v want %v", g, Incorrect)
	}

	scalar := []ToolCall{
		{Name: "HassTurnOff", Arguments: map[string]any{
			"entities": "light.kitchen",
		}},
	}
	if g := checkArgs(cfg, expected, scalar); g != Incorrect {
		t.Fatalf("scalar vs array: got %v want %v", g, Incorrect)
	}
}

// Two expected calls share a tool name but constrain different arguments.
// A greedy first-fit in the wrong order would burn the flexible actual call
// on the strict expectation; the backtracking search must still succeed.
func TestCheckArgs_BacktrackingAssignment(t *testing.T) {
	t.Parallel()

	expected := []testcase.ExpectedCall{
		{Name: "HassLightSet", Args: nil},
		{Name: "HassLightSet", Args: map[string]testcase.ArgSpec{
			"brightness": testcase.Literal(100),
		}},
	}
	actual := []ToolCall{
		{Name: "HassLightSet", Arguments: map[string]any{"brightness": float64(100)}},
		{Name: "HassLightSet", Arguments: map[string]any{"brightness": float64(20)}},
	}
	if g := checkArgs(testConfig(), expected, actual); g != Correct {
		t.Fatalf("got %v want %v", g, Correct)
	}
}

func TestCheckArgs_EmptyExpected(t *testing.T) {
	t.Parallel()

	if g := checkArgs(testConfig(), nil, []ToolCall{{Name: "HassTurnOn"}}); g != NotApplicable {
		t.Fatalf("got %v want %v", g, NotApplicable)
	}
}

func TestCheckArgs_GreedyFallbackAboveBound(t *testing.T) {
	t.Parallel()

	var expected []testcase.ExpectedCall
	var actual []ToolCall
	for i := 0; i < DefaultMaxMatchCalls+2; i++ {
		expected = append(expected, testcase.ExpectedCall{Name: "HassTurnOn", Args: map[string]testcase.ArgSpec{
			"name": testcase.Literal("lamp"),
		}})
		actual = append(actual, ToolCall{Name: "HassTurnOn", Arguments: map[string]any{"name": "lamp"}})
	}
	if g := checkArgs(testConfig(), expected, actual); g != Correct {
		t.Fatalf("homogeneous oversized set: got %v want %v", g, Correct)
	}

	actual[0].Arguments = map[string]any{"name": "fan"}
	if g := checkArgs(testConfig(), expected, actual); g != Incorrect {
		t.Fatalf("oversized set with mismatch: got %v want %v", g, Incorrect)
	}
}

func TestValueEqual_Kinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		want any
		got  any
		eq   bool
	}{
		{"bool string", true, "True", true},
		{"number vs string rendering", 50, "50", true},
		{"number vs other string", 50, "fifty", false},
		{"string vs number rendering", "50", 50, true},
		{"string vs number", "on", 1, false},
		{"int vs int64", 7, int64(7), true},
		{"nested trim", "warm white", "warm white  ", true},
	}
	for _, tc := range cases {
		if got := valueEqual(tc.want, tc.got); got != tc.eq {
			t.Fatalf("%s: valueEqual(%v, %v) got %v want %v", tc.name, tc.want, tc.got, got, tc.eq)
		}
	}
}
