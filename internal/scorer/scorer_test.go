package scorer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stellarlinkco/havoice-eval/internal/testcase"
)

func testConfig() Config {
	return Config{
		ValidTools: map[string]struct{}{
			"HassTurnOn":         {},
			"HassTurnOff":        {},
			"HassLightSet":       {},
			"HassGetState":       {},
			"HassGetWeather":     {},
			"HassSetPosition":    {},
			"HassListAddItem":    {},
			"HassMediaPause":     {},
			"HassGetCurrentTime": {},
		},
		QueryTools: map[string]struct{}{
			"HassGetState":       {},
			"HassGetWeather":     {},
			"HassGetCurrentTime": {},
		},
	}
}

func expectCall(name string, args map[string]testcase.ArgSpec) testcase.ExpectedCall {
	return testcase.ExpectedCall{Name: name, Args: args}
}

func TestScore_ExactMatch(t *testing.T) {
	t.Parallel()

	in := Input{
		Expected: []testcase.ExpectedCall{
			expectCall("HassTurnOn", map[string]testcase.ArgSpec{
				"name": testcase.Literal("kitchen light"),
			}),
		},
		ResponseType: testcase.ResponseActionDone,
		Actual: []ToolCall{
			{Name: "HassTurnOn", Arguments: map[string]any{"name": "kitchen light"}},
		},
	}

	v := Score(testConfig(), in)
	if v.Overall != Correct {
		t.Fatalf("Overall: got %v want %v\n%s", v.Overall, Correct, v.Explanation)
	}
	if v.MatchedAlternative != 0 {
		t.Fatalf("MatchedAlternative: got %d want 0", v.MatchedAlternative)
	}
	want := Dimensions{
		ResponseType:        Correct,
		FormatValid:         Correct,
		CallCount:           Correct,
		ToolName:            Correct,
		Args:                Correct,
		NoHallucinatedTools: Correct,
	}
	if v.Dimensions != want {
		t.Fatalf("Dimensions: got %+v want %+v", v.Dimensions, want)
	}
}

func TestScore_Deterministic(t *testing.T) {
	t.Parallel()

	in := Input{
		Expected: []testcase.ExpectedCall{
			expectCall("HassTurnOn", map[string]testcase.ArgSpec{"area": testcase.Literal("kitchen")}),
			expectCall("HassTurnOff", map[string]testcase.ArgSpec{"area": testcase.Literal("bedroom")}),
		},
		ResponseType: testcase.ResponseActionDone,
		Actual: []ToolCall{
			{Name: "HassTurnOn", Arguments: map[string]any{"area": "kitchen"}},
			{Name: "HassTurnOff", Arguments: map[string]any{"area": "bedroom"}},
		},
	}

	cfg := testConfig()
	first := Score(cfg, in)
	for i := 0; i < 10; i++ {
		again := Score(cfg, in)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d: verdict changed:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
}

func TestScore_OrderIndependent(t *testing.T) {
	t.Parallel()

	expected := []testcase.ExpectedCall{
		expectCall("HassTurnOn", map[string]testcase.ArgSpec{"area": testcase.Literal("kitchen")}),
		expectCall("HassTurnOn", map[string]testcase.ArgSpec{"area": testcase.Literal("bedroom")}),
		expectCall("HassTurnOff", map[string]testcase.ArgSpec{"area": testcase.Literal("garage")}),
	}
	calls := []ToolCall{
		{Name: "HassTurnOn", Arguments: map[string]any{"area": "kitchen"}},
		{Name: "HassTurnOn", Arguments: map[string]any{"area": "bedroom"}},
		{Name: "HassTurnOff", Arguments: map[string]any{"area": "garage"}},
	}
	orders := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}

	cfg := testConfig()
	for _, order := range orders {
		shuffled := make([]ToolCall, len(calls))
		for i, idx := range order {
			shuffled[i] = calls[idx]
		}
		v := Score(cfg, Input{
			Expected:     expected,
			ResponseType: testcase.ResponseActionDone,
			Actual:       shuffled,
		})
		if v.Overall != Correct {
			t.Fatalf("order %v: got %v want %v\n%s", order, v.Overall, Correct, v.Explanation)
		}
	}
}

func TestScore_CallCountMismatch(t *testing.T) {
	t.Parallel()

	expected := []testcase.ExpectedCall{
		expectCall("HassTurnOn", nil),
	}
	cfg := testConfig()

	// Extra call: count fails, names and args still satisfiable.
	v := Score(cfg, Input{
		Expected:     expected,
		ResponseType: testcase.ResponseActionDone,
		Actual: []ToolCall{
			{Name: "HassTurnOn", Arguments: map[string]any{}},
			{Name: "HassTurnOff", Arguments: map[string]any{}},
		},
	})
	if v.Dimensions.CallCount != Incorrect {
		t.Fatalf("extra call: CallCount got %v want %v", v.Dimensions.CallCount, Incorrect)
	}
	if v.Dimensions.ToolName != Correct {
		t.Fatalf("extra call: ToolName got %v want %v", v.Dimensions.ToolName, Correct)
	}
	if v.Dimensions.Args != Correct {
		t.Fatalf("extra call: Args got %v want %v", v.Dimensions.Args, Correct)
	}
	if v.Overall != Incorrect {
		t.Fatalf("extra call: Overall got %v want %v", v.Overall, Incorrect)
	}

	// Missing call entirely.
	v = Score(cfg, Input{
		Expected:     expected,
		ResponseType: testcase.ResponseActionDone,
		Actual:       nil,
	})
	if v.Dimensions.CallCount != Incorrect {
		t.Fatalf("missing call: CallCount got %v want %v", v.Dimensions.CallCount, Incorrect)
	}
	if v.Dimensions.FormatValid != NotApplicable {
		t.Fatalf("missing call: FormatValid got %v want %v", v.Dimensions.FormatValid, NotApplicable)
	}
	if v.Dimensions.ResponseType != Incorrect {
		t.Fatalf("missing call: ResponseType got %v want %v", v.Dimensions.ResponseType, Incorrect)
	}
}

func TestScore_WrongToolName(t *testing.T) {
	t.Parallel()

	v := Score(testConfig(), Input{
		Expected: []testcase.ExpectedCall{
			expectCall("HassTurnOn", nil),
		},
		ResponseType: testcase.ResponseActionDone,
		Actual: []ToolCall{
			{Name: "HassTurnOff", Arguments: map[string]any{}},
		},
	})
	if v.Dimensions.ToolName != Incorrect {
		t.Fatalf("ToolName: got %v want %v", v.Dimensions.ToolName, Incorrect)
	}
	if v.Dimensions.CallCount != Correct {
		t.Fatalf("CallCount: got %v want %v", v.Dimensions.CallCount, Correct)
	}
}

func TestScore_HallucinatedTool(t *testing.T) {
	t.Parallel()

	v := Score(testConfig(), Input{
		Expected: []testcase.ExpectedCall{
			expectCall("HassTurnOn", nil),
		},
		ResponseType: testcase.ResponseActionDone,
		Actual: []ToolCall{
			{Name: "HassTurnOn", Arguments: map[string]any{}},
			{Name: "HassMakeCoffee", Arguments: map[string]any{}},
		},
	})
	if v.Dimensions.NoHallucinatedTools != Incorrect {
		t.Fatalf("NoHallucinatedTools: got %v want %v", v.Dimensions.NoHallucinatedTools, Incorrect)
	}
	if v.Overall != Incorrect {
		t.Fatalf("Overall: got %v want %v", v.Overall, Incorrect)
	}
}

func TestScore_ParseErrorFailsFormat(t *testing.T) {
	t.Parallel()

	v := Score(testConfig(), Input{
		Expected: []testcase.ExpectedCall{
			expectCall("HassTurnOn", map[string]testcase.ArgSpec{"name": testcase.Literal("lamp")}),
		},
		ResponseType: testcase.ResponseActionDone,
		Actual: []ToolCall{
			{Name: "HassTurnOn", ParseError: "invalid character 'x'"},
		},
	})
	if v.Dimensions.FormatValid != Incorrect {
		t.Fatalf("FormatValid: got %v want %v", v.Dimensions.FormatValid, Incorrect)
	}
	if v.Dimensions.Args != Incorrect {
		t.Fatalf("Args: got %v want %v", v.Dimensions.Args, Incorrect)
	}
	if !strings.Contains(v.Explanation, "unparseable") {
		t.Fatalf("Explanation missing unparseable marker:\n%s", v.Explanation)
	}
}

func TestScore_TextResponse(t *testing.T) {
	t.Parallel()

	cfg := testConfig()

	v := Score(cfg, Input{
		ResponseType: testcase.ResponseText,
		FinalText:    "The capital of France is Paris.",
	})
	if v.Overall != Correct {
		t.Fatalf("text with answer: Overall got %v want %v\n%s", v.Overall, Correct, v.Explanation)
	}
	for name, grade := range map[string]Grade{
		"format_valid":          v.Dimensions.FormatValid,
		"tool_name":             v.Dimensions.ToolName,
		"args":                  v.Dimensions.Args,
		"no_hallucinated_tools": v.Dimensions.NoHallucinatedTools,
	} {
		if grade != NotApplicable {
			t.Fatalf("%s: got %v want %v", name, grade, NotApplicable)
		}
	}

	// Silence is not an answer.
	v = Score(cfg, Input{ResponseType: testcase.ResponseText, FinalText: "   "})
	if v.Dimensions.ResponseType != Incorrect {
		t.Fatalf("empty text: ResponseType got %v want %v", v.Dimensions.ResponseType, Incorrect)
	}

	// Calling a tool disqualifies the text category.
	v = Score(cfg, Input{
		ResponseType: testcase.ResponseText,
		FinalText:    "Done.",
		Actual:       []ToolCall{{Name: "HassTurnOn", Arguments: map[string]any{}}},
	})
	if v.Dimensions.ResponseType != Incorrect {
		t.Fatalf("text with call: ResponseType got %v want %v", v.Dimensions.ResponseType, Incorrect)
	}
}

func TestScore_QueryResponse(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	in := Input{
		Expected: []testcase.ExpectedCall{
			expectCall("HassGetWeather", nil),
		},
		ResponseType: testcase.ResponseQuery,
		Actual: []ToolCall{
			{Name: "HassGetWeather", Arguments: map[string]any{}},
		},
	}
	if v := Score(cfg, in); v.Dimensions.ResponseType != Correct {
		t.Fatalf("query tool: ResponseType got %v want %v", v.Dimensions.ResponseType, Correct)
	}

	in.Actual = []ToolCall{{Name: "HassTurnOn", Arguments: map[string]any{}}}
	if v := Score(cfg, in); v.Dimensions.ResponseType != Incorrect {
		t.Fatalf("action tool: ResponseType got %v want %v", v.Dimensions.ResponseType, Incorrect)
	}
}

func TestScore_ErrorAndClarificationExpectNoCalls(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	for _, rt := range []string{testcase.ResponseError, testcase.ResponseClarification} {
		v := Score(cfg, Input{ResponseType: rt})
		if v.Dimensions.ResponseType != Correct {
			t.Fatalf("%s no calls: got %v want %v", rt, v.Dimensions.ResponseType, Correct)
		}
		v = Score(cfg, Input{
			ResponseType: rt,
			Actual:       []ToolCall{{Name: "HassTurnOn", Arguments: map[string]any{}}},
		})
		if v.Dimensions.ResponseType != Incorrect {
			t.Fatalf("%s with call: got %v want %v", rt, v.Dimensions.ResponseType, Incorrect)
		}
	}
}

func TestScore_UnrecognizedResponseType(t *testing.T) {
	t.Parallel()

	v := Score(testConfig(), Input{
		Expected: []testcase.ExpectedCall{
			expectCall("HassTurnOn", nil),
		},
		ResponseType: "musical_number",
		Actual: []ToolCall{
			{Name: "HassTurnOn", Arguments: map[string]any{}},
		},
	})
	if v.Dimensions.ResponseType != NotApplicable {
		t.Fatalf("ResponseType: got %v want %v", v.Dimensions.ResponseType, NotApplicable)
	}
	if !strings.Contains(v.Explanation, `DATA CONTRACT: unrecognized expected_response_type "musical_number"`) {
		t.Fatalf("Explanation missing data contract marker:\n%s", v.Explanation)
	}
	// Remaining dimensions still graded; overall unaffected by the N.
	if v.Overall != Correct {
		t.Fatalf("Overall: got %v want %v\n%s", v.Overall, Correct, v.Explanation)
	}
}

func TestScore_AlternativeFallback(t *testing.T) {
	t.Parallel()

	in := Input{
		Expected: []testcase.ExpectedCall{
			expectCall("HassLightSet", map[string]testcase.ArgSpec{
				"name":       testcase.Literal("bedroom light"),
				"brightness": testcase.Literal(50),
			}),
		},
		Alternatives: []testcase.Alternative{
			{
				Calls: []testcase.ExpectedCall{
					expectCall("HassLightSet", map[string]testcase.ArgSpec{
						"area":       testcase.Literal("bedroom"),
						"brightness": testcase.Literal(50),
					}),
				},
				Quality: "acceptable",
				Reason:  "targeting the area covers the only light in it",
			},
		},
		ResponseType: testcase.ResponseActionDone,
		Actual: []ToolCall{
			{Name: "HassLightSet", Arguments: map[string]any{"area": "bedroom", "brightness": float64(50)}},
		},
	}

	v := Score(testConfig(), in)
	if v.Overall != Correct {
		t.Fatalf("Overall: got %v want %v\n%s", v.Overall, Correct, v.Explanation)
	}
	if v.MatchedAlternative != 1 {
		t.Fatalf("MatchedAlternative: got %d want 1", v.MatchedAlternative)
	}
	if !strings.Contains(v.Explanation, "matched alternative 1") {
		t.Fatalf("Explanation missing alternative marker:\n%s", v.Explanation)
	}
	if !strings.Contains(v.Explanation, "MATCH_QUALITY: acceptable") {
		t.Fatalf("Explanation missing quality line:\n%s", v.Explanation)
	}
	if !strings.Contains(v.Explanation, "MATCH_REASON: targeting the area") {
		t.Fatalf("Explanation missing reason line:\n%s", v.Explanation)
	}
}

func TestScore_MixedArgumentKinds(t *testing.T) {
	t.Parallel()

	in := Input{
		Expected: []testcase.ExpectedCall{
			expectCall("HassTurnOff", map[string]testcase.ArgSpec{
				"area":   testcase.Literal("Living Room"),
				"domain": testcase.Literal([]any{"light", "switch"}),
			}),
		},
		ResponseType: testcase.ResponseActionDone,
		Actual: []ToolCall{
			{Name: "HassTurnOff", Arguments: map[string]any{
				"area":   "living room",
				"domain": []any{"Switch", "light"},
			}},
		},
	}
	v := Score(testConfig(), in)
	if v.Overall != Correct {
		t.Fatalf("Overall: got %v want %v\n%s", v.Overall, Correct, v.Explanation)
	}
}

func TestScore_AlternativeCannotFixHallucination(t *testing.T) {
	t.Parallel()

	v := Score(testConfig(), Input{
		Expected: []testcase.ExpectedCall{
			expectCall("HassTurnOn", nil),
		},
		Alternatives: []testcase.Alternative{
			{Calls: []testcase.ExpectedCall{expectCall("HassMakeCoffee", nil)}},
		},
		ResponseType: testcase.ResponseActionDone,
		Actual: []ToolCall{
			{Name: "HassMakeCoffee", Arguments: map[string]any{}},
		},
	})
	if v.Overall != Incorrect {
		t.Fatalf("Overall: got %v want %v", v.Overall, Incorrect)
	}
	if v.MatchedAlternative != 0 {
		t.Fatalf("MatchedAlternative: got %d want 0", v.MatchedAlternative)
	}
}

func TestScore_PrimaryMatchSkipsAlternatives(t *testing.T) {
	t.Parallel()

	v := Score(testConfig(), Input{
		Expected: []testcase.ExpectedCall{
			expectCall("HassTurnOn", nil),
		},
		Alternatives: []testcase.Alternative{
			{Calls: []testcase.ExpectedCall{expectCall("HassTurnOn", nil)}},
		},
		ResponseType: testcase.ResponseActionDone,
		Actual: []ToolCall{
			{Name: "HassTurnOn", Arguments: map[string]any{}},
		},
	})
	if v.MatchedAlternative != 0 {
		t.Fatalf("MatchedAlternative: got %d want 0", v.MatchedAlternative)
	}
	if !strings.Contains(v.Explanation, "MATCH_QUALITY: optimal") {
		t.Fatalf("Explanation missing optimal quality:\n%s", v.Explanation)
	}
}
