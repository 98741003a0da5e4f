package scorer

import "github.com/stellarlinkco/havoice-eval/internal/testcase"

// Grade is a single-dimension outcome.
type Grade string

const (
	Correct       Grade = "C"
	Incorrect     Grade = "I"
	NotApplicable Grade = "N"
)

// Dimension names, as exposed in verdict maps and stored results.
const (
	DimResponseType        = "response_type"
	DimFormatValid         = "format_valid"
	DimCallCount           = "call_count"
	DimToolName            = "tool_name"
	DimArgs                = "args"
	DimNoHallucinatedTools = "no_hallucinated_tools"
)

// DimensionOrder is the canonical ordering used in explanations and reports.
var DimensionOrder = []string{
	DimResponseType,
	DimFormatValid,
	DimCallCount,
	DimToolName,
	DimArgs,
	DimNoHallucinatedTools,
}

// Dimensions holds the per-dimension grades for one sample.
type Dimensions struct {
	ResponseType        Grade
	FormatValid         Grade
	CallCount           Grade
	ToolName            Grade
	Args                Grade
	NoHallucinatedTools Grade
}

// Overall derives the scalar outcome: Correct iff every applicable
// dimension is Correct. It is never set independently.
func (d Dimensions) Overall() Grade {
	for _, g := range d.grades() {
		if g == Incorrect {
			return Incorrect
		}
	}
	return Correct
}

// Map returns the per-dimension grades keyed by dimension name.
func (d Dimensions) Map() map[string]Grade {
	return map[string]Grade{
		DimResponseType:        d.ResponseType,
		DimFormatValid:         d.FormatValid,
		DimCallCount:           d.CallCount,
		DimToolName:            d.ToolName,
		DimArgs:                d.Args,
		DimNoHallucinatedTools: d.NoHallucinatedTools,
	}
}

func (d Dimensions) grades() [6]Grade {
	return [6]Grade{d.ResponseType, d.FormatValid, d.CallCount, d.ToolName, d.Args, d.NoHallucinatedTools}
}

// Verdict is the structured grading result for one sample.
type Verdict struct {
	Overall     Grade
	Dimensions  Dimensions
	Explanation string
	// MatchedAlternative identifies which alternative expected call set
	// matched, 1-indexed. Zero means the primary set was used.
	MatchedAlternative int
}

// ToolCall is an observed tool invocation. ParseError is set when the raw
// call payload could not be decoded into an argument mapping; such calls
// are still scored (format_valid fails), never excluded.
type ToolCall struct {
	Name       string
	Arguments  map[string]any
	ParseError string
}

// Input carries everything the matcher needs for one sample.
type Input struct {
	Expected     []testcase.ExpectedCall
	Alternatives []testcase.Alternative
	ResponseType string
	Actual       []ToolCall
	// FinalText is the plain-text content of the model's final message,
	// consulted only for the text_response category.
	FinalText string
}

// Config parameterizes the matcher. The tool registry is a configuration
// value, not process-wide state, so the tool inventory can grow without
// touching matcher internals.
type Config struct {
	// ValidTools is the registry of tool names the model may call.
	ValidTools map[string]struct{}
	// QueryTools is the set of query-intent tool names accepted for the
	// query_response category.
	QueryTools map[string]struct{}
	// MaxMatchCalls bounds the exhaustive matching search. Call sets
	// larger than this on either side fall back to greedy first-fit.
	// Zero means DefaultMaxMatchCalls.
	MaxMatchCalls int
}

// DefaultMaxMatchCalls bounds the assignment search. Voice-command call
// sets stay small by construction; anything larger is pathological and
// only needs a terminating answer, not an exhaustive one.
const DefaultMaxMatchCalls = 6

func (c Config) maxMatchCalls() int {
	if c.MaxMatchCalls > 0 {
		return c.MaxMatchCalls
	}
	return DefaultMaxMatchCalls
}
