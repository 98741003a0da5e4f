package testcase

// Expected response categories for a test case.
const (
	ResponseActionDone    = "action_done"
	ResponseQuery         = "query_response"
	ResponseText          = "text_response"
	ResponseError         = "error"
	ResponseClarification = "clarification"
)

// ArgSpecKind discriminates the variants of an argument constraint.
type ArgSpecKind int

const (
	// SpecLiteral matches a single expected value.
	SpecLiteral ArgSpecKind = iota
	// SpecAnyOf matches any one of several acceptable values.
	SpecAnyOf
)

// ArgSpec is a resolved expected-value constraint for one argument.
// The "_any_of" key suffix from the NDJSON format is resolved into
// SpecAnyOf at load time; nothing downstream inspects key names.
type ArgSpec struct {
	Kind  ArgSpecKind
	Value any   // SpecLiteral
	AnyOf []any // SpecAnyOf
}

// Literal builds a single-value constraint.
func Literal(v any) ArgSpec {
	return ArgSpec{Kind: SpecLiteral, Value: v}
}

// AnyOf builds a constraint satisfied by any listed candidate.
func AnyOf(candidates ...any) ArgSpec {
	return ArgSpec{Kind: SpecAnyOf, AnyOf: candidates}
}

// ExpectedCall is one target tool invocation. An empty Args map means the
// call's arguments are unconstrained.
type ExpectedCall struct {
	Name string
	Args map[string]ArgSpec
}

// Alternative is a fallback expected call set, tried in order when the
// primary set does not match. Quality and Reason annotate why the
// alternative is acceptable; they never affect the verdict.
type Alternative struct {
	Calls   []ExpectedCall
	Quality string
	Reason  string
}

// Case is one voice-command test case.
type Case struct {
	ID            string
	Utterance     string
	Expected      []ExpectedCall
	Alternatives  []Alternative
	ResponseType  string
	InventoryTier string
	InventoryFile string
	Metadata      map[string]any
}
