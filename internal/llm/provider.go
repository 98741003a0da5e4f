package llm

import "context"

// Provider is a model backend. Tools passed in the request are registered
// with the model but never executed; the benchmark captures the calls the
// model emits in a single shot.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *Request) (*Response, error)
	CompleteWithTools(ctx context.Context, req *Request) (*EvalResult, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolUse is a tool invocation emitted by the model. ParseError is set
// when the raw argument payload could not be decoded; the call is kept so
// the scorer can fail its format check instead of losing the evidence.
type ToolUse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Input      map[string]any `json:"input"`
	ParseError string         `json:"parse_error,omitempty"`
}

type Request struct {
	Model       string
	Messages    []Message
	System      string
	MaxTokens   int
	Temperature float64
	Tools       []ToolDefinition
}

type ContentBlock struct {
	Type       string         `json:"type"` // "text" or "tool_use"
	Text       string         `json:"text,omitempty"`
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"name,omitempty"`
	Input      map[string]any `json:"input,omitempty"`
	ParseError string         `json:"parse_error,omitempty"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type Response struct {
	Content    []ContentBlock
	Usage      Usage
	StopReason string
}

// EvalResult is a response split into the pieces the scorer consumes.
type EvalResult struct {
	Response     *Response
	TextContent  string
	ToolCalls    []ToolUse
	LatencyMs    int64
	InputTokens  int
	OutputTokens int
	Error        error
}
