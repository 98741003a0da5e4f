package llm

import "strings"

// Text concatenates the text blocks of a response.
func Text(resp *Response) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// splitContent separates a response's content blocks into final text and
// emitted tool calls.
func splitContent(blocks []ContentBlock) (string, []ToolUse) {
	var sb strings.Builder
	var calls []ToolUse
	for _, b := range blocks {
		switch b.Type {
		case "text":
			sb.WriteString(b.Text)
		case "tool_use":
			calls = append(calls, ToolUse{
				ID:         b.ID,
				Name:       b.Name,
				Input:      b.Input,
				ParseError: b.ParseError,
			})
		}
	}
	return sb.String(), calls
}
