package testcase

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const anyOfSuffix = "_any_of"

var requiredFields = []string{
	"id",
	"utterance",
	"expected_tool_calls",
	"expected_response_type",
	"inventory_tier",
	"inventory_file",
}

// rawCase mirrors one NDJSON line before arg-spec resolution.
type rawCase struct {
	ID            string          `json:"id"`
	Utterance     string          `json:"utterance"`
	Expected      []rawCall       `json:"expected_tool_calls"`
	Alternatives  json.RawMessage `json:"alternative_expected_tool_calls"`
	ResponseType  string          `json:"expected_response_type"`
	InventoryTier string          `json:"inventory_tier"`
	InventoryFile string          `json:"inventory_file"`
	Metadata      map[string]any  `json:"metadata"`
}

type rawCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// rawAlternative is the object form of an alternative call set. The legacy
// form is a bare array of calls.
type rawAlternative struct {
	ToolCalls []rawCall `json:"tool_calls"`
	Quality   string    `json:"quality"`
	Reason    string    `json:"reason"`
}

// LoadFromFile loads voice test cases from an NDJSON file. When tier is
// non-empty, only cases with a matching inventory_tier are returned.
func LoadFromFile(path string, tier string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("testcase: open %q: %w", path, err)
	}
	defer f.Close()

	var cases []Case
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		c, err := parseLine([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("testcase: %s line %d: %w", path, lineNum, err)
		}

		if tier != "" && c.InventoryTier != tier {
			continue
		}
		cases = append(cases, *c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("testcase: read %q: %w", path, err)
	}

	if len(cases) == 0 {
		if tier != "" {
			return nil, fmt.Errorf("testcase: no cases loaded from %q (filter: tier=%s)", path, tier)
		}
		return nil, fmt.Errorf("testcase: no cases loaded from %q", path)
	}
	return cases, nil
}

func parseLine(line []byte) (*Case, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	var missing []string
	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}

	var raw rawCase
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, fmt.Errorf("invalid case: %w", err)
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, fmt.Errorf("empty id")
	}
	if strings.TrimSpace(raw.Utterance) == "" {
		return nil, fmt.Errorf("case %s: empty utterance", raw.ID)
	}

	expected, err := resolveCalls(raw.Expected)
	if err != nil {
		return nil, fmt.Errorf("case %s: expected_tool_calls: %w", raw.ID, err)
	}

	alternatives, err := resolveAlternatives(raw.Alternatives)
	if err != nil {
		return nil, fmt.Errorf("case %s: alternative_expected_tool_calls: %w", raw.ID, err)
	}

	return &Case{
		ID:            raw.ID,
		Utterance:     raw.Utterance,
		Expected:      expected,
		Alternatives:  alternatives,
		ResponseType:  strings.TrimSpace(raw.ResponseType),
		InventoryTier: raw.InventoryTier,
		InventoryFile: raw.InventoryFile,
		Metadata:      raw.Metadata,
	}, nil
}

func resolveCalls(raw []rawCall) ([]ExpectedCall, error) {
	out := make([]ExpectedCall, 0, len(raw))
	for i, rc := range raw {
		name := strings.TrimSpace(rc.Name)
		if name == "" {
			return nil, fmt.Errorf("calls[%d]: missing name", i)
		}
		args, err := resolveArgSpecs(rc.Arguments)
		if err != nil {
			return nil, fmt.Errorf("calls[%d] (%s): %w", i, name, err)
		}
		out = append(out, ExpectedCall{Name: name, Args: args})
	}
	return out, nil
}

// resolveArgSpecs turns a raw argument mapping into resolved constraints.
// A key ending in "_any_of" constrains the base key with an any-of list;
// any other key is a literal constraint.
func resolveArgSpecs(raw map[string]any) (map[string]ArgSpec, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]ArgSpec, len(raw))
	for key, value := range raw {
		base := key
		spec := Literal(value)

		if strings.HasSuffix(key, anyOfSuffix) {
			base = strings.TrimSuffix(key, anyOfSuffix)
			if base == "" {
				return nil, fmt.Errorf("arg %q: empty base key", key)
			}
			candidates, ok := value.([]any)
			if !ok {
				return nil, fmt.Errorf("arg %q: any-of value must be an array, got %T", key, value)
			}
			if len(candidates) == 0 {
				return nil, fmt.Errorf("arg %q: empty any-of list", key)
			}
			spec = AnyOf(candidates...)
		}

		if _, dup := out[base]; dup {
			return nil, fmt.Errorf("arg %q: conflicting constraints for %q", key, base)
		}
		out[base] = spec
	}
	return out, nil
}

func resolveAlternatives(raw json.RawMessage) ([]Alternative, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("must be an array: %w", err)
	}

	out := make([]Alternative, 0, len(items))
	for i, item := range items {
		trimmed := strings.TrimSpace(string(item))
		var alt Alternative
		switch {
		case strings.HasPrefix(trimmed, "["):
			// Legacy flat-array format: just the calls.
			var calls []rawCall
			if err := json.Unmarshal(item, &calls); err != nil {
				return nil, fmt.Errorf("alternatives[%d]: %w", i, err)
			}
			resolved, err := resolveCalls(calls)
			if err != nil {
				return nil, fmt.Errorf("alternatives[%d]: %w", i, err)
			}
			alt = Alternative{Calls: resolved, Quality: "acceptable"}
		case strings.HasPrefix(trimmed, "{"):
			var ra rawAlternative
			if err := json.Unmarshal(item, &ra); err != nil {
				return nil, fmt.Errorf("alternatives[%d]: %w", i, err)
			}
			resolved, err := resolveCalls(ra.ToolCalls)
			if err != nil {
				return nil, fmt.Errorf("alternatives[%d]: %w", i, err)
			}
			quality := strings.TrimSpace(ra.Quality)
			if quality == "" {
				quality = "acceptable"
			}
			alt = Alternative{Calls: resolved, Quality: quality, Reason: strings.TrimSpace(ra.Reason)}
		default:
			return nil, fmt.Errorf("alternatives[%d]: expected object or array", i)
		}
		out = append(out, alt)
	}
	return out, nil
}
