package hatools

import (
	"strings"
	"testing"
)

func TestForTier_MVP(t *testing.T) {
	t.Parallel()

	tools, err := ForTier(TierMVP)
	if err != nil {
		t.Fatalf("ForTier: %v", err)
	}
	if len(tools) != 11 {
		t.Fatalf("mvp tools: got %d want 11", len(tools))
	}

	names, err := Names(TierMVP)
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	for _, want := range []string{"HassTurnOn", "HassTurnOff", "HassLightSet", "HassGetState", "HassNevermind"} {
		if _, ok := names[want]; !ok {
			t.Fatalf("mvp missing %s", want)
		}
	}
	if _, ok := names["HassMediaPause"]; ok {
		t.Fatalf("mvp should not contain media tools")
	}
}

func TestForTier_Full(t *testing.T) {
	t.Parallel()

	tools, err := ForTier(TierFull)
	if err != nil {
		t.Fatalf("ForTier: %v", err)
	}
	if len(tools) != 31 {
		t.Fatalf("full tools: got %d want 31", len(tools))
	}

	names, err := Names(TierFull)
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	for _, want := range []string{"HassMediaPause", "HassVacuumStart", "HassShoppingListAddItem", "HassRespond", "HassBroadcast"} {
		if _, ok := names[want]; !ok {
			t.Fatalf("full missing %s", want)
		}
	}

	seen := make(map[string]struct{}, len(tools))
	for _, tool := range tools {
		if _, dup := seen[tool.Name]; dup {
			t.Fatalf("duplicate tool %s", tool.Name)
		}
		seen[tool.Name] = struct{}{}
	}
}

func TestForTier_Unknown(t *testing.T) {
	t.Parallel()

	if _, err := ForTier("deluxe"); err == nil || !strings.Contains(err.Error(), "deluxe") {
		t.Fatalf("want unknown-tier error, got %v", err)
	}
}

func TestSchemas(t *testing.T) {
	t.Parallel()

	tools, err := ForTier(TierFull)
	if err != nil {
		t.Fatalf("ForTier: %v", err)
	}
	for _, tool := range tools {
		if tool.Description == "" {
			t.Fatalf("%s: empty description", tool.Name)
		}
		if tool.InputSchema["type"] != "object" {
			t.Fatalf("%s: schema type %v", tool.Name, tool.InputSchema["type"])
		}
		if _, ok := tool.InputSchema["properties"].(map[string]any); !ok {
			t.Fatalf("%s: missing properties object", tool.Name)
		}
	}
}

func TestQueryToolNames(t *testing.T) {
	t.Parallel()

	query := QueryToolNames()
	mvp, err := Names(TierMVP)
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	// Every query tool must exist in the smallest tier.
	for name := range query {
		if _, ok := mvp[name]; !ok {
			t.Fatalf("query tool %s not in mvp tier", name)
		}
	}
	if _, ok := query["HassTurnOn"]; ok {
		t.Fatalf("HassTurnOn is not a query tool")
	}
}
