// Package inventory loads smart-home entity inventories and formats them
// as the entity-context block of the system prompt.
package inventory

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Inventory describes one home's areas and entities.
type Inventory struct {
	Areas    []Area   `yaml:"areas"`
	Entities []Entity `yaml:"entities"`
}

// Area is a named location, referenced by entities via its ID.
type Area struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Entity is one exposed device or sensor.
type Entity struct {
	EntityID   string         `yaml:"entity_id"`
	Name       string         `yaml:"name"`
	State      string         `yaml:"state"`
	Area       string         `yaml:"area"`
	Attributes map[string]any `yaml:"attributes"`
}

// LoadFromFile loads an inventory from a YAML file.
func LoadFromFile(path string) (*Inventory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inventory: read %q: %w", path, err)
	}

	var inv Inventory
	if err := yaml.Unmarshal(b, &inv); err != nil {
		return nil, fmt.Errorf("inventory: parse %q: %w", path, err)
	}
	return &inv, nil
}

// FormatContext renders the inventory in HA's entity serialization format:
//
//	entity_id:
//	  names: Friendly Name
//	  state: 'current_state'
//	  areas: Area Name
//	  attributes:
//	    key: value
func (inv *Inventory) FormatContext() string {
	if inv == nil {
		return ""
	}

	areaNames := make(map[string]string, len(inv.Areas))
	for _, a := range inv.Areas {
		areaNames[a.ID] = a.Name
	}

	var lines []string
	for _, e := range inv.Entities {
		lines = append(lines, e.EntityID+":")
		lines = append(lines, "  names: "+e.Name)

		state := e.State
		if state == "" {
			state = "unknown"
		}
		lines = append(lines, fmt.Sprintf("  state: '%s'", state))

		if name, ok := areaNames[e.Area]; ok && e.Area != "" {
			lines = append(lines, "  areas: "+name)
		}

		if len(e.Attributes) > 0 {
			lines = append(lines, "  attributes:")
			keys := make([]string, 0, len(e.Attributes))
			for k := range e.Attributes {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				v := e.Attributes[k]
				if v == nil {
					lines = append(lines, fmt.Sprintf("    %s:", k))
					continue
				}
				lines = append(lines, fmt.Sprintf("    %s: %v", k, v))
			}
		}
	}
	return strings.Join(lines, "\n")
}
