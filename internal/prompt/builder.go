// Package prompt assembles the Home Assistant conversation-agent system
// prompt for benchmarking. Ordering is cache-friendly: static instructions
// first, entity inventory next, the variable timestamp last.
package prompt

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/stellarlinkco/havoice-eval/internal/inventory"
)

// Fixed for benchmarking determinism and KV-cache reuse.
const (
	FixedTime = "12:00:00"
	FixedDate = "2026-03-01"
)

// DefaultInstructions matches HA's default conversation-agent instructions.
const DefaultInstructions = "You are a voice assistant for Home Assistant.\n" +
	"Answer questions about the world truthfully.\n" +
	"Answer in plain text. Keep it simple and to the point.\n" +
	"When controlling Home Assistant always call the intent tools.\n" +
	"Use HassTurnOn to lock and HassTurnOff to unlock a lock.\n" +
	"When controlling a device, prefer passing just name and domain.\n" +
	"When controlling an area, prefer passing just area name and domain.\n" +
	"When a user asks to turn on all devices of a specific type, " +
	"ask user to specify an area, unless there is only one device of that type."

// Builder assembles system prompts, caching formatted inventories by
// resolved path. Safe for concurrent use.
type Builder struct {
	baseDir string

	mu    sync.Mutex
	cache map[string]string
}

// NewBuilder creates a Builder resolving inventory paths against baseDir.
func NewBuilder(baseDir string) *Builder {
	if strings.TrimSpace(baseDir) == "" {
		baseDir = "."
	}
	return &Builder{
		baseDir: baseDir,
		cache:   make(map[string]string),
	}
}

// SystemPrompt assembles the full system prompt for one inventory file.
func (b *Builder) SystemPrompt(inventoryFile string) (string, error) {
	entityContext, err := b.entityContext(inventoryFile)
	if err != nil {
		return "", err
	}

	parts := []string{
		DefaultInstructions,
		"",
		"An overview of the areas and the devices in this smart home:",
		entityContext,
		"",
		"The current time is " + FixedTime + ". Today's date is " + FixedDate + ".",
	}
	return strings.Join(parts, "\n"), nil
}

func (b *Builder) entityContext(inventoryFile string) (string, error) {
	path := inventoryFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.baseDir, path)
	}

	b.mu.Lock()
	cached, ok := b.cache[path]
	b.mu.Unlock()
	if ok {
		return cached, nil
	}

	inv, err := inventory.LoadFromFile(path)
	if err != nil {
		return "", err
	}
	formatted := inv.FormatContext()

	b.mu.Lock()
	b.cache[path] = formatted
	b.mu.Unlock()
	return formatted, nil
}
