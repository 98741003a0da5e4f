package llm

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/stellarlinkco/havoice-eval/internal/config"
)

// providersFromConfig instantiates one provider per configured entry,
// keyed by canonical provider name. The "anthropic" config key is an
// alias for the claude provider.
func providersFromConfig(cfg *config.Config) (map[string]Provider, error) {
	if cfg == nil {
		return nil, errors.New("llm: nil config")
	}

	out := make(map[string]Provider, len(cfg.LLM.Providers))
	for name, pcfg := range cfg.LLM.Providers {
		switch canonicalName(name) {
		case "":
		case "claude":
			out["claude"] = NewClaudeProvider(pcfg.APIKey, pcfg.BaseURL, pcfg.Model)
		case "openai":
			out["openai"] = NewOpenAIProvider(pcfg.APIKey, pcfg.BaseURL, pcfg.Model)
		default:
			return nil, fmt.Errorf("llm: unknown provider %q", name)
		}
	}
	return out, nil
}

// ProviderFromConfig resolves the provider to benchmark: the named one,
// else the configured default, else claude. When exactly one provider is
// configured it is used regardless of the requested name.
func ProviderFromConfig(cfg *config.Config, name string) (Provider, error) {
	providers, err := providersFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	key := canonicalName(name)
	if key == "" {
		key = canonicalName(cfg.LLM.DefaultProvider)
	}
	if key == "" {
		key = "claude"
	}
	if p, ok := providers[key]; ok {
		return p, nil
	}

	if len(providers) == 1 {
		for _, p := range providers {
			return p, nil
		}
	}

	available := make([]string, 0, len(providers))
	for k := range providers {
		available = append(available, k)
	}
	sort.Strings(available)
	return nil, fmt.Errorf("llm: provider %q not configured (available: %s)", key, strings.Join(available, ", "))
}

func canonicalName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "anthropic" {
		return "claude"
	}
	return name
}
