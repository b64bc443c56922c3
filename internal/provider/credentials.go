package provider

import (
	"github.com/shopwise/advisor/internal/config"
	"github.com/shopwise/advisor/internal/registry"
)

// ConfigCredentials resolves provider API keys from configuration.
type ConfigCredentials struct {
	cfg *config.ProvidersConfig
}

// NewConfigCredentials creates a credential source over the providers
// configuration.
func NewConfigCredentials(cfg *config.ProvidersConfig) *ConfigCredentials {
	return &ConfigCredentials{cfg: cfg}
}

// KeyFor returns the configured key for a provider, or empty when none
// is configured.
func (c *ConfigCredentials) KeyFor(name string) string {
	switch name {
	case registry.ProviderOpenAI:
		return c.cfg.OpenAIKey
	case registry.ProviderPerplexity:
		return c.cfg.PerplexityKey
	default:
		return ""
	}
}
