// Package registry holds the static model table: for each selectable
// model identifier, its provider, endpoint, vision capability and
// per-token pricing. The table is loaded once and is read-only, so
// concurrent reads need no locking.
package registry

import "sort"

// Provider names used by the registry.
const (
	ProviderOpenAI     = "openai"
	ProviderPerplexity = "perplexity"
)

// Endpoints per provider. Both speak the OpenAI chat-completions shape.
const (
	openAIEndpoint     = "https://api.openai.com/v1"
	perplexityEndpoint = "https://api.perplexity.ai"
)

// ModelProfile describes one selectable model. Rates are USD per one
// million tokens.
type ModelProfile struct {
	ID                   string
	Provider             string
	Endpoint             string
	SupportsVision       bool
	InputRatePerMillion  float64
	OutputRatePerMillion float64
}

// Pricing is the cost-relevant slice of a profile.
type Pricing struct {
	InputRatePerMillion  float64
	OutputRatePerMillion float64
}

// defaultTextModel is the deterministic fallback for endpoint and
// capability lookups on unknown identifiers: the registry's one
// non-vision text provider.
const defaultTextModel = "sonar"

var profiles = map[string]ModelProfile{
	"gpt-4o": {
		ID:                   "gpt-4o",
		Provider:             ProviderOpenAI,
		Endpoint:             openAIEndpoint,
		SupportsVision:       true,
		InputRatePerMillion:  2.50,
		OutputRatePerMillion: 10.00,
	},
	"gpt-4o-mini": {
		ID:                   "gpt-4o-mini",
		Provider:             ProviderOpenAI,
		Endpoint:             openAIEndpoint,
		SupportsVision:       true,
		InputRatePerMillion:  0.15,
		OutputRatePerMillion: 0.60,
	},
	"sonar": {
		ID:                   "sonar",
		Provider:             ProviderPerplexity,
		Endpoint:             perplexityEndpoint,
		SupportsVision:       false,
		InputRatePerMillion:  1.00,
		OutputRatePerMillion: 1.00,
	},
	"sonar-pro": {
		ID:                   "sonar-pro",
		Provider:             ProviderPerplexity,
		Endpoint:             perplexityEndpoint,
		SupportsVision:       false,
		InputRatePerMillion:  3.00,
		OutputRatePerMillion: 15.00,
	},
}

// Registry resolves model identifiers to profiles.
type Registry struct {
	profiles       map[string]ModelProfile
	defaultPricing Pricing
}

// New creates a registry over the static model table.
func New() *Registry {
	return &Registry{
		profiles:       profiles,
		defaultPricing: midpointPricing(profiles),
	}
}

// midpointPricing derives the documented default for unknown models:
// the midpoint between the cheapest and most expensive known rates.
func midpointPricing(table map[string]ModelProfile) Pricing {
	inputs := make([]float64, 0, len(table))
	outputs := make([]float64, 0, len(table))
	for _, p := range table {
		inputs = append(inputs, p.InputRatePerMillion)
		outputs = append(outputs, p.OutputRatePerMillion)
	}
	sort.Float64s(inputs)
	sort.Float64s(outputs)

	return Pricing{
		InputRatePerMillion:  (inputs[0] + inputs[len(inputs)-1]) / 2,
		OutputRatePerMillion: (outputs[0] + outputs[len(outputs)-1]) / 2,
	}
}

// Resolve returns the profile for a model identifier. Unknown
// identifiers resolve to the default text provider's endpoint and
// capabilities with default pricing, so lookups never fail on
// configuration drift.
func (r *Registry) Resolve(modelID string) ModelProfile {
	if profile, ok := r.profiles[modelID]; ok {
		return profile
	}

	fallback := r.profiles[defaultTextModel]
	return ModelProfile{
		ID:                   modelID,
		Provider:             fallback.Provider,
		Endpoint:             fallback.Endpoint,
		SupportsVision:       false,
		InputRatePerMillion:  r.defaultPricing.InputRatePerMillion,
		OutputRatePerMillion: r.defaultPricing.OutputRatePerMillion,
	}
}

// PricingFor returns per-million rates for a model, falling back to the
// default midpoint rates for unknown identifiers.
func (r *Registry) PricingFor(modelID string) Pricing {
	if profile, ok := r.profiles[modelID]; ok {
		return Pricing{
			InputRatePerMillion:  profile.InputRatePerMillion,
			OutputRatePerMillion: profile.OutputRatePerMillion,
		}
	}
	return r.defaultPricing
}

// Models returns the identifiers offered to callers for selection.
func (r *Registry) Models() []string {
	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
