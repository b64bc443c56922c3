// Package cost converts token counts into money using the model
// registry's per-million-token rates.
package cost

import (
	"strings"

	"github.com/shopwise/advisor/internal/registry"
)

const tokensPerMillion = 1_000_000.0

// Approximate characters per token for estimation when a provider does
// not report usage.
const charsPerToken = 4

// Structural characters that inflate token counts in JSON-heavy or
// heavily punctuated text.
const structuralChars = `{}[]":,`

// PricingSource resolves per-million rates for a model identifier,
// including the documented default for unknown models.
type PricingSource interface {
	PricingFor(modelID string) registry.Pricing
}

// Calculator computes monetary cost from token usage.
type Calculator struct {
	pricing PricingSource
}

// NewCalculator creates a cost calculator backed by a pricing source.
func NewCalculator(pricing PricingSource) *Calculator {
	return &Calculator{pricing: pricing}
}

// Cost returns the USD cost of one exchange. Unknown models price at
// the registry's default rates rather than failing, so cost accounting
// never blocks on configuration drift.
func (c *Calculator) Cost(modelID string, inputTokens, outputTokens int) float64 {
	rates := c.pricing.PricingFor(modelID)

	inputCost := float64(inputTokens) / tokensPerMillion * rates.InputRatePerMillion
	outputCost := float64(outputTokens) / tokensPerMillion * rates.OutputRatePerMillion

	return inputCost + outputCost
}

// EstimateTokens implements the estimation half of the domain
// CostCalculator contract.
func (c *Calculator) EstimateTokens(text string) int {
	return EstimateTokens(text)
}

// EstimateTokens approximates the token count of text at one token per
// four characters, with additive overhead for structural punctuation.
// Estimation is strictly a fallback: provider-reported counts always
// take precedence.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	base := (len(text) + charsPerToken - 1) / charsPerToken

	structural := 0
	for _, r := range text {
		if strings.ContainsRune(structuralChars, r) {
			structural++
		}
	}

	return base + structural/2
}
