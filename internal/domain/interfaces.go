package domain

import "context"

// Completer dispatches one prompt request to the configured provider
// and returns its completion. Implementations own request building and
// the network exchange; they perform no retries.
type Completer interface {
	Complete(ctx context.Context, req PromptRequest) (*Completion, error)
}

// CostCalculator converts token counts into money and estimates token
// counts when a provider does not report usage.
type CostCalculator interface {
	// Cost returns the USD cost for a model and token counts.
	Cost(modelID string, inputTokens, outputTokens int) float64

	// EstimateTokens approximates the token count of text.
	EstimateTokens(text string) int
}

// Recorder accepts completed-call usage records. Recording is a side
// effect of a capability call, never part of its return contract.
type Recorder interface {
	Record(ctx context.Context, rec UsageRecord)
}
