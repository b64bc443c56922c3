// Package advisor exposes the AI capabilities consumed by the cart UI:
// tax-rate inference, price-tag reading, price search, price guessing
// and additive analysis. Each call dispatches one or more provider
// exchanges, extracts a typed result and posts a usage record to the
// billing ledger as a side effect.
package advisor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/shopwise/advisor/internal/config"
	"github.com/shopwise/advisor/internal/domain"
	"github.com/shopwise/advisor/internal/extract"
	"github.com/shopwise/advisor/internal/observability"
)

// Max-output-token hints per capability.
const (
	taxMaxTokens      = 500
	visionMaxTokens   = 1500
	searchMaxTokens   = 800
	guessMaxTokens    = 600
	additiveMaxTokens = 1500
)

// Advisor orchestrates capability calls.
type Advisor struct {
	completer domain.Completer
	costs     domain.CostCalculator
	ledger    domain.Recorder
	models    *config.ModelsConfig
	tax       *config.TaxConfig
}

// New creates the advisor service (DI constructor).
func New(
	completer domain.Completer,
	costs domain.CostCalculator,
	ledger domain.Recorder,
	models *config.ModelsConfig,
	tax *config.TaxConfig,
) *Advisor {
	return &Advisor{
		completer: completer,
		costs:     costs,
		ledger:    ledger,
		models:    models,
		tax:       tax,
	}
}

// GuessRequest carries the optional context for a price guess.
type GuessRequest struct {
	Item     string
	Location string
	Store    string
	Brand    string
	Details  string
}

// InferTaxRate determines the sales tax rate for an item, optionally
// scoped to a free-text location. It is the one capability wrapped in
// a bounded-retry, fixed-delay policy: extraction failures and
// structurally-valid-but-null rates retry up to the configured budget;
// transport and credential failures abort immediately. Exhausting the
// budget surfaces *domain.TaxAnalysisError, which the UI treats as a
// legitimate "unknown tax" outcome.
func (a *Advisor) InferTaxRate(ctx context.Context, item, location string) (domain.TaxRate, error) {
	if a.tax.OverrideEnabled {
		rate := a.tax.OverrideRate
		return domain.TaxRate{Rate: &rate, Explanation: "manual tax rate override"}, nil
	}

	ctx = observability.WithCapability(ctx, string(domain.CategoryTaxLookup))
	logger := observability.FromContext(ctx)

	attempts := a.tax.MaxRetries + 1
	delay := time.Duration(a.tax.RetryDelayMS) * time.Millisecond

	var lastExplanation string
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return domain.TaxRate{}, ctx.Err()
			}
		}

		text, err := a.complete(ctx, domain.CategoryTaxLookup, a.models.TaxModel,
			taxPrompt(item, location), nil, item, taxMaxTokens)
		if err != nil {
			return domain.TaxRate{}, err
		}

		rate, explanation, extractErr := extract.TaxRate(text)
		if extractErr == nil && rate != nil {
			return domain.TaxRate{Rate: rate, Explanation: explanation}, nil
		}
		if explanation != "" {
			lastExplanation = explanation
		}

		logger.Info("tax rate attempt yielded no rate, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", attempts))
	}

	return domain.TaxRate{}, &domain.TaxAnalysisError{
		Item:        item,
		Attempts:    attempts,
		Explanation: lastExplanation,
	}
}

// AnalyzePriceTag reads a photographed price tag into a structured
// record. When the tag carries no tax information, it infers the rate
// as a secondary step; a soft tax failure becomes an analysis issue
// instead of failing the capability.
func (a *Advisor) AnalyzePriceTag(ctx context.Context, image []byte, location string) (domain.PriceTagRecord, error) {
	ctx = observability.WithCapability(ctx, string(domain.CategoryImageAnalysis))

	text, err := a.complete(ctx, domain.CategoryImageAnalysis, a.models.VisionModel,
		priceTagPrompt(location), image, "", visionMaxTokens)
	if err != nil {
		return domain.PriceTagRecord{}, err
	}

	record, err := extract.Decode[domain.PriceTagRecord](text)
	if err != nil {
		return domain.PriceTagRecord{}, err
	}

	if record.TaxRate == nil && record.TaxDescription == "" {
		tax, taxErr := a.InferTaxRate(ctx, record.Name, location)
		switch {
		case taxErr == nil:
			record.TaxRate = tax.Rate
			record.TaxDescription = tax.Explanation
		default:
			var taxAnalysisErr *domain.TaxAnalysisError
			if !errors.As(taxErr, &taxAnalysisErr) {
				return domain.PriceTagRecord{}, taxErr
			}
			record.Issues = append(record.Issues, "tax rate unknown: "+taxAnalysisErr.Error())
		}
	}

	return record, nil
}

// SearchPrice looks up the current price of an item on a named site
// through the configured search-capable model.
func (a *Advisor) SearchPrice(ctx context.Context, item, spec, site, location string) (domain.PriceSearchResult, error) {
	ctx = observability.WithCapability(ctx, string(domain.CategoryPriceSearch))

	text, err := a.complete(ctx, domain.CategoryPriceSearch, a.models.SearchModel,
		priceSearchPrompt(item, spec, site, location), nil, item, searchMaxTokens)
	if err != nil {
		return domain.PriceSearchResult{}, err
	}

	return extract.Decode[domain.PriceSearchResult](text)
}

// GuessPrice estimates a typical shelf price. Failures surface as
// *domain.PriceGuessError wrapping the underlying cause.
func (a *Advisor) GuessPrice(ctx context.Context, req GuessRequest) (domain.PriceGuess, error) {
	ctx = observability.WithCapability(ctx, string(domain.CategoryPriceGuess))

	text, err := a.complete(ctx, domain.CategoryPriceGuess, a.models.GuessModel,
		priceGuessPrompt(req), nil, req.Item, guessMaxTokens)
	if err != nil {
		return domain.PriceGuess{}, &domain.PriceGuessError{Item: req.Item, Err: err}
	}

	guess, err := extract.Decode[domain.PriceGuess](text)
	if err != nil {
		return domain.PriceGuess{}, &domain.PriceGuessError{Item: req.Item, Err: err}
	}

	return guess, nil
}

// additivePayload is the wire shape the additives prompt asks for.
// Error is how the model signals it cannot determine the content.
type additivePayload struct {
	RiskyCount int                     `json:"riskyCount"`
	SafeCount  int                     `json:"safeCount"`
	Additives  []domain.AdditiveRecord `json:"additives"`
	Error      string                  `json:"error"`
}

// AnalyzeAdditives reports the risky/safe additive breakdown of a
// product. A model that explicitly cannot determine the content
// surfaces *domain.AdditiveAnalysisError carrying its explanation.
func (a *Advisor) AnalyzeAdditives(ctx context.Context, product string) (domain.AdditiveReport, error) {
	ctx = observability.WithCapability(ctx, string(domain.CategoryAdditiveAnalysis))

	text, err := a.complete(ctx, domain.CategoryAdditiveAnalysis, a.models.AdditiveModel,
		additivesPrompt(product), nil, product, additiveMaxTokens)
	if err != nil {
		return domain.AdditiveReport{}, err
	}

	payload, err := extract.Decode[additivePayload](text)
	if err != nil {
		return domain.AdditiveReport{}, err
	}

	if payload.Error != "" {
		return domain.AdditiveReport{}, &domain.AdditiveAnalysisError{
			Product:     product,
			Explanation: payload.Error,
		}
	}

	return domain.AdditiveReport{
		RiskyCount: payload.RiskyCount,
		SafeCount:  payload.SafeCount,
		Additives:  payload.Additives,
	}, nil
}

// complete performs one billed provider exchange: dispatch, token
// accounting (provider-reported counts win over estimates) and the
// ledger side effect. Every completed exchange is billed, including
// tax-rate attempts that will be retried.
func (a *Advisor) complete(
	ctx context.Context,
	category domain.Category,
	modelID string,
	prompt string,
	image []byte,
	itemName string,
	maxTokens int,
) (string, error) {
	ctx = observability.WithModel(ctx, modelID)

	completion, err := a.completer.Complete(ctx, domain.PromptRequest{
		Model:     modelID,
		Prompt:    prompt,
		Image:     image,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}

	inputTokens, outputTokens := 0, 0
	if completion.Usage != nil {
		inputTokens = completion.Usage.InputTokens
		outputTokens = completion.Usage.OutputTokens
	} else {
		// Estimation fallback; the image payload is not counted.
		inputTokens = a.costs.EstimateTokens(prompt)
		outputTokens = a.costs.EstimateTokens(completion.Text)
	}

	a.ledger.Record(ctx, domain.UsageRecord{
		Timestamp:    time.Now().UTC(),
		Category:     category,
		Prompt:       prompt,
		Response:     completion.Text,
		Cost:         a.costs.Cost(modelID, inputTokens, outputTokens),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		ItemName:     itemName,
		Provider:     completion.Provider,
		Model:        modelID,
	})

	return completion.Text, nil
}
