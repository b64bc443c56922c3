package domain

import "time"

// Category labels one billed interaction kind in the usage ledger.
type Category string

const (
	CategoryTaxLookup        Category = "Tax Lookup"
	CategoryImageAnalysis    Category = "Image Analysis"
	CategoryPriceGuess       Category = "Price Guess"
	CategoryPriceSearch      Category = "Price Search"
	CategoryAdditiveAnalysis Category = "Ingredient/Additive Analysis"
)

// Categories returns the fixed set of ledger categories.
func Categories() []Category {
	return []Category{
		CategoryTaxLookup,
		CategoryImageAnalysis,
		CategoryPriceGuess,
		CategoryPriceSearch,
		CategoryAdditiveAnalysis,
	}
}

// PromptRequest is one outbound model invocation. It is constructed per
// call and never shared across calls.
type PromptRequest struct {
	Model     string
	Prompt    string
	Image     []byte // optional; requires a vision-capable model
	MaxTokens int
}

// TokenUsage holds provider-reported token counts for one exchange.
type TokenUsage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Completion is the transport-level result of one exchange: the model's
// text plus usage metadata when the provider reports it. Provider names
// the vendor that served the call, for the usage ledger.
type Completion struct {
	Text     string
	Usage    *TokenUsage
	Provider string
}

// TaxRate is the outcome of tax-rate inference. A nil Rate is a
// legitimate "unknown tax" terminal state for the UI.
type TaxRate struct {
	Rate        *float64 `json:"taxRate"`
	Explanation string   `json:"explanation,omitempty"`
}

// PriceTagRecord is the structured reading of a photographed price tag.
type PriceTagRecord struct {
	Name           string   `json:"name"`
	Price          float64  `json:"price"`
	TaxRate        *float64 `json:"taxRate"`
	TaxDescription string   `json:"taxDescription,omitempty"`
	Ingredients    *string  `json:"ingredients,omitempty"`
	Issues         []string `json:"issues,omitempty"`
}

// PriceSearchResult is the outcome of a site-scoped price search.
type PriceSearchResult struct {
	Found       bool     `json:"found"`
	ItemName    string   `json:"itemName"`
	Price       *float64 `json:"price"`
	Description string   `json:"description,omitempty"`
	SourceURL   *string  `json:"sourceUrl,omitempty"`
}

// PriceGuess is the outcome of an estimated-price lookup.
type PriceGuess struct {
	Price       *float64 `json:"price"`
	SourceURL   *string  `json:"sourceUrl,omitempty"`
	Explanation *string  `json:"explanation,omitempty"`
}

// AdditiveRecord describes one additive found in a product.
type AdditiveRecord struct {
	Name        string `json:"name"`
	RiskLevel   string `json:"riskLevel"`
	Description string `json:"description,omitempty"`
}

// AdditiveReport is the outcome of ingredient/additive analysis.
type AdditiveReport struct {
	RiskyCount int              `json:"riskyCount"`
	SafeCount  int              `json:"safeCount"`
	Additives  []AdditiveRecord `json:"additives"`
}

// UsageRecord captures one completed external call for the ledger.
// Immutable once created.
type UsageRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Category     Category  `json:"category"`
	Prompt       string    `json:"prompt"`
	Response     string    `json:"response"`
	Cost         float64   `json:"cost"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	ItemName     string    `json:"itemName,omitempty"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
}
