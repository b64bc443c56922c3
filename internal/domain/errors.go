package domain

import (
	"errors"
	"fmt"
)

// ErrMissingCredential indicates no API key is configured for the
// resolved profile's provider.
var ErrMissingCredential = errors.New("no credential configured for provider")

// UnsupportedMediaError indicates an image payload was supplied to a
// model without vision capability.
type UnsupportedMediaError struct {
	Model string
}

func (e *UnsupportedMediaError) Error() string {
	return fmt.Sprintf("model %s does not support image input", e.Model)
}

// TransportError wraps a network or HTTP-layer failure. Status and Body
// preserve the raw exchange for diagnostics; they are not interpreted.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider request failed: status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("provider request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExtractionError indicates no extraction strategy produced a value
// from the raw model response. Raw carries the original text for
// caller-level diagnostics.
type ExtractionError struct {
	Raw string
}

func (e *ExtractionError) Error() string {
	return "no structured value could be extracted from model response"
}

// TaxAnalysisError indicates the tax-rate retry budget was exhausted.
// Explanation carries the model's own explanation from the last
// structured response when one was present.
type TaxAnalysisError struct {
	Item        string
	Attempts    int
	Explanation string
}

func (e *TaxAnalysisError) Error() string {
	if e.Explanation != "" {
		return e.Explanation
	}
	return fmt.Sprintf("could not determine tax rate for %q after %d attempts", e.Item, e.Attempts)
}

// PriceGuessError indicates price estimation failed.
type PriceGuessError struct {
	Item string
	Err  error
}

func (e *PriceGuessError) Error() string {
	return fmt.Sprintf("price guess for %q failed: %v", e.Item, e.Err)
}

func (e *PriceGuessError) Unwrap() error { return e.Err }

// AdditiveAnalysisError indicates the model explicitly could not
// determine the additive content of a product.
type AdditiveAnalysisError struct {
	Product     string
	Explanation string
}

func (e *AdditiveAnalysisError) Error() string {
	if e.Explanation != "" {
		return e.Explanation
	}
	return fmt.Sprintf("could not determine additives for %q", e.Product)
}
