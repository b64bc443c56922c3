// Package extract turns raw model completions into typed values.
//
// Model output is not guaranteed to be well-formed JSON even under
// explicit instruction, so decoding runs a fixed cascade: a fenced
// ```json block if present, otherwise the first-{ to last-} substring,
// then strict JSON decoding into the requested shape. For the tax-rate
// shape only, a further cascade of regular expressions over the
// original raw text trades strictness for availability; multi-field
// records are never text-mined, since guessing at prices or URLs risks
// silently wrong data.
package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopwise/advisor/internal/domain"
)

const jsonFence = "```json"

// jsonCandidate slices the most plausible JSON object out of raw text.
// It returns an empty string when no candidate exists.
func jsonCandidate(raw string) string {
	if start := strings.Index(raw, jsonFence); start >= 0 {
		interior := raw[start+len(jsonFence):]
		if end := strings.Index(interior, "```"); end >= 0 {
			return strings.TrimSpace(interior[:end])
		}
	}

	open := strings.Index(raw, "{")
	closing := strings.LastIndex(raw, "}")
	if open >= 0 && closing > open {
		return raw[open : closing+1]
	}

	return ""
}

// Decode extracts a typed value of shape T from raw model output.
// A malformed candidate is a hard failure: the returned error is an
// *domain.ExtractionError carrying the original raw text.
func Decode[T any](raw string) (T, error) {
	var value T

	candidate := jsonCandidate(raw)
	if candidate == "" {
		return value, &domain.ExtractionError{Raw: raw}
	}

	if err := json.Unmarshal([]byte(candidate), &value); err != nil {
		return value, &domain.ExtractionError{Raw: raw}
	}

	return value, nil
}

// taxRatePayload is the structured shape tax-rate prompts ask for.
type taxRatePayload struct {
	TaxRate     *float64 `json:"taxRate"`
	Explanation string   `json:"explanation"`
}

// Regex cascade for tax rates, in fixed priority order. The first
// pattern that matches wins; no further patterns are tried.
var taxRatePatterns = []*regexp.Regexp{
	// Explicit taxRate key-value pairs, quoted or not.
	regexp.MustCompile(`(?i)"?taxRate"?\s*[:=]\s*"?(-?\d+(?:\.\d+)?)`),
	// Sentences naming the rate followed by a percentage.
	regexp.MustCompile(`(?i)(?:tax rate|sales tax|combined rate)[^\d%]*(\d+(?:\.\d+)?)\s*%`),
	// A bare percentage.
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`),
	// A bare "N percent".
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s+percent\b`),
	// A number following the word "rate".
	regexp.MustCompile(`(?i)\brate\b\D*(\d+(?:\.\d+)?)`),
}

// TaxRate extracts a tax rate from raw model output. Structured JSON is
// tried first; on decode failure the regex cascade runs over the
// original raw text, not the JSON candidate. A structurally valid
// response with a null rate returns (nil, explanation, nil): the model
// answered, the rate is unknown.
func TaxRate(raw string) (*float64, string, error) {
	payload, err := Decode[taxRatePayload](raw)
	if err == nil {
		return payload.TaxRate, payload.Explanation, nil
	}

	for _, pattern := range taxRatePatterns {
		match := pattern.FindStringSubmatch(raw)
		if match == nil {
			continue
		}
		rate, parseErr := strconv.ParseFloat(match[1], 64)
		if parseErr != nil {
			continue
		}
		return &rate, "", nil
	}

	return nil, "", &domain.ExtractionError{Raw: raw}
}
