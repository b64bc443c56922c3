package httpserver_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shopwise/advisor/internal/advisor"
	"github.com/shopwise/advisor/internal/config"
	"github.com/shopwise/advisor/internal/cost"
	"github.com/shopwise/advisor/internal/domain"
	"github.com/shopwise/advisor/internal/httpserver"
	"github.com/shopwise/advisor/internal/ledger"
	"github.com/shopwise/advisor/internal/registry"
)

// stubCompleter returns a fixed completion or error.
type stubCompleter struct {
	text string
	err  error
}

func (s *stubCompleter) Complete(_ context.Context, _ domain.PromptRequest) (*domain.Completion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Completion{
		Text:     s.text,
		Usage:    &domain.TokenUsage{InputTokens: 10, OutputTokens: 5},
		Provider: "openai",
	}, nil
}

func newHandler(t *testing.T, completer domain.Completer) (*httpserver.Handler, *ledger.Ledger) {
	t.Helper()

	led := ledger.New(context.Background(), ledger.NewMemoryStore(), 0)
	calc := cost.NewCalculator(registry.New())
	models := &config.ModelsConfig{
		TaxModel:      "gpt-4o-mini",
		VisionModel:   "gpt-4o",
		SearchModel:   "sonar",
		GuessModel:    "sonar",
		AdditiveModel: "gpt-4o-mini",
	}
	tax := &config.TaxConfig{MaxRetries: 1, RetryDelayMS: 0}

	adv := advisor.New(completer, calc, led, models, tax)
	return httpserver.NewHandler(adv, led), led
}

func postJSON(t *testing.T, handlerFunc http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func TestHandleTaxRate(t *testing.T) {
	t.Run("returns the inferred rate", func(t *testing.T) {
		handler, _ := newHandler(t, &stubCompleter{text: `{"taxRate": 6.25, "explanation": "state rate"}`})

		rec := postJSON(t, handler.HandleTaxRate, map[string]string{"item": "milk", "location": "Austin, TX"})

		require.Equal(t, http.StatusOK, rec.Code)

		var body domain.TaxRate
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotNil(t, body.Rate)
		require.InDelta(t, 6.25, *body.Rate, 0.0001)
	})

	t.Run("retry exhaustion is a soft 200 with null rate", func(t *testing.T) {
		handler, _ := newHandler(t, &stubCompleter{text: `{"taxRate": null, "explanation": "cannot determine"}`})

		rec := postJSON(t, handler.HandleTaxRate, map[string]string{"item": "milk"})

		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Nil(t, body["taxRate"])
		require.NotEmpty(t, body["error"])
	})

	t.Run("missing item is a bad request", func(t *testing.T) {
		handler, _ := newHandler(t, &stubCompleter{text: `{"taxRate": 1}`})

		rec := postJSON(t, handler.HandleTaxRate, map[string]string{})

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get is not allowed", func(t *testing.T) {
		handler, _ := newHandler(t, &stubCompleter{text: `{"taxRate": 1}`})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.HandleTaxRate(rec, req)

		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("missing credential maps to service unavailable", func(t *testing.T) {
		handler, _ := newHandler(t, &stubCompleter{
			err: fmt.Errorf("provider openai: %w", domain.ErrMissingCredential),
		})

		rec := postJSON(t, handler.HandleTaxRate, map[string]string{"item": "milk"})

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("transport failure maps to bad gateway", func(t *testing.T) {
		handler, _ := newHandler(t, &stubCompleter{
			err: &domain.TransportError{Status: 500, Body: "upstream exploded"},
		})

		rec := postJSON(t, handler.HandleTaxRate, map[string]string{"item": "milk"})

		require.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestHandlePriceTag(t *testing.T) {
	image := base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'})

	t.Run("returns the decoded record", func(t *testing.T) {
		handler, _ := newHandler(t, &stubCompleter{
			text: `{"name":"Whole Milk","price":3.49,"taxRate":2.0,"taxDescription":"grocery rate"}`,
		})

		rec := postJSON(t, handler.HandlePriceTag, map[string]string{"image": image})

		require.Equal(t, http.StatusOK, rec.Code)

		var record domain.PriceTagRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
		require.Equal(t, "Whole Milk", record.Name)
		require.InDelta(t, 3.49, record.Price, 0.0001)
	})

	t.Run("rejects invalid base64", func(t *testing.T) {
		handler, _ := newHandler(t, &stubCompleter{text: "{}"})

		rec := postJSON(t, handler.HandlePriceTag, map[string]string{"image": "not-base64!!!"})

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unreadable tag maps to bad gateway", func(t *testing.T) {
		handler, _ := newHandler(t, &stubCompleter{text: "sorry, the photo is too blurry"})

		rec := postJSON(t, handler.HandlePriceTag, map[string]string{"image": image})

		require.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestHandlePriceSearch(t *testing.T) {
	handler, _ := newHandler(t, &stubCompleter{
		text: `{"found":true,"itemName":"AA Batteries","price":7.99,"description":"8 pack"}`,
	})

	rec := postJSON(t, handler.HandlePriceSearch, map[string]string{
		"item": "AA batteries",
		"site": "example.com",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.PriceSearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.True(t, result.Found)
}

func TestHandlePriceGuess(t *testing.T) {
	t.Run("returns the guess", func(t *testing.T) {
		handler, _ := newHandler(t, &stubCompleter{text: `{"price": 4.49}`})

		rec := postJSON(t, handler.HandlePriceGuess, map[string]string{"item": "oat milk"})

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("guess failure maps to unprocessable entity", func(t *testing.T) {
		handler, _ := newHandler(t, &stubCompleter{text: "no structure at all"})

		rec := postJSON(t, handler.HandlePriceGuess, map[string]string{"item": "oat milk"})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestHandleAdditives(t *testing.T) {
	t.Run("cannot-determine maps to unprocessable entity", func(t *testing.T) {
		handler, _ := newHandler(t, &stubCompleter{
			text: `{"riskyCount":0,"safeCount":0,"additives":[],"error":"not a food item"}`,
		})

		rec := postJSON(t, handler.HandleAdditives, map[string]string{"product": "granite countertop"})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestLedgerEndpoints(t *testing.T) {
	handler, _ := newHandler(t, &stubCompleter{text: `{"taxRate": 6.25}`})

	// Produce one billed interaction.
	rec := postJSON(t, handler.HandleTaxRate, map[string]string{"item": "milk"})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("snapshot reflects recorded spend", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		get := httptest.NewRecorder()
		handler.HandleLedger(get, req)

		require.Equal(t, http.StatusOK, get.Code)

		var snap ledger.Snapshot
		require.NoError(t, json.Unmarshal(get.Body.Bytes(), &snap))
		require.EqualValues(t, 1, snap.TotalCalls)
		require.Len(t, snap.History, 1)
		require.Equal(t, domain.CategoryTaxLookup, snap.History[0].Category)
	})

	t.Run("baseline and adjust update the snapshot", func(t *testing.T) {
		rec := postJSON(t, handler.HandleLedgerBaseline, map[string]float64{"amount": 0.5})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = postJSON(t, handler.HandleLedgerAdjust, map[string]float64{"amount": 1.25})
		require.Equal(t, http.StatusOK, rec.Code)

		var snap ledger.Snapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		require.NotNil(t, snap.Baseline)
		require.InDelta(t, 1.25, snap.Adjustment, 0.0001)
	})

	t.Run("reset zeroes everything", func(t *testing.T) {
		rec := postJSON(t, handler.HandleLedgerReset, struct{}{})
		require.Equal(t, http.StatusOK, rec.Code)

		var snap ledger.Snapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		require.Zero(t, snap.TotalCalls)
		require.Empty(t, snap.History)
		require.Nil(t, snap.Baseline)
	})
}
