package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/shopwise/advisor/internal/advisor"
	"github.com/shopwise/advisor/internal/domain"
	"github.com/shopwise/advisor/internal/ledger"
	"github.com/shopwise/advisor/internal/observability"
)

// Handler exposes the advisor capabilities and the billing ledger over
// HTTP for the mobile client.
type Handler struct {
	advisor *advisor.Advisor
	ledger  *ledger.Ledger
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(adv *advisor.Advisor, led *ledger.Ledger) *Handler {
	return &Handler{
		advisor: adv,
		ledger:  led,
	}
}

type taxRateRequest struct {
	Item     string `json:"item"`
	Location string `json:"location,omitempty"`
}

// HandleTaxRate serves tax-rate inference. Retry-budget exhaustion is a
// soft outcome for the UI: it answers 200 with a null rate and the
// failure explanation rather than an error status.
func (h *Handler) HandleTaxRate(w http.ResponseWriter, r *http.Request) {
	var req taxRateRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	if req.Item == "" {
		http.Error(w, "item is required", http.StatusBadRequest)
		return
	}

	result, err := h.advisor.InferTaxRate(r.Context(), req.Item, req.Location)
	if err != nil {
		var taxErr *domain.TaxAnalysisError
		if errors.As(err, &taxErr) {
			h.writeJSON(r, w, http.StatusOK, map[string]any{
				"taxRate": nil,
				"error":   taxErr.Error(),
			})
			return
		}
		h.writeError(r, w, err)
		return
	}

	h.writeJSON(r, w, http.StatusOK, result)
}

type priceTagRequest struct {
	Image    string `json:"image"` // base64
	Location string `json:"location,omitempty"`
}

// HandlePriceTag serves price-tag image analysis.
func (h *Handler) HandlePriceTag(w http.ResponseWriter, r *http.Request) {
	var req priceTagRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil || len(image) == 0 {
		http.Error(w, "image must be non-empty base64", http.StatusBadRequest)
		return
	}

	record, err := h.advisor.AnalyzePriceTag(r.Context(), image, req.Location)
	if err != nil {
		h.writeError(r, w, err)
		return
	}

	h.writeJSON(r, w, http.StatusOK, record)
}

type priceSearchRequest struct {
	Item     string `json:"item"`
	Spec     string `json:"spec,omitempty"`
	Site     string `json:"site"`
	Location string `json:"location,omitempty"`
}

// HandlePriceSearch serves site-scoped price search.
func (h *Handler) HandlePriceSearch(w http.ResponseWriter, r *http.Request) {
	var req priceSearchRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	if req.Item == "" || req.Site == "" {
		http.Error(w, "item and site are required", http.StatusBadRequest)
		return
	}

	result, err := h.advisor.SearchPrice(r.Context(), req.Item, req.Spec, req.Site, req.Location)
	if err != nil {
		h.writeError(r, w, err)
		return
	}

	h.writeJSON(r, w, http.StatusOK, result)
}

type priceGuessRequest struct {
	Item     string `json:"item"`
	Location string `json:"location,omitempty"`
	Store    string `json:"store,omitempty"`
	Brand    string `json:"brand,omitempty"`
	Details  string `json:"details,omitempty"`
}

// HandlePriceGuess serves estimated-price lookups.
func (h *Handler) HandlePriceGuess(w http.ResponseWriter, r *http.Request) {
	var req priceGuessRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	if req.Item == "" {
		http.Error(w, "item is required", http.StatusBadRequest)
		return
	}

	guess, err := h.advisor.GuessPrice(r.Context(), advisor.GuessRequest{
		Item:     req.Item,
		Location: req.Location,
		Store:    req.Store,
		Brand:    req.Brand,
		Details:  req.Details,
	})
	if err != nil {
		h.writeError(r, w, err)
		return
	}

	h.writeJSON(r, w, http.StatusOK, guess)
}

type additivesRequest struct {
	Product string `json:"product"`
}

// HandleAdditives serves ingredient/additive analysis.
func (h *Handler) HandleAdditives(w http.ResponseWriter, r *http.Request) {
	var req additivesRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	if req.Product == "" {
		http.Error(w, "product is required", http.StatusBadRequest)
		return
	}

	report, err := h.advisor.AnalyzeAdditives(r.Context(), req.Product)
	if err != nil {
		h.writeError(r, w, err)
		return
	}

	h.writeJSON(r, w, http.StatusOK, report)
}

// HandleLedger serves the read-only aggregate view.
func (h *Handler) HandleLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(r, w, http.StatusOK, h.ledger.Snapshot())
}

// HandleLedgerReset zeroes the ledger.
func (h *Handler) HandleLedgerReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.ledger.Reset(r.Context())
	h.writeJSON(r, w, http.StatusOK, h.ledger.Snapshot())
}

type amountRequest struct {
	Amount float64 `json:"amount"`
}

// HandleLedgerBaseline sets the spend baseline.
func (h *Handler) HandleLedgerBaseline(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}

	h.ledger.SetBaseline(r.Context(), req.Amount)
	h.writeJSON(r, w, http.StatusOK, h.ledger.Snapshot())
}

// HandleLedgerAdjust shifts the manual adjustment offset.
func (h *Handler) HandleLedgerAdjust(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}

	h.ledger.Adjust(r.Context(), req.Amount)
	h.writeJSON(r, w, http.StatusOK, h.ledger.Snapshot())
}

type trimRequest struct {
	Keep int `json:"keep"`
}

// HandleLedgerTrim trims the display log without touching aggregates.
func (h *Handler) HandleLedgerTrim(w http.ResponseWriter, r *http.Request) {
	var req trimRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}

	h.ledger.TrimHistory(r.Context(), req.Keep)
	h.writeJSON(r, w, http.StatusOK, h.ledger.Snapshot())
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(r, w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeRequest enforces POST + JSON body. It writes the error response
// itself and returns false when the request is unusable.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}

	return true
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func (h *Handler) writeError(r *http.Request, w http.ResponseWriter, err error) {
	logger := observability.FromContext(r.Context())
	logger.Error("capability call failed", zap.Error(err))

	status := http.StatusInternalServerError

	var (
		mediaErr      *domain.UnsupportedMediaError
		transportErr  *domain.TransportError
		extractionErr *domain.ExtractionError
		guessErr      *domain.PriceGuessError
		additiveErr   *domain.AdditiveAnalysisError
	)

	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		status = http.StatusServiceUnavailable
	case errors.As(err, &mediaErr):
		status = http.StatusBadRequest
	case errors.As(err, &additiveErr):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &guessErr):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &transportErr):
		status = http.StatusBadGateway
	case errors.As(err, &extractionErr):
		status = http.StatusBadGateway
	}

	h.writeJSON(r, w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(r *http.Request, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		observability.FromContext(r.Context()).Error("failed to encode response", zap.Error(err))
	}
}
