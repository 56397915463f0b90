package audit

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"ledger_audit/pkg/core/checks"
	"ledger_audit/pkg/core/engine"
	"ledger_audit/pkg/core/schema"
	"ledger_audit/pkg/core/score"
)

// RunRequest is the decoded audit batch: a header row plus data rows, already
// extracted from whatever container format by the upstream collaborator.
type RunRequest struct {
	Domain  string   `json:"domain"`
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

// ErrorResponse carries a machine-readable error kind alongside the message.
type ErrorResponse struct {
	Error         string   `json:"error"`
	Kind          string   `json:"kind"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// Handler holds dependencies for audit endpoints.
type Handler struct {
	Catalogs   map[string]*schema.Catalog
	Thresholds *checks.Config
	Weights    score.Weights
}

// NewHandler creates a new audit handler over the loaded domain catalogs.
func NewHandler(catalogs map[string]*schema.Catalog, thresholds *checks.Config) *Handler {
	return &Handler{
		Catalogs:   catalogs,
		Thresholds: thresholds,
		Weights:    score.DefaultWeights(),
	}
}

// HandleRun runs the full test battery over one batch.
// POST /api/audit/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Kind: "bad_request"})
		return
	}

	cat, ok := h.Catalogs[req.Domain]
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorResponse{
			Error: "Unknown domain: " + req.Domain,
			Kind:  "unknown_domain",
		})
		return
	}

	eng, err := engine.New(cat, h.Thresholds, h.Weights)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Kind: "configuration_error"})
		return
	}

	result, err := eng.Run(r.Context(), req.Headers, req.Rows)
	if err != nil {
		var missing *schema.MissingRequiredFieldError
		if errors.As(err, &missing) {
			writeError(w, http.StatusBadRequest, ErrorResponse{
				Error:         missing.Error(),
				Kind:          "missing_required_fields",
				MissingFields: missing.Fields,
			})
			return
		}
		var confErr *schema.ConfigurationError
		if errors.As(err, &confErr) {
			writeError(w, http.StatusBadRequest, ErrorResponse{Error: confErr.Error(), Kind: "configuration_error"})
			return
		}
		writeError(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Kind: "internal"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// HandleDomains lists the loaded domain catalogs.
// GET /api/audit/domains
func (h *Handler) HandleDomains(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	domains := make([]string, 0, len(h.Catalogs))
	for name := range h.Catalogs {
		domains = append(domains, name)
	}
	sort.Strings(domains)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"domains": domains})
}

func writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
