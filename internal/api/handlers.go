package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/history"
	"github.com/xj-bear/pdf2all/internal/observability"
)

// maxRequestBody bounds the JSON body of a convert request.
const maxRequestBody = 1 << 20

// ConvertHandler handles conversion requests.
type ConvertHandler struct {
	logger     *observability.Logger
	dispatcher Dispatcher
}

// NewConvertHandler creates a new convert handler.
func NewConvertHandler(logger *observability.Logger, dispatcher Dispatcher) *ConvertHandler {
	return &ConvertHandler{
		logger:     logger,
		dispatcher: dispatcher,
	}
}

// Convert handles POST /v1/convert. The body is a protocol request and the
// reply is always a protocol response; a failed conversion is still 200.
func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req domain.Request
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.Failure("Invalid JSON input: "+err.Error()))
		return
	}

	resp := h.dispatcher.Handle(r.Context(), req)
	if resp == nil {
		h.logger.WithContext(r.Context()).Error().Str("action", req.Action).Msg("Dispatcher returned no response")
		writeJSON(w, http.StatusInternalServerError, domain.Failure("Conversion failed: no response"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HistoryHandler serves the conversion history.
type HistoryHandler struct {
	logger  *observability.Logger
	history HistoryLister
}

// NewHistoryHandler creates a new history handler. history may be nil.
func NewHistoryHandler(logger *observability.Logger, history HistoryLister) *HistoryHandler {
	return &HistoryHandler{
		logger:  logger,
		history: history,
	}
}

// HistoryResponseDTO is the reply of GET /v1/history.
type HistoryResponseDTO struct {
	Records []domain.ConversionRecord `json:"records"`
	Count   int                       `json:"count"`
}

// List handles GET /v1/history?limit=n.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusNotFound, "history is disabled", "set history.driver to sqlite or postgres")
		return
	}

	limit := history.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.history.List(r.Context(), limit)
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("History query failed")
		writeError(w, http.StatusInternalServerError, "history query failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, HistoryResponseDTO{Records: records, Count: len(records)})
}

// HealthHandler reports service status.
type HealthHandler struct {
	history HistoryLister
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(history HistoryLister, version string) *HealthHandler {
	return &HealthHandler{history: history, version: version}
}

// HealthDTO is the reply of GET /health.
type HealthDTO struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
	History string `json:"history"`
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := HealthDTO{
		Status:  "healthy",
		Service: "pdf2all",
		Version: h.version,
		History: "disabled",
	}
	status := http.StatusOK

	if h.history != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.history.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.History = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.History = "ok"
		}
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}

