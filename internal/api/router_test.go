package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/observability"
)

type stubDispatcher struct {
	mu   sync.Mutex
	resp *domain.Response
	reqs []domain.Request
	ids  []string
}

func (s *stubDispatcher) Handle(ctx context.Context, req domain.Request) *domain.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	s.ids = append(s.ids, observability.RequestIDFromContext(ctx))
	return s.resp
}

type stubHistory struct {
	records []domain.ConversionRecord
	err     error
	pingErr error
	limit   int
}

func (s *stubHistory) List(ctx context.Context, limit int) ([]domain.ConversionRecord, error) {
	s.limit = limit
	return s.records, s.err
}

func (s *stubHistory) Ping(ctx context.Context) error { return s.pingErr }

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestConvert(t *testing.T) {
	d := &stubDispatcher{resp: &domain.Response{
		Success:    true,
		Message:    "Successfully converted 2 page(s) to PowerPoint: /tmp/a.pptx",
		OutputPath: "/tmp/a.pptx",
		PagesCount: domain.IntPtr(2),
	}}
	h := NewRouter(nil, d, nil, Config{})

	rec := do(t, h, http.MethodPost, "/v1/convert", `{"action":"pdf_to_ppt","pdf_path":"a.pdf","dpi":96}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "/tmp/a.pptx", got["output_path"])
	assert.Equal(t, float64(2), got["pages_count"])
	assert.NotContains(t, got, "tables_count")

	require.Len(t, d.reqs, 1)
	assert.Equal(t, domain.Request{Action: domain.ActionPPT, PDFPath: "a.pdf", DPI: 96}, d.reqs[0])
	assert.NotEmpty(t, d.ids[0], "chi request id reaches the dispatcher")
}

func TestConvert_FailureIsStillOK(t *testing.T) {
	d := &stubDispatcher{resp: domain.Failure("Missing 'pdf_path' parameter")}
	h := NewRouter(nil, d, nil, Config{})

	rec := do(t, h, http.MethodPost, "/v1/convert", `{"action":"pdf_to_docx"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Missing 'pdf_path' parameter"}`, rec.Body.String())
}

func TestConvert_InvalidJSON(t *testing.T) {
	d := &stubDispatcher{}
	h := NewRouter(nil, d, nil, Config{})

	rec := do(t, h, http.MethodPost, "/v1/convert", `{"action":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var got domain.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Success)
	assert.True(t, strings.HasPrefix(got.Error, "Invalid JSON input"))
	assert.Empty(t, d.reqs)
}

func TestConvert_MethodNotAllowed(t *testing.T) {
	h := NewRouter(nil, &stubDispatcher{}, nil, Config{})
	rec := do(t, h, http.MethodGet, "/v1/convert", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHistory(t *testing.T) {
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	hist := &stubHistory{records: []domain.ConversionRecord{
		{ID: "b", Action: domain.ActionExcel, Success: true, CreatedAt: at.Add(time.Minute)},
		{ID: "a", Action: domain.ActionJPG, Success: false, Error: "PDF has no pages", CreatedAt: at},
	}}
	h := NewRouter(nil, &stubDispatcher{}, hist, Config{})

	rec := do(t, h, http.MethodGet, "/v1/history?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, hist.limit)

	var got HistoryResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "b", got.Records[0].ID)
	assert.Equal(t, "PDF has no pages", got.Records[1].Error)
}

func TestHistory_Limits(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantLimit int
	}{
		{"default", "", http.StatusOK, 50},
		{"explicit", "?limit=7", http.StatusOK, 7},
		{"zero", "?limit=0", http.StatusBadRequest, 0},
		{"not a number", "?limit=ten", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hist := &stubHistory{records: []domain.ConversionRecord{}}
			h := NewRouter(nil, &stubDispatcher{}, hist, Config{})

			rec := do(t, h, http.MethodGet, "/v1/history"+tt.query, "")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantLimit, hist.limit)
		})
	}
}

func TestHistory_Disabled(t *testing.T) {
	h := NewRouter(nil, &stubDispatcher{}, nil, Config{})
	rec := do(t, h, http.MethodGet, "/v1/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "history is disabled")
}

func TestHistory_StoreError(t *testing.T) {
	hist := &stubHistory{err: errors.New("disk I/O error")}
	h := NewRouter(nil, &stubDispatcher{}, hist, Config{})

	rec := do(t, h, http.MethodGet, "/v1/history", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "disk I/O error")
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name        string
		history     HistoryLister
		wantCode    int
		wantStatus  string
		wantHistory string
	}{
		{"no history", nil, http.StatusOK, "healthy", "disabled"},
		{"history ok", &stubHistory{}, http.StatusOK, "healthy", "ok"},
		{"history down", &stubHistory{pingErr: errors.New("refused")}, http.StatusServiceUnavailable, "degraded", "unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRouter(nil, &stubDispatcher{}, tt.history, Config{Version: "1.2.3"})
			rec := do(t, h, http.MethodGet, "/health", "")
			assert.Equal(t, tt.wantCode, rec.Code)

			var got HealthDTO
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantHistory, got.History)
			assert.Equal(t, "1.2.3", got.Version)
		})
	}
}
