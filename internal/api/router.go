// Package api exposes the conversion dispatcher over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/observability"
)

// Dispatcher handles one conversion request.
type Dispatcher interface {
	Handle(ctx context.Context, req domain.Request) *domain.Response
}

// HistoryLister lists stored conversion records, newest first.
type HistoryLister interface {
	List(ctx context.Context, limit int) ([]domain.ConversionRecord, error)
	Ping(ctx context.Context) error
}

// Config holds router settings.
type Config struct {
	RequestTimeout time.Duration
	Version        string
}

// NewRouter creates the API router. history may be nil.
func NewRouter(logger *observability.Logger, dispatcher Dispatcher, history HistoryLister, cfg Config) http.Handler {
	if logger == nil {
		logger = observability.Nop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Minute
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	health := NewHealthHandler(history, cfg.Version)
	r.Get("/health", health.Check)

	convert := NewConvertHandler(logger, dispatcher)
	hist := NewHistoryHandler(logger, history)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/convert", convert.Convert)
		r.Get("/history", hist.List)
	})

	return r
}

// requestLogger logs each request through the service logger and carries
// chi's request id into the context used by the dispatcher.
func requestLogger(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if id := chimiddleware.GetReqID(ctx); id != "" {
				ctx = observability.ContextWithRequestID(ctx, id)
			}

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))

			logger.WithContext(ctx).Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		})
	}
}
