// Package convert implements the conversion actions and the dispatcher that
// routes protocol requests to them.
package convert

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/observability"
	"github.com/xj-bear/pdf2all/internal/pdf"
)

// DefaultFastJPGThreshold is the file size above which pdf_to_jpg switches
// to the fast converter.
const DefaultFastJPGThreshold int64 = 10 * 1024 * 1024

// HistoryRecorder stores a record of every dispatched request.
type HistoryRecorder interface {
	Record(ctx context.Context, rec domain.ConversionRecord) error
}

// DispatcherConfig wires a Dispatcher.
type DispatcherConfig struct {
	Validator        *pdf.Validator
	Converters       map[string]domain.Converter
	FastJPGThreshold int64
	History          HistoryRecorder // optional
}

// Dispatcher validates requests, routes them to a converter and turns every
// outcome into a Response.
type Dispatcher struct {
	validator        *pdf.Validator
	converters       map[string]domain.Converter
	fastJPGThreshold int64
	history          HistoryRecorder
	logger           *observability.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg DispatcherConfig, logger *observability.Logger) *Dispatcher {
	if cfg.Validator == nil {
		cfg.Validator = pdf.NewValidator(0, "")
	}
	if cfg.FastJPGThreshold <= 0 {
		cfg.FastJPGThreshold = DefaultFastJPGThreshold
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Dispatcher{
		validator:        cfg.Validator,
		converters:       cfg.Converters,
		fastJPGThreshold: cfg.FastJPGThreshold,
		history:          cfg.History,
		logger:           logger.WithOperation("dispatch"),
	}
}

// Handle processes one request. It never returns nil.
func (d *Dispatcher) Handle(ctx context.Context, req domain.Request) *domain.Response {
	id := uuid.NewString()
	if observability.RequestIDFromContext(ctx) == "" {
		ctx = observability.ContextWithRequestID(ctx, id)
	}

	start := time.Now()
	resp := d.handle(ctx, req)
	elapsed := time.Since(start)

	log := d.logger.WithContext(ctx)
	if resp.Success {
		log.Info().Str("action", req.Action).Dur("duration", elapsed).Msg(resp.Message)
	} else {
		log.Warn().Str("action", req.Action).Dur("duration", elapsed).Str("error", resp.Error).Msg("Request failed")
	}

	d.record(ctx, id, req, resp, elapsed)
	return resp
}

func (d *Dispatcher) handle(ctx context.Context, req domain.Request) *domain.Response {
	if strings.TrimSpace(req.Action) == "" {
		return domain.Failure("Missing 'action' parameter")
	}
	if strings.TrimSpace(req.PDFPath) == "" {
		return domain.Failure("Missing 'pdf_path' parameter")
	}

	info, err := d.validator.Validate(req.PDFPath)
	if err != nil {
		return domain.Failure(domain.UserMessage(err))
	}
	req.PDFPath = info.Path

	action := req.Action
	if action == domain.ActionJPG && (info.Size > d.fastJPGThreshold || (req.DPI > 0 && req.DPI < DefaultJPGDPI)) {
		action = domain.ActionJPGFast
	}

	conv, ok := d.converters[action]
	if !ok {
		return domain.Failure(fmt.Sprintf("Unknown action: %s. Available actions: %s", req.Action, strings.Join(domain.Actions, ", ")))
	}

	resp, err := d.run(ctx, conv, req)
	if err != nil {
		return domain.Failure("Conversion failed: " + domain.DetailMessage(err))
	}
	if resp == nil {
		return domain.Failure("Conversion failed: converter returned no result")
	}
	return resp
}

// run calls the converter, turning a panic into an error.
func (d *Dispatcher) run(ctx context.Context, conv domain.Converter, req domain.Request) (resp *domain.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.WithContext(ctx).Error().
				Str("action", req.Action).
				Str("stack", string(debug.Stack())).
				Msgf("converter panicked: %v", r)
			resp, err = nil, fmt.Errorf("%v", r)
		}
	}()
	return conv.Convert(ctx, req)
}

func (d *Dispatcher) record(ctx context.Context, id string, req domain.Request, resp *domain.Response, elapsed time.Duration) {
	if d.history == nil {
		return
	}
	rec := domain.ConversionRecord{
		ID:         id,
		Action:     req.Action,
		PDFPath:    req.PDFPath,
		Success:    resp.Success,
		Message:    resp.Message,
		Error:      resp.Error,
		DurationMS: elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if resp.TablesCount != nil {
		rec.TablesCount = *resp.TablesCount
	}
	if err := d.history.Record(ctx, rec); err != nil {
		d.logger.WithContext(ctx).Warn().Err(err).Msg("Failed to record conversion history")
	}
}
