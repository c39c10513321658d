package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/xj-bear/pdf2all/internal/cache"
	"github.com/xj-bear/pdf2all/internal/config"
	"github.com/xj-bear/pdf2all/internal/convert"
	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/extract"
	"github.com/xj-bear/pdf2all/internal/history"
	"github.com/xj-bear/pdf2all/internal/observability"
	"github.com/xj-bear/pdf2all/internal/ocr"
	"github.com/xj-bear/pdf2all/internal/pdf"
	"github.com/xj-bear/pdf2all/internal/tables"
)

// app holds the wired services shared by the convert, excel and serve
// commands.
type app struct {
	cfg        *config.Config
	logger     *observability.Logger
	cache      cache.Client
	history    *history.Store // nil when disabled
	dispatcher *convert.Dispatcher
}

func newApp(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	client, err := cache.New(cache.Options{
		Driver:     cfg.Cache.Driver,
		MaxEntries: cfg.Cache.MaxEntries,
		Redis: cache.RedisConfig{
			Addr:        cfg.Cache.Redis.Addr,
			Password:    cfg.Cache.Redis.Password,
			DB:          cfg.Cache.Redis.DB,
			PoolSize:    cfg.Cache.Redis.PoolSize,
			Prefix:      "pdf2all:",
			PingRetries: cfg.Cache.Redis.PingRetries,
		},
	})
	if err != nil {
		logger.Warn().Err(err).Str("driver", cfg.Cache.Driver).Msg("Cache unavailable, continuing without OCR cache")
		client = cache.NoopClient{}
	}
	a.cache = client

	if cfg.History.Driver != "none" {
		store, err := history.Open(ctx, history.Options{
			Driver:          cfg.History.Driver,
			DSN:             cfg.HistoryDSN(),
			MaxOpenConns:    cfg.History.Postgres.MaxOpenConns,
			ConnMaxLifetime: cfg.History.Postgres.ConnMaxLifetime,
			ConnectRetries:  cfg.History.Postgres.ConnectRetries,
		}, logger)
		if err != nil {
			a.cache.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.history = store
	}

	service, err := newTableService(cfg, a.cache, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	converters := map[string]domain.Converter{
		domain.ActionDocx:  convert.NewDocxConverter(nil, cfg.Docx.PageLimit, logger),
		domain.ActionExcel: convert.NewExcelConverter(nil, service, logger),
		domain.ActionPPT:   convert.NewPPTXConverter(nil, cfg.Render.PPTXDPI, logger),
		domain.ActionJPG: convert.NewJPGConverter(nil, convert.JPGOptions{
			DPI:     cfg.Render.JPGDPI,
			Quality: cfg.Render.JPGQuality,
		}, logger),
		domain.ActionJPGFast: convert.NewJPGConverter(nil, convert.JPGOptions{
			Fast:    true,
			DPI:     cfg.Render.JPGDPI,
			Quality: cfg.Render.JPGQuality,
		}, logger),
	}

	dcfg := convert.DispatcherConfig{
		Validator:        pdf.NewValidator(cfg.MaxFileSizeBytes(), ""),
		Converters:       converters,
		FastJPGThreshold: cfg.FastJPGThresholdBytes(),
	}
	if a.history != nil {
		dcfg.History = a.history
	}
	a.dispatcher = convert.NewDispatcher(dcfg, logger)

	logger.Debug().
		Str("cache", cfg.Cache.Driver).
		Str("history", cfg.History.Driver).
		Str("ocr_isolation", cfg.OCR.Isolation).
		Bool("ocr_available", ocr.Available()).
		Msg("Services initialized")

	return a, nil
}

// newTableService wires the structural pass and the OCR fallback.
func newTableService(cfg *config.Config, client cache.Client, logger *observability.Logger) (*extract.Service, error) {
	params := geometryParams(cfg)
	ocrOpts := ocr.Options{
		Languages: cfg.OCR.Languages,
		Level:     ocr.Level(cfg.OCR.Level),
	}

	var worker domain.PageWorker
	switch cfg.OCR.Isolation {
	case "process":
		pw, err := extract.NewProcessWorker(extract.ProcessWorkerConfig{
			Params:    params,
			Languages: ocrOpts.Languages,
			Level:     string(ocrOpts.Level),
		}, logger)
		if err != nil {
			return nil, err
		}
		worker = pw
	default:
		worker = extract.NewOCRWorker(pdf.OpenRasterizer, ocr.Factory(ocrOpts), params, logger)
	}

	variant := strings.Join([]string{params.String(), strings.Join(ocrOpts.Languages, "+"), string(ocrOpts.Level)}, "|")
	outcomes := extract.NewOutcomeCache(client, cfg.Cache.TTL, variant, logger)

	scheduler := extract.NewScheduler(worker, extract.SchedulerConfig{
		MaxWorkers:   cfg.OCR.MaxWorkers,
		Available:    ocr.Available,
		Cache:        outcomes,
		BatchTimeout: cfg.OCR.BatchTimeout,
	}, logger)

	return extract.NewService(extract.NewStructuralExtractor(logger), scheduler, logger), nil
}

func geometryParams(cfg *config.Config) tables.Params {
	return tables.Params{
		BandHeight:      cfg.Geometry.BandHeight,
		ColumnGap:       cfg.Geometry.ColumnGap,
		AssignTolerance: cfg.Geometry.AssignTolerance,
	}
}

// Close releases the cache and history connections.
func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close history store")
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close cache")
		}
	}
}
