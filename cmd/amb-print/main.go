package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/rogerboy38/amb-print-app/internal/batch"
	"github.com/rogerboy38/amb-print-app/internal/config"
	"github.com/rogerboy38/amb-print-app/internal/erpnext"
	"github.com/rogerboy38/amb-print-app/internal/export"
	"github.com/rogerboy38/amb-print-app/internal/extract"
	"github.com/rogerboy38/amb-print-app/internal/mapping"
	"github.com/rogerboy38/amb-print-app/internal/migrate"
	"github.com/rogerboy38/amb-print-app/internal/schema"
	"github.com/rogerboy38/amb-print-app/internal/store"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the process logger from the configured level.
func setupLogging(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// app bundles the wired pipeline components for mode dispatch.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	registry  *schema.Registry
	extractor *extract.Extractor
	mapper    *mapping.Mapper
	service   *migrate.Service
	client    *erpnext.Client
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	st, err := store.New(cfg.Workspace)
	if err != nil {
		return nil, err
	}

	registry, err := schema.Load()
	if err != nil {
		return nil, err
	}

	extractor := extract.NewExtractor(
		extract.WithMaxFileSize(cfg.MaxFileSize),
		extract.WithLogger(logger),
	)
	mapper := mapping.NewMapper(mapping.WithMapperLogger(logger))

	opts := []migrate.ServiceOption{
		migrate.WithExportOptions(export.Options{
			Version: cfg.Version,
			Author:  cfg.Author,
		}),
		migrate.WithServiceLogger(logger),
	}

	var client *erpnext.Client
	if cfg.Upload || cfg.Mode == config.ModeUpload {
		client, err = erpnext.NewClient(erpnext.Config{
			BaseURL:     cfg.ERPNext.BaseURL,
			APIKey:      cfg.ERPNext.APIKey,
			APISecret:   cfg.ERPNext.APISecret,
			Timeout:     cfg.ERPNext.Timeout,
			MaxAttempts: cfg.ERPNext.MaxAttempts,
			RetryDelay:  cfg.ERPNext.RetryDelay,
		}, erpnext.WithLogger(logger), erpnext.WithRateLimit(cfg.ERPNext.RateLimit))
		if err != nil {
			return nil, err
		}
		opts = append(opts, migrate.WithUploader(client))
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		registry:  registry,
		extractor: extractor,
		mapper:    mapper,
		service:   migrate.NewService(extractor, mapper, registry, st, opts...),
		client:    client,
	}, nil
}

// stageName derives the store key for the input document.
func (a *app) stageName() string {
	if a.cfg.Name != "" {
		return a.cfg.Name
	}
	base := filepath.Base(a.cfg.Input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (a *app) job() migrate.Job {
	return migrate.Job{
		ID:            uuid.NewString(),
		Source:        a.cfg.Input,
		DocType:       a.cfg.DocType,
		Name:          a.cfg.Name,
		OverridesPath: a.cfg.OverridesPath,
		Upload:        a.cfg.Upload,
	}
}

// runExtract parses the source PDF and saves the extraction stage file.
func (a *app) runExtract() error {
	doc, err := a.extractor.Extract(a.cfg.Input)
	if err != nil {
		return err
	}
	if err := a.store.SaveDocument(a.stageName(), doc); err != nil {
		return err
	}
	a.logger.Info("extraction complete",
		"source", a.cfg.Input,
		"pages", doc.Metadata.Pages,
		"elements", len(doc.Elements),
		"tables", len(doc.TableElements()))
	return nil
}

// runMap proposes a field mapping from the saved extraction, applies any
// overrides, validates it, and saves the mapping stage file.
func (a *app) runMap() error {
	doc, err := a.store.LoadDocument(a.stageName())
	if err != nil {
		return err
	}
	dt, err := a.registry.Get(a.cfg.DocType)
	if err != nil {
		return err
	}

	m := a.mapper.Propose(doc, dt)
	if a.cfg.OverridesPath != "" {
		overrides, err := migrate.LoadOverrides(a.cfg.OverridesPath)
		if err != nil {
			return err
		}
		m.Apply(overrides)
	}
	if err := a.store.SaveMapping(a.stageName(), m); err != nil {
		return err
	}

	return printResult(mapping.Validate(m, dt))
}

// runExport renders the saved mapping into the configured format.
func (a *app) runExport() error {
	m, err := a.store.LoadMapping(a.stageName())
	if err != nil {
		return err
	}
	dt, err := a.registry.Get(a.cfg.DocType)
	if err != nil {
		return err
	}
	kind, err := export.ParseKind(a.cfg.Format)
	if err != nil {
		return err
	}
	exporter, err := export.New(kind, export.Options{
		Version: a.cfg.Version,
		Author:  a.cfg.Author,
	})
	if err != nil {
		return err
	}

	artifact, err := exporter.Render(a.stageName(), m, dt)
	if err != nil {
		return err
	}
	if err := a.store.SaveArtifact(a.stageName(), artifact); err != nil {
		return err
	}
	a.logger.Info("export complete",
		"name", artifact.Name,
		"format", artifact.Format,
		"bytes", len(artifact.Content))
	return nil
}

// runUpload pushes a previously exported artifact to the target instance.
func (a *app) runUpload(ctx context.Context) error {
	artifact, err := a.store.LoadArtifact(a.stageName(), a.cfg.Format)
	if err != nil {
		return err
	}
	if err := a.client.UploadPrintFormat(ctx, artifact); err != nil {
		return err
	}
	a.logger.Info("upload complete", "name", artifact.Name, "format", artifact.Format)
	return nil
}

// runPipeline executes the full single-document pipeline.
func (a *app) runPipeline(ctx context.Context) error {
	outcome, err := a.service.Run(ctx, a.job())
	if err != nil {
		if outcome != nil {
			_ = printResult(outcome.Validation)
		}
		return err
	}
	return printOutcome(outcome)
}

// runBatch processes every PDF in the input directory.
func (a *app) runBatch(ctx context.Context) error {
	proc := batch.NewProcessor(a.service, a.cfg.DocType,
		batch.WithWorkers(a.cfg.Workers),
		batch.WithUpload(a.cfg.Upload),
		batch.WithProcessorLogger(a.logger),
	)
	results, err := proc.Run(ctx, a.cfg.Input)
	if err != nil {
		return err
	}
	a.logger.Info("batch complete",
		"processed", results.Processed,
		"succeeded", results.Succeeded,
		"failed", results.Failed)
	if err := printJSON(results); err != nil {
		return err
	}
	if results.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", results.Failed, results.Processed)
	}
	return nil
}

// runWatch processes PDFs as they appear in the input directory until
// interrupted.
func (a *app) runWatch(ctx context.Context) error {
	proc := batch.NewProcessor(a.service, a.cfg.DocType,
		batch.WithWorkers(a.cfg.Workers),
		batch.WithUpload(a.cfg.Upload),
		batch.WithProcessorLogger(a.logger),
	)
	watcher := batch.NewWatcher(proc, batch.WithWatcherLogger(a.logger))

	a.logger.Info("watching for documents", "dir", a.cfg.Input, "doctype", a.cfg.DocType)
	return watcher.Watch(ctx, a.cfg.Input)
}

func printOutcome(o *migrate.Outcome) error {
	return printJSON(o)
}

func printResult(r mapping.Result) error {
	return printJSON(r)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func run() error {
	cfg, err := config.LoadFromFlags()
	if err != nil {
		return err
	}

	logger := setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() {
		logger.Debug("starting", "config", cfg.String())
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	switch cfg.Mode {
	case config.ModeExtract:
		return a.runExtract()
	case config.ModeMap:
		return a.runMap()
	case config.ModeExport:
		return a.runExport()
	case config.ModeUpload:
		return a.runUpload(ctx)
	case config.ModeRun:
		return a.runPipeline(ctx)
	case config.ModeBatch:
		return a.runBatch(ctx)
	case config.ModeWatch:
		return a.runWatch(ctx)
	default:
		return fmt.Errorf("unhandled mode: %s", cfg.Mode)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	if err := run(); err != nil {
		slog.Error("amb-print failed", "error", err)
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("AMB Print\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
