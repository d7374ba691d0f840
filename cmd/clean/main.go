// Command clean extracts the taxi-trip archive, cleans every CSV it contains
// and writes the consolidated dataset plus a data-quality report.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/couchcryptid/taxi-claims-etl/internal/adapter/archive"
	"github.com/couchcryptid/taxi-claims-etl/internal/adapter/csvfile"
	kafkaadapter "github.com/couchcryptid/taxi-claims-etl/internal/adapter/kafka"
	"github.com/couchcryptid/taxi-claims-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/taxi-claims-etl/internal/config"
	"github.com/couchcryptid/taxi-claims-etl/internal/domain"
	"github.com/couchcryptid/taxi-claims-etl/internal/observability"
	"github.com/couchcryptid/taxi-claims-etl/internal/pipeline"
)

const pushJob = "taxi-claims-clean"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	os.Exit(run(cfg))
}

func run(cfg *config.Config) int {
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(os.Stderr, logger)
		if err != nil {
			logger.Error("failed to init tracing", "error", err)
			return 1
		}
		defer shutdown()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SkipExtract {
		logger.Info("archive extraction skipped", "dir", cfg.ExtractDir)
	} else {
		files, err := archive.NewExtractor(logger).Extract(ctx, cfg.ArchivePath, cfg.ExtractDir)
		if err != nil {
			logger.Error("archive extraction failed", "archive", cfg.ArchivePath, "error", err)
			return 1
		}
		logger.Info("archive extracted", "archive", cfg.ArchivePath, "files", len(files))
	}

	sinks := []pipeline.Sink{csvfile.NewWriter(cfg.OutputPath, logger)}
	if cfg.XLSXPath != "" {
		sinks = append(sinks, xlsx.NewWriter(cfg.XLSXPath, logger))
	}
	if len(cfg.KafkaBrokers) > 0 {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, writer)
	}

	opts := pipeline.Options{
		Synonyms:       cfg.Synonyms,
		Sentinels:      cfg.Sentinels,
		DurationPolicy: cfg.DurationPolicy,
		SchemaPolicy:   cfg.SchemaPolicy,
	}
	p := pipeline.New(csvfile.NewDir(cfg.ExtractDir), sinks, opts, logger, metrics)

	report, runErr := p.Run(ctx)

	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(cfg.PushgatewayURL, pushJob); err != nil {
			logger.Error("pushgateway push failed", "url", cfg.PushgatewayURL, "error", err)
		}
	}

	if runErr != nil {
		logger.Error("pipeline failed", "error", runErr)
		return 1
	}

	if cfg.ReportPath != "" {
		if err := writeReport(cfg.ReportPath, report); err != nil {
			logger.Error("failed to write report", "path", cfg.ReportPath, "error", err)
			return 1
		}
		logger.Info("report written", "path", cfg.ReportPath)
	}
	return 0
}

func writeReport(path string, report *domain.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
