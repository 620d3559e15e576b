// Package wiring assembles the narrative service from configuration. The
// API server, the SQS worker and the CLI share it so that every entry point
// runs the same engine over the same row source.
package wiring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/sony/gobreaker/v2"

	"transitinsight/internal/config"
	"transitinsight/internal/core"
	"transitinsight/internal/db"
	"transitinsight/internal/insight"
	"transitinsight/internal/source"
	"transitinsight/internal/telemetry"
	"transitinsight/internal/types"
)

// Deps are the assembled long-lived dependencies.
type Deps struct {
	Service *insight.Service
	Probes  []core.HealthProbe
	// Metrics is nil when ENABLE_METRICS is off.
	Metrics *telemetry.CloudWatchRecorder
	closers []func()
}

// Close releases pooled resources in reverse order of acquisition.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

// NewLogger creates a JSON slog.Logger for the given level name. Unknown
// names fall back to info.
func NewLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// LoadAWS loads the default AWS configuration for the configured region,
// pointing every client at EndpointURL when one is set (LocalStack).
func LoadAWS(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	if cfg.EndpointURL != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.EndpointURL)
	}
	return awsCfg, nil
}

// Build wires engine, row source, run recorders and health probes.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Deps, error) {
	engine, err := insight.New(insight.Options{
		Constants:  cfg.Appraisal.Constants(),
		Thresholds: cfg.Engine.Thresholds(),
		Logger:     logger,
	}, insight.Catalogue()...)
	if err != nil {
		return nil, fmt.Errorf("building engine: %w", err)
	}

	d := &Deps{}
	var recorders telemetry.Fanout

	var loader source.Loader
	if cfg.Data.DatabaseURL.IsSet() {
		pool, err := db.NewPool(ctx, cfg.Data.DatabaseURL, db.PoolOptions{
			MaxConns:          cfg.Data.MaxConns,
			MinConns:          cfg.Data.MinConns,
			MaxConnLifetime:   cfg.Data.MaxConnLifetime,
			HealthCheckPeriod: cfg.Data.HealthCheckPeriod,
		})
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, pool.Close)
		repo := db.NewRowRepository(pool)
		loader = repo
		recorders = append(recorders, db.NewRunRepository(pool, types.RealClock{}, logger))
		d.Probes = append(d.Probes, core.ProbeFunc{ProbeName: "database", Fn: datasetProbe(repo, cfg.Data.Dataset)})
		logger.Info("row source: postgres", "dataset", cfg.Data.Dataset)
	} else {
		loader = source.NewFileSource(cfg.Data.SnapshotPath, logger)
		logger.Info("row source: snapshot", "path", cfg.Data.SnapshotPath, "dataset", cfg.Data.Dataset)
	}

	breaker := source.NewBreaker(loader, source.BreakerSettings{
		Name:             "row-source",
		FailureThreshold: cfg.Data.SourceFailureThreshold,
		OpenTimeout:      cfg.Data.SourceOpenTimeout,
	}, logger)
	d.Probes = append(d.Probes, core.ProbeFunc{ProbeName: "row_source", Fn: func(context.Context) error {
		if breaker.State() == gobreaker.StateOpen {
			return errors.New("circuit open")
		}
		return nil
	}})

	if cfg.Observability.EnableMetrics {
		awsCfg, err := LoadAWS(ctx, cfg.AWS)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.Metrics = telemetry.NewCloudWatchRecorder(
			cloudwatch.NewFromConfig(awsCfg),
			cfg.Observability.MetricNamespace,
			types.NewSlogAdapter(logger),
		)
		recorders = append(recorders, d.Metrics)
	}

	var recorder insight.RunRecorder = telemetry.NopRecorder{}
	if len(recorders) > 0 {
		recorder = recorders
	}
	d.Service = insight.NewService(engine, breaker, recorder, cfg.Data.Dataset, logger)
	return d, nil
}

// datasetProbe fails when the database is unreachable or holds no
// observations for dataset.
func datasetProbe(repo *db.RowRepository, dataset string) func(context.Context) error {
	return func(ctx context.Context) error {
		counts, err := repo.Datasets(ctx)
		if err != nil {
			return err
		}
		if counts[dataset] == 0 {
			return fmt.Errorf("dataset %q has no observations", dataset)
		}
		return nil
	}
}
