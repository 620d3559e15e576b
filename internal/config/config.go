// Package config defines the process configuration. It is loaded once at
// start-up and is immutable thereafter; engine thresholds and appraisal
// constants are converted into value types and handed to the engine, which
// never reads the environment itself.
//
// Values are resolved as: OS environment (highest) -> .env file -> defaults.
// Any missing required value or invalid format fails start-up.
package config

import (
	"time"

	"transitinsight/internal/formulas"
	"transitinsight/internal/types"
)

// SecretString is an alias for types.SecretString so config consumers do
// not import types just for the field type.
type SecretString = types.SecretString

// Config is the top-level configuration.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Data          DataConfig
	AWS           AWSConfig
	Observability ObservabilityConfig
	Engine        EngineConfig
	Appraisal     AppraisalConfig

	// Build is injected via ldflags, not the environment.
	Build BuildInfo `ignored:"true"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxReportSize   int           `envconfig:"MAX_REPORT_SECTIONS" default:"10" validate:"gte=1"`
}

// DataConfig selects the row source. At least one of DatabaseURL and
// SnapshotPath must be set; the database wins when both are.
type DataConfig struct {
	DatabaseURL  SecretString `envconfig:"DATABASE_URL"`
	SnapshotPath string       `envconfig:"SNAPSHOT_PATH"`
	Dataset      string       `envconfig:"DATASET" default:"bus_stops" validate:"required"`

	MaxConns          int32         `envconfig:"DB_MAX_CONNS" default:"10" validate:"gte=1"`
	MinConns          int32         `envconfig:"DB_MIN_CONNS" default:"1" validate:"gte=0"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`

	// SourceFailureThreshold trips the row-source breaker after this many
	// consecutive failures.
	SourceFailureThreshold uint32        `envconfig:"SOURCE_FAILURE_THRESHOLD" default:"5" validate:"gte=1"`
	SourceOpenTimeout      time.Duration `envconfig:"SOURCE_OPEN_TIMEOUT" default:"30s"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"eu-west-2"`
	// ResultsQueueURL receives payloads produced by the narrative worker.
	ResultsQueueURL string `envconfig:"SQS_NARRATIVE_RESULTS" validate:"omitempty,url"`
	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL" validate:"omitempty,url"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"TransitInsight"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"false"`
}

// EngineConfig holds the evidence thresholds. The defaults are pragmatic
// rather than authoritative, so every one can be overridden.
type EngineConfig struct {
	MinCorrelationN   int     `envconfig:"MIN_CORRELATION_N" default:"30"`
	SignificanceLevel float64 `envconfig:"SIGNIFICANCE_LEVEL" default:"0.05"`
	VariationRatio    float64 `envconfig:"VARIATION_RATIO" default:"2.0"`
	OutlierZ          float64 `envconfig:"OUTLIER_Z" default:"2.0"`
	GiniThreshold     float64 `envconfig:"GINI_THRESHOLD" default:"0.2"`
	MinShortfall      float64 `envconfig:"MIN_SHORTFALL" default:"0.5"`
	MinRankingGroups  int     `envconfig:"MIN_RANKING_GROUPS" default:"3"`
	MaxOutliers       int     `envconfig:"MAX_OUTLIERS" default:"3"`
	InLineTolerance   float64 `envconfig:"IN_LINE_TOLERANCE" default:"0.005"`
}

// Thresholds converts to the immutable value the engine consumes.
func (e EngineConfig) Thresholds() formulas.Thresholds {
	return formulas.Thresholds{
		MinCorrelationN:   e.MinCorrelationN,
		SignificanceLevel: e.SignificanceLevel,
		VariationRatio:    e.VariationRatio,
		OutlierZ:          e.OutlierZ,
		GiniThreshold:     e.GiniThreshold,
		MinShortfall:      e.MinShortfall,
		MinRankingGroups:  e.MinRankingGroups,
		MaxOutliers:       e.MaxOutliers,
		InLineTolerance:   e.InLineTolerance,
	}
}

// AppraisalConfig holds the monetary constants table (DfT TAG values).
type AppraisalConfig struct {
	VoTCommuteGBPHour     float64 `envconfig:"VOT_COMMUTE_GBP_HOUR" default:"12.65"`
	VoTOtherGBPHour       float64 `envconfig:"VOT_OTHER_GBP_HOUR" default:"5.77"`
	CommuteShare          float64 `envconfig:"COMMUTE_SHARE" default:"0.3"`
	DiscountRate          float64 `envconfig:"DISCOUNT_RATE" default:"0.035"`
	AppraisalYears        int     `envconfig:"APPRAISAL_YEARS" default:"60"`
	StopUnitCostGBP       float64 `envconfig:"STOP_UNIT_COST_GBP" default:"25000"`
	HoursSavedPerStopYear float64 `envconfig:"HOURS_SAVED_PER_STOP_YEAR" default:"1300"`
}

// Constants converts to the immutable value the engine consumes.
func (a AppraisalConfig) Constants() formulas.Constants {
	return formulas.Constants{
		VoTCommuteGBPHour:     a.VoTCommuteGBPHour,
		VoTOtherGBPHour:       a.VoTOtherGBPHour,
		CommuteShare:          a.CommuteShare,
		DiscountRate:          a.DiscountRate,
		AppraisalYears:        a.AppraisalYears,
		StopUnitCostGBP:       a.StopUnitCostGBP,
		HoursSavedPerStopYear: a.HoursSavedPerStopYear,
	}
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates an environment value could not be parsed into
	// its target type.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrNoRowSource indicates neither a database nor a snapshot was configured.
	ErrNoRowSource ConfigErrorType = "NO_ROW_SOURCE"
)
