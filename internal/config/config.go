package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rshade/framebatch/internal/engine/batch"
	"github.com/rshade/framebatch/internal/engine/frame"
	"github.com/rshade/framebatch/internal/simulate"
)

// Schema versioning.
const (
	// CurrentSchemaVersion is written into new configuration files.
	CurrentSchemaVersion = "1.0.0"

	// supportedSchemaRange is the range of schema versions this build can read.
	supportedSchemaRange = "^1.0.0"
)

// Defaults.
const (
	DefaultBudgetMs      = 2.5
	DefaultFPS           = frame.DefaultFPS
	DefaultRetentionDays = 30
	DefaultServiceName   = "framebatch"
	DefaultGRPCAddr      = "127.0.0.1:50551"

	configFileName = "config.yaml"
)

// Configuration errors.
var (
	ErrUnsupportedSchema = errors.New("unsupported config schema version")
	ErrInvalidFPS        = errors.New("frame fps must be a finite, positive number")
	ErrInvalidMonitor    = errors.New("monitor thresholds cannot be negative")
	ErrInvalidLogging    = errors.New("invalid logging configuration")
	ErrInvalidRetention  = errors.New("history retention_days cannot be negative")
)

// Config is the framebatch configuration file.
type Config struct {
	SchemaVersion string              `yaml:"schema_version" json:"schema_version"`
	Batch         BatchConfig         `yaml:"batch"          json:"batch"`
	Frame         FrameConfig         `yaml:"frame"          json:"frame"`
	Monitor       batch.MonitorConfig `yaml:"monitor"        json:"monitor"`
	Workload      WorkloadConfig      `yaml:"workload"       json:"workload"`
	Logging       LoggingConfig       `yaml:"logging"        json:"logging"`
	History       HistoryConfig       `yaml:"history"        json:"history"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"      json:"telemetry"`

	// configPath is where the config was loaded from, if anywhere.
	configPath string
}

// BatchConfig configures the batch controller.
type BatchConfig struct {
	// BudgetMs is the per-frame dispatch budget in milliseconds.
	BudgetMs float64 `yaml:"budget_ms" json:"budget_ms" env:"FRAMEBATCH_BUDGET_MS"`

	// MaxJobsPerFrame caps jobs per dispatch pass; 0 disables the cap.
	MaxJobsPerFrame int `yaml:"max_jobs_per_frame" json:"max_jobs_per_frame" env:"FRAMEBATCH_MAX_JOBS_PER_FRAME"`

	Adaptive batch.AdaptiveConfig `yaml:"adaptive" json:"adaptive"`
}

// FrameConfig configures the frame loop.
type FrameConfig struct {
	FPS float64 `yaml:"fps" json:"fps" env:"FRAMEBATCH_FPS"`
}

// WorkloadConfig configures the simulated producers.
type WorkloadConfig struct {
	Seed      uint64                  `yaml:"seed"      json:"seed"`
	Producers []simulate.ProducerSpec `yaml:"producers" json:"producers"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level"  json:"level"  env:"FRAMEBATCH_LOG_LEVEL"`
	Format string `yaml:"format" json:"format" env:"FRAMEBATCH_LOG_FORMAT"`
	File   string `yaml:"file"   json:"file"   env:"FRAMEBATCH_LOG_FILE"`
}

// HistoryConfig configures run report persistence.
type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"        json:"enabled"        env:"FRAMEBATCH_HISTORY_ENABLED"`
	Dir           string `yaml:"dir"            json:"dir"            env:"FRAMEBATCH_HISTORY_DIR"`
	RetentionDays int    `yaml:"retention_days" json:"retention_days" env:"FRAMEBATCH_HISTORY_RETENTION_DAYS"`
}

// TelemetryConfig configures the health service and trace export.
type TelemetryConfig struct {
	GRPCAddr     string `yaml:"grpc_addr"     json:"grpc_addr"     env:"FRAMEBATCH_GRPC_ADDR"`
	OTLPEndpoint string `yaml:"otlp_endpoint" json:"otlp_endpoint" env:"FRAMEBATCH_OTEL_ENDPOINT"`
	OTLPInsecure bool   `yaml:"otlp_insecure" json:"otlp_insecure" env:"FRAMEBATCH_OTEL_INSECURE"`
	ServiceName  string `yaml:"service_name"  json:"service_name"  env:"FRAMEBATCH_SERVICE_NAME"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		SchemaVersion: CurrentSchemaVersion,
		Batch: BatchConfig{
			BudgetMs: DefaultBudgetMs,
			Adaptive: batch.DefaultAdaptiveConfig(),
		},
		Frame:   FrameConfig{FPS: DefaultFPS},
		Monitor: batch.DefaultMonitorConfig(),
		Workload: WorkloadConfig{
			Seed:      1,
			Producers: simulate.DefaultWorkload(),
		},
		Logging: LoggingConfig{
			Level:  zerolog.InfoLevel.String(),
			Format: "console",
		},
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: DefaultRetentionDays,
		},
		Telemetry: TelemetryConfig{
			GRPCAddr:    DefaultGRPCAddr,
			ServiceName: DefaultServiceName,
		},
	}
}

// DefaultConfigPath returns ~/.framebatch/config.yaml, honoring FRAMEBATCH_HOME.
func DefaultConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the configuration at path on top of the defaults and applies
// environment overrides. A missing file yields the defaults. An empty path
// means DefaultConfigPath.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := New()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, unmarshalErr)
		}
		cfg.configPath = path
	}

	if envErr := cfg.ApplyEnv(); envErr != nil {
		return nil, envErr
	}
	return cfg, nil
}

// Path returns the file the config was loaded from, or "" for defaults.
func (c *Config) Path() string {
	return c.configPath
}

// Save writes the config as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("writing config file %s: %w", path, writeErr)
	}
	c.configPath = path
	return nil
}

// ApplyEnv overrides fields from FRAMEBATCH_* environment variables. Only
// variables that are set change the config.
func (c *Config) ApplyEnv() error {
	sections := []any{&c.Batch, &c.Frame, &c.Monitor, &c.Logging, &c.History, &c.Telemetry}
	for _, section := range sections {
		if err := env.Parse(section); err != nil {
			return fmt.Errorf("parse env: %w", err)
		}
	}
	return nil
}

// Validate checks every section and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error

	if err := checkSchemaVersion(c.SchemaVersion); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Budget(); err != nil {
		errs = append(errs, err)
	}
	if c.Batch.MaxJobsPerFrame < 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", batch.ErrInvalidJobsCap, c.Batch.MaxJobsPerFrame))
	}
	if err := c.Batch.Adaptive.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := frame.IntervalFromFPS(c.Frame.FPS); err != nil {
		errs = append(errs, fmt.Errorf("%w: got %v", ErrInvalidFPS, c.Frame.FPS))
	}
	if c.Monitor.OverrunAlertFrames < 0 || c.Monitor.StarvationFrames < 0 {
		errs = append(errs, fmt.Errorf("%w: got overrun_alert_frames=%d starvation_frames=%d",
			ErrInvalidMonitor, c.Monitor.OverrunAlertFrames, c.Monitor.StarvationFrames))
	}
	for _, p := range c.Workload.Producers {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.Logging.validate(); err != nil {
		errs = append(errs, err)
	}
	if c.History.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidRetention, c.History.RetentionDays))
	}

	return errors.Join(errs...)
}

// Budget returns the validated per-frame budget.
func (c *Config) Budget() (time.Duration, error) {
	return batch.BudgetFromMillis(c.Batch.BudgetMs)
}

// ControllerOptions returns the batch options described by the config.
func (c *Config) ControllerOptions() ([]batch.Option, error) {
	budget, err := c.Budget()
	if err != nil {
		return nil, err
	}
	return []batch.Option{
		batch.WithBudget(budget),
		batch.WithMaxJobsPerFrame(c.Batch.MaxJobsPerFrame),
		batch.WithAdaptiveBudget(c.Batch.Adaptive),
	}, nil
}

func (lc LoggingConfig) validate() error {
	if lc.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(lc.Level)); err != nil {
			return fmt.Errorf("%w: level %q", ErrInvalidLogging, lc.Level)
		}
	}
	switch lc.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: format must be json or console, got %q", ErrInvalidLogging, lc.Format)
	}
	return nil
}

func checkSchemaVersion(version string) error {
	if version == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q is not a semantic version", ErrUnsupportedSchema, version)
	}
	constraint, err := semver.NewConstraint(supportedSchemaRange)
	if err != nil {
		return fmt.Errorf("parsing schema constraint: %w", err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: got %s, want %s", ErrUnsupportedSchema, version, supportedSchemaRange)
	}
	return nil
}
