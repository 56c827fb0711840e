package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvPipelineClassifyGate    = "COTEJO_PIPELINE_CLASSIFY_GATE"
	EnvPipelineAcceptThreshold = "COTEJO_PIPELINE_ACCEPT_THRESHOLD"
	EnvPipelineMediumRatio     = "COTEJO_PIPELINE_MEDIUM_RATIO"
	EnvPipelineRegionWorkers   = "COTEJO_PIPELINE_REGION_WORKERS"
	EnvPipelineRequestRate     = "COTEJO_PIPELINE_REQUEST_RATE"
	EnvPipelineRequestBurst    = "COTEJO_PIPELINE_REQUEST_BURST"

	EnvBatchWorkers     = "COTEJO_BATCH_WORKERS"
	EnvBatchMaxAttempts = "COTEJO_BATCH_MAX_ATTEMPTS"
	EnvBatchBaseDelay   = "COTEJO_BATCH_BASE_DELAY"
	EnvBatchMaxDelay    = "COTEJO_BATCH_MAX_DELAY"
)

// PipelineConfig holds the extraction pipeline thresholds and the request
// rate cap applied to the vision backend.
type PipelineConfig struct {
	ClassifyGate    float64 `toml:"classify_gate"`
	AcceptThreshold float64 `toml:"accept_threshold"`
	MediumRatio     float64 `toml:"medium_ratio"`
	RegionWorkers   int     `toml:"region_workers"`
	RequestRate     float64 `toml:"request_rate"`
	RequestBurst    int     `toml:"request_burst"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.ClassifyGate != 0 {
		c.ClassifyGate = overlay.ClassifyGate
	}
	if overlay.AcceptThreshold != 0 {
		c.AcceptThreshold = overlay.AcceptThreshold
	}
	if overlay.MediumRatio != 0 {
		c.MediumRatio = overlay.MediumRatio
	}
	if overlay.RegionWorkers != 0 {
		c.RegionWorkers = overlay.RegionWorkers
	}
	if overlay.RequestRate != 0 {
		c.RequestRate = overlay.RequestRate
	}
	if overlay.RequestBurst != 0 {
		c.RequestBurst = overlay.RequestBurst
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.ClassifyGate == 0 {
		c.ClassifyGate = 0.70
	}
	if c.AcceptThreshold == 0 {
		c.AcceptThreshold = 0.85
	}
	if c.MediumRatio == 0 {
		c.MediumRatio = 0.75
	}
	if c.RegionWorkers == 0 {
		c.RegionWorkers = 4
	}
	if c.RequestRate == 0 {
		c.RequestRate = 2
	}
	if c.RequestBurst == 0 {
		c.RequestBurst = 4
	}
}

func (c *PipelineConfig) loadEnv() {
	setFloat(EnvPipelineClassifyGate, &c.ClassifyGate)
	setFloat(EnvPipelineAcceptThreshold, &c.AcceptThreshold)
	setFloat(EnvPipelineMediumRatio, &c.MediumRatio)
	setInt(EnvPipelineRegionWorkers, &c.RegionWorkers)
	setFloat(EnvPipelineRequestRate, &c.RequestRate)
	setInt(EnvPipelineRequestBurst, &c.RequestBurst)
}

func (c *PipelineConfig) validate() error {
	for name, v := range map[string]float64{
		"classify_gate":    c.ClassifyGate,
		"accept_threshold": c.AcceptThreshold,
		"medium_ratio":     c.MediumRatio,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0, 1]: %v", name, v)
		}
	}
	if c.RegionWorkers < 1 {
		return fmt.Errorf("region_workers must be positive: %d", c.RegionWorkers)
	}
	if c.RequestRate <= 0 {
		return fmt.Errorf("request_rate must be positive: %v", c.RequestRate)
	}
	return nil
}

// BatchConfig holds the batch executor's pool size and retry policy.
type BatchConfig struct {
	Workers     int    `toml:"workers"`
	MaxAttempts int    `toml:"max_attempts"`
	BaseDelay   string `toml:"base_delay"`
	MaxDelay    string `toml:"max_delay"`
}

// BaseDelayDuration returns BaseDelay as a time.Duration.
func (c *BatchConfig) BaseDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.BaseDelay)
	return d
}

// MaxDelayDuration returns MaxDelay as a time.Duration.
func (c *BatchConfig) MaxDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.MaxDelay)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *BatchConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *BatchConfig) Merge(overlay *BatchConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.BaseDelay != "" {
		c.BaseDelay = overlay.BaseDelay
	}
	if overlay.MaxDelay != "" {
		c.MaxDelay = overlay.MaxDelay
	}
}

func (c *BatchConfig) loadDefaults() {
	if c.Workers == 0 {
		c.Workers = 2
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay == "" {
		c.BaseDelay = "1s"
	}
	if c.MaxDelay == "" {
		c.MaxDelay = "30s"
	}
}

func (c *BatchConfig) loadEnv() {
	setInt(EnvBatchWorkers, &c.Workers)
	setInt(EnvBatchMaxAttempts, &c.MaxAttempts)
	if v := os.Getenv(EnvBatchBaseDelay); v != "" {
		c.BaseDelay = v
	}
	if v := os.Getenv(EnvBatchMaxDelay); v != "" {
		c.MaxDelay = v
	}
}

func (c *BatchConfig) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", c.Workers)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be positive: %d", c.MaxAttempts)
	}
	if _, err := time.ParseDuration(c.BaseDelay); err != nil {
		return fmt.Errorf("invalid base_delay: %w", err)
	}
	if _, err := time.ParseDuration(c.MaxDelay); err != nil {
		return fmt.Errorf("invalid max_delay: %w", err)
	}
	return nil
}

func setFloat(envVar string, target *float64) {
	if v := os.Getenv(envVar); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}

func setInt(envVar string, target *int) {
	if v := os.Getenv(envVar); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}
