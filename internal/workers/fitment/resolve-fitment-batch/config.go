package resolvefitmentbatch

import (
	"fmt"
	"time"

	"fitment-workers/internal/common/config"
	"fitment-workers/internal/models"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MinConfidence float64       `mapstructure:"min_confidence"`
	MaxBatchSize  int           `mapstructure:"max_batch_size"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 2,
		Timeout:       60 * time.Second,
		MinConfidence: models.DefaultMinConfidence,
		MaxBatchSize:  1000,
	}
}

func FromAppConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	out := DefaultConfig()
	out.Enabled = wc.Enabled
	out.MaxJobsActive = wc.MaxJobsActive
	out.Timeout = config.GetDuration(wc.Timeout)
	out.MinConfidence = cfg.Fitment.MinConfidence
	return out
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive")
	}
	return nil
}
