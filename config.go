package coproc

import (
	"fmt"
	"time"

	"github.com/viant/coproc/policy"
)

// Config is a serialisable representation of the runtime configuration. It
// can be populated from JSON, YAML, environment variables, etc. The
// zero-value is useful – all nested fields inherit their package defaults.
type Config struct {
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Policy    *policy.Config  `json:"policy,omitempty" yaml:"policy,omitempty"`
	// StatsSampleInterval controls how often processor snapshots are taken
	// and persisted via the stats DAO. Zero disables periodic sampling.
	StatsSampleInterval time.Duration `json:"statsSampleInterval,omitempty" yaml:"statsSampleInterval,omitempty"`
}

// SchedulerConfig configures the processor pool a Scheduler owns.
type SchedulerConfig struct {
	Workers          int           `json:"workers" yaml:"workers"`
	WatchdogInterval time.Duration `json:"watchdogInterval,omitempty" yaml:"watchdogInterval,omitempty"`
	StealBatch       int           `json:"stealBatch,omitempty" yaml:"stealBatch,omitempty"`
}

// DefaultConfig returns a Config with 8 workers, the pool size New uses
// when WithWorkers is not given, and a 5-second StatsSampleInterval.
// WatchdogInterval and StealBatch are left zero.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			Workers: 8,
		},
		StatsSampleInterval: 5 * time.Second,
	}
}

// Validate returns an aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Scheduler.Workers <= 0 {
		return fmt.Errorf("scheduler.workers must be > 0")
	}
	if c.Scheduler.StealBatch < 0 {
		return fmt.Errorf("scheduler.stealBatch must be >= 0")
	}
	return nil
}
