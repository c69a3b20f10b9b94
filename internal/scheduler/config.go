package scheduler

import (
	"time"
)

// Config controls scheduler intervals and job selection.
type Config struct {
	// RunInterval is how often the run loop wakes up to check for
	// due jobs. Job intervals below round up to this granularity.
	RunInterval time.Duration

	SyncInterval       time.Duration
	AlertCheckInterval time.Duration

	SyncTimeout       time.Duration
	AlertCheckTimeout time.Duration

	// LockTTL bounds how long a replica may hold a job lock.
	LockTTL time.Duration

	// EnabledJobs restricts which jobs this instance runs. Empty
	// means all jobs (monolith mode).
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:        time.Minute,
		SyncInterval:       time.Hour,
		AlertCheckInterval: 6 * time.Hour,
		SyncTimeout:        10 * time.Minute,
		AlertCheckTimeout:  2 * time.Minute,
		LockTTL:            15 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.SyncInterval <= 0 {
		c.SyncInterval = defaults.SyncInterval
	}
	if c.AlertCheckInterval <= 0 {
		c.AlertCheckInterval = defaults.AlertCheckInterval
	}
	if c.SyncTimeout <= 0 {
		c.SyncTimeout = defaults.SyncTimeout
	}
	if c.AlertCheckTimeout <= 0 {
		c.AlertCheckTimeout = defaults.AlertCheckTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}
