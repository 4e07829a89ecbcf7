package scheduler

import "time"

// Config holds the dispatch worker configuration.
type Config struct {
	PollInterval  time.Duration `env:"SCHEDULER_POLL_INTERVAL" envDefault:"5s"`
	LockTimeout   time.Duration `env:"SCHEDULER_LOCK_TIMEOUT" envDefault:"5m"`
	MaxConcurrent int           `env:"SCHEDULER_MAX_CONCURRENT" envDefault:"10"`
	ClaimLimit    int           `env:"SCHEDULER_CLAIM_LIMIT" envDefault:"10"`
}
