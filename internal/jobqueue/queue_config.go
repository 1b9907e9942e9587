/*
Package jobqueue configuration - tunable parameters for the audio job queue.

Tuning notes:
  - MaxWorkers bounds concurrent TTS calls; the OpenAI audio API rate limit
    is the real ceiling, so keep this modest.
  - MaxRetries is low: a synthesis that fails repeatedly is almost always a
    bad input, not a transient fault.
  - Failed jobs retain their error information in the River jobs table.
*/
package jobqueue

import (
	"os"
	"time"

	"github.com/riverqueue/river"
)

// QueueConfig holds all configurable parameters for the job queue
type QueueConfig struct {
	// Number of concurrent workers processing synthesis jobs
	MaxWorkers int

	// Maximum retry attempts per job
	MaxRetries int

	// Maximum time a single synthesis job can run
	JobTimeout time.Duration
}

// DefaultQueueConfig returns the default configuration
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		MaxWorkers: 5,
		MaxRetries: 8,
		JobTimeout: 2 * time.Minute,
	}
}

// ProductionQueueConfig returns a configuration optimized for production use
func ProductionQueueConfig() *QueueConfig {
	config := DefaultQueueConfig()
	config.MaxWorkers = 10
	config.JobTimeout = 5 * time.Minute
	return config
}

// DevelopmentQueueConfig returns a configuration optimized for development
func DevelopmentQueueConfig() *QueueConfig {
	config := DefaultQueueConfig()
	config.MaxWorkers = 2
	config.MaxRetries = 2
	config.JobTimeout = 1 * time.Minute
	return config
}

// GetQueueConfig returns the configuration for the current environment.
func GetQueueConfig() *QueueConfig {
	switch os.Getenv("EXPRESS_SERVER__ENVIRONMENT") {
	case "production":
		return ProductionQueueConfig()
	case "development":
		return DevelopmentQueueConfig()
	default:
		return DefaultQueueConfig()
	}
}

// InsertOpts caps retry attempts per inserted job; repeated synthesis
// failures are almost always a bad input rather than a transient fault.
func (c *QueueConfig) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: c.MaxRetries}
}

// RiverQueueConfig converts our config to River's queue configuration format
func (c *QueueConfig) RiverQueueConfig() map[string]river.QueueConfig {
	return map[string]river.QueueConfig{
		river.QueueDefault: {
			MaxWorkers: c.MaxWorkers,
		},
	}
}
