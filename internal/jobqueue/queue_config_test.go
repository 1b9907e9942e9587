package jobqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetQueueConfigPerEnvironment(t *testing.T) {
	t.Setenv("EXPRESS_SERVER__ENVIRONMENT", "development")
	dev := GetQueueConfig()
	assert.Equal(t, 2, dev.MaxWorkers)
	assert.Equal(t, 2, dev.MaxRetries)

	t.Setenv("EXPRESS_SERVER__ENVIRONMENT", "production")
	prod := GetQueueConfig()
	assert.Equal(t, 10, prod.MaxWorkers)

	t.Setenv("EXPRESS_SERVER__ENVIRONMENT", "")
	def := GetQueueConfig()
	assert.Equal(t, 8, def.MaxRetries)
}

func TestInsertOptsCarryConfiguredRetries(t *testing.T) {
	assert.Equal(t, 2, DevelopmentQueueConfig().InsertOpts().MaxAttempts)
	assert.Equal(t, 8, DefaultQueueConfig().InsertOpts().MaxAttempts)
}
