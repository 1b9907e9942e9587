package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/expresslang/express/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8000
	cfg.Auth.JWTSecret = "test-secret"
	cfg.OpenAI.APIKey = "sk-test"
	cfg.RateLimit.Requests = 100
	cfg.RateLimit.PeriodSeconds = 60
	cfg.Timeouts.ExternalSeconds = 30
	cfg.Timeouts.AuthSeconds = 5
	return cfg
}

func TestNewServerBoundsOutboundClient(t *testing.T) {
	server, err := NewServer(testConfig(), nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 30*time.Second, server.web.Timeout)
}
