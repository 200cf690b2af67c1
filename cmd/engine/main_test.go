package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mailfleet/mailfleet/config"
	"github.com/Mailfleet/mailfleet/pkg/logger"
)

func TestRunEngine_FailsFastWithoutDatabase(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "localhost", Port: 8090},
		Database: config.DatabaseConfig{
			Host:    "127.0.0.1",
			Port:    1, // nothing listens here
			User:    "mailfleet",
			DBName:  "mailfleet_test",
			SSLMode: "disable",
		},
		Security:    config.SecurityConfig{SecretKey: "test-secret"},
		Environment: "development",
		LogLevel:    "disabled",
		Version:     "test",
	}

	done := make(chan error, 1)
	go func() {
		done <- runEngine(cfg, logger.NewTestLogger(t))
	}()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("runEngine did not fail within 30s")
	}
}

func TestOSExitIsMockable(t *testing.T) {
	old := osExit
	defer func() { osExit = old }()

	var code int
	osExit = func(c int) { code = c }
	osExit(1)
	assert.Equal(t, 1, code)
}
