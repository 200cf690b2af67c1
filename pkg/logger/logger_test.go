package logger

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// captureOutput redirects stdout for the duration of f and returns what was written.
func captureOutput(f func()) string {
	oldStdout := os.Stdout

	r, w, _ := os.Pipe()
	os.Stdout = w

	outputChan := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outputChan <- buf.String()
	}()

	f()

	w.Close()
	os.Stdout = oldStdout

	return <-outputChan
}

func TestNewLogger(t *testing.T) {
	log := NewLogger()
	assert.NotNil(t, log)
	assert.IsType(t, &zerologLogger{}, log)
}

func TestLogLevels(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	tests := []struct {
		name    string
		logFunc func(Logger, string)
		level   string
	}{
		{"debug", func(l Logger, msg string) { l.Debug(msg) }, "debug"},
		{"info", func(l Logger, msg string) { l.Info(msg) }, "info"},
		{"warn", func(l Logger, msg string) { l.Warn(msg) }, "warn"},
		{"error", func(l Logger, msg string) { l.Error(msg) }, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureOutput(func() {
				tt.logFunc(NewLogger(), tt.name+" message")
			})

			assert.Contains(t, output, tt.name+" message")
			assert.Contains(t, output, `"level":"`+tt.level+`"`)
		})
	}
}

// Fatal is not exercised here since it calls os.Exit.

func TestLogLevelFiltering(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	output := captureOutput(func() {
		NewLogger().Debug("debug should be filtered")
	})
	assert.NotContains(t, output, "debug should be filtered")

	output = captureOutput(func() {
		NewLogger().Info("info should be logged")
	})
	assert.Contains(t, output, "info should be logged")

	zerolog.SetGlobalLevel(zerolog.ErrorLevel)

	output = captureOutput(func() {
		NewLogger().Info("info should be filtered when level is error")
	})
	assert.NotContains(t, output, "info should be filtered when level is error")

	output = captureOutput(func() {
		NewLogger().Error("error should be logged")
	})
	assert.Contains(t, output, "error should be logged")
}

func TestNewLoggerWithLevel(t *testing.T) {
	tests := []struct {
		name          string
		level         string
		expectedLevel zerolog.Level
	}{
		{"debug level", "debug", zerolog.DebugLevel},
		{"info level", "info", zerolog.InfoLevel},
		{"warn level", "warn", zerolog.WarnLevel},
		{"warning alias", "warning", zerolog.WarnLevel},
		{"error level", "error", zerolog.ErrorLevel},
		{"fatal level", "fatal", zerolog.FatalLevel},
		{"panic level", "panic", zerolog.PanicLevel},
		{"disabled level", "disabled", zerolog.Disabled},
		{"off alias", "off", zerolog.Disabled},
		{"unknown level defaults to info", "unknown", zerolog.InfoLevel},
		{"empty string defaults to info", "", zerolog.InfoLevel},
		{"mixed case", "DEBUG", zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := NewLoggerWithLevel(tt.level)
			assert.NotNil(t, log)
			assert.IsType(t, &zerologLogger{}, log)
			assert.Equal(t, tt.expectedLevel, zerolog.GlobalLevel())
		})
	}
}

func TestWithField(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	output := captureOutput(func() {
		log := NewLogger().
			WithField("domain_id", "dom-1").
			WithField("pool", "active").
			WithField("attempt", 2)
		log.Info("message with fields")
	})

	assert.Contains(t, output, "message with fields")
	assert.Contains(t, output, `"domain_id":"dom-1"`)
	assert.Contains(t, output, `"pool":"active"`)
	assert.Contains(t, output, `"attempt":2`)
}

func TestWithFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	output := captureOutput(func() {
		log := NewLogger().WithFields(map[string]interface{}{
			"domain_id": "dom-42",
			"score":     88,
			"healthy":   true,
			"average":   76.5,
		})
		log.Info("message with multiple fields")
	})

	assert.Contains(t, output, "message with multiple fields")
	assert.Contains(t, output, `"domain_id":"dom-42"`)
	assert.Contains(t, output, `"score":88`)
	assert.Contains(t, output, `"healthy":true`)
	assert.Contains(t, output, `"average":76.5`)
}

func TestWithFieldsNilValue(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	output := captureOutput(func() {
		log := NewLogger().WithFields(map[string]interface{}{
			"nil_field":    nil,
			"string_field": "value",
		})
		log.Info("message with nil field")
	})

	assert.Contains(t, output, "message with nil field")
	assert.Contains(t, output, `"nil_field":null`)
	assert.Contains(t, output, `"string_field":"value"`)
}

func TestWithFieldReturnsNewInstance(t *testing.T) {
	original := NewLogger()

	withField := original.WithField("k", "v")
	assert.NotEqual(t, original, withField)

	withFields := original.WithFields(map[string]interface{}{"k": "v"})
	assert.NotEqual(t, original, withFields)

	// The original must stay free of the derived fields.
	output := captureOutput(func() {
		original.Info("plain message")
	})
	assert.NotContains(t, output, `"k":"v"`)
}

func TestTestLogger(t *testing.T) {
	log := NewTestLogger(t)
	assert.Same(t, log, log.WithField("k", "v"))
	assert.Same(t, log, log.WithFields(map[string]interface{}{"k": "v"}))

	// Nil T must not panic.
	quiet := &TestLogger{}
	quiet.Debug("d")
	quiet.Info("i")
	quiet.Warn("w")
	quiet.Error("e")
	quiet.Fatal("f")
}

func TestDiscardLogger(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	output := captureOutput(func() {
		log := NewDiscardLogger()
		log.Info("should not appear")
		log.Error("should not appear either")
	})

	assert.Empty(t, output)
}
