package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"warning", log.WarnLevel},
		{" error ", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"", log.WarnLevel},
		{"chatty", log.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestConfigureOnlyOnce(t *testing.T) {
	t.Setenv("WAYPICK_LOG_LEVEL", "")
	var buf bytes.Buffer

	Configure(Options{Quiet: true, Output: &buf})
	assert.Equal(t, log.ErrorLevel, Logger.GetLevel())

	Configure(Options{Verbose: true})
	assert.Equal(t, log.ErrorLevel, Logger.GetLevel(), "second Configure must be ignored")

	Warn("dropped")
	Error("kept", "key", "value")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
	assert.Contains(t, buf.String(), "key=value")
}
