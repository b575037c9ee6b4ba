package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		level   string
		want    zapcore.Level
		wantErr bool
	}{
		{name: "console default", format: "", level: "", want: zapcore.InfoLevel},
		{name: "json debug", format: "json", level: "debug", want: zapcore.DebugLevel},
		{name: "console warn", format: "Console", level: "warn", want: zapcore.WarnLevel},
		{name: "unknown format", format: "xml", wantErr: true},
		{name: "unknown level", format: "json", level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.format, tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want))
			assert.False(t, logger.Core().Enabled(tt.want-1))
		})
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
