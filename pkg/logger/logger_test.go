package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		env     string
		debugOn bool
	}{
		{env: "dev", debugOn: true},
		{env: "prod", debugOn: false},
		{env: "", debugOn: true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			log, err := NewLogger(tt.env)

			require.NoError(t, err)
			assert.Equal(t, tt.debugOn, log.Core().Enabled(zapcore.DebugLevel))
		})
	}
}
