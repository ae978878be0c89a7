package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{seconds: 0, want: "N/A"},
		{seconds: -5, want: "N/A"},
		{seconds: 59, want: "0m"},
		{seconds: 60, want: "1m"},
		{seconds: 3600, want: "1h 0m"},
		{seconds: 3*3600 + 25*60, want: "3h 25m"},
		{seconds: 86400, want: "1d 0m"},
		{seconds: 2*86400 + 5*3600 + 7*60 + 30, want: "2d 5h 7m"},
		{seconds: 86400 + 120, want: "1d 2m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.seconds), "seconds=%d", tt.seconds)
	}
}
