package logging_test

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/nutriscan/nutriscan/internal/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := logging.ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := logging.New("warn", format, "nutriscand")
		if err != nil {
			t.Fatalf("New(%s) error: %v", format, err)
		}
		if logger.Core().Enabled(zapcore.InfoLevel) {
			t.Errorf("%s logger should not enable info at warn level", format)
		}
		if !logger.Core().Enabled(zapcore.ErrorLevel) {
			t.Errorf("%s logger should enable error at warn level", format)
		}
	}
}
