package logger

import (
	"can-dbc-catalog/internal/config"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		cfg       config.LogConfig
		wantLevel zapcore.Level
	}{
		{config.LogConfig{Level: "debug", Encoding: "json"}, zapcore.DebugLevel},
		{config.LogConfig{Level: "WARN", Encoding: "console"}, zapcore.WarnLevel},
		{config.LogConfig{Level: "nonsense", Encoding: "xml"}, zapcore.InfoLevel},
	}

	for _, tt := range tests {
		log, err := New(tt.cfg)
		if err != nil {
			t.Fatalf("New(%+v) error = %v", tt.cfg, err)
		}
		if log.Level() != tt.wantLevel {
			t.Errorf("New(%+v).Level() = %v, want %v", tt.cfg, log.Level(), tt.wantLevel)
		}
	}
}
