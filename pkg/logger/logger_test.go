package logger

import (
	"testing"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"go.uber.org/zap/zapcore"
)

func TestParseZapLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"Warn":    zapcore.WarnLevel,
		"ERROR":   zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
	}

	for in, want := range tests {
		if got := parseZapLevel(in); got != want {
			t.Fatalf("parseZapLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestToHlogLevel(t *testing.T) {
	if got := toHlogLevel(zapcore.WarnLevel); got != hlog.LevelWarn {
		t.Fatalf("expected hlog warn, got %v", got)
	}
	if got := toHlogLevel(zapcore.DPanicLevel); got != hlog.LevelInfo {
		t.Fatalf("expected fallback to info, got %v", got)
	}
}

func TestNamed_BeforeInit(t *testing.T) {
	l := Named("dispatch")
	if l == nil {
		t.Fatalf("expected non-nil logger")
	}
	l.Info("no-op before init")
}
