package observability

import (
	"context"
	"testing"

	"glyphbridge/internal/telemetry"
)

func TestDisabledLaunchIsNoop(t *testing.T) {
	cfg := Config{}
	if cfg.Enabled() {
		t.Fatalf("expected zero config to be disabled")
	}
	called := false
	Launch(context.Background(), cfg, telemetry.LoggerFunc(func(string, ...any) { called = true }))
	if called {
		t.Fatalf("expected no log line when disabled")
	}
	if !(Config{StatsviewAddr: "localhost:0"}).Enabled() {
		t.Fatalf("expected address to enable the viewer")
	}
}
