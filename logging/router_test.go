package logging_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"glyphbridge/logging"
	"glyphbridge/logging/pipeline"
	"glyphbridge/logging/sinks"
)

func newTestRouter(t *testing.T, cfg logging.Config) (*logging.Router, *sinks.MemorySink) {
	t.Helper()
	memory := sinks.NewMemorySink()
	cfg.EnabledSinks = []string{"memory"}
	router, err := logging.NewRouter(cfg, logging.ClockFunc(func() time.Time { return time.Unix(1, 0) }), log.New(io.Discard, "", 0), map[string]logging.Sink{
		"memory":  memory,
		"console": sinks.NewConsole(io.Discard),
	})
	if err != nil {
		t.Fatalf("failed to construct router: %v", err)
	}
	return router, memory
}

func TestRouterDeliversToEnabledSinks(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"service": "glyphbridge"}
	router, memory := newTestRouter(t, cfg)

	pipeline.ROMLoaded(context.Background(), router, "session-1", pipeline.ROMPayload{Source: "file://rom.gb", Bytes: 32768})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close router: %v", err)
	}

	events := memory.EventsOfType(pipeline.EventROMLoaded)
	if len(events) != 1 {
		t.Fatalf("expected 1 rom event, got %d", len(events))
	}
	event := events[0]
	if event.Category != logging.CategoryPipeline {
		t.Fatalf("expected pipeline category, got %q", event.Category)
	}
	if event.Extra["service"] != "glyphbridge" {
		t.Fatalf("expected router fields to be applied, got %+v", event.Extra)
	}
	if !event.Time.Equal(time.Unix(1, 0)) {
		t.Fatalf("expected router clock to stamp the event, got %v", event.Time)
	}
	if stats := router.Stats(); stats.EventsTotal != 1 {
		t.Fatalf("expected 1 routed event, got %d", stats.EventsTotal)
	}
	if got := router.Metrics().Snapshot()["log_events_info"]; got != 1 {
		t.Fatalf("expected info counter 1, got %d", got)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	router, memory := newTestRouter(t, logging.DefaultConfig())

	pipeline.TickRendered(context.Background(), router, 3, "session-1", pipeline.TickPayload{Edits: 10})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close router: %v", err)
	}
	if events := memory.Events(); len(events) != 0 {
		t.Fatalf("expected debug event to be filtered, got %d events", len(events))
	}
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("expected second close to be a no-op, got %v", err)
	}
}

func TestRouterRejectsMissingSink(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"json"}
	if _, err := logging.NewRouter(cfg, nil, nil, map[string]logging.Sink{}); err == nil {
		t.Fatalf("expected missing sink to fail construction")
	}
}

func TestParseSeverity(t *testing.T) {
	if sev, err := logging.ParseSeverity("WARN"); err != nil || sev != logging.SeverityWarn {
		t.Fatalf("expected warn severity, got %v (%v)", sev, err)
	}
	if _, err := logging.ParseSeverity("loud"); err == nil {
		t.Fatalf("expected unknown severity to fail")
	}
}
