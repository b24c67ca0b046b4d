// Package app wires configuration, logging, the session and its transports
// into a running bridge.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"glyphbridge"
	"glyphbridge/internal/codec"
	"glyphbridge/internal/controller"
	"glyphbridge/internal/editid"
	"glyphbridge/internal/frames"
	"glyphbridge/internal/grid"
	"glyphbridge/internal/net/canvas"
	"glyphbridge/internal/net/diag"
	"glyphbridge/internal/observability"
	"glyphbridge/internal/telemetry"
	"glyphbridge/logging"
	loggingSinks "glyphbridge/logging/sinks"
)

const shutdownTimeout = 5 * time.Second

// Run blocks until ctx ends or the canvas connection fails fatally. A ROM
// that cannot be fetched or loaded at startup is returned as an error.
func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	fallbackLogger := log.Default()
	if provider, ok := telemetryLogger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sinks := map[string]logging.Sink{
		"console": loggingSinks.NewConsole(os.Stdout),
	}
	if path := cfg.Logging.JSON.FilePath; path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open json log %s: %w", path, err)
		}
		sinks["json"] = loggingSinks.NewJSON(file, cfg.Logging.JSON.FlushInterval)
	}

	router, err := logging.NewRouter(cfg.Logging, logging.SystemClock{}, fallbackLogger, sinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()
	metrics := telemetry.WrapMetrics(router.Metrics())

	policy, _ := codec.PolicyByName(cfg.Policy)
	order, _ := codec.ParseChannelOrder(cfg.ChannelOrder)
	geometry, _ := codec.NewGeometry(cfg.Width, cfg.Height, policy)

	var emu frames.Emulator
	switch cfg.Source {
	case SourceStill:
		emu = frames.NewStillImage(cfg.Width, cfg.Height, order, nil)
	default:
		emu = frames.NewTestCard(cfg.Width, cfg.Height, order)
	}

	var loader glyphbridge.Loader
	var rom []byte
	if cfg.ROMURL != "" {
		fetcher := frames.Fetcher{Source: cfg.ROMURL, MaxBytes: cfg.MaxROMBytes}
		loader = fetcher
		rom, err = fetcher.Fetch(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch rom: %w", err)
		}
	}

	ids := editid.NewSeeded()
	if cfg.EditIDs == "counter" {
		ids = editid.New(1)
	}

	mapper := grid.FromTiles(cfg.OriginTileY, cfg.OriginTileX)
	var layout *controller.Layout
	if cfg.Controller.Enabled {
		layout = &controller.Layout{
			OriginRow:   mapper.OriginRow + geometry.Rows() + cfg.Controller.Row,
			OriginCol:   mapper.OriginCol + cfg.Controller.Col,
			URLTemplate: cfg.Controller.URLTemplate,
			FG:          0xffffff,
			BG:          0x202020,
		}
	}

	client := canvas.NewClient(canvas.Config{
		URL:            cfg.CanvasURL,
		ReconnectDelay: cfg.ReconnectDelay,
		FatalOnClose:   cfg.FatalOnClose,
		Logger:         telemetry.Prefixed(telemetryLogger, "canvas"),
		Metrics:        metrics,
		Publisher:      router,
	})

	session, err := glyphbridge.NewSession(glyphbridge.Config{
		Policy:     policy,
		Order:      order,
		Mapper:     mapper,
		Interlace:  cfg.Interlace,
		MaxBatch:   cfg.MaxBatch,
		RenderHz:   cfg.RenderHz,
		AdvanceHz:  cfg.AdvanceHz,
		Hold:       cfg.Hold,
		IDs:        ids,
		Controller: layout,
		Greeting:   cfg.Chat.Greeting,
		Nickname:   cfg.Chat.Nickname,
		Color:      cfg.Chat.Color,
		Admins:     cfg.Chat.Admins,
		ROMSource:  cfg.ROMURL,
		Loader:     loader,
		Logger:     telemetry.Prefixed(telemetryLogger, "session"),
		Metrics:    metrics,
		Publisher:  router,
	}, emu, client)
	if err != nil {
		return fmt.Errorf("failed to construct session: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := session.Start(runCtx, rom); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.Stop()

	if cfg.DiagAddr != "" {
		srv := &http.Server{
			Addr: cfg.DiagAddr,
			Handler: diag.NewHandler(session, diag.Config{
				AdminToken: cfg.AdminToken,
				Metrics:    router.Metrics(),
				Logger:     fallbackLogger,
				Profiler:   cfg.Observability.EnablePprof,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			telemetryLogger.Printf("diagnostics listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				telemetryLogger.Printf("diagnostics server failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	observability.Launch(runCtx, cfg.Observability, telemetryLogger)

	telemetryLogger.Printf("bridging %dx%d %s screen to %s at tile (%d,%d)", cfg.Width, cfg.Height, policy.Name(), cfg.CanvasURL, cfg.OriginTileY, cfg.OriginTileX)
	err = client.Run(runCtx, session)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
