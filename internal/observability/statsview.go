package observability

import (
	"context"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"glyphbridge/internal/telemetry"
)

const statsviewPath = "/debug/statsview"

// Launch starts the runtime stats viewer in the background and stops it when
// ctx ends. It is a no-op when no address is configured.
func Launch(ctx context.Context, cfg Config, logger telemetry.Logger) {
	if cfg.StatsviewAddr == "" {
		return
	}
	viewer.SetConfiguration(viewer.WithAddr(cfg.StatsviewAddr))
	mgr := statsview.New()
	go mgr.Start()
	go func() {
		<-ctx.Done()
		mgr.Stop()
	}()
	if logger != nil {
		logger.Printf("stats viewer available at http://%s%s", cfg.StatsviewAddr, statsviewPath)
	}
}
