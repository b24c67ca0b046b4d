package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"glyphbridge/internal/app"
	"glyphbridge/internal/telemetry"
)

func main() {
	configPath := flag.String("config", os.Getenv(app.ConfigPathEnv), "path to a YAML config file")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)
	cfg := app.DefaultConfig()
	if *configPath != "" {
		if err := app.LoadFile(&cfg, *configPath); err != nil {
			logger.Fatalf("%v", err)
		}
	}
	cfg.Logger = telemetry.WrapLogger(logger)
	app.ApplyEnv(&cfg, os.Getenv, cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		logger.Fatalf("%v", err)
	}
}
