// sight - touch-triggered scene description for visually impaired users.
// Photographs the scene, describes it with Azure OpenAI, speaks the
// description with Azure Speech and scrolls it on the OLED.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-sight/internal/config"
	"github.com/teslashibe/go-sight/internal/log"
	"github.com/teslashibe/go-sight/pkg/sight"
)

func main() {
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	envFile := flag.String("env", "", "Path to an env file (default: .env if present)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		var cerr *config.ConfigError
		if errors.As(err, &cerr) {
			fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", cerr)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	log.Init(level)
	logger := log.Component("sight")

	app, err := sight.New(cfg, logger)
	if err != nil {
		logger.Error("create app", "error", err)
		os.Exit(1)
	}

	if err := app.Init(); err != nil {
		app.Shutdown()
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("device ready, touch the sensor to describe the scene")
	if err := app.Run(ctx); err != nil {
		logger.Error("runtime error", "error", err)
		app.Shutdown()
		os.Exit(1)
	}
}
