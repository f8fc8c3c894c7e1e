// describe - runs the describe and speak steps on an image file without
// any device hardware. Useful for checking keys, deployment and voice.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-sight/internal/artifact"
	"github.com/teslashibe/go-sight/internal/config"
	"github.com/teslashibe/go-sight/internal/log"
	"github.com/teslashibe/go-sight/pkg/sight"
	"github.com/teslashibe/go-sight/pkg/tts"
)

func main() {
	imagePath := flag.String("image", "", "Image to describe (JPEG or PNG)")
	outPath := flag.String("out", "", "Where to write the spoken description (default: RESPONSE_AUDIO_PATH)")
	check := flag.Bool("check", false, "Only check that both services are reachable")
	envFile := flag.String("env", "", "Path to an env file (default: .env if present)")
	timeout := flag.Duration("timeout", 60*time.Second, "Overall timeout")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}
	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	log.Init(level)
	logger := log.Component("describe")

	describer, speech, err := sight.NewClients(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}
	defer describer.Close()
	defer speech.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	if *check {
		ok := true
		if err := describer.Health(ctx); err != nil {
			fmt.Printf("❌ vision (%s): %v\n", cfg.Vision.Deployment, err)
			ok = false
		} else {
			fmt.Printf("✅ vision (%s)\n", cfg.Vision.Deployment)
		}
		if err := speech.Health(ctx); err != nil {
			fmt.Printf("❌ speech (%s): %v\n", cfg.Speech.Region, err)
			ok = false
		} else {
			fmt.Printf("✅ speech (%s)\n", cfg.Speech.Region)
		}
		if !ok {
			os.Exit(1)
		}
		return
	}

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "usage: describe -image photo.jpg [-out response.mp3]")
		os.Exit(2)
	}
	data, err := os.ReadFile(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	res, err := describer.Describe(ctx, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ describe: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(res.Text)
	logger.Info("described",
		"latency_ms", res.LatencyMs,
		"tokens", res.Usage.TotalTokens,
	)
	if res.Truncated() {
		logger.Warn("description cut off at the token limit", "max_tokens", cfg.Vision.MaxTokens)
	}

	audio, err := speech.Synthesize(ctx, res.Text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ synthesize: %v\n", err)
		os.Exit(1)
	}

	out := *outPath
	if out == "" {
		out = cfg.Paths.Response
	}
	if err := artifact.Write(out, audio.Audio); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	logger.Info("wrote speech",
		"path", out,
		"bytes", len(audio.Audio),
		"duration", tts.EstimateDuration(audio).Round(time.Millisecond),
	)
}
