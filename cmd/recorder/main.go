package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	config "github.com/meetscribe/backend/config/recorder"
	"github.com/meetscribe/backend/pkg/logger"
	"github.com/meetscribe/backend/recorder/cli"
)

func main() {
	log := logger.New(logger.Config{
		Level:  slog.LevelInfo,
		Output: os.Stderr,
	})

	cfg := config.MustLoad()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := cli.New(cfg, log)
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error("recorder failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
