package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/tunex/internal/shared"
	"github.com/joho/godotenv"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to load .env file", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	runner := NewRunner(RunnerOpts{Logger: logger})
	err := runner.App().Run(ctx, os.Args)
	stop()

	if err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error onto the process exit status.
//
// Lookups that found nothing exit with 2 so scripts can tell them apart from failures.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, shared.ErrTrackNotFound), errors.Is(err, shared.ErrFeaturesNotFound):
		return 2
	default:
		return 1
	}
}
