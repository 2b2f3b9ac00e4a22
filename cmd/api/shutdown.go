package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/feed-service/internal/realtime"
	"github.com/spec-kit/feed-service/internal/worker"
)

type shutdownStep struct {
	name string
	stop func(context.Context) error
}

// shutdownSteps orders graceful shutdown. Sockets close first so the HTTP
// server has nothing long-lived left to drain; the image cleaner stops last
// so removals scheduled by draining requests still run.
func shutdownSteps(app *fiber.App, hub *realtime.Hub, cleaner *worker.ImageCleaner) []shutdownStep {
	return []shutdownStep{
		{name: "hub", stop: hub.Shutdown},
		{name: "fiber", stop: app.ShutdownWithContext},
		{name: "image cleaner", stop: cleaner.Stop},
	}
}

func runShutdown(ctx context.Context, logger *zap.Logger, steps []shutdownStep) {
	for _, step := range steps {
		if err := step.stop(ctx); err != nil {
			logger.Warn("shutdown step failed", zap.String("step", step.name), zap.Error(err))
		}
	}
}
