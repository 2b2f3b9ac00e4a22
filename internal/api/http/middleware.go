package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/spec-kit/feed-service/internal/api/dto"
	"github.com/spec-kit/feed-service/internal/observability"
	apperrors "github.com/spec-kit/feed-service/pkg/util/errorutil"
)

// MiddlewareConfig tunes the global middleware chain.
type MiddlewareConfig struct {
	Timeout    time.Duration
	Prometheus *fiberprometheus.FiberPrometheus
}

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, cfg MiddlewareConfig) {
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET, POST, PATCH, DELETE, PUT",
		AllowHeaders: "Content-Type, Authorization",
	}))
	if cfg.Prometheus != nil {
		app.Use(cfg.Prometheus.Middleware)
	}
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

// ErrorHandler is installed as fiber's fallback for errors raised outside the
// middleware chain.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		writeError(c, logger, nil, err)
		return nil
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				writeError(c, logger, metrics, err)
				err = nil
			}
		}()
		return c.Next()
	}
}

// writeError serializes err as {message, data?} with its status.
func writeError(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, err error) {
	status, code, message, data := classify(err)

	metrics.RecordError(c.Path(), c.Method(), code)
	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}

	_ = c.Status(status).JSON(dto.ErrorResponse{Message: message, Data: data})
}

func classify(err error) (status int, code, message string, data any) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, "HTTP_" + fiberStatusText(fe.Code), fe.Message, nil
	}
	de := apperrors.ToDomainError(err)
	return de.HTTPStatus, de.Code, de.Message, de.Data
}

func fiberStatusText(code int) string {
	switch {
	case code >= 500:
		return "SERVER_ERROR"
	case code == fiber.StatusNotFound:
		return "NOT_FOUND"
	default:
		return "CLIENT_ERROR"
	}
}
