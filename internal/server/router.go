package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/toolcache/internal/logging"
	"github.com/any-hub/toolcache/pkg/platform"
	"github.com/any-hub/toolcache/pkg/toolcache"
)

// ToolLookup is the read-only view of the tool cache the HTTP layer needs.
// *toolcache.Store satisfies it; tests inject fakes.
type ToolLookup interface {
	Find(ctx context.Context, name, version string) (toolcache.Tool, error)
	FindWithArch(ctx context.Context, name, version string, arch platform.Arch) (toolcache.Tool, error)
	FindAllVersions(ctx context.Context, name string) ([]toolcache.Tool, error)
	Root() string
	Platform() platform.Platform
	Arch() platform.Arch
}

// AppOptions controls how the Fiber application should behave on a specific port.
type AppOptions struct {
	Logger     *logrus.Logger
	Tools      ToolLookup
	ListenPort int
}

const contextKeyRequestID = "_toolcache_request_id"

// NewApp builds a Fiber application with request-id/access-log middleware and
// JSON error rendering. Routes are registered by the caller.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Tools == nil {
		return nil, errors.New("tool lookup is required")
	}
	if opts.ListenPort <= 0 || opts.ListenPort > 65535 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		ErrorHandler:  errorHandler(opts.Logger),
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware(opts.Logger))

	return app, nil
}

// requestContextMiddleware 负责生成请求 ID，并在请求结束后输出访问日志。
func requestContextMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		err := c.Next()

		status := c.Response().StatusCode()
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}
		fields := logging.RequestFields(reqID, c.Method(), string(c.Request().URI().Path()), status)
		fields["action"] = "http_request"
		logger.WithFields(fields).Debug("request_complete")
		return err
	}
}

func errorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		label := "internal_error"
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			if code == fiber.StatusNotFound {
				label = "not_found"
			} else if code < fiber.StatusInternalServerError {
				label = "bad_request"
			}
		}
		if code >= fiber.StatusInternalServerError {
			logger.WithFields(logrus.Fields{
				"action":     "http_error",
				"request_id": RequestID(c),
				"path":       string(c.Request().URI().Path()),
			}).WithError(err).Error("request_failed")
		}
		return c.Status(code).JSON(fiber.Map{"error": label})
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
