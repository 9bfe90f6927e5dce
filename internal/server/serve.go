package server

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// Serve 监听 port，ctx 结束时优雅关闭并返回 nil。
func Serve(ctx context.Context, app *fiber.App, port int, logger *logrus.Logger) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			if err := app.Shutdown(); err != nil {
				logger.WithField("action", "shutdown").WithError(err).Warn("Fiber 服务关闭失败")
			}
		case <-done:
		}
	}()

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	err := app.Listen(fmt.Sprintf(":%d", port), fiber.ListenConfig{DisableStartupMessage: true})
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
