// Package logger wraps zap for the whole application. A single logger
// is built at startup and injected into every component that reports
// errors outside the request/response path (mailer, queue consumer,
// token revocation during sign-out).
package logger

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// New builds a production logger, or a development one when env is
// "dev" or "test".
func New(env string) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	switch env {
	case "dev", "test":
		log, err = zap.NewDevelopment()
	default:
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return log
}

// RequestLogger returns an Echo middleware that logs one line per
// request: method, path, status and latency. Errors returned by
// handlers are logged after Echo's error handler assigned a status.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			log.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
			)
			return err
		}
	}
}
