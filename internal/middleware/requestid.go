package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/revassist/technician-portal/internal/logger"
)

// RequestID assigns each request a unique id, echoes it back in the
// response headers, and stores a request-scoped logger in the context so
// every log line from the request carries the id.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
				c.Request().Header.Set("X-Request-ID", requestID)
			}
			c.Response().Header().Set("X-Request-ID", requestID)

			c.Set("logger", logger.L().With(zap.String("request_id", requestID)))
			return next(c)
		}
	}
}
