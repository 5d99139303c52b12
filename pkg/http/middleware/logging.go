package middleware

import (
	"time"

	applogger "CreditRisk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs one line per request at debug level, 5xx at error.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo write the error so the status below is final
				c.Error(err)
			}

			req, res := c.Request(), c.Response()
			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", res.Status),
				applogger.Duration("latency_ms", time.Since(start)),
			}
			if res.Status >= 500 {
				l.Error("http request", fields...)
			} else {
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}
