package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
}

// CORS answers preflight requests and echoes allowed origins. Requests from
// other origins pass through without CORS headers.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			allowOrigin := matchOrigin(cfg.AllowOrigins, origin)
			if allowOrigin == "" {
				return next(c)
			}

			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, allowOrigin)
			if methods != "" {
				h.Set(echo.HeaderAccessControlAllowMethods, methods)
			}
			if headers != "" {
				h.Set(echo.HeaderAccessControlAllowHeaders, headers)
			}
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}

func matchOrigin(allowed []string, origin string) string {
	for _, o := range allowed {
		if o == "*" {
			if origin != "" {
				return origin
			}
			return "*"
		}
		if origin != "" && o == origin {
			return origin
		}
	}
	return ""
}
