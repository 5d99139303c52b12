package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "CreditRisk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns a handler panic into a 500 envelope and logs the stack.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					l.Error("http handler panic",
						applogger.String("route", c.Path()),
						applogger.String("panic", fmt.Sprint(r)),
						applogger.String("stack", string(debug.Stack())),
					)
					err = c.JSON(http.StatusInternalServerError, map[string]interface{}{
						"status":  http.StatusInternalServerError,
						"message": http.StatusText(http.StatusInternalServerError),
					})
				}
			}()
			return next(c)
		}
	}
}
