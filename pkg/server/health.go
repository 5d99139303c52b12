package server

import (
	"context"
	"net/http"
	"time"

	xhttp "CreditRisk/pkg/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// Health serves /healthz for liveness and /readyz for dependency checks.
type Health struct {
	checks  map[string]Check
	timeout time.Duration
}

func NewHealth(timeout time.Duration) *Health {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Health{checks: make(map[string]Check), timeout: timeout}
}

// Add registers a named readiness check.
func (h *Health) Add(name string, c Check) *Health {
	h.checks[name] = c
	return h
}

func (h *Health) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", h.ready)
}

func (h *Health) ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	results := make([]string, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			results[i] = "ok"
			if err := h.checks[name](ctx); err != nil {
				results[i] = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	status := make(map[string]string, len(names))
	healthy := true
	for i, name := range names {
		status[name] = results[i]
		if results[i] != "ok" {
			healthy = false
		}
	}
	if !healthy {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
	}
	return xhttp.SuccessResponse(c, status)
}

// Routes registers several handlers as one.
type Routes []xhttp.Handler

func (rs Routes) RegisterRoutes(e *echo.Echo) {
	for _, r := range rs {
		if r != nil {
			r.RegisterRoutes(e)
		}
	}
}
