package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	xhttp "CreditRisk/pkg/http"
	pkgkafka "CreditRisk/pkg/kafka"
	applogger "CreditRisk/pkg/logger"
)

// Closer is anything App shuts down after the servers have stopped.
type Closer struct {
	Name  string
	Close func() error
}

// Pruner drops idle per-client state. The rate limiter implements it.
type Pruner interface {
	Prune(ttl time.Duration) int
}

// App owns the process lifecycle: the HTTP server, the optional snapshot
// consumer and every infrastructure client.
type App struct {
	log      *applogger.Logger
	http     *xhttp.Server
	consumer *pkgkafka.Consumer
	handlers []pkgkafka.MessageHandler
	pruner   Pruner
	closers  []Closer

	pruneEvery time.Duration
	idleTTL    time.Duration
}

type Option func(*App)

// WithConsumer starts c with the given handlers. A nil consumer is ignored.
func WithConsumer(c *pkgkafka.Consumer, handlers ...pkgkafka.MessageHandler) Option {
	return func(a *App) {
		if c == nil {
			return
		}
		a.consumer = c
		a.handlers = handlers
	}
}

// WithPruner prunes p every interval, dropping entries idle for ttl.
func WithPruner(p Pruner, interval, ttl time.Duration) Option {
	return func(a *App) {
		a.pruner = p
		a.pruneEvery = interval
		a.idleTTL = ttl
	}
}

// WithClosers registers resources closed in order on shutdown.
func WithClosers(cs ...Closer) Option {
	return func(a *App) { a.closers = append(a.closers, cs...) }
}

// CloserOf adapts an io.Closer.
func CloserOf(name string, c io.Closer) Closer {
	return Closer{Name: name, Close: c.Close}
}

func New(log *applogger.Logger, srv *xhttp.Server, opts ...Option) *App {
	if log == nil {
		log = applogger.NewNop()
	}
	a := &App{log: log, http: srv}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts every component and blocks until ctx is done, then shuts down
// within shutdownTimeout.
func (a *App) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	if a.consumer != nil {
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
		}
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("start consumer: %w", err)
		}
		topics := make([]string, 0, len(a.handlers))
		for _, h := range a.handlers {
			topics = append(topics, h.Topic())
		}
		a.log.Info("kafka consumer started", applogger.Strings("topics", topics))
	}

	if err := a.http.Start(); err != nil {
		return fmt.Errorf("start http: %w", err)
	}

	if a.pruner != nil && a.pruneEvery > 0 {
		go a.pruneLoop(ctx)
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.Shutdown(sctx)
}

// Shutdown stops intake first, then closes resources in registration order.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.http.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("kafka consumer stop: %w", err))
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("close", applogger.String("resource", c.Name), applogger.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", c.Name, err))
		}
	}
	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) pruneLoop(ctx context.Context) {
	t := time.NewTicker(a.pruneEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.pruner.Prune(a.idleTTL); n > 0 {
				a.log.Debug("rate limiter pruned", applogger.Int("clients", n))
			}
		}
	}
}
