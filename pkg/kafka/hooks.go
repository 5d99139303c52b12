package kafka

import (
	"context"
	"fmt"
	"time"

	applogger "CreditRisk/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// ConsumerHook runs around every handler attempt. An error from BeforeHandle
// skips the handler and is treated as a handling failure.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
	AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
	OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return ctx, km, data, nil
}

func (NoopHook) AfterHandle(context.Context, string, kafka.Message, []byte, error) {}

func (NoopHook) OnError(context.Context, string, kafka.Message, []byte, error) {}

// HookError classifies an error produced by a hook.
type HookError struct {
	Code string
	Err  error
}

func (e *HookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *HookError) Unwrap() error { return e.Err }

// HookFuncs adapts plain functions to ConsumerHook. Nil functions are no-ops.
type HookFuncs struct {
	Before func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error)
	After  func(context.Context, string, kafka.Message, []byte, error)
	Err    func(context.Context, string, kafka.Message, []byte, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	if h.Before == nil {
		return ctx, km, data, nil
	}
	return h.Before(ctx, topic, km, data)
}

func (h HookFuncs) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if h.After != nil {
		h.After(ctx, topic, km, data, err)
	}
}

func (h HookFuncs) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if h.Err != nil {
		h.Err(ctx, topic, km, data, err)
	}
}

// HookChain composes hooks. BeforeHandle runs in order and threads the
// context, message and payload through; AfterHandle runs in reverse. A panic
// in any hook is recovered.
type HookChain struct {
	hooks []ConsumerHook
}

// NewHookChain ignores nil hooks.
func NewHookChain(hooks ...ConsumerHook) *HookChain {
	filtered := make([]ConsumerHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	return &HookChain{hooks: filtered}
}

func (c *HookChain) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	curCtx, curMsg, curData := ctx, km, data
	for _, h := range c.hooks {
		nextCtx, nextMsg, nextData, err := safeBefore(h, curCtx, topic, curMsg, curData)
		if err != nil {
			c.OnError(curCtx, topic, curMsg, curData, err)
			return curCtx, curMsg, curData, err
		}
		curCtx, curMsg, curData = nextCtx, nextMsg, nextData
	}
	return curCtx, curMsg, curData, nil
}

func (c *HookChain) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	for i := len(c.hooks) - 1; i >= 0; i-- {
		safeAfter(c.hooks[i], ctx, topic, km, data, err)
	}
}

func (c *HookChain) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	for _, h := range c.hooks {
		safeOnError(h, ctx, topic, km, data, err)
	}
}

type ctxKey string

const (
	CtxStartTime ctxKey = "kafka_hook_start_time"
	CtxTraceID   ctxKey = "kafka_hook_trace_id"
)

func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, CtxStartTime, t)
}

// WithTraceID stores a non-empty trace id in ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, CtxTraceID, traceID)
}

// TraceID returns the trace id stored by WithTraceID.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(CtxTraceID).(string)
	return id
}

// ExtractTraceID reads the trace_id header.
func ExtractTraceID(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "trace_id" && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return ""
}

// LoggingHook tags the context with the message's trace id and start time
// and logs failed attempts with their latency.
type LoggingHook struct {
	Log *applogger.Logger
	Now func() time.Time
}

func NewLoggingHook(log *applogger.Logger) *LoggingHook {
	return &LoggingHook{Log: log, Now: time.Now}
}

func (h *LoggingHook) BeforeHandle(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	ctx = WithStartTime(ctx, h.Now())
	ctx = WithTraceID(ctx, ExtractTraceID(km))
	return ctx, km, data, nil
}

func (h *LoggingHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, _ []byte, err error) {
	if err == nil {
		return
	}
	fields := []applogger.Field{
		applogger.String("topic", topic),
		applogger.Int("partition", km.Partition),
		applogger.Int64("offset", km.Offset),
		applogger.Error(err),
	}
	if id := TraceID(ctx); id != "" {
		fields = append(fields, applogger.String("trace_id", id))
	}
	if start, ok := ctx.Value(CtxStartTime).(time.Time); ok {
		fields = append(fields, applogger.Duration("elapsed_ms", h.Now().Sub(start)))
	}
	h.Log.Warn("kafka handler attempt failed", fields...)
}

func (h *LoggingHook) OnError(context.Context, string, kafka.Message, []byte, error) {}

func safeBefore(h ConsumerHook, ctx context.Context, topic string, km kafka.Message, data []byte) (nctx context.Context, nkm kafka.Message, ndata []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			nctx, nkm, ndata = ctx, km, data
			err = &HookError{Code: "ERR_PANIC", Err: fmt.Errorf("hook panic: %v", r)}
		}
	}()
	return h.BeforeHandle(ctx, topic, km, data)
}

func safeAfter(h ConsumerHook, ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	defer func() { _ = recover() }()
	h.AfterHandle(ctx, topic, km, data, err)
}

func safeOnError(h ConsumerHook, ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	defer func() { _ = recover() }()
	h.OnError(ctx, topic, km, data, err)
}
