package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	applogger "CreditRisk/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.ErrorIs(t, err, ErrNoBrokers)

	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithCompression("zstd"))
	require.NoError(t, err)
	assert.Equal(t, kafka.Zstd, p.writer.Compression)
	require.NoError(t, p.Close())
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer()
	assert.ErrorIs(t, err, ErrNoBrokers)
}

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	b, err = encodeValue(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(b))

	_, err = encodeValue(make(chan int))
	assert.Error(t, err)
}

func TestBackoffWithJitterBounds(t *testing.T) {
	min, max := 100*time.Millisecond, time.Second
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(min, max, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, max)
	}
	first := backoffWithJitter(min, max, 1)
	assert.GreaterOrEqual(t, first, min/2)
	assert.LessOrEqual(t, first, min)
}

func TestHookChainOrder(t *testing.T) {
	var calls []string
	mk := func(name string) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
				calls = append(calls, "before:"+name)
				return ctx, km, append(data, name...), nil
			},
			After: func(context.Context, string, kafka.Message, []byte, error) {
				calls = append(calls, "after:"+name)
			},
		}
	}
	chain := NewHookChain(mk("a"), nil, mk("b"))

	ctx, km, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte("x"))
	require.NoError(t, err)
	chain.AfterHandle(ctx, "t", km, data, nil)

	assert.Equal(t, "xab", string(data))
	assert.Equal(t, []string{"before:a", "before:b", "after:b", "after:a"}, calls)
}

func TestHookChainRecoversPanic(t *testing.T) {
	var onErr error
	chain := NewHookChain(
		HookFuncs{Err: func(_ context.Context, _ string, _ kafka.Message, _ []byte, err error) { onErr = err }},
		HookFuncs{Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("boom")
		}},
	)

	_, _, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte("x"))
	var he *HookError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "ERR_PANIC", he.Code)
	assert.Equal(t, "x", string(data))
	assert.Equal(t, err, onErr)

	assert.NotPanics(t, func() {
		NewHookChain(HookFuncs{After: func(context.Context, string, kafka.Message, []byte, error) { panic("late") }}).
			AfterHandle(context.Background(), "t", kafka.Message{}, nil, nil)
	})
}

func TestLoggingHookTagsContextAndLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := &LoggingHook{Log: applogger.NewWithWriter(&buf, zerolog.DebugLevel), Now: func() time.Time { return now }}
	km := kafka.Message{Partition: 2, Offset: 41, Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}

	ctx, _, _, err := h.BeforeHandle(context.Background(), "credit.snapshots", km, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", TraceID(ctx))

	h.AfterHandle(ctx, "credit.snapshots", km, nil, nil)
	assert.Zero(t, buf.Len())

	now = now.Add(250 * time.Millisecond)
	h.AfterHandle(ctx, "credit.snapshots", km, nil, errors.New("decode"))

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "warn", out["level"])
	assert.Equal(t, "abc", out["trace_id"])
	assert.EqualValues(t, 41, out["offset"])
	assert.EqualValues(t, 250, out["elapsed_ms"])
}
