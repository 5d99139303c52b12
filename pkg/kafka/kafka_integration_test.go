//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
)

type collectHandler struct {
	topic string
	mu    sync.Mutex
	got   []string
	fail  map[string]bool
	done  chan struct{}
	want  int
}

func (h *collectHandler) Topic() string { return h.topic }

func (h *collectHandler) Handle(_ context.Context, b []byte) error {
	var m struct {
		Ticker string `json:"ticker"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if h.fail[m.Ticker] {
		return errors.New("poison")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.got = append(h.got, m.Ticker)
	if len(h.got) == h.want {
		close(h.done)
	}
	return nil
}

func TestProducerConsumerRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v23.3.3", redpanda.WithAutoCreateTopics())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	broker, err := container.KafkaSeedBroker(ctx)
	require.NoError(t, err)
	brokers := []string{broker}

	reg := prometheus.NewRegistry()
	p, err := NewProducer(WithBrokers(brokers), WithBatching(10, 1<<20, 10*time.Millisecond), WithRegisterer(reg))
	require.NoError(t, err)
	defer p.Close()

	const topic = "credit.snapshots.it"
	batch := []Message{
		{Key: []byte("AAA"), Value: map[string]string{"ticker": "AAA"}},
		{Key: []byte("BAD"), Value: map[string]string{"ticker": "BAD"}},
		{Key: []byte("CCC"), Value: map[string]string{"ticker": "CCC"}},
	}
	// the first write may race topic auto-creation
	require.Eventually(t, func() bool {
		return p.PublishBatch(ctx, topic, batch) == nil
	}, 30*time.Second, 500*time.Millisecond)

	h := &collectHandler{topic: topic, fail: map[string]bool{"BAD": true}, done: make(chan struct{}), want: 2}
	c, err := NewConsumer(
		WithConsumerBrokers(brokers),
		WithConsumerGroupID("it-group"),
		WithConsumerWorkers(2),
		WithConsumerRetry(1, 10*time.Millisecond, 20*time.Millisecond),
		WithConsumerDLQ(topic+".dlq"),
		WithConsumerRegisterer(reg),
	)
	require.NoError(t, err)
	c.RegisterHandler(h)
	require.NoError(t, c.Start())

	select {
	case <-h.done:
	case <-time.After(60 * time.Second):
		t.Fatal("messages were not consumed")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	require.NoError(t, c.Stop(stopCtx))

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.ElementsMatch(t, []string{"AAA", "CCC"}, h.got)
}
