package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

// ErrNoBrokers is returned when a producer or consumer is built without brokers.
var ErrNoBrokers = errors.New("kafka: brokers are required")

// Producer wraps a kafka-go writer.
type Producer struct {
	writer  *kafka.Writer
	comp    string
	metrics *producerMetrics
}

// NewProducer creates a new Kafka producer.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := defaultProducerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}

	bal := kafka.Balancer(&kafka.LeastBytes{})
	if cfg.HashByKey {
		bal = &kafka.Hash{}
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     bal,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  parseCompression(cfg.Compression),
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		BatchSize:    cfg.BatchSize,
		BatchBytes:   int64(cfg.BatchBytes),
		BatchTimeout: cfg.BatchTimeout,
		Async:        cfg.Async,
	}

	return &Producer{writer: writer, comp: cfg.Compression, metrics: producerMetricsFor(cfg.Registerer)}, nil
}

// Message is one keyed record for PublishBatch.
type Message struct {
	Key   []byte
	Value interface{}
}

// Publish sends one message. Value may be []byte, string or any
// JSON-marshalable value.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return p.PublishBatch(ctx, topic, []Message{{Key: key, Value: value}})
}

// PublishMessage sends an unkeyed message. It lets the producer back the log
// collector.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.Publish(ctx, topic, nil, payload)
}

// PublishBatch sends messages to topic in a single write.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	start := time.Now()
	msgs := make([]kafka.Message, 0, len(messages))
	var total int64
	for _, m := range messages {
		v, err := encodeValue(m.Value)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{Topic: topic, Key: m.Key, Value: v, Time: start})
		total += int64(len(v))
	}

	err := p.writer.WriteMessages(ctx, msgs...)
	p.metrics.observe(topic, p.comp, total, len(msgs), time.Since(start), err)
	return err
}

// Close flushes pending messages and closes the writer.
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func encodeValue(value interface{}) ([]byte, error) {
	switch val := value.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal value: %w", err)
		}
		return b, nil
	}
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}

type producerMetrics struct {
	messages *prometheus.CounterVec
	errors   *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	producerMetricsMu  sync.Mutex
	producerMetricsReg = map[prometheus.Registerer]*producerMetrics{}
)

func producerMetricsFor(reg prometheus.Registerer) *producerMetrics {
	producerMetricsMu.Lock()
	defer producerMetricsMu.Unlock()
	if m, ok := producerMetricsReg[reg]; ok {
		return m
	}
	m := &producerMetrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "creditrisk_kafka_producer_messages_total",
			Help: "Total messages published to Kafka",
		}, []string{"topic", "compression", "result"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "creditrisk_kafka_producer_errors_total",
			Help: "Total producer errors",
		}, []string{"topic"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "creditrisk_kafka_producer_bytes_total",
			Help: "Total payload bytes published",
		}, []string{"topic", "compression"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "creditrisk_kafka_producer_publish_seconds",
			Help:    "Publish latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),
	}
	if reg != nil {
		reg.MustRegister(m.messages, m.errors, m.bytes, m.latency)
	}
	producerMetricsReg[reg] = m
	return m
}

func (m *producerMetrics) observe(topic, comp string, bytes int64, count int, dur time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		m.errors.WithLabelValues(topic).Inc()
	}
	m.messages.WithLabelValues(topic, comp, result).Add(float64(count))
	m.bytes.WithLabelValues(topic, comp).Add(float64(bytes))
	m.latency.WithLabelValues(topic).Observe(dur.Seconds())
}
