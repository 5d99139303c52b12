package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	applogger "CreditRisk/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerOption configures Consumer.
type ConsumerOption func(*ConsumerConfig)

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	WorkerCount int
	BufferSize  int
	RetryMax    int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	MinBytes    int
	MaxBytes    int
	Logger      *applogger.Logger
	Registerer  prometheus.Registerer
}

func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) { c.Brokers = brokers }
}

func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) { c.GroupID = groupID }
}

func WithConsumerWorkers(count int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if count > 0 {
			c.WorkerCount = count
		}
	}
}

// WithConsumerRetry configures retry attempts and backoff range.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax = max
		c.BackoffMin = backoffMin
		c.BackoffMax = backoffMax
	}
}

// WithConsumerDLQ sets the topic that receives messages whose retries ran out.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) { c.DLQTopic = topic }
}

func WithConsumerFetch(minBytes, maxBytes int) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.MinBytes = minBytes
		c.MaxBytes = maxBytes
	}
}

func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

func WithConsumerLogger(l *applogger.Logger) ConsumerOption {
	return func(c *ConsumerConfig) { c.Logger = l }
}

// WithConsumerRegisterer registers consumer metrics on reg instead of the
// default registry.
func WithConsumerRegisterer(reg prometheus.Registerer) ConsumerOption {
	return func(c *ConsumerConfig) { c.Registerer = reg }
}

// Consumer reads registered topics and fans messages out to a worker pool.
// Messages of one partition are handled one at a time.
type Consumer struct {
	cfg      *ConsumerConfig
	log      *applogger.Logger
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	msgChan  chan *message
	dlq      *kafka.Writer
	hook     ConsumerHook
	metrics  *consumerMetrics

	lockMu    sync.Mutex
	partLocks map[string]map[int]*sync.Mutex
}

type message struct {
	topic string
	km    kafka.Message
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "credit-risk",
		WorkerCount: 1,
		BufferSize:  10,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
		Registerer:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if cfg.Logger == nil {
		cfg.Logger = applogger.NewNop()
	}

	c := &Consumer{
		cfg:       cfg,
		log:       cfg.Logger,
		readers:   make(map[string]*kafka.Reader),
		handlers:  make(map[string]MessageHandler),
		stopChan:  make(chan struct{}),
		msgChan:   make(chan *message, cfg.BufferSize),
		partLocks: make(map[string]map[int]*sync.Mutex),
		hook:      NoopHook{},
		metrics:   consumerMetricsFor(cfg.Registerer),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}
	return c, nil
}

// RegisterHandler registers a handler for its topic. A second handler for the
// same topic is ignored.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.log.Warn("kafka handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// WithConsumerHook sets a hook implementation for lifecycle events.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start creates one reader per registered topic and starts the workers.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return errors.New("kafka consumer: no handlers registered")
	}
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	for topic, reader := range c.readers {
		c.wg.Add(1)
		go c.consume(topic, reader)
	}

	c.log.Info("kafka consumer started",
		applogger.Int("workers", c.cfg.WorkerCount),
		applogger.Int("topics", len(c.readers)),
		applogger.String("group_id", c.cfg.GroupID),
	)
	return nil
}

// Stop stops reading, drains the workers and closes the readers.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		close(c.stopChan)
		stopErr = c.waitForWg(ctx)
		close(c.msgChan)

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				c.log.Error("close kafka reader", applogger.String("topic", topic), applogger.Error(err))
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.log.Error("close dlq writer", applogger.Error(err))
			}
		}
		if stopErr == nil {
			c.log.Info("kafka consumer stopped")
		}
	})
	return stopErr
}

func (c *Consumer) waitForWg(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
	case <-done:
		return nil
	}
}

func (c *Consumer) consume(topic string, reader *kafka.Reader) {
	defer c.wg.Done()

	// the fetch context is canceled on stop so FetchMessage never outlives it
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		km, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error("kafka fetch", applogger.String("topic", topic), applogger.Error(err))
			continue
		}

		select {
		case c.msgChan <- &message{topic: topic, km: km}:
			c.metrics.queueDepth.WithLabelValues(topic).Set(float64(len(c.msgChan)))
		case <-c.stopChan:
			return
		}
	}
}

func (c *Consumer) worker() {
	defer c.wg.Done()
	for {
		select {
		case msg := <-c.msgChan:
			c.process(msg)
		case <-c.stopChan:
			return
		}
	}
}

// process handles one message with retries, then dead-letters it if every
// attempt failed. The offset is committed on success or after a DLQ write.
func (c *Consumer) process(msg *message) {
	handler, ok := c.handlers[msg.topic]
	if !ok {
		return
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic in kafka handler",
				applogger.String("topic", msg.topic),
				applogger.Any("panic", r),
			)
		}
		c.metrics.handleLatency.WithLabelValues(msg.topic).Observe(time.Since(start).Seconds())
	}()

	pl := c.partitionLock(msg.topic, msg.km.Partition)
	pl.Lock()
	defer pl.Unlock()

	attempts, err := c.handleWithRetry(handler, msg)
	if err != nil {
		c.hook.OnError(context.Background(), msg.topic, msg.km, msg.km.Value, err)
		c.log.Error("kafka message failed",
			applogger.String("topic", msg.topic),
			applogger.Int("attempts", attempts),
			applogger.Int64("offset", msg.km.Offset),
			applogger.Error(err),
		)
		if !c.deadLetter(msg) {
			return
		}
	}
	if reader := c.readers[msg.topic]; reader != nil {
		_ = c.commitWithRetry(reader, msg.km, 3)
	}
}

func (c *Consumer) handleWithRetry(handler MessageHandler, msg *message) (int, error) {
	var err error
	attempts := 0
	for {
		attempts++
		hctx, hmsg, hdata, berr := c.hook.BeforeHandle(context.Background(), msg.topic, msg.km, msg.km.Value)
		if berr != nil {
			return attempts, berr
		}
		err = handler.Handle(hctx, hdata)
		c.hook.AfterHandle(hctx, msg.topic, hmsg, hdata, err)
		if err == nil || attempts > c.cfg.RetryMax {
			return attempts, err
		}
		c.metrics.retries.WithLabelValues(msg.topic).Inc()
		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts)):
		case <-c.stopChan:
			return attempts, err
		}
	}
}

func (c *Consumer) deadLetter(msg *message) bool {
	if c.dlq == nil {
		return false
	}
	err := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Topic:   c.cfg.DLQTopic,
		Key:     msg.km.Key,
		Value:   msg.km.Value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "source_topic", Value: []byte(msg.topic)}},
	})
	if err != nil {
		c.log.Error("write to dlq", applogger.String("dlq_topic", c.cfg.DLQTopic), applogger.Error(err))
		return false
	}
	c.metrics.deadLettered.WithLabelValues(msg.topic).Inc()
	return true
}

func (c *Consumer) commitWithRetry(reader *kafka.Reader, km kafka.Message, max int) error {
	if max <= 0 {
		max = 1
	}
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Error("kafka commit", applogger.Int("attempts", max), applogger.Error(err))
	return err
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()
	m, ok := c.partLocks[topic]
	if !ok {
		m = make(map[int]*sync.Mutex)
		c.partLocks[topic] = m
	}
	l, ok := m[partition]
	if !ok {
		l = &sync.Mutex{}
		m[partition] = l
	}
	return l
}

// backoffWithJitter doubles min per attempt up to max and subtracts up to
// half of it at random.
func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	if attempt < 1 {
		attempt = 1
	}
	exp := max
	if attempt <= 30 {
		if e := min * time.Duration(1<<uint(attempt-1)); e > 0 && e < max {
			exp = e
		}
	}
	half := int64(exp) / 2
	if half <= 0 {
		return exp
	}
	return exp - time.Duration(rand.Int63n(half))
}

type consumerMetrics struct {
	queueDepth    *prometheus.GaugeVec
	handleLatency *prometheus.HistogramVec
	retries       *prometheus.CounterVec
	deadLettered  *prometheus.CounterVec
}

var (
	consumerMetricsMu  sync.Mutex
	consumerMetricsReg = map[prometheus.Registerer]*consumerMetrics{}
)

// consumerMetricsFor returns one metric set per registerer so several
// consumers can share a registry.
func consumerMetricsFor(reg prometheus.Registerer) *consumerMetrics {
	consumerMetricsMu.Lock()
	defer consumerMetricsMu.Unlock()
	if m, ok := consumerMetricsReg[reg]; ok {
		return m
	}
	m := &consumerMetrics{
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "creditrisk_kafka_consumer_queue_depth",
			Help: "Number of messages waiting in consumer queue",
		}, []string{"topic"}),
		handleLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "creditrisk_kafka_consumer_handle_seconds",
			Help: "Handling time per message",
		}, []string{"topic"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "creditrisk_kafka_consumer_retries_total",
			Help: "Handler retries",
		}, []string{"topic"}),
		deadLettered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "creditrisk_kafka_consumer_dead_lettered_total",
			Help: "Messages written to the dead letter topic",
		}, []string{"topic"}),
	}
	if reg != nil {
		reg.MustRegister(m.queueDepth, m.handleLatency, m.retries, m.deadLettered)
	}
	consumerMetricsReg[reg] = m
	return m
}
