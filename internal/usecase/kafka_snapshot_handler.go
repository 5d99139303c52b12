package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"CreditRisk/internal/domain/models"
	domrepo "CreditRisk/internal/domain/repository"
	pkgkafka "CreditRisk/pkg/kafka"
	applogger "CreditRisk/pkg/logger"
)

// KafkaSnapshotHandler consumes snapshot messages, analyzes them and routes
// the outcome through the AssessmentProcessor.
type KafkaSnapshotHandler struct {
	topic     string
	analyzer  *CreditAnalyzer
	processor *AssessmentProcessor
	metrics   domrepo.Metrics
	log       *applogger.Logger
}

func NewKafkaSnapshotHandler(
	topic string,
	analyzer *CreditAnalyzer,
	processor *AssessmentProcessor,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *KafkaSnapshotHandler {
	return &KafkaSnapshotHandler{topic: topic, analyzer: analyzer, processor: processor, metrics: metrics, log: log}
}

func (h *KafkaSnapshotHandler) Topic() string { return h.topic }

// Handle decodes one FinancialSnapshot. Malformed payloads and backend
// errors are returned so the consumer retries or dead-letters them; analysis
// failures are routed as failure records instead.
func (h *KafkaSnapshotHandler) Handle(ctx context.Context, b []byte) error {
	var s models.FinancialSnapshot
	if err := json.Unmarshal(b, &s); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode snapshot: %w", err)
	}

	start := time.Now()
	res := h.analyzer.result(ctx, s)
	h.metrics.RecordLatency("consumer_analyze_seconds", time.Since(start).Seconds())

	rec := h.processor.Record(s.Ticker, res)
	if err := h.processor.Process(ctx, rec); err != nil {
		h.metrics.RecordError("consumer_route")
		return err
	}
	h.log.Debug("snapshot processed",
		applogger.String("ticker", rec.Ticker),
		applogger.String("status", rec.Status),
		applogger.String("backend", string(h.processor.Backend())),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSnapshotHandler)(nil)
