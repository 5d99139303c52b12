package repository

import (
	"context"

	"CreditRisk/internal/domain/models"
	drepo "CreditRisk/internal/domain/repository"
	pkgkafka "CreditRisk/pkg/kafka"
)

// batchProducer is the slice of *pkgkafka.Producer the publisher needs.
type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaPublisher writes assessment records to the decision topic keyed by
// ticker, so one company's records stay ordered on one partition.
type KafkaPublisher struct {
	producer batchProducer
	topic    string
}

var _ drepo.Publisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(producer batchProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, r *models.AssessmentRecord) error {
	return p.PublishBatch(ctx, []*models.AssessmentRecord{r})
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, records []*models.AssessmentRecord) error {
	msgs := make([]pkgkafka.Message, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{Key: []byte(r.Ticker), Value: r})
	}
	if len(msgs) == 0 {
		return nil
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

// Close closes the underlying producer.
func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
