package repository

import (
	"context"

	"SqueezeWatch/internal/domain/models"
	domrepo "SqueezeWatch/internal/domain/repository"
	pkgkafka "SqueezeWatch/pkg/kafka"
)

// KafkaAlertPublisher emits signal and CB warning events; the notification
// worker that delivers them runs out of process.
type KafkaAlertPublisher struct {
	producer    *pkgkafka.Producer
	signalTopic string
	cbTopic     string
}

func NewKafkaAlertPublisher(producer *pkgkafka.Producer, signalTopic, cbTopic string) *KafkaAlertPublisher {
	return &KafkaAlertPublisher{producer: producer, signalTopic: signalTopic, cbTopic: cbTopic}
}

func (p *KafkaAlertPublisher) PublishSignalAlerts(ctx context.Context, signals []models.SqueezeSignal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(signals))
	for i, sig := range signals {
		msgs[i] = pkgkafka.Message{Key: []byte(sig.Ticker), Value: sig}
	}
	return p.producer.PublishBatch(ctx, p.signalTopic, msgs)
}

func (p *KafkaAlertPublisher) PublishCBAlerts(ctx context.Context, warnings []models.CBTracking) error {
	if len(warnings) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(warnings))
	for i, w := range warnings {
		msgs[i] = pkgkafka.Message{Key: []byte(w.CBTicker), Value: w}
	}
	return p.producer.PublishBatch(ctx, p.cbTopic, msgs)
}

func (p *KafkaAlertPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ domrepo.AlertPublisher = (*KafkaAlertPublisher)(nil)
