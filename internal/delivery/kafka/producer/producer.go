package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	kafka "github.com/openmeet/ticketgate/internal/delivery/kafka"
	pkgLog "github.com/openmeet/ticketgate/pkg/logger"
)

type Producer interface {
	PublishCheckinCompleted(ctx context.Context, event kafka.CheckinCompletedEvent) error
	PublishParticipationRegistered(ctx context.Context, event kafka.ParticipationRegisteredEvent) error
	Close() error
}

type implProducer struct {
	l    pkgLog.Logger
	prod sarama.SyncProducer
}

func NewProducer(prod sarama.SyncProducer, l pkgLog.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
	}
}

func (p *implProducer) PublishCheckinCompleted(ctx context.Context, event kafka.CheckinCompletedEvent) error {
	event.Timestamp = time.Now()
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.implProducer.PublishCheckinCompleted: %v", err)
		return err
	}

	// Partition by event_id so per-event ordering holds.
	msg := &sarama.ProducerMessage{
		Topic: kafka.TopicCheckinCompleted,
		Key:   sarama.StringEncoder(event.EventID),
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	_, _, err = p.prod.SendMessage(msg)
	return err
}

func (p *implProducer) PublishParticipationRegistered(ctx context.Context, event kafka.ParticipationRegisteredEvent) error {
	event.Timestamp = time.Now()
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.implProducer.PublishParticipationRegistered: %v", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: kafka.TopicParticipationRegistered,
		Key:   sarama.StringEncoder(event.EventID),
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	_, _, err = p.prod.SendMessage(msg)
	return err
}

func (p *implProducer) Close() error {
	return p.prod.Close()
}

// NewNopProducer is wired when Kafka is disabled by config.
func NewNopProducer() Producer {
	return nopProducer{}
}

type nopProducer struct{}

func (nopProducer) PublishCheckinCompleted(context.Context, kafka.CheckinCompletedEvent) error {
	return nil
}

func (nopProducer) PublishParticipationRegistered(context.Context, kafka.ParticipationRegisteredEvent) error {
	return nil
}

func (nopProducer) Close() error { return nil }
