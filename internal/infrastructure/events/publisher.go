// Package events publica eventos de venta en Kafka o, sin brokers, solo en el log.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/Tienda-api/internal/domain/event"
	"github.com/jhoicas/Tienda-api/pkg/config"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// messageWriter subconjunto de *kafka.Writer usado por el publicador.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher implementa sales.EventPublisher. La clave del mensaje es el tenant,
// así los eventos de una organización llegan en orden a la misma partición.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *logger.Logger
}

// NewKafkaPublisher crea el writer con balanceo por hash de clave.
func NewKafkaPublisher(cfg config.KafkaConfig, log *logger.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("events: KAFKA_BROKERS vacío")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newKafkaPublisher(w, cfg.Topic, log), nil
}

func newKafkaPublisher(w messageWriter, topic string, log *logger.Logger) *KafkaPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &KafkaPublisher{writer: w, topic: topic, log: log.Component("events")}
}

// Publish serializa el evento en JSON y lo escribe en el tópico.
func (p *KafkaPublisher) Publish(ctx context.Context, ev event.SaleEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: serializar %s: %w", ev.EventType, err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.TenantID),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.EventType)},
			{Key: "event_id", Value: []byte(ev.EventID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: publicar %s en %s: %w", ev.EventType, p.topic, err)
	}
	p.log.Debug().
		Str("event_type", ev.EventType).
		Str("sale_id", ev.SaleID).
		Msg("evento publicado")
	return nil
}

// Close vacía y cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher registra los eventos sin enviarlos a ningún broker.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher publicador por defecto cuando no hay Kafka configurado.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &LogPublisher{log: log.Component("events")}
}

// Publish solo deja constancia en el log.
func (p *LogPublisher) Publish(_ context.Context, ev event.SaleEvent) error {
	p.log.Info().
		Str("event_type", ev.EventType).
		Str("tenant_id", ev.TenantID).
		Str("sale_id", ev.SaleID).
		Str("total", ev.Total.String()).
		Msg("evento de venta")
	return nil
}
