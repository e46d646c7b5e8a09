// Package broker publica eventos de factura y solicitudes de notificación en Kafka, y
// consume los eventos para invalidar la caché de reportes.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/billing-engine/pkg/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer escribe mensajes JSON en un tópico.
type Producer struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewProducer crea un productor que espera confirmación de todas las réplicas.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	return &Producer{writer: writer, topic: topic, now: time.Now}
}

// Publish serializa value y lo escribe con la clave dada. Mensajes de la misma clave
// caen en la misma partición y conservan el orden.
func (p *Producer) Publish(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal kafka message: %w", err)
	}
	msg := kafka.Message{Key: []byte(key), Value: payload, Time: p.now()}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message to %s: %w", p.topic, err)
	}
	return nil
}

// Close cierra el productor.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// MessageHandler procesa un mensaje. Un error deja el mensaje sin confirmar.
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// Consumer lee un tópico dentro de un grupo de consumidores.
type Consumer struct {
	reader  messageReader
	log     *logger.Logger
	backoff time.Duration
}

// NewConsumer crea un consumidor del grupo groupID.
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})
	return newConsumer(reader, log)
}

func newConsumer(reader messageReader, log *logger.Logger) *Consumer {
	if log == nil {
		log = logger.Nop()
	}
	return &Consumer{reader: reader, log: log, backoff: time.Second}
}

// Run consume hasta que ctx se cancele. Cada mensaje manejado sin error se confirma; uno
// fallido se reintenta tras una pausa.
func (c *Consumer) Run(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			c.log.Warn().Err(err).Msg("error leyendo de kafka")
			if !c.sleep(ctx) {
				return ctx.Err()
			}
			continue
		}

		for {
			err := handler(ctx, msg)
			if err == nil {
				break
			}
			c.log.Error().Err(err).Int64("offset", msg.Offset).Int("partition", msg.Partition).Msg("error procesando mensaje")
			if !c.sleep(ctx) {
				return ctx.Err()
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("error confirmando mensaje")
		}
	}
}

func (c *Consumer) sleep(ctx context.Context) bool {
	t := time.NewTimer(c.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Close cierra el consumidor.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
