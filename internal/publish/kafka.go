// Package publish fans processed ticks out to a Kafka topic for downstream
// consumers.
package publish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/Hichemchir/execution-engine/internal/market"
	"github.com/Hichemchir/execution-engine/internal/metrics"
)

// TickPublisher writes normalized ticks to one Kafka topic, keyed by symbol
// so per-symbol ordering survives partitioning.
type TickPublisher struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

// NewTickPublisher builds a publisher targeting the given brokers and topic.
// Writes are asynchronous: the feed dispatch path must never block on the
// broker.
func NewTickPublisher(brokers []string, topic string, log zerolog.Logger) *TickPublisher {
	p := &TickPublisher{log: log}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				metrics.KafkaFailures.Add(float64(len(messages)))
				p.log.Warn().Err(err).Int("messages", len(messages)).Msg("kafka publish failed")
				return
			}
			metrics.KafkaPublished.Add(float64(len(messages)))
		},
	}
	return p
}

// PublishTick enqueues one tick. Marshal failures and enqueue failures are
// logged and counted, never propagated into the ingestion path.
func (p *TickPublisher) PublishTick(ctx context.Context, tk market.Tick) {
	value, err := json.Marshal(tk)
	if err != nil {
		metrics.KafkaFailures.Inc()
		p.log.Warn().Err(err).Str("symbol", tk.Symbol).Msg("tick marshal failed")
		return
	}
	msg := kafka.Message{Key: []byte(tk.Symbol), Value: value}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.KafkaFailures.Inc()
		p.log.Warn().Err(err).Str("symbol", tk.Symbol).Msg("kafka enqueue failed")
	}
}

// Callback adapts the publisher to the feed handler's observer signature.
func (p *TickPublisher) Callback() func(market.Tick) {
	return func(tk market.Tick) {
		p.PublishTick(context.Background(), tk)
	}
}

// Close flushes buffered messages and releases the writer.
func (p *TickPublisher) Close() error {
	return p.writer.Close()
}
