package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"dossier/pkg/platform/circuit"
	"dossier/pkg/requestcontext"
)

// Producer is the slice of *kgo.Client the publisher uses.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// Publisher records audit events to the structured log and, when a
// producer is configured, to a Kafka topic keyed by applicant. Emit never
// fails the calling operation.
type Publisher struct {
	logger   *slog.Logger
	producer Producer
	topic    string
	breaker  *circuit.Breaker
}

type Option func(*Publisher)

// WithKafka streams events to topic through producer. Repeated delivery
// failures open a breaker and events go to the log only until a trial call
// succeeds.
func WithKafka(producer Producer, topic string) Option {
	return func(p *Publisher) {
		p.producer = producer
		p.topic = topic
		if p.breaker == nil {
			p.breaker = circuit.New("audit-kafka")
		}
	}
}

// WithBreaker overrides the delivery breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) { p.breaker = b }
}

func NewPublisher(logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills request-scoped metadata and the category, then publishes.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = CategoryOf(event.Action)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.Device == "" {
		event.Device = requestcontext.Device(ctx)
	}

	attrs := []any{
		"action", event.Action,
		"category", event.Category,
		"actor_id", event.ActorID.String(),
		"applicant_id", event.ApplicantID.String(),
		"request_id", event.RequestID,
	}
	if !event.ApplicationID.IsNil() {
		attrs = append(attrs, "application_id", event.ApplicationID.String())
	}
	if event.Section != nil {
		attrs = append(attrs, "section", *event.Section)
	}
	if event.Collection != "" {
		attrs = append(attrs, "collection", event.Collection)
	}
	if event.Reason != "" {
		attrs = append(attrs, "reason", event.Reason)
	}
	p.logger.InfoContext(ctx, "audit", attrs...)

	if p.producer == nil || !p.breaker.Allow() {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "audit event encode failed", "action", event.Action, "error", err)
		return
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.ApplicantID.String()),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(event.Category)},
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	// The request context ends with the response; delivery outlives it.
	p.producer.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("audit event delivery failed", "action", event.Action, "topic", r.Topic, "error", err)
			if _, change := p.breaker.RecordFailure(); change.Opened {
				p.logger.Warn("audit stream paused", "breaker", p.breaker.Name())
			}
			return
		}
		if _, change := p.breaker.RecordSuccess(); change.Closed {
			p.logger.Info("audit stream resumed", "breaker", p.breaker.Name())
		}
	})
}
