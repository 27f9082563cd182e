package sentiment

import (
	"context"

	"chat-sentiment/backend/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "chat-sentiment/backend/sentiment"

// Decision sources recorded on metrics and spans.
const (
	SourceRemote = "remote"
	SourceRules  = "rules"
)

// RemoteClassifier asks an external service for a label.
// ok is false whenever the service gave no usable answer.
type RemoteClassifier interface {
	TryClassify(ctx context.Context, text string) (label Label, ok bool)
}

// Classifier is what callers need from the classification path.
type Classifier interface {
	Classify(ctx context.Context, text string) Label
}

// Pipeline tries the remote classifier first and falls back to the rules.
type Pipeline struct {
	rules     *Rules
	remote    RemoteClassifier
	log       *logger.Logger
	tracer    trace.Tracer
	decisions metric.Int64Counter
}

// NewPipeline wires the rules with an optional remote classifier. remote may be nil.
func NewPipeline(rules *Rules, remote RemoteClassifier, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.GetGlobal()
	}

	decisions, err := otel.Meter(instrumentationName).Int64Counter(
		"sentiment_classifications_total",
		metric.WithDescription("Labels assigned, by decision source"),
	)
	if err != nil {
		log.LogError(err, "Failed to create classification counter")
		decisions, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter("sentiment_classifications_total")
	}

	return &Pipeline{
		rules:     rules,
		remote:    remote,
		log:       log.WithComponent("sentiment"),
		tracer:    otel.Tracer(instrumentationName),
		decisions: decisions,
	}
}

// Classify always returns a label; remote failures are never surfaced.
func (p *Pipeline) Classify(ctx context.Context, text string) Label {
	ctx, span := p.tracer.Start(ctx, "sentiment.Classify")
	defer span.End()

	label, source := p.classify(ctx, text)

	span.SetAttributes(
		attribute.String("sentiment.source", source),
		attribute.String("sentiment.label", string(label)),
	)
	p.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("label", string(label)),
	))
	return label
}

func (p *Pipeline) classify(ctx context.Context, text string) (Label, string) {
	if p.remote != nil {
		if label, ok := p.remote.TryClassify(ctx, text); ok {
			return label, SourceRemote
		}
		logger.FromContext(ctx, p.log).Debug("Remote classifier unavailable, using keyword rules")
	}
	return p.rules.Classify(text), SourceRules
}
