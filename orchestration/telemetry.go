package orchestration

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/waivern/wct/orchestration"

// Telemetry wraps the OpenTelemetry tracer and metric instruments
// DAGExecutor uses to report per-artifact execution. The zero value uses
// the global otel providers (a no-op until the process wires real
// exporters), so callers that don't care about telemetry can leave it
// unset.
type Telemetry struct {
	tracer      trace.Tracer
	artifactDur metric.Float64Histogram
}

// NewTelemetry constructs a Telemetry instance from the given providers.
// Passing nil for either uses the global otel TracerProvider/MeterProvider.
func NewTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) *Telemetry {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)
	hist, err := meter.Float64Histogram(
		"wct.orchestration.artifact.duration",
		metric.WithDescription("Artifact execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		// A broken meter shouldn't break execution; fall back to a
		// no-op instrument so RecordArtifact stays safe to call.
		hist, _ = noop.Meter{}.Float64Histogram("wct.orchestration.artifact.duration")
	}
	return &Telemetry{
		tracer:      tp.Tracer(instrumentationName),
		artifactDur: hist,
	}
}

// StartArtifact opens a span for executing the given artifact, tagging it
// with the artifact ID and kind (source/process/child_runbook).
func (t *Telemetry) StartArtifact(ctx context.Context, runID, artifactID, kind string) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "orchestration.artifact",
		trace.WithAttributes(
			attribute.String("wct.run_id", runID),
			attribute.String("wct.artifact_id", artifactID),
			attribute.String("wct.artifact_kind", kind),
		),
	)
}

// RecordArtifact records an artifact's execution duration and outcome kind.
func (t *Telemetry) RecordArtifact(ctx context.Context, artifactID string, outcome OutcomeKind, seconds float64) {
	if t == nil || t.artifactDur == nil {
		return
	}
	t.artifactDur.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("wct.artifact_id", artifactID),
			attribute.String("wct.outcome", outcome.String()),
		),
	)
}
