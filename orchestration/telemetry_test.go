package orchestration_test

import (
	"context"
	"testing"

	"github.com/waivern/wct/orchestration"
)

func TestTelemetryStartAndRecordArtifactDoNotPanicWithGlobalProviders(t *testing.T) {
	tel := orchestration.NewTelemetry(nil, nil)

	ctx, span := tel.StartArtifact(context.Background(), "run-1", "scan", "source")
	span.End()

	tel.RecordArtifact(ctx, "scan", orchestration.OutcomeCompleted, 0.5)
}

func TestTelemetryNilReceiverIsSafe(t *testing.T) {
	var tel *orchestration.Telemetry

	ctx, span := tel.StartArtifact(context.Background(), "run-1", "scan", "source")
	span.End()

	tel.RecordArtifact(ctx, "scan", orchestration.OutcomeFailed, 0.1)
}
