package telemetry

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "", "custodian")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNewProviderRecordsSpans(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	tp, err := NewProvider(ctx, "custodian", sdktrace.WithSpanProcessor(recorder))
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	defer tp.Shutdown(ctx)

	_, span := tp.Tracer("test").Start(ctx, "custody.Deposit")
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 || ended[0].Name() != "custody.Deposit" {
		t.Fatalf("unexpected spans %v", ended)
	}
	var found bool
	for _, kv := range ended[0].Resource().Attributes() {
		if string(kv.Key) == "service.name" && kv.Value.AsString() == "custodian" {
			found = true
		}
	}
	if !found {
		t.Fatalf("service name missing from resource")
	}
}
