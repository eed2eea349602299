package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/absmach/fedge/coordinator"
	"github.com/absmach/fedge/device"
	"github.com/absmach/fedge/pkg/aggregation"
	"github.com/absmach/fedge/pkg/model"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) ProcessReading(ctx context.Context, reading device.Reading) (device.Result, error) {
	ctx, span := tm.tracer.Start(ctx, "process-reading", trace.WithAttributes(
		attribute.String("device_id", reading.DeviceID),
	))
	defer span.End()

	return tm.svc.ProcessReading(ctx, reading)
}

func (tm *tracing) PredictDevice(ctx context.Context, deviceID string, sensors device.Sensors) ([]float64, error) {
	ctx, span := tm.tracer.Start(ctx, "predict-device", trace.WithAttributes(
		attribute.String("device_id", deviceID),
	))
	defer span.End()

	return tm.svc.PredictDevice(ctx, deviceID, sensors)
}

func (tm *tracing) SubmitUpdate(ctx context.Context, update aggregation.Update) (coordinator.SubmitResult, error) {
	ctx, span := tm.tracer.Start(ctx, "submit-update", trace.WithAttributes(
		attribute.String("device_id", update.DeviceID),
		attribute.Int("sample_count", update.SampleCount),
	))
	defer span.End()

	return tm.svc.SubmitUpdate(ctx, update)
}

func (tm *tracing) SubmitUpdateCBOR(ctx context.Context, data []byte) (coordinator.SubmitResult, error) {
	ctx, span := tm.tracer.Start(ctx, "submit-update-cbor", trace.WithAttributes(
		attribute.Int("payload_size", len(data)),
	))
	defer span.End()

	return tm.svc.SubmitUpdateCBOR(ctx, data)
}

func (tm *tracing) TriggerRound(ctx context.Context, strategy string) (coordinator.Round, error) {
	ctx, span := tm.tracer.Start(ctx, "trigger-round", trace.WithAttributes(
		attribute.String("strategy", strategy),
	))
	defer span.End()

	return tm.svc.TriggerRound(ctx, strategy)
}

func (tm *tracing) GetWeights(ctx context.Context) (model.WeightSet, error) {
	ctx, span := tm.tracer.Start(ctx, "get-weights")
	defer span.End()

	return tm.svc.GetWeights(ctx)
}

func (tm *tracing) GetModelSummary(ctx context.Context) (model.Summary, error) {
	ctx, span := tm.tracer.Start(ctx, "get-model-summary")
	defer span.End()

	return tm.svc.GetModelSummary(ctx)
}

func (tm *tracing) GetHistory(ctx context.Context, offset, limit uint64) (coordinator.RoundPage, error) {
	ctx, span := tm.tracer.Start(ctx, "get-history", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.GetHistory(ctx, offset, limit)
}

func (tm *tracing) GetRound(ctx context.Context, index int) (coordinator.Round, error) {
	ctx, span := tm.tracer.Start(ctx, "get-round", trace.WithAttributes(
		attribute.Int("round_index", index),
	))
	defer span.End()

	return tm.svc.GetRound(ctx, index)
}

func (tm *tracing) GetStatus(ctx context.Context) (coordinator.Status, error) {
	ctx, span := tm.tracer.Start(ctx, "get-status")
	defer span.End()

	return tm.svc.GetStatus(ctx)
}

func (tm *tracing) GetConsensus(ctx context.Context) (coordinator.ConsensusReport, error) {
	ctx, span := tm.tracer.Start(ctx, "get-consensus")
	defer span.End()

	return tm.svc.GetConsensus(ctx)
}

func (tm *tracing) Configure(ctx context.Context, cfg coordinator.TriggerConfig) error {
	ctx, span := tm.tracer.Start(ctx, "configure", trace.WithAttributes(
		attribute.String("policy", string(cfg.Policy)),
	))
	defer span.End()

	return tm.svc.Configure(ctx, cfg)
}

func (tm *tracing) Subscribe(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "subscribe")
	defer span.End()

	return tm.svc.Subscribe(ctx)
}

func (tm *tracing) Start(ctx context.Context) error {
	return tm.svc.Start(ctx)
}

func (tm *tracing) Shutdown(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "shutdown")
	defer span.End()

	return tm.svc.Shutdown(ctx)
}
