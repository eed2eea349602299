package middleware

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/absmach/fedge/coordinator"
	"github.com/absmach/fedge/device"
	"github.com/absmach/fedge/pkg/aggregation"
	"github.com/absmach/fedge/pkg/model"
)

var _ coordinator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     coordinator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc coordinator.Service) coordinator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) ProcessReading(ctx context.Context, reading device.Reading) (device.Result, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "process-reading").Add(1)
		mm.latency.With("method", "process-reading").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ProcessReading(ctx, reading)
}

func (mm *metricsMiddleware) PredictDevice(ctx context.Context, deviceID string, sensors device.Sensors) ([]float64, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "predict-device").Add(1)
		mm.latency.With("method", "predict-device").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.PredictDevice(ctx, deviceID, sensors)
}

func (mm *metricsMiddleware) SubmitUpdate(ctx context.Context, update aggregation.Update) (coordinator.SubmitResult, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "submit-update").Add(1)
		mm.latency.With("method", "submit-update").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SubmitUpdate(ctx, update)
}

func (mm *metricsMiddleware) SubmitUpdateCBOR(ctx context.Context, data []byte) (coordinator.SubmitResult, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "submit-update-cbor").Add(1)
		mm.latency.With("method", "submit-update-cbor").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.SubmitUpdateCBOR(ctx, data)
}

func (mm *metricsMiddleware) TriggerRound(ctx context.Context, strategy string) (coordinator.Round, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "trigger-round").Add(1)
		mm.latency.With("method", "trigger-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.TriggerRound(ctx, strategy)
}

func (mm *metricsMiddleware) GetWeights(ctx context.Context) (model.WeightSet, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-weights").Add(1)
		mm.latency.With("method", "get-weights").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetWeights(ctx)
}

func (mm *metricsMiddleware) GetModelSummary(ctx context.Context) (model.Summary, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-model-summary").Add(1)
		mm.latency.With("method", "get-model-summary").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetModelSummary(ctx)
}

func (mm *metricsMiddleware) GetHistory(ctx context.Context, offset, limit uint64) (coordinator.RoundPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-history").Add(1)
		mm.latency.With("method", "get-history").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetHistory(ctx, offset, limit)
}

func (mm *metricsMiddleware) GetRound(ctx context.Context, index int) (coordinator.Round, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-round").Add(1)
		mm.latency.With("method", "get-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetRound(ctx, index)
}

func (mm *metricsMiddleware) GetStatus(ctx context.Context) (coordinator.Status, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-status").Add(1)
		mm.latency.With("method", "get-status").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetStatus(ctx)
}

func (mm *metricsMiddleware) GetConsensus(ctx context.Context) (coordinator.ConsensusReport, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-consensus").Add(1)
		mm.latency.With("method", "get-consensus").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetConsensus(ctx)
}

func (mm *metricsMiddleware) Configure(ctx context.Context, cfg coordinator.TriggerConfig) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "configure").Add(1)
		mm.latency.With("method", "configure").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Configure(ctx, cfg)
}

func (mm *metricsMiddleware) Subscribe(ctx context.Context) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "subscribe").Add(1)
		mm.latency.With("method", "subscribe").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Subscribe(ctx)
}

func (mm *metricsMiddleware) Start(ctx context.Context) error {
	return mm.svc.Start(ctx)
}

func (mm *metricsMiddleware) Shutdown(ctx context.Context) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "shutdown").Add(1)
		mm.latency.With("method", "shutdown").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Shutdown(ctx)
}
