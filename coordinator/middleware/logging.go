package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/fedge/coordinator"
	"github.com/absmach/fedge/device"
	"github.com/absmach/fedge/pkg/aggregation"
	"github.com/absmach/fedge/pkg/model"
)

var _ coordinator.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    coordinator.Service
}

func Logging(logger *slog.Logger, svc coordinator.Service) coordinator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) ProcessReading(ctx context.Context, reading device.Reading) (resp device.Result, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("reading",
				slog.String("device_id", reading.DeviceID),
			),
			slog.Bool("trained", resp.Trained),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Process reading failed", args...)

			return
		}
		lm.logger.Debug("Process reading completed successfully", args...)
	}(time.Now())

	return lm.svc.ProcessReading(ctx, reading)
}

func (lm *loggingMiddleware) PredictDevice(ctx context.Context, deviceID string, sensors device.Sensors) (resp []float64, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("device",
				slog.String("id", deviceID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Predict device failed", args...)

			return
		}
		lm.logger.Info("Predict device completed successfully", args...)
	}(time.Now())

	return lm.svc.PredictDevice(ctx, deviceID, sensors)
}

func (lm *loggingMiddleware) SubmitUpdate(ctx context.Context, update aggregation.Update) (resp coordinator.SubmitResult, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("update",
				slog.String("device_id", update.DeviceID),
				slog.Int("sample_count", update.SampleCount),
			),
			slog.Int("pending", resp.PendingCount),
			slog.Bool("round_fired", resp.Round != nil),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Submit update failed", args...)

			return
		}
		lm.logger.Info("Submit update completed successfully", args...)
	}(time.Now())

	return lm.svc.SubmitUpdate(ctx, update)
}

func (lm *loggingMiddleware) SubmitUpdateCBOR(ctx context.Context, data []byte) (resp coordinator.SubmitResult, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("payload_size", len(data)),
			slog.Int("pending", resp.PendingCount),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Submit CBOR update failed", args...)

			return
		}
		lm.logger.Info("Submit CBOR update completed successfully", args...)
	}(time.Now())

	return lm.svc.SubmitUpdateCBOR(ctx, data)
}

func (lm *loggingMiddleware) TriggerRound(ctx context.Context, strategy string) (resp coordinator.Round, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("strategy", strategy),
			slog.Int("round_index", resp.Index),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Trigger round failed", args...)

			return
		}
		lm.logger.Info("Trigger round completed successfully", args...)
	}(time.Now())

	return lm.svc.TriggerRound(ctx, strategy)
}

func (lm *loggingMiddleware) GetWeights(ctx context.Context) (resp model.WeightSet, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get weights failed", args...)

			return
		}
		lm.logger.Info("Get weights completed successfully", args...)
	}(time.Now())

	return lm.svc.GetWeights(ctx)
}

func (lm *loggingMiddleware) GetModelSummary(ctx context.Context) (resp model.Summary, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get model summary failed", args...)

			return
		}
		lm.logger.Info("Get model summary completed successfully", args...)
	}(time.Now())

	return lm.svc.GetModelSummary(ctx)
}

func (lm *loggingMiddleware) GetHistory(ctx context.Context, offset, limit uint64) (resp coordinator.RoundPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get history failed", args...)

			return
		}
		lm.logger.Info("Get history completed successfully", args...)
	}(time.Now())

	return lm.svc.GetHistory(ctx, offset, limit)
}

func (lm *loggingMiddleware) GetRound(ctx context.Context, index int) (resp coordinator.Round, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("round_index", index),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get round failed", args...)

			return
		}
		lm.logger.Info("Get round completed successfully", args...)
	}(time.Now())

	return lm.svc.GetRound(ctx, index)
}

func (lm *loggingMiddleware) GetStatus(ctx context.Context) (resp coordinator.Status, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get status failed", args...)

			return
		}
		lm.logger.Info("Get status completed successfully", args...)
	}(time.Now())

	return lm.svc.GetStatus(ctx)
}

func (lm *loggingMiddleware) GetConsensus(ctx context.Context) (resp coordinator.ConsensusReport, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("pending", resp.PendingCount),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get consensus failed", args...)

			return
		}
		lm.logger.Info("Get consensus completed successfully", args...)
	}(time.Now())

	return lm.svc.GetConsensus(ctx)
}

func (lm *loggingMiddleware) Configure(ctx context.Context, cfg coordinator.TriggerConfig) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("trigger",
				slog.String("policy", string(cfg.Policy)),
				slog.String("strategy", cfg.Strategy.String()),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Configure failed", args...)

			return
		}
		lm.logger.Info("Configure completed successfully", args...)
	}(time.Now())

	return lm.svc.Configure(ctx, cfg)
}

func (lm *loggingMiddleware) Subscribe(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Subscribe failed", args...)

			return
		}
		lm.logger.Info("Subscribe completed successfully", args...)
	}(time.Now())

	return lm.svc.Subscribe(ctx)
}

func (lm *loggingMiddleware) Start(ctx context.Context) error {
	return lm.svc.Start(ctx)
}

func (lm *loggingMiddleware) Shutdown(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Shutdown failed", args...)

			return
		}
		lm.logger.Info("Shutdown completed successfully", args...)
	}(time.Now())

	return lm.svc.Shutdown(ctx)
}
