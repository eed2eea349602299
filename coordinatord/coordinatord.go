package coordinatord

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/supermq/pkg/jaeger"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/absmach/fedge/coordinator"
	"github.com/absmach/fedge/coordinator/api"
	"github.com/absmach/fedge/coordinator/middleware"
	"github.com/absmach/fedge/device"
	"github.com/absmach/fedge/pkg/aggregation"
	"github.com/absmach/fedge/pkg/model"
	"github.com/absmach/fedge/pkg/mqtt"
	"github.com/absmach/fedge/pkg/storage"
)

const svcName = "coordinator"

type Config struct {
	LogLevel   string
	InstanceID string

	MQTTAddress  string
	MQTTQoS      uint8
	MQTTTimeout  time.Duration
	MQTTUsername string
	MQTTPassword string
	BaseTopic    string

	Architecture     []int
	LearningRate     float64
	BufferCapacity   int
	UpdateInterval   int
	AnomalyThreshold float64
	Shards           int

	TriggerPolicy    string
	TriggerThreshold int
	TriggerInterval  time.Duration
	TriggerCron      string
	TriggerStrategy  string

	Storage    storage.Config
	Server     server.Config
	OTELURL    url.URL
	TraceRatio float64
}

func StartCoordinator(ctx context.Context, cancel context.CancelFunc, cfg Config) error {
	g, ctx := errgroup.WithContext(ctx)

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, "", cfg.TraceRatio)
		if err != nil {
			return fmt.Errorf("failed to initialize opentelemetry: %s", err.Error())
		}
		defer func() {
			if err := sdktp.Shutdown(ctx); err != nil {
				slog.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	strategy, err := aggregation.ParseStrategy(cfg.TriggerStrategy)
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %s", err.Error())
	}

	var pubsub mqtt.PubSub
	if cfg.MQTTAddress != "" {
		pubsub, err = mqtt.NewPubSub(cfg.MQTTAddress, cfg.MQTTQoS, svcName, cfg.MQTTUsername, cfg.MQTTPassword, cfg.MQTTTimeout, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize mqtt pubsub: %s", err.Error())
		}
	}

	svc, err := coordinator.NewService(coordinator.Config{
		Architecture: model.Architecture(cfg.Architecture),
		LearningRate: cfg.LearningRate,
		Device: device.Config{
			BufferCapacity:   cfg.BufferCapacity,
			UpdateInterval:   cfg.UpdateInterval,
			AnomalyThreshold: cfg.AnomalyThreshold,
		},
		Shards: cfg.Shards,
		Trigger: coordinator.TriggerConfig{
			Policy:    coordinator.TriggerPolicy(cfg.TriggerPolicy),
			Threshold: cfg.TriggerThreshold,
			Interval:  cfg.TriggerInterval,
			Cron:      cfg.TriggerCron,
			Strategy:  strategy,
		},
		BaseTopic: cfg.BaseTopic,
	}, store, pubsub, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize service: %s", err.Error())
	}
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	if pubsub != nil {
		if err := svc.Subscribe(ctx); err != nil {
			return fmt.Errorf("failed to subscribe to device topics: %s", err.Error())
		}
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, cfg.Server, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return svc.Start(ctx)
	})

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}

	if err := svc.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shut down cleanly", slog.Any("error", err))
	}

	return nil
}
