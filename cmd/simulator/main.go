package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/0x6flab/namegenerator"
	"golang.org/x/sync/errgroup"

	"github.com/absmach/fedge"
	"github.com/absmach/fedge/pkg/mqtt"
)

const svcName = "simulator"

var defaults = fedge.Config{
	Coordinator: fedge.CoordinatorConfig{
		MQTTAddress: "tcp://localhost:1883",
		BaseTopic:   "fl",
	},
	Simulator: fedge.SimulatorConfig{
		Devices:         5,
		IntervalSeconds: 1,
		Temperature:     22,
		Humidity:        45,
		Light:           300,
		Voltage:         3.3,
		Jitter:          0.5,
	},
}

// device walks each sensor value randomly around its configured base, the
// drift a physical sensor stream would show.
type device struct {
	id      string
	sensors map[string]float64
	jitter  float64
	rng     *rand.Rand
}

func newDevice(id string, cfg fedge.SimulatorConfig, rng *rand.Rand) *device {
	return &device{
		id: id,
		sensors: map[string]float64{
			"temperature": cfg.Temperature,
			"humidity":    cfg.Humidity,
			"light":       cfg.Light,
			"voltage":     cfg.Voltage,
		},
		jitter: cfg.Jitter,
		rng:    rng,
	}
}

func (d *device) next() map[string]any {
	msg := map[string]any{
		"device_id": d.id,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	for field, value := range d.sensors {
		value += (d.rng.Float64()*2 - 1) * d.jitter
		d.sensors[field] = value
		msg[field] = value
	}

	return msg
}

func main() {
	configPath := flag.String("config", "", "path to TOML config")
	flag.Parse()

	cfg := defaults
	if *configPath != "" {
		loaded, err := fedge.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load configuration : %s", err.Error())
		}
		cfg = *loaded
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	pubsub, err := mqtt.NewPubSub(cfg.Coordinator.MQTTAddress, 1, svcName, "", "", 30*time.Second, logger)
	if err != nil {
		log.Fatalf("failed to connect to MQTT broker: %s", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	topic := cfg.Coordinator.BaseTopic + "/readings"
	namegen := namegenerator.NewGenerator()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Simulator.Devices; i++ {
		d := newDevice(namegen.Generate(), cfg.Simulator, rand.New(rand.NewSource(time.Now().UnixNano()+int64(i))))
		logger.Info("starting simulated device", slog.String("device_id", d.id))

		g.Go(func() error {
			ticker := time.NewTicker(time.Duration(cfg.Simulator.IntervalSeconds * float64(time.Second)))
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if err := pubsub.Publish(ctx, topic, d.next()); err != nil {
						logger.Warn("failed to publish reading",
							slog.String("device_id", d.id),
							slog.String("error", err.Error()))
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("simulator exited with error", slog.String("error", err.Error()))
	}

	if err := pubsub.Disconnect(context.Background()); err != nil {
		logger.Error("failed to disconnect", slog.String("error", err.Error()))
	}
}
