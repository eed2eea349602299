package main

import (
	"context"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/absmach/supermq/pkg/server"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/absmach/fedge/coordinatord"
	"github.com/absmach/fedge/pkg/storage"
)

const (
	defHTTPPort   = "7070"
	envPrefixHTTP = "COORDINATOR_HTTP_"
	pathEnv       = ".env"
)

type envConfig struct {
	LogLevel     string        `env:"COORDINATOR_LOG_LEVEL"         envDefault:"info"`
	InstanceID   string        `env:"COORDINATOR_INSTANCE_ID"`
	MQTTAddress  string        `env:"COORDINATOR_MQTT_ADDRESS"`
	MQTTQoS      uint8         `env:"COORDINATOR_MQTT_QOS"          envDefault:"2"`
	MQTTTimeout  time.Duration `env:"COORDINATOR_MQTT_TIMEOUT"      envDefault:"30s"`
	MQTTUsername string        `env:"COORDINATOR_MQTT_USERNAME"`
	MQTTPassword string        `env:"COORDINATOR_MQTT_PASSWORD"`
	BaseTopic    string        `env:"COORDINATOR_BASE_TOPIC"        envDefault:"fl"`

	Architecture     []int   `env:"COORDINATOR_ARCHITECTURE"      envDefault:"4,16,8,4"`
	LearningRate     float64 `env:"COORDINATOR_LEARNING_RATE"     envDefault:"0.01"`
	BufferCapacity   int     `env:"COORDINATOR_BUFFER_CAPACITY"   envDefault:"1000"`
	UpdateInterval   int     `env:"COORDINATOR_UPDATE_INTERVAL"   envDefault:"100"`
	AnomalyThreshold float64 `env:"COORDINATOR_ANOMALY_THRESHOLD" envDefault:"2.0"`
	Shards           int     `env:"COORDINATOR_SHARDS"            envDefault:"4"`

	TriggerPolicy    string        `env:"COORDINATOR_TRIGGER_POLICY"    envDefault:"count"`
	TriggerThreshold int           `env:"COORDINATOR_TRIGGER_THRESHOLD" envDefault:"10"`
	TriggerInterval  time.Duration `env:"COORDINATOR_TRIGGER_INTERVAL"  envDefault:"5m"`
	TriggerCron      string        `env:"COORDINATOR_TRIGGER_CRON"`
	TriggerStrategy  string        `env:"COORDINATOR_TRIGGER_STRATEGY"  envDefault:"fedavg"`

	OTELURL    url.URL `env:"COORDINATOR_OTEL_URL"`
	TraceRatio float64 `env:"COORDINATOR_TRACE_RATIO" envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	storageConfig := storage.Config{}
	if err := env.Parse(&storageConfig); err != nil {
		log.Fatalf("failed to load storage configuration : %s", err.Error())
	}

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		log.Fatalf("failed to load HTTP server configuration : %s", err.Error())
	}

	if err := coordinatord.StartCoordinator(ctx, cancel, coordinatord.Config{
		LogLevel:         cfg.LogLevel,
		InstanceID:       cfg.InstanceID,
		MQTTAddress:      cfg.MQTTAddress,
		MQTTQoS:          cfg.MQTTQoS,
		MQTTTimeout:      cfg.MQTTTimeout,
		MQTTUsername:     cfg.MQTTUsername,
		MQTTPassword:     cfg.MQTTPassword,
		BaseTopic:        cfg.BaseTopic,
		Architecture:     cfg.Architecture,
		LearningRate:     cfg.LearningRate,
		BufferCapacity:   cfg.BufferCapacity,
		UpdateInterval:   cfg.UpdateInterval,
		AnomalyThreshold: cfg.AnomalyThreshold,
		Shards:           cfg.Shards,
		TriggerPolicy:    cfg.TriggerPolicy,
		TriggerThreshold: cfg.TriggerThreshold,
		TriggerInterval:  cfg.TriggerInterval,
		TriggerCron:      cfg.TriggerCron,
		TriggerStrategy:  cfg.TriggerStrategy,
		Storage:          storageConfig,
		Server:           httpServerConfig,
		OTELURL:          cfg.OTELURL,
		TraceRatio:       cfg.TraceRatio,
	}); err != nil {
		log.Fatalf("coordinator exited with error: %s", err.Error())
	}
}
