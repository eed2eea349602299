package fedge

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

type Config struct {
	Coordinator CoordinatorConfig `toml:"coordinator"`
	Simulator   SimulatorConfig   `toml:"simulator"`
}

type CoordinatorConfig struct {
	URL         string `toml:"url"`
	MQTTAddress string `toml:"mqtt_address"`
	BaseTopic   string `toml:"base_topic"`
}

type SimulatorConfig struct {
	Devices         int     `toml:"devices"`
	IntervalSeconds float64 `toml:"interval_seconds"`
	Temperature     float64 `toml:"temperature"`
	Humidity        float64 `toml:"humidity"`
	Light           float64 `toml:"light"`
	Voltage         float64 `toml:"voltage"`
	Jitter          float64 `toml:"jitter"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	tree, err := toml.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	var cfg Config
	if err := tree.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
