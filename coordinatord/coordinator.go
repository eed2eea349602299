package coordinatord

import (
	"context"
	"time"

	"github.com/absmach/supermq/pkg/server"
	"github.com/spf13/cobra"

	"github.com/absmach/fedge/pkg/storage"
)

var (
	DefTLSVerification = false
	DefCoordinatorURL  = "http://localhost:7070"
)

var (
	logLevel         = "info"
	mqttAddress      = ""
	mqttTimeout      = 30 * time.Second
	mqttQOS          = 2
	baseTopic        = "fl"
	triggerPolicy    = "count"
	triggerThreshold = 10
	triggerInterval  = 5 * time.Minute
	triggerStrategy  = "fedavg"
)

var coordinatorCmd = []cobra.Command{
	{
		Use:   "start",
		Short: "Start coordinator",
		Long:  `Start the federated learning coordinator.`,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := Config{
				LogLevel:         logLevel,
				MQTTAddress:      mqttAddress,
				MQTTQoS:          uint8(mqttQOS),
				MQTTTimeout:      mqttTimeout,
				BaseTopic:        baseTopic,
				Architecture:     []int{4, 16, 8, 4},
				LearningRate:     0.01,
				TriggerPolicy:    triggerPolicy,
				TriggerThreshold: triggerThreshold,
				TriggerInterval:  triggerInterval,
				TriggerStrategy:  triggerStrategy,
				Storage: storage.Config{
					Type: "memory",
				},
				Server: server.Config{
					Port: "7070",
				},
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			if err := StartCoordinator(ctx, cancel, cfg); err != nil {
				cmd.PrintErrf("failed to start coordinator: %s", err.Error())
			}
			cancel()
		},
	},
}

func NewCoordinatorCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "coordinator [start]",
		Short: "Coordinator management",
		Long:  `Start the federated learning coordinator.`,
	}

	for i := range coordinatorCmd {
		cmd.AddCommand(&coordinatorCmd[i])
	}

	cmd.PersistentFlags().StringVarP(
		&logLevel,
		"log-level",
		"l",
		logLevel,
		"Log level",
	)

	cmd.PersistentFlags().StringVarP(
		&mqttAddress,
		"mqtt-address",
		"m",
		mqttAddress,
		"MQTT broker address",
	)

	cmd.PersistentFlags().DurationVarP(
		&mqttTimeout,
		"mqtt-timeout",
		"o",
		mqttTimeout,
		"MQTT Timeout",
	)

	cmd.PersistentFlags().IntVarP(
		&mqttQOS,
		"mqtt-qos",
		"q",
		mqttQOS,
		"MQTT QOS",
	)

	cmd.PersistentFlags().StringVarP(
		&baseTopic,
		"base-topic",
		"b",
		baseTopic,
		"Base MQTT topic for device traffic",
	)

	cmd.PersistentFlags().StringVarP(
		&triggerPolicy,
		"trigger-policy",
		"p",
		triggerPolicy,
		"Round trigger policy (count, interval)",
	)

	cmd.PersistentFlags().IntVarP(
		&triggerThreshold,
		"trigger-threshold",
		"t",
		triggerThreshold,
		"Pending update count that fires a round",
	)

	cmd.PersistentFlags().DurationVarP(
		&triggerInterval,
		"trigger-interval",
		"i",
		triggerInterval,
		"Period between scheduled rounds",
	)

	cmd.PersistentFlags().StringVarP(
		&triggerStrategy,
		"trigger-strategy",
		"s",
		triggerStrategy,
		"Default aggregation strategy",
	)

	return &cmd
}
