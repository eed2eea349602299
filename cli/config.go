package cli

import (
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/absmach/fedge/pkg/sdk"
)

var (
	cfgPolicy    string
	cfgThreshold int
	cfgInterval  time.Duration
	cfgCron      string
	cfgStrategy  string
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [set|edit]",
		Short: "Trigger configuration",
		Long:  `Replace the coordinator's round trigger policy.`,
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Set trigger config",
		Long: `Set the round trigger policy from flags.

Examples:
  # Fire a round once 20 updates are pending
  fedge-cli config set --policy=count --threshold=20

  # Fire a round every 5 minutes with median aggregation
  fedge-cli config set --policy=interval --interval=5m --strategy=median`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			applied, err := fsdk.Configure(sdk.TriggerConfig{
				Policy:    cfgPolicy,
				Threshold: cfgThreshold,
				Interval:  cfgInterval,
				Cron:      cfgCron,
				Strategy:  cfgStrategy,
			})
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, applied)
		},
	}

	setCmd.Flags().StringVarP(&cfgPolicy, "policy", "p", "count", "Trigger policy (count, interval)")
	setCmd.Flags().IntVarP(&cfgThreshold, "threshold", "t", 0, "Pending update count that fires a round")
	setCmd.Flags().DurationVarP(&cfgInterval, "interval", "i", 0, "Period between scheduled rounds")
	setCmd.Flags().StringVarP(&cfgCron, "cron", "c", "", "Cron expression for scheduled rounds")
	setCmd.Flags().StringVarP(&cfgStrategy, "strategy", "s", "fedavg", "Aggregation strategy (fedavg, equal, weighted, median)")

	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit trigger config",
		Long:  `Edit the round trigger policy interactively.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			var (
				policy    = "count"
				strategy  = "fedavg"
				threshold = "100"
				interval  = "5m"
			)

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewSelect[string]().
						Title("Trigger policy").
						Options(
							huh.NewOption("Pending update count", "count"),
							huh.NewOption("Fixed interval", "interval"),
						).
						Value(&policy),
					huh.NewSelect[string]().
						Title("Aggregation strategy").
						Options(
							huh.NewOption("Federated averaging", "fedavg"),
							huh.NewOption("Equal weights", "equal"),
							huh.NewOption("Metadata weighted", "weighted"),
							huh.NewOption("Coordinate-wise median", "median"),
						).
						Value(&strategy),
					huh.NewInput().
						Title("Count threshold").
						Description("Pending updates needed to fire a round (count policy)").
						Value(&threshold),
					huh.NewInput().
						Title("Interval").
						Description("Period between rounds, e.g. 5m (interval policy)").
						Value(&interval),
				),
			)
			if err := form.Run(); err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			cfg := sdk.TriggerConfig{
				Policy:   policy,
				Strategy: strategy,
			}
			switch policy {
			case "count":
				n, err := strconv.Atoi(threshold)
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				cfg.Threshold = n
			case "interval":
				d, err := time.ParseDuration(interval)
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				cfg.Interval = d
			}

			applied, err := fsdk.Configure(cfg)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logSuccessCmd(*cmd, "Successfully updated trigger config")
			logJSONCmd(*cmd, applied)
		},
	}

	cmd.AddCommand(setCmd)
	cmd.AddCommand(editCmd)

	return cmd
}
