package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/absmach/fedge/pkg/sdk"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10
	strategy  string
)

var fsdk sdk.SDK

func SetSDK(s sdk.SDK) {
	fsdk = s
}

func NewRoundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounds [list|view|trigger]",
		Short: "Aggregation rounds",
		Long:  `List completed aggregation rounds, view one, or trigger a new one.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List rounds",
		Long:  `List completed aggregation rounds.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := fsdk.ListRounds(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <index>",
		Short: "View round",
		Long:  `View one completed round by index.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			index, err := strconv.Atoi(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			round, err := fsdk.GetRound(index)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, round)
		},
	}

	triggerCmd := &cobra.Command{
		Use:   "trigger",
		Short: "Trigger round",
		Long: `Force an aggregation round over the pending updates.

Examples:
  # Aggregate with the configured default strategy
  fedge-cli rounds trigger

  # Aggregate with coordinate-wise median
  fedge-cli rounds trigger --strategy=median`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			round, err := fsdk.TriggerRound(strategy)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, round)
		},
	}

	triggerCmd.Flags().StringVarP(
		&strategy,
		"strategy",
		"s",
		"",
		"Aggregation strategy (fedavg, equal, weighted, median)",
	)

	cmd.AddCommand(listCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(triggerCmd)

	cmd.PersistentFlags().Uint64VarP(
		&defOffset,
		"offset",
		"o",
		defOffset,
		"Offset",
	)

	cmd.PersistentFlags().Uint64VarP(
		&defLimit,
		"limit",
		"l",
		defLimit,
		"Limit",
	)

	return cmd
}
