package cli

import (
	"github.com/spf13/cobra"
)

func NewModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model [weights|summary]",
		Short: "Global model",
		Long:  `Inspect the global model weights and shape.`,
	}

	weightsCmd := &cobra.Command{
		Use:   "weights",
		Short: "View weights",
		Long:  `View the current global weight set.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			ws, err := fsdk.GetWeights()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, ws)
		},
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "View summary",
		Long:  `View the global model's layer shapes and parameter counts.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			summary, err := fsdk.GetModelSummary()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, summary)
		},
	}

	cmd.AddCommand(weightsCmd)
	cmd.AddCommand(summaryCmd)

	return cmd
}
