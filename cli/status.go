package cli

import (
	"github.com/spf13/cobra"
)

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Engine status",
		Long:  `View the coordinator state, pending updates, and fleet statistics.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			status, err := fsdk.GetStatus()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, status)
		},
	}

	consensusCmd := &cobra.Command{
		Use:   "consensus",
		Short: "Pending consensus",
		Long:  `Score agreement across the pending device updates.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			consensus, err := fsdk.GetConsensus()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, consensus)
		},
	}

	cmd.AddCommand(consensusCmd)

	return cmd
}
