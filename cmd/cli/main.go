package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/absmach/fedge/cli"
	"github.com/absmach/fedge/coordinatord"
	"github.com/absmach/fedge/pkg/sdk"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fedge-cli",
		Short: "Fedge CLI",
		Long:  `Fedge CLI is a command line interface for the federated learning coordinator.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			sdkConf := sdk.Config{
				CoordinatorURL:  coordinatord.DefCoordinatorURL,
				TLSVerification: coordinatord.DefTLSVerification,
			}
			s := sdk.NewSDK(sdkConf)
			cli.SetSDK(s)
		},
	}

	rootCmd.AddCommand(cli.NewRoundsCmd())
	rootCmd.AddCommand(cli.NewModelCmd())
	rootCmd.AddCommand(cli.NewStatusCmd())
	rootCmd.AddCommand(cli.NewConfigCmd())
	rootCmd.AddCommand(coordinatord.NewCoordinatorCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
