package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lightcone",
	Short: "Causally bounded query engine over an append-only dataset",
	Long: "Lightcone serves read-only queries over an immutable, append-only dataset.\n" +
		"Every query is bounded by a finite propagation speed, routed through a\n" +
		"weighted spatial graph, and subject to irreversible retrievability decay.",
}

var configPath string

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(appendCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(statsCmd)
}
