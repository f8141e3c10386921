package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "stocksim",
	Short: "Historical stock portfolio replay simulator",
	Long: `stocksim replays a portfolio over historical close prices on a fixed
interval grid. Holdings are rebased proportionally to each asset's price
return per step, so a replay is a deterministic environment for training
and evaluating allocation policies.

Examples:
  stocksim run --symbols AAPL,MSFT --start 2023-01-02 --steps 60
  stocksim run --symbols AAPL --start 2023-01-02 --interval 1h --source eodhd`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
