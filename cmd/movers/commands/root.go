package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	ruleFile string
	verbose  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "movers",
	Short: "Movers - 급등 종목 스크리닝 & 리더보드",
	Long: `Movers CLI

Screens a stock universe on a fixed interval and keeps
daily and weekly leaderboards of the stocks that passed.

Usage:
  go run ./cmd/movers [command]

Examples:
  go run ./cmd/movers run
  go run ./cmd/movers cycle
  go run ./cmd/movers board weekly
  go run ./cmd/movers rule --rule rules.yaml
  go run ./cmd/movers scheduler status`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&ruleFile, "rule", "", "YAML rule override (default is $RULE_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
