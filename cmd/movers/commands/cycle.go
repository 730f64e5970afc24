package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/movers/internal/presentation"
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "스크리닝 사이클 1회 실행",
	Long: `Runs a single screening cycle against the configured store and
prints the snapshot table and both leaderboards.

Example:
  go run ./cmd/movers cycle
  STORE_BACKEND=sqlite go run ./cmd/movers cycle`,
	RunE: runCycle,
}

func init() {
	rootCmd.AddCommand(cycleCmd)
}

func runCycle(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.engine(presentation.NewConsole(cmd.OutOrStdout())).Run(ctx)
	if err != nil {
		return fmt.Errorf("screening cycle: %w", err)
	}

	for _, board := range result.Boards {
		if board.Error != "" {
			return fmt.Errorf("%s leaderboard not saved: %s", board.Kind, board.Error)
		}
	}
	return nil
}
