package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/presentation"
)

var (
	boardCmd = &cobra.Command{
		Use:   "board [daily|weekly]",
		Short: "저장된 리더보드 조회",
		Long: `Prints the stored leaderboards. With no argument both are shown.
An expired board prints as empty.

Example:
  go run ./cmd/movers board
  go run ./cmd/movers board weekly`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(contracts.Daily), string(contracts.Weekly)},
		RunE:      showBoard,
	}

	purgeCmd = &cobra.Command{
		Use:   "purge",
		Short: "만료된 리더보드 삭제",
		Long: `Deletes every leaderboard whose validity window has passed.
The scheduler does this daily at midnight; this runs it now.`,
		Args: cobra.NoArgs,
		RunE: purgeBoards,
	}
)

func init() {
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(purgeCmd)
}

func showBoard(cmd *cobra.Command, args []string) error {
	kinds := contracts.Kinds()
	if len(args) == 1 {
		kind, err := contracts.ParseKind(args[0])
		if err != nil {
			return err
		}
		kinds = []contracts.Kind{kind}
	}

	ctx := context.Background()
	a, err := newApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	for _, kind := range kinds {
		lb, err := a.store.Current(ctx, kind)
		if err != nil {
			return fmt.Errorf("load %s leaderboard: %w", kind, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), presentation.RenderBoard(lb.View(nil)))
	}
	return nil
}

func purgeBoards(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	purged, err := a.store.Purge(ctx)
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Purged %d expired leaderboard(s)\n", purged)
	return nil
}
