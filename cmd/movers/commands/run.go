package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/movers/internal/api"
	"github.com/wonny/movers/internal/api/handlers"
	"github.com/wonny/movers/internal/presentation"
)

var (
	runPort    string
	runQuiet   bool
	runGrace   time.Duration
	runCommand = &cobra.Command{
		Use:   "run",
		Short: "스케줄러 + API 서버 실행",
		Long: `Runs the screening scheduler and the HTTP API together.

Registered jobs:
- screening_cycle: every CYCLE_INTERVAL, and once at startup
- leaderboard_rollover: daily at midnight (purges expired boards)
- cache_cleanup: hourly (fundamentals cache)

Each completed cycle is printed to stdout and pushed to /ws clients.
Stop with Ctrl+C; in-flight requests drain before exit.`,
		RunE: runServe,
	}
)

func init() {
	rootCmd.AddCommand(runCommand)
	runCommand.Flags().StringVarP(&runPort, "port", "p", "", "API server port (overrides PORT env)")
	runCommand.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "do not print cycle tables to stdout")
	runCommand.Flags().DurationVar(&runGrace, "grace", 10*time.Second, "shutdown grace period")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.close()

	if runPort != "" {
		a.cfg.Port = runPort
	}

	hub := presentation.NewHub(a.logger)
	defer hub.Close()

	presenters := presentation.Multi{hub}
	if !runQuiet {
		presenters = append(presenters, presentation.NewConsole(os.Stdout))
	}

	engine := a.engine(presenters)
	sched, err := a.scheduler(engine)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	h := api.Handlers{
		Leaderboard: handlers.NewLeaderboardHandler(a.store, a.rule, a.metrics, a.logger),
		Cycle:       handlers.NewCycleHandler(engine, sched, a.logger),
		Health:      handlers.NewHealthHandler(a.backend.Name(), a.httpClient.BreakerState, a.database()),
		WS:          hub,
	}
	if a.metrics != nil {
		h.Metrics = a.metrics.Handler()
	}

	server := api.New(a.cfg, a.logger, api.NewRouter(h, a.logger))

	sched.Start()
	defer sched.Stop()

	a.logger.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
		"jobs": sched.GetAllJobs(),
	}).Info("Movers started")

	if err := server.ListenAndRun(ctx, runGrace); err != nil {
		return err
	}

	a.logger.Info("Movers stopped")
	return nil
}
