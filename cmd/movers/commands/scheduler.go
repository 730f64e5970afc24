package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/movers/internal/scheduler"
	"github.com/wonny/movers/pkg/httputil"
	"github.com/wonny/movers/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `Inspects the jobs of a running "movers run" instance.

Subcommands:
  list    - 등록된 작업 목록
  status  - 작업 실행 상태 조회
  trigger - 스크리닝 사이클 즉시 실행

Example:
  go run ./cmd/movers scheduler list
  go run ./cmd/movers scheduler status --addr http://localhost:8089
  go run ./cmd/movers scheduler trigger`,
}

var (
	schedulerAddr string

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 상태 조회",
		RunE:  showStatus,
	}

	schedulerTriggerCmd = &cobra.Command{
		Use:   "trigger",
		Short: "스크리닝 사이클 즉시 실행",
		RunE:  triggerCycle,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
	schedulerCmd.AddCommand(schedulerTriggerCmd)

	schedulerCmd.PersistentFlags().StringVar(&schedulerAddr, "addr", "http://localhost:8089", "address of a running movers instance")
}

// jobsResponse mirrors GET /api/jobs
type jobsResponse struct {
	State string                        `json:"state"`
	Jobs  map[string]scheduler.JobStats `json:"jobs"`
}

func listJobs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx, io.Discard)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := a.scheduler(a.engine(nil))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Registered jobs:")
	for _, name := range sched.GetAllJobs() {
		fmt.Fprintf(out, "  - %s (%s)\n", name, stats[name].Schedule)
	}
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	var resp jobsResponse
	if err := remoteClient().GetJSON(cmd.Context(), remoteURL("/api/jobs"), &resp); err != nil {
		return fmt.Errorf("fetch job stats: %w", err)
	}

	printStats(cmd.OutOrStdout(), resp)
	return nil
}

func triggerCycle(cmd *cobra.Command, args []string) error {
	resp, err := remoteClient().Post(cmd.Context(), remoteURL("/api/cycle"), "", nil)
	if err != nil {
		return fmt.Errorf("trigger cycle: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		fmt.Fprintln(cmd.OutOrStdout(), "Cycle started (running in background)")
		return nil
	case http.StatusConflict:
		fmt.Fprintln(cmd.OutOrStdout(), "A cycle is already running")
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &httputil.StatusError{StatusCode: resp.StatusCode, URL: remoteURL("/api/cycle"), Body: string(body)}
}

func printStats(out io.Writer, resp jobsResponse) {
	fmt.Fprintf(out, "Cycle state: %s\n\n", resp.State)
	fmt.Fprintln(out, "Job Statistics:")
	fmt.Fprintln(out)

	names := make([]string, 0, len(resp.Jobs))
	for name := range resp.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, jobName := range names {
		stat := resp.Jobs[jobName]
		fmt.Fprintf(out, "📊 %s\n", jobName)
		fmt.Fprintf(out, "   Schedule: %s\n", stat.Schedule)
		fmt.Fprintf(out, "   Running: %t\n", stat.Running)
		fmt.Fprintf(out, "   Total Runs: %d\n", stat.TotalRuns)
		fmt.Fprintf(out, "   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Fprintf(out, "   Failures: %d\n", stat.FailureCount)
		fmt.Fprintf(out, "   Skipped: %d\n", stat.SkippedCount)

		if stat.LastRun != nil {
			fmt.Fprintf(out, "   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		if stat.LastSuccess != nil {
			fmt.Fprintf(out, "   Last Success: %s\n", stat.LastSuccess.Format("2006-01-02 15:04:05"))
		}
		if stat.LastFailure != nil {
			fmt.Fprintf(out, "   Last Failure: %s (%s)\n", stat.LastFailure.Format("2006-01-02 15:04:05"), stat.LastError)
		}

		fmt.Fprintln(out)
	}
}

func remoteClient() *httputil.Client {
	return httputil.New(logger.Nop(), 10*time.Second).DisableRetry()
}

func remoteURL(path string) string {
	return strings.TrimRight(schedulerAddr, "/") + path
}
