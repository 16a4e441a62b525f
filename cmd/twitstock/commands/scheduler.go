package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/twitstock/internal/scheduler"
	"github.com/wonny/twitstock/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/twitstock scheduler start
  go run ./cmd/twitstock scheduler list
  go run ./cmd/twitstock scheduler run pipeline_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- pipeline_refresh: refresh.schedule (기본 평일 오전 6시, analyze all)
- cashtags_sync: 매주 일요일 오전 5시 (cashtags 업로드)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== twitstock Scheduler ===")

	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		sched, err := initScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}

		fmt.Println("Registered jobs:")
		printJobs(sched)
		return nil
	})
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	return withApp(func(ctx context.Context, a *app) error {
		sched, err := initScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}

		fmt.Printf("Running job: %s\n", jobName)

		result, err := sched.RunJob(ctx, jobName)
		if err != nil {
			PrintError(err.Error())
			return err
		}

		if result.Summary != nil {
			PrintKeyValue("Run", result.Summary.RunID, 8)
			PrintKeyValue("Done", fmt.Sprintf("%d", result.Summary.Done), 8)
			PrintKeyValue("Skipped", fmt.Sprintf("%d", result.Summary.Skipped), 8)
		}
		PrintSuccess(fmt.Sprintf("Job %s completed in %.2fs (%d attempt(s))", jobName, result.Duration.Seconds(), result.Attempts))
		return nil
	})
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %-18s %s\n", jobName, stats[jobName].Schedule)
	}
}

// initScheduler registers every job against the wired orchestrator
func initScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log, scheduler.WithRetry(2, 5*time.Minute))

	if err := sched.AddJob(jobs.NewPipelineRefreshJob(a.orchestrator, a.pipeline.Refresh, a.log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewCashtagsSyncJob(a.orchestrator, a.log)); err != nil {
		return nil, err
	}

	return sched, nil
}
