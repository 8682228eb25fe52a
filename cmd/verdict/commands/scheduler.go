package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/verdict/internal/app"
	"github.com/wonny/verdict/internal/scheduler"
	"github.com/wonny/verdict/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "장마감 스케줄러 시작",
	Long: `시장별 장마감 후 파이프라인을 자동 실행하는 스케줄러를 시작합니다.

Jobs:
  eod_run_JP - 평일 16:30 JST
  eod_run_US - 평일 17:30 ET

Example:
  go run ./cmd/verdict scheduler
  go run ./cmd/verdict scheduler --markets JP`,
	RunE: runScheduler,
}

var (
	schedulerMarkets []string
)

func init() {
	rootCmd.AddCommand(schedulerCmd)

	// Flags
	schedulerCmd.Flags().StringSliceVar(&schedulerMarkets, "markets", []string{"JP", "US"}, "markets to schedule")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Verdict Scheduler ===")

	a, err := app.New()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	log := a.Logger

	sched := scheduler.New(log)

	for _, market := range schedulerMarkets {
		var job scheduler.Job
		switch market {
		case "JP":
			job = jobs.NewJPEODJob(a, log)
		case "US":
			job = jobs.NewUSEODJob(a, log)
		default:
			return fmt.Errorf("unknown market: %s", market)
		}

		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("add job: %w", err)
		}
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler running")
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
