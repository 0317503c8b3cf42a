package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/quantbt/internal/collect"
	"github.com/wonny/quantbt/internal/scheduler"
	"github.com/wonny/quantbt/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "데이터 수집 스케줄러 시작",
	Long: `데이터 수집 스케줄러를 시작합니다.

등록되는 작업:
- data_collection: 평일 오후 5시 (장 마감 후 시세/수급 수집)

스케줄러는 Ctrl+C로 종료할 수 있습니다.

Example:
  go run ./cmd/quantbt scheduler --codes 005930,000660`,
	RunE: runSchedulerDaemon,
}

var schedulerCodes []string

func init() {
	rootCmd.AddCommand(schedulerCmd)

	schedulerCmd.Flags().StringSliceVar(&schedulerCodes, "codes", nil, "수집할 종목 코드 (콤마 구분)")
	schedulerCmd.MarkFlagRequired("codes")
}

func runSchedulerDaemon(cmd *cobra.Command, args []string) error {
	d, closeDeps, err := initDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	if err := d.repo.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	client := collect.NewClient(d.cfg, d.log)
	collector := collect.NewCollector(client, d.repo, d.log)

	sched := scheduler.New(d.log)
	if err := sched.AddJob(jobs.NewDataCollectionJob(collector, schedulerCodes, d.log)); err != nil {
		return fmt.Errorf("register job: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Printf("Collecting %d codes every weekday at 17:00\n", len(schedulerCodes))
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
