package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/quantbt/internal/backtest"
	"github.com/wonny/quantbt/internal/collect"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect [codes...]",
	Short: "일별 시세/수급 데이터 수집",
	Long: `네이버 금융에서 일별 캔들과 투자자 수급 데이터를 수집해 저장합니다.

Example:
  go run ./cmd/quantbt collect 005930 000660
  go run ./cmd/quantbt collect 005930 --from 2024-01-01 --to 2024-12-31`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCollect,
}

var (
	collectFrom string
	collectTo   string
)

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&collectFrom, "from", "", "수집 시작일 (YYYY-MM-DD, 기본 1년 전)")
	collectCmd.Flags().StringVar(&collectTo, "to", "", "수집 종료일 (YYYY-MM-DD, 기본 오늘)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	d, closeDeps, err := initDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	to := time.Now()
	from := to.AddDate(-1, 0, 0)
	if collectFrom != "" {
		if from, err = parseDate(collectFrom); err != nil {
			return err
		}
	}
	if collectTo != "" {
		if to, err = parseDate(collectTo); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if err := d.repo.EnsureSchema(ctx); err != nil {
		return err
	}
	// Result schema rides along so a fresh database is usable in one step
	if err := backtest.NewResultRepository(d.db.Pool).EnsureSchema(ctx); err != nil {
		return err
	}

	client := collect.NewClient(d.cfg, d.log)
	collector := collect.NewCollector(client, d.repo, d.log)

	fmt.Printf("Collecting %d codes, %s ~ %s\n",
		len(args), from.Format("2006-01-02"), to.Format("2006-01-02"))

	if err := collector.Run(ctx, args, from, to); err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	PrintSuccess("Collection completed")
	return nil
}
