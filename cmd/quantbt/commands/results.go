package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/quantbt/internal/backtest"
)

// resultsCmd represents the results command
var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "저장된 백테스트 결과 조회",
	Long: `저장된 백테스트 실행 목록을 보거나, 저장된 결과의 리포트를 다시 출력합니다.

Subcommands:
  list          - 저장된 실행 목록
  show [table]  - 저장된 결과 리포트 출력

Example:
  go run ./cmd/quantbt results list
  go run ./cmd/quantbt results show flow_2026q3`,
}

var (
	resultsListCmd = &cobra.Command{
		Use:   "list",
		Short: "저장된 실행 목록",
		RunE:  listResults,
	}

	resultsShowCmd = &cobra.Command{
		Use:   "show [table]",
		Short: "저장된 결과 리포트 출력",
		Args:  cobra.ExactArgs(1),
		RunE:  showResult,
	}
)

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsShowCmd)
}

func listResults(cmd *cobra.Command, args []string) error {
	d, closeDeps, err := initDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	repo := backtest.NewResultRepository(d.db.Pool)
	if err := repo.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	runs, err := repo.ListRuns(cmd.Context())
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		PrintWarning("No saved runs")
		return nil
	}

	PrintTableHeader(
		[]string{"TABLE", "HORIZON", "ROWS", "TAX", "COMM", "CREATED", "NOTE"},
		[]int{20, 7, 6, 5, 5, 16, 30},
	)
	for _, run := range runs {
		PrintTableRow([]string{
			run.TableName,
			fmt.Sprintf("%d", run.Horizon),
			fmt.Sprintf("%d", run.RowCount),
			fmt.Sprintf("%.3f", run.Tax),
			fmt.Sprintf("%.3f", run.Commission),
			run.CreatedAt.Format("2006-01-02 15:04"),
			run.Note,
		}, []int{20, 7, 6, 5, 5, 16, 30})
	}
	return nil
}

func showResult(cmd *cobra.Command, args []string) error {
	d, closeDeps, err := initDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	repo := backtest.NewResultRepository(d.db.Pool)
	res, err := repo.Load(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("load run %s: %w", args[0], err)
	}
	if len(res.Rows) == 0 {
		PrintWarning(fmt.Sprintf("Run %s holds no rows", args[0]))
		return nil
	}

	fmt.Print(backtest.Summarize(res))
	return nil
}
