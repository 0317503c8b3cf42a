package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/quantbt/internal/backtest"
	"github.com/wonny/quantbt/internal/contracts"
	"github.com/wonny/quantbt/internal/detect"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "시그널 탐지 + 백테스트 실행",
	Long: `종목을 스캔해서 시그널을 탐지하고, 탐지일 이후 수익률을 집계합니다.

Subcommands:
  shape - 차트 모양 매칭 (이산 Fréchet 거리)
  flow  - 투자자 수급 스크리닝 (외국인/기관 연속 순매수)

Example:
  go run ./cmd/quantbt run shape 005930 --pattern w.json --threshold 1.5 --window 60
  go run ./cmd/quantbt run flow 005930 000660 --foreign 10000 --days 3 --save flow_2026q3`,
}

var (
	runShapeCmd = &cobra.Command{
		Use:   "shape [codes...]",
		Short: "차트 모양 매칭 스캔 + 백테스트",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runShape,
	}

	runFlowCmd = &cobra.Command{
		Use:   "flow [codes...]",
		Short: "투자자 수급 스크리닝 + 백테스트",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFlow,
	}
)

var (
	// Shared run flags
	runHorizon int
	runFrom    string
	runTo      string
	runSave    string
	runNote    string

	// Shape flags
	shapePatternFile string
	shapeGroup       string
	shapeThreshold   float64
	shapeWindow      int
	shapeStride      int
	shapeSmooth      int
	shapeFields      string
	shapeMinRatio    float64
	shapeMaxRatio    float64

	// Flow flags
	flowGroup       string
	flowForeign     float64
	flowInstitution float64
	flowDays        int
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.AddCommand(runShapeCmd)
	runCmd.AddCommand(runFlowCmd)

	for _, cmd := range []*cobra.Command{runShapeCmd, runFlowCmd} {
		cmd.Flags().IntVar(&runHorizon, "horizon", 15, "탐지일 이후 집계할 거래일 수")
		cmd.Flags().StringVar(&runFrom, "from", "", "스캔 시작일 (YYYY-MM-DD, 생략 시 전체)")
		cmd.Flags().StringVar(&runTo, "to", "", "스캔 종료일 (YYYY-MM-DD, 생략 시 전체)")
		cmd.Flags().StringVar(&runSave, "save", "", "결과를 저장할 테이블 이름 (생략 시 저장 안 함)")
		cmd.Flags().StringVar(&runNote, "note", "", "저장 시 함께 기록할 메모")
	}

	runShapeCmd.Flags().StringVar(&shapePatternFile, "pattern", "", "기준 패턴 JSON 파일 (숫자 배열)")
	runShapeCmd.Flags().StringVar(&shapeGroup, "group", "A", "백테스트 그룹 라벨")
	runShapeCmd.Flags().Float64Var(&shapeThreshold, "threshold", 1.5, "Fréchet 거리 임계값")
	runShapeCmd.Flags().IntVar(&shapeWindow, "window", 60, "윈도우 크기 (거래일)")
	runShapeCmd.Flags().IntVar(&shapeStride, "stride", 0, "윈도우 이동 간격 (0 = window/10)")
	runShapeCmd.Flags().IntVar(&shapeSmooth, "smooth", 0, "중심 이동평균 폭 (0 = 사용 안 함)")
	runShapeCmd.Flags().StringVar(&shapeFields, "fields", "close", "스캔 가격 필드 (open,close,high,low 콤마 구분)")
	runShapeCmd.Flags().Float64Var(&shapeMinRatio, "min-ratio", 0, "윈도우 최소 등락폭 % ((max-min)/min*100)")
	runShapeCmd.Flags().Float64Var(&shapeMaxRatio, "max-ratio", 0, "윈도우 최대 등락폭 % (0 = 무제한)")
	runShapeCmd.MarkFlagRequired("pattern")

	runFlowCmd.Flags().StringVar(&flowGroup, "group", "A", "백테스트 그룹 라벨")
	runFlowCmd.Flags().Float64Var(&flowForeign, "foreign", 0, "외국인 순매수 임계값 (0 = 조건 제외)")
	runFlowCmd.Flags().Float64Var(&flowInstitution, "institution", 0, "기관 순매수 임계값 (0 = 조건 제외)")
	runFlowCmd.Flags().IntVar(&flowDays, "days", 1, "연속 충족 일수")
}

func runShape(cmd *cobra.Command, args []string) error {
	pat, err := loadPattern(shapePatternFile)
	if err != nil {
		return err
	}

	fields, err := parseFields(shapeFields)
	if err != nil {
		return err
	}

	d, closeDeps, err := initDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	scanner := detect.NewShapeScanner(d.log.Zerolog())
	opts := detect.ShapeOptions{
		Group:         shapeGroup,
		Threshold:     shapeThreshold,
		WindowSize:    shapeWindow,
		WindowStride:  shapeStride,
		Fields:        fields,
		SmoothWindow:  shapeSmooth,
		MinRangeRatio: shapeMinRatio,
		MaxRangeRatio: shapeMaxRatio,
	}

	return runScan(cmd, d, args, func(code string) ([]detect.Candidate, error) {
		series, err := loadSeries(cmd, d, code)
		if err != nil {
			return nil, err
		}
		return scanner.Scan(cmd.Context(), code, series, pat, opts)
	})
}

func runFlow(cmd *cobra.Command, args []string) error {
	d, closeDeps, err := initDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	scanner := detect.NewFlowScanner(d.log.Zerolog())
	opts := detect.FlowOptions{
		Group:                flowGroup,
		ForeignThreshold:     flowForeign,
		InstitutionThreshold: flowInstitution,
		ConsecutiveDays:      flowDays,
	}

	return runScan(cmd, d, args, func(code string) ([]detect.Candidate, error) {
		series, err := loadSeries(cmd, d, code)
		if err != nil {
			return nil, err
		}
		return scanner.Scan(cmd.Context(), code, series, opts)
	})
}

// runScan drives the shared scan → store → backtest → report pipeline.
func runScan(cmd *cobra.Command, d *deps, codes []string, scan func(code string) ([]detect.Candidate, error)) error {
	ctx := cmd.Context()
	store := backtest.NewStore()

	for _, code := range codes {
		cands, err := scan(code)
		if err != nil {
			return fmt.Errorf("scan %s: %w", code, err)
		}
		for _, c := range cands {
			store.Insert(c.Code, c.Date, c.Group)
		}
		fmt.Printf("[Scan] %s: %d signals\n", code, len(cands))
	}

	if store.Len() == 0 {
		PrintWarning("No signals detected")
		return nil
	}

	engine := backtest.NewEngine(d.repo, d.log)
	engine.Tax = d.cfg.Backtest.Tax
	engine.Commission = d.cfg.Backtest.Commission

	res, err := engine.Run(ctx, store, runHorizon)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	fmt.Println()
	fmt.Print(backtest.Summarize(res))

	if runSave == "" {
		return nil
	}

	resultRepo := backtest.NewResultRepository(d.db.Pool)
	if err := resultRepo.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := resultRepo.Save(ctx, res, runSave, backtest.SaveOptions{
		Note:       runNote,
		Tax:        engine.Tax,
		Commission: engine.Commission,
	}); err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Saved %d rows to backtest.%s", len(res.Rows), runSave))
	return nil
}

// loadSeries fetches one code's history honoring the --from/--to flags.
func loadSeries(cmd *cobra.Command, d *deps, code string) (series contracts.PriceSeries, err error) {
	ctx := cmd.Context()

	if runFrom == "" && runTo == "" {
		return d.repo.GetAllHistory(ctx, code)
	}

	from := time.Time{}
	to := time.Now()
	if runFrom != "" {
		if from, err = parseDate(runFrom); err != nil {
			return nil, err
		}
	}
	if runTo != "" {
		if to, err = parseDate(runTo); err != nil {
			return nil, err
		}
	}
	return d.repo.GetHistoryRange(ctx, code, from, to)
}

// loadPattern reads the reference pattern as a JSON number array.
func loadPattern(path string) ([]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern file: %w", err)
	}
	var pat []float64
	if err := json.Unmarshal(raw, &pat); err != nil {
		return nil, fmt.Errorf("parse pattern file %s: %w", path, err)
	}
	if len(pat) < 2 {
		return nil, fmt.Errorf("pattern file %s must hold at least 2 points", path)
	}
	return pat, nil
}

// parseFields parses the --fields flag into a PriceFields mask.
func parseFields(s string) (detect.PriceFields, error) {
	var fields detect.PriceFields
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "open":
			fields |= detect.FieldOpen
		case "close":
			fields |= detect.FieldClose
		case "high":
			fields |= detect.FieldHigh
		case "low":
			fields |= detect.FieldLow
		case "":
		default:
			return 0, fmt.Errorf("unknown price field %q (want open,close,high,low)", name)
		}
	}
	return fields, nil
}
