package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quantbt",
	Short: "quantbt - 시그널 탐지 및 회고 백테스트 엔진",
	Long: `quantbt Unified CLI

차트 모양(이산 Fréchet 거리)과 투자자 수급으로 시그널을 탐지하고,
탐지일 이후 N 거래일의 수익률 분포를 집계합니다.

Usage:
  go run ./cmd/quantbt [command]

Examples:
  go run ./cmd/quantbt collect 005930 000660 --from 2024-01-01
  go run ./cmd/quantbt run shape 005930 --pattern w.json --threshold 1.5 --window 60
  go run ./cmd/quantbt run flow 005930 --foreign 10000 --days 3
  go run ./cmd/quantbt results list
  go run ./cmd/quantbt serve`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
