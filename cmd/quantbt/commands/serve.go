package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/quantbt/internal/api"
	"github.com/wonny/quantbt/internal/api/handlers"
	"github.com/wonny/quantbt/internal/backtest"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "결과 조회 API 서버 시작",
	Long: `저장된 백테스트 결과를 제공하는 REST API 서버를 시작합니다.

Endpoints:
  GET /health                                  - Health check
  GET /api/runs                                - 저장된 실행 목록
  GET /api/runs/{table}/summary                - 리포트 (text/plain)
  GET /api/runs/{table}/groups/{group}/curve   - 통계 곡선 (?stat=mean|g_mean|stddev|median)

Example:
  go run ./cmd/quantbt serve
  go run ./cmd/quantbt serve --port 8080`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
}

func runServe(cmd *cobra.Command, args []string) error {
	d, closeDeps, err := initDeps()
	if err != nil {
		return err
	}
	defer closeDeps()

	if servePort != "" {
		d.cfg.Port = servePort
	}

	repo := backtest.NewResultRepository(d.db.Pool)
	if err := repo.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	handler := handlers.NewResultsHandler(repo, d.log)
	router := api.NewRouter(handler, d.log)
	server := api.New(d.cfg, d.log, router)

	go func() {
		if err := server.Start(); err != nil {
			d.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", d.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	d.log.Info("Server stopped")
	return nil
}
