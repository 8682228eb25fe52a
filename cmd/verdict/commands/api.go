package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/verdict/internal/api"
	"github.com/wonny/verdict/internal/api/handlers"
	"github.com/wonny/verdict/internal/app"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 파이프라인 실행 트리거 제공
- 저장된 리포트 조회 제공
- 실행 진행 상황 websocket 스트림 제공

Endpoints:
  GET  /health                 - Health check
  POST /api/runs               - 파이프라인 실행 트리거
  GET  /api/runs/watch         - 진행 이벤트 websocket
  GET  /api/reports            - 리포트 목록 (?market=JP&limit=20)
  GET  /api/reports/{run_id}   - 리포트 조회

Example:
  go run ./cmd/verdict api
  go run ./cmd/verdict api --port 8091`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT env)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Verdict API Server ===")

	a, err := app.New()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.Config.Port = apiPort
	}

	log := a.Logger

	router := api.NewRouter(
		handlers.NewRunHandler(a, log),
		handlers.NewReportHandler(a, log),
		api.NewWatchHandler(a.Events, log),
		log,
	)

	server := api.New(a.Config, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.Config.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /api/runs")
	fmt.Println("  GET  /api/runs/watch")
	fmt.Println("  GET  /api/reports?market=JP")
	fmt.Println("  GET  /api/reports/{run_id}")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
