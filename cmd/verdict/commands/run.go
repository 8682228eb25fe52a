package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/verdict/internal/app"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "EOD 파이프라인 1회 실행",
	Long: `하나의 시장/기준일에 대해 EOD 판단 파이프라인을 실행합니다.

이 명령어는:
- 유니버스 조회 → OHLCV 적재 → 지표 계산 → 후보 선별 → 판단 → 리포트
- 동일 입력 + 동일 정책이면 바이트 단위 동일 결과
- DATABASE_URL 설정 시 리포트를 저장

Example:
  go run ./cmd/verdict run --market JP --asof 2025-01-20
  go run ./cmd/verdict run --market US --asof 2025-01-17 --plan swing_momentum
  go run ./cmd/verdict run --market JP --asof 2025-01-20 --policy policy.yaml --output text`,
	RunE: runPipeline,
}

var (
	runMarket     string
	runAsOf       string
	runPolicyPath string
	runConfigPath string
	runPlanID     string
	runOutput     string
)

func init() {
	rootCmd.AddCommand(runCmd)

	// Flags
	runCmd.Flags().StringVar(&runMarket, "market", "", "market code (JP|US)")
	runCmd.Flags().StringVar(&runAsOf, "asof", "", "as-of trading date (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runPolicyPath, "policy", "", "policy snapshot YAML (default: built-in market defaults)")
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "run config override YAML")
	runCmd.Flags().StringVar(&runPlanID, "plan", "", "trade plan id override (swing_basic|swing_momentum)")
	runCmd.Flags().StringVar(&runOutput, "output", "json", "output format (json|text)")

	runCmd.MarkFlagRequired("market")
	runCmd.MarkFlagRequired("asof")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	a, err := app.New()
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	report, err := a.RunEOD(context.Background(), app.RunParams{
		Market:     runMarket,
		AsOf:       runAsOf,
		PolicyPath: runPolicyPath,
		ConfigPath: runConfigPath,
		PlanID:     runPlanID,
	})
	if err != nil {
		a.Logger.WithError(err).Error("Pipeline run failed")
		return err
	}

	switch runOutput {
	case "text":
		fmt.Println(report.ShortSummary())
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	}

	return nil
}
