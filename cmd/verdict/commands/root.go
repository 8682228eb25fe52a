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
	Use:   "verdict",
	Short: "Verdict - 감사 가능한 EOD 매매 판단 파이프라인",
	Long: `Verdict Unified CLI

결정론적 EOD 파이프라인: 유니버스 조회부터 판단 리포트까지.
동일 입력 + 동일 정책 = 바이트 단위 동일 판단.

Usage:
  go run ./cmd/verdict [command]

Examples:
  go run ./cmd/verdict run --market JP --asof 2025-01-20
  go run ./cmd/verdict policy --market JP
  go run ./cmd/verdict api
  go run ./cmd/verdict scheduler`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
