package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/verdict/internal/runconfig"
)

// policyCmd represents the policy command
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "정책 스냅샷 확인",
	Long: `해석된 정책 스냅샷과 지문(fingerprint)을 출력합니다.

리포트의 policy_snapshot_id가 어떤 정책에서 나왔는지 확인할 때 사용합니다.
파일을 지정하지 않으면 시장 기본 정책을 보여줍니다.

Example:
  go run ./cmd/verdict policy --market JP
  go run ./cmd/verdict policy --market US --policy policy.yaml`,
	RunE: showPolicy,
}

var (
	policyMarket string
	policyAsOf   string
	policyPath   string
)

func init() {
	rootCmd.AddCommand(policyCmd)

	// Flags
	policyCmd.Flags().StringVar(&policyMarket, "market", "", "market code (JP|US)")
	policyCmd.Flags().StringVar(&policyAsOf, "asof", "", "as-of date (default: today, UTC)")
	policyCmd.Flags().StringVar(&policyPath, "policy", "", "policy snapshot YAML")

	policyCmd.MarkFlagRequired("market")
}

func showPolicy(cmd *cobra.Command, args []string) error {
	asof := policyAsOf
	if asof == "" {
		asof = time.Now().UTC().Format("2006-01-02")
	}

	policy, err := runconfig.LoadPolicy(policyPath, policyMarket, asof)
	if err != nil {
		return err
	}

	fingerprint, err := policy.Fingerprint()
	if err != nil {
		return err
	}

	fmt.Printf("policy_snapshot_id: %s\n\n", fingerprint)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(policy); err != nil {
		return fmt.Errorf("encode policy: %w", err)
	}

	return nil
}
