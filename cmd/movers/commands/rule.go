package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/movers/internal/screenconfig"
	"github.com/wonny/movers/pkg/config"
)

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "유효 스크리닝 룰 출력/검증",
	Long: `Resolves the screening rule (env settings overlaid by --rule or
RULE_FILE), validates it, and prints it with its hash.

The hash is recorded on every cycle result, so two cycles with the
same hash were screened by the same rule.

Example:
  go run ./cmd/movers rule
  go run ./cmd/movers rule --rule configs/rules.yaml`,
	Args: cobra.NoArgs,
	RunE: showRule,
}

func init() {
	rootCmd.AddCommand(ruleCmd)
}

func showRule(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if ruleFile != "" {
		cfg.Screening.RuleFile = ruleFile
	}

	rules, err := screenconfig.Resolve(cfg)
	if err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}
	hash, err := screenconfig.Hash(rules)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(rules)
	if err != nil {
		return err
	}

	source := "env"
	if cfg.Screening.RuleFile != "" {
		source = cfg.Screening.RuleFile
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "# source: %s\n# hash:   %s\n", source, hash)
	fmt.Fprint(w, string(out))
	return nil
}
