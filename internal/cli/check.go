package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/packsmith/packsmith/internal/observability/logging"
	"github.com/packsmith/packsmith/internal/policy"
	"github.com/packsmith/packsmith/internal/scanner"
	"github.com/packsmith/packsmith/internal/workspace"
)

// checkCmd definition
var checkCmd = &cobra.Command{
	Use:   "check [root]",
	Short: "Evaluate pair-coherence policy rules",
	Long: `Builds a fact document from the discovered pair and evaluates CEL
policy rules against it. Exits nonzero when blocking findings exist.

--policy accepts a built-in preset name (baseline, strict) or the path
of a YAML rule file.

Example:
  packsmith check ./my-addon --policy strict --fail-on warn`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

var (
	checkPolicyFlag  string
	checkFailOnFlag  string
	checkFormatFlag  string
	checkExcludeFlag []string
)

func init() {
	checkCmd.Flags().StringVar(&checkPolicyFlag, "policy", "baseline", "Policy preset name or rule file path")
	checkCmd.Flags().StringVar(&checkFailOnFlag, "fail-on", "", "Override the blocking threshold (error|warn)")
	checkCmd.Flags().StringVar(&checkFormatFlag, "format", "text", "Output format (text|json)")
	checkCmd.Flags().StringSliceVar(&checkExcludeFlag, "exclude", nil, "Doublestar patterns to skip while scanning")
}

// GetCheckCmd exports the check command
func GetCheckCmd() *cobra.Command {
	return checkCmd
}

// checkOutput is the check verdict, shared by both output formats.
type checkOutput struct {
	Policy   string           `json:"policy"`
	Mode     string           `json:"mode"`
	Findings []policy.Finding `json:"findings"`
	Failed   checkSummary     `json:"failed"`
	Outcome  string           `json:"outcome"` // "PASS" or "FAIL"
}

type checkSummary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// resolvePolicy maps the --policy selector to a rule set: preset name
// first, then a file path.
func resolvePolicy(selector string) (*policy.Config, error) {
	if cfg := policy.GetPreset(selector); cfg != nil {
		return cfg, nil
	}
	if _, err := os.Stat(selector); err == nil {
		return policy.LoadConfig(selector)
	}
	return nil, fmt.Errorf("unknown policy %q: not a preset (%s) or a rule file",
		selector, strings.Join(policy.ListPresetNames(), ", "))
}

// blockingMode applies the --fail-on override to the rule set's own
// mode. fail-on error blocks on failed error-severity rules only;
// fail-on warn blocks on any failed rule.
func blockingMode(configMode, failOn string) (string, error) {
	switch failOn {
	case "":
		return configMode, nil
	case "error":
		return policy.ModeWarn, nil
	case "warn":
		return policy.ModeStrict, nil
	default:
		return "", fmt.Errorf("invalid fail-on level: %s (use error or warn)", failOn)
	}
}

func buildCheckOutput(cfg *policy.Config, mode string, findings []policy.Finding) *checkOutput {
	failedErrors, failedWarnings := policy.Summarize(findings)
	out := &checkOutput{
		Policy:   cfg.Name,
		Mode:     mode,
		Findings: findings,
		Failed:   checkSummary{Errors: failedErrors, Warnings: failedWarnings},
		Outcome:  "PASS",
	}
	if policy.ShouldBlock(mode, findings) {
		out.Outcome = "FAIL"
	}
	return out
}

func runCheck(cmd *cobra.Command, args []string) (err error) {
	cfg, err := resolvePolicy(checkPolicyFlag)
	if err != nil {
		return err
	}
	mode, err := blockingMode(cfg.Mode, checkFailOnFlag)
	if err != nil {
		return err
	}

	root := rootArg(args)
	ctx := cmd.Context()
	log := logging.From(ctx)
	start := time.Now()

	ctx, finish := startSpan(ctx, "check")
	defer func() { finish(err) }()

	log.Event(ctx, "check.start", map[string]any{"root": root, "policy": cfg.Name})
	var resultStatus string
	defer func() {
		log.Event(ctx, "check.complete", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"result":      resultStatus,
		})
	}()

	ws, err := workspace.Open(ctx, root, scanner.Options{Exclude: checkExcludeFlag})
	if err != nil {
		resultStatus = "fail"
		return fmt.Errorf("check failed: %w", err)
	}

	engine, err := policy.NewEngine()
	if err != nil {
		resultStatus = "fail"
		return err
	}
	input := policy.BuildInput(ws.Resource, ws.Behavior, ws.Diagnostics)
	findings := engine.Evaluate(cfg, input)
	out := buildCheckOutput(cfg, mode, findings)

	if checkFormatFlag == "json" {
		if err = printJSON(cmd, out); err != nil {
			resultStatus = "fail"
			return err
		}
	} else {
		printCheckText(cmd, out)
	}

	if out.Outcome == "FAIL" {
		resultStatus = "fail"
		err = fmt.Errorf("policy %s failed (%d error, %d warning findings)",
			out.Policy, out.Failed.Errors, out.Failed.Warnings)
		return err
	}
	resultStatus = "success"
	return nil
}

func printCheckText(cmd *cobra.Command, out *checkOutput) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "policy %s (mode %s)\n", out.Policy, out.Mode)
	for _, f := range out.Findings {
		status := "PASS"
		if !f.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "  %-4s [%s] %s", status, f.Severity, f.RuleName)
		if !f.Passed && f.FailureMsg != "" {
			fmt.Fprintf(w, ": %s", f.FailureMsg)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%s: %d rules, %d failed errors, %d failed warnings\n",
		out.Outcome, len(out.Findings), out.Failed.Errors, out.Failed.Warnings)
}
