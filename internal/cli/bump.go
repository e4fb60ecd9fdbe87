package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/packsmith/packsmith/internal/bumper"
	"github.com/packsmith/packsmith/internal/differ"
	"github.com/packsmith/packsmith/internal/manifest"
	"github.com/packsmith/packsmith/internal/observability/logging"
	"github.com/packsmith/packsmith/internal/scanner"
	"github.com/packsmith/packsmith/internal/workspace"
)

// bumpCmd definition
var bumpCmd = &cobra.Command{
	Use:   "bump [root]",
	Short: "Advance a pack's version and keep its counterpart pinned",
	Long: `Advances the chosen pack's header version, carries every module that
shares the header's uuid, and re-pins the counterpart's matching
dependency so the pair stays in lockstep. Both manifests are written
back in place.

Example:
  packsmith bump ./my-addon --pack resource --level minor`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBump,
}

var (
	bumpPackFlag    string
	bumpLevelFlag   string
	bumpDryRunFlag  bool
	bumpExcludeFlag []string
)

func init() {
	bumpCmd.Flags().StringVar(&bumpPackFlag, "pack", "resource", "Pack to advance (resource|behavior)")
	bumpCmd.Flags().StringVar(&bumpLevelFlag, "level", "minor", "Advancement level (minor|major)")
	bumpCmd.Flags().BoolVar(&bumpDryRunFlag, "dry-run", false, "Preview the writes instead of performing them")
	bumpCmd.Flags().StringSliceVar(&bumpExcludeFlag, "exclude", nil, "Doublestar patterns to skip while scanning")
}

// GetBumpCmd exports the bump command
func GetBumpCmd() *cobra.Command {
	return bumpCmd
}

func parsePackKind(s string) (manifest.PackKind, error) {
	switch s {
	case "resource", "rp":
		return manifest.KindResource, nil
	case "behavior", "bp":
		return manifest.KindBehavior, nil
	default:
		return "", fmt.Errorf("invalid pack kind: %s (use resource or behavior)", s)
	}
}

func runBump(cmd *cobra.Command, args []string) (err error) {
	kind, err := parsePackKind(bumpPackFlag)
	if err != nil {
		return err
	}
	level, err := bumper.ParseLevel(bumpLevelFlag)
	if err != nil {
		return err
	}

	root := rootArg(args)
	ctx := cmd.Context()
	log := logging.From(ctx)
	start := time.Now()

	ctx, finish := startSpan(ctx, "bump")
	defer func() { finish(err) }()

	log.Event(ctx, "bump.start", map[string]any{
		"root":    root,
		"pack":    string(kind),
		"level":   string(level),
		"dry_run": bumpDryRunFlag,
	})
	var resultStatus string
	defer func() {
		log.Event(ctx, "bump.complete", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"result":      resultStatus,
		})
	}()

	ws, err := workspace.Open(ctx, root, scanner.Options{Exclude: bumpExcludeFlag})
	if err != nil {
		resultStatus = "fail"
		return fmt.Errorf("bump failed: %w", err)
	}

	if bumpDryRunFlag {
		res, previewErr := differ.Preview(ws.Pack(kind), ws.Counterpart(kind), level)
		if previewErr != nil {
			resultStatus = "fail"
			err = previewErr
			return err
		}
		resultStatus = "success"
		return printJSON(cmd, res)
	}

	report, err := ws.Advance(kind, level)
	if err != nil {
		resultStatus = "fail"
		return err
	}
	if err = ws.Save(); err != nil {
		resultStatus = "fail"
		return fmt.Errorf("save manifests: %w", err)
	}

	log.Info("cli", "advanced pack",
		"pack", report.Pack,
		"level", string(report.Level),
		"version", report.Version)
	resultStatus = "success"
	return printJSON(cmd, report)
}
