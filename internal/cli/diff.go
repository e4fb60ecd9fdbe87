package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/packsmith/packsmith/internal/bumper"
	"github.com/packsmith/packsmith/internal/differ"
	"github.com/packsmith/packsmith/internal/observability/logging"
	"github.com/packsmith/packsmith/internal/scanner"
	"github.com/packsmith/packsmith/internal/workspace"
)

// diffCmd definition
var diffCmd = &cobra.Command{
	Use:   "diff [root]",
	Short: "Preview what a bump would change",
	Long: `Advances in-memory copies of the discovered packs and shows what
would change on disk, either as RFC 6902 patches or as translated
sentences. Nothing is written.

Example:
  packsmith diff ./my-addon --pack resource --level major --format text`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDiff,
}

var (
	diffPackFlag    string
	diffLevelFlag   string
	diffFormatFlag  string
	diffExcludeFlag []string
)

func init() {
	diffCmd.Flags().StringVar(&diffPackFlag, "pack", "resource", "Pack to advance (resource|behavior)")
	diffCmd.Flags().StringVar(&diffLevelFlag, "level", "minor", "Advancement level (minor|major)")
	diffCmd.Flags().StringVar(&diffFormatFlag, "format", "json", "Output format (json|text)")
	diffCmd.Flags().StringSliceVar(&diffExcludeFlag, "exclude", nil, "Doublestar patterns to skip while scanning")
}

// GetDiffCmd exports the diff command
func GetDiffCmd() *cobra.Command {
	return diffCmd
}

func runDiff(cmd *cobra.Command, args []string) (err error) {
	kind, err := parsePackKind(diffPackFlag)
	if err != nil {
		return err
	}
	level, err := bumper.ParseLevel(diffLevelFlag)
	if err != nil {
		return err
	}

	root := rootArg(args)
	ctx := cmd.Context()
	log := logging.From(ctx)
	start := time.Now()

	ctx, finish := startSpan(ctx, "diff")
	defer func() { finish(err) }()

	log.Event(ctx, "diff.start", map[string]any{
		"root":  root,
		"pack":  string(kind),
		"level": string(level),
	})
	var resultStatus string
	defer func() {
		log.Event(ctx, "diff.complete", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"result":      resultStatus,
		})
	}()

	ws, err := workspace.Open(ctx, root, scanner.Options{Exclude: diffExcludeFlag})
	if err != nil {
		resultStatus = "fail"
		return fmt.Errorf("diff failed: %w", err)
	}

	res, err := differ.Preview(ws.Pack(kind), ws.Counterpart(kind), level)
	if err != nil {
		resultStatus = "fail"
		return err
	}

	resultStatus = "success"
	if diffFormatFlag == "text" {
		printDiffText(cmd, res)
		return nil
	}
	return printJSON(cmd, res)
}

func printDiffText(cmd *cobra.Command, res *differ.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s bump -> %s\n", res.Report.Pack, res.Report.Level, res.Report.Version)
	if !res.HasChanges {
		fmt.Fprintln(out, "no manifest changes")
		return
	}
	for _, ch := range res.Changes {
		fmt.Fprintf(out, "%s (%s)\n", ch.Kind, ch.Path)
		for _, tr := range ch.Translations {
			sev := differ.SeverityString(differ.GetSeverity(tr))
			fmt.Fprintf(out, "  [%s] %s\n", sev, tr)
		}
	}
}
