package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/packsmith/packsmith/internal/bundler"
	"github.com/packsmith/packsmith/internal/observability/logging"
	"github.com/packsmith/packsmith/internal/scanner"
	"github.com/packsmith/packsmith/internal/workspace"
)

const defaultExportPath = "addon.mcaddon"

// exportCmd definition
var exportCmd = &cobra.Command{
	Use:   "export [root]",
	Short: "Export the discovered packs as a distributable archive",
	Long: `Archives every file under the discovered pack directories into a
deterministic ZIP: identical workspaces always produce byte-identical
archives. A pair conventionally ships as .mcaddon, a single pack as
.mcpack.

Example:
  packsmith export ./my-addon -o my-addon.mcaddon`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var (
	exportOutputFlag  string
	exportExcludeFlag []string
)

func init() {
	exportCmd.Flags().StringVarP(&exportOutputFlag, "output", "o", defaultExportPath, "Path for the output archive")
	exportCmd.Flags().StringSliceVar(&exportExcludeFlag, "exclude", nil, "Doublestar patterns to skip while scanning")
}

// GetExportCmd exports the export command
func GetExportCmd() *cobra.Command {
	return exportCmd
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	root := rootArg(args)
	ctx := cmd.Context()
	log := logging.From(ctx)
	start := time.Now()

	ctx, finish := startSpan(ctx, "export")
	defer func() { finish(err) }()

	log.Event(ctx, "export.start", map[string]any{
		"root":   root,
		"output": exportOutputFlag,
	})
	var resultStatus string
	defer func() {
		log.Event(ctx, "export.complete", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"result":      resultStatus,
		})
	}()

	ws, err := workspace.Open(ctx, root, scanner.Options{Exclude: exportExcludeFlag})
	if err != nil {
		resultStatus = "fail"
		return fmt.Errorf("export failed: %w", err)
	}
	if len(ws.Packs()) == 0 {
		resultStatus = "fail"
		return fmt.Errorf("no packs found under %s: nothing to export", root)
	}

	receipt, err := bundler.Export(ws.Resource, ws.Behavior, exportOutputFlag)
	if err != nil {
		resultStatus = "fail"
		return fmt.Errorf("export failed: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, p := range ws.Packs() {
		fmt.Fprintf(out, "%s✓ %s pack: %s %s%s\n",
			colorGreen, p.Kind, p.Header.Name, p.Header.Version, colorReset)
	}
	fmt.Fprintf(out, "%s✓ archive written: %s (%d files, %d bytes)%s\n",
		colorGreen, receipt.Path, receipt.Members, receipt.Bytes, colorReset)
	fmt.Fprintf(out, "  sha256: %s\n", receipt.SHA256)

	log.Info("cli", "archive exported",
		"path", receipt.Path,
		"members", receipt.Members,
		"sha256", receipt.SHA256)
	resultStatus = "success"
	return nil
}
