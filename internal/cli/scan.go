package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/packsmith/packsmith/internal/manifest"
	"github.com/packsmith/packsmith/internal/observability/logging"
	"github.com/packsmith/packsmith/internal/scanner"
	"github.com/packsmith/packsmith/internal/workspace"
)

// scanCmd definition
var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "Discover the add-on pair under a directory",
	Long: `Walks the root for files named manifest.json, classifies each as a
resource or behavior pack, and reports the adopted pair along with a
diagnostic for every file or entry that was skipped.

Example:
  packsmith scan ./my-addon --format text`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

var (
	scanFormatFlag  string
	scanExcludeFlag []string
)

func init() {
	scanCmd.Flags().StringVar(&scanFormatFlag, "format", "json", "Output format (json|text)")
	scanCmd.Flags().StringSliceVar(&scanExcludeFlag, "exclude", nil, "Doublestar patterns to skip while scanning")
}

// GetScanCmd exports the scan command
func GetScanCmd() *cobra.Command {
	return scanCmd
}

// packSummary is the per-pack slice of the scan report.
type packSummary struct {
	Name         string `json:"name"`
	UUID         string `json:"uuid"`
	Version      string `json:"version"`
	Path         string `json:"path"`
	Modules      int    `json:"modules"`
	Dependencies int    `json:"dependencies"`
}

type scanOutput struct {
	Root        string               `json:"root"`
	Resource    *packSummary         `json:"resource,omitempty"`
	Behavior    *packSummary         `json:"behavior,omitempty"`
	Diagnostics []scanner.Diagnostic `json:"diagnostics"`
}

func summarizePack(p *manifest.Pack) *packSummary {
	if p == nil {
		return nil
	}
	return &packSummary{
		Name:         p.Header.Name,
		UUID:         p.Header.UUID,
		Version:      p.Header.Version.String(),
		Path:         p.Path,
		Modules:      len(p.Modules),
		Dependencies: len(p.Dependencies),
	}
}

func runScan(cmd *cobra.Command, args []string) (err error) {
	root := rootArg(args)
	ctx := cmd.Context()
	log := logging.From(ctx)
	start := time.Now()

	ctx, finish := startSpan(ctx, "scan")
	defer func() { finish(err) }()

	log.Event(ctx, "scan.start", map[string]any{"root": root})
	var resultStatus string
	defer func() {
		log.Event(ctx, "scan.complete", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"result":      resultStatus,
		})
	}()

	ws, err := workspace.Open(ctx, root, scanner.Options{Exclude: scanExcludeFlag})
	if err != nil {
		resultStatus = "fail"
		return fmt.Errorf("scan failed: %w", err)
	}

	resultStatus = "success"
	if scanFormatFlag == "text" {
		printScanText(cmd, ws)
		return nil
	}
	out := scanOutput{
		Root:        ws.Root,
		Resource:    summarizePack(ws.Resource),
		Behavior:    summarizePack(ws.Behavior),
		Diagnostics: ws.Diagnostics,
	}
	if out.Diagnostics == nil {
		out.Diagnostics = []scanner.Diagnostic{}
	}
	return printJSON(cmd, out)
}

func printScanText(cmd *cobra.Command, ws *workspace.Workspace) {
	out := cmd.OutOrStdout()
	packs := ws.Packs()
	if len(packs) == 0 {
		fmt.Fprintf(out, "no packs under %s\n", ws.Root)
	}
	for _, p := range packs {
		fmt.Fprintf(out, "%-8s %-10s %s (%s)\n", p.Kind, p.Header.Version, p.Header.Name, p.Path)
	}
	for _, d := range ws.Diagnostics {
		fmt.Fprintf(out, "skipped: %s\n", d)
	}
}
