package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/packsmith/packsmith/internal/observability/logging"
	"github.com/packsmith/packsmith/internal/scanner"
	"github.com/packsmith/packsmith/internal/watcher"
)

// watchCmd definition
var watchCmd = &cobra.Command{
	Use:   "watch [root]",
	Short: "Rescan whenever a manifest changes",
	Long: `Watches the workspace and prints a fresh pair summary after each
debounced batch of manifest.json changes. Runs until interrupted.

Example:
  packsmith watch ./my-addon --debounce 500ms`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var (
	watchDebounceFlag time.Duration
	watchExcludeFlag  []string
)

func init() {
	watchCmd.Flags().DurationVar(&watchDebounceFlag, "debounce", watcher.DefaultDebounce, "Quiet window before a rescan")
	watchCmd.Flags().StringSliceVar(&watchExcludeFlag, "exclude", nil, "Doublestar patterns to ignore")
}

// GetWatchCmd exports the watch command
func GetWatchCmd() *cobra.Command {
	return watchCmd
}

func runWatch(cmd *cobra.Command, args []string) (err error) {
	root := rootArg(args)
	ctx := cmd.Context()
	log := logging.From(ctx)

	ctx, finish := startSpan(ctx, "watch")
	defer func() { finish(err) }()

	log.Event(ctx, "watch.start", map[string]any{"root": root})
	defer log.Event(ctx, "watch.stop", nil)

	w, err := watcher.New(watcher.Config{
		Root:     root,
		Exclude:  watchExcludeFlag,
		Debounce: watchDebounceFlag,
		OnScan: func(ctx context.Context, res *scanner.Result, changed []string) error {
			log.Event(ctx, "watch.rescan", map[string]any{"changed": len(changed)})
			printRescan(cmd, res, changed)
			return nil
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "watching %s (ctrl-c to stop)\n", root)
	return w.Run(ctx)
}

func printRescan(cmd *cobra.Command, res *scanner.Result, changed []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s changed %s\n", time.Now().Format("15:04:05"), strings.Join(changed, ", "))
	for _, p := range res.Packs() {
		fmt.Fprintf(out, "  %-8s %-10s %s\n", p.Kind, p.Header.Version, p.Header.Name)
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintf(out, "  skipped: %s\n", d)
	}
}
