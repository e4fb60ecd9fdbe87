package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/packsmith/packsmith/internal/manifest"
	"github.com/packsmith/packsmith/internal/observability/logging"
	"github.com/packsmith/packsmith/internal/scaffold"
	"github.com/packsmith/packsmith/internal/scanner"
	"github.com/packsmith/packsmith/internal/writer"
)

// Directory names for freshly scaffolded packs. Discovery keys on the
// manifest contents, not these names, so users are free to rename.
const (
	resourceDirName = "resource_pack"
	behaviorDirName = "behavior_pack"
)

// colors
const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

// initCmd definition
var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Scaffold a fresh add-on pack pair",
	Long: `Creates manifest.json files for a new add-on under dir, with fresh
uuids and version 1.0.0. With --kind both (the default) the behavior
pack is linked to the resource pack with a pinned dependency, so the
first 'packsmith bump' already keeps the pair in lockstep.

Example:
  packsmith init ./my-addon --name "My Addon"
  packsmith init ./rp-only --name "Just Textures" --kind resource`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var (
	initNameFlag string
	initKindFlag string
)

func init() {
	initCmd.Flags().StringVar(&initNameFlag, "name", "", "Display name for the new pack(s)")
	initCmd.Flags().StringVar(&initKindFlag, "kind", "both", "What to scaffold (both|resource|behavior)")
}

// GetInitCmd exports the init command
func GetInitCmd() *cobra.Command {
	return initCmd
}

func runInit(cmd *cobra.Command, args []string) (err error) {
	name := strings.TrimSpace(initNameFlag)
	if name == "" {
		return fmt.Errorf("no pack name provided. Usage: packsmith init [dir] --name NAME")
	}
	kinds, err := parseInitKind(initKindFlag)
	if err != nil {
		return err
	}

	dir := rootArg(args)
	ctx := cmd.Context()
	log := logging.From(ctx)
	start := time.Now()

	ctx, finish := startSpan(ctx, "init")
	defer func() { finish(err) }()

	log.Event(ctx, "init.start", map[string]any{
		"dir":  dir,
		"name": name,
		"kind": initKindFlag,
	})
	var resultStatus string
	defer func() {
		log.Event(ctx, "init.complete", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"result":      resultStatus,
		})
	}()

	packs := make(map[manifest.PackKind]*manifest.Pack, len(kinds))
	for _, kind := range kinds {
		p := scaffold.NewPack(kind, name)
		p.Path = filepath.Join(dir, packDirName(kind), scanner.ManifestName)
		if _, statErr := os.Stat(p.Path); statErr == nil {
			resultStatus = "fail"
			return fmt.Errorf("manifest already exists at %s (use a different directory or delete it)", p.Path)
		}
		packs[kind] = p
	}
	if bp, ok := packs[manifest.KindBehavior]; ok {
		scaffold.Link(bp, packs[manifest.KindResource])
	}

	out := cmd.OutOrStdout()
	for _, kind := range kinds {
		p := packs[kind]
		if err = os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
			resultStatus = "fail"
			return fmt.Errorf("create pack directory: %w", err)
		}
		if err = writer.Write(p); err != nil {
			resultStatus = "fail"
			return err
		}
		fmt.Fprintf(out, "%s✓ %s pack scaffolded: %s%s\n", colorGreen, kind, p.Path, colorReset)
		log.Info("cli", "pack scaffolded",
			"kind", string(kind),
			"uuid", p.Header.UUID,
			"path", p.Path)
	}
	if len(kinds) == 2 {
		fmt.Fprintf(out, "%s✓ behavior pack pinned to the resource pack at 1.0.0%s\n", colorGreen, colorReset)
	}

	resultStatus = "success"
	return nil
}

// parseInitKind expands the --kind selector into scaffold order,
// resource first so both points at a linkable pack.
func parseInitKind(s string) ([]manifest.PackKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "both", "":
		return []manifest.PackKind{manifest.KindResource, manifest.KindBehavior}, nil
	case "resource", "rp":
		return []manifest.PackKind{manifest.KindResource}, nil
	case "behavior", "bp":
		return []manifest.PackKind{manifest.KindBehavior}, nil
	default:
		return nil, fmt.Errorf("invalid kind: %s (use both, resource or behavior)", s)
	}
}

func packDirName(kind manifest.PackKind) string {
	if kind == manifest.KindBehavior {
		return behaviorDirName
	}
	return resourceDirName
}
