package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/packsmith/packsmith/internal/bumper"
	"github.com/packsmith/packsmith/internal/bundler"
	"github.com/packsmith/packsmith/internal/manifest"
	"github.com/packsmith/packsmith/internal/scaffold"
	"github.com/packsmith/packsmith/internal/scanner"
	"github.com/packsmith/packsmith/internal/workspace"
	"github.com/packsmith/packsmith/internal/writer"
)

const (
	rpUUID = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	bpUUID = "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"
)

const rpManifest = `{
    "format_version": 2,
    "header": {
        "name": "Blocks RP",
        "uuid": "` + rpUUID + `",
        "version": [1, 0, 0]
    },
    "modules": [
        {"type": "resources", "uuid": "` + rpUUID + `", "version": [1, 0, 0]}
    ]
}`

const bpManifest = `{
    "format_version": 2,
    "header": {
        "name": "Blocks BP",
        "uuid": "` + bpUUID + `",
        "version": [2, 0, 0]
    },
    "modules": [
        {"type": "data", "uuid": "` + bpUUID + `", "version": [2, 0, 0]}
    ],
    "dependencies": [
        {"uuid": "` + rpUUID + `", "version": [1, 0, 0]},
        {"version": "1.0.0", "uuid": "` + rpUUID + `"}
    ]
}`

// seedWorkspace lays out the canonical pair under a fresh root.
func seedWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for dir, content := range map[string]string{
		"rp": rpManifest,
		"bp": bpManifest,
	} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
		path := filepath.Join(root, dir, "manifest.json")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return root
}

// TestScanBumpSaveWorkflow drives the full scan -> advance -> save cycle
// and checks the on-disk outcome of a major bump of the resource pack.
func TestScanBumpSaveWorkflow(t *testing.T) {
	root := seedWorkspace(t)
	ctx := context.Background()

	ws, err := workspace.Open(ctx, root, scanner.Options{})
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	if ws.Resource == nil || ws.Behavior == nil {
		t.Fatalf("pair not discovered: resource=%v behavior=%v", ws.Resource, ws.Behavior)
	}

	report, err := ws.Advance(manifest.KindResource, bumper.Major)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if report.Version != "1.1.0" {
		t.Errorf("report version = %q, want 1.1.0", report.Version)
	}
	if err := ws.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Fresh scan sees the persisted state.
	after, err := workspace.Open(ctx, root, scanner.Options{})
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}

	if after.Resource.Header.Version != (manifest.Version{1, 1, 0}) {
		t.Errorf("resource header = %v, want [1 1 0]", after.Resource.Header.Version)
	}
	if got := *after.Resource.Modules[0].Common().Version; got != (manifest.Version{1, 1, 0}) {
		t.Errorf("resource module = %v, want [1 1 0]", got)
	}
	if after.Behavior.Header.Version != (manifest.Version{2, 0, 0}) {
		t.Errorf("behavior header moved: %v", after.Behavior.Header.Version)
	}
	if got := *after.Behavior.Modules[0].Common().Version; got != (manifest.Version{2, 0, 0}) {
		t.Errorf("behavior module moved: %v", got)
	}
	if v, ok := after.Behavior.Dependencies[0].Version.Pinned(); !ok || v != (manifest.Version{1, 1, 0}) {
		t.Errorf("pinned dependency = %v (pinned=%v), want [1 1 0]", v, ok)
	}
	if tag, ok := after.Behavior.Dependencies[1].Version.Tag(); !ok || tag != "1.0.0" {
		t.Errorf("tag dependency changed: %q", tag)
	}
}

// TestSaveIsStable re-saves an untouched workspace and expects the
// files to stop changing after the first write.
func TestSaveIsStable(t *testing.T) {
	root := seedWorkspace(t)
	ctx := context.Background()

	ws, err := workspace.Open(ctx, root, scanner.Options{})
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	if err := ws.Save(); err != nil {
		t.Fatalf("first save: %v", err)
	}
	first := readPair(t, ws)

	ws2, err := workspace.Open(ctx, root, scanner.Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := ws2.Save(); err != nil {
		t.Fatalf("second save: %v", err)
	}
	second := readPair(t, ws2)

	for i := range first {
		if !bytes.Equal(first[i], second[i]) {
			t.Errorf("save %d not byte-stable:\nfirst:\n%s\nsecond:\n%s", i, first[i], second[i])
		}
	}
}

func readPair(t *testing.T, ws *workspace.Workspace) [][]byte {
	t.Helper()
	var out [][]byte
	for _, p := range ws.Packs() {
		data, err := os.ReadFile(p.Path)
		if err != nil {
			t.Fatalf("read %s: %v", p.Path, err)
		}
		out = append(out, data)
	}
	return out
}

// TestMalformedManifestDoesNotAbortScan drops a broken manifest next to
// the pair and expects the scan to adopt the pair anyway.
func TestMalformedManifestDoesNotAbortScan(t *testing.T) {
	root := seedWorkspace(t)
	junk := filepath.Join(root, "broken")
	if err := os.MkdirAll(junk, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(junk, "manifest.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write broken manifest: %v", err)
	}

	res, err := scanner.Scan(context.Background(), root, scanner.Options{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.Resource == nil || res.Behavior == nil {
		t.Error("pair not adopted alongside a malformed manifest")
	}
	found := false
	for _, d := range res.Diagnostics {
		if d.Code == scanner.CodeInvalidManifest {
			found = true
		}
	}
	if !found {
		t.Errorf("no invalid-manifest diagnostic recorded: %v", res.Diagnostics)
	}
}

// TestScaffoldedPairSurvivesTheFullCycle scaffolds a linked pair the way
// the init command does, then bumps and exports it.
func TestScaffoldedPairSurvivesTheFullCycle(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	rp := scaffold.NewPack(manifest.KindResource, "Cycle Test")
	bp := scaffold.NewPack(manifest.KindBehavior, "Cycle Test")
	scaffold.Link(bp, rp)
	rp.Path = filepath.Join(root, "resource_pack", "manifest.json")
	bp.Path = filepath.Join(root, "behavior_pack", "manifest.json")
	for _, p := range []*manifest.Pack{rp, bp} {
		if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := writer.Write(p); err != nil {
			t.Fatalf("write scaffold: %v", err)
		}
	}

	ws, err := workspace.Open(ctx, root, scanner.Options{})
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	if len(ws.Diagnostics) != 0 {
		t.Errorf("scaffolded pair produced diagnostics: %v", ws.Diagnostics)
	}

	if _, err := ws.Advance(manifest.KindResource, bumper.Minor); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := ws.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	after, err := workspace.Open(ctx, root, scanner.Options{})
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if v, ok := after.Behavior.Dependencies[0].Version.Pinned(); !ok || v != (manifest.Version{1, 0, 1}) {
		t.Errorf("scaffold link not re-pinned: %v", v)
	}

	out1 := filepath.Join(t.TempDir(), "a.mcaddon")
	out2 := filepath.Join(t.TempDir(), "b.mcaddon")
	r1, err := bundler.Export(after.Resource, after.Behavior, out1)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	r2, err := bundler.Export(after.Resource, after.Behavior, out2)
	if err != nil {
		t.Fatalf("re-export: %v", err)
	}
	if r1.SHA256 != r2.SHA256 {
		t.Errorf("archives differ: %s vs %s", r1.SHA256, r2.SHA256)
	}
	if r1.Members != 2 {
		t.Errorf("archive members = %d, want 2", r1.Members)
	}
}

// TestDependenciesStayAbsentAcrossTheWorkflow is the round-trip omission
// contract seen end to end: a pack with no dependencies key never grows
// one, however many times it is advanced and saved.
func TestDependenciesStayAbsentAcrossTheWorkflow(t *testing.T) {
	root := seedWorkspace(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ws, err := workspace.Open(ctx, root, scanner.Options{})
		if err != nil {
			t.Fatalf("open workspace: %v", err)
		}
		if _, err := ws.Advance(manifest.KindResource, bumper.Minor); err != nil {
			t.Fatalf("advance: %v", err)
		}
		if err := ws.Save(); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(root, "rp", "manifest.json"))
	if err != nil {
		t.Fatalf("read resource manifest: %v", err)
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if _, ok := keys["dependencies"]; ok {
		t.Error("resource manifest grew a dependencies key")
	}
	if _, ok := keys["metadata"]; ok {
		t.Error("resource manifest grew a metadata key")
	}
}
