package scanner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/packsmith/packsmith/internal/manifest"
	"github.com/packsmith/packsmith/internal/writer"
)

const rpManifest = `{
    "format_version": 2,
    "header": {
        "name": "Glow RP",
        "uuid": "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa",
        "version": [1, 0, 0]
    },
    "modules": [
        {"type": "resources", "uuid": "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa", "version": [1, 0, 0]}
    ]
}`

const bpManifest = `{
    "format_version": 2,
    "header": {
        "name": "Glow BP",
        "uuid": "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb",
        "version": [2, 0, 0]
    },
    "modules": [
        {"type": "data", "uuid": "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb", "version": [2, 0, 0]}
    ],
    "dependencies": [
        {"uuid": "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa", "version": [1, 0, 0]}
    ]
}`

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

func TestScanFindsBothPacks(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"packs/glow_rp/manifest.json": rpManifest,
		"packs/glow_bp/manifest.json": bpManifest,
		"packs/glow_rp/textures/readme.txt": "not a manifest",
	})

	res, err := Scan(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Resource == nil || res.Behavior == nil {
		t.Fatalf("packs not found: resource=%v behavior=%v", res.Resource, res.Behavior)
	}
	if res.Resource.Header.Name != "Glow RP" || res.Behavior.Header.Name != "Glow BP" {
		t.Errorf("names = %q, %q", res.Resource.Header.Name, res.Behavior.Header.Name)
	}
	if !filepath.IsAbs(res.Resource.Path) || !filepath.IsAbs(res.Behavior.Path) {
		t.Errorf("paths not absolute: %q, %q", res.Resource.Path, res.Behavior.Path)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %v", res.Diagnostics)
	}
	if got := len(res.Packs()); got != 2 {
		t.Errorf("Packs() = %d entries", got)
	}
}

func TestScanFirstOfKindWins(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a_rp/manifest.json": rpManifest,
		"z_rp/manifest.json": rpManifest,
	})

	res, err := Scan(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Resource == nil {
		t.Fatal("resource pack not found")
	}
	if filepath.Base(filepath.Dir(res.Resource.Path)) != "a_rp" {
		t.Errorf("adopted %q, want the lexically first candidate", res.Resource.Path)
	}
	var dup int
	for _, d := range res.Diagnostics {
		if d.Code == CodeDuplicatePack {
			dup++
		}
	}
	if dup != 1 {
		t.Errorf("duplicate diagnostics = %d, want 1", dup)
	}
}

func TestScanSkipsBrokenManifests(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"broken/manifest.json":  `{"header": `,
		"no_uuid/manifest.json": `{"header": {"name": "P", "uuid": "nope", "version": [1,0,0]}, "modules": [{"type": "data", "uuid": "x", "version": [1,0,0]}]}`,
		"plain/manifest.json":   `{"header": {"name": "S", "uuid": "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa", "version": [1,0,0]}, "modules": [{"type": "script", "uuid": "s", "version": [1,0,0]}]}`,
		"good/manifest.json":    bpManifest,
	})

	res, err := Scan(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Behavior == nil {
		t.Fatal("good manifest was not adopted")
	}
	if res.Resource != nil {
		t.Errorf("unexpected resource pack from %s", res.Resource.Path)
	}

	codes := map[Code]int{}
	for _, d := range res.Diagnostics {
		codes[d.Code]++
	}
	if codes[CodeInvalidManifest] != 2 {
		t.Errorf("invalid-manifest diagnostics = %d, want 2 (%v)", codes[CodeInvalidManifest], res.Diagnostics)
	}
	if codes[CodeNotAPack] != 1 {
		t.Errorf("not-a-pack diagnostics = %d, want 1", codes[CodeNotAPack])
	}
}

func TestScanHonorsExcludes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"build/glow_rp/manifest.json": rpManifest,
		"src/glow_bp/manifest.json":   bpManifest,
	})

	res, err := Scan(context.Background(), root, Options{Exclude: []string{"build/**"}})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Resource != nil {
		t.Errorf("excluded manifest was adopted: %s", res.Resource.Path)
	}
	if res.Behavior == nil {
		t.Error("non-excluded manifest was not adopted")
	}
}

func TestScanEmptyTree(t *testing.T) {
	res, err := Scan(context.Background(), t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Resource != nil || res.Behavior != nil || len(res.Diagnostics) != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Packs() != nil {
		t.Errorf("Packs() = %v, want nil", res.Packs())
	}
}

func TestScanMissingRoot(t *testing.T) {
	if _, err := Scan(context.Background(), filepath.Join(t.TempDir(), "gone"), Options{}); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Scan(ctx, t.TempDir(), Options{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestLoadSingleManifest(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"rp/manifest.json": rpManifest})

	pack, diags, err := Load(filepath.Join(root, "rp", "manifest.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("diagnostics: %v", diags)
	}
	if pack.Kind != manifest.KindResource || pack.Header.Name != "Glow RP" {
		t.Errorf("pack = %q %q", pack.Kind, pack.Header.Name)
	}

	if _, _, err := Load(filepath.Join(root, "rp", "missing.json")); err == nil {
		t.Error("Load of a missing file should fail")
	}
}

// A written pack must reload to a pack that writes the same bytes.
func TestEncodeLoadEncodeIsStable(t *testing.T) {
	entry := "scripts/main.js"
	p := &manifest.Pack{
		FormatVersion: 2,
		Header: manifest.Header{
			Name:             "Round Trip BP",
			Description:      "checks byte stability",
			UUID:             "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb",
			Version:          manifest.Version{2, 3, 4},
			MinEngineVersion: &manifest.Version{1, 21, 0},
		},
		Modules: []manifest.Module{
			&manifest.DataModule{ModuleCommon: manifest.ModuleCommon{UUID: "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb", Version: &manifest.Version{2, 3, 4}}},
			&manifest.ScriptModule{ModuleCommon: manifest.ModuleCommon{UUID: "cccccccc-cccc-4ccc-8ccc-cccccccccccc", Version: &manifest.Version{2, 3, 4}}, Entry: &entry},
		},
		Dependencies: []manifest.Dependency{
			{Version: manifest.Pinned(manifest.Version{1, 0, 0}), UUID: "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"},
			{Version: manifest.Tag("1.11.0"), ModuleName: "@minecraft/server"},
		},
		Metadata: []byte(`{"authors":["packsmith"],"license":"MIT"}`),
	}

	first, err := writer.Encode(p)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, first, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := writer.Encode(loaded)
	if err != nil {
		t.Fatalf("Encode reloaded: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("round trip not byte-identical:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

// A minimal pack with every optional key absent must stay minimal.
func TestRoundTripKeepsOptionalsAbsent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"rp/manifest.json": rpManifest})

	res, err := Scan(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Resource == nil {
		t.Fatal("resource pack not found")
	}

	out, err := writer.Encode(res.Resource)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, key := range []string{"min_engine_version", "description", "dependencies", "metadata"} {
		if bytes.Contains(out, []byte(`"`+key+`"`)) {
			t.Errorf("absent %s was materialized:\n%s", key, out)
		}
	}
}
