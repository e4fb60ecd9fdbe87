package scaffold

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/packsmith/packsmith/internal/bumper"
	"github.com/packsmith/packsmith/internal/manifest"
	"github.com/packsmith/packsmith/internal/scanner"
	"github.com/packsmith/packsmith/internal/writer"
)

func TestNewPack_ResourceShape(t *testing.T) {
	p := NewPack(manifest.KindResource, "Glow RP")

	if p.Kind != manifest.KindResource {
		t.Errorf("Kind = %q, want %q", p.Kind, manifest.KindResource)
	}
	if p.FormatVersion != manifest.DefaultFormatVersion {
		t.Errorf("FormatVersion = %d, want %d", p.FormatVersion, manifest.DefaultFormatVersion)
	}
	if p.Header.Name != "Glow RP" {
		t.Errorf("Name = %q, want %q", p.Header.Name, "Glow RP")
	}
	if _, err := uuid.Parse(p.Header.UUID); err != nil {
		t.Errorf("header uuid %q: %v", p.Header.UUID, err)
	}
	if got, want := p.Header.Version, (manifest.Version{1, 0, 0}); got != want {
		t.Errorf("version = %v, want %v", got, want)
	}
	if p.Header.MinEngineVersion == nil || *p.Header.MinEngineVersion != (manifest.Version{1, 21, 0}) {
		t.Errorf("min_engine_version = %v, want [1 21 0]", p.Header.MinEngineVersion)
	}
	if len(p.Modules) != 1 {
		t.Fatalf("modules = %d, want 1", len(p.Modules))
	}
	m := p.Modules[0]
	if m.Type() != manifest.ModuleResources {
		t.Errorf("module type = %q, want %q", m.Type(), manifest.ModuleResources)
	}
	if m.Common().UUID != p.Header.UUID {
		t.Errorf("module uuid %q does not match header %q", m.Common().UUID, p.Header.UUID)
	}
	if m.Common().Version == nil || *m.Common().Version != p.Header.Version {
		t.Errorf("module version = %v, want %v", m.Common().Version, p.Header.Version)
	}
	if p.Dependencies != nil {
		t.Errorf("dependencies = %v, want none", p.Dependencies)
	}
}

func TestNewPack_BehaviorUsesDataModule(t *testing.T) {
	p := NewPack(manifest.KindBehavior, "Glow BP")
	if p.Kind != manifest.KindBehavior {
		t.Errorf("Kind = %q, want %q", p.Kind, manifest.KindBehavior)
	}
	if got := p.Modules[0].Type(); got != manifest.ModuleData {
		t.Errorf("module type = %q, want %q", got, manifest.ModuleData)
	}
}

func TestNewPack_FreshIdentityPerCall(t *testing.T) {
	a := NewPack(manifest.KindResource, "A")
	b := NewPack(manifest.KindResource, "B")
	if a.Header.UUID == b.Header.UUID {
		t.Errorf("two packs share uuid %q", a.Header.UUID)
	}
}

func TestNewPack_AdvanceCarriesModule(t *testing.T) {
	p := NewPack(manifest.KindResource, "Glow RP")

	bumper.Advance(p, nil, bumper.Minor)

	if got, want := p.Header.Version, (manifest.Version{1, 0, 1}); got != want {
		t.Errorf("header = %v, want %v", got, want)
	}
	if got := *p.Modules[0].Common().Version; got != (manifest.Version{1, 0, 1}) {
		t.Errorf("module = %v, want [1 0 1]", got)
	}
}

func TestLink_PinsCurrentVersion(t *testing.T) {
	rp := NewPack(manifest.KindResource, "Glow RP")
	bp := NewPack(manifest.KindBehavior, "Glow BP")

	Link(bp, rp)

	if len(bp.Dependencies) != 1 {
		t.Fatalf("dependencies = %d, want 1", len(bp.Dependencies))
	}
	dep := bp.Dependencies[0]
	if dep.UUID != rp.Header.UUID {
		t.Errorf("dep uuid = %q, want %q", dep.UUID, rp.Header.UUID)
	}
	pinned, ok := dep.Version.Pinned()
	if !ok {
		t.Fatalf("dep version %v is not pinned", dep.Version)
	}
	if pinned != rp.Header.Version {
		t.Errorf("pinned = %v, want %v", pinned, rp.Header.Version)
	}

	// A linked scaffold participates in propagation straight away.
	bumper.Advance(rp, bp, bumper.Minor)
	pinned, _ = bp.Dependencies[0].Version.Pinned()
	if want := (manifest.Version{1, 0, 1}); pinned != want {
		t.Errorf("after advance pinned = %v, want %v", pinned, want)
	}
}

func TestLink_NilPacksAreNoops(t *testing.T) {
	rp := NewPack(manifest.KindResource, "Glow RP")
	Link(nil, rp)

	bp := NewPack(manifest.KindBehavior, "Glow BP")
	Link(bp, nil)
	if bp.Dependencies != nil {
		t.Errorf("dependencies = %v, want none", bp.Dependencies)
	}
}

func TestNewPack_RoundTripsThroughLoader(t *testing.T) {
	dir := t.TempDir()
	p := NewPack(manifest.KindResource, "Glow RP")
	p.Path = filepath.Join(dir, scanner.ManifestName)

	if err := writer.Write(p); err != nil {
		t.Fatalf("Write: %v", err)
	}
	first, err := os.ReadFile(p.Path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	loaded, diags, err := scanner.Load(p.Path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("diagnostics = %v, want none", diags)
	}
	second, err := writer.Encode(loaded)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("reload changed bytes:\n%s\nvs\n%s", first, second)
	}
}
