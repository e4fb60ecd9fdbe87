// Package scaffold builds fresh pack manifests ready for a first
// version advance.
package scaffold

import (
	"github.com/google/uuid"

	"github.com/packsmith/packsmith/internal/manifest"
)

// Defaults for a brand-new pack.
var (
	initialVersion   = manifest.Version{1, 0, 0}
	minEngineVersion = manifest.Version{1, 21, 0}
)

// NewPack builds a manifest of the given kind. The header and the
// primary module share one fresh uuid so a later version advance
// carries the module along with the header.
func NewPack(kind manifest.PackKind, name string) *manifest.Pack {
	id := uuid.NewString()
	moduleVer := initialVersion
	engine := minEngineVersion

	common := manifest.ModuleCommon{UUID: id, Version: &moduleVer}
	var primary manifest.Module
	if kind == manifest.KindBehavior {
		primary = &manifest.DataModule{ModuleCommon: common}
	} else {
		primary = &manifest.ResourcesModule{ModuleCommon: common}
	}

	return &manifest.Pack{
		FormatVersion: manifest.DefaultFormatVersion,
		Header: manifest.Header{
			Name:             name,
			UUID:             id,
			Version:          initialVersion,
			MinEngineVersion: &engine,
		},
		Modules: []manifest.Module{primary},
		Kind:    kind,
	}
}

// Link makes bp require rp at rp's current version, pinned, so the
// next advance of rp re-pins bp.
func Link(bp, rp *manifest.Pack) {
	if bp == nil || rp == nil {
		return
	}
	bp.Dependencies = append(bp.Dependencies, manifest.Dependency{
		UUID:    rp.Header.UUID,
		Version: manifest.Pinned(rp.Header.Version),
	})
}
