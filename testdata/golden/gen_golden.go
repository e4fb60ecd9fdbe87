//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/packsmith/packsmith/internal/manifest"
	"github.com/packsmith/packsmith/internal/writer"
)

// Generates the golden manifest pair the writer round-trip tests load.
// Fixed uuids and versions keep the output reproducible.
func main() {
	rpVersion := manifest.Version{1, 4, 2}
	engine := manifest.Version{1, 21, 0}
	entry := "scripts/main.js"

	rp := &manifest.Pack{
		FormatVersion: 2,
		Header: manifest.Header{
			Name:             "Golden Blocks Resources",
			Description:      "Textures and models for Golden Blocks",
			UUID:             "11111111-2222-4333-8444-555555555555",
			Version:          rpVersion,
			MinEngineVersion: &engine,
		},
		Modules: []manifest.Module{
			&manifest.ResourcesModule{ModuleCommon: manifest.ModuleCommon{
				UUID:    "11111111-2222-4333-8444-555555555555",
				Version: &manifest.Version{1, 4, 2},
			}},
		},
		Kind: manifest.KindResource,
		Path: "testdata/golden/manifest.rp.json",
	}

	bp := &manifest.Pack{
		FormatVersion: 2,
		Header: manifest.Header{
			Name:             "Golden Blocks Behaviors",
			UUID:             "66666666-7777-4888-8999-aaaaaaaaaaaa",
			Version:          manifest.Version{1, 4, 0},
			MinEngineVersion: &manifest.Version{1, 21, 0},
		},
		Modules: []manifest.Module{
			&manifest.DataModule{ModuleCommon: manifest.ModuleCommon{
				UUID:    "66666666-7777-4888-8999-aaaaaaaaaaaa",
				Version: &manifest.Version{1, 4, 0},
			}},
			&manifest.ScriptModule{
				ModuleCommon: manifest.ModuleCommon{
					UUID:    "66666666-7777-4888-8999-aaaaaaaaaaaa",
					Version: &manifest.Version{1, 4, 0},
				},
				Language: "javascript",
				Entry:    &entry,
			},
		},
		Dependencies: []manifest.Dependency{
			{UUID: "11111111-2222-4333-8444-555555555555", Version: manifest.Pinned(rpVersion)},
			{ModuleName: "@minecraft/server", Version: manifest.Tag("1.12.0")},
		},
		Metadata: []byte(`{"authors":["packsmith"],"license":"MIT"}`),
		Kind:     manifest.KindBehavior,
		Path:     "testdata/golden/manifest.bp.json",
	}

	for _, p := range []*manifest.Pack{rp, bp} {
		if err := writer.Write(p); err != nil {
			fmt.Fprintf(os.Stderr, "Write failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Golden file generated: %s\n", p.Path)
	}
}
