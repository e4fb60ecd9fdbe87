package scanner

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/packsmith/packsmith/internal/manifest"
)

var errNotAPack = errors.New("no pack-defining module")

// Raw envelopes keep decoding tolerant where it has to be: module entries
// decode in two phases so an unrecognized entry is dropped instead of
// failing the file, while a recognized entry with a bad shape still does.
type rawPack struct {
	FormatVersion *int              `json:"format_version"`
	Header        *rawHeader        `json:"header"`
	Modules       []json.RawMessage `json:"modules"`
	Dependencies  *[]rawDependency  `json:"dependencies"`
	Metadata      json.RawMessage   `json:"metadata"`
}

type rawHeader struct {
	Name             *string           `json:"name"`
	Description      string            `json:"description"`
	UUID             *string           `json:"uuid"`
	Version          *manifest.Version `json:"version"`
	MinEngineVersion *manifest.Version `json:"min_engine_version"`
}

type rawModule struct {
	UUID        *string           `json:"uuid"`
	Version     *manifest.Version `json:"version"`
	Description string            `json:"description"`
	Language    string            `json:"language"`
	Entry       *string           `json:"entry"`
}

type rawDependency struct {
	Version    *manifest.VersionSpec `json:"version"`
	UUID       string                `json:"uuid"`
	ModuleName string                `json:"module_name"`
}

// decodeManifest turns manifest JSON into a classified Pack. A returned
// error means the whole file is skipped; diagnostics carry per-entry
// skips that do not fail the file.
func decodeManifest(path string, data []byte) (*manifest.Pack, []Diagnostic, error) {
	var raw rawPack
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("parse manifest: %w", err)
	}

	kind, ok := classify(raw.Modules)
	if !ok {
		return nil, nil, errNotAPack
	}

	header, err := buildHeader(raw.Header)
	if err != nil {
		return nil, nil, err
	}

	var diags []Diagnostic
	modules := make([]manifest.Module, 0, len(raw.Modules))
	for _, entry := range raw.Modules {
		tag, err := moduleTag(entry)
		if err != nil {
			return nil, diags, err
		}
		mt, err := manifest.ParseModuleType(tag)
		if err != nil || !kind.Recognizes(mt) {
			diags = append(diags, Diagnostic{
				Severity: SeverityWarn,
				Code:     CodeUnknownModule,
				Path:     path,
				Message:  fmt.Sprintf("skipped module entry with type %q in a %s pack", tag, kind),
				Err:      err,
			})
			continue
		}
		m, err := buildModule(mt, entry)
		if err != nil {
			return nil, diags, err
		}
		modules = append(modules, m)
	}

	deps, err := buildDependencies(raw.Dependencies)
	if err != nil {
		return nil, diags, err
	}

	formatVersion := manifest.DefaultFormatVersion
	if raw.FormatVersion != nil {
		formatVersion = *raw.FormatVersion
	}

	return &manifest.Pack{
		FormatVersion: formatVersion,
		Header:        *header,
		Modules:       modules,
		Dependencies:  deps,
		Metadata:      raw.Metadata,
		Kind:          kind,
	}, diags, nil
}

// classify picks the pack kind from the first module whose type decides
// one. Order is the manifest's own module order.
func classify(entries []json.RawMessage) (manifest.PackKind, bool) {
	for _, entry := range entries {
		tag, err := moduleTag(entry)
		if err != nil {
			continue
		}
		mt, err := manifest.ParseModuleType(tag)
		if err != nil {
			continue
		}
		if kind, ok := mt.Classifies(); ok {
			return kind, true
		}
	}
	return "", false
}

// moduleTag reads the discriminator out of one raw module entry. A
// missing or non-string type reads as "", which later fails as unknown.
func moduleTag(entry []byte) (string, error) {
	var peek struct {
		Type any `json:"type"`
	}
	if err := json.Unmarshal(entry, &peek); err != nil {
		return "", fmt.Errorf("module entry is not an object: %w", err)
	}
	tag, _ := peek.Type.(string)
	return tag, nil
}

func buildHeader(raw *rawHeader) (*manifest.Header, error) {
	if raw == nil {
		return nil, errors.New("manifest missing header")
	}
	if raw.Name == nil {
		return nil, errors.New("header missing name")
	}
	if raw.UUID == nil {
		return nil, errors.New("header missing uuid")
	}
	if _, err := uuid.Parse(*raw.UUID); err != nil {
		return nil, fmt.Errorf("header uuid %q: %w", *raw.UUID, err)
	}
	if raw.Version == nil {
		return nil, errors.New("header missing version")
	}
	return &manifest.Header{
		Name:             *raw.Name,
		Description:      raw.Description,
		UUID:             *raw.UUID,
		Version:          *raw.Version,
		MinEngineVersion: raw.MinEngineVersion,
	}, nil
}

func buildModule(mt manifest.ModuleType, entry []byte) (manifest.Module, error) {
	var raw rawModule
	if err := json.Unmarshal(entry, &raw); err != nil {
		return nil, fmt.Errorf("%s module: %w", mt, err)
	}
	if raw.UUID == nil {
		return nil, fmt.Errorf("%s module missing uuid", mt)
	}
	if raw.Version == nil {
		return nil, fmt.Errorf("%s module missing version", mt)
	}
	common := manifest.ModuleCommon{
		UUID:        *raw.UUID,
		Version:     raw.Version,
		Description: raw.Description,
	}
	switch mt {
	case manifest.ModuleResources:
		return &manifest.ResourcesModule{ModuleCommon: common}, nil
	case manifest.ModuleClientData:
		return &manifest.ClientDataModule{ModuleCommon: common}, nil
	case manifest.ModuleData:
		return &manifest.DataModule{ModuleCommon: common}, nil
	case manifest.ModuleScript:
		language := raw.Language
		if language == "" {
			language = manifest.DefaultScriptLanguage
		}
		return &manifest.ScriptModule{ModuleCommon: common, Language: language, Entry: raw.Entry}, nil
	default:
		return nil, &manifest.UnknownModuleTypeError{Tag: string(mt)}
	}
}

// buildDependencies keeps a present-but-empty list distinct from an
// absent one in memory; neither form serializes.
func buildDependencies(raw *[]rawDependency) ([]manifest.Dependency, error) {
	if raw == nil {
		return nil, nil
	}
	deps := make([]manifest.Dependency, 0, len(*raw))
	for i, rd := range *raw {
		if rd.Version == nil {
			return nil, fmt.Errorf("dependency %d missing version", i)
		}
		deps = append(deps, manifest.Dependency{
			Version:    *rd.Version,
			UUID:       rd.UUID,
			ModuleName: rd.ModuleName,
		})
	}
	return deps, nil
}
