package policy

import (
	"github.com/packsmith/packsmith/internal/manifest"
	"github.com/packsmith/packsmith/internal/scanner"
)

// BuildInput flattens the scanned pair into the CEL input document.
// Versions are dotted strings, absent optionals are empty strings, and
// collections keep scan order, so rule evaluation is deterministic.
func BuildInput(resource, behavior *manifest.Pack, diags []scanner.Diagnostic) map[string]any {
	return map[string]any{
		"resource":    packInput(resource),
		"behavior":    packInput(behavior),
		"pair":        pairInput(resource, behavior),
		"diagnostics": diagnosticsInput(diags),
	}
}

// packInput exposes only "found" for a missing pack; rules must guard
// with input.<kind>.found before touching the other keys.
func packInput(p *manifest.Pack) map[string]any {
	if p == nil {
		return map[string]any{"found": false}
	}

	minEngine := ""
	if p.Header.MinEngineVersion != nil {
		minEngine = p.Header.MinEngineVersion.String()
	}

	return map[string]any{
		"found":              true,
		"name":               p.Header.Name,
		"uuid":               p.Header.UUID,
		"description":        p.Header.Description,
		"version":            p.Header.Version.String(),
		"format_version":     p.FormatVersion,
		"min_engine_version": minEngine,
		"modules":            modulesInput(p.Modules),
		"dependencies":       dependenciesInput(p.Dependencies),
	}
}

func modulesInput(modules []manifest.Module) []any {
	out := make([]any, 0, len(modules))
	for _, m := range modules {
		c := m.Common()
		version := ""
		if c.Version != nil {
			version = c.Version.String()
		}
		entry := map[string]any{
			"type":        string(m.Type()),
			"uuid":        c.UUID,
			"version":     version,
			"description": c.Description,
		}
		if s, ok := m.(*manifest.ScriptModule); ok {
			language := s.Language
			if language == "" {
				language = manifest.DefaultScriptLanguage
			}
			entry["language"] = language
			if s.Entry != nil {
				entry["entry"] = *s.Entry
			}
		}
		out = append(out, entry)
	}
	return out
}

func dependenciesInput(deps []manifest.Dependency) []any {
	out := make([]any, 0, len(deps))
	for _, d := range deps {
		version := ""
		if v, ok := d.Version.Pinned(); ok {
			version = v.String()
		} else if tag, ok := d.Version.Tag(); ok {
			version = tag
		}
		out = append(out, map[string]any{
			"uuid":        d.UUID,
			"module_name": d.ModuleName,
			"pinned":      d.Version.IsPinned(),
			"version":     version,
		})
	}
	return out
}

// pairInput precomputes the cross-pack facts that are awkward to spell
// out in CEL.
func pairInput(resource, behavior *manifest.Pack) map[string]any {
	both := resource != nil && behavior != nil

	linked := false
	linkCurrent := false
	if both {
		for _, d := range behavior.Dependencies {
			if d.UUID != resource.Header.UUID {
				continue
			}
			linked = true
			if pin, ok := d.Version.Pinned(); ok && pin == resource.Header.Version {
				linkCurrent = true
			}
			break
		}
	}

	return map[string]any{
		"both_found":     both,
		"versions_match": both && resource.Header.Version == behavior.Header.Version,
		"linked":         linked,
		"link_current":   linkCurrent,
	}
}

func diagnosticsInput(diags []scanner.Diagnostic) []any {
	out := make([]any, 0, len(diags))
	for _, d := range diags {
		out = append(out, map[string]any{
			"severity": string(d.Severity),
			"code":     string(d.Code),
			"path":     d.Path,
			"message":  d.Message,
		})
	}
	return out
}
