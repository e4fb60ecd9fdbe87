// Package scanner finds the add-on pair under a directory tree: it walks
// for files named manifest.json, decodes and classifies each one, and
// adopts the first resource pack and the first behavior pack it sees.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/packsmith/packsmith/internal/manifest"
	"github.com/packsmith/packsmith/internal/observability/logging"
)

// ManifestName is the file name that defines a pack, matched
// literally at any depth.
const ManifestName = "manifest.json"

// Options tune a scan.
type Options struct {
	// Exclude holds doublestar patterns matched against slash-separated
	// paths relative to the scan root. A matching directory is pruned
	// whole; a matching manifest file is skipped. "**/build/**" skips
	// manifests under any build directory.
	Exclude []string
}

// Result is the outcome of one scan. Missing kinds stay nil; every
// skipped file or entry is recorded in Diagnostics.
type Result struct {
	Resource    *manifest.Pack
	Behavior    *manifest.Pack
	Diagnostics []Diagnostic
}

// Packs lists the adopted packs, resource first.
func (r *Result) Packs() []*manifest.Pack {
	var packs []*manifest.Pack
	if r.Resource != nil {
		packs = append(packs, r.Resource)
	}
	if r.Behavior != nil {
		packs = append(packs, r.Behavior)
	}
	return packs
}

// Scan walks root for manifests. Malformed files never fail the scan;
// only an unreadable root or a cancelled context do.
func Scan(ctx context.Context, root string, opts Options) (*Result, error) {
	log := logging.From(ctx)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}

	res := &Result{}
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityWarn, Code: CodeUnreadable, Path: path,
				Message: err.Error(), Err: err,
			})
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && Excluded(opts.Exclude, rel) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() != ManifestName || Excluded(opts.Exclude, rel) {
			return nil
		}

		res.adopt(path, log)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scan %s: %w", root, walkErr)
	}

	log.Debug("scanner", "scan finished",
		"root", absRoot,
		"resource", res.Resource != nil,
		"behavior", res.Behavior != nil,
		"diagnostics", len(res.Diagnostics))
	return res, nil
}

// Load reads and decodes a single manifest file, for callers that
// already know the path.
func Load(path string) (*manifest.Pack, []Diagnostic, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, nil, fmt.Errorf("read manifest: %w", err)
	}
	pack, diags, err := decodeManifest(abs, data)
	if err != nil {
		return nil, diags, fmt.Errorf("load %s: %w", abs, err)
	}
	pack.Path = abs
	return pack, diags, nil
}

// adopt loads one candidate file and slots it into the result, first of
// each kind wins.
func (r *Result) adopt(path string, log logging.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		r.Diagnostics = append(r.Diagnostics, Diagnostic{
			Severity: SeverityWarn, Code: CodeUnreadable, Path: path,
			Message: err.Error(), Err: err,
		})
		return
	}

	pack, diags, err := decodeManifest(path, data)
	r.Diagnostics = append(r.Diagnostics, diags...)
	if err != nil {
		code, severity := CodeInvalidManifest, SeverityWarn
		if errors.Is(err, errNotAPack) {
			code, severity = CodeNotAPack, SeverityInfo
		}
		r.Diagnostics = append(r.Diagnostics, Diagnostic{
			Severity: severity, Code: code, Path: path,
			Message: err.Error(), Err: err,
		})
		log.Debug("scanner", "manifest skipped", "path", path, "reason", err.Error())
		return
	}
	pack.Path = path

	var slot **manifest.Pack
	switch pack.Kind {
	case manifest.KindResource:
		slot = &r.Resource
	case manifest.KindBehavior:
		slot = &r.Behavior
	default:
		return
	}
	if *slot != nil {
		r.Diagnostics = append(r.Diagnostics, Diagnostic{
			Severity: SeverityWarn, Code: CodeDuplicatePack, Path: path,
			Message: fmt.Sprintf("%s pack already adopted from %s", pack.Kind, (*slot).Path),
		})
		return
	}
	*slot = pack
	log.Debug("scanner", "pack adopted",
		"path", path,
		"kind", string(pack.Kind),
		"name", pack.Header.Name,
		"version", pack.Header.Version.String())
}

// Excluded reports whether the slash-separated relative path rel
// matches any of the doublestar patterns.
func Excluded(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}
