// Package differ previews what a version advancement would change
// across the pack pair, as RFC 6902 patches plus plain-English
// summaries. Nothing is written; callers re-run the advancement on the
// real workspace when they want the change applied.
package differ

import (
	"fmt"

	"github.com/packsmith/packsmith/internal/bumper"
	"github.com/packsmith/packsmith/internal/manifest"
	"github.com/packsmith/packsmith/internal/writer"
	"github.com/wI2L/jsondiff"
)

// PackChange is the projected change to a single manifest.
type PackChange struct {
	Kind         manifest.PackKind `json:"kind"`
	Path         string            `json:"path,omitempty"`
	Patch        jsondiff.Patch    `json:"patch"`
	Translations []string          `json:"translations"`
}

// Result is the projected outcome of an advancement.
type Result struct {
	Report     bumper.Report `json:"report"`
	HasChanges bool          `json:"has_changes"`
	Changes    []PackChange  `json:"changes"`
}

// Preview advances clones of source and counterpart and diffs their
// serialized forms against the originals. counterpart may be nil.
func Preview(source, counterpart *manifest.Pack, level bumper.Level) (*Result, error) {
	if source == nil {
		return nil, fmt.Errorf("preview %s bump: no pack to advance", level)
	}

	srcNext := source.Clone()
	var tgtNext *manifest.Pack
	if counterpart != nil {
		tgtNext = counterpart.Clone()
	}
	report := bumper.Advance(srcNext, tgtNext, level)

	result := &Result{Report: report}

	srcChange, err := diffPack(source, srcNext)
	if err != nil {
		return nil, fmt.Errorf("preview %s pack: %w", source.Kind, err)
	}
	if srcChange != nil {
		result.Changes = append(result.Changes, *srcChange)
	}

	if counterpart != nil {
		tgtChange, err := diffPack(counterpart, tgtNext)
		if err != nil {
			return nil, fmt.Errorf("preview %s pack: %w", counterpart.Kind, err)
		}
		if tgtChange != nil {
			result.Changes = append(result.Changes, *tgtChange)
		}
	}

	result.HasChanges = len(result.Changes) > 0
	return result, nil
}

// diffPack returns nil when the advancement leaves the manifest alone.
func diffPack(before, after *manifest.Pack) (*PackChange, error) {
	beforeJSON, err := writer.Encode(before)
	if err != nil {
		return nil, err
	}
	afterJSON, err := writer.Encode(after)
	if err != nil {
		return nil, err
	}

	patch, err := jsondiff.CompareJSON(beforeJSON, afterJSON)
	if err != nil {
		return nil, fmt.Errorf("compute diff: %w", err)
	}
	if len(patch) == 0 {
		return nil, nil
	}

	return &PackChange{
		Kind:         before.Kind,
		Path:         before.Path,
		Patch:        patch,
		Translations: Translate(patch),
	}, nil
}
