// Package workspace ties a scanned add-on pair to the advance-and-save
// session the commands drive.
package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/packsmith/packsmith/internal/bumper"
	"github.com/packsmith/packsmith/internal/manifest"
	"github.com/packsmith/packsmith/internal/scanner"
	"github.com/packsmith/packsmith/internal/writer"
)

// ErrNoPack reports an operation against a pack kind the scan did not
// find.
var ErrNoPack = errors.New("pack not found")

// Workspace holds the packs discovered under one root.
type Workspace struct {
	Root        string
	Resource    *manifest.Pack
	Behavior    *manifest.Pack
	Diagnostics []scanner.Diagnostic
}

// Open scans root and wraps the result.
func Open(ctx context.Context, root string, opts scanner.Options) (*Workspace, error) {
	res, err := scanner.Scan(ctx, root, opts)
	if err != nil {
		return nil, err
	}
	return &Workspace{
		Root:        root,
		Resource:    res.Resource,
		Behavior:    res.Behavior,
		Diagnostics: res.Diagnostics,
	}, nil
}

// Pack selects a loaded pack by kind, nil when absent.
func (w *Workspace) Pack(kind manifest.PackKind) *manifest.Pack {
	switch kind {
	case manifest.KindResource:
		return w.Resource
	case manifest.KindBehavior:
		return w.Behavior
	default:
		return nil
	}
}

// Counterpart returns the other half of the pair, nil when absent.
func (w *Workspace) Counterpart(kind manifest.PackKind) *manifest.Pack {
	switch kind {
	case manifest.KindResource:
		return w.Behavior
	case manifest.KindBehavior:
		return w.Resource
	default:
		return nil
	}
}

// Packs lists the loaded packs, resource first.
func (w *Workspace) Packs() []*manifest.Pack {
	var packs []*manifest.Pack
	if w.Resource != nil {
		packs = append(packs, w.Resource)
	}
	if w.Behavior != nil {
		packs = append(packs, w.Behavior)
	}
	return packs
}

// Advance bumps the named pack in memory and keeps the counterpart's
// pinned dependencies on it in lockstep. Nothing is written until Save.
func (w *Workspace) Advance(kind manifest.PackKind, level bumper.Level) (bumper.Report, error) {
	source := w.Pack(kind)
	if source == nil {
		return bumper.Report{}, fmt.Errorf("%s pack: %w", kind, ErrNoPack)
	}
	return bumper.Advance(source, w.Counterpart(kind), level), nil
}

// Save writes every loaded pack back to its manifest path. A failure on
// one pack does not stop the other's write; all failures are joined.
func (w *Workspace) Save() error {
	var errs []error
	for _, p := range w.Packs() {
		if err := writer.Write(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
