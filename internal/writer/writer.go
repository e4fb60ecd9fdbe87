// Package writer persists packs back to their manifest files with a
// stable layout: fixed key order, four-space indentation, one trailing
// newline. Stable output keeps hand-edited manifests diffable after a
// version bump.
package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/packsmith/packsmith/internal/manifest"
)

// WriteError reports an encode or I/O failure for one manifest file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write manifest %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Encode renders a pack as manifest JSON. Optional fields that are absent
// stay absent, and the dependencies and metadata keys are dropped
// entirely when empty, so a reload of the output encodes to the same
// bytes.
func Encode(p *manifest.Pack) ([]byte, error) {
	m := *p
	if len(m.Dependencies) == 0 {
		m.Dependencies = nil
	}
	if emptyMetadata(m.Metadata) {
		m.Metadata = nil
	}
	data, err := json.MarshalIndent(&m, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Write encodes p and replaces the file at p.Path atomically, so a crash
// mid-write never leaves a truncated manifest behind.
func Write(p *manifest.Pack) error {
	data, err := Encode(p)
	if err != nil {
		return &WriteError{Path: p.Path, Err: err}
	}
	if err := writeFileAtomic(p.Path, data); err != nil {
		return &WriteError{Path: p.Path, Err: err}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".manifest-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// emptyMetadata treats a missing value, JSON null, and an empty object as
// nothing worth serializing.
func emptyMetadata(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	return len(m) == 0
}
