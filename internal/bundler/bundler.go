// Package bundler exports discovered packs as a distributable archive.
//
// Archives are deterministic: members are sorted, every entry carries
// the ZIP epoch as its timestamp and a fixed mode, and compression is
// Deflate, so the same workspace always produces byte-identical
// output. A pack pair conventionally exports as `.mcaddon`, a single
// pack as `.mcpack`; neither extension is enforced.
package bundler

import (
	"archive/zip"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/packsmith/packsmith/internal/manifest"
)

// zipEpoch is the earliest timestamp the ZIP format can represent.
var zipEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Receipt describes a finished export.
type Receipt struct {
	Path    string `json:"path"`
	Members int    `json:"members"`
	Bytes   int64  `json:"bytes"`
	SHA256  string `json:"sha256"`
}

type packRoot struct {
	dir    string
	folder string
}

// Export archives every file under each pack's directory beneath a
// top-level folder named after that directory. At least one pack with
// a known path is required. A failed export leaves no partial archive
// behind.
func Export(res, beh *manifest.Pack, out string) (*Receipt, error) {
	roots, err := packRoots(res, beh)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(out)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	hash := sha256.New()
	counter := &countingWriter{}
	zw := zip.NewWriter(io.MultiWriter(f, hash, counter))

	members := 0
	for _, root := range roots {
		n, err := addTree(zw, root.dir, root.folder)
		if err != nil {
			zw.Close()
			f.Close()
			os.Remove(out)
			return nil, err
		}
		members += n
	}
	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(out)
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(out)
		return nil, fmt.Errorf("write archive: %w", err)
	}

	return &Receipt{
		Path:    out,
		Members: members,
		Bytes:   counter.n,
		SHA256:  fmt.Sprintf("%x", hash.Sum(nil)),
	}, nil
}

// packRoots resolves the directories to archive. When both packs live
// in directories with the same basename the top-level folders are
// disambiguated by role.
func packRoots(res, beh *manifest.Pack) ([]packRoot, error) {
	var roots []packRoot
	for _, p := range []*manifest.Pack{res, beh} {
		if p == nil || p.Path == "" {
			continue
		}
		dir := filepath.Dir(p.Path)
		roots = append(roots, packRoot{dir: dir, folder: filepath.Base(dir)})
	}
	if len(roots) == 0 {
		return nil, errors.New("export: no packs to archive")
	}
	if len(roots) == 2 && roots[0].folder == roots[1].folder {
		roots[0].folder = "resource-" + roots[0].folder
		roots[1].folder = "behavior-" + roots[1].folder
	}
	return roots, nil
}

// addTree writes every file under dir into the archive beneath folder,
// in sorted order, and returns how many members it added.
func addTree(zw *zip.Writer, dir, folder string) (int, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)

	for _, path := range files {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return 0, fmt.Errorf("relativize %s: %w", path, err)
		}
		name := folder + "/" + filepath.ToSlash(rel)
		if err := addFile(zw, path, name); err != nil {
			return 0, fmt.Errorf("archive %s: %w", name, err)
		}
	}
	return len(files), nil
}

// addFile copies one file into the archive. The fixed mode and
// timestamp keep archives byte-identical across checkouts.
func addFile(zw *zip.Writer, srcPath, name string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: zipEpoch,
	}
	header.SetMode(0o644)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

type countingWriter struct{ n int64 }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}
