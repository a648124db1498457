// Package walker provides tolerant recursive traversal of a data root.
// Traversal never fails because of an unreadable subtree: every directory
// that cannot be descended into is recorded so callers can report what was
// skipped instead of silently missing files.
package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Entry describes one regular file found under the root.
type Entry struct {
	Path    string // absolute path
	RelPath string // path relative to the walked root, slash-separated
	Size    int64
	ModTime time.Time
}

// Skipped records a subtree or file the walk could not read.
type Skipped struct {
	Path   string
	Reason string
}

// Result is a partial-but-audited view of the tree: every regular file is
// either in Entries or accounted for under Skipped.
type Result struct {
	Root    string
	Entries []Entry
	Skipped []Skipped
}

// Walk traverses root and returns every regular file beneath it.
// Symlinks are not followed. An error is returned only when the root itself
// is unusable; errors deeper in the tree become Skipped records.
func Walk(root string) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("walker: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("walker: root %s is not a directory", absRoot)
	}

	result := &Result{Root: absRoot}
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Skipped = append(result.Skipped, Skipped{Path: path, Reason: err.Error()})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			result.Skipped = append(result.Skipped, Skipped{Path: path, Reason: err.Error()})
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			result.Skipped = append(result.Skipped, Skipped{Path: path, Reason: err.Error()})
			return nil
		}
		result.Entries = append(result.Entries, Entry{
			Path:    path,
			RelPath: filepath.ToSlash(rel),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walker: walk %s: %w", absRoot, walkErr)
	}
	return result, nil
}
