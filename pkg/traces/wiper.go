package traces

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// wipeChunkSize bounds how much zero data one overwrite write() covers.
const wipeChunkSize = 1 << 20

// WipeOptions controls a secure wipe. Confirm must be true for anything to
// happen at all.
type WipeOptions struct {
	Confirm      bool
	KeepSettings bool // protects the settings category and root settings files
	KeepPlugins  bool // protects the plugins category entirely
	Exclusions   []Exclusion
}

// CategoryWipe is the per-category slice of a wipe receipt.
type CategoryWipe struct {
	Files int   `yaml:"files"`
	Bytes int64 `yaml:"bytes"`
}

// WipeResult is the receipt of one wipe: machine-readable totals plus a
// human-readable rendering. It is never persisted by this package.
type WipeResult struct {
	ReceiptID       string                  `yaml:"receipt_id"`
	Confirmed       bool                    `yaml:"confirmed"`
	WipedFiles      int                     `yaml:"wiped_files"`
	FreedBytes      int64                   `yaml:"freed_bytes"`
	Categories      map[string]CategoryWipe `yaml:"categories"`
	PreservedReason string                  `yaml:"preserved_reason,omitempty"`
	Errors          []ItemError             `yaml:"errors,omitempty"`
	CompletedAt     time.Time               `yaml:"completed_at"`
}

// Wipe overwrites then deletes every non-protected file under root. Without
// Confirm it refuses all action and returns a zero-effect result explaining
// the requirement. Protection, in order of evaluation: the keep-settings
// flag, the keep-plugins flag, then the exclusion list. Overwrite failures
// fall back to a plain unlink; per-file failures never abort the batch.
func Wipe(root string, opts WipeOptions) (*WipeResult, error) {
	result := &WipeResult{
		ReceiptID:  uuid.NewString(),
		Categories: make(map[string]CategoryWipe),
	}
	if !opts.Confirm {
		result.PreservedReason = "secure wipe requires explicit confirmation; no files were touched"
		result.CompletedAt = time.Now()
		return result, nil
	}

	inv, err := BuildInventory(root, InventoryOptions{})
	if err != nil {
		return nil, err
	}
	result.Confirmed = true

	for _, cat := range inv.Categories {
		if opts.KeepPlugins && cat.Name == "plugins" {
			continue
		}
		for _, item := range cat.Items {
			if opts.KeepSettings && (cat.Name == "settings" || preservedSettings[item.RelPath]) {
				continue
			}
			if MatchExclusion(item.RelPath, cat.Name, opts.Exclusions) != nil {
				continue
			}
			if !withinRoot(inv.Root, item.Path) {
				result.Errors = append(result.Errors, ItemError{Path: item.Path, Reason: "outside data root"})
				continue
			}
			if err := secureDelete(item.Path, item.SizeBytes); err != nil {
				result.Errors = append(result.Errors, ItemError{Path: item.Path, Reason: err.Error()})
				continue
			}
			result.WipedFiles++
			result.FreedBytes += item.SizeBytes
			cw := result.Categories[cat.Name]
			cw.Files++
			cw.Bytes += item.SizeBytes
			result.Categories[cat.Name] = cw
		}
	}

	removeEmptyTraceDirs(inv.Root)
	result.CompletedAt = time.Now()
	return result, nil
}

// secureDelete overwrites the file with zero bytes in chunks until the
// original length is covered, then unlinks it. If the overwrite cannot
// start or fails midway the file is still unlinked.
func secureDelete(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return os.Remove(path)
	}
	zeros := make([]byte, wipeChunkSize)
	remaining := size
	for remaining > 0 {
		chunk := int64(wipeChunkSize)
		if remaining < chunk {
			chunk = remaining
		}
		if _, err := f.Write(zeros[:chunk]); err != nil {
			break
		}
		remaining -= chunk
	}
	_ = f.Sync()
	_ = f.Close()
	return os.Remove(path)
}

// withinRoot refuses paths that resolve outside the data root.
func withinRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// removeEmptyTraceDirs prunes now-empty subdirectories under the known trace
// directories. Best effort; failures are ignored.
func removeEmptyTraceDirs(root string) {
	for _, rule := range categoryRules {
		for _, prefix := range rule.PathPrefixes {
			if prefix == "." {
				continue
			}
			dir := filepath.Join(root, prefix)
			var subdirs []string
			_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if d.IsDir() {
					subdirs = append(subdirs, path)
				}
				return nil
			})
			// Deepest first so parents empty out as children go.
			sort.Slice(subdirs, func(i, j int) bool { return len(subdirs[i]) > len(subdirs[j]) })
			for _, sub := range subdirs {
				_ = os.Remove(sub)
			}
		}
	}
}

// Receipt renders the human-readable wipe receipt.
func (r *WipeResult) Receipt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Secure wipe receipt %s\n", r.ReceiptID)
	if !r.Confirmed {
		fmt.Fprintf(&b, "No action taken: %s\n", r.PreservedReason)
		return b.String()
	}
	fmt.Fprintf(&b, "Completed: %s\n", r.CompletedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Files wiped: %d (%d bytes freed)\n", r.WipedFiles, r.FreedBytes)
	names := make([]string, 0, len(r.Categories))
	for name := range r.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cw := r.Categories[name]
		fmt.Fprintf(&b, "  %s: %d files, %d bytes\n", name, cw.Files, cw.Bytes)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "Errors: %d\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "  %s: %s\n", e.Path, e.Reason)
		}
	}
	return b.String()
}

// ReceiptYAML renders the receipt in machine-readable form.
func (r *WipeResult) ReceiptYAML() ([]byte, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("traces: marshal wipe receipt: %w", err)
	}
	return out, nil
}
