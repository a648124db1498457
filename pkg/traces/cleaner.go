package traces

import (
	"os"
	"time"
)

// Categories that a clean without an explicit category list never touches.
// Naming a category explicitly overrides this default.
var defaultProtected = map[string]bool{
	"agents":    true,
	"ide_locks": true,
}

// removeFile is swapped in tests that exercise per-item failure handling.
var removeFile = os.Remove

// Root-relative settings files preserved by the preserve-settings flag.
var preservedSettings = map[string]bool{
	"settings.json":       true,
	"settings.local.json": true,
}

// CleanOptions selects what a clean may touch.
type CleanOptions struct {
	Project          string
	Categories       []string // allow-list; empty means every non-protected category
	Days             int      // keep items modified within this many days; 0 disables
	DryRun           bool
	PreserveSettings bool
	Exclusions       []Exclusion
}

// Candidate is one file a clean selected for deletion.
type Candidate struct {
	Path      string
	RelPath   string
	Category  string
	SizeBytes int64
}

// ItemError records a per-file failure that did not abort the batch.
type ItemError struct {
	Path   string
	Reason string
}

// CleanResult is the transient outcome of one clean. In dry-run mode Files
// is exactly the set an execute run would delete.
type CleanResult struct {
	DryRun     bool
	Files      []Candidate
	FreedBytes int64
	Categories []string // categories with at least one selected item
	Errors     []ItemError
}

// Clean selects and, unless dry-run, deletes trace files under root. One
// code path computes the candidate set in both modes; per-file delete
// failures are recorded without aborting the batch.
func Clean(root string, opts CleanOptions) (*CleanResult, error) {
	inv, err := BuildInventory(root, InventoryOptions{Project: opts.Project})
	if err != nil {
		return nil, err
	}

	var cutoff time.Time
	if opts.Days > 0 {
		cutoff = time.Now().AddDate(0, 0, -opts.Days)
	}
	allowed := make(map[string]bool, len(opts.Categories))
	for _, name := range opts.Categories {
		allowed[name] = true
	}

	result := &CleanResult{DryRun: opts.DryRun}
	for _, cat := range inv.Categories {
		if len(opts.Categories) > 0 && !allowed[cat.Name] {
			continue
		}
		if len(opts.Categories) == 0 && defaultProtected[cat.Name] {
			continue
		}

		selected := 0
		for _, item := range cat.Items {
			if !cutoff.IsZero() && item.ModifiedAt.After(cutoff) {
				continue
			}
			if MatchExclusion(item.RelPath, cat.Name, opts.Exclusions) != nil {
				continue
			}
			if opts.PreserveSettings && preservedSettings[item.RelPath] {
				continue
			}

			result.Files = append(result.Files, Candidate{
				Path:      item.Path,
				RelPath:   item.RelPath,
				Category:  cat.Name,
				SizeBytes: item.SizeBytes,
			})
			selected++

			if opts.DryRun {
				result.FreedBytes += item.SizeBytes
				continue
			}
			if err := removeFile(item.Path); err != nil {
				result.Errors = append(result.Errors, ItemError{Path: item.Path, Reason: err.Error()})
				continue
			}
			result.FreedBytes += item.SizeBytes
		}
		if selected > 0 {
			result.Categories = append(result.Categories, cat.Name)
		}
	}
	return result, nil
}
