package traces

import (
	"strings"
	"time"

	"github.com/entrhq/custodian/pkg/walker"
)

// Item is one classified file. Inventories are recomputed on every build;
// nothing here survives a call.
type Item struct {
	Category    string
	Path        string // absolute
	RelPath     string // root-relative, slash-separated
	SizeBytes   int64
	ModifiedAt  time.Time
	Sensitivity Sensitivity
}

// Category aggregates the items of one rule.
type Category struct {
	Name          string
	Description   string
	Sensitivity   Sensitivity
	ImpactWarning string
	Items         []Item
	TotalSize     int64
	FileCount     int
	OldestFile    time.Time
	NewestFile    time.Time
}

// Inventory is a pure snapshot of the data root at call time. Categories
// appear in rule-table order; categories with zero files are omitted.
type Inventory struct {
	Root          string
	TotalSize     int64
	TotalFiles    int
	Categories    []Category
	CriticalItems int
	HighItems     int
	AnalyzedAt    time.Time
	SkippedDirs   []walker.Skipped
}

// InventoryOptions narrows an inventory build.
type InventoryOptions struct {
	// Project, when set, keeps only conversation files whose path contains
	// this substring. Files outside the conversation subtree are never
	// filtered.
	Project string
}

// BuildInventory walks the root and classifies every regular file. Files on
// the infrastructure denylist (package-manager directories nested inside
// plugin bundles) and files matching no rule are omitted. Output is a
// deterministic function of filesystem state.
func BuildInventory(root string, opts InventoryOptions) (*Inventory, error) {
	walked, err := walker.Walk(root)
	if err != nil {
		return nil, err
	}

	inv := &Inventory{
		Root:        walked.Root,
		AnalyzedAt:  time.Now(),
		SkippedDirs: walked.Skipped,
	}
	byName := make(map[string]*Category)
	for _, e := range walked.Entries {
		if isInfrastructure(e.RelPath) {
			continue
		}
		rule, ok := Classify(e.RelPath)
		if !ok {
			continue
		}
		if opts.Project != "" &&
			strings.HasPrefix(e.RelPath, conversationPrefix+"/") &&
			!strings.Contains(e.RelPath, opts.Project) {
			continue
		}

		cat, ok := byName[rule.Name]
		if !ok {
			cat = &Category{
				Name:          rule.Name,
				Description:   rule.Description,
				Sensitivity:   rule.Sensitivity,
				ImpactWarning: rule.ImpactWarning,
			}
			byName[rule.Name] = cat
		}
		item := Item{
			Category:    rule.Name,
			Path:        e.Path,
			RelPath:     e.RelPath,
			SizeBytes:   e.Size,
			ModifiedAt:  e.ModTime,
			Sensitivity: rule.Sensitivity,
		}
		cat.Items = append(cat.Items, item)
		cat.TotalSize += e.Size
		cat.FileCount++
		if cat.OldestFile.IsZero() || e.ModTime.Before(cat.OldestFile) {
			cat.OldestFile = e.ModTime
		}
		if e.ModTime.After(cat.NewestFile) {
			cat.NewestFile = e.ModTime
		}

		inv.TotalSize += e.Size
		inv.TotalFiles++
		switch rule.Sensitivity {
		case SensitivityCritical:
			inv.CriticalItems++
		case SensitivityHigh:
			inv.HighItems++
		}
	}

	for _, rule := range categoryRules {
		if cat, ok := byName[rule.Name]; ok {
			inv.Categories = append(inv.Categories, *cat)
		}
	}
	return inv, nil
}

// isInfrastructure reports whether the path sits inside a nested
// package-manager directory, which belongs to plugin tooling rather than
// user activity.
func isInfrastructure(relPath string) bool {
	for _, seg := range strings.Split(relPath, "/") {
		if seg == "node_modules" {
			return true
		}
	}
	return false
}
