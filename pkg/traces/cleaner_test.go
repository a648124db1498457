package traces

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidatePaths(result *CleanResult) []string {
	paths := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		paths = append(paths, f.RelPath)
	}
	sort.Strings(paths)
	return paths
}

func TestCleanDryRunMatchesExecute(t *testing.T) {
	opts := CleanOptions{Categories: []string{"todos", "logs"}}

	dryRoot := seedRoot(t)
	dry, err := Clean(dryRoot, CleanOptions{Categories: opts.Categories, DryRun: true})
	require.NoError(t, err)

	execRoot := seedRoot(t)
	exec, err := Clean(execRoot, CleanOptions{Categories: opts.Categories, DryRun: false})
	require.NoError(t, err)

	assert.Equal(t, candidatePaths(dry), candidatePaths(exec),
		"dry-run reports exactly what execute deletes")
	assert.Equal(t, dry.FreedBytes, exec.FreedBytes)

	// Dry-run deleted nothing.
	_, err = os.Stat(filepath.Join(dryRoot, "todos", "t1.json"))
	assert.NoError(t, err)
	// Execute deleted the candidates.
	_, err = os.Stat(filepath.Join(execRoot, "todos", "t1.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(execRoot, "logs", "today.log"))
	assert.True(t, os.IsNotExist(err))
	// And nothing else.
	_, err = os.Stat(filepath.Join(execRoot, "projects", "p1", "session.jsonl"))
	assert.NoError(t, err)
}

func TestCleanDefaultProtectedCategories(t *testing.T) {
	root := seedRoot(t)
	result, err := Clean(root, CleanOptions{DryRun: true})
	require.NoError(t, err)

	assert.NotContains(t, result.Categories, "agents")
	assert.NotContains(t, result.Categories, "ide_locks")
	for _, f := range result.Files {
		assert.NotEqual(t, "agents", f.Category)
		assert.NotEqual(t, "ide_locks", f.Category)
	}
}

func TestCleanExplicitCategoryOverridesProtection(t *testing.T) {
	root := seedRoot(t)
	result, err := Clean(root, CleanOptions{Categories: []string{"agents"}, DryRun: false})
	require.NoError(t, err)

	assert.Equal(t, []string{"agents"}, result.Categories)
	_, err = os.Stat(filepath.Join(root, "agents", "reviewer.md"))
	assert.True(t, os.IsNotExist(err), "naming a protected category explicitly cleans it")
}

func TestCleanAgeCutoff(t *testing.T) {
	root := t.TempDir()
	oldPath := seedFile(t, root, "todos/old.json", `[]`)
	seedFile(t, root, "todos/new.json", `[]`)
	old := time.Now().Add(-45 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, old, old))

	result, err := Clean(root, CleanOptions{Categories: []string{"todos"}, Days: 30, DryRun: false})
	require.NoError(t, err)

	assert.Equal(t, []string{"todos/old.json"}, candidatePaths(result))
	_, err = os.Stat(filepath.Join(root, "todos", "new.json"))
	assert.NoError(t, err, "items newer than the cutoff survive")
}

func TestCleanRecordsPerItemErrors(t *testing.T) {
	root := seedRoot(t)
	prev := removeFile
	removeFile = func(path string) error {
		if filepath.Base(path) == "t1.json" {
			return errors.New("device or resource busy")
		}
		return os.Remove(path)
	}
	defer func() { removeFile = prev }()

	result, err := Clean(root, CleanOptions{Categories: []string{"todos", "logs"}})
	require.NoError(t, err, "a per-item failure does not abort the batch")

	require.Len(t, result.Errors, 1)
	assert.Equal(t, filepath.Join(root, "todos", "t1.json"), result.Errors[0].Path)
	assert.Contains(t, result.Errors[0].Reason, "busy")

	// The failed item stays on disk; the rest of the batch was still deleted.
	_, err = os.Stat(filepath.Join(root, "todos", "t1.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "logs", "today.log"))
	assert.True(t, os.IsNotExist(err))

	// Freed bytes count only what actually came off disk.
	var total, failed int64
	for _, f := range result.Files {
		total += f.SizeBytes
		if f.RelPath == "todos/t1.json" {
			failed = f.SizeBytes
		}
	}
	assert.Equal(t, total-failed, result.FreedBytes)
}

func TestCleanHonorsCategoryExclusion(t *testing.T) {
	root := seedRoot(t)
	result, err := Clean(root, CleanOptions{
		Categories: []string{"conversations", "todos"},
		DryRun:     false,
		Exclusions: []Exclusion{NewExclusion(ExcludeCategory, "conversations", "")},
	})
	require.NoError(t, err)

	assert.NotContains(t, result.Categories, "conversations")
	_, err = os.Stat(filepath.Join(root, "projects", "p1", "session.jsonl"))
	assert.NoError(t, err, "excluded category untouched regardless of other filters")
	_, err = os.Stat(filepath.Join(root, "todos", "t1.json"))
	assert.True(t, os.IsNotExist(err), "other categories still cleaned")
}

func TestCleanHonorsPathExclusion(t *testing.T) {
	root := seedRoot(t)
	result, err := Clean(root, CleanOptions{
		Categories: []string{"conversations"},
		DryRun:     true,
		Exclusions: []Exclusion{NewExclusion(ExcludePath, "projects/p1/*", "")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"projects/p2/other.jsonl"}, candidatePaths(result))
}

func TestCleanPreserveSettings(t *testing.T) {
	root := seedRoot(t)
	result, err := Clean(root, CleanOptions{
		Categories:       []string{"settings"},
		PreserveSettings: true,
		DryRun:           false,
	})
	require.NoError(t, err)

	assert.Empty(t, result.Files)
	assert.Empty(t, result.Categories, "category affected only when an item was selected")
	_, err = os.Stat(filepath.Join(root, "settings.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "settings.local.json"))
	assert.NoError(t, err)
}

func TestCleanProjectFilter(t *testing.T) {
	root := seedRoot(t)
	result, err := Clean(root, CleanOptions{
		Categories: []string{"conversations"},
		Project:    "p2",
		DryRun:     false,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"projects/p2/other.jsonl"}, candidatePaths(result))
	_, err = os.Stat(filepath.Join(root, "projects", "p1", "session.jsonl"))
	assert.NoError(t, err)
}

func TestCleanReportsFreedBytes(t *testing.T) {
	root := seedRoot(t)
	result, err := Clean(root, CleanOptions{Categories: []string{"logs"}, DryRun: false})
	require.NoError(t, err)
	assert.Positive(t, result.FreedBytes)
	assert.Empty(t, result.Errors)
}
