package scanner

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/sjson"
)

// FixOptions controls one fix operation.
type FixOptions struct {
	// Backup writes the original file verbatim alongside itself before any
	// mutation. A backup-write failure aborts the fix with zero side effects.
	Backup bool
}

// FixResult is the outcome of one fix. Fixed is true only when at least one
// issue existed and the rewrite was durably written. After a successful
// backup, BackupPath is reported even when the rewrite later fails, so the
// caller can recover manually.
type FixResult struct {
	ScanResult
	Fixed      bool
	BackupPath string
	Err        error
}

// Placeholder texts substituted for removed payloads. Placeholders are plain
// text blocks well under threshold, which makes fixing idempotent.
var placeholders = map[ContentType]string{
	ContentImage:     "[Image removed - exceeded size limit]",
	ContentPDF:       "[PDF removed - exceeded size limit]",
	ContentDocument:  "[Document removed - exceeded size limit]",
	ContentLargeText: "[Large text removed - exceeded size limit]",
	ContentUnknown:   "[Large content removed - exceeded size limit]",
}

// FixFile re-scans path and rewrites every addressed entry with a
// content-type-specific placeholder text block. Only the affected lines are
// re-serialized, and within an affected line only the addressed JSON paths
// change; every other byte of the file stays identical. The full line set is
// written back atomically.
func (s *Scanner) FixFile(path string, opts FixOptions) (*FixResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scanner: read %s: %w", path, err)
	}
	scan := s.scanBytes(path, data)
	result := &FixResult{ScanResult: *scan}
	if len(scan.Issues) == 0 {
		return result, nil
	}

	if opts.Backup {
		backupPath := path + ".backup." + backupTimestamp(timeNow())
		if err := os.WriteFile(backupPath, data, 0o600); err != nil {
			result.Err = fmt.Errorf("scanner: write backup %s: %w", backupPath, err)
			return result, result.Err
		}
		result.BackupPath = backupPath
	}

	lines := strings.Split(string(data), "\n")
	for _, issue := range scan.Issues {
		lineBytes := []byte(lines[issue.Line-1])
		for _, addr := range issue.Addresses {
			lineBytes, err = sjson.SetRawBytes(lineBytes, addressPath(issue.Location, addr), placeholderBlock(addr.Type))
			if err != nil {
				result.Err = fmt.Errorf("scanner: rewrite line %d of %s: %w", issue.Line, path, err)
				return result, result.Err
			}
		}
		lines[issue.Line-1] = string(lineBytes)
	}

	if err := writeFileAtomic(path, []byte(strings.Join(lines, "\n"))); err != nil {
		result.Err = err
		return result, result.Err
	}
	result.Fixed = true
	return result, nil
}

// FixAll fixes every .jsonl file under dir. Per-file failures are recorded
// on the individual results and never abort the batch.
func (s *Scanner) FixAll(dir string, opts FixOptions) ([]*FixResult, []SkippedFile, error) {
	files, skipped, err := listLogs(dir)
	if err != nil {
		return nil, nil, err
	}
	var results []*FixResult
	for _, path := range files {
		res, err := s.FixFile(path, opts)
		if err != nil && res == nil {
			skipped = append(skipped, SkippedFile{Path: path, Reason: err.Error()})
			continue
		}
		results = append(results, res)
	}
	return results, skipped, nil
}

// addressPath builds the sjson path for one addressed content entry.
func addressPath(loc Location, addr Address) string {
	var b strings.Builder
	if loc == LocationToolResult {
		b.WriteString("toolUseResult.content.")
	} else {
		b.WriteString("message.content.")
	}
	b.WriteString(strconv.Itoa(addr.Outer))
	if addr.Nested {
		b.WriteString(".content.")
		b.WriteString(strconv.Itoa(addr.Inner))
	}
	return b.String()
}

func placeholderBlock(ct ContentType) []byte {
	text, ok := placeholders[ct]
	if !ok {
		text = placeholders[ContentUnknown]
	}
	raw, _ := json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "text", Text: text})
	return raw
}

// timeNow is swapped in tests that need a predictable backup path.
var timeNow = time.Now

// backupTimestamp renders t as RFC3339 at nanosecond precision with ':' and
// '.' replaced by '-', keeping backup names portable across filesystems.
// Sub-second precision keeps repeated fixes of one file from overwriting an
// earlier backup.
func backupTimestamp(t time.Time) string {
	return strings.NewReplacer(":", "-", ".", "-").Replace(t.UTC().Format(time.RFC3339Nano))
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("scanner: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("scanner: atomic rename %s: %w", path, err)
	}
	return nil
}

// RestoreBackup copies a backup file written by FixFile back over its
// original. It returns the restored original path.
func RestoreBackup(backupPath string) (string, error) {
	idx := strings.LastIndex(backupPath, ".backup.")
	if idx <= 0 {
		return "", fmt.Errorf("scanner: %s is not a backup file", backupPath)
	}
	original := backupPath[:idx]
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return "", fmt.Errorf("scanner: read backup %s: %w", backupPath, err)
	}
	if err := writeFileAtomic(original, data); err != nil {
		return "", err
	}
	return original, nil
}
