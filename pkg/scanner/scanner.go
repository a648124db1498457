package scanner

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/entrhq/custodian/pkg/walker"
)

// Location names which side of a record an issue was found on.
type Location string

const (
	LocationMessage    Location = "message"
	LocationToolResult Location = "tool_result"
)

// Issue is one oversized-content finding: at most one issue exists per
// (line, location) pair, carrying every affected address at that location.
type Issue struct {
	Line            int // 1-based
	Location        Location
	Addresses       []Address
	ContentType     ContentType
	EstimatedSize   int
	EstimatedTokens int // 0 unless a token estimator is configured
}

// ScanResult is a fresh-from-disk snapshot of one file's issues.
type ScanResult struct {
	FilePath   string
	Issues     []Issue
	TotalLines int
	ScannedAt  time.Time
}

// TokenEstimator estimates how many model tokens a piece of text costs.
type TokenEstimator interface {
	Estimate(text string) int
}

// Scanner scans and repairs conversation logs. The zero value is not usable;
// construct with NewScanner.
type Scanner struct {
	thresholds Thresholds
	tokens     TokenEstimator
}

// NewScanner returns a Scanner with the default size thresholds.
func NewScanner() *Scanner {
	return &Scanner{thresholds: DefaultThresholds}
}

// WithThresholds overrides the size thresholds.
func (s *Scanner) WithThresholds(th Thresholds) *Scanner {
	s.thresholds = th
	return s
}

// WithTokenEstimator attaches an optional token estimator; oversized text
// findings are then annotated with an estimated token count.
func (s *Scanner) WithTokenEstimator(te TokenEstimator) *Scanner {
	s.tokens = te
	return s
}

// ScanFile reads the whole file and reports every oversized-content issue.
// Blank lines and unparsable lines are skipped silently. The result is always
// recomputed from current disk state.
func (s *Scanner) ScanFile(path string) (*ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scanner: read %s: %w", path, err)
	}
	return s.scanBytes(path, data), nil
}

func (s *Scanner) scanBytes(path string, data []byte) *ScanResult {
	lines := strings.Split(string(data), "\n")
	total := len(lines)
	if total > 0 && lines[total-1] == "" {
		total-- // trailing newline, not a record
	}

	result := &ScanResult{
		FilePath:   path,
		TotalLines: total,
		ScannedAt:  time.Now(),
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var rec lineRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if rec.Message != nil {
			if issue, ok := s.buildIssue(i+1, LocationMessage, &rec.Message.Content); ok {
				result.Issues = append(result.Issues, issue)
			}
		}
		if rec.ToolUseResult != nil {
			if issue, ok := s.buildIssue(i+1, LocationToolResult, &rec.ToolUseResult.Content); ok {
				result.Issues = append(result.Issues, issue)
			}
		}
	}
	return result
}

func (s *Scanner) buildIssue(line int, loc Location, content *Content) (Issue, bool) {
	f := ClassifyContent(content, s.thresholds)
	if len(f.Addresses) == 0 {
		return Issue{}, false
	}
	issue := Issue{
		Line:          line,
		Location:      loc,
		Addresses:     f.Addresses,
		ContentType:   f.Addresses[0].Type,
		EstimatedSize: f.EstimatedSize,
	}
	if s.tokens != nil {
		for _, addr := range f.Addresses {
			if addr.Type != ContentLargeText {
				continue
			}
			if b := blockAt(content, addr); b != nil {
				issue.EstimatedTokens += s.tokens.Estimate(b.Text)
			}
		}
	}
	return issue, true
}

// blockAt resolves an address against the content shape it was computed from.
func blockAt(c *Content, addr Address) *Block {
	if addr.Outer >= len(c.Blocks) {
		return nil
	}
	b := &c.Blocks[addr.Outer]
	if !addr.Nested {
		return b
	}
	if b.Content == nil || addr.Inner >= len(b.Content.Blocks) {
		return nil
	}
	return &b.Content.Blocks[addr.Inner]
}

// SkippedFile records a file a batch operation could not read.
type SkippedFile struct {
	Path   string
	Reason string
}

// BatchScanResult aggregates scans over every conversation log under a
// directory. Unreadable files never abort the batch.
type BatchScanResult struct {
	Results      []*ScanResult
	SkippedFiles []SkippedFile
	TotalIssues  int
}

// ScanAll scans every .jsonl file under dir.
func (s *Scanner) ScanAll(dir string) (*BatchScanResult, error) {
	files, skipped, err := listLogs(dir)
	if err != nil {
		return nil, err
	}
	batch := &BatchScanResult{SkippedFiles: skipped}
	for _, path := range files {
		res, err := s.ScanFile(path)
		if err != nil {
			batch.SkippedFiles = append(batch.SkippedFiles, SkippedFile{Path: path, Reason: err.Error()})
			continue
		}
		batch.Results = append(batch.Results, res)
		batch.TotalIssues += len(res.Issues)
	}
	return batch, nil
}

func listLogs(dir string) (files []string, skipped []SkippedFile, err error) {
	walked, err := walker.Walk(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("scanner: list logs: %w", err)
	}
	for _, sk := range walked.Skipped {
		skipped = append(skipped, SkippedFile{Path: sk.Path, Reason: sk.Reason})
	}
	for _, e := range walked.Entries {
		if strings.HasSuffix(e.Path, ".jsonl") {
			files = append(files, e.Path)
		}
	}
	return files, skipped, nil
}
