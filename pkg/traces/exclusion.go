package traces

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
)

// ExclusionType selects how an exclusion's value is matched.
type ExclusionType string

const (
	// ExcludeCategory protects every file in a named category.
	ExcludeCategory ExclusionType = "category"
	// ExcludeProject protects files whose path contains the value.
	ExcludeProject ExclusionType = "project"
	// ExcludePath protects files whose whole root-relative path matches the
	// value as a glob ('*' matches any characters including separators,
	// '?' matches one). The glob is anchored: it must match the full path.
	ExcludePath ExclusionType = "path"
)

// Exclusion is one user-declared protection rule. Persistence belongs to the
// config layer; the matchers here only consume in-memory lists.
type Exclusion struct {
	ID          string        `json:"id"`
	Type        ExclusionType `json:"type"`
	Value       string        `json:"value"`
	Description string        `json:"description,omitempty"`
}

// NewExclusion creates an exclusion with a fresh id.
func NewExclusion(t ExclusionType, value, description string) Exclusion {
	return Exclusion{
		ID:          uuid.NewString(),
		Type:        t,
		Value:       value,
		Description: description,
	}
}

// MatchExclusion evaluates exclusions in list order against a file and
// returns the first match, which is attributed for reporting. Invalid path
// globs never match.
func MatchExclusion(relPath, category string, exclusions []Exclusion) *Exclusion {
	for i := range exclusions {
		ex := &exclusions[i]
		switch ex.Type {
		case ExcludeCategory:
			if ex.Value == category {
				return ex
			}
		case ExcludeProject:
			if ex.Value != "" && strings.Contains(relPath, ex.Value) {
				return ex
			}
		case ExcludePath:
			g, err := glob.Compile(ex.Value)
			if err != nil {
				continue
			}
			if g.Match(relPath) {
				return ex
			}
		}
	}
	return nil
}
