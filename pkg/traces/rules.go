// Package traces classifies every file under an assistant's data root into a
// fixed category taxonomy with sensitivity levels, and performs selective or
// wholesale destructive cleanup honoring user-supplied protection rules.
package traces

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Sensitivity grades how damaging disclosure or loss of a category would be.
type Sensitivity string

const (
	SensitivityCritical Sensitivity = "critical"
	SensitivityHigh     Sensitivity = "high"
	SensitivityMedium   Sensitivity = "medium"
	SensitivityLow      Sensitivity = "low"
)

// CategoryRule maps path patterns to a trace category. Rules are evaluated
// in table order; the first match wins and no file matches two categories.
type CategoryRule struct {
	Name          string
	Description   string
	Sensitivity   Sensitivity
	PathPrefixes  []string // "." means directly in the root
	Pattern       string   // optional glob the relative path must also match
	ImpactWarning string

	compiled glob.Glob
}

// The static rule table. Built once at init and never mutated.
var categoryRules = compileRules([]CategoryRule{
	{
		Name:          "conversations",
		Description:   "Session transcripts and conversation history",
		Sensitivity:   SensitivityCritical,
		PathPrefixes:  []string{"projects"},
		ImpactWarning: "Deletes all saved conversation history and session transcripts",
	},
	{
		Name:          "file_history",
		Description:   "Snapshots of files before edits",
		Sensitivity:   SensitivityHigh,
		PathPrefixes:  []string{"file-history", "file-backups"},
		ImpactWarning: "Removes the ability to undo past file edits",
	},
	{
		Name:          "shell_snapshots",
		Description:   "Captured shell environment state",
		Sensitivity:   SensitivityMedium,
		PathPrefixes:  []string{"shell-snapshots"},
		ImpactWarning: "Deletes recorded shell environments",
	},
	{
		Name:          "todos",
		Description:   "Per-session task lists",
		Sensitivity:   SensitivityLow,
		PathPrefixes:  []string{"todos"},
		ImpactWarning: "Deletes saved task lists",
	},
	{
		Name:          "logs",
		Description:   "Assistant debug and activity logs",
		Sensitivity:   SensitivityMedium,
		PathPrefixes:  []string{"logs"},
		ImpactWarning: "Deletes activity logs useful for debugging",
	},
	{
		Name:          "usage_analytics",
		Description:   "Local usage and feature-flag telemetry",
		Sensitivity:   SensitivityLow,
		PathPrefixes:  []string{"statsig", "usage"},
		ImpactWarning: "Resets local usage statistics",
	},
	{
		Name:          "caches",
		Description:   "Regenerable cached data",
		Sensitivity:   SensitivityLow,
		PathPrefixes:  []string{"cache", ".cache"},
		ImpactWarning: "Caches will be rebuilt on next use",
	},
	{
		Name:          "plugins",
		Description:   "Installed plugin bundles",
		Sensitivity:   SensitivityMedium,
		PathPrefixes:  []string{"plugins"},
		ImpactWarning: "Installed plugins must be reinstalled",
	},
	{
		Name:          "agents",
		Description:   "Custom agent definitions",
		Sensitivity:   SensitivityHigh,
		PathPrefixes:  []string{"agents"},
		ImpactWarning: "Deletes custom agent definitions that cannot be regenerated",
	},
	{
		Name:          "ide_locks",
		Description:   "IDE integration lock files",
		Sensitivity:   SensitivityLow,
		PathPrefixes:  []string{"ide"},
		ImpactWarning: "Active IDE integrations may need to reconnect",
	},
	{
		Name:          "settings",
		Description:   "User settings files in the root",
		Sensitivity:   SensitivityCritical,
		PathPrefixes:  []string{"."},
		Pattern:       "settings*.json",
		ImpactWarning: "Deletes user settings and preferences",
	},
})

// conversationPrefix is the subtree the project filter applies to.
const conversationPrefix = "projects"

func compileRules(rules []CategoryRule) []CategoryRule {
	for i := range rules {
		if rules[i].Pattern == "" {
			continue
		}
		g, err := glob.Compile(rules[i].Pattern)
		if err != nil {
			panic(fmt.Sprintf("traces: invalid category rule pattern %q: %v", rules[i].Pattern, err))
		}
		rules[i].compiled = g
	}
	return rules
}

// Rules returns a copy of the ordered rule table.
func Rules() []CategoryRule {
	out := make([]CategoryRule, len(categoryRules))
	copy(out, categoryRules)
	return out
}

// Classify returns the first rule matching the root-relative path, or false
// when no rule matches. Unmatched files are excluded from inventories.
func Classify(relPath string) (CategoryRule, bool) {
	for _, rule := range categoryRules {
		if !matchesPrefix(relPath, rule.PathPrefixes) {
			continue
		}
		if rule.compiled != nil && !rule.compiled.Match(relPath) {
			continue
		}
		return rule, true
	}
	return CategoryRule{}, false
}

func matchesPrefix(relPath string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix == "." {
			if !strings.Contains(relPath, "/") {
				return true
			}
			continue
		}
		if strings.HasPrefix(relPath, prefix+"/") {
			return true
		}
	}
	return false
}
