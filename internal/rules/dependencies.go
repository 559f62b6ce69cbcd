package rules

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/kasunvimukthi/RPA-Reviewer/internal/workflow"
)

// Package name segments too generic to count as usage evidence.
var genericSegments = map[string]bool{
	"UiPath":     true,
	"Activities": true,
	"System":     true,
	"Microsoft":  true,
	"Core":       true,
}

func dependencyCheckpoints() []Checkpoint {
	return []Checkpoint{
		{
			ID:       "7.1",
			Question: "Is every declared dependency used by some workflow?",
			Scope:    ProjectScope,
			Eval: func(_ *workflow.Model, ctx *Context) Verdict {
				if len(ctx.Manifest.Dependencies) == 0 {
					return NA("Project declares no dependencies.")
				}
				var unused []string
				for _, dep := range ctx.Manifest.Dependencies {
					if !dependencyUsed(dep.Name, ctx.Models) {
						unused = append(unused, dep.Name)
					}
				}
				if len(unused) > 0 {
					return Failf("unused dependencies: %s", strings.Join(unused, ", "))
				}
				return Pass("All declared dependencies are referenced.")
			},
		},
		{
			ID:       "7.2",
			Question: "Are dependency versions pinned to stable releases?",
			Scope:    ProjectScope,
			Eval: func(_ *workflow.Model, ctx *Context) Verdict {
				if len(ctx.Manifest.Dependencies) == 0 {
					return NA("Project declares no dependencies.")
				}
				var offenders []string
				for _, dep := range ctx.Manifest.Dependencies {
					v, err := semver.NewVersion(normalizeVersion(dep.Version))
					if err != nil {
						offenders = append(offenders, fmt.Sprintf("%s (%s: unparsable)", dep.Name, dep.Version))
						continue
					}
					if v.Prerelease() != "" {
						offenders = append(offenders, fmt.Sprintf("%s (%s: prerelease)", dep.Name, dep.Version))
					}
				}
				if len(offenders) > 0 {
					return Failf("version issues: %s", strings.Join(offenders, ", "))
				}
				return Pass("Dependency versions are pinned and stable.")
			},
		},
		{
			ID:       "7.3",
			Question: "Is the target runtime declared in the project manifest?",
			Scope:    ProjectScope,
			Eval: func(_ *workflow.Model, ctx *Context) Verdict {
				if ctx.Manifest.TargetFramework == "" {
					return Failf("project manifest declares no target runtime")
				}
				return Pass("Target runtime: " + ctx.Manifest.TargetFramework)
			},
		},
	}
}

// dependencyUsed looks for any meaningful segment of the package name in
// the activity types or attribute values of any workflow.
func dependencyUsed(name string, models []*workflow.Model) bool {
	var tokens []string
	for _, seg := range strings.Split(name, ".") {
		if seg == "" || genericSegments[seg] {
			continue
		}
		tokens = append(tokens, seg)
	}
	if len(tokens) == 0 {
		// Nothing specific enough to match; give the benefit of the doubt.
		return true
	}
	for _, m := range models {
		for _, tok := range tokens {
			if m.References(tok) || mentionsType(m, tok) {
				return true
			}
		}
	}
	return false
}

func mentionsType(m *workflow.Model, token string) bool {
	found := false
	m.Walk(func(a *workflow.Activity) {
		if strings.Contains(a.Type, token) {
			found = true
		}
	})
	return found
}

// normalizeVersion strips UiPath's bracket pinning syntax ("[22.10.3]").
func normalizeVersion(v string) string {
	return strings.Trim(strings.TrimSpace(v), "[]")
}
