package rules

import (
	"regexp"
	"strings"

	"github.com/kasunvimukthi/RPA-Reviewer/internal/workflow"
)

var (
	// Embedded literal assignment inside an expression, e.g.
	// [config("Password") = "hunter2"].
	literalSecretPattern = regexp.MustCompile(`(?i)(password|secret|apikey|token)[^"\[]*"[^"]+"`)
	urlPattern           = regexp.MustCompile(`https?://[^\s"<>]+`)
)

func securityCheckpoints() []Checkpoint {
	return []Checkpoint{
		{
			ID:       "5.1",
			Question: "Is hardcoding of credentials avoided?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				var offenders []string
				m.Walk(func(a *workflow.Activity) {
					for key, value := range a.Attrs {
						if value == "" {
							continue
						}
						if credentialAttribute(key, ctx.Analysis.CredentialAttributes) && isLiteral(value) {
							offenders = append(offenders, a.Label()+" ("+key+")")
							continue
						}
						if literalSecretPattern.MatchString(value) {
							offenders = append(offenders, a.Label()+" ("+key+")")
						}
					}
				})
				if len(offenders) > 0 {
					return Failf("credential literals in %s: %s", m.Name, truncate(offenders, 5))
				}
				return Pass("No hardcoded credentials detected.")
			},
		},
		{
			ID:       "5.2",
			Question: "Are endpoint URLs kept out of workflow logic?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				var offenders []string
				m.Walk(func(a *workflow.Activity) {
					for key, value := range a.Attrs {
						if namespaceValue(value) {
							continue
						}
						if urlPattern.MatchString(value) {
							offenders = append(offenders, a.Label()+" ("+key+")")
						}
					}
				})
				if len(offenders) > 0 {
					return Failf("hardcoded URLs in %s: %s", m.Name, truncate(offenders, 5))
				}
				return Pass("No hardcoded URLs detected.")
			},
		},
	}
}

func credentialAttribute(key string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(strings.ToLower(key), strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// isLiteral reports whether an attribute value is a plain literal rather
// than a bracketed expression.
func isLiteral(value string) bool {
	return !strings.HasPrefix(value, "[") && !strings.HasPrefix(value, "{")
}

// namespaceValue filters schema and assembly URIs that legitimately carry
// URLs.
func namespaceValue(value string) bool {
	return strings.Contains(value, "schemas.") ||
		strings.Contains(value, "clr-namespace") ||
		strings.Contains(value, "www.w3.org")
}
