package rules

import (
	"fmt"
	"strings"

	"github.com/kasunvimukthi/RPA-Reviewer/internal/workflow"
)

func readabilityCheckpoints() []Checkpoint {
	return []Checkpoint{
		{
			ID:       "4.1",
			Question: "Are comments or annotations provided?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				if len(m.Annotations) == 0 {
					return Failf("%s has no annotations or comments", m.Name)
				}
				return Pass(fmt.Sprintf("%d annotations found.", len(m.Annotations)))
			},
		},
		{
			ID:       "4.2",
			Question: "Are activities renamed from their default display names?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				defaults := 0
				m.Walk(func(a *workflow.Activity) {
					if a.IsProperty() || a.DisplayName == "" {
						return
					}
					if isDefaultDisplayName(a.DisplayName, a.Type) {
						defaults++
					}
				})
				if defaults > ctx.Analysis.MaxDefaultNames {
					return Failf("%s keeps %d default display names (max %d)", m.Name, defaults, ctx.Analysis.MaxDefaultNames)
				}
				return Pass("Activities carry meaningful display names.")
			},
		},
		{
			ID:       "4.3",
			Question: "Are disabled (commented-out) activities removed?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				var disabled []string
				m.Walk(func(a *workflow.Activity) {
					if a.Type == "CommentOut" {
						disabled = append(disabled, a.Label())
					}
				})
				if len(disabled) > 0 {
					return Failf("disabled activities in %s: %s", m.Name, truncate(disabled, 5))
				}
				return Pass("No disabled activities detected.")
			},
		},
	}
}

// isDefaultDisplayName reports whether name is the designer default for
// the activity type ("Assign", "Log Message" for LogMessage, ...).
func isDefaultDisplayName(name, typ string) bool {
	if name == typ {
		return true
	}
	return strings.ReplaceAll(name, " ", "") == typ
}
