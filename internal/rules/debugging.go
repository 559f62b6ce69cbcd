package rules

import (
	"github.com/kasunvimukthi/RPA-Reviewer/internal/workflow"
)

func debuggingCheckpoints() []Checkpoint {
	return []Checkpoint{
		{
			ID:       "6.1",
			Question: "Are breakpoints and debug activities removed?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				leftovers := findByTypes(m, ctx.Analysis.DebugActivities)
				if len(leftovers) > 0 {
					return Failf("debug activities in %s: %s", m.Name, truncate(labels(leftovers), 5))
				}
				return Pass("No debug activities found.")
			},
		},
		{
			ID:       "6.2",
			Question: "Are interactive dialogs removed from unattended flows?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				dialogs := findByTypes(m, ctx.Analysis.InteractiveActivities)
				if len(dialogs) > 0 {
					return Failf("interactive activities in %s: %s", m.Name, truncate(labels(dialogs), 5))
				}
				return Pass("No interactive activities found.")
			},
		},
	}
}

func labels(activities []*workflow.Activity) []string {
	out := make([]string, 0, len(activities))
	for _, a := range activities {
		out = append(out, a.Label())
	}
	return out
}
