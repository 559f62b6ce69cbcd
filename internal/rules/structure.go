package rules

import (
	"regexp"
	"strings"

	"github.com/kasunvimukthi/RPA-Reviewer/internal/workflow"
)

// PascalCase, with underscore-separated PascalCase segments allowed.
var workflowNamePattern = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*(?:_[A-Z][a-zA-Z0-9]*)*$`)

func structureCheckpoints() []Checkpoint {
	return []Checkpoint{
		{
			ID:       "1.1",
			Question: "Are workflows modular and reasonably sized?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				count := m.ActivityCount()
				if count > ctx.Analysis.MaxActivities {
					return Failf("%s contains %d activities (max %d); split it into reusable workflows", m.Name, count, ctx.Analysis.MaxActivities)
				}
				return Pass("Workflow appears modular.")
			},
		},
		{
			ID:       "1.2",
			Question: "Are nested sequences and conditionals kept shallow?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				ifs := m.CountType("If")
				seqs := m.CountType("Sequence")
				rootKids := directChildren(m.Root)
				if ifs > ctx.Analysis.MaxNesting || seqs > ctx.Analysis.MaxNesting || rootKids > ctx.Analysis.MaxRootChildren {
					return Failf("%s (If: %d, Sequence: %d, root children: %d)", m.Name, ifs, seqs, rootKids)
				}
				return Pass("Conditional logic is kept simple.")
			},
		},
		{
			ID:       "1.3",
			Question: "Do workflow file names follow the naming convention?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				base := strings.TrimSuffix(m.Name, ctx.Analysis.WorkflowExtension)
				if !workflowNamePattern.MatchString(base) {
					return Failf("invalid workflow name: %s", m.Name)
				}
				return Pass("Naming convention followed.")
			},
		},
	}
}

// directChildren counts real activities directly under the top-level
// activity, looking through the XAML document wrapper and property nodes.
func directChildren(root *workflow.Activity) int {
	top := topActivity(root)
	if top == nil {
		return 0
	}
	n := 0
	for _, c := range top.Children {
		if !c.IsProperty() {
			n++
		}
	}
	return n
}

func topActivity(root *workflow.Activity) *workflow.Activity {
	if root == nil {
		return nil
	}
	if root.Type == "Activity" {
		for _, c := range root.Children {
			if !c.IsProperty() {
				return c
			}
		}
		return nil
	}
	return root
}
