package rules

import (
	"strings"

	"github.com/kasunvimukthi/RPA-Reviewer/internal/workflow"
)

func variableCheckpoints() []Checkpoint {
	return []Checkpoint{
		{
			ID:       "2.1",
			Question: "Do variables and arguments follow the naming standard (<type/direction>_<Name>, length limited)?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				if len(m.Variables) == 0 && len(m.Arguments) == 0 {
					return NA("Workflow declares no variables or arguments.")
				}
				var offenders []string
				for _, v := range m.Variables {
					if !validVariableName(v.Name, ctx) {
						offenders = append(offenders, v.Name)
					}
				}
				for _, a := range m.Arguments {
					if !validArgumentName(a.Name, a.Direction, ctx) {
						offenders = append(offenders, a.Name)
					}
				}
				if len(offenders) > 0 {
					return Failf("naming issues in %s: %s", m.Name, truncate(offenders, 5))
				}
				return Pass("Variables and arguments follow conventions.")
			},
		},
		{
			ID:       "2.2",
			Question: "Are unused variables removed?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				if len(m.Variables) == 0 {
					return NA("Workflow declares no variables.")
				}
				var unused []string
				for _, v := range m.Variables {
					if !m.References(v.Name) {
						unused = append(unused, v.Name)
					}
				}
				if len(unused) > 0 {
					return Failf("unused variables in %s: %s", m.Name, strings.Join(unused, ", "))
				}
				return Pass("No unused variables detected.")
			},
		},
	}
}

func validVariableName(name string, ctx *Context) bool {
	if len(name) >= ctx.Analysis.MaxNameLength {
		return false
	}
	prefix, rest, found := strings.Cut(name, "_")
	if !found || rest == "" {
		return false
	}
	if !hasPrefix(prefix, ctx.Analysis.VariableTypePrefixes) {
		return false
	}
	return rest[0] >= 'A' && rest[0] <= 'Z'
}

func validArgumentName(name string, dir workflow.Direction, ctx *Context) bool {
	if len(name) >= ctx.Analysis.MaxNameLength {
		return false
	}
	expected := map[workflow.Direction]string{
		workflow.In:    "in_",
		workflow.Out:   "out_",
		workflow.InOut: "io_",
	}[dir]
	if expected == "" {
		return false
	}
	return strings.HasPrefix(name, expected)
}

func hasPrefix(prefix string, allowed []string) bool {
	for _, p := range allowed {
		if prefix == p {
			return true
		}
	}
	return false
}
