package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kasunvimukthi/RPA-Reviewer/internal/workflow"
)

var (
	// Matches [New Some.ExceptionType("message" + var + "tail")] expressions.
	throwPattern   = regexp.MustCompile(`New\s+([A-Za-z0-9_.]+)\((.*)\)`)
	dynamicPattern = regexp.MustCompile(`\+[^+]*\+`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

func errorHandlingCheckpoints() []Checkpoint {
	return []Checkpoint{
		{
			ID:       "3.1",
			Question: "Are invocations guarded by Try-Catch blocks?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				invokes := findByTypes(m, ctx.Analysis.InvokeActivities)
				if len(invokes) == 0 {
					return NA("Workflow contains no invocation activities.")
				}
				covered := guardedActivities(m)
				var uncovered []string
				for _, a := range invokes {
					if !covered[a] {
						uncovered = append(uncovered, a.Label())
					}
				}
				if len(uncovered) > 0 {
					return Failf("unguarded invocations in %s: %s", m.Name, truncate(uncovered, 5))
				}
				return Pass("All invocations are inside Try-Catch blocks.")
			},
		},
		{
			ID:       "3.2",
			Question: "Are specific Business / System exceptions thrown?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				business, system := exceptionInventory(m)
				if len(business) == 0 && len(system) == 0 {
					return NA("No explicit Business or System exceptions detected.")
				}
				var parts []string
				if len(business) > 0 {
					parts = append(parts, "Business: "+strings.Join(business, "; "))
				}
				if len(system) > 0 {
					parts = append(parts, "System: "+strings.Join(system, "; "))
				}
				return Pass(strings.Join(parts, " | "))
			},
		},
		{
			ID:       "3.3",
			Question: "Does every catch handler rethrow or log?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				if len(m.Regions) == 0 {
					return NA("Workflow contains no Try-Catch blocks.")
				}
				var silent []string
				for i, r := range m.Regions {
					for _, h := range r.Handlers {
						if workflow.Contains(h, "Rethrow") || workflow.Contains(h, "Throw") {
							continue
						}
						if workflow.ContainsAny(h, ctx.Analysis.LogActivities) {
							continue
						}
						silent = append(silent, handlerLabel(h, i))
					}
				}
				if len(silent) > 0 {
					return Failf("silent catch handlers in %s: %s", m.Name, truncate(silent, 5))
				}
				return Pass("All catch handlers rethrow or log.")
			},
		},
		{
			ID:       "3.4",
			Question: "Is failure logging implemented inside catch blocks?",
			Scope:    WorkflowScope,
			Eval: func(m *workflow.Model, ctx *Context) Verdict {
				if len(m.Regions) == 0 {
					return NA("Workflow contains no Try-Catch blocks.")
				}
				var unlogged []string
				for i, r := range m.Regions {
					for _, h := range r.Handlers {
						if !workflow.ContainsAny(h, ctx.Analysis.LogActivities) {
							unlogged = append(unlogged, handlerLabel(h, i))
						}
					}
				}
				if len(unlogged) > 0 {
					return Failf("catch handlers without logging in %s: %s", m.Name, truncate(unlogged, 5))
				}
				return Pass("Catch handlers log failures.")
			},
		},
	}
}

func findByTypes(m *workflow.Model, types []string) []*workflow.Activity {
	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []*workflow.Activity
	m.Walk(func(a *workflow.Activity) {
		if want[a.Type] {
			out = append(out, a)
		}
	})
	return out
}

// guardedActivities returns the set of activities enclosed by any
// exception-handling region (guarded subtree or handler).
func guardedActivities(m *workflow.Model) map[*workflow.Activity]bool {
	covered := make(map[*workflow.Activity]bool)
	mark := func(a *workflow.Activity) {
		if a == nil {
			return
		}
		var rec func(*workflow.Activity)
		rec = func(n *workflow.Activity) {
			covered[n] = true
			for _, c := range n.Children {
				rec(c)
			}
		}
		rec(a)
	}
	for _, r := range m.Regions {
		mark(r.Try)
		for _, h := range r.Handlers {
			mark(h)
		}
	}
	return covered
}

// exceptionInventory extracts distinct thrown exception types and their
// messages, collapsing variable concatenations into a <dynamic> marker.
func exceptionInventory(m *workflow.Model) (business, system []string) {
	bset := map[string]bool{}
	sset := map[string]bool{}
	m.Walk(func(a *workflow.Activity) {
		if a.Type != "Throw" && a.Type != "Rethrow" {
			return
		}
		expr := a.Attrs["Exception"]
		match := throwPattern.FindStringSubmatch(expr)
		if match == nil {
			return
		}
		excType := match[1]
		msg := strings.ReplaceAll(match[2], `"`, "")
		msg = dynamicPattern.ReplaceAllString(msg, " <dynamic> ")
		msg = strings.TrimSpace(spacePattern.ReplaceAllString(msg, " "))
		entry := fmt.Sprintf("%s: %s", excType, msg)
		if strings.HasSuffix(excType, "BusinessRuleException") {
			bset[entry] = true
		} else {
			sset[entry] = true
		}
	})
	return sortedKeys(bset), sortedKeys(sset)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func handlerLabel(h *workflow.Activity, region int) string {
	if t, ok := h.Attrs["TypeArguments"]; ok && t != "" {
		return t
	}
	return fmt.Sprintf("catch #%d", region+1)
}
