// Package rules holds the fixed catalogue of best-practice checkpoints,
// grouped into seven areas. Every evaluation function is pure and total:
// it never fails for a well-formed model and returns NotApplicable when
// its precondition does not hold.
package rules

import (
	"fmt"
	"strings"

	"github.com/kasunvimukthi/RPA-Reviewer/internal/config"
	"github.com/kasunvimukthi/RPA-Reviewer/internal/manifest"
	"github.com/kasunvimukthi/RPA-Reviewer/internal/workflow"
)

// Status of one checkpoint verdict.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusNA   Status = "N/A"
)

// Verdict is the outcome of one checkpoint for one subject.
type Verdict struct {
	Status  Status
	Comment string
}

func Pass(comment string) Verdict { return Verdict{Status: StatusPass, Comment: comment} }

func Failf(format string, args ...interface{}) Verdict {
	return Verdict{Status: StatusFail, Comment: fmt.Sprintf(format, args...)}
}

func NA(comment string) Verdict { return Verdict{Status: StatusNA, Comment: comment} }

// Scope declares what a checkpoint evaluates against.
type Scope int

const (
	WorkflowScope Scope = iota
	ProjectScope
)

// Context carries the project-wide inputs a checkpoint may consult.
type Context struct {
	Manifest *manifest.Manifest
	Models   []*workflow.Model
	Analysis config.AnalysisConfig
}

// Checkpoint is one atomic rule. For WorkflowScope checkpoints the model
// argument is the subject; for ProjectScope it is nil and the subject is
// the project as a whole.
type Checkpoint struct {
	ID       string
	Question string
	Scope    Scope
	Eval     func(m *workflow.Model, ctx *Context) Verdict
}

// Area is a named grouping of checkpoints.
type Area struct {
	Name        string
	Checkpoints []Checkpoint
}

// Area names, in declaration order. This order is part of the report
// contract.
const (
	AreaStructure    = "Workflow Design & Structure"
	AreaVariables    = "Variables & Arguments"
	AreaErrors       = "Error Handling & Exception Management"
	AreaReadability  = "Readability & Maintainability"
	AreaSecurity     = "Security & Credentials"
	AreaDebugging    = "Testing & Debugging"
	AreaDependencies = "Dependencies & Settings"
)

// Catalogue returns the full checkpoint table. Checkpoints are defined at
// process start and never mutated.
func Catalogue() []Area {
	return []Area{
		{Name: AreaStructure, Checkpoints: structureCheckpoints()},
		{Name: AreaVariables, Checkpoints: variableCheckpoints()},
		{Name: AreaErrors, Checkpoints: errorHandlingCheckpoints()},
		{Name: AreaReadability, Checkpoints: readabilityCheckpoints()},
		{Name: AreaSecurity, Checkpoints: securityCheckpoints()},
		{Name: AreaDebugging, Checkpoints: debuggingCheckpoints()},
		{Name: AreaDependencies, Checkpoints: dependencyCheckpoints()},
	}
}

// AreaNames returns the declared area names in order.
func AreaNames() []string {
	names := make([]string, 0, 7)
	for _, a := range Catalogue() {
		names = append(names, a.Name)
	}
	return names
}

func truncate(items []string, max int) string {
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:max], ", ") + fmt.Sprintf(" (and %d more)", len(items)-max)
}
