package engine

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kasunvimukthi/RPA-Reviewer/internal/config"
	"github.com/kasunvimukthi/RPA-Reviewer/internal/manifest"
	"github.com/kasunvimukthi/RPA-Reviewer/internal/rules"
	"github.com/kasunvimukthi/RPA-Reviewer/internal/workflow"
)

const xamlHeader = `<Activity xmlns="http://schemas.microsoft.com/netfx/2009/xaml/activities"
  xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml"
  xmlns:ui="http://schemas.uipath.com/workflow/activities"
  xmlns:sap2010="http://schemas.microsoft.com/netfx/2010/xaml/activities/presentation">`

func writeProject(t *testing.T, manifestJSON string, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	if manifestJSON != "" {
		if err := os.WriteFile(filepath.Join(root, "project.json"), []byte(manifestJSON), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(xamlHeader+body+`</Activity>`), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newTestEngine() *Engine {
	return New(config.Default(), nil)
}

func analyze(t *testing.T, root string, opts Options) *Report {
	t.Helper()
	rep, err := newTestEngine().Analyze(context.Background(), root, opts)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return rep
}

func areaByName(t *testing.T, rep *Report, name string) AreaReport {
	t.Helper()
	for _, a := range rep.Areas {
		if a.Name == name {
			return a
		}
	}
	t.Fatalf("area %q missing from report", name)
	return AreaReport{}
}

func countStatus(a AreaReport, status string) int {
	n := 0
	for _, cp := range a.Checkpoints {
		if cp.Status == status {
			n++
		}
	}
	return n
}

func TestEmptyProject(t *testing.T) {
	root := writeProject(t, `{"name":"Empty","main":"Main.xaml"}`, nil)
	rep := analyze(t, root, Options{})

	if len(rep.Areas) != 7 {
		t.Fatalf("areas = %d, want 7", len(rep.Areas))
	}
	for _, a := range rep.Areas {
		if len(a.Checkpoints) != 0 {
			t.Errorf("area %q has %d checkpoints, want 0", a.Name, len(a.Checkpoints))
		}
	}
	if rep.Stats.PassCount != 0 || rep.Stats.FailCount != 0 {
		t.Errorf("stats = %+v", rep.Stats)
	}
	if rep.Stats.OverallPercentage != "N/A" {
		t.Errorf("percentage = %q, want N/A", rep.Stats.OverallPercentage)
	}
}

func TestUnusedVariablesAndMissingGuard(t *testing.T) {
	root := writeProject(t, `{"name":"Demo","main":"Process.xaml","targetFramework":"Windows"}`, map[string]string{
		"Process.xaml": `<Sequence sap2010:Annotation.Text="Processes input.">
		  <Sequence.Variables>
		    <Variable x:TypeArguments="x:String" Name="str_VendorName" />
		    <Variable x:TypeArguments="x:Int32" Name="int_Count" />
		    <Variable x:TypeArguments="x:Boolean" Name="bool_Done" />
		  </Sequence.Variables>
		  <ui:InvokeWorkflowFile DisplayName="Run step" WorkflowFileName="Step.xaml" />
		</Sequence>`,
	})
	rep := analyze(t, root, Options{})

	vars := areaByName(t, rep, rules.AreaVariables)
	if got := countStatus(vars, "FAIL"); got != 1 {
		t.Fatalf("variables area FAIL count = %d, want 1", got)
	}
	var failComment string
	for _, cp := range vars.Checkpoints {
		if cp.Status == "FAIL" {
			failComment = cp.Comment
		}
	}
	for _, name := range []string{"str_VendorName", "int_Count", "bool_Done"} {
		if !strings.Contains(failComment, name) {
			t.Errorf("fail comment missing %s: %q", name, failComment)
		}
	}

	errs := areaByName(t, rep, rules.AreaErrors)
	if got := countStatus(errs, "FAIL"); got != 1 {
		t.Errorf("error handling FAIL count = %d, want 1", got)
	}
}

func TestInactiveAreaOmitted(t *testing.T) {
	root := writeProject(t, `{"name":"Demo","main":"Process.xaml"}`, map[string]string{
		"Process.xaml": `<Sequence><Assign /></Sequence>`,
	})
	active := []string{}
	for _, name := range rules.AreaNames() {
		if name != rules.AreaSecurity {
			active = append(active, name)
		}
	}
	rep := analyze(t, root, Options{ActiveAreas: active})

	if len(rep.Areas) != 6 {
		t.Fatalf("areas = %d, want 6", len(rep.Areas))
	}
	for _, a := range rep.Areas {
		if a.Name == rules.AreaSecurity {
			t.Fatal("security area must be absent entirely")
		}
	}
}

func TestProjectScopedEvaluatedOnce(t *testing.T) {
	manifestJSON := `{"name":"Demo","main":"A.xaml","targetFramework":"Windows",
	  "dependencies":{"FooBar.Widgets":"[1.2.3]"}}`
	root := writeProject(t, manifestJSON, map[string]string{
		"A.xaml": `<Sequence><Assign /></Sequence>`,
		"B.xaml": `<Sequence><Assign /></Sequence>`,
	})
	rep := analyze(t, root, Options{})

	deps := areaByName(t, rep, rules.AreaDependencies)
	fails := 0
	for _, cp := range deps.Checkpoints {
		if cp.Status == "FAIL" && strings.Contains(cp.Comment, "FooBar.Widgets") {
			fails++
		}
	}
	if fails != 1 {
		t.Errorf("unused dependency FAIL count = %d, want exactly 1", fails)
	}
	// Workflow-scoped areas evaluate per subject; project-scoped only once.
	structure := areaByName(t, rep, rules.AreaStructure)
	if len(structure.Checkpoints)%2 != 0 {
		t.Errorf("structure checkpoints = %d, want one per checkpoint per workflow", len(structure.Checkpoints))
	}
	if len(deps.Checkpoints) != 3 {
		t.Errorf("dependency checkpoints = %d, want 3", len(deps.Checkpoints))
	}
}

func TestScaffoldExclusion(t *testing.T) {
	manifestJSON := `{"name":"Demo","main":"Main.xaml"}`
	files := map[string]string{
		"Main.xaml":            `<Sequence><Assign /></Sequence>`,
		"InitAllSettings.xaml": `<Sequence><Assign /></Sequence>`,
		"Process.xaml":         `<Sequence><Assign /></Sequence>`,
	}

	root := writeProject(t, manifestJSON, files)
	without := analyze(t, root, Options{IncludeFramework: false})
	with := analyze(t, root, Options{IncludeFramework: true})

	structureWithout := areaByName(t, without, rules.AreaStructure)
	structureWith := areaByName(t, with, rules.AreaStructure)
	perCheckpointWithout := len(structureWithout.Checkpoints) / 3
	perCheckpointWith := len(structureWith.Checkpoints) / 3
	if perCheckpointWithout != 1 {
		t.Errorf("subjects without framework = %d, want 1", perCheckpointWithout)
	}
	if perCheckpointWith != 3 {
		t.Errorf("subjects with framework = %d, want 3", perCheckpointWith)
	}
}

func TestIdempotentReports(t *testing.T) {
	manifestJSON := `{"name":"Demo","main":"A.xaml","targetFramework":"Windows",
	  "dependencies":{"UiPath.Excel.Activities":"[2.11.4]"}}`
	root := writeProject(t, manifestJSON, map[string]string{
		"A.xaml":       `<Sequence><ExcelApplicationScope /></Sequence>`,
		"sub/B.xaml":   `<Sequence><WriteLine Text="x" /></Sequence>`,
		"sub/C.xaml":   `<Sequence><Assign /></Sequence>`,
		"another.xaml": `<Sequence><Assign /></Sequence>`,
	})

	first, err := json.Marshal(analyze(t, root, Options{}))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		next, err := json.Marshal(analyze(t, root, Options{}))
		if err != nil {
			t.Fatal(err)
		}
		if string(first) != string(next) {
			t.Fatalf("report differs between runs:\n%s\n%s", first, next)
		}
	}
}

func TestStatsInvariant(t *testing.T) {
	manifestJSON := `{"name":"Demo","main":"A.xaml"}`
	root := writeProject(t, manifestJSON, map[string]string{
		"A.xaml":       `<Sequence><WriteLine Text="x" /></Sequence>`,
		"badname.xaml": `<Sequence><Assign /></Sequence>`,
	})
	rep := analyze(t, root, Options{})

	pass, fail := 0, 0
	for _, a := range rep.Areas {
		pass += countStatus(a, "PASS")
		fail += countStatus(a, "FAIL")
	}
	if pass != rep.Stats.PassCount || fail != rep.Stats.FailCount {
		t.Errorf("stats %+v, recounted pass=%d fail=%d", rep.Stats, pass, fail)
	}
	if rep.Stats.FailCount == 0 {
		t.Error("fixture should produce failures")
	}
}

func TestUnparsableFileDegrades(t *testing.T) {
	manifestJSON := `{"name":"Demo","main":"Good.xaml"}`
	root := writeProject(t, manifestJSON, map[string]string{
		"Good.xaml": `<Sequence><Assign /></Sequence>`,
	})
	if err := os.WriteFile(filepath.Join(root, "Broken.xaml"), []byte("<Activity><Sequence></Activity>"), 0o644); err != nil {
		t.Fatal(err)
	}

	rep := analyze(t, root, Options{})
	structure := areaByName(t, rep, rules.AreaStructure)
	// Two subjects, three checkpoints: the broken file contributes N/A
	// results with the parse error attached, the good one real verdicts.
	if len(structure.Checkpoints) != 6 {
		t.Fatalf("structure checkpoints = %d, want 6", len(structure.Checkpoints))
	}
	degraded := 0
	for _, cp := range structure.Checkpoints {
		if cp.Status == "N/A" && strings.Contains(cp.Comment, "could not be analyzed") {
			degraded++
		}
	}
	if degraded != 3 {
		t.Errorf("degraded results = %d, want 3", degraded)
	}
}

func TestFatalErrors(t *testing.T) {
	t.Run("missing_manifest", func(t *testing.T) {
		root := t.TempDir()
		_, err := newTestEngine().Analyze(context.Background(), root, Options{})
		var merr *manifest.Error
		if !errors.As(err, &merr) {
			t.Fatalf("expected *manifest.Error, got %v", err)
		}
	})
	t.Run("unresolvable_main", func(t *testing.T) {
		root := writeProject(t, `{"name":"Demo","main":"Ghost.xaml"}`, map[string]string{
			"Other.xaml": `<Sequence />`,
		})
		_, err := newTestEngine().Analyze(context.Background(), root, Options{})
		var merr *manifest.Error
		if !errors.As(err, &merr) {
			t.Fatalf("expected *manifest.Error, got %v", err)
		}
	})
	t.Run("root_not_directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file.txt")
		if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		// The manifest read fails first on a non-directory root.
		_, err := newTestEngine().Analyze(context.Background(), file, Options{})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestEvaluatorPanicBecomesFail(t *testing.T) {
	cp := rules.Checkpoint{
		ID:       "x.1",
		Question: "does it explode?",
		Eval: func(_ *workflow.Model, _ *rules.Context) rules.Verdict {
			panic("catalogue bug")
		},
	}
	v := safeEval(cp, nil, nil)
	if v.Status != rules.StatusFail {
		t.Fatalf("status = %s, want FAIL", v.Status)
	}
	if !strings.Contains(v.Comment, "catalogue bug") {
		t.Errorf("comment = %q", v.Comment)
	}
}

func TestPercentageRendering(t *testing.T) {
	cases := []struct {
		pass, fail int
		want       string
	}{
		{0, 0, "N/A"},
		{1, 0, "100.00"},
		{0, 1, "0.00"},
		{2, 1, "66.67"},
		{1, 2, "33.33"},
		{1, 1, "50.00"},
	}
	for _, tc := range cases {
		if got := percentage(tc.pass, tc.fail); got != tc.want {
			t.Errorf("percentage(%d, %d) = %q, want %q", tc.pass, tc.fail, got, tc.want)
		}
	}
}
