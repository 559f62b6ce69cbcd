package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.SchemaVersion != "1.0" {
		t.Errorf("schemaVersion = %q", cfg.SchemaVersion)
	}
	if cfg.Paths.OutputDir != ".rpareview" {
		t.Errorf("outputDir = %q", cfg.Paths.OutputDir)
	}
	if cfg.Analysis.WorkflowExtension != ".xaml" {
		t.Errorf("workflow extension = %q", cfg.Analysis.WorkflowExtension)
	}
	if cfg.Analysis.MaxActivities != 120 || cfg.Analysis.MaxNesting != 3 {
		t.Errorf("thresholds = %+v", cfg.Analysis)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestResolveMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
	  "app": {"name": "Custom Reviewer"},
	  "analysis": {"max_activities": 50}
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, cfgPath, err := Resolve(Flags{ConfigPath: path})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfgPath != path {
		t.Errorf("config path = %q", cfgPath)
	}
	if cfg.App.Name != "Custom Reviewer" {
		t.Errorf("app name = %q", cfg.App.Name)
	}
	if cfg.Analysis.MaxActivities != 50 {
		t.Errorf("max_activities = %d, want override 50", cfg.Analysis.MaxActivities)
	}
	// Untouched fields come from the compiled-in defaults.
	if cfg.Analysis.MaxNesting != 3 || cfg.Paths.OutputDir != ".rpareview" {
		t.Errorf("defaults not merged: %+v", cfg)
	}
	if len(cfg.Analysis.VariableTypePrefixes) == 0 {
		t.Error("variable type prefixes must fall back to defaults")
	}
}

func TestResolveRejectsBadSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"schemaVersion":"2.0"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Resolve(Flags{ConfigPath: path}); err == nil {
		t.Fatal("expected schema version error")
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	root := t.TempDir()
	dir := filepath.Join(root, cfg.Paths.OutputDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	body := "max_nesting: 5\nscaffold_files:\n  - Main.xaml\nmax_activities: -1\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg.ApplyOverrides(root)
	if cfg.Analysis.MaxNesting != 5 {
		t.Errorf("max_nesting = %d, want 5", cfg.Analysis.MaxNesting)
	}
	if !reflect.DeepEqual(cfg.Analysis.ScaffoldFiles, []string{"Main.xaml"}) {
		t.Errorf("scaffold_files = %v", cfg.Analysis.ScaffoldFiles)
	}
	// Non-positive integers never replace a threshold.
	if cfg.Analysis.MaxActivities != 120 {
		t.Errorf("max_activities = %d, want default 120", cfg.Analysis.MaxActivities)
	}
}

func TestApplyOverridesMissingFile(t *testing.T) {
	cfg := Default()
	want := cfg.Analysis.MaxNesting
	cfg.ApplyOverrides(t.TempDir())
	if cfg.Analysis.MaxNesting != want {
		t.Error("missing override file must leave config untouched")
	}
}

func TestLoadGate(t *testing.T) {
	cfg := Default()
	root := t.TempDir()
	dir := filepath.Join(root, cfg.Paths.OutputDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	body := "min_percentage: 80\nfail_on_fail: false\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	gate, err := cfg.LoadGate(root)
	if err != nil {
		t.Fatalf("load gate: %v", err)
	}
	if gate.MinPercentage == nil || *gate.MinPercentage != 80 {
		t.Errorf("min_percentage = %v", gate.MinPercentage)
	}
	if gate.FailOnFail == nil || *gate.FailOnFail {
		t.Errorf("fail_on_fail = %v", gate.FailOnFail)
	}
	if gate.MaxFail != nil {
		t.Errorf("max_fail should be unset, got %v", *gate.MaxFail)
	}
}

func TestLoadGateMissing(t *testing.T) {
	cfg := Default()
	gate, err := cfg.LoadGate(t.TempDir())
	if err != nil {
		t.Fatalf("load gate: %v", err)
	}
	if gate.MinPercentage != nil || gate.MaxFail != nil || gate.FailOnFail != nil {
		t.Errorf("gate = %+v, want zero value", gate)
	}
}
