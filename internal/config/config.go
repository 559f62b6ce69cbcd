package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the compiled-in configuration with optional overrides.
type Config struct {
	SchemaVersion string         `json:"schemaVersion"`
	App           AppConfig      `json:"app"`
	Paths         PathsConfig    `json:"paths"`
	Logging       LoggingConfig  `json:"logging"`
	Analysis      AnalysisConfig `json:"analysis"`
}

type AppConfig struct {
	Name    string `json:"name"`
	Channel string `json:"channel"`
}

type PathsConfig struct {
	ProjectRoot string `json:"projectRoot"`
	OutputDir   string `json:"outputDir"`
}

type LoggingConfig struct {
	Level string `json:"level"`
	JSON  bool   `json:"json"`
}

// AnalysisConfig holds the tunable thresholds and patterns the rule
// catalogue evaluates against.
type AnalysisConfig struct {
	WorkflowExtension     string   `json:"workflow_extension"`
	ScaffoldFiles         []string `json:"scaffold_files"`
	MaxActivities         int      `json:"max_activities"`
	MaxNesting            int      `json:"max_nesting"`
	MaxRootChildren       int      `json:"max_root_children"`
	MaxNameLength         int      `json:"max_name_length"`
	MaxDefaultNames       int      `json:"max_default_names"`
	VariableTypePrefixes  []string `json:"variable_type_prefixes"`
	InvokeActivities      []string `json:"invoke_activities"`
	LogActivities         []string `json:"log_activities"`
	DebugActivities       []string `json:"debug_activities"`
	InteractiveActivities []string `json:"interactive_activities"`
	CredentialAttributes  []string `json:"credential_attributes"`
}

// Gate is the optional CI gating configuration read from the project's
// .rpareview/config.yml. Pointer fields distinguish "unset" from zero.
type Gate struct {
	MinPercentage *float64 `yaml:"min_percentage"`
	MaxFail       *int     `yaml:"max_fail"`
	FailOnFail    *bool    `yaml:"fail_on_fail"`
}

type Flags struct {
	ConfigPath string
}

// Default returns the compiled-in defaults.
func Default() Config {
	return Config{
		SchemaVersion: "1.0",
		App: AppConfig{
			Name:    "RPA Reviewer",
			Channel: "release",
		},
		Paths: PathsConfig{
			ProjectRoot: ".",
			OutputDir:   ".rpareview",
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
		Analysis: AnalysisConfig{
			WorkflowExtension: ".xaml",
			ScaffoldFiles: []string{
				"Main.xaml",
				"MainStateMachine.xaml",
				"InitAllSettings.xaml",
			},
			MaxActivities:   120,
			MaxNesting:      3,
			MaxRootChildren: 10,
			MaxNameLength:   25,
			MaxDefaultNames: 5,
			VariableTypePrefixes: []string{
				"str", "int", "dt", "bool", "dbl",
			},
			InvokeActivities: []string{
				"InvokeWorkflowFile",
				"InvokeProcess",
			},
			LogActivities: []string{
				"LogMessage",
			},
			DebugActivities: []string{
				"WriteLine",
				"Breakpoint",
			},
			InteractiveActivities: []string{
				"MessageBox",
				"InputDialog",
			},
			CredentialAttributes: []string{
				"Password",
				"Secret",
				"ApiKey",
				"Token",
				"ConnectionString",
			},
		},
	}
}

// Load reads a JSON config from disk.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve applies defaults and optional overrides, then validates.
func Resolve(flags Flags) (Config, string, error) {
	cfg := Default()
	var cfgPath string

	if flags.ConfigPath != "" {
		loaded, err := Load(flags.ConfigPath)
		if err != nil {
			return Config{}, "", err
		}
		mergeConfigDefaults(&loaded, &cfg)
		cfg = loaded
		cfgPath = flags.ConfigPath
	}

	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = "1.0"
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, "", err
	}
	return cfg, cfgPath, nil
}

// Validate checks the resolved configuration for consistency.
func (c *Config) Validate() error {
	if c.SchemaVersion != "1.0" {
		return fmt.Errorf("unsupported schemaVersion: %s (expected 1.0)", c.SchemaVersion)
	}
	if c.Analysis.WorkflowExtension == "" {
		return fmt.Errorf("analysis.workflow_extension must not be empty")
	}
	return nil
}

func mergeConfigDefaults(cfg *Config, defaults *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = defaults.App.Name
	}
	if cfg.App.Channel == "" {
		cfg.App.Channel = defaults.App.Channel
	}
	if cfg.Paths.ProjectRoot == "" {
		cfg.Paths.ProjectRoot = defaults.Paths.ProjectRoot
	}
	if cfg.Paths.OutputDir == "" {
		cfg.Paths.OutputDir = defaults.Paths.OutputDir
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if cfg.Analysis.WorkflowExtension == "" {
		cfg.Analysis.WorkflowExtension = defaults.Analysis.WorkflowExtension
	}
	if len(cfg.Analysis.ScaffoldFiles) == 0 {
		cfg.Analysis.ScaffoldFiles = defaults.Analysis.ScaffoldFiles
	}
	if cfg.Analysis.MaxActivities == 0 {
		cfg.Analysis.MaxActivities = defaults.Analysis.MaxActivities
	}
	if cfg.Analysis.MaxNesting == 0 {
		cfg.Analysis.MaxNesting = defaults.Analysis.MaxNesting
	}
	if cfg.Analysis.MaxRootChildren == 0 {
		cfg.Analysis.MaxRootChildren = defaults.Analysis.MaxRootChildren
	}
	if cfg.Analysis.MaxNameLength == 0 {
		cfg.Analysis.MaxNameLength = defaults.Analysis.MaxNameLength
	}
	if cfg.Analysis.MaxDefaultNames == 0 {
		cfg.Analysis.MaxDefaultNames = defaults.Analysis.MaxDefaultNames
	}
	if len(cfg.Analysis.VariableTypePrefixes) == 0 {
		cfg.Analysis.VariableTypePrefixes = defaults.Analysis.VariableTypePrefixes
	}
	if len(cfg.Analysis.InvokeActivities) == 0 {
		cfg.Analysis.InvokeActivities = defaults.Analysis.InvokeActivities
	}
	if len(cfg.Analysis.LogActivities) == 0 {
		cfg.Analysis.LogActivities = defaults.Analysis.LogActivities
	}
	if len(cfg.Analysis.DebugActivities) == 0 {
		cfg.Analysis.DebugActivities = defaults.Analysis.DebugActivities
	}
	if len(cfg.Analysis.InteractiveActivities) == 0 {
		cfg.Analysis.InteractiveActivities = defaults.Analysis.InteractiveActivities
	}
	if len(cfg.Analysis.CredentialAttributes) == 0 {
		cfg.Analysis.CredentialAttributes = defaults.Analysis.CredentialAttributes
	}
}

// ApplyOverrides merges per-project overrides from <root>/<outputDir>/config.yml
// into the analysis section. Missing or unreadable override files are ignored.
func (c *Config) ApplyOverrides(projectRoot string) {
	path := filepath.Join(projectRoot, c.Paths.OutputDir, "config.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return
	}
	setStringSlice := func(key string, target *[]string) {
		if v, ok := raw[key]; ok {
			*target = toStringSlice(v)
		}
	}
	setInt := func(key string, target *int) {
		if v, ok := raw[key]; ok {
			if n, ok := v.(int); ok && n > 0 {
				*target = n
			}
		}
	}
	setStringSlice("scaffold_files", &c.Analysis.ScaffoldFiles)
	setStringSlice("variable_type_prefixes", &c.Analysis.VariableTypePrefixes)
	setStringSlice("invoke_activities", &c.Analysis.InvokeActivities)
	setStringSlice("log_activities", &c.Analysis.LogActivities)
	setStringSlice("debug_activities", &c.Analysis.DebugActivities)
	setStringSlice("interactive_activities", &c.Analysis.InteractiveActivities)
	setStringSlice("credential_attributes", &c.Analysis.CredentialAttributes)
	setInt("max_activities", &c.Analysis.MaxActivities)
	setInt("max_nesting", &c.Analysis.MaxNesting)
	setInt("max_root_children", &c.Analysis.MaxRootChildren)
	setInt("max_name_length", &c.Analysis.MaxNameLength)
	setInt("max_default_names", &c.Analysis.MaxDefaultNames)
}

// LoadGate reads the optional gating section from <root>/<outputDir>/config.yml.
// A missing file yields a zero Gate, which never fails the run.
func (c *Config) LoadGate(projectRoot string) (Gate, error) {
	path := filepath.Join(projectRoot, c.Paths.OutputDir, "config.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Gate{}, nil
		}
		return Gate{}, err
	}
	var g Gate
	if err := yaml.Unmarshal(data, &g); err != nil {
		return Gate{}, fmt.Errorf("failed to parse gate config %s: %w", path, err)
	}
	return g, nil
}

func toStringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
