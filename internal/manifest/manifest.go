// Package manifest loads and validates the project descriptor
// (project.json) at the root of an RPA project.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kasunvimukthi/RPA-Reviewer/internal/support"
)

const FileName = "project.json"

// schema captures the structural contract of project.json. Fields beyond
// these are permitted and ignored.
const schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "main"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "main": {"type": "string", "minLength": 1},
    "targetFramework": {"type": "string"},
    "dependencies": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  }
}`

var compiled = mustCompile()

func mustCompile() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource("project.schema.json", strings.NewReader(schema)); err != nil {
		panic(err)
	}
	return c.MustCompile("project.schema.json")
}

// Dependency is one declared package reference.
type Dependency struct {
	Name    string
	Version string
}

// Manifest is the typed, immutable view of project.json.
type Manifest struct {
	Name            string
	Main            string
	TargetFramework string
	Dependencies    []Dependency
}

// Error reports an unreadable or malformed manifest. It is fatal for the
// whole analysis run.
type Error struct {
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("manifest %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("manifest %s: %s", e.Path, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

type rawManifest struct {
	Name            string            `json:"name"`
	Main            string            `json:"main"`
	TargetFramework string            `json:"targetFramework"`
	Dependencies    map[string]string `json:"dependencies"`
}

// Load reads and validates <root>/project.json.
func Load(root string) (*Manifest, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Reason: "cannot read", Err: err}
	}
	data = support.StripBOM(data)

	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, &Error{Path: path, Reason: "invalid JSON", Err: err}
	}
	if err := compiled.Validate(generic); err != nil {
		return nil, &Error{Path: path, Reason: "schema violation", Err: err}
	}

	var raw rawManifest
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, &Error{Path: path, Reason: "invalid JSON", Err: err}
	}

	m := &Manifest{
		Name:            raw.Name,
		Main:            raw.Main,
		TargetFramework: raw.TargetFramework,
	}
	for name, version := range raw.Dependencies {
		m.Dependencies = append(m.Dependencies, Dependency{Name: name, Version: version})
	}
	sort.Slice(m.Dependencies, func(i, j int) bool {
		return m.Dependencies[i].Name < m.Dependencies[j].Name
	})
	return m, nil
}
