// Package workflow parses XAML workflow files into a structural model the
// rule catalogue evaluates against.
package workflow

import "strings"

// Direction of a workflow argument.
type Direction string

const (
	In    Direction = "In"
	Out   Direction = "Out"
	InOut Direction = "InOut"
)

// Variable is one declared workflow variable.
type Variable struct {
	Name  string
	Type  string
	Scope string // activity type of the scope that declares it
}

// Argument is one declared workflow argument.
type Argument struct {
	Name      string
	Direction Direction
	Type      string
}

// Activity is one node of the activity tree. Unknown and custom activity
// types are carried opaquely; property elements (XAML "Element.Property"
// tags) appear as nodes whose Type contains a dot.
type Activity struct {
	Type        string
	DisplayName string
	Attrs       map[string]string
	Text        string
	Children    []*Activity
}

// Region is one exception-handling block: the guarded subtree and its
// catch handlers.
type Region struct {
	Try        *Activity
	Handlers   []*Activity
	HasRethrow bool
}

// Model is the parsed structural view of one workflow file.
type Model struct {
	Name        string // base file name
	Path        string // project-relative path
	Root        *Activity
	Variables   []Variable
	Arguments   []Argument
	Regions     []Region
	Annotations []string
	LogNodes    []*Activity
}

// Walk visits every activity in the tree, root first.
func (m *Model) Walk(fn func(*Activity)) {
	if m.Root == nil {
		return
	}
	walk(m.Root, fn)
}

func walk(a *Activity, fn func(*Activity)) {
	fn(a)
	for _, c := range a.Children {
		walk(c, fn)
	}
}

// IsProperty reports whether the node is a XAML property element rather
// than a real activity.
func (a *Activity) IsProperty() bool {
	return strings.Contains(a.Type, ".")
}

// Label names the activity for report comments, preferring its display name.
func (a *Activity) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Type
}

// CountType counts activities of the given type in the whole tree.
func (m *Model) CountType(t string) int {
	n := 0
	m.Walk(func(a *Activity) {
		if a.Type == t {
			n++
		}
	})
	return n
}

// ActivityCount counts real activities, excluding property elements.
func (m *Model) ActivityCount() int {
	n := 0
	m.Walk(func(a *Activity) {
		if !a.IsProperty() {
			n++
		}
	})
	return n
}

// References reports whether any attribute value or expression text in the
// tree mentions name.
func (m *Model) References(name string) bool {
	found := false
	m.Walk(func(a *Activity) {
		if found {
			return
		}
		if strings.Contains(a.Text, name) {
			found = true
			return
		}
		for _, v := range a.Attrs {
			if strings.Contains(v, name) {
				found = true
				return
			}
		}
	})
	return found
}

// Contains reports whether the subtree rooted at a holds an activity of
// the given type.
func Contains(a *Activity, typ string) bool {
	if a == nil {
		return false
	}
	if a.Type == typ {
		return true
	}
	for _, c := range a.Children {
		if Contains(c, typ) {
			return true
		}
	}
	return false
}

// ContainsAny reports whether the subtree holds any of the given types.
func ContainsAny(a *Activity, types []string) bool {
	for _, t := range types {
		if Contains(a, t) {
			return true
		}
	}
	return false
}
