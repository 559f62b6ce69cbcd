package workflow

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/kasunvimukthi/RPA-Reviewer/internal/support"
)

// ParseError reports structurally invalid markup in one workflow file.
// It degrades only that file's results, never the whole run.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []xmlNode  `xml:",any"`
	Text    string     `xml:",chardata"`
}

// Tags that carry designer or compiler metadata, not workflow logic.
var skipPrefixes = []string{
	"VisualBasic.",
	"TextExpression.",
	"WorkflowViewState",
}

var logActivityTypes = map[string]bool{
	"LogMessage": true,
	"WriteLine":  true,
}

// Parse converts raw XAML bytes into a Model. It is a pure function of its
// input: unknown activity types are kept as opaque nodes and missing
// attributes are treated as absent. relPath is used only for identity and
// error reporting.
func Parse(relPath string, data []byte) (*Model, error) {
	data = support.StripBOM(data)

	var root xmlNode
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&root); err != nil {
		var syn *xml.SyntaxError
		if errors.As(err, &syn) {
			return nil, &ParseError{Path: relPath, Line: syn.Line, Err: err}
		}
		return nil, &ParseError{Path: relPath, Err: err}
	}
	if root.XMLName.Local == "" {
		return nil, &ParseError{Path: relPath, Err: errors.New("empty document")}
	}

	m := &Model{
		Name: path.Base(relPath),
		Path: relPath,
	}
	m.Root = m.buildActivity(root)
	m.collectRegions()
	return m, nil
}

func skipped(local string) bool {
	for _, p := range skipPrefixes {
		if strings.HasPrefix(local, p) {
			return true
		}
	}
	return false
}

func (m *Model) buildActivity(n xmlNode) *Activity {
	a := &Activity{
		Type:  n.XMLName.Local,
		Attrs: make(map[string]string, len(n.Attrs)),
		Text:  strings.TrimSpace(n.Text),
	}
	for _, at := range n.Attrs {
		if at.Name.Space == "xmlns" || at.Name.Local == "xmlns" {
			continue
		}
		a.Attrs[at.Name.Local] = at.Value
		switch at.Name.Local {
		case "DisplayName":
			a.DisplayName = at.Value
		case "Annotation.Text":
			if v := strings.TrimSpace(at.Value); v != "" {
				m.Annotations = append(m.Annotations, v)
			}
		}
	}

	for _, c := range n.Nodes {
		local := c.XMLName.Local
		switch {
		case skipped(local):
			continue
		case strings.HasSuffix(local, ".Variables"):
			m.collectVariables(c, a.Type)
		case local == "Members":
			m.collectArguments(c)
		default:
			a.Children = append(a.Children, m.buildActivity(c))
		}
	}

	if a.Type == "Comment" {
		if v := strings.TrimSpace(a.Attrs["Text"]); v != "" {
			m.Annotations = append(m.Annotations, v)
		}
	}
	if logActivityTypes[a.Type] {
		m.LogNodes = append(m.LogNodes, a)
	}
	return a
}

func (m *Model) collectVariables(container xmlNode, scope string) {
	for _, c := range container.Nodes {
		if c.XMLName.Local != "Variable" {
			continue
		}
		v := Variable{Scope: scope}
		for _, at := range c.Attrs {
			switch at.Name.Local {
			case "Name":
				v.Name = at.Value
			case "TypeArguments":
				v.Type = at.Value
			}
		}
		if v.Name != "" {
			m.Variables = append(m.Variables, v)
		}
	}
}

func (m *Model) collectArguments(members xmlNode) {
	for _, c := range members.Nodes {
		if c.XMLName.Local != "Property" {
			continue
		}
		var name, typ string
		for _, at := range c.Attrs {
			switch at.Name.Local {
			case "Name":
				name = at.Value
			case "Type":
				typ = at.Value
			}
		}
		if name == "" {
			continue
		}
		m.Arguments = append(m.Arguments, Argument{
			Name:      name,
			Direction: argumentDirection(typ),
			Type:      innerType(typ),
		})
	}
}

func argumentDirection(typ string) Direction {
	switch {
	case strings.Contains(typ, "InOutArgument"):
		return InOut
	case strings.Contains(typ, "OutArgument"):
		return Out
	default:
		return In
	}
}

func innerType(typ string) string {
	open := strings.Index(typ, "(")
	end := strings.LastIndex(typ, ")")
	if open >= 0 && end > open {
		return typ[open+1 : end]
	}
	return typ
}

// collectRegions extracts TryCatch blocks into Regions. The guarded and
// handler subtrees are disjoint by construction of the XAML property tree.
func (m *Model) collectRegions() {
	m.Walk(func(a *Activity) {
		if a.Type != "TryCatch" {
			return
		}
		var r Region
		for _, c := range a.Children {
			switch c.Type {
			case "TryCatch.Try":
				if len(c.Children) > 0 {
					r.Try = c.Children[0]
				} else {
					r.Try = c
				}
			case "TryCatch.Catches":
				for _, h := range c.Children {
					if h.Type == "Catch" {
						r.Handlers = append(r.Handlers, h)
					}
				}
			}
		}
		for _, h := range r.Handlers {
			if Contains(h, "Rethrow") {
				r.HasRethrow = true
				break
			}
		}
		m.Regions = append(m.Regions, r)
	})
}
