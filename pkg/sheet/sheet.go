// Package sheet loads YAML/JSON expression sheets (named lists of
// expressions) and evaluates them as a batch.
package sheet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// MaxSourceSize is the maximum sheet size in bytes (128 KB).
const MaxSourceSize = 128 * 1024

// MaxEntries is the maximum number of expressions in one sheet.
const MaxEntries = 1000

// Entry is one named expression.
type Entry struct {
	Name       string `json:"name" yaml:"name"`
	Expression string `json:"expression" yaml:"expression"`
}

// Sheet is a named, ordered collection of expressions.
type Sheet struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Entries     []Entry `json:"expressions" yaml:"expressions"`
	Source      string  `json:"source,omitempty" yaml:"source,omitempty"`
}

// ParseError represents an error encountered while parsing a sheet.
type ParseError struct {
	Message  string
	Location string // e.g., "expressions[2]"
}

func (e *ParseError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("parse error at %s: %s", e.Location, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Parse parses a YAML or JSON sheet. The expressions key may hold a list of
// {name, expression} mappings, a list of plain strings, or a mapping from
// name to expression (order preserved).
func Parse(source []byte) (*Sheet, error) {
	if len(source) > MaxSourceSize {
		return nil, &ParseError{Message: fmt.Sprintf("sheet size %d exceeds maximum %d bytes", len(source), MaxSourceSize)}
	}

	var raw yaml.Node
	if err := yaml.Unmarshal(source, &raw); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}

	if raw.Kind != yaml.DocumentNode || len(raw.Content) == 0 {
		return nil, &ParseError{Message: "empty sheet"}
	}

	root := raw.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Message: "sheet must be a mapping"}
	}

	s := &Sheet{}
	var exprNode *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		val := root.Content[i+1]
		switch key {
		case "name":
			s.Name = val.Value
		case "description":
			s.Description = val.Value
		case "expressions":
			exprNode = val
		default:
			return nil, &ParseError{Message: fmt.Sprintf("unknown key %q", key)}
		}
	}

	if exprNode == nil {
		return nil, &ParseError{Message: "sheet must have an 'expressions' key"}
	}

	entries, err := parseEntries(exprNode)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, &ParseError{Message: "sheet has no expressions", Location: "expressions"}
	}
	if len(entries) > MaxEntries {
		return nil, &ParseError{Message: fmt.Sprintf("sheet has %d expressions, maximum is %d", len(entries), MaxEntries), Location: "expressions"}
	}

	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if seen[e.Name] {
			return nil, &ParseError{Message: fmt.Sprintf("duplicate expression name %q", e.Name), Location: fmt.Sprintf("expressions[%d]", i)}
		}
		seen[e.Name] = true
	}

	s.Entries = entries
	return s, nil
}

func parseEntries(node *yaml.Node) ([]Entry, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		entries := make([]Entry, 0, len(node.Content))
		for i, item := range node.Content {
			loc := fmt.Sprintf("expressions[%d]", i)
			switch item.Kind {
			case yaml.ScalarNode:
				entries = append(entries, Entry{Name: fmt.Sprintf("#%d", i+1), Expression: item.Value})
			case yaml.MappingNode:
				e, err := parseEntry(item, loc)
				if err != nil {
					return nil, err
				}
				entries = append(entries, e)
			default:
				return nil, &ParseError{Message: "expression must be a string or a mapping", Location: loc}
			}
		}
		return entries, nil

	case yaml.MappingNode:
		entries := make([]Entry, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			name := node.Content[i].Value
			val := node.Content[i+1]
			if val.Kind != yaml.ScalarNode {
				return nil, &ParseError{Message: "expression must be a string", Location: "expressions." + name}
			}
			if name == "" {
				return nil, &ParseError{Message: "expression name must not be empty", Location: "expressions"}
			}
			entries = append(entries, Entry{Name: name, Expression: val.Value})
		}
		return entries, nil

	default:
		return nil, &ParseError{Message: "'expressions' must be a list or a mapping", Location: "expressions"}
	}
}

func parseEntry(node *yaml.Node, loc string) (Entry, error) {
	var e Entry
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return e, &ParseError{Message: fmt.Sprintf("%q must be a string", key), Location: loc}
		}
		switch key {
		case "name":
			e.Name = val.Value
		case "expression":
			e.Expression = val.Value
		default:
			return e, &ParseError{Message: fmt.Sprintf("unknown key %q", key), Location: loc}
		}
	}
	if e.Name == "" {
		return e, &ParseError{Message: "expression name must not be empty", Location: loc}
	}
	return e, nil
}

// Load reads and parses a single sheet file. A sheet without a name takes the
// file's base name.
func Load(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if s.Name == "" {
		base := filepath.Base(path)
		s.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	s.Source = path
	return s, nil
}

// LoadDir loads every .yaml, .yml and .json sheet in dir. Files that cannot
// be read or parsed are skipped with a warning.
func LoadDir(dir string) ([]*Sheet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading sheets directory: %w", err)
	}

	var sheets []*Sheet
	names := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}

		s, err := Load(filepath.Join(dir, name))
		if err != nil {
			logrus.Warnf("Skipping sheet %q: %v", name, err)
			continue
		}
		if names[s.Name] {
			logrus.Warnf("Skipping sheet %q: name %q already loaded", name, s.Name)
			continue
		}
		names[s.Name] = true
		sheets = append(sheets, s)
		logrus.Debugf("Loaded sheet %q from %s", s.Name, name)
	}

	logrus.Infof("Loaded %d sheet(s) from %s", len(sheets), dir)
	return sheets, nil
}
