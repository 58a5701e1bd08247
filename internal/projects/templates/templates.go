package templates

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

const Default = "web"

//go:embed starters.yaml
var startersYAML []byte

// StarterFile is one file seeded into a new project.
type StarterFile struct {
	Path    string `yaml:"path" json:"path"`
	Content string `yaml:"content" json:"-"`
}

// Template is a named set of starter files.
type Template struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description" json:"description"`
	Files       []StarterFile `yaml:"files" json:"files"`
}

type catalogFile struct {
	Templates []Template `yaml:"templates"`
}

// Catalog holds the starter templates keyed by name.
type Catalog struct {
	byName map[string]Template
}

var (
	builtinOnce sync.Once
	builtin     *Catalog
	builtinErr  error
)

// Builtin returns the catalog embedded in the binary.
func Builtin() (*Catalog, error) {
	builtinOnce.Do(func() {
		builtin, builtinErr = Parse(startersYAML)
	})
	return builtin, builtinErr
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	c := &Catalog{byName: make(map[string]Template, len(cf.Templates))}
	for _, t := range cf.Templates {
		if t.Name == "" {
			return nil, fmt.Errorf("parse templates: template without a name")
		}
		if _, dup := c.byName[t.Name]; dup {
			return nil, fmt.Errorf("parse templates: duplicate template %q", t.Name)
		}
		c.byName[t.Name] = t
	}
	return c, nil
}

// Get looks up a template; an empty name selects Default.
func (c *Catalog) Get(name string) (Template, bool) {
	if name == "" {
		name = Default
	}
	t, ok := c.byName[name]
	return t, ok
}

// List returns the templates sorted by name.
func (c *Catalog) List() []Template {
	out := make([]Template, 0, len(c.byName))
	for _, t := range c.byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
