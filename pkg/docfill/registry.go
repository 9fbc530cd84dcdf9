package docfill

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Transform names accepted in tag definitions.
const (
	TransformNone  = ""
	TransformUpper = "upper"
	TransformLower = "lower"
	TransformTitle = "title"
)

// TagDefinition describes one token. Definitions are reference data: they
// are loaded once and never change while the process runs.
type TagDefinition struct {
	// Name is the token name without delimiters, e.g. etude_numero.
	Name string `yaml:"name"`
	// Category selects the accessor used to read the value.
	Category string `yaml:"category"`
	// Field is the key inside the category. Dots walk nested maps.
	Field       string `yaml:"field"`
	Description string `yaml:"description,omitempty"`
	Example     string `yaml:"example,omitempty"`
	// Transform is applied to the formatted value: upper, lower or title.
	Transform string `yaml:"transform,omitempty"`
	// Layout formats time values, in Go reference-time notation.
	Layout string `yaml:"layout,omitempty"`
}

// Delimited returns the token as written in templates.
func (d TagDefinition) Delimited(open, close string) string {
	return open + d.Name + close
}

// ValueContext is the data bound for one call: category, then field, then
// value. Fields may be missing.
type ValueContext map[string]map[string]any

// Registry is an immutable set of tag definitions. It is safe for concurrent
// use once built.
type Registry struct {
	defs   []TagDefinition
	byName map[string]int
	locale string
}

type registryFile struct {
	Locale string          `yaml:"locale"`
	Tags   []TagDefinition `yaml:"tags"`
}

// NewRegistry validates defs and builds a registry. Every invalid definition
// is reported; the error is a *RegistryError or a *MultiError of them.
func NewRegistry(defs []TagDefinition) (*Registry, error) {
	r := &Registry{
		defs:   make([]TagDefinition, 0, len(defs)),
		byName: make(map[string]int, len(defs)),
	}

	errs := NewMultiError()
	for i, d := range defs {
		if err := validateDefinition(d); err != nil {
			errs.Add(err)
			continue
		}
		if _, dup := r.byName[d.Name]; dup {
			errs.Add(NewRegistryError(d.Name, fmt.Sprintf("duplicate definition (entry %d)", i+1)))
			continue
		}
		r.byName[d.Name] = -1
		r.defs = append(r.defs, d)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	sort.Slice(r.defs, func(i, j int) bool {
		return r.defs[i].Name < r.defs[j].Name
	})
	for i, d := range r.defs {
		r.byName[d.Name] = i
	}
	return r, nil
}

func validateDefinition(d TagDefinition) error {
	if d.Name == "" {
		return NewRegistryError("", "definition without a name")
	}
	for _, c := range d.Name {
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' && c != '-' && c != '.' {
			return NewRegistryError(d.Name, fmt.Sprintf("invalid character %q in name", c))
		}
	}
	if strings.TrimSpace(d.Category) == "" {
		return NewRegistryError(d.Name, "missing category")
	}
	if strings.TrimSpace(d.Field) == "" {
		return NewRegistryError(d.Name, "missing field")
	}
	switch d.Transform {
	case TransformNone, TransformUpper, TransformLower, TransformTitle:
	default:
		return NewRegistryError(d.Name, fmt.Sprintf("unknown transform '%s'", d.Transform))
	}
	return nil
}

// ParseRegistry reads a YAML registry document:
//
//	locale: fr
//	tags:
//	  - name: etude_numero
//	    category: etude
//	    field: numeroMission
//	    example: E2024-001
func ParseRegistry(r io.Reader) (*Registry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file registryFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, NewRegistryError("", "empty registry document")
		}
		return nil, fmt.Errorf("failed to decode registry: %w", err)
	}

	reg, err := NewRegistry(file.Tags)
	if err != nil {
		return nil, err
	}
	reg.locale = file.Locale
	return reg, nil
}

// LoadRegistryFile reads a YAML registry from disk.
func LoadRegistryFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	reg, err := ParseRegistry(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Lookup returns the definition of a token name.
func (r *Registry) Lookup(name string) (TagDefinition, bool) {
	i, ok := r.byName[name]
	if !ok {
		return TagDefinition{}, false
	}
	return r.defs[i], true
}

// Has reports whether name is a registered token.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Locale is the language declared by the registry file, if any.
func (r *Registry) Locale() string {
	return r.locale
}

// Names returns the token names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.defs))
	for i, d := range r.defs {
		names[i] = d.Name
	}
	return names
}

// Definitions returns a copy of the definitions sorted by name.
func (r *Registry) Definitions() []TagDefinition {
	return append([]TagDefinition(nil), r.defs...)
}

// Categories returns the distinct categories in sorted order.
func (r *Registry) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range r.defs {
		if !seen[d.Category] {
			seen[d.Category] = true
			out = append(out, d.Category)
		}
	}
	sort.Strings(out)
	return out
}

// ExampleContext builds a context holding every definition's example value.
// Dotted fields become nested maps.
func (r *Registry) ExampleContext() ValueContext {
	ctx := make(ValueContext)
	for _, d := range r.defs {
		if d.Example == "" {
			continue
		}
		fields := ctx[d.Category]
		if fields == nil {
			fields = make(map[string]any)
			ctx[d.Category] = fields
		}
		setPath(fields, d.Field, d.Example)
	}
	return ctx
}

func setPath(m map[string]any, path, value string) {
	keys := strings.Split(path, ".")
	for _, k := range keys[:len(keys)-1] {
		next, ok := m[k].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[k] = next
		}
		m = next
	}
	m[keys[len(keys)-1]] = value
}
