package docfill

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultDateLayout renders dates as day/month/year.
const DefaultDateLayout = "02/01/2006"

// Accessor reads the raw value of a definition from a context. It reports
// false when the value is absent.
type Accessor func(ctx ValueContext, def TagDefinition) (any, bool)

// Resolver maps token names to replacement strings. The accessor table is
// fixed once the resolver is handed to an engine; it is then only read.
type Resolver struct {
	registry  *Registry
	accessors map[string]Accessor
	locale    language.Tag
}

// NewResolver builds a resolver with a field accessor for every category of
// the registry. locale selects the casing rules of transforms; an empty
// string means the registry locale, then French.
func NewResolver(registry *Registry, locale string) (*Resolver, error) {
	if registry == nil {
		return nil, errors.New("resolver needs a registry")
	}
	if locale == "" {
		locale = registry.Locale()
	}
	if locale == "" {
		locale = "fr"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}

	r := &Resolver{
		registry:  registry,
		accessors: make(map[string]Accessor),
		locale:    tag,
	}
	for _, c := range registry.Categories() {
		r.accessors[c] = FieldAccessor
	}
	return r, nil
}

// RegisterCategory installs the accessor for a category, replacing the
// default field lookup. It must be called before the resolver is shared.
func (r *Resolver) RegisterCategory(category string, acc Accessor) error {
	if category == "" {
		return errors.New("category cannot be empty")
	}
	if acc == nil {
		return fmt.Errorf("nil accessor for category %s", category)
	}
	r.accessors[category] = acc
	return nil
}

// Locale returns the language used for transforms.
func (r *Resolver) Locale() language.Tag {
	return r.locale
}

// Resolve returns the replacement for a token. The second result is false
// when the token is unknown or its value is missing; the string is then
// empty. A missing value is never an error.
func (r *Resolver) Resolve(name string, ctx ValueContext) (string, bool) {
	def, ok := r.registry.Lookup(name)
	if !ok {
		return "", false
	}
	acc, ok := r.accessors[def.Category]
	if !ok {
		return "", false
	}
	v, ok := acc(ctx, def)
	if !ok || v == nil {
		return "", false
	}
	return r.transform(def.Transform, FormatValue(v, def.Layout)), true
}

func (r *Resolver) transform(name, s string) string {
	switch name {
	case TransformUpper:
		return cases.Upper(r.locale).String(s)
	case TransformLower:
		return cases.Lower(r.locale).String(s)
	case TransformTitle:
		return cases.Title(r.locale).String(s)
	default:
		return s
	}
}

// FieldAccessor reads def.Field from the def.Category map of ctx, following
// dots into nested maps.
func FieldAccessor(ctx ValueContext, def TagDefinition) (any, bool) {
	fields, ok := ctx[def.Category]
	if !ok || fields == nil {
		return nil, false
	}
	return lookupPath(fields, def.Field)
}

func lookupPath(fields map[string]any, path string) (any, bool) {
	var cur any = fields
	for _, key := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]string:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

// FormatValue renders a context value as text. Times use layout, or
// DefaultDateLayout when layout is empty. Numbers never use exponents.
func FormatValue(v any, layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}

	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.Format(layout)
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.Format(layout)
	case fmt.Stringer:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64, bits int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}
