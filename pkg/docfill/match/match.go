package match

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

const (
	DefaultOpen   = "<"
	DefaultClose  = ">"
	DefaultWindow = 4
)

// Span is a matched token occurrence covering logical positions [Start, End),
// delimiters included.
type Span struct {
	Token string
	Start int
	End   int
	// Exact is false for occurrences found by the bounded-window pass.
	Exact bool
}

// Len returns the number of logical characters covered.
func (s Span) Len() int {
	return s.End - s.Start
}

// Ambiguity records a candidate dropped because it overlapped a longer or
// earlier occurrence of a different token.
type Ambiguity struct {
	Kept    Span
	Dropped Span
}

// Result is the outcome of matching one logical text.
type Result struct {
	// Spans are sorted by Start and never overlap.
	Spans       []Span
	Ambiguities []Ambiguity
	// Rejected holds candidates discarded because a hard boundary fell inside.
	Rejected []Span
}

// Boundaries reports hard boundaries inside a span.
type Boundaries interface {
	BreakWithin(start, end int) bool
}

// Matcher finds token occurrences. The zero value is not usable; use New.
type Matcher struct {
	open  []rune
	close []rune
	// Window is the maximum total whitespace padding tolerated between the
	// delimiters and a bare name. Zero disables the bounded-window pass.
	window      int
	allowBreaks bool
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithDelimiters overrides the default < and > delimiters.
func WithDelimiters(open, close string) Option {
	return func(m *Matcher) {
		m.open = []rune(open)
		m.close = []rune(close)
	}
}

// WithWindow sets the bounded-window padding limit.
func WithWindow(n int) Option {
	return func(m *Matcher) {
		m.window = n
	}
}

// WithBreaksAllowed lets a match span a hard boundary.
func WithBreaksAllowed(allow bool) Option {
	return func(m *Matcher) {
		m.allowBreaks = allow
	}
}

// New builds a Matcher.
func New(opts ...Option) (*Matcher, error) {
	m := &Matcher{
		open:   []rune(DefaultOpen),
		close:  []rune(DefaultClose),
		window: DefaultWindow,
	}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.open) == 0 || len(m.close) == 0 {
		return nil, errors.New("delimiters cannot be empty")
	}
	if m.window < 0 {
		return nil, errors.New("match window cannot be negative")
	}
	return m, nil
}

// Delimit returns the delimited form of a token name.
func (m *Matcher) Delimit(name string) string {
	return string(m.open) + name + string(m.close)
}

// CheckName reports whether name can be used as a token with these delimiters.
func (m *Matcher) CheckName(name string) error {
	if name == "" {
		return errors.New("token name cannot be empty")
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("token name %q contains whitespace", name)
	}
	if strings.Contains(name, string(m.open)) || strings.Contains(name, string(m.close)) {
		return fmt.Errorf("token name %q contains a delimiter", name)
	}
	return nil
}

// Find collects every occurrence of names in text before resolving overlaps,
// so all positions refer to the unmodified text. A name is only looked up
// through the bounded-window pass when it has no exact occurrence. A bare
// name without delimiters never matches.
func (m *Matcher) Find(text []rune, names []string, b Boundaries) Result {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	var res Result
	var candidates []Span

	accept := func(s Span) bool {
		if b != nil && !m.allowBreaks && b.BreakWithin(s.Start, s.End) {
			res.Rejected = append(res.Rejected, s)
			return false
		}
		candidates = append(candidates, s)
		return true
	}

	for _, name := range sorted {
		if name == "" {
			continue
		}
		found := false
		pattern := []rune(m.Delimit(name))
		for _, pos := range indexAll(text, pattern) {
			if accept(Span{Token: name, Start: pos, End: pos + len(pattern), Exact: true}) {
				found = true
			}
		}
		if found || m.window == 0 {
			continue
		}
		bare := []rune(name)
		for _, pos := range indexAll(text, bare) {
			if s, ok := m.bracket(text, name, pos, pos+len(bare)); ok {
				accept(s)
			}
		}
	}

	res.Spans, res.Ambiguities = resolve(candidates)
	return res
}

// bracket looks for delimiters around the bare name at [start, end) separated
// from it by whitespace only.
func (m *Matcher) bracket(text []rune, name string, start, end int) (Span, bool) {
	left := start
	for left > 0 && isPad(text[left-1]) && start-left <= m.window {
		left--
	}
	right := end
	for right < len(text) && isPad(text[right]) && right-end <= m.window {
		right++
	}

	pad := (start - left) + (right - end)
	if pad == 0 || pad > m.window {
		return Span{}, false
	}
	if !hasAt(text, left-len(m.open), m.open) || !hasAt(text, right, m.close) {
		return Span{}, false
	}
	return Span{Token: name, Start: left - len(m.open), End: right + len(m.close)}, true
}

// resolve keeps, left to right, the longest candidate at each position and
// drops anything overlapping a kept span.
func resolve(candidates []Span) ([]Span, []Ambiguity) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Len() != b.Len() {
			return a.Len() > b.Len()
		}
		if a.Exact != b.Exact {
			return a.Exact
		}
		return a.Token < b.Token
	})

	var (
		kept        []Span
		ambiguities []Ambiguity
	)
	for _, c := range candidates {
		if n := len(kept); n > 0 && c.Start < kept[n-1].End {
			if c.Token != kept[n-1].Token {
				ambiguities = append(ambiguities, Ambiguity{Kept: kept[n-1], Dropped: c})
			}
			continue
		}
		kept = append(kept, c)
	}
	return kept, ambiguities
}

// Unknown lists delimited identifiers in text that are not known tokens.
// Identifiers are letters, digits, '_', '-' and '.'.
func (m *Matcher) Unknown(text []rune, known func(string) bool) []Span {
	var out []Span
	for i := 0; i < len(text); i++ {
		if !hasAt(text, i, m.open) {
			continue
		}
		j := i + len(m.open)
		k := j
		for k < len(text) && isIdent(text[k]) {
			k++
		}
		if k == j || !hasAt(text, k, m.close) {
			continue
		}
		name := string(text[j:k])
		end := k + len(m.close)
		if !known(name) {
			out = append(out, Span{Token: name, Start: i, End: end, Exact: true})
		}
		i = end - 1
	}
	return out
}

func indexAll(text, pattern []rune) []int {
	var out []int
	if len(pattern) == 0 {
		return nil
	}
	for i := 0; i+len(pattern) <= len(text); i++ {
		if hasAt(text, i, pattern) {
			out = append(out, i)
		}
	}
	return out
}

func hasAt(text []rune, pos int, pattern []rune) bool {
	if pos < 0 || pos+len(pattern) > len(text) {
		return false
	}
	for i, r := range pattern {
		if text[pos+i] != r {
			return false
		}
	}
	return true
}

func isPad(r rune) bool {
	return unicode.IsSpace(r)
}

func isIdent(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.'
}
