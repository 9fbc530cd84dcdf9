// Package parts decides which members of an office archive are scanned for
// placeholder tokens.
package parts

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownKind is returned for a document kind the selector does not know.
var ErrUnknownKind = errors.New("unknown document kind")

// Kind is the family of office document being processed.
type Kind string

const (
	WordProcessor Kind = "word-processor"
	SlideDeck     Kind = "slide-deck"
)

// Role describes what an eligible part holds.
type Role string

const (
	RoleBody      Role = "body"
	RoleHeader    Role = "header"
	RoleFooter    Role = "footer"
	RoleFootnotes Role = "footnotes"
	RoleEndnotes  Role = "endnotes"
	RoleComments  Role = "comments"
	RoleSlide     Role = "slide"
)

// Pattern matches eligible member paths. When the expression has a capture
// group, it holds the part number used for ordering.
type Pattern struct {
	Role Role
	Expr *regexp.Regexp
}

// Part is an eligible archive member.
type Part struct {
	Path  string
	Role  Role
	Index int
}

var (
	wordPatterns = []Pattern{
		{Role: RoleBody, Expr: regexp.MustCompile(`^word/document\.xml$`)},
		{Role: RoleHeader, Expr: regexp.MustCompile(`^word/header(\d+)\.xml$`)},
		{Role: RoleFooter, Expr: regexp.MustCompile(`^word/footer(\d+)\.xml$`)},
		{Role: RoleFootnotes, Expr: regexp.MustCompile(`^word/footnotes\.xml$`)},
		{Role: RoleEndnotes, Expr: regexp.MustCompile(`^word/endnotes\.xml$`)},
		{Role: RoleComments, Expr: regexp.MustCompile(`^word/comments\.xml$`)},
	}

	// Layouts and masters live under ppt/slideLayouts and ppt/slideMasters and
	// never match.
	slidePatterns = []Pattern{
		{Role: RoleSlide, Expr: regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)},
	}
)

// ParseKind maps a caller-supplied kind name, or a common alias, to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "word-processor", "word", "docx", "wordprocessingml":
		return WordProcessor, nil
	case "slide-deck", "slides", "pptx", "presentationml":
		return SlideDeck, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownKind)
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == WordProcessor || k == SlideDeck
}

// Patterns returns the eligible path patterns for a kind, in processing order.
func Patterns(kind Kind) ([]Pattern, error) {
	switch kind {
	case WordProcessor:
		return wordPatterns, nil
	case SlideDeck:
		return slidePatterns, nil
	default:
		return nil, fmt.Errorf("%q: %w", string(kind), ErrUnknownKind)
	}
}

// MainPart is the member every archive of the given kind must contain.
func MainPart(kind Kind) (string, error) {
	switch kind {
	case WordProcessor:
		return "word/document.xml", nil
	case SlideDeck:
		return "ppt/presentation.xml", nil
	default:
		return "", fmt.Errorf("%q: %w", string(kind), ErrUnknownKind)
	}
}

// Select filters names down to the eligible parts of kind. The result is
// ordered by pattern, then by part number, then by name, regardless of the
// order of names.
func Select(kind Kind, names []string) ([]Part, error) {
	patterns, err := Patterns(kind)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		Part
		rank int
	}
	var selected []ranked

	for _, name := range names {
		for rank, p := range patterns {
			m := p.Expr.FindStringSubmatch(name)
			if m == nil {
				continue
			}
			idx := 0
			if len(m) == 2 {
				if n, err := strconv.Atoi(m[1]); err == nil {
					idx = n
				}
			}
			selected = append(selected, ranked{Part: Part{Path: name, Role: p.Role, Index: idx}, rank: rank})
			break
		}
	}

	sort.Slice(selected, func(i, j int) bool {
		a, b := selected[i], selected[j]
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Path < b.Path
	})

	out := make([]Part, len(selected))
	for i, s := range selected {
		out[i] = s.Part
	}
	return out, nil
}
