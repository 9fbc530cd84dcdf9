package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/xml"
)

const preserveAttr = ` xml:space="preserve"`

// Replacement substitutes Value for the logical text in [Start, End).
type Replacement struct {
	Start int
	End   int
	Value string
	Token string
}

// Options controls how values are written into the markup.
type Options struct {
	// LineBreaks turns newlines in values into explicit break elements.
	LineBreaks bool
}

// Result is the rewritten part.
type Result struct {
	Content []byte
	// Spliced is the number of replacements applied.
	Spliced int
	// Removed is the number of text nodes dropped, including cleanup.
	Removed int
	// Modified is false when Content is the original markup.
	Modified bool
}

// edit replaces raw[start:end] with text. Insertions have start == end.
type edit struct {
	start int
	end   int
	text  string
}

type splicer struct {
	part *xml.Part
	opts Options
	// cut marks covered logical characters.
	cut map[int]bool
	// put holds the value inserted at a logical position, keyed by node.
	put     map[int]map[int]string
	content map[int][]edit
	drop    map[int]bool
}

// Splice applies replacements to a parsed part. Replacements must not overlap.
// They are applied from the highest logical offset to the lowest and turned
// into byte edits against the original markup, so bytes outside the edited
// nodes are kept exactly.
//
// A span inside one node is replaced in place. A span covering several nodes
// puts the value in the first node, removes every node in between, and
// either removes the last node or trims its covered head. Runs left without
// content other than their properties are removed too. Once at least one
// replacement is applied, every remaining text node with no characters is
// removed.
func Splice(part *xml.Part, reps []Replacement, opts Options) (*Result, error) {
	if len(reps) == 0 {
		return &Result{Content: part.Raw}, nil
	}

	ordered := append([]Replacement(nil), reps...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start > ordered[j].Start
	})
	if err := checkReplacements(part, ordered); err != nil {
		return nil, err
	}

	s := &splicer{
		part:    part,
		opts:    opts,
		cut:     make(map[int]bool),
		put:     make(map[int]map[int]string),
		content: make(map[int][]edit),
		drop:    make(map[int]bool),
	}
	for _, r := range ordered {
		s.apply(r)
	}
	s.cleanup()

	out, err := s.rewrite()
	if err != nil {
		return nil, err
	}
	return &Result{
		Content:  out,
		Spliced:  len(ordered),
		Removed:  len(s.drop),
		Modified: true,
	}, nil
}

func checkReplacements(part *xml.Part, ordered []Replacement) error {
	n := part.Index.Len()
	for i, r := range ordered {
		if r.Start < 0 || r.End > n || r.Start >= r.End {
			return fmt.Errorf("replacement %q [%d,%d) outside logical text of length %d", r.Token, r.Start, r.End, n)
		}
		if i > 0 && r.End > ordered[i-1].Start {
			return fmt.Errorf("replacement %q [%d,%d) overlaps %q", r.Token, r.Start, r.End, ordered[i-1].Token)
		}
	}
	return nil
}

func (s *splicer) apply(r Replacement) {
	ix := s.part.Index
	first := ix.Char(r.Start).Node
	last := ix.Char(r.End - 1).Node

	fn := s.part.Nodes[first]
	stop := min(r.End, fn.First+fn.Count)
	s.content[first] = append(s.content[first], edit{
		start: ix.Char(r.Start).Start,
		end:   ix.Char(stop - 1).End,
		text:  s.encode(first, r.Value),
	})
	s.cover(r.Start, stop)
	if s.put[first] == nil {
		s.put[first] = make(map[int]string)
	}
	s.put[first][r.Start] = r.Value

	if last == first {
		return
	}

	for k := first + 1; k < last; k++ {
		n := s.part.Nodes[k]
		if n.Opaque {
			continue
		}
		s.drop[k] = true
		s.cover(n.First, n.First+n.Count)
	}

	ln := s.part.Nodes[last]
	if r.End == ln.First+ln.Count {
		s.drop[last] = true
		s.cover(ln.First, r.End)
		return
	}
	s.content[last] = append(s.content[last], edit{
		start: ix.Char(ln.First).Start,
		end:   ix.Char(r.End - 1).End,
	})
	s.cover(ln.First, r.End)
}

func (s *splicer) cover(start, end int) {
	for i := start; i < end; i++ {
		s.cut[i] = true
	}
}

// cleanup drops text nodes left without characters. Break and tab markers
// are not text nodes and are never touched.
func (s *splicer) cleanup() {
	for i, n := range s.part.Nodes {
		if n.Opaque || s.drop[i] {
			continue
		}
		if s.finalText(i) == "" {
			s.drop[i] = true
		}
	}
}

// finalText is the decoded content node i will hold after splicing.
func (s *splicer) finalText(i int) string {
	n := s.part.Nodes[i]
	ix := s.part.Index
	var b strings.Builder
	for pos := n.First; pos < n.First+n.Count; pos++ {
		if v, ok := s.put[i][pos]; ok {
			b.WriteString(normalizeValue(v))
		}
		if !s.cut[pos] {
			b.WriteRune(ix.Runes()[pos])
		}
	}
	return b.String()
}

func (s *splicer) rewrite() ([]byte, error) {
	var edits []edit
	inRemovedRun := make(map[int]bool)

	for _, run := range s.part.Runs {
		if len(run.Nodes) == 0 || run.Children != len(run.Nodes) {
			continue
		}
		all := true
		for _, k := range run.Nodes {
			if !s.drop[k] {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		edits = append(edits, edit{start: run.Start, end: run.End})
		for _, k := range run.Nodes {
			inRemovedRun[k] = true
		}
	}

	for i, n := range s.part.Nodes {
		switch {
		case inRemovedRun[i]:
		case s.drop[i]:
			edits = append(edits, edit{start: n.Start, end: n.End})
		case len(s.content[i]) > 0:
			edits = append(edits, s.content[i]...)
			if n.Dialect == xml.DialectWord && !n.Preserve && needsPreserve(s.leadingSegment(i)) {
				if n.HasSpace {
					edits = append(edits, edit{start: n.SpaceStart, end: n.SpaceEnd, text: "preserve"})
				} else {
					at := n.Start + 1 + len(n.QName)
					edits = append(edits, edit{start: at, end: at, text: preserveAttr})
				}
			}
		}
	}

	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].start < edits[j].start
	})

	raw := s.part.Raw
	var b strings.Builder
	b.Grow(len(raw))
	pos := 0
	for _, e := range edits {
		if e.start < pos {
			return nil, errors.New("overlapping edits")
		}
		b.Write(raw[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.Write(raw[pos:])
	return []byte(b.String()), nil
}

// leadingSegment is the part of node i's new text that stays in the original
// element; with line breaks enabled the rest lives in new elements that
// already carry xml:space.
func (s *splicer) leadingSegment(i int) string {
	text := s.finalText(i)
	if s.opts.LineBreaks {
		if k := strings.IndexByte(text, '\n'); k >= 0 {
			return text[:k]
		}
	}
	return text
}

func needsPreserve(text string) bool {
	if text == "" {
		return false
	}
	return isXMLSpace(text[0]) || isXMLSpace(text[len(text)-1])
}

func isXMLSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// encode renders a value as content of node i.
func (s *splicer) encode(i int, value string) string {
	value = normalizeValue(value)
	if !s.opts.LineBreaks || !strings.Contains(value, "\n") {
		return escapeText(value)
	}

	n := s.part.Nodes[i]
	sep, ok := s.breakMarkup(n)
	if !ok {
		return escapeText(strings.ReplaceAll(value, "\n", " "))
	}
	segments := strings.Split(value, "\n")
	for k := range segments {
		segments[k] = escapeText(segments[k])
	}
	return strings.Join(segments, sep)
}

// breakMarkup returns the markup that ends the current text element, emits a
// line break and opens a new text element in the same formatting.
func (s *splicer) breakMarkup(n xml.TextNode) (string, bool) {
	prefix := prefixOf(n.QName)
	if n.Dialect == xml.DialectWord {
		return "</" + n.QName + "><" + prefix + "br/><" + n.QName + preserveAttr + ">", true
	}

	if n.Run < 0 {
		return "", false
	}
	run := s.part.Runs[n.Run]
	props := string(s.part.Raw[run.PropsStart:run.PropsEnd])
	return "</" + n.QName + "></" + run.QName + "><" + prefix + "br/><" +
		run.QName + ">" + props + "<" + n.QName + ">", true
}

func prefixOf(qname string) string {
	if k := strings.IndexByte(qname, ':'); k >= 0 {
		return qname[:k+1]
	}
	return ""
}
