package xml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

const (
	WordNamespace    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	DrawingNamespace = "http://schemas.openxmlformats.org/drawingml/2006/main"

	// Strict Open XML documents use these instead.
	StrictWordNamespace    = "http://purl.oclc.org/ooxml/wordprocessingml/main"
	StrictDrawingNamespace = "http://purl.oclc.org/ooxml/drawingml/main"

	xmlNamespace = "http://www.w3.org/XML/1998/namespace"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Dialect is the markup vocabulary a text node belongs to.
type Dialect int

const (
	// DialectWord is WordprocessingML (w:t inside w:r).
	DialectWord Dialect = iota
	// DialectDrawing is DrawingML (a:t inside a:r), used by slides.
	DialectDrawing
)

// TextNode is a text-bearing leaf. All offsets are byte offsets into Part.Raw:
// the element spans [Start, End) and its encoded character content spans
// [ContentStart, ContentEnd).
type TextNode struct {
	Start        int
	ContentStart int
	ContentEnd   int
	End          int
	QName        string
	Dialect      Dialect
	Preserve     bool
	// SpaceStart and SpaceEnd delimit the value of an existing xml:space
	// attribute; HasSpace is false when the start tag has none.
	HasSpace   bool
	SpaceStart int
	SpaceEnd   int
	// Run is the index of the enclosing run in Part.Runs, or -1.
	Run int
	// Opaque nodes hold markup or CDATA and are never indexed or edited.
	Opaque bool
	// First and Count locate the node's characters in the logical text.
	First int
	Count int
}

// Run is a run element directly enclosing text nodes.
type Run struct {
	Start int
	End   int
	QName string
	// PropsStart and PropsEnd delimit the raw run properties element; they are
	// equal when the run has none.
	PropsStart int
	PropsEnd   int
	// Children counts child elements other than run properties.
	Children int
	Nodes    []int
}

// Part is one parsed archive member.
type Part struct {
	Name  string
	Raw   []byte
	Nodes []TextNode
	Runs  []Run
	Index *Index
}

// ParseError reports a well-formedness failure.
type ParseError struct {
	Line   int
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d (offset %d): %v", e.Line, e.Offset, e.Err)
	}
	return fmt.Sprintf("offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type elemKind int

const (
	kindOther elemKind = iota
	kindParagraph
	kindRun
	kindRunProps
	kindText
	kindBreak
)

type frame struct {
	kind elemKind
	// run is the run this frame opened, or for run properties the owning run.
	run  int
	node int
}

// Parse validates raw as well-formed XML and builds the text-node model and
// logical text index of one part. Walking the token stream alternates between
// outside-text and inside-text states; only text leaves contribute characters,
// while paragraphs and explicit breaks add hard boundaries.
func Parse(name string, raw []byte) (*Part, error) {
	base := 0
	if bytes.HasPrefix(raw, utf8BOM) {
		base = len(utf8BOM)
	}

	d := xml.NewDecoder(bytes.NewReader(raw[base:]))
	d.Strict = true

	p := &Part{Name: name, Raw: raw}
	ix := &Index{}
	var stack []frame
	current := -1
	sawRoot := false

	for {
		start := base + int(d.InputOffset())
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, newParseError(err, int64(base)+d.InputOffset())
		}
		end := base + int(d.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			sawRoot = true
			kind := classify(t.Name)
			parentRun := -1
			if n := len(stack); n > 0 && stack[n-1].kind == kindRun {
				parentRun = stack[n-1].run
			}
			if current >= 0 {
				p.Nodes[current].Opaque = true
				kind = kindOther
			}

			f := frame{kind: kind, run: -1, node: -1}
			switch kind {
			case kindRun:
				p.Runs = append(p.Runs, Run{Start: start, QName: qualifiedName(raw, start)})
				f.run = len(p.Runs) - 1
			case kindRunProps:
				f.run = parentRun
				if parentRun >= 0 {
					p.Runs[parentRun].PropsStart = start
				}
			case kindParagraph, kindBreak:
				ix.addBreak()
			case kindText:
				qname := qualifiedName(raw, start)
				node := TextNode{
					Start:        start,
					ContentStart: end,
					QName:        qname,
					Dialect:      dialectOf(t.Name.Space),
					Preserve:     hasPreserve(t.Attr),
					Run:          parentRun,
				}
				node.SpaceStart, node.SpaceEnd, node.HasSpace = spaceAttr(raw, start+1+len(qname), end)
				p.Nodes = append(p.Nodes, node)
				current = len(p.Nodes) - 1
				f.node = current
			}

			if parentRun >= 0 && kind != kindRunProps {
				r := &p.Runs[parentRun]
				r.Children++
				if f.node >= 0 {
					r.Nodes = append(r.Nodes, f.node)
				}
			}
			stack = append(stack, f)

		case xml.EndElement:
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			switch f.kind {
			case kindRun:
				p.Runs[f.run].End = end
			case kindRunProps:
				if f.run >= 0 {
					p.Runs[f.run].PropsEnd = end
				}
			case kindParagraph:
				ix.addBreak()
			case kindText:
				n := &p.Nodes[f.node]
				n.ContentEnd = start
				n.End = end
				current = -1
				if bytes.Contains(raw[n.ContentStart:n.ContentEnd], cdataOpen) {
					n.Opaque = true
				}
				n.First = ix.Len()
				if !n.Opaque {
					decodeContent(raw[n.ContentStart:n.ContentEnd], n.ContentStart, func(r rune, s, e int) {
						ix.add(r, CharRef{Node: f.node, Start: s, End: e})
					})
				}
				n.Count = ix.Len() - n.First
			}
		}
	}

	if !sawRoot {
		return nil, &ParseError{Offset: int64(len(raw)), Err: errors.New("no root element")}
	}

	p.Index = ix
	return p, nil
}

// NodeText returns the decoded text of node i.
func (p *Part) NodeText(i int) string {
	n := p.Nodes[i]
	return p.Index.Slice(n.First, n.First+n.Count)
}

// Text returns the logical text of the whole part.
func (p *Part) Text() string {
	return p.Index.String()
}

func newParseError(err error, offset int64) error {
	var syn *xml.SyntaxError
	if errors.As(err, &syn) {
		return &ParseError{Line: syn.Line, Offset: offset, Err: errors.New(syn.Msg)}
	}
	return &ParseError{Offset: offset, Err: err}
}

func classify(name xml.Name) elemKind {
	switch name.Space {
	case WordNamespace, DrawingNamespace, StrictWordNamespace, StrictDrawingNamespace, "":
	default:
		return kindOther
	}

	switch name.Local {
	case "p":
		return kindParagraph
	case "r":
		return kindRun
	case "rPr":
		return kindRunProps
	case "t":
		return kindText
	case "br", "cr", "tab":
		return kindBreak
	default:
		return kindOther
	}
}

func dialectOf(space string) Dialect {
	if space == DrawingNamespace || space == StrictDrawingNamespace {
		return DialectDrawing
	}
	return DialectWord
}

func hasPreserve(attrs []xml.Attr) bool {
	for _, a := range attrs {
		if a.Name.Local == "space" && (a.Name.Space == xmlNamespace || a.Name.Space == "xml") {
			return a.Value == "preserve"
		}
	}
	return false
}

// spaceAttr finds the value range of the xml:space attribute in the start tag
// attributes raw[i:end].
func spaceAttr(raw []byte, i, end int) (int, int, bool) {
	for i < end {
		for i < end && isSpace(raw[i]) {
			i++
		}
		if i >= end || raw[i] == '>' || raw[i] == '/' {
			break
		}
		nameStart := i
		for i < end && raw[i] != '=' && !isSpace(raw[i]) {
			i++
		}
		name := string(raw[nameStart:i])
		for i < end && (isSpace(raw[i]) || raw[i] == '=') {
			i++
		}
		if i >= end {
			break
		}
		quote := raw[i]
		i++
		valueStart := i
		for i < end && raw[i] != quote {
			i++
		}
		if name == "xml:space" {
			return valueStart, i, true
		}
		i++
	}
	return 0, 0, false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// qualifiedName reads the element name as written, prefix included, from the
// start tag beginning at raw[start].
func qualifiedName(raw []byte, start int) string {
	i := start + 1
	j := i
	for j < len(raw) {
		switch raw[j] {
		case ' ', '\t', '\r', '\n', '/', '>':
			return string(raw[i:j])
		}
		j++
	}
	return string(raw[i:j])
}
