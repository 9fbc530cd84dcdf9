// Package render splices replacement values into a parsed document part.
//
// The package works on the byte offsets recorded by the xml package rather
// than on a decoded element tree, so everything outside the edited text
// nodes is written back exactly as it was read: attributes, namespace
// declarations, revision marks and unknown extension elements included.
//
// # Structure Organization
//
//   - splice.go: span to node mapping, node removal and the byte rewrite
//   - text.go: value normalization and escaping
//
// # Splicing Rules
//
// For a replacement covering a single text node, the covered characters are
// replaced in place. For one covering several nodes:
//
//   - the first node keeps its uncovered head and receives the value
//   - nodes strictly inside the span are removed
//   - the last node is removed when fully covered, otherwise only its covered
//     head is cut so its tail keeps the original formatting
//
// A run is removed together with its last text node when nothing but its
// properties would remain. After splicing, text nodes with no characters left
// are removed; break and tab markers are separate elements and survive.
//
// # Usage
//
//	part, _ := xml.Parse(name, raw)
//	res, err := render.Splice(part, []render.Replacement{
//	    {Start: 6, End: 18, Value: "Paris", Token: "etude_lieu"},
//	}, render.Options{LineBreaks: true})
//	if err != nil {
//	    return err
//	}
//	out := res.Content
package render
