// Package xml builds the logical text view of an office document part.
//
// Word processors and presentation tools routinely split what the author sees
// as one piece of text across several runs: spell-check boundaries, revision
// marks, autocorrect and font changes all introduce new run elements. This
// package reconstructs the text as the author typed it while keeping a reverse
// index back to the markup.
//
// # Model
//
// Parse validates a part with encoding/xml and records, for every text-bearing
// leaf (w:t in WordprocessingML, a:t in DrawingML):
//
//   - the byte range of the element and of its encoded content
//   - the enclosing run and the raw range of its run properties
//   - the decoded characters, each mapped to its encoded byte range, so that
//     entity references such as &amp; map back to all five bytes
//
// Paragraph starts and ends and explicit break elements (br, cr, tab) add no
// characters but are recorded as hard boundaries in the Index.
//
// # Usage
//
//	part, err := xml.Parse("word/document.xml", raw)
//	if err != nil {
//	    return err
//	}
//	text := part.Text()
//	ref := part.Index.Char(0) // node and byte range of the first character
//
// Nothing in this package modifies the part; see the render package for
// splicing.
package xml
