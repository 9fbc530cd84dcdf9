// Package docxtest builds small office documents in memory for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"io"
	"strconv"
	"testing"
)

const (
	WordNS    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	DrawingNS = "http://schemas.openxmlformats.org/drawingml/2006/main"
	SlideNS   = "http://schemas.openxmlformats.org/presentationml/2006/main"
)

// File is one archive member.
type File struct {
	Name    string
	Content string
	Store   bool
}

// Build zips files in the given order.
func Build(t testing.TB, files ...File) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for _, f := range files {
		method := zip.Deflate
		if f.Store {
			method = zip.Store
		}
		fw, err := w.CreateHeader(&zip.FileHeader{Name: f.Name, Method: method})
		if err != nil {
			t.Fatalf("create %s: %v", f.Name, err)
		}
		if _, err := fw.Write([]byte(f.Content)); err != nil {
			t.Fatalf("write %s: %v", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// WordBody wraps body XML in a w:document root.
func WordBody(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:document xmlns:w="` + WordNS + `"><w:body>` + body + `</w:body></w:document>`
}

// WordHeader wraps content in a w:hdr root.
func WordHeader(content string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:hdr xmlns:w="` + WordNS + `">` + content + `</w:hdr>`
}

// WordFooter wraps content in a w:ftr root.
func WordFooter(content string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:ftr xmlns:w="` + WordNS + `">` + content + `</w:ftr>`
}

// Paragraph builds a paragraph with one plain run per text.
func Paragraph(texts ...string) string {
	s := "<w:p>"
	for _, text := range texts {
		s += `<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r>`
	}
	return s + "</w:p>"
}

// Docx returns a word-processor archive whose body is the given XML.
// Extra files are appended after the standard members.
func Docx(t testing.TB, body string, extra ...File) []byte {
	t.Helper()
	files := []File{
		{Name: "[Content_Types].xml", Content: `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{Name: "_rels/.rels", Content: `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`},
		{Name: "word/document.xml", Content: WordBody(body)},
	}
	files = append(files, extra...)
	return Build(t, files...)
}

// Slide wraps shape-tree XML in a p:sld root.
func Slide(spTree string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<p:sld xmlns:a="` + DrawingNS + `" xmlns:p="` + SlideNS + `"><p:cSld><p:spTree>` +
		spTree + `</p:spTree></p:cSld></p:sld>`
}

// Shape builds a text shape with one paragraph holding one run per text.
func Shape(texts ...string) string {
	s := `<p:sp><p:txBody><a:bodyPr/><a:p>`
	for _, text := range texts {
		s += `<a:r><a:rPr lang="fr-FR"/><a:t>` + text + `</a:t></a:r>`
	}
	return s + `</a:p></p:txBody></p:sp>`
}

// Pptx returns a slide-deck archive with the given slides, numbered from 1.
func Pptx(t testing.TB, slides []string, extra ...File) []byte {
	t.Helper()
	files := []File{
		{Name: "[Content_Types].xml", Content: `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{Name: "ppt/presentation.xml", Content: `<?xml version="1.0" encoding="UTF-8"?><p:presentation xmlns:p="` + SlideNS + `"/>`},
	}
	for i, s := range slides {
		files = append(files, File{Name: "ppt/slides/slide" + strconv.Itoa(i+1) + ".xml", Content: Slide(s)})
	}
	files = append(files, extra...)
	return Build(t, files...)
}

// ReadPart extracts one member from archive bytes.
func ReadPart(t testing.TB, data []byte, name string) string {
	t.Helper()
	parts := ReadAll(t, data)
	content, ok := parts[name]
	if !ok {
		t.Fatalf("part %s not found", name)
	}
	return content
}

// ReadAll extracts every member from archive bytes.
func ReadAll(t testing.TB, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		out[f.Name] = string(b)
	}
	return out
}

// Names lists member names in archive order.
func Names(t testing.TB, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}
