package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrPartNotFound is returned when a named member does not exist in the archive.
var ErrPartNotFound = errors.New("part not found")

// Archive holds an office document container in memory. Members are read lazily
// from the original buffer; writes are kept in memory until Serialize.
type Archive struct {
	reader *zip.Reader
	files  []*zip.File
	index  map[string]*zip.File
	edits  map[string][]byte
	order  []string
}

// Open parses data as a zip container.
func Open(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read zip archive: %w", err)
	}
	if len(zr.File) == 0 {
		return nil, fmt.Errorf("failed to read zip archive: no members")
	}

	a := &Archive{
		reader: zr,
		files:  zr.File,
		index:  make(map[string]*zip.File, len(zr.File)),
		edits:  make(map[string][]byte),
	}

	// Index all parts by name
	for _, f := range zr.File {
		if _, dup := a.index[f.Name]; dup {
			return nil, fmt.Errorf("failed to read zip archive: duplicate member %s", f.Name)
		}
		a.index[f.Name] = f
	}

	return a, nil
}

// ListParts returns every member name in archive order.
func (a *Archive) ListParts() []string {
	names := make([]string, 0, len(a.files))
	for _, f := range a.files {
		names = append(names, f.Name)
	}
	return names
}

// Has reports whether the archive contains the named member.
func (a *Archive) Has(path string) bool {
	_, ok := a.index[path]
	return ok
}

// Size returns the uncompressed size of a member as recorded in the directory.
func (a *Archive) Size(path string) (int64, error) {
	if content, ok := a.edits[path]; ok {
		return int64(len(content)), nil
	}
	f, ok := a.index[path]
	if !ok {
		return 0, fmt.Errorf("%s: %w", path, ErrPartNotFound)
	}
	return int64(f.UncompressedSize64), nil
}

// Read returns the current text of a member, including pending writes.
func (a *Archive) Read(path string) (string, error) {
	b, err := a.ReadBytes(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadBytes is Read without the string conversion.
func (a *Archive) ReadBytes(path string) ([]byte, error) {
	if content, ok := a.edits[path]; ok {
		return content, nil
	}

	f, ok := a.index[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrPartNotFound)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", path, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", path, err)
	}

	return content, nil
}

// Write replaces the text of an existing member. Writing the text the member
// already holds is a no-op and does not mark it modified.
func (a *Archive) Write(path string, text string) error {
	if _, ok := a.index[path]; !ok {
		return fmt.Errorf("%s: %w", path, ErrPartNotFound)
	}

	current, err := a.ReadBytes(path)
	if err != nil {
		return err
	}
	if string(current) == text {
		return nil
	}

	if _, seen := a.edits[path]; !seen {
		a.order = append(a.order, path)
	}
	a.edits[path] = []byte(text)
	return nil
}

// Modified lists the members written since Open, in write order.
func (a *Archive) Modified() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Serialize produces the archive bytes. Members that were never written are
// copied without recompression so their stored bytes are unchanged.
func (a *Archive) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	if a.reader.Comment != "" {
		if err := w.SetComment(a.reader.Comment); err != nil {
			return nil, fmt.Errorf("failed to set archive comment: %w", err)
		}
	}

	for _, f := range a.files {
		content, modified := a.edits[f.Name]
		if !modified {
			if err := w.Copy(f); err != nil {
				return nil, fmt.Errorf("failed to copy part %s: %w", f.Name, err)
			}
			continue
		}

		method := f.Method
		if method != zip.Store {
			method = zip.Deflate
		}
		header := &zip.FileHeader{
			Name:     f.Name,
			Comment:  f.Comment,
			Method:   method,
			Modified: f.Modified,
		}
		fw, err := w.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("failed to create part %s: %w", f.Name, err)
		}
		if _, err := fw.Write(content); err != nil {
			return nil, fmt.Errorf("failed to write part %s: %w", f.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return buf.Bytes(), nil
}
