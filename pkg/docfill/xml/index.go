package xml

import (
	"bytes"
	"sort"
	"strconv"
	"unicode/utf8"
)

var (
	cdataOpen    = []byte("<![CDATA[")
	commentOpen  = []byte("<!--")
	commentClose = []byte("-->")
	piOpen       = []byte("<?")
	piClose      = []byte("?>")
)

// CharRef maps one logical character to the node that produced it and the
// encoded byte range of that character in the part.
type CharRef struct {
	Node  int
	Start int
	End   int
}

// Index is the logical plain-text view of a part. Positions are rune
// indices into the logical text.
type Index struct {
	text   []rune
	chars  []CharRef
	breaks []int
}

func (ix *Index) add(r rune, ref CharRef) {
	ix.text = append(ix.text, r)
	ix.chars = append(ix.chars, ref)
}

func (ix *Index) addBreak() {
	pos := len(ix.text)
	if n := len(ix.breaks); n > 0 && ix.breaks[n-1] == pos {
		return
	}
	ix.breaks = append(ix.breaks, pos)
}

// Len returns the number of logical characters.
func (ix *Index) Len() int {
	return len(ix.text)
}

// Runes returns the logical text. The slice must not be modified.
func (ix *Index) Runes() []rune {
	return ix.text
}

func (ix *Index) String() string {
	return string(ix.text)
}

// Slice returns the logical text in [start, end).
func (ix *Index) Slice(start, end int) string {
	return string(ix.text[start:end])
}

// Char returns the origin of logical character i.
func (ix *Index) Char(i int) CharRef {
	return ix.chars[i]
}

// Breaks returns the sorted hard-boundary positions. A boundary at position
// k lies between logical characters k-1 and k.
func (ix *Index) Breaks() []int {
	return ix.breaks
}

// BreakWithin reports whether a hard boundary falls strictly inside
// [start, end).
func (ix *Index) BreakWithin(start, end int) bool {
	i := sort.SearchInts(ix.breaks, start+1)
	return i < len(ix.breaks) && ix.breaks[i] < end
}

// decodeContent walks the encoded content of a text node and emits every
// decoded character with its absolute encoded range. The content has already
// been validated by the decoder; CDATA sections are handled by the caller.
func decodeContent(raw []byte, base int, emit func(r rune, start, end int)) {
	i := 0
	for i < len(raw) {
		switch {
		case raw[i] == '&':
			j := bytes.IndexByte(raw[i:], ';')
			if j < 0 {
				return
			}
			emit(decodeEntity(raw[i+1:i+j]), base+i, base+i+j+1)
			i += j + 1
		case bytes.HasPrefix(raw[i:], commentOpen):
			i = skipPast(raw, i, commentClose)
		case bytes.HasPrefix(raw[i:], piOpen):
			i = skipPast(raw, i, piClose)
		case raw[i] == '\r':
			if i+1 < len(raw) && raw[i+1] == '\n' {
				emit('\n', base+i, base+i+2)
				i += 2
			} else {
				emit('\n', base+i, base+i+1)
				i++
			}
		default:
			r, size := utf8.DecodeRune(raw[i:])
			emit(r, base+i, base+i+size)
			i += size
		}
	}
}

func skipPast(raw []byte, i int, marker []byte) int {
	k := bytes.Index(raw[i:], marker)
	if k < 0 {
		return len(raw)
	}
	return i + k + len(marker)
}

func decodeEntity(name []byte) rune {
	switch string(name) {
	case "amp":
		return '&'
	case "lt":
		return '<'
	case "gt":
		return '>'
	case "quot":
		return '"'
	case "apos":
		return '\''
	}

	if len(name) > 1 && name[0] == '#' {
		var (
			n   uint64
			err error
		)
		if name[1] == 'x' || name[1] == 'X' {
			n, err = strconv.ParseUint(string(name[2:]), 16, 32)
		} else {
			n, err = strconv.ParseUint(string(name[1:]), 10, 32)
		}
		if err == nil && utf8.ValidRune(rune(n)) {
			return rune(n)
		}
	}
	return utf8.RuneError
}

// DecodeText decodes the encoded character content of a text node.
func DecodeText(raw []byte) string {
	var out []rune
	decodeContent(raw, 0, func(r rune, _, _ int) {
		out = append(out, r)
	})
	return string(out)
}
