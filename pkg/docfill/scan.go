package docfill

import (
	"sort"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/parts"
)

// TokenOccurrence is one token found in a template.
type TokenOccurrence struct {
	Token string
	// Text is the occurrence as typed, padding included.
	Text  string
	Exact bool
}

// PartReport lists what Scan found in one eligible part.
type PartReport struct {
	Path    string
	Role    parts.Role
	Tokens  []TokenOccurrence
	Unknown []string
}

// ScanReport describes the tokens of a template without changing it.
type ScanReport struct {
	Kind  DocumentKind
	Parts []PartReport
	// Counts holds occurrences per registered token.
	Counts map[string]int
	// Unknown lists delimited identifiers that are not registered, in
	// first-appearance order.
	Unknown []string
	// Unused lists registered tokens the template never uses, sorted.
	Unused   []string
	Warnings []Warning
}

// Scan inspects a template with the same normalizer and matcher as Generate.
// It fails on the same fatal conditions and never produces output bytes.
func (e *Engine) Scan(input []byte, kind DocumentKind) (*ScanReport, error) {
	if !kind.Valid() {
		return nil, NewDocumentKindError(string(kind))
	}

	c := e.newCall(kind, nil)
	_, docs, err := c.load(input, kind)
	if err != nil {
		return nil, err
	}

	report := &ScanReport{
		Kind:   kind,
		Counts: make(map[string]int),
	}
	seenUnknown := make(map[string]bool)

	for _, p := range docs {
		pr := PartReport{Path: p.Path, Role: p.Role}
		text := p.doc.Index.Runes()

		found := c.find(p)
		for _, s := range found.Spans {
			pr.Tokens = append(pr.Tokens, TokenOccurrence{
				Token: s.Token,
				Text:  string(text[s.Start:s.End]),
				Exact: s.Exact,
			})
			report.Counts[s.Token]++
		}

		for _, u := range e.matcher.Unknown(text, e.registry.Has) {
			pr.Unknown = append(pr.Unknown, u.Token)
			if !seenUnknown[u.Token] {
				seenUnknown[u.Token] = true
				report.Unknown = append(report.Unknown, u.Token)
			}
		}

		report.Parts = append(report.Parts, pr)
	}

	for _, name := range e.registry.Names() {
		if report.Counts[name] == 0 {
			report.Unused = append(report.Unused, name)
		}
	}
	sort.Strings(report.Unused)
	report.Warnings = c.warnings

	c.log.WithFields(Fields{
		"parts":   len(report.Parts),
		"unknown": len(report.Unknown),
	}).Debug("scan complete")

	return report, nil
}
