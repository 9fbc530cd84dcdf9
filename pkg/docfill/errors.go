package docfill

import (
	"errors"
	"fmt"
	"strings"
)

// ArchiveReadError reports an input that is not a usable document archive:
// not a zip container, missing its main part, or with an unreadable member.
type ArchiveReadError struct {
	Path  string
	Cause error
}

func (e *ArchiveReadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("archive read error for '%s': %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("archive read error: %v", e.Cause)
}

func (e *ArchiveReadError) Unwrap() error {
	return e.Cause
}

// NewArchiveReadError creates a new archive read error
func NewArchiveReadError(path string, cause error) error {
	return &ArchiveReadError{
		Path:  path,
		Cause: cause,
	}
}

// PartParseError reports an eligible part that is not well-formed XML
type PartParseError struct {
	Part   string
	Line   int
	Offset int64
	Cause  error
}

func (e *PartParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in part '%s' at line %d: %v", e.Part, e.Line, e.Cause)
	}
	return fmt.Sprintf("parse error in part '%s' at offset %d: %v", e.Part, e.Offset, e.Cause)
}

func (e *PartParseError) Unwrap() error {
	return e.Cause
}

// NewPartParseError creates a new part parse error
func NewPartParseError(part string, line int, offset int64, cause error) error {
	return &PartParseError{
		Part:   part,
		Line:   line,
		Offset: offset,
		Cause:  cause,
	}
}

// DocumentKindError reports an unknown document kind. It is raised before any
// part of the archive is read.
type DocumentKindError struct {
	Kind string
}

func (e *DocumentKindError) Error() string {
	return fmt.Sprintf("unknown document kind '%s'", e.Kind)
}

// NewDocumentKindError creates a new document kind error
func NewDocumentKindError(kind string) error {
	return &DocumentKindError{Kind: kind}
}

// RegistryError reports an invalid tag definition
type RegistryError struct {
	Token   string
	Message string
}

func (e *RegistryError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("registry error for token '%s': %s", e.Token, e.Message)
	}
	return fmt.Sprintf("registry error: %s", e.Message)
}

// NewRegistryError creates a new registry error
func NewRegistryError(token, message string) error {
	return &RegistryError{
		Token:   token,
		Message: message,
	}
}

// StageError records the pipeline stage a failed call stopped in. The cause
// is one of the typed errors above.
type StageError struct {
	Stage Stage
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Errors returns the collected errors
func (m *MultiError) Errors() []error {
	return append([]error(nil), m.errors...)
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.errors
}

// RecoverError converts a panic recovery value to an error
func RecoverError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}

// IsArchiveReadError checks if an error is or wraps an archive read error
func IsArchiveReadError(err error) bool {
	var target *ArchiveReadError
	return errors.As(err, &target)
}

// IsPartParseError checks if an error is or wraps a part parse error
func IsPartParseError(err error) bool {
	var target *PartParseError
	return errors.As(err, &target)
}

// IsDocumentKindError checks if an error is or wraps a document kind error
func IsDocumentKindError(err error) bool {
	var target *DocumentKindError
	return errors.As(err, &target)
}

// IsRegistryError checks if an error is or wraps a registry error
func IsRegistryError(err error) bool {
	var target *RegistryError
	return errors.As(err, &target)
}

// WarningKind classifies a non-fatal condition
type WarningKind string

const (
	// TokenAmbiguity: overlapping candidates were resolved by longest match.
	TokenAmbiguity WarningKind = "token-ambiguity"
	// UnresolvedToken: a matched token had no value and was blanked.
	UnresolvedToken WarningKind = "unresolved-token"
	// BoundaryRejected: a candidate crossed a paragraph or line break.
	BoundaryRejected WarningKind = "boundary-rejected"
)

// Warning is a non-fatal condition surfaced through GenerationResult. It is
// never returned as an error.
type Warning struct {
	Kind    WarningKind
	Part    string
	Token   string
	Message string
}

func (w Warning) String() string {
	var b strings.Builder
	b.WriteString(string(w.Kind))
	if w.Part != "" {
		fmt.Fprintf(&b, " [%s]", w.Part)
	}
	if w.Token != "" {
		fmt.Fprintf(&b, " %s", w.Token)
	}
	if w.Message != "" {
		fmt.Fprintf(&b, ": %s", w.Message)
	}
	return b.String()
}
