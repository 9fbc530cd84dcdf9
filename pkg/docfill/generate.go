package docfill

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/archive"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/match"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/parts"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/render"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/xml"
)

// DocumentKind selects which archive members are scanned.
type DocumentKind = parts.Kind

const (
	WordProcessor = parts.WordProcessor
	SlideDeck     = parts.SlideDeck
)

// ParseDocumentKind maps a kind name or alias (docx, pptx, ...) to a DocumentKind.
func ParseDocumentKind(s string) (DocumentKind, error) {
	kind, err := parts.ParseKind(s)
	if err != nil {
		return "", NewDocumentKindError(s)
	}
	return kind, nil
}

// Stage is a step of a generation call.
type Stage string

const (
	StageLoaded          Stage = "loaded"
	StagePartsEnumerated Stage = "parts-enumerated"
	StageNormalized      Stage = "normalized"
	StageMatched         Stage = "matched"
	StageSpliced         Stage = "spliced"
	StageCommitted       Stage = "committed"
	StageSerialized      Stage = "serialized"
)

// GenerationResult is everything a call returns. The engine keeps nothing
// once it has been returned.
type GenerationResult struct {
	// Output is the rewritten archive. When nothing changed it is a copy of
	// the input.
	Output []byte
	// Replacements counts replaced occurrences per token name.
	Replacements map[string]int
	// Unresolved lists matched tokens without a value, in first-appearance
	// order, once each.
	Unresolved []string
	Warnings   []Warning
	// ModifiedParts lists rewritten members in processing order.
	ModifiedParts []string
	CallID        string
}

// Engine runs generation calls against one registry. It holds no per-call
// state, so one Engine may serve concurrent calls.
type Engine struct {
	config   *Config
	registry *Registry
	resolver *Resolver
	matcher  *match.Matcher
	logger   *Logger
}

// New creates an engine with the global configuration.
func New(registry *Registry) (*Engine, error) {
	return NewWithConfig(registry, GetGlobalConfig())
}

// NewWithConfig creates an engine with a custom configuration. Unset string
// and size fields take their defaults.
func NewWithConfig(registry *Registry, config *Config) (*Engine, error) {
	if registry == nil {
		return nil, NewRegistryError("", "engine needs a registry")
	}
	config = NewConfigWithDefaults(config)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	matcher, err := match.New(
		match.WithDelimiters(config.OpenDelimiter, config.CloseDelimiter),
		match.WithWindow(config.MatchWindow),
		match.WithBreaksAllowed(config.AllowBreakInToken),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	errs := NewMultiError()
	for _, name := range registry.Names() {
		if err := matcher.CheckName(name); err != nil {
			errs.Add(NewRegistryError(name, err.Error()))
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	resolver, err := NewResolver(registry, config.Locale)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Engine{
		config:   config,
		registry: registry,
		resolver: resolver,
		matcher:  matcher,
	}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Resolver returns the resolver, for registering computed categories before
// the engine is used.
func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// SetLogger routes the engine's records to l. A nil logger restores the
// global one.
func (e *Engine) SetLogger(l *Logger) {
	e.logger = l
}

func (e *Engine) log() *Logger {
	if e.logger != nil {
		return e.logger
	}
	return GetLogger()
}

// Generate replaces every registered token in the eligible parts of input.
// Fatal conditions (unknown kind, unreadable archive, malformed part) return
// an error and no output; everything else is reported in the result.
func Generate(registry *Registry, input []byte, kind DocumentKind, values ValueContext) (*GenerationResult, error) {
	engine, err := New(registry)
	if err != nil {
		return nil, err
	}
	return engine.Generate(input, kind, values)
}

// call is the state of one Generate or Scan call.
type call struct {
	engine *Engine
	id     string
	log    *Logger
	stage  Stage
	values ValueContext

	resolved   map[string]string
	unresolved []string
	warnings   []Warning
}

func (e *Engine) newCall(kind DocumentKind, values ValueContext) *call {
	id := uuid.NewString()
	return &call{
		engine:   e,
		id:       id,
		log:      e.log().WithFields(Fields{"call_id": id, "kind": string(kind)}),
		values:   values,
		resolved: make(map[string]string),
	}
}

func (c *call) fail(stage Stage, err error) error {
	c.log.WithField("stage", string(stage)).Error("call failed: %v", err)
	return &StageError{Stage: stage, Cause: err}
}

// parsedPart is an eligible part after normalization.
type parsedPart struct {
	parts.Part
	doc *xml.Part
}

// load runs the stages shared by Generate and Scan: open the archive, check
// the main part, then read and normalize every eligible part. Any failure is
// fatal.
func (c *call) load(input []byte, kind DocumentKind) (*archive.Archive, []parsedPart, error) {
	c.stage = StageLoaded
	arc, err := archive.Open(input)
	if err != nil {
		return nil, nil, c.fail(StageLoaded, NewArchiveReadError("", err))
	}
	main, err := parts.MainPart(kind)
	if err != nil {
		return nil, nil, c.fail(StageLoaded, NewDocumentKindError(string(kind)))
	}
	if !arc.Has(main) {
		return nil, nil, c.fail(StageLoaded, NewArchiveReadError(main, errors.New("main part is missing")))
	}

	c.stage = StagePartsEnumerated
	selected, err := parts.Select(kind, arc.ListParts())
	if err != nil {
		return nil, nil, c.fail(StagePartsEnumerated, NewDocumentKindError(string(kind)))
	}
	c.log.Debug("eligible parts: %d", len(selected))

	c.stage = StageNormalized
	parsed := make([]parsedPart, 0, len(selected))
	for _, p := range selected {
		size, err := arc.Size(p.Path)
		if err != nil {
			return nil, nil, c.fail(StageNormalized, NewArchiveReadError(p.Path, err))
		}
		if size > c.engine.config.MaxPartSize {
			return nil, nil, c.fail(StageNormalized, NewArchiveReadError(p.Path,
				fmt.Errorf("part is %s, limit is %s", humanize.IBytes(uint64(size)), humanize.IBytes(uint64(c.engine.config.MaxPartSize)))))
		}

		raw, err := arc.ReadBytes(p.Path)
		if err != nil {
			return nil, nil, c.fail(StageNormalized, NewArchiveReadError(p.Path, err))
		}
		doc, err := xml.Parse(p.Path, raw)
		if err != nil {
			return nil, nil, c.fail(StageNormalized, partParseError(p.Path, err))
		}
		parsed = append(parsed, parsedPart{Part: p, doc: doc})
	}
	return arc, parsed, nil
}

func partParseError(path string, err error) error {
	var pe *xml.ParseError
	if errors.As(err, &pe) {
		return NewPartParseError(path, pe.Line, pe.Offset, pe.Err)
	}
	return NewPartParseError(path, 0, 0, err)
}

// find matches the registry against one part and records diagnostics.
func (c *call) find(p parsedPart) match.Result {
	res := c.engine.matcher.Find(p.doc.Index.Runes(), c.engine.registry.Names(), p.doc.Index)

	for _, a := range res.Ambiguities {
		c.warn(Warning{
			Kind:    TokenAmbiguity,
			Part:    p.Path,
			Token:   a.Kept.Token,
			Message: fmt.Sprintf("overlaps %s at offset %d, kept the longer match", a.Dropped.Token, a.Dropped.Start),
		})
	}
	for _, r := range res.Rejected {
		c.warn(Warning{
			Kind:    BoundaryRejected,
			Part:    p.Path,
			Token:   r.Token,
			Message: fmt.Sprintf("occurrence at offset %d spans a paragraph or line break", r.Start),
		})
	}
	return res
}

func (c *call) warn(w Warning) {
	c.warnings = append(c.warnings, w)
	c.log.WithFields(Fields{"part": w.Part, "token": w.Token}).Warn("%s: %s", w.Kind, w.Message)
}

// value resolves a token once per call so every occurrence gets the same
// text.
func (c *call) value(token, part string) string {
	if v, ok := c.resolved[token]; ok {
		return v
	}
	v, ok := c.engine.resolver.Resolve(token, c.values)
	if !ok {
		c.unresolved = append(c.unresolved, token)
		c.warn(Warning{
			Kind:    UnresolvedToken,
			Part:    part,
			Token:   token,
			Message: "no value in context, replaced with an empty string",
		})
	}
	c.resolved[token] = v
	return v
}

// Generate runs one call: load, select parts, normalize, match, resolve,
// splice, commit and serialize. Parts are processed in a fixed order so the
// output is reproducible. No output is produced unless every stage succeeds.
func (e *Engine) Generate(input []byte, kind DocumentKind, values ValueContext) (result *GenerationResult, err error) {
	if !kind.Valid() {
		return nil, NewDocumentKindError(string(kind))
	}

	c := e.newCall(kind, values)
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = c.fail(c.stage, RecoverError(r))
		}
	}()

	arc, docs, err := c.load(input, kind)
	if err != nil {
		return nil, err
	}

	result = &GenerationResult{
		Replacements: make(map[string]int),
		CallID:       c.id,
	}

	type commit struct {
		path    string
		content []byte
	}
	var commits []commit
	opts := render.Options{LineBreaks: e.config.LineBreaks}

	for _, p := range docs {
		c.stage = StageMatched
		found := c.find(p)

		reps := make([]render.Replacement, 0, len(found.Spans))
		for _, s := range found.Spans {
			reps = append(reps, render.Replacement{
				Start: s.Start,
				End:   s.End,
				Value: c.value(s.Token, p.Path),
				Token: s.Token,
			})
			result.Replacements[s.Token]++
		}

		c.stage = StageSpliced
		out, err := render.Splice(p.doc, reps, opts)
		if err != nil {
			return nil, c.fail(StageSpliced, fmt.Errorf("part %s: %w", p.Path, err))
		}

		c.log.WithFields(Fields{
			"part":    p.Path,
			"role":    string(p.Role),
			"matches": len(found.Spans),
			"removed": out.Removed,
		}).Debug("part processed")

		if out.Modified {
			commits = append(commits, commit{path: p.Path, content: out.Content})
		}
	}

	c.stage = StageCommitted
	for _, cm := range commits {
		if err := arc.Write(cm.path, string(cm.content)); err != nil {
			return nil, c.fail(StageCommitted, NewArchiveReadError(cm.path, err))
		}
	}
	result.ModifiedParts = arc.Modified()

	c.stage = StageSerialized
	if len(result.ModifiedParts) == 0 {
		result.Output = append([]byte(nil), input...)
	} else {
		result.Output, err = arc.Serialize()
		if err != nil {
			return nil, c.fail(StageSerialized, NewArchiveReadError("", err))
		}
	}

	result.Unresolved = c.unresolved
	result.Warnings = c.warnings

	c.log.WithFields(Fields{
		"modified_parts": len(result.ModifiedParts),
		"unresolved":     len(result.Unresolved),
		"size":           humanize.IBytes(uint64(len(result.Output))),
		"duration":       time.Since(started).Round(time.Microsecond),
	}).Info("generation complete")

	return result, nil
}
