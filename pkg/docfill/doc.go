// Package docfill replaces placeholder tokens in word-processor (DOCX) and
// slide-deck (PPTX) templates.
//
// Template authors type tokens such as <etude_numero> anywhere in the
// document text. Editors often store such a token as several fragments in
// separate runs (spell-check marks, autocorrect, font changes); docfill
// rebuilds the text the author sees, finds the tokens however fragmented they
// are, and writes the values back into the markup. Everything else in the
// archive is kept: members without tokens are copied byte for byte.
//
// # Quick Start
//
//	registry, err := docfill.LoadRegistryFile("tags.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	engine, err := docfill.New(registry)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := engine.Generate(template, docfill.WordProcessor, docfill.ValueContext{
//	    "etude": {"numeroMission": "E2024-001", "location": "Paris"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("out.docx", result.Output, 0644)
//
// # Registry
//
// Tokens are declared once, in YAML, and map to a category and a field of the
// ValueContext:
//
//	locale: fr
//	tags:
//	  - name: etude_numero
//	    category: etude
//	    field: numeroMission
//	    example: E2024-001
//	  - name: client_nom
//	    category: client
//	    field: nom
//	    transform: upper
//	  - name: date_signature
//	    category: contrat
//	    field: signature
//	    layout: 02 January 2006
//
// Each category reads its fields with FieldAccessor unless another accessor is
// installed with Resolver.RegisterCategory.
//
// # Results and Errors
//
// An unknown document kind, an input that is not a zip archive, a missing main
// part and a malformed eligible part are fatal: Generate returns an error and
// no output. Tokens without a value are replaced with an empty string and
// listed in GenerationResult.Unresolved; overlapping tokens and tokens
// crossing a paragraph break are reported as warnings.
//
// # Configuration
//
// Config is read from DOCFILL_* environment variables (see
// ConfigFromEnvironment) or passed to NewWithConfig. Logging goes through the
// leveled Logger; every call is tagged with a call_id field.
//
// # Concurrency
//
// A Registry and an Engine may be shared by any number of goroutines. Each
// call owns its archive and context and keeps nothing after it returns.
package docfill
