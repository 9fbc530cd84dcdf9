package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-docfill/pkg/docfill"
)

const version = "0.1.0"

const (
	exitOK         = 0
	exitFatal      = 1
	exitUnresolved = 2
)

func main() {
	os.Exit(runWithArgs(os.Args[1:], os.Stdout, os.Stderr))
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return exitFatal
	}

	docfill.SetGlobalConfig(docfill.ConfigFromEnvironment())

	switch args[0] {
	case "generate":
		return runGenerate(args[1:], stdout, stderr)
	case "scan":
		return runScan(args[1:], stdout, stderr)
	case "tags":
		return runTags(args[1:], stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "docfill version %s\n", version)
		return exitOK
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", args[0])
		usage(stderr)
		return exitFatal
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docfill <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  generate   Replace tokens in a template with values")
	fmt.Fprintln(w, "  scan       List the tokens a template uses")
	fmt.Fprintln(w, "  tags       List the tokens of a registry")
	fmt.Fprintln(w, "  version    Show version information")
}

func runGenerate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	registryPath := fs.String("registry", "", "path to the tag registry (YAML)")
	valuesPath := fs.String("values", "", "path to the value context (YAML or JSON)")
	kindName := fs.String("kind", "", "document kind: word-processor or slide-deck (default: from -in extension)")
	inPath := fs.String("in", "", "template archive")
	outPath := fs.String("out", "", "output archive")
	strict := fs.Bool("strict", false, "fail with exit code 2 and write nothing when a token has no value")
	if err := fs.Parse(args); err != nil {
		return exitFatal
	}
	if *registryPath == "" || *inPath == "" || *outPath == "" {
		fmt.Fprintln(stderr, "error: -registry, -in and -out are required")
		fs.Usage()
		return exitFatal
	}

	engine, err := newEngine(*registryPath)
	if err != nil {
		return fatal(stderr, err)
	}
	kind, err := resolveKind(*kindName, *inPath)
	if err != nil {
		return fatal(stderr, err)
	}
	values, err := loadValues(*valuesPath)
	if err != nil {
		return fatal(stderr, err)
	}
	input, err := os.ReadFile(*inPath)
	if err != nil {
		return fatal(stderr, err)
	}

	result, err := engine.Generate(input, kind, values)
	if err != nil {
		return fatal(stderr, err)
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}
	if len(result.Unresolved) > 0 {
		fmt.Fprintf(stderr, "unresolved tokens: %s\n", strings.Join(result.Unresolved, ", "))
		if *strict {
			return exitUnresolved
		}
	}

	if err := os.WriteFile(*outPath, result.Output, 0o644); err != nil {
		return fatal(stderr, err)
	}

	total := 0
	for _, n := range result.Replacements {
		total += n
	}
	fmt.Fprintf(stdout, "%s: %d replacement(s) in %d part(s), %s\n",
		*outPath, total, len(result.ModifiedParts), humanize.Bytes(uint64(len(result.Output))))
	return exitOK
}

func runScan(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	registryPath := fs.String("registry", "", "path to the tag registry (YAML)")
	kindName := fs.String("kind", "", "document kind (default: from -in extension)")
	inPath := fs.String("in", "", "template archive")
	if err := fs.Parse(args); err != nil {
		return exitFatal
	}
	if *registryPath == "" || *inPath == "" {
		fmt.Fprintln(stderr, "error: -registry and -in are required")
		fs.Usage()
		return exitFatal
	}

	engine, err := newEngine(*registryPath)
	if err != nil {
		return fatal(stderr, err)
	}
	kind, err := resolveKind(*kindName, *inPath)
	if err != nil {
		return fatal(stderr, err)
	}
	input, err := os.ReadFile(*inPath)
	if err != nil {
		return fatal(stderr, err)
	}

	report, err := engine.Scan(input, kind)
	if err != nil {
		return fatal(stderr, err)
	}

	for _, p := range report.Parts {
		fmt.Fprintf(stdout, "%s (%s)\n", p.Path, p.Role)
		for _, occ := range p.Tokens {
			note := ""
			if !occ.Exact {
				note = " (padded)"
			}
			fmt.Fprintf(stdout, "  %-24s %q%s\n", occ.Token, occ.Text, note)
		}
		for _, u := range p.Unknown {
			fmt.Fprintf(stdout, "  %-24s unknown\n", u)
		}
	}

	names := make([]string, 0, len(report.Counts))
	for name := range report.Counts {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(stdout, "Counts:")
	for _, name := range names {
		fmt.Fprintf(stdout, "  %-24s %d\n", name, report.Counts[name])
	}
	if len(report.Unused) > 0 {
		fmt.Fprintf(stdout, "Unused: %s\n", strings.Join(report.Unused, ", "))
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}
	return exitOK
}

func runTags(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tags", flag.ContinueOnError)
	fs.SetOutput(stderr)
	registryPath := fs.String("registry", "", "path to the tag registry (YAML)")
	if err := fs.Parse(args); err != nil {
		return exitFatal
	}
	if *registryPath == "" {
		fmt.Fprintln(stderr, "error: -registry is required")
		fs.Usage()
		return exitFatal
	}

	registry, err := docfill.LoadRegistryFile(*registryPath)
	if err != nil {
		return fatal(stderr, err)
	}
	cfg := docfill.GetGlobalConfig()
	for _, def := range registry.Definitions() {
		field := def.Category + "." + def.Field
		line := fmt.Sprintf("%-28s %-32s", def.Delimited(cfg.OpenDelimiter, cfg.CloseDelimiter), field)
		if def.Description != "" {
			line += " " + def.Description
		}
		fmt.Fprintln(stdout, strings.TrimRight(line, " "))
	}
	return exitOK
}

func newEngine(registryPath string) (*docfill.Engine, error) {
	registry, err := docfill.LoadRegistryFile(registryPath)
	if err != nil {
		return nil, err
	}
	return docfill.New(registry)
}

// resolveKind uses the explicit kind when given and the file extension
// otherwise.
func resolveKind(name, path string) (docfill.DocumentKind, error) {
	if name == "" {
		name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	return docfill.ParseDocumentKind(name)
}

func loadValues(path string) (docfill.ValueContext, error) {
	if path == "" {
		return docfill.ValueContext{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var values docfill.ValueContext
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("values file %s: %w", path, err)
	}
	if values == nil {
		values = docfill.ValueContext{}
	}
	return values, nil
}

func fatal(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "error: %v\n", err)
	var stage *docfill.StageError
	if errors.As(err, &stage) {
		fmt.Fprintf(stderr, "failed at stage: %s\n", stage.Stage)
	}
	return exitFatal
}
