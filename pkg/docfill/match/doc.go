// Package match finds placeholder tokens such as <etude_numero> in the
// logical text of a part.
//
// Matching runs in two passes per token name. The exact pass looks for the
// delimited form verbatim. Only when a name has no exact occurrence does the
// bounded-window pass look for the bare name surrounded by the delimiters with
// a little whitespace in between, as left behind by autocorrect or manual
// edits ("< etude_numero>"). A bare name in ordinary prose is never a match.
//
// All candidates are collected before any overlap is resolved, so positions
// always refer to the unmodified text. Overlaps are resolved left to right,
// keeping the longest candidate at each position; a dropped candidate for a
// different token is reported as an Ambiguity.
//
// A candidate containing a hard boundary (paragraph edge or explicit break)
// is reported in Result.Rejected unless WithBreaksAllowed is set.
package match
