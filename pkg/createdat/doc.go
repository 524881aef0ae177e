// Package createdat resolves a recovered file's original timestamp.
//
// Raw timestamps come from format-specific metadata and are often damaged by
// stray non-text bytes or written in an unexpected date grammar.
// Resolution walks a fixed fallback chain (strict tag parse, lenient tag
// parse, container date, filesystem mtime) and always produces a result.
package createdat
