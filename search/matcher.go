// Package search implements the line-oriented search engine, whole-file
// boolean search and clamped range reads over a sandboxed legal document
// corpus.
package search

import "context"

// Request describes one matcher invocation over a set of sandboxed files.
type Request struct {
	// Pattern is the regex (or literal, see Literal) handed to the matcher.
	Pattern string
	// Conjunctions carries the DNF of a boolean query. The ripgrep matcher
	// compiles it into a lookahead pattern itself (see PCRE); the native
	// matcher evaluates the conjunctions directly because Go's regexp engine
	// has no lookahead.
	Conjunctions [][]string
	// Files are sandbox-relative paths to search. Must not be empty.
	Files []string
	// ContextLines is the number of surrounding lines to emit on each side
	// of a match.
	ContextLines int
	// CaseSensitive disables the default case-insensitive matching.
	CaseSensitive bool
	// Literal treats Pattern as fixed text rather than a regex.
	Literal bool
	// PCRE requests the PCRE engine (lookahead support) from matchers that
	// shell out; the native matcher ignores it.
	PCRE bool
	// MaxCount caps matches per file. Zero means no per-file cap.
	MaxCount int
}

// Event is one entry of the matcher's structured output stream, modeled on
// ripgrep's --json events. Context events carry no submatches.
type Event struct {
	// Type is "match" or "context"; begin/end framing events are consumed
	// by the matchers and not surfaced.
	Type string
	// Path is the sandbox-relative POSIX path of the file.
	Path string
	// LineNumber is 1-based.
	LineNumber int
	// LineText is the full line, terminator stripped.
	LineText string
	// SubStart and SubEnd delimit the first submatch as byte offsets within
	// the line. Valid only for Type == "match".
	SubStart int
	SubEnd   int
}

// Matcher produces match/context events for a pattern over a file set. Both
// implementations (ripgrep subprocess, native scanner) satisfy the same
// event contract, so the engine is oblivious to which one it drives.
type Matcher interface {
	// Available reports whether the matcher can run at all; a non-nil error
	// is a recoverable condition surfaced in the search result, not thrown.
	Available() error
	// Search runs one invocation to completion and returns all events in
	// stream order.
	Search(ctx context.Context, req Request) ([]Event, error)
}
