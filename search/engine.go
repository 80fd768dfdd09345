package search

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dhamidi/lexgrep/query"
	"github.com/dhamidi/lexgrep/sandbox"
)

// DefaultMaxResults caps line search hits when the caller does not say.
const DefaultMaxResults = 20

// DefaultContextLines is the context window on each side of a match.
const DefaultContextLines = 2

// corpusMarkers are file_list entries that mean "search everything".
var corpusMarkers = map[string]bool{".": true, "./": true, "all": true, "*": true}

// SearchRequest describes one line search call.
type SearchRequest struct {
	// Query is a plain phrase, a boolean AND/OR expression, or a regex when
	// Regex is set.
	Query string `json:"query"`
	// FileList restricts the search. Entries may be files, directories,
	// globs, or a whole-corpus marker; empty means the whole corpus.
	FileList []string `json:"file_list,omitempty"`
	// MaxResults caps the returned matches (default DefaultMaxResults).
	MaxResults int `json:"max_results,omitempty"`
	// ContextLines is the window on each side (default DefaultContextLines).
	ContextLines int `json:"context_lines,omitempty"`
	// Regex treats Query as a regular expression.
	Regex bool `json:"regex,omitempty"`
	// CaseSensitive disables the default case folding.
	CaseSensitive bool `json:"case_sensitive,omitempty"`
}

// ContextLine is one row of a match's context window.
type ContextLine struct {
	LineNumber int    `json:"line_number"`
	Text       string `json:"text"`
	IsMatch    bool   `json:"is_match,omitempty"`
}

// Match is one line-level hit.
type Match struct {
	// File is the sandbox-relative POSIX path.
	File string `json:"file"`
	// Line is 1-based.
	Line int `json:"line"`
	// Text is the matched line without its terminator.
	Text string `json:"text"`
	// Highlighted is Text with the query terms wrapped in emphasis markers.
	Highlighted string `json:"highlighted,omitempty"`
	// Context is the surrounding window, match line included.
	Context []ContextLine `json:"context,omitempty"`
	// Section is the nearest preceding Markdown heading, if any.
	Section string `json:"section,omitempty"`
	// ByteRange is the absolute [start, end) of the first submatch,
	// suitable for read_file_range.
	ByteRange [2]int `json:"byte_range"`
}

// SearchResult is the payload of a line search. When the matcher is
// unavailable, Error is set and Matches is empty; partial per-file failures
// only thin out Matches.
type SearchResult struct {
	Matches []Match `json:"matches"`
	Error   string  `json:"error,omitempty"`
}

// Engine orchestrates line search over a sandboxed corpus: it compiles the
// query, restricts the file set, drives a Matcher, and assembles structured
// hits with context windows, section headers and byte ranges.
type Engine struct {
	sandbox *sandbox.Sandbox
	matcher Matcher
}

// NewEngine wires an engine to a sandbox and a matcher implementation.
func NewEngine(sb *sandbox.Sandbox, m Matcher) *Engine {
	return &Engine{sandbox: sb, matcher: m}
}

// Search executes req and returns a best-effort result. Only a sandbox
// violation in the caller's own arguments surfaces as an error value; an
// unavailable matcher is reported in-band via SearchResult.Error.
func (e *Engine) Search(ctx context.Context, req SearchRequest) SearchResult {
	if req.MaxResults <= 0 {
		req.MaxResults = DefaultMaxResults
	}
	// Zero coerces to the default too, so a zero-value request gets the
	// standard window; matchers treat 0 as "no context" internally.
	if req.ContextLines <= 0 {
		req.ContextLines = DefaultContextLines
	}

	mreq := Request{
		ContextLines:  req.ContextLines,
		CaseSensitive: req.CaseSensitive,
		MaxCount:      req.MaxResults,
	}

	// Query preprocessing. A plain "a OR b" chain becomes an escaped
	// alternation with regex forced on; full boolean structure goes through
	// the DNF compiler; everything else is a literal phrase unless the
	// caller asked for regex.
	var highlightTerms []string
	if parts := query.SplitTextualOR(req.Query); parts != nil {
		mreq.Pattern = query.AlternationPattern(parts)
		highlightTerms = parts
	} else if usedBoolean, dnf := query.ParseToDNF(req.Query); usedBoolean && len(dnf) > 0 {
		mreq.Conjunctions = dnf
		highlightTerms = query.Terms(dnf)
	} else {
		mreq.Pattern = req.Query
		mreq.Literal = !req.Regex
		highlightTerms = []string{req.Query}
	}

	files, err := e.resolveFileList(req.FileList)
	if err != nil {
		return SearchResult{Matches: []Match{}, Error: err.Error()}
	}
	if len(files) == 0 {
		return SearchResult{Matches: []Match{}}
	}
	mreq.Files = files

	if err := e.matcher.Available(); err != nil {
		return SearchResult{Matches: []Match{}, Error: err.Error()}
	}
	events, err := e.matcher.Search(ctx, mreq)
	if err != nil {
		return SearchResult{Matches: []Match{}, Error: err.Error()}
	}

	matches := e.assemble(events, req)
	sortByYearDescending(matches)
	if len(matches) > req.MaxResults {
		matches = matches[:req.MaxResults]
	}
	if matches == nil {
		matches = []Match{}
	}
	return SearchResult{Matches: matches}.withHighlights(highlightTerms, req.CaseSensitive)
}

// withHighlights fills Highlighted on every match. Kept separate so
// assembly stays free of presentation concerns.
func (r SearchResult) withHighlights(terms []string, caseSensitive bool) SearchResult {
	for i := range r.Matches {
		r.Matches[i].Highlighted = HighlightTerms(r.Matches[i].Text, terms, caseSensitive)
	}
	return r
}

// resolveFileList expands the caller's file_list into sandbox-relative,
// extension-allowed files. Entries that fail resolution are skipped, not
// fatal. An empty list means the whole corpus.
func (e *Engine) resolveFileList(fileList []string) ([]string, error) {
	wholeCorpus := len(fileList) == 0
	var files []string
	seen := make(map[string]bool)
	add := func(rel string) {
		if !seen[rel] && sandbox.AllowedExtension(rel) {
			seen[rel] = true
			files = append(files, rel)
		}
	}

	var corpus []string // lazily listed
	listCorpus := func() []string {
		if corpus == nil {
			all, err := e.sandbox.ListPaths(".")
			if err != nil {
				all = []string{}
			}
			corpus = sandbox.SortedPaths(all)
		}
		return corpus
	}

	for _, entry := range fileList {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if corpusMarkers[entry] {
			wholeCorpus = true
			continue
		}
		abs, err := e.sandbox.ResolveInside(entry)
		if err != nil {
			continue // breakout or bad entry: skip, keep searching the rest
		}
		if info, statErr := e.sandbox.Fs().Stat(abs); statErr == nil {
			if info.IsDir() {
				within, listErr := e.sandbox.ListPaths(entry)
				if listErr == nil {
					for _, rel := range sandbox.SortedPaths(within) {
						add(rel)
					}
				}
				continue
			}
			if rel, relErr := e.sandbox.Rel(abs); relErr == nil {
				add(rel)
			}
			continue
		}
		// Not an existing path: treat as a glob against the corpus.
		if strings.ContainsAny(entry, "*?[{") {
			for _, rel := range listCorpus() {
				if ok, matchErr := doublestar.Match(entry, rel); matchErr == nil && ok {
					add(rel)
				}
			}
		}
	}

	if wholeCorpus {
		for _, rel := range listCorpus() {
			add(rel)
		}
	}
	return files, nil
}

// assemble groups raw matcher events per file and line and builds the
// structured hits: context windows (preferring already-fetched context
// events, falling back to a cached full read), nearest section headers and
// absolute byte ranges.
func (e *Engine) assemble(events []Event, req SearchRequest) []Match {
	type fileEvents struct {
		lines   map[int]string // line number -> text, from match and context events
		matches []Event
	}
	perFile := make(map[string]*fileEvents)
	var fileOrder []string
	for _, ev := range events {
		fe, ok := perFile[ev.Path]
		if !ok {
			fe = &fileEvents{lines: make(map[int]string)}
			perFile[ev.Path] = fe
			fileOrder = append(fileOrder, ev.Path)
		}
		fe.lines[ev.LineNumber] = ev.LineText
		if ev.Type == "match" {
			fe.matches = append(fe.matches, ev)
		}
	}

	// Full-file reads are cached per call; a window edge the matcher never
	// emitted as context still needs its text from somewhere.
	fullRead := make(map[string][]string)
	linesFor := func(rel string) []string {
		if cached, ok := fullRead[rel]; ok {
			return cached
		}
		data, err := e.sandbox.ReadFileBytes(rel)
		if err != nil {
			fullRead[rel] = nil
			return nil
		}
		lines := sandbox.Lines(data)
		fullRead[rel] = lines
		return lines
	}

	var matches []Match
	emitted := make(map[string]bool)
	for _, path := range fileOrder {
		fe := perFile[path]
		for _, ev := range fe.matches {
			key := path + ":" + strconv.Itoa(ev.LineNumber)
			if emitted[key] {
				continue
			}
			emitted[key] = true

			m := Match{
				File: path,
				Line: ev.LineNumber,
				Text: ev.LineText,
			}

			lineStart, err := e.sandbox.LineStartOffset(path, ev.LineNumber)
			if err != nil {
				continue // unreadable file: drop this hit, keep the rest
			}
			m.ByteRange = [2]int{lineStart + ev.SubStart, lineStart + ev.SubEnd}

			lo := ev.LineNumber - req.ContextLines
			if lo < 1 {
				lo = 1
			}
			hi := ev.LineNumber + req.ContextLines
			for n := lo; n <= hi; n++ {
				text, ok := fe.lines[n]
				if !ok {
					full := linesFor(path)
					if n > len(full) {
						break
					}
					text = full[n-1]
				}
				m.Context = append(m.Context, ContextLine{
					LineNumber: n,
					Text:       text,
					IsMatch:    n == ev.LineNumber,
				})
			}

			m.Section = nearestSection(linesFor(path), ev.LineNumber)
			matches = append(matches, m)
		}
	}
	return matches
}

var headingPattern = regexp.MustCompile(`^#{1,6}\s+\S`)

// nearestSection scans upward from just before line for the closest
// Markdown heading. Empty when the file has none above the match.
func nearestSection(lines []string, line int) string {
	if line > len(lines) {
		line = len(lines)
	}
	for n := line - 1; n >= 1; n-- {
		if headingPattern.MatchString(lines[n-1]) {
			return strings.TrimSpace(lines[n-1])
		}
	}
	return ""
}

var trailingYearPattern = regexp.MustCompile(`(\d{4})\.[^.]+$`)

// fileYear extracts a trailing 4-digit year from a filename, e.g.
// "urteile_2021.md" -> 2021. Files without one report a very large year so
// they sort ahead of dated files under the descending order.
func fileYear(path string) int {
	m := trailingYearPattern.FindStringSubmatch(path)
	if m == nil {
		return int(^uint(0) >> 1) // max int
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return year
}

// sortByYearDescending orders newer court-decision files first while
// preserving the matcher's traversal order within the same year.
func sortByYearDescending(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return fileYear(matches[i].File) > fileYear(matches[j].File)
	})
}
