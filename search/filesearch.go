package search

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dhamidi/lexgrep/query"
	"github.com/dhamidi/lexgrep/sandbox"
)

// FileSearchRequest describes one whole-file boolean search.
type FileSearchRequest struct {
	// Query is a boolean AND/OR expression evaluated against whole file
	// contents; a plain multi-word query is an implicit AND of its words.
	// Empty matches every file the glob admits.
	Query string `json:"query,omitempty"`
	// Glob limits the considered files; empty means the configured default.
	// Brace alternation like **/*.{md,txt} is supported.
	Glob string `json:"glob,omitempty"`
	// CaseSensitive disables the default case folding of terms and content.
	CaseSensitive bool `json:"case_sensitive,omitempty"`
	// MaxResults caps the returned files; 0 means the configured default.
	MaxResults int `json:"max_results,omitempty"`
}

// FileSearchResult lists matching files in traversal order. There is no
// relevance ordering here: collection stops as soon as MaxResults files
// are found.
type FileSearchResult struct {
	Files []string `json:"files"`
	Error string   `json:"error,omitempty"`
}

// FileSearcher applies boolean queries at whole-file scope to find
// candidate documents, independent of the line matcher.
type FileSearcher struct {
	sandbox     *sandbox.Sandbox
	defaultGlob string
	defaultMax  int
}

// NewFileSearcher wires a file searcher with the configured defaults.
func NewFileSearcher(sb *sandbox.Sandbox, defaultGlob string, defaultMax int) *FileSearcher {
	return &FileSearcher{sandbox: sb, defaultGlob: defaultGlob, defaultMax: defaultMax}
}

// Search walks every allowed file under the root matching the glob, reads
// its full content, and keeps it if any conjunction's terms are all present
// somewhere in the content. Unreadable files are skipped.
func (f *FileSearcher) Search(req FileSearchRequest) FileSearchResult {
	glob := req.Glob
	if glob == "" {
		glob = f.defaultGlob
	}
	limit := req.MaxResults
	if limit <= 0 {
		limit = f.defaultMax
	}

	termSets := buildTermSets(req.Query)

	all, err := f.sandbox.ListPaths(".")
	if err != nil {
		return FileSearchResult{Files: []string{}, Error: err.Error()}
	}

	matched := []string{}
	for _, rel := range sandbox.SortedPaths(all) {
		if ok, matchErr := doublestar.Match(glob, rel); matchErr != nil || !ok {
			continue
		}
		if len(termSets) > 0 {
			content, readErr := f.sandbox.ReadFileBytes(rel)
			if readErr != nil {
				continue
			}
			if !anyConjunctionMatches(decodeUTF8(content), termSets, req.CaseSensitive) {
				continue
			}
		}
		matched = append(matched, rel)
		if len(matched) >= limit {
			break
		}
	}
	return FileSearchResult{Files: matched}
}

// buildTermSets derives the DNF term sets for a file search query: boolean
// queries use the compiler's conjunctions, plain multi-word queries become
// one implicit AND conjunction, and a single word or phrase is one
// single-term conjunction. An empty query yields no term sets.
func buildTermSets(q string) [][]string {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	usedBoolean, dnf := query.ParseToDNF(q)
	if usedBoolean && len(dnf) > 0 {
		return dnf
	}
	words := strings.Fields(q)
	if len(words) > 1 {
		return [][]string{words}
	}
	return [][]string{{q}}
}

func anyConjunctionMatches(content string, termSets [][]string, caseSensitive bool) bool {
	hay := content
	if !caseSensitive {
		hay = strings.ToLower(content)
	}
	for _, conj := range termSets {
		all := true
		for _, term := range conj {
			if term == "" {
				continue
			}
			if !caseSensitive {
				term = strings.ToLower(term)
			}
			if !strings.Contains(hay, term) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}
