package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dhamidi/lexgrep/sandbox"
)

// NativeMatcher scans files in-process and emits the same event stream as
// the ripgrep adapter. It needs no external binary, which makes it the
// matcher of choice for tests and ripgrep-less hosts. Boolean queries are
// evaluated directly against their DNF conjunctions since RE2 has no
// lookahead.
type NativeMatcher struct {
	sandbox *sandbox.Sandbox
}

// NewNativeMatcher returns an in-process matcher over sb.
func NewNativeMatcher(sb *sandbox.Sandbox) *NativeMatcher {
	return &NativeMatcher{sandbox: sb}
}

// Available always succeeds; the native matcher has no external dependency.
func (m *NativeMatcher) Available() error { return nil }

// lineTest decides whether a line matches and locates the first submatch.
type lineTest struct {
	// pattern is set for plain regex/literal requests.
	pattern *regexp.Regexp
	// conjunctions with per-term regexes are set for boolean requests; a
	// line matches when every term of at least one conjunction occurs on it.
	conjunctions [][]*regexp.Regexp
}

func compileLineTest(req Request) (*lineTest, error) {
	flags := ""
	if !req.CaseSensitive {
		flags = "(?i)"
	}
	if len(req.Conjunctions) > 0 {
		test := &lineTest{}
		for _, conj := range req.Conjunctions {
			var terms []*regexp.Regexp
			for _, term := range conj {
				if term == "" {
					continue
				}
				re, err := regexp.Compile(flags + regexp.QuoteMeta(term))
				if err != nil {
					return nil, fmt.Errorf("search: compiling term %q: %w", term, err)
				}
				terms = append(terms, re)
			}
			if len(terms) > 0 {
				test.conjunctions = append(test.conjunctions, terms)
			}
		}
		if len(test.conjunctions) == 0 {
			return nil, fmt.Errorf("search: boolean query has no usable terms")
		}
		return test, nil
	}

	pattern := req.Pattern
	if req.Literal {
		pattern = regexp.QuoteMeta(pattern)
	}
	re, err := regexp.Compile(flags + pattern)
	if err != nil {
		return nil, fmt.Errorf("search: compiling pattern %q: %w", req.Pattern, err)
	}
	return &lineTest{pattern: re}, nil
}

// match returns the first submatch byte range on line, or ok == false.
func (t *lineTest) match(line string) (start, end int, ok bool) {
	if t.pattern != nil {
		loc := t.pattern.FindStringIndex(line)
		if loc == nil {
			return 0, 0, false
		}
		return loc[0], loc[1], true
	}
	for _, conj := range t.conjunctions {
		all := true
		first := -1
		firstEnd := 0
		for _, term := range conj {
			loc := term.FindStringIndex(line)
			if loc == nil {
				all = false
				break
			}
			if first == -1 || loc[0] < first {
				first, firstEnd = loc[0], loc[1]
			}
		}
		if all {
			return first, firstEnd, true
		}
	}
	return 0, 0, false
}

// Search scans every requested file line by line. Files that fail to
// resolve or read are skipped so one bad entry cannot sink the whole call.
func (m *NativeMatcher) Search(ctx context.Context, req Request) ([]Event, error) {
	test, err := compileLineTest(req)
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, rel := range req.Files {
		if ctx.Err() != nil {
			return events, ctx.Err()
		}
		data, err := m.sandbox.ReadFileBytes(rel)
		if err != nil {
			continue
		}
		lines := sandbox.Lines(data)
		matched := 0
		emitted := make(map[int]bool) // line numbers already emitted for this file
		for i, line := range lines {
			startOff, endOff, ok := test.match(line)
			if !ok {
				continue
			}
			lineNo := i + 1
			lo := lineNo - req.ContextLines
			if lo < 1 {
				lo = 1
			}
			hi := lineNo + req.ContextLines
			if hi > len(lines) {
				hi = len(lines)
			}
			for n := lo; n <= hi; n++ {
				if n == lineNo || emitted[n] {
					continue
				}
				emitted[n] = true
				events = append(events, Event{
					Type:       "context",
					Path:       rel,
					LineNumber: n,
					LineText:   lines[n-1],
				})
			}
			emitted[lineNo] = true
			events = append(events, Event{
				Type:       "match",
				Path:       rel,
				LineNumber: lineNo,
				LineText:   line,
				SubStart:   startOff,
				SubEnd:     endOff,
			})
			matched++
			if req.MaxCount > 0 && matched >= req.MaxCount {
				break
			}
		}
	}
	return events, nil
}

// HighlightTerms wraps every occurrence of the given terms in line with
// emphasis markers for human-readable previews. A term set that fails to
// compile leaves the line untouched.
func HighlightTerms(line string, terms []string, caseSensitive bool) string {
	if len(terms) == 0 {
		return line
	}
	escaped := make([]string, 0, len(terms))
	for _, t := range terms {
		if t != "" {
			escaped = append(escaped, regexp.QuoteMeta(t))
		}
	}
	if len(escaped) == 0 {
		return line
	}
	flags := "(?i)"
	if caseSensitive {
		flags = ""
	}
	re, err := regexp.Compile(flags + "(" + strings.Join(escaped, "|") + ")")
	if err != nil {
		return line
	}
	return re.ReplaceAllString(line, "**$1**")
}
