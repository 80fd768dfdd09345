// Package query parses boolean search expressions with AND, OR and
// parentheses into disjunctive normal form and compiles the result into
// regular expression patterns for line-scoped matching.
//
// NOT is not supported. Malformed queries (orphan operators, unmatched
// parentheses) degrade to a best-effort parse instead of failing: an agent
// issuing a sloppy query should get weaker results, not an error.
package query

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`(?i)\(|\)|\bAND\b|\bOR\b|[^()\s]+`)

// ParseToDNF parses q into disjunctive normal form: a list of conjunctions,
// each a list of unique terms in first-seen order. usedBoolean reports
// whether any operator or parenthesis appeared in the raw token stream,
// which callers use to distinguish boolean queries from plain phrases.
func ParseToDNF(q string) (usedBoolean bool, dnf [][]string) {
	tokens := tokenPattern.FindAllString(q, -1)
	if len(tokens) == 0 {
		return false, nil
	}

	p := &parser{tokens: tokens}
	dnf = p.parseExpr()

	for _, tok := range tokens {
		upper := strings.ToUpper(tok)
		if upper == "AND" || upper == "OR" || tok == "(" || tok == ")" {
			usedBoolean = true
			break
		}
	}

	// Strip empty conjunctions left behind by orphan operators.
	cleaned := dnf[:0]
	for _, conj := range dnf {
		if len(conj) > 0 {
			cleaned = append(cleaned, conj)
		}
	}
	return usedBoolean, cleaned
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) peek() (string, bool) {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos], true
	}
	return "", false
}

func (p *parser) consume() (string, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func isOp(tok string, name string) bool {
	return strings.ToUpper(tok) == name
}

// expr := term (OR term)*
// OR concatenates the conjunction lists of both sides.
func (p *parser) parseExpr() [][]string {
	conjs := p.parseTerm()
	for {
		tok, ok := p.peek()
		if !ok || !isOp(tok, "OR") {
			break
		}
		p.consume()
		conjs = append(conjs, p.parseTerm()...)
	}
	return conjs
}

// term := factor ((AND)? factor)*
// Adjacent factors without an operator are an implicit AND, so a
// multi-word phrase like "Bürgerliches Gesetzbuch" becomes one
// conjunction. AND distributes over the conjunctions on both sides: the
// classic AND-over-OR cross product, with term sets deduplicated in
// first-seen order.
func (p *parser) parseTerm() [][]string {
	conjs := p.parseFactor()
	for {
		tok, ok := p.peek()
		if !ok {
			break
		}
		if isOp(tok, "OR") || tok == ")" {
			break
		}
		if isOp(tok, "AND") {
			p.consume()
		}
		rhs := p.parseFactor()
		var product [][]string
		for _, a := range conjs {
			for _, b := range rhs {
				product = append(product, mergeUnique(a, b))
			}
		}
		conjs = product
	}
	return conjs
}

// factor := '(' expr ')' | TERM
// Orphan operators are consumed as an empty factor rather than raising.
func (p *parser) parseFactor() [][]string {
	tok, ok := p.peek()
	if !ok {
		return [][]string{{}}
	}
	if tok == "(" {
		p.consume()
		inner := p.parseExpr()
		if next, ok := p.peek(); ok && next == ")" {
			p.consume()
		}
		return inner
	}
	if isOp(tok, "AND") || isOp(tok, "OR") || tok == ")" {
		p.consume()
		return [][]string{{}}
	}
	term, _ := p.consume()
	if term == "" {
		return [][]string{{}}
	}
	return [][]string{{term}}
}

func mergeUnique(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	merged := make([]string, 0, len(a)+len(b))
	for _, t := range a {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	for _, t := range b {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	return merged
}

// LookaheadPattern compiles a DNF into a single line-scoped pattern using
// lookahead conjunctions: (?=.*t1)(?=.*t2).* per conjunction, joined with
// "|". The result requires a PCRE-capable engine (ripgrep -P); Go's regexp
// package cannot evaluate it. Terms are regex-escaped unless raw is set.
func LookaheadPattern(dnf [][]string, raw bool) string {
	var conjPatterns []string
	for _, conj := range dnf {
		var b strings.Builder
		for _, term := range conj {
			if term == "" {
				continue
			}
			if !raw {
				term = regexp.QuoteMeta(term)
			}
			b.WriteString("(?=.*")
			b.WriteString(term)
			b.WriteString(")")
		}
		b.WriteString(".*")
		conjPatterns = append(conjPatterns, b.String())
	}
	return strings.Join(conjPatterns, "|")
}

// AlternationPattern builds an escaped alternation a|b|c for the textual
// " OR " convenience path of the line search.
func AlternationPattern(parts []string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		escaped = append(escaped, regexp.QuoteMeta(p))
	}
	return strings.Join(escaped, "|")
}

var orSplitPattern = regexp.MustCompile(`(?i)\s+OR\s+`)

// SplitTextualOR splits a query of the form "a OR b OR c" into its parts.
// It returns nil unless the query really is a plain OR chain: at least two
// parts and no other boolean structure (AND, parentheses).
func SplitTextualOR(q string) []string {
	if !orSplitPattern.MatchString(q) {
		return nil
	}
	upper := strings.ToUpper(q)
	if strings.Contains(upper, " AND ") || strings.ContainsAny(q, "()") {
		return nil
	}
	parts := orSplitPattern.Split(q, -1)
	var cleaned []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) < 2 {
		return nil
	}
	return cleaned
}

// Terms flattens a DNF into the unique terms it mentions, in first-seen
// order. Used for highlighting matched lines.
func Terms(dnf [][]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, conj := range dnf {
		for _, t := range conj {
			if t != "" && !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}
