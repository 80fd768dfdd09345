// Package elastic delegates full-text relevance search to an external
// Elasticsearch instance holding the indexed legal corpus. Ranking lives
// entirely in Elasticsearch; this package only issues queries over HTTP and
// re-anchors hits in the sandboxed files so callers get line-level context
// they can follow up with the precise search tools.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dhamidi/lexgrep/sandbox"
)

// DefaultIndex is the index name the corpus indexer writes to.
const DefaultIndex = "legal_documents"

// SearchRequest describes one full-text query.
type SearchRequest struct {
	Query string `json:"query"`
	// DocumentType filters the corpus: "all", "gesetze" or "urteile".
	DocumentType string `json:"document_type,omitempty"`
	MaxResults   int    `json:"max_results,omitempty"`
	// ContextLines controls the per-hit line context resolved through the
	// sandbox.
	ContextLines int `json:"context_lines,omitempty"`
}

// ContextRow is one line of resolved context around a matching line.
type ContextRow struct {
	LineNumber int    `json:"line_number"`
	Text       string `json:"text"`
	IsMatch    bool   `json:"is_match,omitempty"`
}

// LineMatch anchors an Elasticsearch hit to a concrete line in the corpus.
type LineMatch struct {
	LineNumber int          `json:"line_number"`
	Context    []ContextRow `json:"context,omitempty"`
}

// Hit is one ranked result.
type Hit struct {
	Title          string      `json:"title"`
	DocumentType   string      `json:"document_type"`
	FilePath       string      `json:"file_path"`
	Score          float64     `json:"score"`
	ContentPreview string      `json:"content_preview,omitempty"`
	LineMatches    []LineMatch `json:"line_matches,omitempty"`
}

// SearchResult carries the ranked hits, or an in-band error when the
// cluster is unreachable (delegation failures are recoverable, not thrown).
type SearchResult struct {
	TotalHits int    `json:"total_hits"`
	Matches   []Hit  `json:"matches"`
	Error     string `json:"error,omitempty"`
}

// Client talks to one Elasticsearch endpoint.
type Client struct {
	baseURL string
	index   string
	http    *http.Client
	sandbox *sandbox.Sandbox
}

// NewClient builds a client for http://host:port. The sandbox may be nil,
// in which case hits come back without line context.
func NewClient(host string, port int, sb *sandbox.Sandbox) *Client {
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d", host, port),
		index:   DefaultIndex,
		http:    &http.Client{Timeout: 15 * time.Second},
		sandbox: sb,
	}
}

// esResponse is the slice of the _search response body we consume.
type esResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  float64 `json:"_score"`
			Source struct {
				Title        string `json:"title"`
				DocumentType string `json:"document_type"`
				FilePath     string `json:"file_path"`
				Content      string `json:"content"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search issues a multi_match query against title and content, optionally
// filtered by document type. Network or decode failures come back as an
// error payload so the caller can degrade to the sandboxed tools.
func (c *Client) Search(ctx context.Context, req SearchRequest) SearchResult {
	if req.MaxResults <= 0 {
		req.MaxResults = 10
	}
	if req.ContextLines < 0 {
		req.ContextLines = 2
	}

	must := []map[string]any{
		{
			"multi_match": map[string]any{
				"query":  req.Query,
				"fields": []string{"title^2", "content"},
			},
		},
	}
	var filter []map[string]any
	switch req.DocumentType {
	case "", "all":
	case "gesetze":
		filter = append(filter, map[string]any{"term": map[string]any{"document_type": "gesetz"}})
	case "urteile":
		filter = append(filter, map[string]any{"term": map[string]any{"document_type": "urteil"}})
	default:
		return SearchResult{Matches: []Hit{}, Error: fmt.Sprintf("unknown document_type %q", req.DocumentType)}
	}

	body := map[string]any{
		"size": req.MaxResults,
		"query": map[string]any{
			"bool": map[string]any{
				"must":   must,
				"filter": filter,
			},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return SearchResult{Matches: []Hit{}, Error: err.Error()}
	}

	url := fmt.Sprintf("%s/%s/_search", c.baseURL, c.index)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return SearchResult{Matches: []Hit{}, Error: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return SearchResult{Matches: []Hit{}, Error: fmt.Sprintf("elasticsearch unreachable: %v", err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return SearchResult{Matches: []Hit{}, Error: fmt.Sprintf("elasticsearch returned status %d", resp.StatusCode)}
	}

	var parsed esResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return SearchResult{Matches: []Hit{}, Error: fmt.Sprintf("decoding elasticsearch response: %v", err)}
	}

	result := SearchResult{TotalHits: parsed.Hits.Total.Value, Matches: []Hit{}}
	for _, h := range parsed.Hits.Hits {
		hit := Hit{
			Title:          h.Source.Title,
			DocumentType:   h.Source.DocumentType,
			FilePath:       h.Source.FilePath,
			Score:          h.Score,
			ContentPreview: preview(h.Source.Content, 240),
		}
		if c.sandbox != nil {
			hit.LineMatches = c.resolveLineMatches(hit.FilePath, req.Query, req.ContextLines)
		}
		result.Matches = append(result.Matches, hit)
	}
	return result
}

// resolveLineMatches re-anchors a ranked hit in the sandboxed file: the
// first line containing any query word gets a context window. Files outside
// the sandbox or missing on disk simply yield no line matches.
func (c *Client) resolveLineMatches(filePath, q string, contextLines int) []LineMatch {
	rel := filePath
	if abs, err := c.sandbox.ResolveInside(rel); err == nil {
		if r, err := c.sandbox.Rel(abs); err == nil {
			rel = r
		}
	} else {
		return nil
	}
	data, err := c.sandbox.ReadFileBytes(rel)
	if err != nil {
		return nil
	}
	lines := sandbox.Lines(data)
	words := strings.Fields(strings.ToLower(q))
	if len(words) == 0 {
		return nil
	}
	for i, line := range lines {
		lower := strings.ToLower(line)
		found := false
		for _, w := range words {
			if strings.Contains(lower, w) {
				found = true
				break
			}
		}
		if !found {
			continue
		}
		lineNo := i + 1
		lo := lineNo - contextLines
		if lo < 1 {
			lo = 1
		}
		hi := lineNo + contextLines
		if hi > len(lines) {
			hi = len(lines)
		}
		lm := LineMatch{LineNumber: lineNo}
		for n := lo; n <= hi; n++ {
			lm.Context = append(lm.Context, ContextRow{
				LineNumber: n,
				Text:       lines[n-1],
				IsMatch:    n == lineNo,
			})
		}
		return []LineMatch{lm}
	}
	return nil
}

func preview(content string, max int) string {
	content = strings.TrimSpace(content)
	if len(content) <= max {
		return content
	}
	cut := content[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > max/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
