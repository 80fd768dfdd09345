package lexgrep

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/dhamidi/lexgrep/elastic"
)

// ElasticsearchSearchTool delegates relevance-ranked full-text search to
// the external Elasticsearch index over the same corpus. Use it to discover
// candidate documents, then search_rg for precise citations.
func (kit *Toolkit) ElasticsearchSearchTool() *ToolDefinition {
	return &ToolDefinition{
		Tool: &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name: "elasticsearch_search",
					Description: strings.TrimSpace(`
Full-text search across the legal corpus with relevance ranking. Results
carry document titles, file paths and line-level context. Best for broad
discovery; follow up with search_rg for exact positions.
`),
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"query": {
								Type:        genai.TypeString,
								Description: "Search terms or phrases, e.g. 'fristlose Kündigung'.",
							},
							"document_type": {
								Type:        genai.TypeString,
								Description: "Limit to 'gesetze' or 'urteile' (default 'all').",
							},
							"max_results": {
								Type:        genai.TypeInteger,
								Description: "Maximum number of results (default 10).",
							},
							"context_lines": {
								Type:        genai.TypeInteger,
								Description: "Context lines around each match (default 2).",
							},
						},
						Required: []string{"query"},
					},
				},
			},
		},
		Function: func(args map[string]any) (map[string]any, error) {
			q, ok := stringArg(args, "query")
			if !ok || q == "" {
				return nil, errMissingArg("elasticsearch_search", "query")
			}
			req := elastic.SearchRequest{Query: q}
			if dt, ok := stringArg(args, "document_type"); ok {
				req.DocumentType = dt
			}
			if n, ok := intArg(args, "max_results"); ok {
				req.MaxResults = n
			}
			if n, ok := intArg(args, "context_lines"); ok {
				req.ContextLines = n
			}
			return asResultMap(kit.Elastic.Search(context.Background(), req))
		},
	}
}
