package lexgrep

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/dhamidi/lexgrep/search"
)

// SearchRGTool is the precise line search over the corpus. Byte ranges in
// its results feed directly into read_file_range.
func (kit *Toolkit) SearchRGTool() *ToolDefinition {
	return &ToolDefinition{
		Tool: &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name: "search_rg",
					Description: strings.TrimSpace(`
Searches the legal corpus line by line. Supports boolean queries with AND, OR
and parentheses. Returns structured matches with context lines, the nearest
section header, and exact byte ranges usable with read_file_range.
`),
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"query": {
								Type:        genai.TypeString,
								Description: "Search term, boolean expression, or regex (with regex=true).",
							},
							"file_list": {
								Type:        genai.TypeArray,
								Items:       &genai.Schema{Type: genai.TypeString},
								Description: "Optional files, directories or globs to restrict the search. Empty searches the whole corpus.",
							},
							"max_results": {
								Type:        genai.TypeInteger,
								Description: "Maximum number of matches (default 20).",
							},
							"context_lines": {
								Type:        genai.TypeInteger,
								Description: "Context lines on each side of a match (default 2).",
							},
							"regex": {
								Type:        genai.TypeBoolean,
								Description: "Treat the query as a regular expression.",
							},
							"case_sensitive": {
								Type:        genai.TypeBoolean,
								Description: "Match case-sensitively (default false).",
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
				return nil, errMissingArg("search_rg", "query")
			}
			req := search.SearchRequest{
				Query:        q,
				ContextLines: search.DefaultContextLines,
			}
			if files, ok := stringSliceArg(args, "file_list"); ok {
				req.FileList = files
			}
			if n, ok := intArg(args, "max_results"); ok {
				req.MaxResults = n
			}
			if n, ok := intArg(args, "context_lines"); ok {
				req.ContextLines = n
			}
			if b, ok := boolArg(args, "regex"); ok {
				req.Regex = b
			}
			if b, ok := boolArg(args, "case_sensitive"); ok {
				req.CaseSensitive = b
			}
			result := kit.Engine.Search(context.Background(), req)
			return asResultMap(result)
		},
	}
}
