package lexgrep

import (
	"strings"

	"google.golang.org/genai"

	"github.com/dhamidi/lexgrep/search"
)

// FileSearchTool finds whole documents whose content satisfies a boolean
// query, useful for narrowing down which statutes to search precisely.
func (kit *Toolkit) FileSearchTool() *ToolDefinition {
	return &ToolDefinition{
		Tool: &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name: "file_search",
					Description: strings.TrimSpace(`
Returns files whose whole content matches a boolean query (AND/OR plus
parentheses). A file matches when all terms of at least one conjunction
appear somewhere in it. Without a query, returns files matching the glob.
`),
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"query": {
								Type:        genai.TypeString,
								Description: "Boolean content query, e.g. 'BGB AND Kündigung'.",
							},
							"glob": {
								Type:        genai.TypeString,
								Description: "Glob limiting considered files, e.g. 'gesetze/**/*.md'.",
							},
							"case_sensitive": {
								Type:        genai.TypeBoolean,
								Description: "Match terms case-sensitively (default false).",
							},
							"max_results": {
								Type:        genai.TypeInteger,
								Description: "Maximum number of files to return.",
							},
						},
					},
				},
			},
		},
		Function: func(args map[string]any) (map[string]any, error) {
			req := search.FileSearchRequest{}
			if q, ok := stringArg(args, "query"); ok {
				req.Query = q
			}
			if g, ok := stringArg(args, "glob"); ok {
				req.Glob = g
			}
			if b, ok := boolArg(args, "case_sensitive"); ok {
				req.CaseSensitive = b
			}
			if n, ok := intArg(args, "max_results"); ok {
				req.MaxResults = n
			}
			return asResultMap(kit.FileSearcher.Search(req))
		},
	}
}
