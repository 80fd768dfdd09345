package lexgrep

import (
	"strings"

	"google.golang.org/genai"

	"github.com/dhamidi/lexgrep/sandbox"
)

// ListPathsTool enumerates the corpus files below a subdirectory.
func (kit *Toolkit) ListPathsTool() *ToolDefinition {
	return &ToolDefinition{
		Tool: &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name: "list_paths",
					Description: strings.TrimSpace(`
Lists corpus files (.txt, .md) under a subdirectory of the document root,
as paths relative to the root.
`),
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"subdir": {
								Type:        genai.TypeString,
								Description: "Subdirectory under the corpus root (default '.').",
							},
						},
					},
				},
			},
		},
		Function: func(args map[string]any) (map[string]any, error) {
			subdir := "."
			if s, ok := stringArg(args, "subdir"); ok && s != "" {
				subdir = s
			}
			files, err := kit.Sandbox.ListPaths(subdir)
			if err != nil {
				return nil, err
			}
			return map[string]any{"files": sandbox.SortedPaths(files)}, nil
		},
	}
}
