package lexgrep

import (
	"strings"

	"google.golang.org/genai"
)

// ReadFileRangeTool returns an excerpt around a byte range, typically one
// obtained from search_rg. The line-addressed form (line_number plus
// context_lines) is supported as an alternative to start/end.
func (kit *Toolkit) ReadFileRangeTool() *ToolDefinition {
	return &ToolDefinition{
		Tool: &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name: "read_file_range",
					Description: strings.TrimSpace(`
Reads a UTF-8 excerpt from a corpus file. Address it either with byte
offsets (start/end, e.g. a byte_range from search_rg, padded by context
bytes on both sides) or with line_number/context_lines. Out-of-range
offsets are clamped, never an error.
`),
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"path": {
								Type:        genai.TypeString,
								Description: "File path relative to the corpus root.",
							},
							"start": {
								Type:        genai.TypeInteger,
								Description: "Start byte offset (before context padding).",
							},
							"end": {
								Type:        genai.TypeInteger,
								Description: "End byte offset (before context padding).",
							},
							"context": {
								Type:        genai.TypeInteger,
								Description: "Extra bytes on both sides (default from configuration).",
							},
							"line_number": {
								Type:        genai.TypeInteger,
								Description: "1-based line to center on, instead of start/end.",
							},
							"context_lines": {
								Type:        genai.TypeInteger,
								Description: "Lines on each side when using line_number.",
							},
							"max_lines": {
								Type:        genai.TypeInteger,
								Description: "Maximum lines of text to return (default 20).",
							},
						},
						Required: []string{"path"},
					},
				},
			},
		},
		Function: func(args map[string]any) (map[string]any, error) {
			path, ok := stringArg(args, "path")
			if !ok || path == "" {
				return nil, errMissingArg("read_file_range", "path")
			}
			maxLines, _ := intArg(args, "max_lines")

			if line, ok := intArg(args, "line_number"); ok {
				contextLines, _ := intArg(args, "context_lines")
				result, err := kit.Reader.ReadFileLines(path, line, contextLines, maxLines)
				if err != nil {
					return nil, err
				}
				return asResultMap(result)
			}

			start, _ := intArg(args, "start")
			end, _ := intArg(args, "end")
			contextBytes := -1 // configured default
			if c, ok := intArg(args, "context"); ok {
				contextBytes = c
			}
			result, err := kit.Reader.ReadFileRange(path, start, end, contextBytes, maxLines)
			if err != nil {
				return nil, err
			}
			return asResultMap(result)
		},
	}
}
