// Package lexgrep answers legal research questions over a sandboxed corpus
// of statutes and court decisions. It exposes the search and retrieval
// engine as a set of agent tools: line search (ripgrep-backed), whole-file
// boolean search, byte-range reads, path listing, and delegation to an
// external Elasticsearch index for relevance-ranked full-text search.
package lexgrep

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"google.golang.org/genai"

	"github.com/dhamidi/lexgrep/config"
	"github.com/dhamidi/lexgrep/elastic"
	"github.com/dhamidi/lexgrep/sandbox"
	"github.com/dhamidi/lexgrep/search"
)

// ToolDefinition couples a genai function declaration with its
// implementation.
type ToolDefinition struct {
	Tool     *genai.Tool
	Function func(map[string]any) (map[string]any, error)
}

func (def *ToolDefinition) Name() string {
	return def.Tool.FunctionDeclarations[0].Name
}

// ToolBox is a set of tools addressable by name.
type ToolBox map[string]*ToolDefinition

func NewToolBox() ToolBox { return ToolBox{} }

func (tools ToolBox) Add(def *ToolDefinition) ToolBox {
	tools[def.Name()] = def
	return tools
}

func (tools ToolBox) Names() []string {
	names := []string{}
	for _, tool := range tools {
		names = append(names, tool.Name())
	}
	return names
}

func (tools ToolBox) Get(name string) (def *ToolDefinition, found bool) {
	def, found = tools[name]
	return
}

func (tools ToolBox) List() *genai.Tool {
	result := &genai.Tool{}
	for _, tool := range tools {
		result.FunctionDeclarations = append(result.FunctionDeclarations, tool.Tool.FunctionDeclarations...)
	}
	return result
}

func FormatFunctionCall(fc *genai.FunctionCall) string {
	buf := bytes.NewBufferString(fc.Name)
	if fc.ID != "" {
		fmt.Fprintf(buf, "@%s", fc.ID)
	}
	fmt.Fprintf(buf, "(%s)", AsJSON(fc.Args))
	return buf.String()
}

// Toolkit owns the sandboxed engine components and hands out the tool
// definitions bound to them. Everything is constructor-injected; there is
// no package-level state.
type Toolkit struct {
	Config       *config.Config
	Sandbox      *sandbox.Sandbox
	Engine       *search.Engine
	FileSearcher *search.FileSearcher
	Reader       *search.Reader
	Elastic      *elastic.Client
}

// NewToolkit builds the full toolkit for cfg. The line search uses the
// ripgrep matcher; pass a different matcher via NewToolkitWithMatcher when
// ripgrep is unavailable.
func NewToolkit(cfg *config.Config) (*Toolkit, error) {
	sb, err := sandbox.New(afero.NewOsFs(), cfg.LegalDocRoot)
	if err != nil {
		return nil, err
	}
	return NewToolkitWithMatcher(cfg, sb, search.NewRipgrepMatcher(sb)), nil
}

// NewToolkitWithMatcher wires a toolkit around an existing sandbox and
// matcher. Used directly by tests, which run in-memory with the native
// matcher.
func NewToolkitWithMatcher(cfg *config.Config, sb *sandbox.Sandbox, m search.Matcher) *Toolkit {
	return &Toolkit{
		Config:       cfg,
		Sandbox:      sb,
		Engine:       search.NewEngine(sb, m),
		FileSearcher: search.NewFileSearcher(sb, cfg.Glob, cfg.MaxResults),
		Reader:       search.NewReader(sb, cfg.ContextBytes),
	}
}

// WithElastic attaches an Elasticsearch client for the delegation tool.
func (kit *Toolkit) WithElastic(host string, port int) *Toolkit {
	kit.Elastic = elastic.NewClient(host, port, kit.Sandbox)
	return kit
}

// Tools assembles the toolbox. The elasticsearch tool is only included when
// a client is attached.
func (kit *Toolkit) Tools() ToolBox {
	tools := NewToolBox().
		Add(kit.SearchRGTool()).
		Add(kit.FileSearchTool()).
		Add(kit.ReadFileRangeTool()).
		Add(kit.ListPathsTool())
	if kit.Elastic != nil {
		tools.Add(kit.ElasticsearchSearchTool())
	}
	return tools
}

func AsJSON(value any) string {
	asBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(asBytes)
}

func CropText(in string, width int) string {
	if len(in) <= width {
		return in
	}

	half := width / 2
	return in[0:half] + "…" + in[len(in)-half:]
}

func errMissingArg(tool, name string) error {
	return fmt.Errorf("%s: %s is required and must be a non-empty string", tool, name)
}

// Tool arguments arrive as map[string]any decoded from JSON, so numbers
// are float64 and lists are []any.

func stringArg(args map[string]any, name string) (string, bool) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func intArg(args map[string]any, name string) (int, bool) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

func boolArg(args map[string]any, name string) (bool, bool) {
	v, ok := args[name]
	if !ok || v == nil {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

func stringSliceArg(args map[string]any, name string) ([]string, bool) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, false
	}
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// asResultMap round-trips a typed result through JSON into the map shape
// the tool dispatch boundary expects.
func asResultMap(value any) (map[string]any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
