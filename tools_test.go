package lexgrep

import (
	"testing"

	"github.com/spf13/afero"
	"google.golang.org/genai"

	"github.com/dhamidi/lexgrep/config"
	"github.com/dhamidi/lexgrep/sandbox"
	"github.com/dhamidi/lexgrep/search"
)

func newTestToolkit(t *testing.T) *Toolkit {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/corpus/gesetze/bgb.md": "# BGB\n## Mietrecht\n§ 573 Kündigung durch den Vermieter\n",
		"/corpus/urteile/u.md":   "Kündigung wegen Eigenbedarf\n",
	}
	for path, content := range files {
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	sb, err := sandbox.New(fs, "/corpus")
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.LegalDocRoot = "/corpus"
	return NewToolkitWithMatcher(cfg, sb, search.NewNativeMatcher(sb))
}

func callTool(t *testing.T, def *ToolDefinition, args map[string]any) map[string]any {
	t.Helper()
	result, err := def.Function(args)
	if err != nil {
		t.Fatalf("%s: %v", def.Name(), err)
	}
	return result
}

func TestToolBoxAssembly(t *testing.T) {
	kit := newTestToolkit(t)

	tools := kit.Tools()
	for _, name := range []string{"search_rg", "file_search", "read_file_range", "list_paths"} {
		if _, found := tools.Get(name); !found {
			t.Errorf("toolbox is missing %s", name)
		}
	}
	if _, found := tools.Get("elasticsearch_search"); found {
		t.Error("elasticsearch tool present without a client")
	}

	kit.WithElastic("localhost", 9200)
	if _, found := kit.Tools().Get("elasticsearch_search"); !found {
		t.Error("elasticsearch tool missing after WithElastic")
	}
}

func TestSearchRGToolFunction(t *testing.T) {
	kit := newTestToolkit(t)

	// Arguments arrive as decoded JSON: numbers are float64.
	result := callTool(t, kit.SearchRGTool(), map[string]any{
		"query":         "Kündigung AND Vermieter",
		"context_lines": float64(1),
	})
	matches, ok := result["matches"].([]any)
	if !ok || len(matches) != 1 {
		t.Fatalf("matches = %v", result["matches"])
	}
	m := matches[0].(map[string]any)
	if m["file"] != "gesetze/bgb.md" || m["line"] != float64(3) {
		t.Errorf("match = %v", m)
	}
	if m["section"] != "## Mietrecht" {
		t.Errorf("section = %v", m["section"])
	}
	if _, ok := m["byte_range"]; !ok {
		t.Error("match has no byte_range")
	}
}

func TestSearchRGToolRequiresQuery(t *testing.T) {
	kit := newTestToolkit(t)

	if _, err := kit.SearchRGTool().Function(map[string]any{}); err == nil {
		t.Fatal("missing query accepted")
	}
	if _, err := kit.SearchRGTool().Function(map[string]any{"query": ""}); err == nil {
		t.Fatal("empty query accepted")
	}
}

func TestFileSearchToolFunction(t *testing.T) {
	kit := newTestToolkit(t)

	result := callTool(t, kit.FileSearchTool(), map[string]any{"query": "BGB AND Kündigung"})
	files, ok := result["files"].([]any)
	if !ok || len(files) != 1 || files[0] != "gesetze/bgb.md" {
		t.Errorf("files = %v", result["files"])
	}
}

func TestReadFileRangeToolByteForm(t *testing.T) {
	kit := newTestToolkit(t)

	result := callTool(t, kit.ReadFileRangeTool(), map[string]any{
		"path":    "urteile/u.md",
		"start":   float64(0),
		"end":     float64(10),
		"context": float64(0),
	})
	if result["text"] != "Kündigung" {
		t.Errorf("text = %v", result["text"])
	}
}

func TestReadFileRangeToolLineForm(t *testing.T) {
	kit := newTestToolkit(t)

	result := callTool(t, kit.ReadFileRangeTool(), map[string]any{
		"path":        "gesetze/bgb.md",
		"line_number": float64(2),
	})
	if result["text"] != "## Mietrecht\n" {
		t.Errorf("text = %v", result["text"])
	}
}

func TestReadFileRangeToolRejectsBreakout(t *testing.T) {
	kit := newTestToolkit(t)

	if _, err := kit.ReadFileRangeTool().Function(map[string]any{
		"path": "../secret.md",
	}); err == nil {
		t.Fatal("breakout path accepted")
	}
}

func TestListPathsToolFunction(t *testing.T) {
	kit := newTestToolkit(t)

	result := callTool(t, kit.ListPathsTool(), map[string]any{"subdir": "gesetze"})
	files, ok := result["files"].([]string)
	if !ok || len(files) != 1 || files[0] != "gesetze/bgb.md" {
		t.Errorf("files = %v", result["files"])
	}
}

func TestFormatFunctionCall(t *testing.T) {
	got := FormatFunctionCall(&genai.FunctionCall{
		Name: "search_rg",
		Args: map[string]any{"query": "BGB"},
	})
	if got != `search_rg({"query":"BGB"})` {
		t.Errorf("FormatFunctionCall = %q", got)
	}
}

func TestCropText(t *testing.T) {
	if got := CropText("short", 10); got != "short" {
		t.Errorf("CropText = %q", got)
	}
	if got := CropText("abcdefghij", 4); got != "ab…ij" {
		t.Errorf("CropText = %q", got)
	}
}

func TestIntArgAcceptsJSONNumbers(t *testing.T) {
	args := map[string]any{"a": float64(3), "b": 4, "c": "nope"}
	if n, ok := intArg(args, "a"); !ok || n != 3 {
		t.Errorf("float64 arg: %d %v", n, ok)
	}
	if n, ok := intArg(args, "b"); !ok || n != 4 {
		t.Errorf("int arg: %d %v", n, ok)
	}
	if _, ok := intArg(args, "c"); ok {
		t.Error("string accepted as int")
	}
	if _, ok := intArg(args, "missing"); ok {
		t.Error("missing key reported present")
	}
}
