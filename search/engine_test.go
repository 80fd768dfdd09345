package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/dhamidi/lexgrep/sandbox"
)

const bgbContent = `# Bürgerliches Gesetzbuch
## Mietrecht
Allgemeine Vorschriften über Mietverhältnisse.
§ 573 Kündigung durch den Vermieter
Der Vermieter kann nur kündigen, wenn er ein berechtigtes Interesse hat.
`

func newTestEngine(t *testing.T) (*Engine, *sandbox.Sandbox) {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/corpus/gesetze/bgb.md":                         bgbContent,
		"/corpus/urteile_markdown_by_year/urteil_2019.md": "# Urteil\nKündigung wegen Eigenbedarf abgewiesen.\n",
		"/corpus/urteile_markdown_by_year/urteil_2021.md": "# Urteil\nKündigung wirksam, Räumung angeordnet.\n",
		"/corpus/notizen.txt":                             "Keine Treffer hier.\n",
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
	return NewEngine(sb, NewNativeMatcher(sb)), sb
}

func TestSearchBooleanQuery(t *testing.T) {
	engine, sb := newTestEngine(t)

	result := engine.Search(context.Background(), SearchRequest{
		Query:    "Kündigung AND Vermieter",
		FileList: []string{"gesetze/bgb.md"},
	})
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(result.Matches))
	}

	m := result.Matches[0]
	if m.File != "gesetze/bgb.md" || m.Line != 4 {
		t.Errorf("match at %s:%d, want gesetze/bgb.md:4", m.File, m.Line)
	}
	if m.Text != "§ 573 Kündigung durch den Vermieter" {
		t.Errorf("Text = %q", m.Text)
	}
	if m.Section != "## Mietrecht" {
		t.Errorf("Section = %q", m.Section)
	}
	if !strings.Contains(m.Highlighted, "**Kündigung**") || !strings.Contains(m.Highlighted, "**Vermieter**") {
		t.Errorf("Highlighted = %q", m.Highlighted)
	}

	// The byte range must slice the file exactly at the first matched term.
	data, err := sb.ReadFileBytes(m.File)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data[m.ByteRange[0]:m.ByteRange[1]]); got != "Kündigung" {
		t.Errorf("byte range slices %q, want %q", got, "Kündigung")
	}

	wantContext := []ContextLine{
		{LineNumber: 2, Text: "## Mietrecht"},
		{LineNumber: 3, Text: "Allgemeine Vorschriften über Mietverhältnisse."},
		{LineNumber: 4, Text: "§ 573 Kündigung durch den Vermieter", IsMatch: true},
		{LineNumber: 5, Text: "Der Vermieter kann nur kündigen, wenn er ein berechtigtes Interesse hat."},
	}
	if diff := cmp.Diff(wantContext, m.Context); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchDefaultContextLines(t *testing.T) {
	engine, _ := newTestEngine(t)

	// A request that never sets ContextLines still gets the standard
	// two-line window on each side.
	result := engine.Search(context.Background(), SearchRequest{Query: "Vermieter kann"})
	if len(result.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(result.Matches))
	}
	m := result.Matches[0]
	if m.Line != 5 {
		t.Fatalf("match at line %d, want 5", m.Line)
	}
	var lines []int
	for _, c := range m.Context {
		lines = append(lines, c.LineNumber)
	}
	want := []int{3, 4, 5}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("context lines mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchLiteralPhrase(t *testing.T) {
	engine, _ := newTestEngine(t)

	result := engine.Search(context.Background(), SearchRequest{Query: "berechtigtes Interesse"})
	if len(result.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(result.Matches))
	}
	if m := result.Matches[0]; m.File != "gesetze/bgb.md" || m.Line != 5 {
		t.Errorf("match at %s:%d", m.File, m.Line)
	}
}

func TestSearchLiteralEscapesMetacharacters(t *testing.T) {
	engine, _ := newTestEngine(t)

	result := engine.Search(context.Background(), SearchRequest{Query: "§ 573"})
	if result.Error != "" {
		t.Fatalf("unexpected error: %s", result.Error)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(result.Matches))
	}
}

func TestSearchTextualOR(t *testing.T) {
	engine, _ := newTestEngine(t)

	result := engine.Search(context.Background(), SearchRequest{
		Query:    "Eigenbedarf OR Räumung",
		FileList: []string{"urteile_markdown_by_year"},
	})
	if len(result.Matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(result.Matches))
	}
}

func TestSearchSortsYearsDescending(t *testing.T) {
	engine, _ := newTestEngine(t)

	result := engine.Search(context.Background(), SearchRequest{Query: "Kündigung"})
	var order []string
	for _, m := range result.Matches {
		order = append(order, m.File)
	}
	want := []string{
		"gesetze/bgb.md", // no trailing year, sorts ahead of dated files
		"urteile_markdown_by_year/urteil_2021.md",
		"urteile_markdown_by_year/urteil_2019.md",
	}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchFileListGlob(t *testing.T) {
	engine, _ := newTestEngine(t)

	result := engine.Search(context.Background(), SearchRequest{
		Query:    "Kündigung",
		FileList: []string{"urteile_markdown_by_year/*.md"},
	})
	for _, m := range result.Matches {
		if !strings.HasPrefix(m.File, "urteile_markdown_by_year/") {
			t.Errorf("glob leaked file %s", m.File)
		}
	}
	if len(result.Matches) != 2 {
		t.Errorf("got %d matches, want 2", len(result.Matches))
	}
}

func TestSearchCorpusMarkers(t *testing.T) {
	engine, _ := newTestEngine(t)

	for _, marker := range []string{".", "./", "all", "*"} {
		result := engine.Search(context.Background(), SearchRequest{
			Query:    "Kündigung",
			FileList: []string{marker},
		})
		if len(result.Matches) != 3 {
			t.Errorf("marker %q: got %d matches, want 3", marker, len(result.Matches))
		}
	}
}

func TestSearchSkipsBreakoutEntries(t *testing.T) {
	engine, _ := newTestEngine(t)

	result := engine.Search(context.Background(), SearchRequest{
		Query:    "Kündigung",
		FileList: []string{"../../etc/passwd"},
	})
	if result.Error != "" {
		t.Errorf("breakout entry should be skipped, got error %q", result.Error)
	}
	if len(result.Matches) != 0 {
		t.Errorf("got %d matches, want 0", len(result.Matches))
	}
}

func TestSearchMaxResults(t *testing.T) {
	engine, _ := newTestEngine(t)

	result := engine.Search(context.Background(), SearchRequest{
		Query:      "Kündigung",
		MaxResults: 1,
	})
	if len(result.Matches) != 1 {
		t.Errorf("got %d matches, want 1", len(result.Matches))
	}
}

func TestSearchNoMatchesIsEmptyNotNil(t *testing.T) {
	engine, _ := newTestEngine(t)

	result := engine.Search(context.Background(), SearchRequest{Query: "Schadensersatz"})
	if result.Matches == nil {
		t.Error("Matches is nil, want empty slice")
	}
	if len(result.Matches) != 0 || result.Error != "" {
		t.Errorf("result = %+v", result)
	}
}

type unavailableMatcher struct{}

func (unavailableMatcher) Available() error { return errors.New("rg: executable not found") }

func (unavailableMatcher) Search(context.Context, Request) ([]Event, error) { return nil, nil }

func TestSearchReportsUnavailableMatcherInBand(t *testing.T) {
	_, sb := newTestEngine(t)
	engine := NewEngine(sb, unavailableMatcher{})

	result := engine.Search(context.Background(), SearchRequest{Query: "Kündigung"})
	if result.Error == "" {
		t.Fatal("expected in-band error")
	}
	if result.Matches == nil || len(result.Matches) != 0 {
		t.Errorf("Matches = %v, want empty slice", result.Matches)
	}
}

func TestHighlightTerms(t *testing.T) {
	got := HighlightTerms("Kündigung durch den Vermieter", []string{"kündigung"}, false)
	if got != "**Kündigung** durch den Vermieter" {
		t.Errorf("HighlightTerms = %q", got)
	}
	if got := HighlightTerms("Kündigung", []string{"kündigung"}, true); got != "Kündigung" {
		t.Errorf("case-sensitive highlight = %q", got)
	}
}
