package search

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeRGEvents(t *testing.T) {
	stream := strings.Join([]string{
		`{"type":"begin","data":{"path":{"text":"gesetze/bgb.md"}}}`,
		`{"type":"context","data":{"path":{"text":"gesetze/bgb.md"},"lines":{"text":"## Mietrecht\n"},"line_number":2}}`,
		`{"type":"match","data":{"path":{"text":"gesetze/bgb.md"},"lines":{"text":"§ 573 Kündigung\n"},"line_number":3,"submatches":[{"match":{"text":"Kündigung"},"start":7,"end":17}]}}`,
		`this line is not json`,
		`{"type":"end","data":{"path":{"text":"gesetze/bgb.md"}}}`,
		`{"type":"summary","data":{"stats":{}}}`,
	}, "\n")

	events, err := decodeRGEvents(strings.NewReader(stream))
	if err != nil {
		t.Fatal(err)
	}
	want := []Event{
		{Type: "context", Path: "gesetze/bgb.md", LineNumber: 2, LineText: "## Mietrecht"},
		{Type: "match", Path: "gesetze/bgb.md", LineNumber: 3, LineText: "§ 573 Kündigung", SubStart: 7, SubEnd: 17},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRGEventsSkipsMatchWithoutSubmatches(t *testing.T) {
	stream := `{"type":"match","data":{"path":{"text":"a.md"},"lines":{"text":"x\n"},"line_number":1,"submatches":[]}}`
	events, err := decodeRGEvents(strings.NewReader(stream))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("events = %+v", events)
	}
}

func TestTrimLineEnd(t *testing.T) {
	for in, want := range map[string]string{
		"text\n":   "text",
		"text\r\n": "text",
		"text":     "text",
		"":         "",
	} {
		if got := trimLineEnd(in); got != want {
			t.Errorf("trimLineEnd(%q) = %q, want %q", in, got, want)
		}
	}
}
