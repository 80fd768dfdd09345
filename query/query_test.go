package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseToDNFPlainTerm(t *testing.T) {
	usedBoolean, dnf := ParseToDNF("Kündigung")
	if usedBoolean {
		t.Error("plain term reported as boolean")
	}
	want := [][]string{{"Kündigung"}}
	if diff := cmp.Diff(want, dnf); diff != "" {
		t.Errorf("dnf mismatch (-want +got):\n%s", diff)
	}
}

func TestParseToDNFDistributesANDOverOR(t *testing.T) {
	usedBoolean, dnf := ParseToDNF("(BGB OR Bürgerliches Gesetzbuch) AND Kündigung")
	if !usedBoolean {
		t.Fatal("usedBoolean = false for boolean query")
	}
	want := [][]string{
		{"BGB", "Kündigung"},
		{"Bürgerliches", "Gesetzbuch", "Kündigung"},
	}
	if diff := cmp.Diff(want, dnf); diff != "" {
		t.Errorf("dnf mismatch (-want +got):\n%s", diff)
	}
}

func TestParseToDNFImplicitAdjacency(t *testing.T) {
	usedBoolean, dnf := ParseToDNF("(Bürgerliches Gesetzbuch) OR BGB")
	if !usedBoolean {
		t.Fatal("usedBoolean = false")
	}
	want := [][]string{
		{"Bürgerliches", "Gesetzbuch"},
		{"BGB"},
	}
	if diff := cmp.Diff(want, dnf); diff != "" {
		t.Errorf("dnf mismatch (-want +got):\n%s", diff)
	}
}

func TestParseToDNFPrecedence(t *testing.T) {
	usedBoolean, dnf := ParseToDNF("Miete AND Kündigung OR Räumung")
	if !usedBoolean {
		t.Fatal("usedBoolean = false")
	}
	want := [][]string{
		{"Miete", "Kündigung"},
		{"Räumung"},
	}
	if diff := cmp.Diff(want, dnf); diff != "" {
		t.Errorf("dnf mismatch (-want +got):\n%s", diff)
	}
}

func TestParseToDNFCaseInsensitiveOperators(t *testing.T) {
	usedBoolean, dnf := ParseToDNF("miete and kündigung")
	if !usedBoolean {
		t.Fatal("lowercase operators not recognized")
	}
	want := [][]string{{"miete", "kündigung"}}
	if diff := cmp.Diff(want, dnf); diff != "" {
		t.Errorf("dnf mismatch (-want +got):\n%s", diff)
	}
}

func TestParseToDNFDeduplicatesTerms(t *testing.T) {
	_, dnf := ParseToDNF("BGB AND BGB")
	want := [][]string{{"BGB"}}
	if diff := cmp.Diff(want, dnf); diff != "" {
		t.Errorf("dnf mismatch (-want +got):\n%s", diff)
	}
}

func TestParseToDNFToleratesOrphanOperators(t *testing.T) {
	for _, q := range []string{
		"AND Kündigung",
		"Kündigung OR",
		"OR OR",
		"(Kündigung",
		"Kündigung )",
		"",
	} {
		usedBoolean, dnf := ParseToDNF(q)
		_ = usedBoolean
		for _, conj := range dnf {
			if len(conj) == 0 {
				t.Errorf("ParseToDNF(%q): empty conjunction survived", q)
			}
		}
	}
}

func TestParseToDNFEmptyQuery(t *testing.T) {
	usedBoolean, dnf := ParseToDNF("")
	if usedBoolean || dnf != nil {
		t.Errorf("empty query: got usedBoolean=%v dnf=%v", usedBoolean, dnf)
	}
}

func TestLookaheadPattern(t *testing.T) {
	_, dnf := ParseToDNF("(BGB OR ZPO) AND Kündigung")
	got := LookaheadPattern(dnf, false)
	want := `(?=.*BGB)(?=.*Kündigung).*|(?=.*ZPO)(?=.*Kündigung).*`
	if got != want {
		t.Errorf("LookaheadPattern: got %q, want %q", got, want)
	}
}

func TestLookaheadPatternEscapesTerms(t *testing.T) {
	got := LookaheadPattern([][]string{{"§ 573 (1)"}}, false)
	want := `(?=.*§ 573 \(1\)).*`
	if got != want {
		t.Errorf("LookaheadPattern: got %q, want %q", got, want)
	}
}

func TestSplitTextualOR(t *testing.T) {
	if got := SplitTextualOR("Kündigung OR Räumung or Frist"); len(got) != 3 {
		t.Errorf("SplitTextualOR: got %v", got)
	}
	if got := SplitTextualOR("Kündigung AND Räumung OR Frist"); got != nil {
		t.Errorf("mixed boolean should not split: got %v", got)
	}
	if got := SplitTextualOR("(a OR b)"); got != nil {
		t.Errorf("parenthesized query should not split: got %v", got)
	}
	if got := SplitTextualOR("plain phrase"); got != nil {
		t.Errorf("non-OR query should not split: got %v", got)
	}
}

func TestAlternationPattern(t *testing.T) {
	got := AlternationPattern([]string{"§ 573", "Kündigung"})
	want := `§ 573|Kündigung`
	if got != want {
		t.Errorf("AlternationPattern: got %q, want %q", got, want)
	}
}

func TestTerms(t *testing.T) {
	_, dnf := ParseToDNF("(a OR b) AND c")
	got := Terms(dnf)
	want := []string{"a", "c", "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Terms mismatch (-want +got):\n%s", diff)
	}
}
