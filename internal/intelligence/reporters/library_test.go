package reporters

import (
	"testing"

	"github.com/lexcite/caseguard/pkg/errors"
)

func TestFindAll_LocatesNationalCitation(t *testing.T) {
	lib := NewLibrary()
	text := "The court in Brown v. Board, 347 U.S. 483 (1954), held that segregation is unconstitutional."

	matches := lib.FindAll(text)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %+v", len(matches), matches)
	}
	m := matches[0]
	if m.Span.RawText != "347 U.S. 483" {
		t.Errorf("RawText = %q", m.Span.RawText)
	}
	if text[m.Span.Start:m.Span.End] != m.Span.RawText {
		t.Error("span offsets do not slice back to the raw text")
	}
	if m.Parsed.Volume != 347 || m.Parsed.Reporter != "U.S." || m.Parsed.Page != 483 {
		t.Errorf("Parsed = %+v", m.Parsed)
	}
}

func TestFindAll_MultipleFamilies(t *testing.T) {
	lib := NewLibrary()
	text := "See 100 F.3d 1 (2000); 183 Wn.2d 649, 430 P.3d 655 (2018)."

	matches := lib.FindAll(text)
	got := map[string]bool{}
	for _, m := range matches {
		got[m.Parsed.Reporter] = true
	}
	for _, want := range []string{"F.3d", "Wn.2d", "P.3d"} {
		if !got[want] {
			t.Errorf("missing reporter %s in matches %+v", want, matches)
		}
	}
}

func TestFindAll_LongestSeriesWins(t *testing.T) {
	lib := NewLibrary()
	text := "cited at 910 F. Supp. 2d 89 (S.D.N.Y. 2012)"

	matches := lib.FindAll(text)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %+v", len(matches), matches)
	}
	if matches[0].Parsed.Reporter != "F. Supp. 2d" {
		t.Errorf("Reporter = %q, want F. Supp. 2d", matches[0].Parsed.Reporter)
	}
}

func TestParse_AdHocCitation(t *testing.T) {
	lib := NewLibrary()

	p, err := lib.Parse(" 5 U.S. 137. ")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Volume != 5 || p.Reporter != "U.S." || p.Page != 137 {
		t.Errorf("Parsed = %+v", p)
	}
}

func TestParse_NormalizesVariantSpelling(t *testing.T) {
	lib := NewLibrary()

	p, err := lib.Parse("183 Wash. 2d 649")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Reporter != "Wn.2d" {
		t.Errorf("Reporter = %q, want canonical Wn.2d", p.Reporter)
	}
}

func TestParse_UnparseableIsTypedError(t *testing.T) {
	lib := NewLibrary()

	_, err := lib.Parse("clearly not a citation")
	if !errors.IsCode(err, errors.CodeCitationUnparseable) {
		t.Errorf("want CodeCitationUnparseable, got %v", err)
	}

	_, err = lib.Parse("")
	if !errors.IsCode(err, errors.CodeCitationUnparseable) {
		t.Errorf("empty input: want CodeCitationUnparseable, got %v", err)
	}
}

func TestCompatible_SameFamily(t *testing.T) {
	lib := NewLibrary()
	if !lib.Compatible("U.S.", "S. Ct.") {
		t.Error("national reporters must be compatible with each other")
	}
	if !lib.Compatible("F.3d", "F. Supp. 2d") {
		t.Error("federal reporters must be compatible with each other")
	}
}

func TestCompatible_OfficialRegionalPair(t *testing.T) {
	lib := NewLibrary()
	if !lib.Compatible("Wn.2d", "P.3d") {
		t.Error("Washington official must pair with Pacific regional")
	}
	if !lib.Compatible("P.3d", "Wn.2d") {
		t.Error("pairing must be symmetric")
	}
	if !lib.Compatible("N.Y.3d", "N.E.3d") {
		t.Error("New York official must pair with Northeastern regional")
	}
}

func TestCompatible_CrossFamilyRejected(t *testing.T) {
	lib := NewLibrary()
	cases := [][2]string{
		{"F.3d", "Wn.2d"},    // federal vs state official
		{"F.3d", "P.3d"},     // federal vs regional
		{"U.S.", "Wn.2d"},    // national vs state official
		{"Wn.2d", "N.E.2d"},  // official vs wrong regional group
		{"Wn.2d", "Cal. 4th"}, // two different states
	}
	for _, c := range cases {
		if lib.Compatible(c[0], c[1]) {
			t.Errorf("Compatible(%s, %s) = true, want false", c[0], c[1])
		}
	}
}

func TestCompatible_UnknownReporter(t *testing.T) {
	lib := NewLibrary()
	if lib.Compatible("X.Y.Z.", "U.S.") {
		t.Error("unknown reporters are never compatible")
	}
}

func TestInfo_Metadata(t *testing.T) {
	lib := NewLibrary()
	m, ok := lib.Info("Wn. App.")
	if !ok || m.Kind != KindOfficial || m.RegionalGroup != "pacific" {
		t.Errorf("Wn. App. meta = %+v ok=%v", m, ok)
	}
	m, ok = lib.Info("Wn.2d")
	if !ok || m.Kind != KindOfficial || m.RegionalGroup != "pacific" {
		t.Errorf("Wn.2d meta = %+v ok=%v", m, ok)
	}
	m, ok = lib.Info("F.3d")
	if !ok || m.Kind != KindFederal || m.RegionalGroup != "" {
		t.Errorf("F.3d meta = %+v ok=%v", m, ok)
	}
}
