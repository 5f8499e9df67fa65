package citation

import "testing"

func TestSpan_Overlaps(t *testing.T) {
	a := Span{Start: 10, End: 20}
	cases := []struct {
		b    Span
		want bool
	}{
		{Span{Start: 15, End: 25}, true},
		{Span{Start: 0, End: 10}, false},  // touching end-to-start is not overlap
		{Span{Start: 20, End: 30}, false}, // adjacent
		{Span{Start: 12, End: 18}, true},  // nested
		{Span{Start: 5, End: 30}, true},   // containing
	}
	for _, tc := range cases {
		if got := a.Overlaps(tc.b); got != tc.want {
			t.Errorf("Overlaps(%+v) = %v, want %v", tc.b, got, tc.want)
		}
	}
}

func TestSpan_Key_StableIdentity(t *testing.T) {
	a := Span{Start: 10, End: 20, RawText: "347 U.S. 483"}
	b := Span{Start: 10, End: 20, RawText: "ignored"}
	if a.Key() != b.Key() {
		t.Error("Key must depend only on offsets")
	}
	if a.Key() == (Span{Start: 10, End: 21}).Key() {
		t.Error("different offsets must yield different keys")
	}
}

func TestCitation_BestName_PrefersCanonical(t *testing.T) {
	c := &Citation{
		ExtractedCaseName: "Brown v. Board",
		Verification: VerificationResult{
			Verified:      true,
			CanonicalName: "Brown v. Board of Education of Topeka",
		},
	}
	if got := c.BestName(); got != "Brown v. Board of Education of Topeka" {
		t.Errorf("BestName = %q", got)
	}

	c.Verification.CanonicalName = ""
	if got := c.BestName(); got != "Brown v. Board" {
		t.Errorf("BestName fallback = %q", got)
	}
}

func TestCitation_Year(t *testing.T) {
	cases := []struct {
		canonical string
		extracted string
		want      int
	}{
		{"1954-05-17", "1953", 1954},
		{"", "1803", 1803},
		{"", "", 0},
		{"n/a", "17", 0},
		{"", "3000", 0}, // implausible future year
	}
	for _, tc := range cases {
		c := &Citation{
			ExtractedDate: tc.extracted,
			Verification:  VerificationResult{CanonicalDate: tc.canonical},
		}
		if got := c.Year(); got != tc.want {
			t.Errorf("Year(%q,%q) = %d, want %d", tc.canonical, tc.extracted, got, tc.want)
		}
	}
}

func TestNormalizeCitation(t *testing.T) {
	cases := map[string]string{
		"347  U.S.\t483":   "347 U.S. 483",
		" 430 P.3d 655, ":  "430 P.3d 655",
		"5 U.S. 137.":      "5 U.S. 137",
	}
	for in, want := range cases {
		if got := NormalizeCitation(in); got != want {
			t.Errorf("NormalizeCitation(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUnverified_CarriesReason(t *testing.T) {
	r := Unverified("all sources exhausted")
	if r.Verified {
		t.Error("Unverified must not be verified")
	}
	if r.Details["reason"] != "all sources exhausted" {
		t.Errorf("Details = %v", r.Details)
	}
}
