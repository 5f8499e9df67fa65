// Package reporters is the citation pattern library: a fixed set of matchers,
// one per reporter family, that locate "volume reporter page" citation
// substrings in text and decompose them structurally.  It also owns the
// reporter → jurisdiction-family table used by the clustering engine to judge
// whether two citations can possibly denote the same case.
package reporters

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lexcite/caseguard/internal/domain/citation"
	"github.com/lexcite/caseguard/pkg/errors"
)

// Kind classifies a reporter series.
type Kind string

const (
	KindNational Kind = "national" // U.S. Supreme Court reporters
	KindFederal  Kind = "federal"  // federal appellate / district reporters
	KindRegional Kind = "regional" // West regional reporters
	KindOfficial Kind = "official" // a state's official reporter
)

// Meta is everything the rest of the system knows about one reporter series.
// Court tier is deliberately not tracked: a regional series republishes a
// state's supreme and appellate cases alike, so the parallel-pair check in
// Compatible works on family membership alone.
type Meta struct {
	// Canonical is the normalized abbreviation, e.g. "F.3d", "Wn.2d".
	Canonical string

	Kind Kind

	// FamilyKey names the jurisdiction family: "us" for the national
	// reporters, "federal", "regional-<group>" for regional reporters, or
	// the state code for official state reporters.
	FamilyKey string

	// RegionalGroup links an official state reporter to the West regional
	// group that republishes the same cases ("pacific", "atlantic", ...).
	// Empty for non-official reporters.
	RegionalGroup string
}

// entry couples a canonical reporter with the textual variants it appears as.
// Variants are regular-expression fragments; longer variants must sort first
// inside the generated alternation so "L. Ed. 2d" wins over "L. Ed.".
type entry struct {
	meta     Meta
	variants []string
}

// table is the fixed reporter set.  Coverage follows the common reporters in
// US legal writing; unknown reporters simply never match, which is the
// correct failure mode for a verification pipeline (recall is bounded by
// this table, precision is not affected).
var table = []entry{
	// National (U.S. Supreme Court).
	{Meta{"U.S.", KindNational, "us", ""}, []string{`U\.\s?S\.`}},
	{Meta{"S. Ct.", KindNational, "us", ""}, []string{`S\.\s?Ct\.`}},
	{Meta{"L. Ed. 2d", KindNational, "us", ""}, []string{`L\.\s?Ed\.\s?2d`}},
	{Meta{"L. Ed.", KindNational, "us", ""}, []string{`L\.\s?Ed\.`}},

	// Federal.
	{Meta{"F.4th", KindFederal, "federal", ""}, []string{`F\.\s?4th`}},
	{Meta{"F.3d", KindFederal, "federal", ""}, []string{`F\.\s?3d`}},
	{Meta{"F.2d", KindFederal, "federal", ""}, []string{`F\.\s?2d`}},
	{Meta{"F. Supp. 3d", KindFederal, "federal", ""}, []string{`F\.\s?Supp\.\s?3d`}},
	{Meta{"F. Supp. 2d", KindFederal, "federal", ""}, []string{`F\.\s?Supp\.\s?2d`}},
	{Meta{"F. Supp.", KindFederal, "federal", ""}, []string{`F\.\s?Supp\.`}},
	{Meta{"F.R.D.", KindFederal, "federal", ""}, []string{`F\.\s?R\.\s?D\.`}},
	{Meta{"B.R.", KindFederal, "federal", ""}, []string{`B\.\s?R\.`}},
	{Meta{"F.", KindFederal, "federal", ""}, []string{`F\.`}},

	// Regional.
	{Meta{"P.3d", KindRegional, "regional-pacific", "pacific"}, []string{`P\.\s?3d`}},
	{Meta{"P.2d", KindRegional, "regional-pacific", "pacific"}, []string{`P\.\s?2d`}},
	{Meta{"P.", KindRegional, "regional-pacific", "pacific"}, []string{`P\.`}},
	{Meta{"A.3d", KindRegional, "regional-atlantic", "atlantic"}, []string{`A\.\s?3d`}},
	{Meta{"A.2d", KindRegional, "regional-atlantic", "atlantic"}, []string{`A\.\s?2d`}},
	{Meta{"N.E.3d", KindRegional, "regional-northeastern", "northeastern"}, []string{`N\.\s?E\.\s?3d`}},
	{Meta{"N.E.2d", KindRegional, "regional-northeastern", "northeastern"}, []string{`N\.\s?E\.\s?2d`}},
	{Meta{"N.W.2d", KindRegional, "regional-northwestern", "northwestern"}, []string{`N\.\s?W\.\s?2d`}},
	{Meta{"S.E.2d", KindRegional, "regional-southeastern", "southeastern"}, []string{`S\.\s?E\.\s?2d`}},
	{Meta{"S.W.3d", KindRegional, "regional-southwestern", "southwestern"}, []string{`S\.\s?W\.\s?3d`}},
	{Meta{"S.W.2d", KindRegional, "regional-southwestern", "southwestern"}, []string{`S\.\s?W\.\s?2d`}},
	{Meta{"So. 3d", KindRegional, "regional-southern", "southern"}, []string{`So\.\s?3d`}},
	{Meta{"So. 2d", KindRegional, "regional-southern", "southern"}, []string{`So\.\s?2d`}},

	// State official reporters (selection), paired with their regional group.
	{Meta{"Wn.2d", KindOfficial, "wa", "pacific"}, []string{`Wn\.\s?2d`, `Wash\.\s?2d`}},
	{Meta{"Wn. App.", KindOfficial, "wa", "pacific"}, []string{`Wn\.\s?App\.`, `Wash\.\s?App\.`}},
	{Meta{"Cal. 5th", KindOfficial, "ca", "pacific"}, []string{`Cal\.\s?5th`}},
	{Meta{"Cal. 4th", KindOfficial, "ca", "pacific"}, []string{`Cal\.\s?4th`}},
	{Meta{"Cal. App. 5th", KindOfficial, "ca", "pacific"}, []string{`Cal\.\s?App\.\s?5th`}},
	{Meta{"Cal. App. 4th", KindOfficial, "ca", "pacific"}, []string{`Cal\.\s?App\.\s?4th`}},
	{Meta{"N.Y.3d", KindOfficial, "ny", "northeastern"}, []string{`N\.\s?Y\.\s?3d`}},
	{Meta{"N.Y.2d", KindOfficial, "ny", "northeastern"}, []string{`N\.\s?Y\.\s?2d`}},
	{Meta{"Ill. 2d", KindOfficial, "il", "northeastern"}, []string{`Ill\.\s?2d`}},
	{Meta{"Ohio St. 3d", KindOfficial, "oh", "northeastern"}, []string{`Ohio\s?St\.\s?3d`}},
	{Meta{"Mass.", KindOfficial, "ma", "northeastern"}, []string{`Mass\.`}},
	{Meta{"Tex.", KindOfficial, "tx", "southwestern"}, []string{`Tex\.`}},
	{Meta{"Ga.", KindOfficial, "ga", "southeastern"}, []string{`Ga\.`}},
	{Meta{"Fla.", KindOfficial, "fl", "southern"}, []string{`Fla\.`}},
	{Meta{"Colo.", KindOfficial, "co", "pacific"}, []string{`Colo\.`}},
	{Meta{"Or.", KindOfficial, "or", "pacific"}, []string{`Or\.`}},
}

// familyMatcher is one compiled matcher covering every reporter of one Kind.
type familyMatcher struct {
	kind Kind
	re   *regexp.Regexp
}

// Library holds the compiled matchers plus the canonical-form lookup tables.
// Construct once with NewLibrary and share; all methods are safe for
// concurrent use (regexp is goroutine-safe, tables are read-only).
type Library struct {
	matchers []familyMatcher
	byCanon  map[string]Meta
	// variantRe maps each compiled single-variant pattern to its canonical
	// form, used to normalize the reporter captured from a match.
	variants []variantPattern
}

type variantPattern struct {
	re        *regexp.Regexp
	canonical string
}

// NewLibrary compiles the fixed reporter table into per-family matchers.
func NewLibrary() *Library {
	lib := &Library{byCanon: make(map[string]Meta, len(table))}

	byKind := map[Kind][]string{}
	for _, e := range table {
		lib.byCanon[e.meta.Canonical] = e.meta
		for _, v := range e.variants {
			byKind[e.meta.Kind] = append(byKind[e.meta.Kind], v)
			lib.variants = append(lib.variants, variantPattern{
				re:        regexp.MustCompile(`^(?:` + v + `)$`),
				canonical: e.meta.Canonical,
			})
		}
	}

	// Table order is longest-first within each series, so joining in order
	// preserves the longest-match-wins property of the alternation.
	for _, kind := range []Kind{KindNational, KindFederal, KindRegional, KindOfficial} {
		alts := strings.Join(byKind[kind], "|")
		re := regexp.MustCompile(`\b(\d{1,4})\s+(` + alts + `)\s+(\d{1,5})\b`)
		lib.matchers = append(lib.matchers, familyMatcher{kind: kind, re: re})
	}
	return lib
}

// Match is one raw pattern-library hit: a span plus its decomposition.
type Match struct {
	Span   citation.Span
	Parsed citation.ParsedCitation
	Meta   Meta
}

// FindAll applies every family matcher over the full text and returns all
// raw matches, unsorted and possibly overlapping (e.g. "U.S." also matching
// inside a longer federal form).  Overlap resolution belongs to the position
// index, not here.
func (l *Library) FindAll(text string) []Match {
	var out []Match
	for _, m := range l.matchers {
		for _, loc := range m.re.FindAllStringSubmatchIndex(text, -1) {
			raw := text[loc[0]:loc[1]]
			vol, _ := strconv.Atoi(text[loc[2]:loc[3]])
			rep := l.normalizeReporter(text[loc[4]:loc[5]])
			page, _ := strconv.Atoi(text[loc[6]:loc[7]])
			meta, ok := l.byCanon[rep]
			if !ok {
				continue
			}
			out = append(out, Match{
				Span:   citation.Span{Start: loc[0], End: loc[1], RawText: raw},
				Parsed: citation.ParsedCitation{Volume: vol, Reporter: rep, Page: page},
				Meta:   meta,
			})
		}
	}
	return out
}

// Parse decomposes a standalone citation string into volume/reporter/page.
// Used by the verification engine for ad-hoc citations that never went
// through the position index.
func (l *Library) Parse(citationText string) (citation.ParsedCitation, error) {
	norm := citation.NormalizeCitation(citationText)
	if norm == "" {
		return citation.ParsedCitation{}, errors.New(errors.CodeCitationUnparseable, "empty citation text")
	}
	for _, m := range l.matchers {
		loc := m.re.FindStringSubmatchIndex(norm)
		if loc == nil {
			continue
		}
		vol, _ := strconv.Atoi(norm[loc[2]:loc[3]])
		rep := l.normalizeReporter(norm[loc[4]:loc[5]])
		page, _ := strconv.Atoi(norm[loc[6]:loc[7]])
		if _, ok := l.byCanon[rep]; !ok {
			return citation.ParsedCitation{}, errors.New(errors.CodeReporterUnknown, "reporter not in pattern library").WithDetail(rep)
		}
		return citation.ParsedCitation{Volume: vol, Reporter: rep, Page: page}, nil
	}
	return citation.ParsedCitation{}, errors.New(errors.CodeCitationUnparseable, "no reporter pattern matched").WithDetail(norm)
}

// Info returns the metadata for a canonical reporter abbreviation.
func (l *Library) Info(canonical string) (Meta, bool) {
	m, ok := l.byCanon[canonical]
	return m, ok
}

// normalizeReporter maps a matched textual variant to its canonical form.
// Unrecognized input is returned unchanged.
func (l *Library) normalizeReporter(raw string) string {
	trimmed := strings.TrimSpace(raw)
	for _, vp := range l.variants {
		if vp.re.MatchString(trimmed) {
			return vp.canonical
		}
	}
	return trimmed
}

// Compatible reports whether two reporters belong to the same jurisdiction
// family for clustering purposes: either the same family key, or a known
// official/regional parallel pair (a state's official reporter with the
// regional reporter that republishes it).  A federal reporter mixed with any
// state reporter is never compatible.
func (l *Library) Compatible(a, b string) bool {
	ma, okA := l.byCanon[a]
	mb, okB := l.byCanon[b]
	if !okA || !okB {
		return false
	}
	if ma.FamilyKey == mb.FamilyKey {
		return true
	}
	return isParallelPair(ma, mb) || isParallelPair(mb, ma)
}

// isParallelPair reports whether official is a state reporter whose cases are
// republished in the regional series reg.
func isParallelPair(official, reg Meta) bool {
	return official.Kind == KindOfficial &&
		reg.Kind == KindRegional &&
		official.RegionalGroup == reg.RegionalGroup
}
