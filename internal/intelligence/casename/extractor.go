// Package casename extracts the "Party v. Party" (or In re / Matter of /
// Estate of / Ex parte) label for a citation from its isolated context
// window.  Extraction is a pure function over (context, citation text): no
// I/O, no shared state beyond an optional memoization cache scoped to one
// pipeline run.  Absence of a case name is a valid outcome, never an error.
package casename

import (
	"hash/fnv"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/lexcite/caseguard/internal/domain/citation"
)

// Method names recorded in CaseNameResult.Method.
const (
	MethodVersus   = "versus"
	MethodInRe     = "in_re"
	MethodMatterOf = "matter_of"
	MethodEstateOf = "estate_of"
	MethodExParte  = "ex_parte"
	MethodGeneric  = "generic"
	MethodNone     = "none"
)

// Config holds the extractor's tunable parameters.
type Config struct {
	// SoftContextCap is the cleaned-context length above which only the
	// tail sentences nearest the citation are kept.
	SoftContextCap int `mapstructure:"soft_context_cap"`

	// MinNameLen / MaxNameLen bound a valid case name.
	MinNameLen int `mapstructure:"min_name_len"`
	MaxNameLen int `mapstructure:"max_name_len"`

	// Memoize enables the per-run (context, citation) result cache.
	Memoize bool `mapstructure:"memoize"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		SoftContextCap: 150,
		MinNameLen:     5,
		MaxNameLen:     200,
		Memoize:        true,
	}
}

// pattern couples a matcher with its method tag and base confidence.  The
// list is tried strictly in order; the first pattern whose (rightmost) match
// survives validation wins, so a specific pattern always beats the generic
// fallback even when both would match.
type pattern struct {
	method string
	re     *regexp.Regexp
	base   float64
}

// party is a capitalized token run: up to eight words, each starting with a
// letter, allowing abbreviations, apostrophes, ampersands and hyphens.
const party = `[A-Z][\w.'&\-]*(?:[ ](?:[A-Z&][\w.'&\-]*|of|the|and|for|de|la|van|von|ex[ ]rel\.?))*`

var patterns = []pattern{
	{MethodVersus, regexp.MustCompile(`(` + party + `),?[ ]v(?:s)?\.[ ](` + party + `)`), 0.90},
	{MethodInRe, regexp.MustCompile(`(?:In[ ]re|IN[ ]RE)[ ](` + party + `)`), 0.85},
	{MethodMatterOf, regexp.MustCompile(`(?:In[ ]the[ ])?Matter[ ]of[ ](` + party + `)`), 0.85},
	{MethodEstateOf, regexp.MustCompile(`Estate[ ]of[ ](` + party + `)`), 0.85},
	{MethodExParte, regexp.MustCompile(`Ex[ ]parte[ ](` + party + `)`), 0.85},
	{MethodGeneric, regexp.MustCompile(`(` + party + `(?:[ ]v(?:s)?\.[ ]` + party + `)?)`), 0.50},
}

// signalRe strips citation-history and introductory signal phrases.  These
// precede or wrap a citation without being its case name; left in place they
// corrupt boundary detection ("See also Marbury" is not a party).
var signalRe = regexp.MustCompile(`(?i)\b(?:see[ ]also|see,?[ ]e\.g\.,?|see|but[ ]see|but[ ]cf\.|cf\.|accord|compare|contra|e\.g\.,?|citing|quoting|overruled[ ](?:in[ ]part[ ])?by|superseded[ ]by|abrogated[ ]by|aff'd|affirmed[ ]by|rev'd|reversed[ ]by|cert\.[ ]denied|vacated[ ]by)\b`)

// connectorRe strips leading narrative connectors from a matched name.
// Bare "in" is deliberately absent: stripping it would mangle "In re" names.
var connectorRe = regexp.MustCompile(`(?i)^(?:as[ ]held[ ]in|as[ ]stated[ ]in|the[ ]court[ ]in|the[ ]decision[ ]in|held[ ]in)[ ]`)

// historyParenRe removes parenthetical case-history asides such as
// "(en banc)" or "(plurality opinion)".
var historyParenRe = regexp.MustCompile(`\([^)]{0,60}\)`)

// actionWords are bare legal-action words that can never be a case name on
// their own.
var actionWords = map[string]bool{
	"affirmed": true, "reversed": true, "vacated": true, "remanded": true,
	"overruled": true, "denied": true, "granted": true, "dismissed": true,
	"modified": true, "superseded": true,
}

var stopwords = map[string]bool{
	"the": true, "of": true, "in": true, "and": true, "a": true, "an": true,
	"to": true, "for": true, "on": true, "at": true, "by": true, "that": true,
	"this": true, "court": true, "case": true, "id": true, "supra": true,
}

// markers that a validated case name must contain (lowercased comparison).
var caseMarkers = []string{" v. ", " vs. ", "in re ", "estate of ", "matter of ", "ex parte "}

// Extractor applies the prioritized pattern list to isolated contexts.
// Safe for concurrent use; the memo cache is internally synchronized.
type Extractor struct {
	cfg  Config
	mu   sync.RWMutex
	memo map[memoKey]citation.CaseNameResult
}

type memoKey struct {
	contextHash uint64
	citation    string
}

// NewExtractor constructs an Extractor with the given configuration.
func NewExtractor(cfg Config) *Extractor {
	if cfg.SoftContextCap <= 0 {
		cfg.SoftContextCap = DefaultConfig().SoftContextCap
	}
	if cfg.MinNameLen <= 0 {
		cfg.MinNameLen = DefaultConfig().MinNameLen
	}
	if cfg.MaxNameLen <= 0 {
		cfg.MaxNameLen = DefaultConfig().MaxNameLen
	}
	return &Extractor{
		cfg:  cfg,
		memo: make(map[memoKey]citation.CaseNameResult),
	}
}

// Extract produces the best-guess case name for one citation occurrence.
// Deterministic: identical (context, citationText) inputs always yield an
// identical result.
func (e *Extractor) Extract(ictx citation.IsolatedContext, citationText string) citation.CaseNameResult {
	none := citation.CaseNameResult{Confidence: 0, Method: MethodNone}

	if strings.TrimSpace(ictx.Text) == "" {
		return none
	}

	var key memoKey
	if e.cfg.Memoize {
		key = memoKey{contextHash: hashText(ictx.Text), citation: citationText}
		e.mu.RLock()
		cached, ok := e.memo[key]
		e.mu.RUnlock()
		if ok {
			return cached
		}
	}

	result := e.extract(ictx.Text)

	if e.cfg.Memoize {
		e.mu.Lock()
		e.memo[key] = result
		e.mu.Unlock()
	}
	return result
}

func (e *Extractor) extract(context string) citation.CaseNameResult {
	none := citation.CaseNameResult{Confidence: 0, Method: MethodNone}

	cleaned := precleanContext(context)
	if cleaned == "" {
		return none
	}
	cleaned = e.capToTail(cleaned)

	for _, p := range patterns {
		locs := p.re.FindAllStringIndex(cleaned, -1)
		if locs == nil {
			continue
		}
		// Rightmost match: the party name closest to the citation.
		loc := locs[len(locs)-1]
		candidate := cleanName(cleaned[loc[0]:loc[1]])
		if !e.validate(candidate) {
			continue
		}

		conf := p.base
		// Position bonus: the name ends within a few bytes of the window
		// end, i.e. immediately before the citation.
		if len(cleaned)-loc[1] <= 10 {
			conf += 0.05
		}
		// Quality bonus: multi-word parties on both sides of the marker.
		if nameQuality(candidate) {
			conf += 0.05
		}
		if conf > 1.0 {
			conf = 1.0
		}
		return citation.CaseNameResult{CaseName: candidate, Confidence: conf, Method: p.method}
	}
	return none
}

// precleanContext normalizes unicode, strips signal phrases and short
// parenthetical asides, and collapses whitespace.
func precleanContext(s string) string {
	s = norm.NFC.String(s)
	s = historyParenRe.ReplaceAllString(s, " ")
	s = signalRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// capToTail enforces the soft context cap by dropping leading sentences
// until the remainder fits; the party name is always adjacent to the
// citation so the tail is the only part that matters.
func (e *Extractor) capToTail(s string) string {
	for len(s) > e.cfg.SoftContextCap {
		cut := strings.IndexAny(s, ".;")
		// Skip abbreviation dots ("v.", "Inc."): a sentence boundary needs
		// a following space and at least two preceding word characters.
		for cut >= 0 && !isSentenceBoundary(s, cut) {
			next := strings.IndexAny(s[cut+1:], ".;")
			if next < 0 {
				cut = -1
				break
			}
			cut += 1 + next
		}
		if cut < 0 || cut+1 >= len(s) {
			// Single oversized sentence: keep the tail bytes, aligned to a
			// word boundary.
			tail := s[len(s)-e.cfg.SoftContextCap:]
			if sp := strings.IndexByte(tail, ' '); sp >= 0 {
				tail = tail[sp+1:]
			}
			return tail
		}
		s = strings.TrimSpace(s[cut+1:])
	}
	return s
}

func isSentenceBoundary(s string, i int) bool {
	if s[i] == ';' {
		return true
	}
	if i+1 >= len(s) || s[i+1] != ' ' {
		return false
	}
	// Two letters before the dot, and the first letter lowercase, rules out
	// most abbreviations ("v.", "U.S.", "Wn.", "Inc." starts uppercase but
	// is rare mid-sentence; losing it costs a sentence split, not a name).
	if i >= 2 {
		a, b := rune(s[i-2]), rune(s[i-1])
		return unicode.IsLower(a) && unicode.IsLower(b)
	}
	return false
}

// cleanName normalizes a matched candidate: connector phrases stripped,
// trailing punctuation and leaked citation fragments removed.
func cleanName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = connectorRe.ReplaceAllString(s, "")
	s = strings.Trim(s, " ,;:")
	// A trailing volume number leaked from the citation itself.
	s = regexp.MustCompile(`[, ]+\d{1,4}$`).ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// validate applies the acceptance rules: bounded length, uppercase start, a
// recognized case-type marker, not a bare action word, not stopword-heavy.
func (e *Extractor) validate(name string) bool {
	if len(name) < e.cfg.MinNameLen || len(name) > e.cfg.MaxNameLen {
		return false
	}
	r := rune(name[0])
	if !unicode.IsUpper(r) {
		return false
	}

	lower := strings.ToLower(name)
	if actionWords[strings.Trim(lower, ".")] {
		return false
	}

	marked := false
	for _, m := range caseMarkers {
		if strings.Contains(lower+" ", m) || strings.HasPrefix(lower, strings.TrimSpace(m)+" ") {
			marked = true
			break
		}
	}
	if !marked {
		return false
	}

	words := strings.Fields(lower)
	stops := 0
	for _, w := range words {
		if stopwords[strings.Trim(w, ".,")] {
			stops++
		}
	}
	return stops*2 < len(words) // stopwords must not dominate
}

// nameQuality reports whether both sides of a "v." marker carry substantive
// words, the signature of a complete party pair.
func nameQuality(name string) bool {
	lower := strings.ToLower(name)
	i := strings.Index(lower, " v. ")
	if i < 0 {
		i = strings.Index(lower, " vs. ")
	}
	if i < 0 {
		// Single-party forms: quality means more than one substantive word.
		return len(strings.Fields(name)) >= 3
	}
	left := strings.TrimSpace(name[:i])
	right := name[i:]
	right = strings.TrimSpace(right[strings.Index(right, ". ")+2:])
	return left != "" && len(strings.Fields(right)) >= 1 && len(left) >= 3 && len(right) >= 3
}

func hashText(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
