// Package position builds the per-document citation position index and
// computes boundary-respecting context windows from it.  The index is the
// single defence against context bleeding: a citation's extraction window is
// clamped at the end of the nearest preceding citation so one case name can
// never be attributed to its neighbour.
package position

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lexcite/caseguard/internal/domain/citation"
	"github.com/lexcite/caseguard/internal/intelligence/reporters"
)

// DefaultMaxLookback bounds the context window when no preceding citation is
// nearby.  Party names sit immediately before the citation, so 200 bytes is
// generous; anything further back is unrelated prose.
const DefaultMaxLookback = 200

// Index is an ordered, non-overlapping sequence of citation matches for one
// document, sorted by start offset.  Built once per document, read-only
// afterward.
type Index struct {
	text    string
	matches []reporters.Match
}

// Build applies every reporter-family matcher over text, sorts the hits by
// start offset, and resolves overlaps by keeping the earliest-starting,
// longest span.
func Build(lib *reporters.Library, text string) *Index {
	raw := lib.FindAll(text)

	sort.Slice(raw, func(i, j int) bool {
		if raw[i].Span.Start != raw[j].Span.Start {
			return raw[i].Span.Start < raw[j].Span.Start
		}
		return raw[i].Span.Len() > raw[j].Span.Len()
	})

	kept := raw[:0]
	lastEnd := -1
	for _, m := range raw {
		if m.Span.Start < lastEnd {
			// Overlaps the previously kept span; the earlier, longer span
			// already won.
			continue
		}
		kept = append(kept, m)
		lastEnd = m.Span.End
	}

	return &Index{text: text, matches: kept}
}

// BuildFromSubstrings constructs an index from caller-supplied citation
// substrings, bypassing pattern discovery.  Each substring is located at
// every occurrence in text; substrings that never occur are ignored.
// Overlap resolution is identical to Build.
func BuildFromSubstrings(lib *reporters.Library, text string, citations []string) *Index {
	var raw []reporters.Match
	for _, c := range citations {
		needle := citation.NormalizeCitation(c)
		if needle == "" {
			continue
		}
		for from := 0; ; {
			i := strings.Index(text[from:], needle)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(needle)
			parsed, err := lib.Parse(needle)
			m := reporters.Match{
				Span: citation.Span{Start: start, End: end, RawText: text[start:end]},
			}
			if err == nil {
				m.Parsed = parsed
				if meta, ok := lib.Info(parsed.Reporter); ok {
					m.Meta = meta
				}
			}
			raw = append(raw, m)
			from = end
		}
	}

	sort.Slice(raw, func(i, j int) bool {
		if raw[i].Span.Start != raw[j].Span.Start {
			return raw[i].Span.Start < raw[j].Span.Start
		}
		return raw[i].Span.Len() > raw[j].Span.Len()
	})

	kept := raw[:0]
	lastEnd := -1
	for _, m := range raw {
		if m.Span.Start < lastEnd {
			continue
		}
		kept = append(kept, m)
		lastEnd = m.Span.End
	}
	return &Index{text: text, matches: kept}
}

// Matches returns the resolved matches in document order.  The returned
// slice is owned by the index; callers must not mutate it.
func (x *Index) Matches() []reporters.Match { return x.matches }

// Len returns the number of indexed citations.
func (x *Index) Len() int { return len(x.matches) }

// Text returns the document text the index was built over.
func (x *Index) Text() string { return x.text }

// Isolate computes the context window for target: the text strictly between
// the end of the nearest preceding indexed citation (or the lookback bound)
// and the start of target.  maxLookback <= 0 selects DefaultMaxLookback.
//
// The preceding citation is found by binary search: the rightmost indexed
// span whose end is at or before target.Start.
func (x *Index) Isolate(target citation.Span, maxLookback int) citation.IsolatedContext {
	if maxLookback <= 0 {
		maxLookback = DefaultMaxLookback
	}

	prevEnd := 0
	// sort.Search finds the first span with End > target.Start; the one
	// before it is the nearest preceding citation.
	i := sort.Search(len(x.matches), func(i int) bool {
		return x.matches[i].Span.End > target.Start
	})
	for j := i - 1; j >= 0; j-- {
		// Skip the target itself and anything sharing its start (possible
		// when the target span came from the caller, not this index).
		if x.matches[j].Span.End <= target.Start {
			prevEnd = x.matches[j].Span.End
			break
		}
	}

	windowStart := target.Start - maxLookback
	if prevEnd > windowStart {
		windowStart = prevEnd
	}
	if windowStart < 0 {
		windowStart = 0
	}
	windowEnd := target.Start
	if windowEnd > len(x.text) {
		windowEnd = len(x.text)
	}
	if windowStart > windowEnd {
		windowStart = windowEnd
	}

	return citation.IsolatedContext{
		Text:        x.text[windowStart:windowEnd],
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}
}

var yearAfterRe = regexp.MustCompile(`^[^()]{0,40}?\(\s*(?:[A-Za-z0-9.\s]*?\s)?(\d{4})\s*\)`)

// YearAfter scans the text immediately following a citation span for a
// parenthetical year, e.g. "(1954)" or "(9th Cir. 2001)".  Returns "" when
// none is found within the scan window.
func (x *Index) YearAfter(span citation.Span) string {
	if span.End >= len(x.text) {
		return ""
	}
	tail := x.text[span.End:]
	if len(tail) > 60 {
		tail = tail[:60]
	}
	m := yearAfterRe.FindStringSubmatch(tail)
	if m == nil {
		return ""
	}
	return m[1]
}
