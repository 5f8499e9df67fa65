// Package citation defines the core records produced by the caseguard
// pipeline: physical citation spans, extracted case names, verification
// results, and parallel-citation clusters.  Types here carry no behaviour
// beyond construction helpers and small predicates; the algorithms live in
// internal/intelligence.
package citation

import (
	"fmt"
	"strings"
	"time"
)

// Span identifies exactly one physical occurrence of a citation in the source
// text.  Offsets are byte offsets into the analyzed document.  Spans are
// immutable once produced by the pattern library.
type Span struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	RawText string `json:"raw_text"`
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Key returns a stable identity for the span within one document, used to
// reassemble concurrent per-citation results in document order.
func (s Span) Key() string {
	return fmt.Sprintf("%d:%d", s.Start, s.End)
}

// Overlaps reports whether two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// ParsedCitation is the structural decomposition of a citation string into
// its volume / reporter / page triple, the key used for every source query.
type ParsedCitation struct {
	Volume   int    `json:"volume"`
	Reporter string `json:"reporter"`
	Page     int    `json:"page"`
}

func (p ParsedCitation) String() string {
	return fmt.Sprintf("%d %s %d", p.Volume, p.Reporter, p.Page)
}

// IsolatedContext is the boundary-respecting text window preceding one
// citation.  It is transient: computed on demand, never persisted.
type IsolatedContext struct {
	Text        string `json:"text"`
	WindowStart int    `json:"window_start"`
	WindowEnd   int    `json:"window_end"`
}

// CaseNameResult is the outcome of case-name extraction for one citation
// occurrence.  Absence of a case name is a valid outcome, not an error:
// CaseName is empty, Confidence 0, Method "none".
type CaseNameResult struct {
	CaseName   string  `json:"case_name,omitempty"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

// Found reports whether extraction produced a usable case name.
func (r CaseNameResult) Found() bool { return r.CaseName != "" }

// VerificationResult is the outcome of checking one citation against the
// ordered source cascade.  Every citation gets a definite result; failure
// modes collapse into Verified=false with a diagnostic in Details.
type VerificationResult struct {
	Verified      bool              `json:"verified"`
	Source        string            `json:"source,omitempty"`
	CanonicalName string            `json:"canonical_name,omitempty"`
	CanonicalDate string            `json:"canonical_date,omitempty"`
	URL           string            `json:"url,omitempty"`
	Confidence    float64           `json:"confidence"`
	Details       map[string]string `json:"details,omitempty"`
}

// Unverified constructs a negative result with a diagnostic reason.
func Unverified(reason string) VerificationResult {
	return VerificationResult{
		Verified: false,
		Details:  map[string]string{"reason": reason},
	}
}

// Citation is the aggregate record returned to callers: one physical span
// plus everything the pipeline learned about it.  ClusterID is assigned
// during clustering and is the only field mutated after construction.
type Citation struct {
	Span              Span               `json:"span"`
	ExtractedCaseName string             `json:"extracted_case_name,omitempty"`
	ExtractedDate     string             `json:"extracted_date,omitempty"`
	NameConfidence    float64            `json:"name_confidence"`
	NameMethod        string             `json:"name_method,omitempty"`
	Verification      VerificationResult `json:"verification"`
	ClusterID         string             `json:"cluster_id,omitempty"`
}

// BestName returns the most authoritative name known for the citation: the
// canonical name from a verified source when present, else the extracted one.
func (c *Citation) BestName() string {
	if c.Verification.CanonicalName != "" {
		return c.Verification.CanonicalName
	}
	return c.ExtractedCaseName
}

// Year returns the four-digit year associated with the citation, preferring
// the canonical date over the extracted one.  Returns 0 when unknown.
func (c *Citation) Year() int {
	for _, d := range []string{c.Verification.CanonicalDate, c.ExtractedDate} {
		if y := yearOf(d); y != 0 {
			return y
		}
	}
	return 0
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	var y int
	if _, err := fmt.Sscanf(date[:4], "%04d", &y); err != nil {
		return 0
	}
	if y < 1600 || y > time.Now().Year()+1 {
		return 0
	}
	return y
}

// ClusterKind records which grouping path produced a cluster.
type ClusterKind string

const (
	ClusterProximity ClusterKind = "proximity"
	ClusterParallel  ClusterKind = "parallel"
	ClusterSemantic  ClusterKind = "semantic"
	ClusterMerged    ClusterKind = "merged"
)

// Cluster groups citations that denote the same underlying case.  Clusters
// are never mutated after construction; the merge step consumes two clusters
// and produces a replacement.
type Cluster struct {
	ID            string      `json:"id"`
	MemberKeys    []string    `json:"member_citation_ids"`
	CanonicalName string      `json:"canonical_name,omitempty"`
	CanonicalDate string      `json:"canonical_date,omitempty"`
	Confidence    float64     `json:"confidence"`
	Kind          ClusterKind `json:"kind"`
}

// HasMember reports whether the span key belongs to the cluster.
func (cl *Cluster) HasMember(key string) bool {
	for _, m := range cl.MemberKeys {
		if m == key {
			return true
		}
	}
	return false
}

// NormalizeCitation produces the canonical cache/query form of a citation
// string: collapsed whitespace, trailing punctuation stripped.
func NormalizeCitation(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	return strings.Trim(s, " .,;")
}
