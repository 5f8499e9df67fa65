// Package clustering groups citations that denote the same underlying case.
// Candidate groups come from two independent passes, proximity and
// case-name parallelism, and every candidate must then pass positive
// validation: name similarity, year spread, reporter compatibility, and
// confidence coherence.  Reject-by-default is the point; proximity alone
// routinely lumps unrelated string-cites together.
package clustering

import (
	"sort"

	"github.com/oklog/ulid/v2"

	"github.com/lexcite/caseguard/internal/domain/citation"
	"github.com/lexcite/caseguard/internal/infrastructure/monitoring/logging"
	"github.com/lexcite/caseguard/internal/intelligence/reporters"
	"github.com/lexcite/caseguard/internal/intelligence/textsim"
)

// Config carries the clustering thresholds.  All of them are tunable; the
// defaults are starting points, not validated ground truth.
type Config struct {
	MinConfidence       float64 `mapstructure:"min_confidence"`
	MaxProximity        int     `mapstructure:"max_proximity"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	YearTolerance       int     `mapstructure:"year_tolerance"`
	TokenWeight         float64 `mapstructure:"token_weight"`
	SequenceWeight      float64 `mapstructure:"sequence_weight"`
	MaxConfidenceSpread float64 `mapstructure:"max_confidence_spread"`
	MaxSpanWindow       int     `mapstructure:"max_span_window"`
}

func DefaultConfig() Config {
	return Config{
		MinConfidence:       0.30,
		MaxProximity:        500,
		SimilarityThreshold: 0.75,
		YearTolerance:       2,
		TokenWeight:         textsim.DefaultTokenWeight,
		SequenceWeight:      textsim.DefaultSequenceWeight,
		MaxConfidenceSpread: 0.60,
		MaxSpanWindow:       20000,
	}
}

// Engine clusters one document's citations.  Pure CPU work, no I/O; safe
// for concurrent use across documents.
type Engine struct {
	cfg    Config
	lib    *reporters.Library
	logger logging.Logger
}

func NewEngine(cfg Config, lib *reporters.Library, log logging.Logger) *Engine {
	if log == nil {
		log = logging.NewNopLogger()
	}
	def := DefaultConfig()
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = def.MinConfidence
	}
	if cfg.MaxProximity <= 0 {
		cfg.MaxProximity = def.MaxProximity
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = def.SimilarityThreshold
	}
	if cfg.YearTolerance <= 0 {
		cfg.YearTolerance = def.YearTolerance
	}
	if cfg.TokenWeight <= 0 && cfg.SequenceWeight <= 0 {
		cfg.TokenWeight, cfg.SequenceWeight = def.TokenWeight, def.SequenceWeight
	}
	if cfg.MaxConfidenceSpread <= 0 {
		cfg.MaxConfidenceSpread = def.MaxConfidenceSpread
	}
	if cfg.MaxSpanWindow <= 0 {
		cfg.MaxSpanWindow = def.MaxSpanWindow
	}
	if lib == nil {
		lib = reporters.NewLibrary()
	}
	return &Engine{cfg: cfg, lib: lib, logger: log.Named("clustering")}
}

// candidate is one citation admitted to clustering, with the derived
// attributes the validators need.
type candidate struct {
	idx        int // position in the caller's slice
	span       citation.Span
	name       string
	year       int
	reporter   string
	confidence float64
}

type group struct {
	members []int // candidate indexes
	kind    citation.ClusterKind
}

// Cluster groups the document's citations and returns the surviving
// clusters.  Membership is deterministic for identical input; only the
// generated cluster IDs differ between runs.  Citations that end up in a
// cluster get their ClusterID assigned in place.
func (e *Engine) Cluster(citations []citation.Citation) []citation.Cluster {
	cands := e.admit(citations)
	if len(cands) < 2 {
		return nil
	}

	groups := e.proximityGroups(cands)
	groups = append(groups, e.parallelGroups(cands)...)

	valid := groups[:0]
	for _, g := range groups {
		if e.validate(cands, g) {
			valid = append(valid, g)
		}
	}
	merged := mergeGroups(valid)

	var out []citation.Cluster
	for _, g := range merged {
		cl, ok := e.build(citations, cands, g)
		if !ok {
			continue
		}
		for _, ci := range g.members {
			citations[cands[ci].idx].ClusterID = cl.ID
		}
		out = append(out, cl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberKeys[0] < out[j].MemberKeys[0] })
	e.logger.Debug("clustering complete",
		logging.Int("citations", len(citations)),
		logging.Int("candidates", len(cands)),
		logging.Int("clusters", len(out)),
	)
	return out
}

// admit applies the confidence filter and derives per-candidate attributes.
// Low-confidence citations stay standalone records.
func (e *Engine) admit(citations []citation.Citation) []candidate {
	var cands []candidate
	for i := range citations {
		c := &citations[i]
		conf := clusterConfidence(c)
		if conf < e.cfg.MinConfidence {
			continue
		}
		cand := candidate{
			idx:        i,
			span:       c.Span,
			name:       c.BestName(),
			year:       c.Year(),
			confidence: conf,
		}
		if parsed, err := e.lib.Parse(c.Span.RawText); err == nil {
			cand.reporter = parsed.Reporter
		}
		cands = append(cands, cand)
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].span.Start < cands[j].span.Start })
	return cands
}

// clusterConfidence is the citation's standing for cluster candidacy: the
// source-backed confidence when verified, else the extraction confidence.
// A bare span with no name evidence either way is neutral, not suspect;
// parallel citations usually have no context of their own.
func clusterConfidence(c *citation.Citation) float64 {
	if c.Verification.Verified {
		return c.Verification.Confidence
	}
	if c.ExtractedCaseName != "" {
		return c.NameConfidence
	}
	return 0.5
}

// proximityGroups sweeps the span-sorted candidates left to right, chaining
// neighbors whose gap is within MaxProximity.
func (e *Engine) proximityGroups(cands []candidate) []group {
	var groups []group
	cur := []int{0}
	for i := 1; i < len(cands); i++ {
		gap := cands[i].span.Start - cands[i-1].span.End
		if gap <= e.cfg.MaxProximity {
			cur = append(cur, i)
			continue
		}
		if len(cur) >= 2 {
			groups = append(groups, group{members: cur, kind: citation.ClusterProximity})
		}
		cur = []int{i}
	}
	if len(cur) >= 2 {
		groups = append(groups, group{members: cur, kind: citation.ClusterProximity})
	}
	return groups
}

// parallelGroups links candidates whose case names agree and whose years
// are close, regardless of distance in the document.  Connected components
// of the link graph become candidate groups.
func (e *Engine) parallelGroups(cands []candidate) []group {
	parent := newUnionFind(len(cands))
	for i := 0; i < len(cands); i++ {
		for j := i + 1; j < len(cands); j++ {
			if e.namesAgree(cands[i], cands[j]) && e.yearsAgree(cands[i], cands[j]) {
				parent.union(i, j)
			}
		}
	}
	return parent.groups(citation.ClusterParallel)
}

func (e *Engine) namesAgree(a, b candidate) bool {
	if a.name == "" || b.name == "" {
		return false
	}
	score := textsim.Weighted(a.name, b.name, e.cfg.TokenWeight, e.cfg.SequenceWeight)
	return score >= e.cfg.SimilarityThreshold
}

func (e *Engine) yearsAgree(a, b candidate) bool {
	if a.year == 0 || b.year == 0 {
		return false
	}
	diff := a.year - b.year
	if diff < 0 {
		diff = -diff
	}
	return diff <= e.cfg.YearTolerance
}

// validate is the positive-validation gate: a group survives only when
// every check passes.
func (e *Engine) validate(cands []candidate, g group) bool {
	if len(g.members) < 2 {
		return false
	}
	minConf, maxConf := 1.0, 0.0
	minStart, maxEnd := int(^uint(0)>>1), 0
	minYear, maxYear := 0, 0
	for _, ci := range g.members {
		c := cands[ci]
		if c.confidence < minConf {
			minConf = c.confidence
		}
		if c.confidence > maxConf {
			maxConf = c.confidence
		}
		if c.span.Start < minStart {
			minStart = c.span.Start
		}
		if c.span.End > maxEnd {
			maxEnd = c.span.End
		}
		if c.year != 0 {
			if minYear == 0 || c.year < minYear {
				minYear = c.year
			}
			if c.year > maxYear {
				maxYear = c.year
			}
		}
	}

	// (b) year spread within tolerance, over members with a known year.
	if minYear != 0 && maxYear-minYear > e.cfg.YearTolerance {
		return false
	}
	// (d) coherence: confidences must not diverge wildly, spans must sit
	// within one plausible citation neighborhood.
	if maxConf-minConf > e.cfg.MaxConfidenceSpread {
		return false
	}
	if maxEnd-minStart > e.cfg.MaxSpanWindow {
		return false
	}

	for i := 0; i < len(g.members); i++ {
		for j := i + 1; j < len(g.members); j++ {
			a, b := cands[g.members[i]], cands[g.members[j]]
			// (a) pairwise name agreement; missing names are lenient.
			if a.name != "" && b.name != "" && !e.namesAgree(a, b) {
				return false
			}
			// (c) jurisdiction-family compatibility.
			if a.reporter != "" && b.reporter != "" && !e.lib.Compatible(a.reporter, b.reporter) {
				return false
			}
		}
	}
	return true
}

// build turns a validated, merged group into the output cluster record.
func (e *Engine) build(citations []citation.Citation, cands []candidate, g group) (citation.Cluster, bool) {
	if len(g.members) < 2 {
		return citation.Cluster{}, false
	}
	keys := make([]string, 0, len(g.members))
	for _, ci := range g.members {
		keys = append(keys, cands[ci].span.Key())
	}
	sort.Strings(keys)

	rep := e.representative(citations, cands, g.members)
	if rep.BestName() == "" {
		return citation.Cluster{}, false
	}
	date := rep.Verification.CanonicalDate
	if date == "" {
		date = rep.ExtractedDate
	}
	return citation.Cluster{
		ID:            ulid.Make().String(),
		MemberKeys:    keys,
		CanonicalName: rep.BestName(),
		CanonicalDate: date,
		Confidence:    clusterConfidence(rep),
		Kind:          g.kind,
	}, true
}

// representative picks the member whose name and date the cluster adopts:
// the highest-confidence verified member, else the most complete one.
func (e *Engine) representative(citations []citation.Citation, cands []candidate, members []int) *citation.Citation {
	var best *citation.Citation
	bestScore := -1.0
	for _, ci := range members {
		c := &citations[cands[ci].idx]
		score := clusterConfidence(c)
		if c.Verification.Verified {
			score += 10
		} else {
			if c.BestName() != "" {
				score += 1
			}
			if c.Year() != 0 {
				score += 1
			}
		}
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}

// mergeGroups joins candidate groups that share a member via connected
// components.  A merged cluster that drew from both grouping passes is
// reported as kind "merged".
func mergeGroups(groups []group) []group {
	if len(groups) == 0 {
		return nil
	}
	owner := make(map[int]int) // candidate index -> group index in out
	var out []group
	for _, g := range groups {
		target := -1
		for _, m := range g.members {
			if gi, ok := owner[m]; ok {
				target = gi
				break
			}
		}
		if target == -1 {
			gi := len(out)
			out = append(out, group{members: append([]int(nil), g.members...), kind: g.kind})
			for _, m := range g.members {
				owner[m] = gi
			}
			continue
		}
		dst := &out[target]
		if dst.kind != g.kind {
			dst.kind = citation.ClusterMerged
		}
		for _, m := range g.members {
			if gi, ok := owner[m]; ok && gi != target {
				// Fold the other group in wholesale.
				for _, om := range out[gi].members {
					if owner[om] != target {
						owner[om] = target
						dst.members = append(dst.members, om)
					}
				}
				out[gi].members = nil
				if out[gi].kind != dst.kind {
					dst.kind = citation.ClusterMerged
				}
				continue
			}
			if _, ok := owner[m]; !ok {
				owner[m] = target
				dst.members = append(dst.members, m)
			}
		}
	}
	final := out[:0]
	for _, g := range out {
		if len(g.members) >= 2 {
			sort.Ints(g.members)
			final = append(final, g)
		}
	}
	return final
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}

func (u *unionFind) groups(kind citation.ClusterKind) []group {
	byRoot := make(map[int][]int)
	for i := range u.parent {
		root := u.find(i)
		byRoot[root] = append(byRoot[root], i)
	}
	roots := make([]int, 0, len(byRoot))
	for r, members := range byRoot {
		if len(members) >= 2 {
			roots = append(roots, r)
		}
	}
	sort.Ints(roots)
	out := make([]group, 0, len(roots))
	for _, r := range roots {
		out = append(out, group{members: byRoot[r], kind: kind})
	}
	return out
}
