package clustering

import (
	"testing"

	"github.com/lexcite/caseguard/internal/domain/citation"
	"github.com/lexcite/caseguard/internal/infrastructure/monitoring/logging"
	"github.com/lexcite/caseguard/internal/intelligence/reporters"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultConfig(), reporters.NewLibrary(), logging.NewNopLogger())
}

func cite(start int, raw, name string, nameConf float64, date string) citation.Citation {
	return citation.Citation{
		Span:              citation.Span{Start: start, End: start + len(raw), RawText: raw},
		ExtractedCaseName: name,
		NameConfidence:    nameConf,
		ExtractedDate:     date,
	}
}

func TestCluster_ParallelReporterPair(t *testing.T) {
	// "State v. Velazquez, 183 Wn.2d 649, 430 P.3d 655 (2018)": official
	// plus regional, adjacent, same year.
	cits := []citation.Citation{
		cite(20, "183 Wn.2d 649", "State v. Velazquez", 0.90, "2018"),
		cite(35, "430 P.3d 655", "", 0, "2018"),
	}
	e := newTestEngine()

	clusters := e.Cluster(cits)

	if len(clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(clusters))
	}
	cl := clusters[0]
	if len(cl.MemberKeys) != 2 {
		t.Fatalf("members = %v", cl.MemberKeys)
	}
	if cl.CanonicalName != "State v. Velazquez" {
		t.Fatalf("canonical name = %q", cl.CanonicalName)
	}
	if cl.Kind != citation.ClusterProximity {
		t.Fatalf("kind = %q", cl.Kind)
	}
	if cits[0].ClusterID == "" || cits[0].ClusterID != cits[1].ClusterID {
		t.Fatalf("member cluster ids = %q / %q", cits[0].ClusterID, cits[1].ClusterID)
	}
	if cl.ID != cits[0].ClusterID {
		t.Fatal("cluster id not propagated to members")
	}
}

func TestCluster_UnrelatedNeighborsRejected(t *testing.T) {
	// Proximity alone qualifies them; validation must reject on name and
	// year disagreement.
	cits := []citation.Citation{
		cite(13, "347 U.S. 483", "Brown v. Board", 0.95, "1954"),
		cite(80, "5 U.S. 137", "Marbury v. Madison", 0.95, "1803"),
	}
	clusters := newTestEngine().Cluster(cits)

	if len(clusters) != 0 {
		t.Fatalf("clusters = %+v, want none", clusters)
	}
	if cits[0].ClusterID != "" || cits[1].ClusterID != "" {
		t.Fatal("standalone citations must keep empty cluster ids")
	}
}

func TestCluster_IncompatibleFamiliesNeverCluster(t *testing.T) {
	// Same page number, adjacent, same year: still never one case, since
	// a federal reporter and an unrelated state official reporter cannot
	// be parallel.
	cits := []citation.Citation{
		cite(0, "100 F.3d 50", "", 0, "2000"),
		cite(13, "100 Cal. 4th 50", "", 0, "2000"),
	}
	clusters := newTestEngine().Cluster(cits)

	if len(clusters) != 0 {
		t.Fatalf("clusters = %+v, want none", clusters)
	}
}

func TestCluster_MinimumTwoMembers(t *testing.T) {
	cits := []citation.Citation{
		cite(0, "347 U.S. 483", "Brown v. Board", 0.95, "1954"),
	}
	if clusters := newTestEngine().Cluster(cits); len(clusters) != 0 {
		t.Fatalf("clusters = %+v, want none", clusters)
	}

	for _, cl := range newTestEngine().Cluster([]citation.Citation{
		cite(0, "410 U.S. 113", "Roe v. Wade", 0.95, "1973"),
		cite(15, "93 S. Ct. 705", "", 0, "1973"),
		cite(900, "5 U.S. 137", "Marbury v. Madison", 0.95, "1803"),
	}) {
		if len(cl.MemberKeys) < 2 {
			t.Fatalf("cluster %q has %d members", cl.ID, len(cl.MemberKeys))
		}
	}
}

func TestCluster_ParallelGroupingSpansWholeDocument(t *testing.T) {
	// Same case cited twice, far beyond proximity range.
	cits := []citation.Citation{
		cite(0, "410 U.S. 113", "Roe v. Wade", 0.95, "1973"),
		cite(2400, "410 U.S. 113", "Roe v. Wade", 0.90, "1973"),
	}
	clusters := newTestEngine().Cluster(cits)

	if len(clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(clusters))
	}
	if clusters[0].Kind != citation.ClusterParallel {
		t.Fatalf("kind = %q", clusters[0].Kind)
	}
}

func TestCluster_MergedAcrossGroupingPasses(t *testing.T) {
	// A+B qualify by proximity, A+C by name parallelism; sharing A they
	// collapse into one merged cluster.
	cits := []citation.Citation{
		cite(0, "183 Wn.2d 649", "State v. Velazquez", 0.90, "2018"),
		cite(16, "430 P.3d 655", "", 0, "2018"),
		cite(2000, "183 Wn.2d 649", "State v. Velazquez", 0.90, "2018"),
	}
	clusters := newTestEngine().Cluster(cits)

	if len(clusters) != 1 {
		t.Fatalf("clusters = %+v, want 1", clusters)
	}
	cl := clusters[0]
	if len(cl.MemberKeys) != 3 {
		t.Fatalf("members = %v, want 3", cl.MemberKeys)
	}
	if cl.Kind != citation.ClusterMerged {
		t.Fatalf("kind = %q, want merged", cl.Kind)
	}
}

func TestCluster_ConfidenceFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConfidence = 0.60
	e := NewEngine(cfg, reporters.NewLibrary(), logging.NewNopLogger())

	// Both carry weak generic-extraction names below the gate.
	cits := []citation.Citation{
		cite(0, "183 Wn.2d 649", "Some Phrase", 0.50, "2018"),
		cite(16, "430 P.3d 655", "Some Phrase", 0.50, "2018"),
	}
	if clusters := e.Cluster(cits); len(clusters) != 0 {
		t.Fatalf("clusters = %+v, want none", clusters)
	}
}

func TestCluster_RepresentativePrefersVerifiedMember(t *testing.T) {
	verified := cite(15, "93 S. Ct. 705", "", 0, "")
	verified.Verification = citation.VerificationResult{
		Verified:      true,
		Source:        "courtlistener_lookup",
		CanonicalName: "Roe v. Wade",
		CanonicalDate: "1973-01-22",
		Confidence:    0.80,
	}
	cits := []citation.Citation{
		cite(0, "410 U.S. 113", "Roe v. Wade", 1.0, "1973"),
		verified,
	}
	clusters := newTestEngine().Cluster(cits)

	if len(clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(clusters))
	}
	cl := clusters[0]
	if cl.CanonicalName != "Roe v. Wade" || cl.CanonicalDate != "1973-01-22" {
		t.Fatalf("canonical = %q / %q", cl.CanonicalName, cl.CanonicalDate)
	}
	if cl.Confidence != 0.80 {
		t.Fatalf("confidence = %v, want the verified member's", cl.Confidence)
	}
}

func TestCluster_DeterministicMembership(t *testing.T) {
	build := func() []citation.Citation {
		return []citation.Citation{
			cite(20, "183 Wn.2d 649", "State v. Velazquez", 0.90, "2018"),
			cite(35, "430 P.3d 655", "", 0, "2018"),
			cite(900, "347 U.S. 483", "Brown v. Board of Education", 0.95, "1954"),
		}
	}
	e := newTestEngine()

	a := e.Cluster(build())
	b := e.Cluster(build())

	if len(a) != len(b) {
		t.Fatalf("run sizes differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if len(a[i].MemberKeys) != len(b[i].MemberKeys) {
			t.Fatalf("cluster %d membership differs", i)
		}
		for j := range a[i].MemberKeys {
			if a[i].MemberKeys[j] != b[i].MemberKeys[j] {
				t.Fatalf("cluster %d member %d differs: %q vs %q", i, j, a[i].MemberKeys[j], b[i].MemberKeys[j])
			}
		}
	}
}

func TestMergeGroups(t *testing.T) {
	groups := []group{
		{members: []int{0, 1}, kind: citation.ClusterProximity},
		{members: []int{1, 2}, kind: citation.ClusterParallel},
		{members: []int{5, 6}, kind: citation.ClusterProximity},
	}
	merged := mergeGroups(groups)

	if len(merged) != 2 {
		t.Fatalf("merged = %+v, want 2 groups", merged)
	}
	if len(merged[0].members) != 3 || merged[0].kind != citation.ClusterMerged {
		t.Fatalf("first group = %+v", merged[0])
	}
	if len(merged[1].members) != 2 || merged[1].kind != citation.ClusterProximity {
		t.Fatalf("second group = %+v", merged[1])
	}
}
