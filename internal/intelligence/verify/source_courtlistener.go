package verify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/lexcite/caseguard/internal/domain/citation"
	"github.com/lexcite/caseguard/pkg/errors"
)

// CourtListenerConfig locates the primary authoritative API.  Token is
// optional; anonymous access works at a lower rate limit.
type CourtListenerConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
}

type courtListenerBase struct {
	cfg    CourtListenerConfig
	client *HTTPClient
}

func (b courtListenerBase) headers() map[string]string {
	if b.cfg.Token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Token " + b.cfg.Token}
}

func (b courtListenerBase) endpoint(path string) string {
	return strings.TrimRight(b.cfg.BaseURL, "/") + path
}

// absoluteURL resolves the API's site-relative result links.
func (b courtListenerBase) absoluteURL(rel string) string {
	if rel == "" || strings.HasPrefix(rel, "http") {
		return rel
	}
	u, err := url.Parse(b.cfg.BaseURL)
	if err != nil {
		return rel
	}
	return u.Scheme + "://" + u.Host + rel
}

type clOpinionCluster struct {
	ID          int    `json:"id"`
	CaseName    string `json:"case_name"`
	DateFiled   string `json:"date_filed"`
	AbsoluteURL string `json:"absolute_url"`
}

// LookupSource is the structured citation-lookup endpoint: it parses the
// citation server-side and returns the matching opinion clusters directly.
// Cheapest and most precise, so it runs first.
type LookupSource struct {
	courtListenerBase
}

func NewLookupSource(cfg CourtListenerConfig, client *HTTPClient) *LookupSource {
	return &LookupSource{courtListenerBase{cfg: cfg, client: client}}
}

func (s *LookupSource) Name() string { return "courtlistener_lookup" }

func (s *LookupSource) Verify(ctx context.Context, q citation.Query) (citation.VerificationResult, error) {
	var entries []struct {
		Citation string             `json:"citation"`
		Status   int                `json:"status"`
		Clusters []clOpinionCluster `json:"clusters"`
	}
	form := url.Values{"text": {q.CitationText}}
	err := s.client.PostFormJSON(ctx, s.endpoint("/citation-lookup/"), form, s.headers(), &entries)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return citation.Unverified("citation lookup returned no match"), nil
		}
		return citation.VerificationResult{}, err
	}
	for _, e := range entries {
		if e.Status != 200 || len(e.Clusters) == 0 {
			continue
		}
		cl := e.Clusters[0]
		return citation.VerificationResult{
			Verified:      true,
			Source:        s.Name(),
			CanonicalName: cl.CaseName,
			CanonicalDate: cl.DateFiled,
			URL:           s.absoluteURL(cl.AbsoluteURL),
			Confidence:    0.95,
			Details:       map[string]string{"matched_citation": e.Citation},
		}, nil
	}
	return citation.Unverified("citation lookup returned no match"), nil
}

// SearchSource runs the citation through the full-text opinion search.
// Looser than the structured lookup; its hits start from a lower base
// confidence.
type SearchSource struct {
	courtListenerBase
}

func NewSearchSource(cfg CourtListenerConfig, client *HTTPClient) *SearchSource {
	return &SearchSource{courtListenerBase{cfg: cfg, client: client}}
}

func (s *SearchSource) Name() string { return "courtlistener_search" }

func (s *SearchSource) Verify(ctx context.Context, q citation.Query) (citation.VerificationResult, error) {
	var resp struct {
		Count   int `json:"count"`
		Results []struct {
			CaseName    string `json:"caseName"`
			DateFiled   string `json:"dateFiled"`
			AbsoluteURL string `json:"absolute_url"`
		} `json:"results"`
	}
	params := url.Values{
		"type": {"o"},
		"q":    {fmt.Sprintf("%q", q.CitationText)},
	}
	err := s.client.GetJSON(ctx, s.endpoint("/search/?")+params.Encode(), s.headers(), &resp)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return citation.Unverified("search returned no match"), nil
		}
		return citation.VerificationResult{}, err
	}
	if resp.Count == 0 || len(resp.Results) == 0 {
		return citation.Unverified("search returned no match"), nil
	}
	hit := resp.Results[0]
	return citation.VerificationResult{
		Verified:      true,
		Source:        s.Name(),
		CanonicalName: hit.CaseName,
		CanonicalDate: hit.DateFiled,
		URL:           s.absoluteURL(hit.AbsoluteURL),
		Confidence:    0.85,
		Details:       map[string]string{"result_count": fmt.Sprintf("%d", resp.Count)},
	}, nil
}

// ClusterSource filters the opinion-cluster collection by the parsed
// volume/reporter/page triple.  It needs a successfully parsed citation and
// reports a definitive negative otherwise so the cascade moves on.
type ClusterSource struct {
	courtListenerBase
}

func NewClusterSource(cfg CourtListenerConfig, client *HTTPClient) *ClusterSource {
	return &ClusterSource{courtListenerBase{cfg: cfg, client: client}}
}

func (s *ClusterSource) Name() string { return "courtlistener_clusters" }

func (s *ClusterSource) Verify(ctx context.Context, q citation.Query) (citation.VerificationResult, error) {
	if q.Parsed.Reporter == "" {
		return citation.Unverified("citation not parsed, cluster filter unavailable"), nil
	}
	var resp struct {
		Count   int                `json:"count"`
		Results []clOpinionCluster `json:"results"`
	}
	params := url.Values{
		"citation": {q.Parsed.String()},
	}
	err := s.client.GetJSON(ctx, s.endpoint("/clusters/?")+params.Encode(), s.headers(), &resp)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return citation.Unverified("no cluster carries this citation"), nil
		}
		return citation.VerificationResult{}, err
	}
	if resp.Count == 0 || len(resp.Results) == 0 {
		return citation.Unverified("no cluster carries this citation"), nil
	}
	cl := resp.Results[0]
	return citation.VerificationResult{
		Verified:      true,
		Source:        s.Name(),
		CanonicalName: cl.CaseName,
		CanonicalDate: cl.DateFiled,
		URL:           s.absoluteURL(cl.AbsoluteURL),
		Confidence:    0.80,
		Details:       map[string]string{"cluster_id": fmt.Sprintf("%d", cl.ID)},
	}, nil
}
