// Package verify implements multi-source citation verification: an ordered
// cascade of external sources with per-source retry, per-domain rate
// limiting, and two-tier result caching.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/lexcite/caseguard/internal/infrastructure/monitoring/logging"
	"github.com/lexcite/caseguard/pkg/errors"
)

const (
	defaultUserAgent   = "caseguard/1.0 (legal citation verification)"
	defaultCallTimeout = 10 * time.Second
	maxBodyBytes       = 4 << 20
)

// HTTPClient is the outbound plumbing shared by every source: request IDs,
// UA and auth headers, per-call timeouts, and status-code classification.
type HTTPClient struct {
	hc        *http.Client
	userAgent string
	timeout   time.Duration
	limiter   *domainLimiter
	logger    logging.Logger
}

type HTTPClientOption func(*HTTPClient)

func WithCallTimeout(d time.Duration) HTTPClientOption {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithUserAgent(ua string) HTTPClientOption {
	return func(c *HTTPClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func WithTransport(rt http.RoundTripper) HTTPClientOption {
	return func(c *HTTPClient) { c.hc.Transport = rt }
}

// WithRateLimits sets the minimum interval between requests per host.
// Hosts absent from perDomain use fallback.  Limits are enforced inside the
// client so every source sharing it shares the same budget.
func WithRateLimits(perDomain map[string]time.Duration, fallback time.Duration) HTTPClientOption {
	return func(c *HTTPClient) {
		c.limiter = newDomainLimiter(func(domain string) time.Duration {
			if d, ok := perDomain[domain]; ok {
				return d
			}
			return fallback
		})
	}
}

func NewHTTPClient(log logging.Logger, opts ...HTTPClientOption) *HTTPClient {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &HTTPClient{
		hc:        &http.Client{},
		userAgent: defaultUserAgent,
		timeout:   defaultCallTimeout,
		logger:    log.Named("http"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON fetches rawURL and decodes the JSON body into dest.
func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, headers map[string]string, dest interface{}) error {
	body, err := c.do(ctx, http.MethodGet, rawURL, nil, "", headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return errors.Wrap(err, errors.CodeSourceMalformed, "response is not valid JSON")
	}
	return nil
}

// PostFormJSON submits form and decodes the JSON response into dest.
func (c *HTTPClient) PostFormJSON(ctx context.Context, rawURL string, form url.Values, headers map[string]string, dest interface{}) error {
	body, err := c.do(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return errors.Wrap(err, errors.CodeSourceMalformed, "response is not valid JSON")
	}
	return nil
}

// GetHTML fetches rawURL and parses the body as an HTML document.
func (c *HTTPClient) GetHTML(ctx context.Context, rawURL string, headers map[string]string) (*html.Node, error) {
	body, err := c.do(ctx, http.MethodGet, rawURL, nil, "", headers)
	if err != nil {
		return nil, err
	}
	node, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSourceMalformed, "response is not parseable HTML")
	}
	return node, nil
}

func (c *HTTPClient) do(ctx context.Context, method, rawURL string, body io.Reader, contentType string, headers map[string]string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, rawURL); err != nil {
			return nil, errors.Wrap(err, errors.CodeTimeout, "rate limit wait cancelled")
		}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "bad request URL")
	}
	requestID := uuid.NewString()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.CodeTimeout, "request timed out")
		}
		return nil, errors.Wrap(err, errors.CodeSourceUnavailable, "request failed")
	}
	defer resp.Body.Close()

	c.logger.Debug("outbound request",
		logging.String("method", method),
		logging.String("url", rawURL),
		logging.String("request_id", requestID),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(start)),
	)

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSourceUnavailable, "reading response body failed")
	}
	return data, nil
}

// classifyStatus maps HTTP statuses onto the engine's retry semantics:
// 5xx and 429 are transient, 404 is a definitive negative, 401/403 mean the
// source is misconfigured and should be skipped for the whole run.
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.CodeNotFound, "not found")
	case resp.StatusCode == http.StatusTooManyRequests:
		e := errors.New(errors.CodeRateLimit, "rate limited by source")
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			e = e.WithDetail("retry_after=" + ra)
		}
		return e
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.New(errors.CodeAuthRequired, fmt.Sprintf("source rejected credentials (status %d)", resp.StatusCode))
	case resp.StatusCode >= 500:
		return errors.New(errors.CodeSourceUnavailable, fmt.Sprintf("source returned status %d", resp.StatusCode))
	default:
		return errors.New(errors.CodeSourceRejected, fmt.Sprintf("source returned status %d", resp.StatusCode))
	}
}
