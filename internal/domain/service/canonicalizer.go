package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/foiafeed/foiafeed/internal/domain/model"
	"github.com/foiafeed/foiafeed/internal/infrastructure/logger"
)

// Canonicalizer turns raw article URLs into the stable form used as the
// dedup key. Canonicalization is idempotent: an already-canonical URL maps
// to itself.
type Canonicalizer struct {
	client *http.Client
	// fallbackOnError picks the redirect-resolution failure policy: fall
	// back to the raw URL instead of failing the article
	fallbackOnError bool
}

// NewCanonicalizer creates a canonicalizer using the given HTTP client for
// redirect resolution.
func NewCanonicalizer(client *http.Client, fallbackOnError bool) *Canonicalizer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Canonicalizer{client: client, fallbackOnError: fallbackOnError}
}

// Canonicalize resolves redirects for outlets that wrap their links, then
// strips the query string and fragment unless the outlet needs them.
func (c *Canonicalizer) Canonicalize(ctx context.Context, outlet model.Outlet, rawURL string) (string, error) {
	canonical := rawURL

	if outlet.ResolvesRedirects {
		resolved, err := c.resolve(ctx, rawURL)
		if err != nil {
			if !c.fallbackOnError {
				return "", fmt.Errorf("resolve %s: %w", rawURL, err)
			}
			logger.Warn("redirect resolution failed, falling back to raw url",
				"outlet", outlet.Name, "url", rawURL, "error", err)
		} else {
			canonical = resolved
		}
	}

	if !outlet.KeepsQueryParams {
		canonical = stripTracking(canonical)
	}

	return canonical, nil
}

// resolve follows redirects via a HEAD request and returns the final
// location. A Location header on the last response wins; otherwise the
// URL the request ended up at is used.
func (c *Canonicalizer) resolve(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if loc := resp.Header.Get("Location"); loc != "" {
		return loc, nil
	}
	return resp.Request.URL.String(), nil
}

// stripTracking removes the query string and fragment, the parts that carry
// per-click tracking tokens rather than identifying the article.
func stripTracking(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		// Not parseable as a URL; cut at the separators directly.
		if i := indexAny(rawURL, '?', '#'); i >= 0 {
			return rawURL[:i]
		}
		return rawURL
	}

	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

func indexAny(s string, chars ...byte) int {
	for i := 0; i < len(s); i++ {
		for _, c := range chars {
			if s[i] == c {
				return i
			}
		}
	}
	return -1
}
