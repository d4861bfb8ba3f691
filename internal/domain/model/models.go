package model

import "time"

// Outlet is a configured news source together with its link-handling
// capabilities. The original feed lists carried only outlet and url; the
// capability fields replace per-outlet special cases in code.
type Outlet struct {
	// Name identifies the outlet, e.g. "ProPublica"
	Name string `json:"outlet"`
	// FeedURL is the RSS feed address
	FeedURL string `json:"url"`
	// ResolvesRedirects marks outlets whose feeds present wrapped or
	// shortened links that must be followed to their final location
	ResolvesRedirects bool `json:"resolve_redirects"`
	// KeepsQueryParams marks outlets whose article URLs are only stable
	// with the query string intact
	KeepsQueryParams bool `json:"keep_query_params"`
}

// FeedEntry is one raw item from an outlet's feed.
type FeedEntry struct {
	Title string
	Link  string
}

// Article is a single feed entry moving through the pipeline. URL holds the
// canonical form, computed once at construction and never recomputed.
type Article struct {
	Outlet string
	Title  string
	URL    string
	// MatchingExcerpts collects paragraphs that hit the lexicon, in
	// document order; append-only
	MatchingExcerpts []string
	// Posted flips to true at most once, when the status post succeeds
	Posted bool
}

// NewArticle constructs an article from an already-canonicalized URL.
func NewArticle(outlet, title, canonicalURL string) Article {
	return Article{
		Outlet: outlet,
		Title:  title,
		URL:    canonicalURL,
	}
}

// SeenRecord is the durable ledger row written for every processed article,
// match or not. Rows are append-only.
type SeenRecord struct {
	ID         int64
	Outlet     string
	URL        string
	Title      string
	Posted     bool
	RecordedAt time.Time
}

// DatabaseConfig holds the seen-article store settings.
type DatabaseConfig struct {
	FilePath string
}

// TwitterConfig holds the four OAuth1 credentials.
type TwitterConfig struct {
	AppKey           string
	AppSecret        string
	OauthToken       string
	OauthTokenSecret string
}

// PipelineParams contains everything one pipeline run needs. It is built
// once at startup and passed down explicitly; no component reads ambient
// configuration.
type PipelineParams struct {
	FeedsFile    string
	DedupHorizon int
	ArticleDelay time.Duration
	HTTPTimeout  time.Duration
	DryRun       bool
	// ResolveFallback controls the redirect-resolution failure policy:
	// true falls back to the raw URL, false skips the article
	ResolveFallback bool
	// Lexicon overrides the built-in phrase list when non-empty
	Lexicon  []string
	Database DatabaseConfig
	Twitter  TwitterConfig
}
