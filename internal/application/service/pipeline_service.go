package service

import (
	"context"
	"fmt"
	"image"
	"net/http"

	"github.com/foiafeed/foiafeed/internal/domain/model"
	domainservice "github.com/foiafeed/foiafeed/internal/domain/service"
	"github.com/foiafeed/foiafeed/internal/infrastructure/database"
	"github.com/foiafeed/foiafeed/internal/infrastructure/logger"
	"github.com/foiafeed/foiafeed/internal/infrastructure/render"
	"github.com/foiafeed/foiafeed/internal/infrastructure/twitter"
	"github.com/foiafeed/foiafeed/internal/middleware"
)

// PipelineService runs one full pass over the configured outlets.
type PipelineService interface {
	// Run processes every outlet once and returns the run counters. The
	// returned error is non-nil only for conditions that make continuing
	// unsafe, i.e. a broken seen-article store or a canceled context.
	Run(ctx context.Context, params model.PipelineParams) (middleware.RunReport, error)
}

// Deps wires the pipeline's collaborators. Zero-value fields are replaced
// with real implementations built from the run parameters.
type Deps struct {
	Feeds         domainservice.FeedService
	Canonicalizer *domainservice.Canonicalizer
	Matcher       *domainservice.PhraseMatcher
	Extractor     domainservice.TextExtractor
	Renderer      render.Renderer
	Publisher     twitter.Publisher
	Repo          database.SeenArticleRepository
}

// pipelineService implements PipelineService.
type pipelineService struct {
	deps Deps

	db       database.Database
	metrics  *middleware.RunMetrics
	throttle *middleware.Throttle
}

// NewPipelineService creates a pipeline whose collaborators are built from
// the run parameters.
func NewPipelineService() PipelineService {
	return &pipelineService{}
}

// NewPipelineServiceWithDeps creates a pipeline with injected
// collaborators.
func NewPipelineServiceWithDeps(deps Deps) PipelineService {
	return &pipelineService{deps: deps}
}

// Run is the entry point for one pipeline pass: load outlets, then for
// each outlet fetch, filter, match, publish, and record.
func (s *pipelineService) Run(ctx context.Context, params model.PipelineParams) (middleware.RunReport, error) {
	logger.Info("starting pipeline run",
		"feeds_file", params.FeedsFile,
		"dedup_horizon", params.DedupHorizon,
		"dry_run", params.DryRun)
	defer logger.TimeTrack("Run")()

	logger.LogMemStatsOnce()

	s.metrics = middleware.NewRunMetrics()
	s.throttle = middleware.NewThrottle(params.ArticleDelay)

	if err := s.buildCollaborators(params); err != nil {
		return s.metrics.Report(), err
	}

	if s.deps.Repo == nil {
		// A working dedup ledger is non-negotiable: without it a rerun
		// could double-post, so store errors end the run.
		s.db = database.NewSQLiteDatabase(params.Database.FilePath)
		if err := s.db.Init(); err != nil {
			return s.metrics.Report(), fmt.Errorf("init seen-article store: %w", err)
		}
		defer s.db.Close()
		s.deps.Repo = database.NewSeenArticleRepository(s.db)
	}

	outlets, err := s.deps.Feeds.LoadOutlets(params.FeedsFile)
	if err != nil {
		return s.metrics.Report(), fmt.Errorf("load outlets: %w", err)
	}

	validator := domainservice.NewValidator()
	for _, outlet := range outlets {
		if err := validator.ValidateFeedURL(outlet.FeedURL); err != nil {
			logger.Warn("skipping outlet with invalid feed url", "outlet", outlet.Name, "error", err)
			s.metrics.OutletDone(true)
			continue
		}

		if err := s.processOutlet(ctx, outlet, params); err != nil {
			return s.metrics.Report(), err
		}
	}

	s.metrics.LogReport()
	return s.metrics.Report(), nil
}

// buildCollaborators fills in any collaborator not injected via Deps.
func (s *pipelineService) buildCollaborators(params model.PipelineParams) error {
	httpClient := &http.Client{Timeout: params.HTTPTimeout}

	if s.deps.Feeds == nil {
		s.deps.Feeds = domainservice.NewFeedService(httpClient)
	}
	if s.deps.Canonicalizer == nil {
		s.deps.Canonicalizer = domainservice.NewCanonicalizer(httpClient, params.ResolveFallback)
	}
	if s.deps.Matcher == nil {
		s.deps.Matcher = domainservice.NewPhraseMatcher(params.Lexicon)
	}
	if s.deps.Extractor == nil {
		s.deps.Extractor = domainservice.NewTextExtractor(httpClient)
	}
	if s.deps.Renderer == nil {
		renderer, err := render.NewRenderer()
		if err != nil {
			return fmt.Errorf("init excerpt renderer: %w", err)
		}
		s.deps.Renderer = renderer
	}
	if s.deps.Publisher == nil && !params.DryRun {
		s.deps.Publisher = twitter.NewPublisher(params.Twitter, params.HTTPTimeout)
	}

	return nil
}

// processOutlet walks one outlet's feed: canonicalize every entry, drop the
// already-seen ones, then handle the survivors in feed order. Feed and
// article failures stay local to this outlet; only store errors propagate.
func (s *pipelineService) processOutlet(ctx context.Context, outlet model.Outlet, params model.PipelineParams) error {
	entries, err := s.deps.Feeds.FetchEntries(ctx, outlet)
	if err != nil {
		logger.Error("feed fetch failed, moving to next outlet", "outlet", outlet.Name, "error", err)
		s.metrics.OutletDone(true)
		return nil
	}
	s.metrics.Entries(int64(len(entries)))

	recent, err := s.deps.Repo.RecentURLs(outlet.Name, params.DedupHorizon)
	if err != nil {
		return fmt.Errorf("load dedup horizon for %s: %w", outlet.Name, err)
	}

	var articles []model.Article
	for _, entry := range entries {
		canonical, err := s.deps.Canonicalizer.Canonicalize(ctx, outlet, entry.Link)
		if err != nil {
			// Only reachable with the raw-URL fallback disabled: without
			// a stable dedup key the article cannot be safely recorded.
			logger.Warn("cannot canonicalize, skipping article", "outlet", outlet.Name, "url", entry.Link, "error", err)
			continue
		}
		if _, seen := recent[canonical]; seen {
			s.metrics.DuplicateSkipped()
			continue
		}
		articles = append(articles, model.NewArticle(outlet.Name, entry.Title, canonical))
	}

	for i := range articles {
		article := &articles[i]
		logger.Info("checking article",
			"outlet", article.Outlet, "n", i+1, "total", len(articles), "url", article.URL)

		s.processArticle(ctx, article, params)

		// The record is durable before the pipeline moves on, whatever
		// happened above, so a crash here cannot cause a reprocess.
		if err := s.deps.Repo.Record(*article); err != nil {
			return fmt.Errorf("record article %s: %w", article.URL, err)
		}

		if err := s.throttle.Wait(ctx); err != nil {
			return err
		}
	}

	s.metrics.OutletDone(false)
	return nil
}

// processArticle extracts, matches, and on a hit renders and publishes.
// All failures here degrade to "skip and record"; Posted flips only when
// the status post succeeds.
func (s *pipelineService) processArticle(ctx context.Context, article *model.Article, params model.PipelineParams) {
	plaintext, err := s.deps.Extractor.Extract(article.URL)
	if err != nil {
		logger.Warn("text extraction failed, recording as seen", "url", article.URL, "error", err)
		s.metrics.ArticleProcessed(true, false)
		return
	}

	article.MatchingExcerpts = s.deps.Matcher.Match(plaintext)
	matched := len(article.MatchingExcerpts) > 0
	s.metrics.ArticleProcessed(false, matched)
	if !matched {
		return
	}

	logger.Info("lexicon hit", "outlet", article.Outlet, "title", article.Title,
		"excerpts", len(article.MatchingExcerpts))

	if params.DryRun || s.deps.Publisher == nil {
		logger.Info("dry run, not posting", "url", article.URL)
		return
	}

	images := s.renderExcerpts(article)

	status := twitter.StatusText(article.Outlet, article.Title, article.URL)
	postID, err := s.deps.Publisher.Publish(status, images)
	if err != nil {
		logger.Error("publish failed, recording as not posted", "url", article.URL, "error", err)
		s.metrics.PublishOutcome(false)
		return
	}

	article.Posted = true
	s.metrics.PublishOutcome(true)
	logger.Info("article posted", "outlet", article.Outlet, "post_id", postID)
}

// renderExcerpts renders up to the attachment cap. A failed render drops
// that image only.
func (s *pipelineService) renderExcerpts(article *model.Article) []image.Image {
	excerpts := article.MatchingExcerpts
	if len(excerpts) > twitter.MaxAttachments {
		excerpts = excerpts[:twitter.MaxAttachments]
	}

	width := render.WrapWidth(len(article.MatchingExcerpts))

	var images []image.Image
	for i, excerpt := range excerpts {
		img, err := s.deps.Renderer.Render(excerpt, width)
		if err != nil {
			logger.Warn("excerpt render failed, omitting image", "url", article.URL, "index", i, "error", err)
			continue
		}
		images = append(images, img)
	}

	return images
}
