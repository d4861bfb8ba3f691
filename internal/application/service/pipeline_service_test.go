package service

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foiafeed/foiafeed/internal/domain/model"
	domainservice "github.com/foiafeed/foiafeed/internal/domain/service"
)

// fakeFeeds serves canned outlets and entries.
type fakeFeeds struct {
	outlets   []model.Outlet
	entries   map[string][]model.FeedEntry
	fetchErrs map[string]error
}

func (f *fakeFeeds) LoadOutlets(string) ([]model.Outlet, error) {
	return f.outlets, nil
}

func (f *fakeFeeds) FetchEntries(_ context.Context, outlet model.Outlet) ([]model.FeedEntry, error) {
	if err := f.fetchErrs[outlet.Name]; err != nil {
		return nil, err
	}
	return f.entries[outlet.Name], nil
}

// fakeExtractor maps URL to plaintext.
type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeExtractor) Extract(url string) (string, error) {
	f.calls = append(f.calls, url)
	if err := f.errs[url]; err != nil {
		return "", err
	}
	return f.texts[url], nil
}

// fakeRenderer records requested widths and can fail on chosen excerpts.
type fakeRenderer struct {
	widths   []int
	failText string
}

func (f *fakeRenderer) Render(excerpt string, width int) (image.Image, error) {
	f.widths = append(f.widths, width)
	if f.failText != "" && excerpt == f.failText {
		return nil, errors.New("render failed")
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

// fakePublisher records publishes and can fail.
type fakePublisher struct {
	statuses    []string
	imageCounts []int
	err         error
}

func (f *fakePublisher) Publish(status string, images []image.Image) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.statuses = append(f.statuses, status)
	f.imageCounts = append(f.imageCounts, len(images))
	return "post-1", nil
}

// fakeRepo keeps the seen ledger in memory.
type fakeRepo struct {
	recent    map[string]map[string]struct{}
	recorded  []model.Article
	recordErr error
}

func (f *fakeRepo) RecentURLs(outlet string, _ int) (map[string]struct{}, error) {
	urls := f.recent[outlet]
	if urls == nil {
		urls = map[string]struct{}{}
	}
	return urls, nil
}

func (f *fakeRepo) Record(article model.Article) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, article)
	return nil
}

func testParams() model.PipelineParams {
	return model.PipelineParams{
		DedupHorizon:    1000,
		ResolveFallback: true,
	}
}

func newTestPipeline(feeds *fakeFeeds, extractor *fakeExtractor, renderer *fakeRenderer, publisher *fakePublisher, repo *fakeRepo) PipelineService {
	return NewPipelineServiceWithDeps(Deps{
		Feeds:         feeds,
		Canonicalizer: domainservice.NewCanonicalizer(nil, true),
		Matcher:       domainservice.NewPhraseMatcher(nil),
		Extractor:     extractor,
		Renderer:      renderer,
		Publisher:     publisher,
		Repo:          repo,
	})
}

func outletAP() model.Outlet {
	return model.Outlet{Name: "AP", FeedURL: "http://ap.example/feed"}
}

func TestRunPublishesMatchingArticleAndRecordsIt(t *testing.T) {
	feeds := &fakeFeeds{
		outlets: []model.Outlet{outletAP()},
		entries: map[string][]model.FeedEntry{
			"AP": {{Title: "City denies records request", Link: "http://example.com/a?utm_source=rss"}},
		},
	}
	extractor := &fakeExtractor{texts: map[string]string{
		"http://example.com/a": "Intro paragraph.\nThe FOIA request was denied.",
	}}
	renderer := &fakeRenderer{}
	publisher := &fakePublisher{}
	repo := &fakeRepo{}

	report, err := newTestPipeline(feeds, extractor, renderer, publisher, repo).Run(context.Background(), testParams())
	require.NoError(t, err)

	require.Len(t, publisher.statuses, 1)
	assert.Equal(t, "AP: City denies records request http://example.com/a", publisher.statuses[0])

	require.Len(t, repo.recorded, 1)
	assert.True(t, repo.recorded[0].Posted)
	assert.Equal(t, "http://example.com/a", repo.recorded[0].URL, "canonical URL recorded")

	assert.Equal(t, int64(1), report.Matched)
	assert.Equal(t, int64(1), report.Posted)
}

func TestRunSkipsArticlesInsideDedupHorizon(t *testing.T) {
	feeds := &fakeFeeds{
		outlets: []model.Outlet{outletAP()},
		entries: map[string][]model.FeedEntry{
			"AP": {
				{Title: "Old story", Link: "http://example.com/old?utm_source=rss"},
				{Title: "New story", Link: "http://example.com/new"},
			},
		},
	}
	extractor := &fakeExtractor{texts: map[string]string{
		"http://example.com/new": "Nothing matching here.",
	}}
	repo := &fakeRepo{recent: map[string]map[string]struct{}{
		"AP": {"http://example.com/old": {}},
	}}
	publisher := &fakePublisher{}

	report, err := newTestPipeline(feeds, extractor, &fakeRenderer{}, publisher, repo).Run(context.Background(), testParams())
	require.NoError(t, err)

	// The seen article is never extracted, matched, or recorded again.
	assert.Equal(t, []string{"http://example.com/new"}, extractor.calls)
	require.Len(t, repo.recorded, 1)
	assert.Equal(t, "http://example.com/new", repo.recorded[0].URL)
	assert.Equal(t, int64(1), report.Duplicates)
}

func TestRunRecordsEverySurvivingArticleRegardlessOfOutcome(t *testing.T) {
	feeds := &fakeFeeds{
		outlets: []model.Outlet{outletAP()},
		entries: map[string][]model.FeedEntry{
			"AP": {
				{Title: "Match and post", Link: "http://example.com/match"},
				{Title: "No match", Link: "http://example.com/nomatch"},
				{Title: "Broken page", Link: "http://example.com/broken"},
			},
		},
	}
	extractor := &fakeExtractor{
		texts: map[string]string{
			"http://example.com/match":   "A paragraph about the public records act.",
			"http://example.com/nomatch": "Unrelated coverage.",
		},
		errs: map[string]error{
			"http://example.com/broken": errors.New("connection reset"),
		},
	}
	publisher := &fakePublisher{}
	repo := &fakeRepo{}

	report, err := newTestPipeline(feeds, extractor, &fakeRenderer{}, publisher, repo).Run(context.Background(), testParams())
	require.NoError(t, err)

	// Exactly one record per filtered article, match or not.
	require.Len(t, repo.recorded, 3)
	assert.True(t, repo.recorded[0].Posted)
	assert.False(t, repo.recorded[1].Posted)
	assert.False(t, repo.recorded[2].Posted)

	assert.Equal(t, int64(3), report.Processed)
	assert.Equal(t, int64(1), report.ExtractFailures)
}

func TestRunPublishFailureStillRecordsArticle(t *testing.T) {
	feeds := &fakeFeeds{
		outlets: []model.Outlet{outletAP()},
		entries: map[string][]model.FeedEntry{
			"AP": {{Title: "Match", Link: "http://example.com/a"}},
		},
	}
	extractor := &fakeExtractor{texts: map[string]string{
		"http://example.com/a": "Filed under FOIA.",
	}}
	publisher := &fakePublisher{err: errors.New("api down")}
	repo := &fakeRepo{}

	report, err := newTestPipeline(feeds, extractor, &fakeRenderer{}, publisher, repo).Run(context.Background(), testParams())
	require.NoError(t, err, "publish failure must not fail the run")

	require.Len(t, repo.recorded, 1)
	assert.False(t, repo.recorded[0].Posted)
	assert.Equal(t, int64(1), report.PublishFailures)
}

func TestRunRendersAtMostFourExcerptsAtNarrowWidth(t *testing.T) {
	feeds := &fakeFeeds{
		outlets: []model.Outlet{outletAP()},
		entries: map[string][]model.FeedEntry{
			"AP": {{Title: "Six hits", Link: "http://example.com/a"}},
		},
	}
	extractor := &fakeExtractor{texts: map[string]string{
		"http://example.com/a": "foia one\nfoia two\nfoia three\nfoia four\nfoia five\nfoia six",
	}}
	renderer := &fakeRenderer{}
	publisher := &fakePublisher{}

	_, err := newTestPipeline(feeds, extractor, renderer, publisher, &fakeRepo{}).Run(context.Background(), testParams())
	require.NoError(t, err)

	assert.Equal(t, []int{35, 35, 35, 35}, renderer.widths)
	require.Len(t, publisher.imageCounts, 1)
	assert.Equal(t, 4, publisher.imageCounts[0])
}

func TestRunSingleExcerptUsesWideWrap(t *testing.T) {
	feeds := &fakeFeeds{
		outlets: []model.Outlet{outletAP()},
		entries: map[string][]model.FeedEntry{
			"AP": {{Title: "One hit", Link: "http://example.com/a"}},
		},
	}
	extractor := &fakeExtractor{texts: map[string]string{
		"http://example.com/a": "Just one foia paragraph.",
	}}
	renderer := &fakeRenderer{}

	_, err := newTestPipeline(feeds, extractor, renderer, &fakePublisher{}, &fakeRepo{}).Run(context.Background(), testParams())
	require.NoError(t, err)

	assert.Equal(t, []int{60}, renderer.widths)
}

func TestRunFailedRenderOmitsImageButStillPosts(t *testing.T) {
	feeds := &fakeFeeds{
		outlets: []model.Outlet{outletAP()},
		entries: map[string][]model.FeedEntry{
			"AP": {{Title: "Two hits", Link: "http://example.com/a"}},
		},
	}
	extractor := &fakeExtractor{texts: map[string]string{
		"http://example.com/a": "foia one\nfoia two",
	}}
	renderer := &fakeRenderer{failText: "foia one"}
	publisher := &fakePublisher{}

	_, err := newTestPipeline(feeds, extractor, renderer, publisher, &fakeRepo{}).Run(context.Background(), testParams())
	require.NoError(t, err)

	require.Len(t, publisher.imageCounts, 1)
	assert.Equal(t, 1, publisher.imageCounts[0])
	require.Len(t, publisher.statuses, 1)
}

func TestRunFeedFailureDoesNotAbortOtherOutlets(t *testing.T) {
	feeds := &fakeFeeds{
		outlets: []model.Outlet{
			{Name: "Broken", FeedURL: "http://broken.example/feed"},
			outletAP(),
		},
		entries: map[string][]model.FeedEntry{
			"AP": {{Title: "Story", Link: "http://example.com/a"}},
		},
		fetchErrs: map[string]error{"Broken": errors.New("timeout")},
	}
	extractor := &fakeExtractor{texts: map[string]string{
		"http://example.com/a": "No match here.",
	}}
	repo := &fakeRepo{}

	report, err := newTestPipeline(feeds, extractor, &fakeRenderer{}, &fakePublisher{}, repo).Run(context.Background(), testParams())
	require.NoError(t, err)

	require.Len(t, repo.recorded, 1)
	assert.Equal(t, int64(1), report.FeedFailures)
	assert.Equal(t, int64(2), report.Outlets)
}

func TestRunStoreFailureIsFatal(t *testing.T) {
	feeds := &fakeFeeds{
		outlets: []model.Outlet{outletAP()},
		entries: map[string][]model.FeedEntry{
			"AP": {{Title: "Story", Link: "http://example.com/a"}},
		},
	}
	extractor := &fakeExtractor{texts: map[string]string{
		"http://example.com/a": "No match.",
	}}
	repo := &fakeRepo{recordErr: errors.New("disk full")}

	_, err := newTestPipeline(feeds, extractor, &fakeRenderer{}, &fakePublisher{}, repo).Run(context.Background(), testParams())
	assert.Error(t, err, "a broken ledger must end the run")
}

func TestRunDryRunMatchesButNeverPosts(t *testing.T) {
	feeds := &fakeFeeds{
		outlets: []model.Outlet{outletAP()},
		entries: map[string][]model.FeedEntry{
			"AP": {{Title: "Match", Link: "http://example.com/a"}},
		},
	}
	extractor := &fakeExtractor{texts: map[string]string{
		"http://example.com/a": "Filed under FOIA.",
	}}
	publisher := &fakePublisher{}
	repo := &fakeRepo{}

	params := testParams()
	params.DryRun = true

	report, err := newTestPipeline(feeds, extractor, &fakeRenderer{}, publisher, repo).Run(context.Background(), params)
	require.NoError(t, err)

	assert.Empty(t, publisher.statuses)
	require.Len(t, repo.recorded, 1)
	assert.False(t, repo.recorded[0].Posted)
	assert.Equal(t, int64(1), report.Matched)
	assert.Equal(t, int64(0), report.Posted)
}
