package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gilliek/go-opml/opml"
	"github.com/mmcdole/gofeed"

	"github.com/foiafeed/foiafeed/internal/domain/model"
	"github.com/foiafeed/foiafeed/internal/infrastructure/logger"
)

// FeedService loads the configured outlet list and fetches feed entries.
type FeedService interface {
	// LoadOutlets reads the feeds file (JSON outlet list or OPML
	// subscription export) and returns the outlets in file order.
	LoadOutlets(feedsFile string) ([]model.Outlet, error)

	// FetchEntries pulls the outlet's feed and returns its entries in feed
	// order. Entries missing a title or link are malformed and skipped.
	FetchEntries(ctx context.Context, outlet model.Outlet) ([]model.FeedEntry, error)
}

// feedService implements FeedService with gofeed.
type feedService struct {
	client *http.Client
}

// NewFeedService creates a feed service using the given HTTP client.
func NewFeedService(client *http.Client) FeedService {
	if client == nil {
		client = http.DefaultClient
	}
	return &feedService{client: client}
}

// LoadOutlets reads outlets from a JSON feeds file or an OPML export.
func (s *feedService) LoadOutlets(feedsFile string) ([]model.Outlet, error) {
	logger.Info("loading outlets", "file", feedsFile)

	if strings.EqualFold(filepath.Ext(feedsFile), ".opml") {
		return loadOutletsFromOPML(feedsFile)
	}

	raw, err := os.ReadFile(feedsFile)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	var outlets []model.Outlet
	if err := json.Unmarshal(raw, &outlets); err != nil {
		return nil, fmt.Errorf("parse feeds file %s: %w", feedsFile, err)
	}

	logger.Info("outlets loaded", "file", feedsFile, "outlets_count", len(outlets))
	return outlets, nil
}

// loadOutletsFromOPML extracts feed subscriptions from an OPML file. OPML
// carries no capability flags, so outlets imported this way get defaults.
func loadOutletsFromOPML(feedsFile string) ([]model.Outlet, error) {
	doc, err := opml.NewOPMLFromFile(feedsFile)
	if err != nil {
		return nil, fmt.Errorf("parse opml file %s: %w", feedsFile, err)
	}

	var outlets []model.Outlet
	for _, outline := range doc.Outlines() {
		outlets = append(outlets, extractOutlets(outline)...)
	}

	logger.Info("outlets loaded from opml", "file", feedsFile, "outlets_count", len(outlets))
	return outlets, nil
}

// extractOutlets recursively collects feed outlines.
func extractOutlets(outline opml.Outline) []model.Outlet {
	var outlets []model.Outlet

	if outline.XMLURL != "" {
		name := outline.Title
		if name == "" {
			name = outline.Text
		}
		outlets = append(outlets, model.Outlet{
			Name:    name,
			FeedURL: outline.XMLURL,
		})
	}

	for _, child := range outline.Outlines {
		outlets = append(outlets, extractOutlets(child)...)
	}

	return outlets
}

// FetchEntries pulls and parses the outlet's feed.
func (s *feedService) FetchEntries(ctx context.Context, outlet model.Outlet) ([]model.FeedEntry, error) {
	logger.Info("fetching feed", "outlet", outlet.Name, "url", outlet.FeedURL)
	defer logger.TimeTrack("FetchEntries")()

	fp := gofeed.NewParser()
	fp.Client = s.client

	feed, err := fp.ParseURLWithContext(outlet.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", outlet.FeedURL, err)
	}

	var entries []model.FeedEntry
	for _, item := range feed.Items {
		if item == nil || item.Title == "" || item.Link == "" {
			logger.Warn("skipping malformed feed entry", "outlet", outlet.Name)
			continue
		}
		entries = append(entries, model.FeedEntry{Title: item.Title, Link: item.Link})
	}

	logger.Info("feed fetched", "outlet", outlet.Name, "entries_count", len(entries))
	return entries, nil
}
