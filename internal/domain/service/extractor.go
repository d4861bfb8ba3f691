package service

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/foiafeed/foiafeed/internal/infrastructure/logger"
)

// maxDocumentBytes caps how much of an article page is read.
const maxDocumentBytes = 10 * 1024 * 1024

// TextExtractor fetches an article page and reduces it to readable
// plaintext, paragraphs separated by newlines.
type TextExtractor interface {
	Extract(articleURL string) (string, error)
}

// readabilityExtractor implements TextExtractor with a readability
// transform, falling back to bare tag stripping when readability yields
// nothing usable.
type readabilityExtractor struct {
	client *http.Client
}

// NewTextExtractor creates an extractor using the given HTTP client.
func NewTextExtractor(client *http.Client) TextExtractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &readabilityExtractor{client: client}
}

// Extract downloads the article and returns its plaintext body.
func (e *readabilityExtractor) Extract(articleURL string) (string, error) {
	logger.Debug("extracting article text", "url", articleURL)

	resp, err := e.client.Get(articleURL)
	if err != nil {
		return "", fmt.Errorf("fetch article %s: %w", articleURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch article %s: status %d", articleURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return "", fmt.Errorf("read article %s: %w", articleURL, err)
	}

	pageURL, err := url.Parse(articleURL)
	if err != nil {
		return "", fmt.Errorf("parse article url %s: %w", articleURL, err)
	}

	article, err := readability.FromReader(strings.NewReader(string(body)), pageURL)
	if err == nil {
		if text := normalizeParagraphs(article.TextContent); text != "" {
			return text, nil
		}
	} else {
		logger.Warn("readability transform failed, stripping tags instead", "url", articleURL, "error", err)
	}

	text, err := stripHTML(string(body))
	if err != nil {
		return "", fmt.Errorf("strip article %s: %w", articleURL, err)
	}
	if text == "" {
		return "", fmt.Errorf("article %s yielded no text", articleURL)
	}
	return text, nil
}

// normalizeParagraphs trims each line and drops blank ones so paragraphs
// end up newline-separated regardless of how the source spaced them.
func normalizeParagraphs(text string) string {
	var grafs []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			grafs = append(grafs, line)
		}
	}
	return strings.Join(grafs, "\n")
}

// stripHTML collects paragraph text from the raw document, one paragraph
// per line.
func stripHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	var grafs []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			grafs = append(grafs, strings.Join(strings.Fields(text), " "))
		}
	})

	return strings.Join(grafs, "\n"), nil
}
