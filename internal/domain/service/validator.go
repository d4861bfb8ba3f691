package service

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/foiafeed/foiafeed/internal/domain/model"
)

// maxFeedsFileBytes guards against a mistyped path pointing at something huge.
const maxFeedsFileBytes = 10 * 1024 * 1024

// Validator performs the startup checks that fail a run before any feed is
// touched.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateFeedsFile checks that the feeds file exists, is a regular file of
// a recognized format, and is readable.
func (v *Validator) ValidateFeedsFile(feedsFile string) error {
	if strings.TrimSpace(feedsFile) == "" {
		return errors.New("feeds file path is empty")
	}

	cleanPath := filepath.Clean(feedsFile)

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".opml" {
		return fmt.Errorf("unsupported feeds file format %q (want .json or .opml)", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("feeds file not accessible: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("feeds file path is a directory: %s", cleanPath)
	}
	if info.Size() > maxFeedsFileBytes {
		return fmt.Errorf("feeds file too large (>10MB): %s", cleanPath)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return fmt.Errorf("feeds file not readable: %w", err)
	}
	f.Close()

	return nil
}

// ValidateFeedURL checks a single outlet's feed address.
func (v *Validator) ValidateFeedURL(feedURL string) error {
	if strings.TrimSpace(feedURL) == "" {
		return errors.New("feed url is empty")
	}

	u, err := url.Parse(feedURL)
	if err != nil {
		return fmt.Errorf("invalid feed url %q: %w", feedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("feed url %q: only http/https allowed", feedURL)
	}
	if u.Host == "" {
		return fmt.Errorf("feed url %q has no host", feedURL)
	}

	return nil
}

// ValidateCredentials checks that all four Twitter secrets are present and
// are not config-file placeholders.
func (v *Validator) ValidateCredentials(cfg model.TwitterConfig) error {
	secrets := []struct {
		key   string
		value string
	}{
		{"twitter.app_key", cfg.AppKey},
		{"twitter.app_secret", cfg.AppSecret},
		{"twitter.oauth_token", cfg.OauthToken},
		{"twitter.oauth_token_secret", cfg.OauthTokenSecret},
	}

	for _, s := range secrets {
		if strings.TrimSpace(s.value) == "" {
			return fmt.Errorf("%s is not set", s.key)
		}
		if strings.Contains(s.value, "****") {
			return fmt.Errorf("%s looks like a placeholder", s.key)
		}
	}

	return nil
}
