// Package twitter posts statuses with rendered excerpt images attached,
// over the OAuth1-signed v1.1 endpoints.
package twitter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/foiafeed/foiafeed/internal/domain/model"
	"github.com/foiafeed/foiafeed/internal/infrastructure/logger"
)

const (
	defaultUploadURL = "https://upload.twitter.com/1.1/media/upload.json"
	defaultStatusURL = "https://api.twitter.com/1.1/statuses/update.json"

	// MaxAttachments is the platform's per-post image cap.
	MaxAttachments = 4

	jpegQuality = 95
)

// Publisher posts a status with up to MaxAttachments images and returns
// the platform's post identifier.
type Publisher interface {
	Publish(status string, images []image.Image) (string, error)
}

// UploadResult is the outcome of one media upload. An omitted image is
// dropped from the post; it never fails the publish.
type UploadResult struct {
	MediaID string
	Err     error
}

// Omitted reports whether the image was dropped.
func (r UploadResult) Omitted() bool {
	return r.Err != nil
}

// client implements Publisher over the v1.1 REST endpoints.
type client struct {
	httpClient *http.Client
	uploadURL  string
	statusURL  string
}

// NewPublisher builds a publisher from the four OAuth1 secrets.
func NewPublisher(cfg model.TwitterConfig, timeout time.Duration) Publisher {
	config := oauth1.NewConfig(cfg.AppKey, cfg.AppSecret)
	token := oauth1.NewToken(cfg.OauthToken, cfg.OauthTokenSecret)

	httpClient := config.Client(oauth1.NoContext, token)
	httpClient.Timeout = timeout

	return &client{
		httpClient: httpClient,
		uploadURL:  defaultUploadURL,
		statusURL:  defaultStatusURL,
	}
}

// StatusText assembles the post body for an article.
func StatusText(outlet, title, canonicalURL string) string {
	return outlet + ": " + title + " " + canonicalURL
}

// Publish uploads each image, drops any that fail, and posts the status
// with the surviving media handles. The status post itself is not retried;
// its failure is returned to the caller.
func (c *client) Publish(status string, images []image.Image) (string, error) {
	if len(images) > MaxAttachments {
		images = images[:MaxAttachments]
	}

	var mediaIDs []string
	for i, img := range images {
		result := c.uploadImage(img)
		if result.Omitted() {
			logger.Warn("media upload failed, omitting image", "index", i, "error", result.Err)
			continue
		}
		mediaIDs = append(mediaIDs, result.MediaID)
	}

	return c.postStatus(status, mediaIDs)
}

// uploadImage encodes one image as JPEG and uploads it for a media handle.
func (c *client) uploadImage(img image.Image) UploadResult {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("media", "excerpt.jpg")
	if err != nil {
		return UploadResult{Err: fmt.Errorf("create form file: %w", err)}
	}
	if err := jpeg.Encode(part, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return UploadResult{Err: fmt.Errorf("encode jpeg: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return UploadResult{Err: fmt.Errorf("close multipart body: %w", err)}
	}

	resp, err := c.httpClient.Post(c.uploadURL, writer.FormDataContentType(), &buf)
	if err != nil {
		return UploadResult{Err: fmt.Errorf("upload media: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return UploadResult{Err: fmt.Errorf("read upload response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return UploadResult{Err: fmt.Errorf("upload media: status %d: %s", resp.StatusCode, truncate(string(body), 200))}
	}

	var parsed struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return UploadResult{Err: fmt.Errorf("parse upload response: %w", err)}
	}
	if parsed.MediaIDString == "" {
		return UploadResult{Err: fmt.Errorf("upload response missing media id")}
	}

	return UploadResult{MediaID: parsed.MediaIDString}
}

// postStatus posts the status update and returns the new post's ID.
func (c *client) postStatus(status string, mediaIDs []string) (string, error) {
	form := url.Values{}
	form.Set("status", status)
	if len(mediaIDs) > 0 {
		form.Set("media_ids", strings.Join(mediaIDs, ","))
	}

	resp, err := c.httpClient.Post(c.statusURL, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("post status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("post status: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed struct {
		IDStr string `json:"id_str"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse status response: %w", err)
	}

	logger.Info("status posted", "post_id", parsed.IDStr, "media_count", len(mediaIDs))
	return parsed.IDStr, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
