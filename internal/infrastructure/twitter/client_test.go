package twitter

import (
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTextFormat(t *testing.T) {
	got := StatusText("AP", "City denies records request", "http://example.com/a")
	assert.Equal(t, "AP: City denies records request http://example.com/a", got)
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 10, 10))
}

// fakeAPI stands in for the upload and status endpoints.
type fakeAPI struct {
	uploads      int
	failUploads  map[int]bool // upload indexes (1-based) that return 500
	failStatus   bool
	lastStatus   string
	lastMediaIDs string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		f.uploads++
		if f.failUploads[f.uploads] {
			http.Error(w, "upload error", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"media_id_string": fmt.Sprintf("media-%d", f.uploads),
		})
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if f.failStatus {
			http.Error(w, "status error", http.StatusForbidden)
			return
		}
		_ = r.ParseForm()
		f.lastStatus = r.PostFormValue("status")
		f.lastMediaIDs = r.PostFormValue("media_ids")
		_ = json.NewEncoder(w).Encode(map[string]string{"id_str": "12345"})
	})
	return mux
}

func newTestClient(t *testing.T, api *fakeAPI) (*client, func()) {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	c := &client{
		httpClient: srv.Client(),
		uploadURL:  srv.URL + "/upload",
		statusURL:  srv.URL + "/status",
	}
	return c, srv.Close
}

func TestPublishUploadsImagesAndPostsStatus(t *testing.T) {
	api := &fakeAPI{}
	c, done := newTestClient(t, api)
	defer done()

	id, err := c.Publish("AP: title http://example.com/a", []image.Image{testImage(), testImage()})
	require.NoError(t, err)

	assert.Equal(t, "12345", id)
	assert.Equal(t, "AP: title http://example.com/a", api.lastStatus)
	assert.Equal(t, "media-1,media-2", api.lastMediaIDs)
}

func TestPublishCapsAttachments(t *testing.T) {
	api := &fakeAPI{}
	c, done := newTestClient(t, api)
	defer done()

	six := []image.Image{testImage(), testImage(), testImage(), testImage(), testImage(), testImage()}
	_, err := c.Publish("status", six)
	require.NoError(t, err)

	assert.Equal(t, MaxAttachments, api.uploads)
	assert.Equal(t, MaxAttachments, len(strings.Split(api.lastMediaIDs, ",")))
}

func TestPublishOmitsFailedUploadOnly(t *testing.T) {
	api := &fakeAPI{failUploads: map[int]bool{2: true}}
	c, done := newTestClient(t, api)
	defer done()

	id, err := c.Publish("status", []image.Image{testImage(), testImage(), testImage()})
	require.NoError(t, err, "one bad upload must not abort the publish")

	assert.Equal(t, "12345", id)
	assert.Equal(t, "media-1,media-3", api.lastMediaIDs)
}

func TestPublishWithNoImages(t *testing.T) {
	api := &fakeAPI{}
	c, done := newTestClient(t, api)
	defer done()

	id, err := c.Publish("text only", nil)
	require.NoError(t, err)

	assert.Equal(t, "12345", id)
	assert.Equal(t, 0, api.uploads)
	assert.Empty(t, api.lastMediaIDs)
}

func TestPublishSurfacesStatusFailure(t *testing.T) {
	api := &fakeAPI{failStatus: true}
	c, done := newTestClient(t, api)
	defer done()

	_, err := c.Publish("status", []image.Image{testImage()})
	assert.Error(t, err)
}

func TestUploadResultOmitted(t *testing.T) {
	assert.False(t, UploadResult{MediaID: "1"}.Omitted())
	assert.True(t, UploadResult{Err: assert.AnError}.Omitted())
}
