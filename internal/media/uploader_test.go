package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileServer fakes the Telegram file download host and the upload bucket in
// one handler: GETs serve file content, PUTs record what was stored.
type fileServer struct {
	mu       sync.Mutex
	uploads  map[string][]byte
	failPuts bool
}

func newFileServer() *fileServer {
	return &fileServer{uploads: map[string][]byte{}}
}

func (f *fileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		// Content derived from the path so tests can tell files apart
		w.Write([]byte("content-of-" + strings.TrimPrefix(r.URL.Path, "/files/")))
	case http.MethodPut:
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failPuts {
			http.Error(w, "bucket full", http.StatusInsufficientStorage)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.uploads[strings.TrimPrefix(r.URL.Path, "/bucket/")] = body
		w.WriteHeader(http.StatusOK)
	}
}

func (f *fileServer) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func newTestPublisher(t *testing.T, fs *fileServer) (*Publisher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)

	uploader := NewHTTPUploader(srv.URL+"/bucket", "https://cdn.test")
	getFileDirectURL := func(fileID string) (string, error) {
		return srv.URL + "/files/" + fileID + ".jpg", nil
	}
	return NewPublisher(getFileDirectURL, uploader), srv
}

func TestPublishPhotos_PreservesOrder(t *testing.T) {
	fs := newFileServer()
	publisher, _ := newTestPublisher(t, fs)

	urls, err := publisher.PublishPhotos(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, urls, 3)

	// Uploaded names carry a timestamp prefix, but order in the result matches
	// the input order
	for i, suffix := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		assert.True(t, strings.HasPrefix(urls[i], "https://cdn.test/"), "url %q", urls[i])
		assert.True(t, strings.HasSuffix(urls[i], suffix), "url %d should end in %s, got %q", i, suffix, urls[i])
	}
	assert.Equal(t, 3, fs.uploadCount())
}

func TestPublishPhotos_UploadsDownloadedContent(t *testing.T) {
	fs := newFileServer()
	publisher, _ := newTestPublisher(t, fs)

	_, err := publisher.PublishPhotos(context.Background(), []string{"a"})
	require.NoError(t, err)

	fs.mu.Lock()
	defer fs.mu.Unlock()
	require.Len(t, fs.uploads, 1)
	for _, body := range fs.uploads {
		assert.Equal(t, "content-of-a.jpg", string(body))
	}
}

func TestPublishPhotos_UploadFailureFailsBatch(t *testing.T) {
	fs := newFileServer()
	fs.failPuts = true
	publisher, _ := newTestPublisher(t, fs)

	urls, err := publisher.PublishPhotos(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
	assert.Nil(t, urls, "no partial result on failure")
}

func TestPublishPhotos_ResolveFailureFailsBatch(t *testing.T) {
	fs := newFileServer()
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)

	uploader := NewHTTPUploader(srv.URL+"/bucket", "https://cdn.test")
	publisher := NewPublisher(func(fileID string) (string, error) {
		return "", errors.New("file not found")
	}, uploader)

	_, err := publisher.PublishPhotos(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestPublishPhotos_Empty(t *testing.T) {
	fs := newFileServer()
	publisher, _ := newTestPublisher(t, fs)

	urls, err := publisher.PublishPhotos(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, urls)
}
