package coordinator_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/streamforge/internal/coordinator"
	"github.com/your-org/streamforge/internal/video"
	"github.com/your-org/streamforge/pkg/storage/objectstore"
)

func newTestServer(t *testing.T, store video.Store, objects objectstore.Client, dispatcher coordinator.JobDispatcher) *httptest.Server {
	t.Helper()
	service := newService(t, store, objects, dispatcher)
	handler := coordinator.NewHTTPHandler(service, nil, zap.NewNop())
	srv := httptest.NewServer(handler.Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHTTP_CreateVideo(t *testing.T) {
	store := video.NewMemoryStore()
	objects := objectstore.NewMockClient()
	objects.On("BeginSession", mock.Anything, mock.Anything, "video/mp4").Return("upload-123", nil)

	srv := newTestServer(t, store, objects, coordinator.NewMockDispatcher())

	resp := postJSON(t, srv.URL+"/api/v1/videos",
		`{"title":"t","content_type":"video/mp4","fileName":"a.mp4"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		VideoID  string `json:"videoId"`
		UploadID string `json:"uploadId"`
		Key      string `json:"key"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.VideoID)
	assert.Equal(t, "upload-123", body.UploadID)
	assert.Contains(t, body.Key, "__raw_uploads/")
}

func TestHTTP_CreateVideo_RejectsMissingFields(t *testing.T) {
	objects := objectstore.NewMockClient()
	srv := newTestServer(t, video.NewMemoryStore(), objects, coordinator.NewMockDispatcher())

	resp := postJSON(t, srv.URL+"/api/v1/videos", `{"title":"t"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	objects.AssertNotCalled(t, "BeginSession", mock.Anything, mock.Anything, mock.Anything)
}

func TestHTTP_PartURLs_UnknownSessionIs404(t *testing.T) {
	srv := newTestServer(t, video.NewMemoryStore(), objectstore.NewMockClient(), coordinator.NewMockDispatcher())

	resp := postJSON(t, srv.URL+"/api/v1/videos/part-urls",
		`{"Key":"k","UploadId":"u","PartNumbers":[1],"videoId":"6a6f6e65-0000-0000-0000-000000000000"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTP_Complete_SecondAttemptIsConflict(t *testing.T) {
	store := video.NewMemoryStore()
	objects := objectstore.NewMockClient()
	dispatcher := coordinator.NewMockDispatcher()

	objects.On("BeginSession", mock.Anything, mock.Anything, "video/mp4").Return("upload-123", nil)
	objects.On("FinalizeSession", mock.Anything, mock.Anything, "upload-123", mock.Anything).Return(nil).Once()
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil).Once()

	srv := newTestServer(t, store, objects, dispatcher)

	resp := postJSON(t, srv.URL+"/api/v1/videos",
		`{"title":"t","content_type":"video/mp4","fileName":"a.mp4"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		VideoID string `json:"videoId"`
		Key     string `json:"key"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	body := `{"Key":"` + created.Key + `","UploadId":"upload-123","Parts":[{"ETag":"e1","PartNumber":1}],"videoId":"` + created.VideoID + `"}`

	first := postJSON(t, srv.URL+"/api/v1/videos/complete", body)
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second := postJSON(t, srv.URL+"/api/v1/videos/complete", body)
	assert.Equal(t, http.StatusConflict, second.StatusCode)

	dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestHTTP_ListCompleted(t *testing.T) {
	ctx := context.Background()
	store := video.NewMemoryStore()

	done := video.New("done", "done.mp4")
	require.NoError(t, store.Insert(ctx, done))
	for _, next := range []video.Status{
		video.StatusUploading, video.StatusQueued, video.StatusProcessing, video.StatusCompleted,
	} {
		_, err := store.TransitionStatus(ctx, done.ID, next)
		require.NoError(t, err)
	}
	pending := video.New("pending", "pending.mp4")
	require.NoError(t, store.Insert(ctx, pending))

	srv := newTestServer(t, store, objectstore.NewMockClient(), coordinator.NewMockDispatcher())

	resp, err := http.Get(srv.URL + "/api/v1/videos")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var videos []video.Video
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&videos))
	require.Len(t, videos, 1)
	assert.Equal(t, "done", videos[0].Title)
	assert.Equal(t, video.StatusCompleted, videos[0].Status)
}

func TestHTTP_Health(t *testing.T) {
	srv := newTestServer(t, video.NewMemoryStore(), objectstore.NewMockClient(), coordinator.NewMockDispatcher())

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
