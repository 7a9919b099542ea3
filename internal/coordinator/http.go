package coordinator

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/your-org/streamforge/internal/video"
)

// HTTPHandler exposes REST endpoints for the coordinator.
type HTTPHandler struct {
	service  *Coordinator
	logger   *zap.Logger
	realtime http.Handler
	router   chi.Router
}

// NewHTTPHandler constructs the HTTP handler and wires routes. realtime
// serves the websocket subscriber endpoint and may be nil.
func NewHTTPHandler(service *Coordinator, realtime http.Handler, logger *zap.Logger) *HTTPHandler {
	h := &HTTPHandler{
		service:  service,
		logger:   logger,
		realtime: realtime,
	}
	h.buildRouter()
	return h
}

func (h *HTTPHandler) buildRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/healthz", h.handleHealth)
	r.Post("/api/v1/videos", h.handleCreateVideo)
	r.Post("/api/v1/videos/part-urls", h.handlePartURLs)
	r.Post("/api/v1/videos/complete", h.handleComplete)
	r.Get("/api/v1/videos", h.handleListCompleted)
	r.Delete("/api/v1/videos/{videoID}", h.handleAbandon)

	if h.realtime != nil {
		r.Get("/ws", h.realtime.ServeHTTP)
	}

	h.router = r
}

// Router exposes the configured chi router.
func (h *HTTPHandler) Router() http.Handler {
	return h.router
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

type createVideoRequest struct {
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	FileName    string `json:"fileName"`
}

func (h *HTTPHandler) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.CreateVideo(r.Context(), req.Title, req.ContentType, req.FileName)
	if err != nil {
		h.writeServiceError(w, err, "create video")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"videoId":  result.VideoID,
		"uploadId": result.SessionToken,
		"key":      result.StorageKey,
	})
}

type partURLsRequest struct {
	Key         string `json:"Key"`
	UploadID    string `json:"UploadId"`
	PartNumbers []int  `json:"PartNumbers"`
	VideoID     string `json:"videoId"`
}

func (h *HTTPHandler) handlePartURLs(w http.ResponseWriter, r *http.Request) {
	var req partURLsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	videoID, err := uuid.Parse(req.VideoID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid videoId")
		return
	}

	urls, err := h.service.IssuePartUrls(r.Context(), req.Key, req.UploadID, videoID, req.PartNumbers)
	if err != nil {
		h.writeServiceError(w, err, "issue part urls")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"signedUrls": urls,
	})
}

type completeRequest struct {
	Key      string        `json:"Key"`
	UploadID string        `json:"UploadId"`
	Parts    []requestPart `json:"Parts"`
	VideoID  string        `json:"videoId"`
}

type requestPart struct {
	ETag       string `json:"ETag"`
	PartNumber int    `json:"PartNumber"`
}

func (h *HTTPHandler) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	videoID, err := uuid.Parse(req.VideoID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid videoId")
		return
	}

	parts := make([]Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		parts = append(parts, Part{PartNumber: p.PartNumber, ETag: p.ETag})
	}

	params, err := h.service.CompleteUpload(r.Context(), req.Key, req.UploadID, videoID, parts)
	if err != nil {
		h.writeServiceError(w, err, "complete upload")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Added to queue",
		"job":     params,
	})
}

func (h *HTTPHandler) handleListCompleted(w http.ResponseWriter, r *http.Request) {
	videos, err := h.service.ListCompleted(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "list completed videos")
		return
	}
	if videos == nil {
		videos = []video.Video{}
	}
	writeJSON(w, http.StatusOK, videos)
}

func (h *HTTPHandler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(chi.URLParam(r, "videoID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid videoId")
		return
	}

	if err := h.service.AbandonVideo(r.Context(), videoID); err != nil {
		h.writeServiceError(w, err, "abandon video")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "video abandoned",
	})
}

func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, video.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, video.ErrNotFound), errors.Is(err, video.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, video.ErrSessionFinalized):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, video.ErrStorageSession),
		errors.Is(err, video.ErrPartURL),
		errors.Is(err, video.ErrFinalization),
		errors.Is(err, video.ErrDispatch):
		h.logger.Error(op+" failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}
