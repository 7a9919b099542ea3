package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/your-org/streamforge/internal/video"
	"github.com/your-org/streamforge/pkg/metrics"
	"github.com/your-org/streamforge/pkg/storage/objectstore"
)

// Coordinator owns the lifecycle of one multipart upload session per
// video: initiation, per-part URL issuance, and completion or abort.
type Coordinator struct {
	store      video.Store
	objects    objectstore.Client
	dispatcher JobDispatcher
	logger     *zap.Logger
	sessions   *sessionTable

	partURLTTL         time.Duration
	maxParts           int
	presignConcurrency int
}

type Params struct {
	Store      video.Store
	Objects    objectstore.Client
	Dispatcher JobDispatcher
	Logger     *zap.Logger

	PartURLTTL         time.Duration
	MaxParts           int
	PresignConcurrency int
}

// New constructs a Coordinator.
func New(p Params) *Coordinator {
	if p.PartURLTTL <= 0 {
		p.PartURLTTL = time.Hour
	}
	if p.MaxParts <= 0 {
		p.MaxParts = 1000
	}
	if p.PresignConcurrency <= 0 {
		p.PresignConcurrency = 8
	}
	return &Coordinator{
		store:              p.Store,
		objects:            p.Objects,
		dispatcher:         p.Dispatcher,
		logger:             p.Logger,
		sessions:           newSessionTable(),
		partURLTTL:         p.PartURLTTL,
		maxParts:           p.MaxParts,
		presignConcurrency: p.PresignConcurrency,
	}
}

// CreateResult is returned by CreateVideo.
type CreateResult struct {
	VideoID      uuid.UUID
	SessionToken string
	StorageKey   string
}

// PartURL pairs one requested part number with its presigned URL.
type PartURL struct {
	PartNumber int    `json:"partNumber"`
	URL        string `json:"url"`
}

// Part is one client-reported uploaded part.
type Part struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"etag"`
}

// StorageKey derives the deterministic raw-upload object key for a
// video. Scoping by videoID keeps keys collision-free across videos.
func StorageKey(videoID uuid.UUID, fileName string) string {
	return fmt.Sprintf("__raw_uploads/%s/%s", videoID, fileName)
}

// CreateVideo persists a new Video in CREATED state, then opens a
// multipart session for it. Persist-first ordering means a backend
// failure can leave a video row with no session; AbandonVideo is the
// recovery path for those.
func (c *Coordinator) CreateVideo(ctx context.Context, title, contentType, fileName string) (*CreateResult, error) {
	if title == "" || contentType == "" || fileName == "" {
		return nil, fmt.Errorf("%w: title, contentType and fileName are required", video.ErrValidation)
	}

	v := video.New(title, fileName)
	if err := c.store.Insert(ctx, v); err != nil {
		return nil, fmt.Errorf("%w: %v", video.ErrEntityCreation, err)
	}

	key := StorageKey(v.ID, fileName)
	token, err := c.objects.BeginSession(ctx, key, contentType)
	if err != nil {
		c.logger.Error("storage session failed, video left without session",
			zap.String("videoId", v.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", video.ErrStorageSession, err)
	}

	c.sessions.register(v.ID, key, token)

	c.logger.Info("video created",
		zap.String("videoId", v.ID.String()),
		zap.String("storageKey", key),
	)
	return &CreateResult{VideoID: v.ID, SessionToken: token, StorageKey: key}, nil
}

// IssuePartUrls validates the session, marks the video UPLOADING
// (idempotent), and presigns one upload URL per requested part. URLs
// are requested concurrently with bounded fan-out; any single failure
// fails the whole batch and the caller retries it in full.
func (c *Coordinator) IssuePartUrls(ctx context.Context, storageKey, sessionToken string, videoID uuid.UUID, partNumbers []int) ([]PartURL, error) {
	if len(partNumbers) == 0 {
		return nil, fmt.Errorf("%w: at least one part number is required", video.ErrValidation)
	}
	if len(partNumbers) > c.maxParts {
		return nil, fmt.Errorf("%w: at most %d parts per session", video.ErrValidation, c.maxParts)
	}
	seen := make(map[int]bool, len(partNumbers))
	for _, n := range partNumbers {
		if n <= 0 {
			return nil, fmt.Errorf("%w: part numbers must be positive, got %d", video.ErrValidation, n)
		}
		if seen[n] {
			return nil, fmt.Errorf("%w: duplicate part number %d", video.ErrValidation, n)
		}
		seen[n] = true
	}

	if err := c.sessions.validate(videoID, storageKey, sessionToken); err != nil {
		return nil, err
	}

	// Re-entering UPLOADING while already uploading is a no-op, so
	// re-issuing URLs never errors on status grounds.
	if _, err := c.store.TransitionStatus(ctx, videoID, video.StatusUploading); err != nil {
		return nil, err
	}

	urls := make([]PartURL, len(partNumbers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.presignConcurrency)
	for i, partNumber := range partNumbers {
		g.Go(func() error {
			u, err := c.objects.PresignPartURL(gctx, storageKey, sessionToken, partNumber, c.partURLTTL)
			if err != nil {
				return fmt.Errorf("part %d: %w", partNumber, err)
			}
			urls[i] = PartURL{PartNumber: partNumber, URL: u}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", video.ErrPartURL, err)
	}

	metrics.PartURLsIssuedTotal.Add(float64(len(urls)))
	return urls, nil
}

// CompleteUpload finalizes the session with the client-reported parts,
// marks the video QUEUED, and dispatches the transcode job. A session
// completes at most once; later attempts fail with ErrSessionFinalized
// and never dispatch a second job.
func (c *Coordinator) CompleteUpload(ctx context.Context, storageKey, sessionToken string, videoID uuid.UUID, parts []Part) (*JobParameters, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: at least one part is required", video.ErrValidation)
	}
	seen := make(map[int]bool, len(parts))
	for _, p := range parts {
		if p.PartNumber <= 0 {
			return nil, fmt.Errorf("%w: part numbers must be positive, got %d", video.ErrValidation, p.PartNumber)
		}
		if p.ETag == "" {
			return nil, fmt.Errorf("%w: part %d has no completion tag", video.ErrValidation, p.PartNumber)
		}
		if seen[p.PartNumber] {
			return nil, fmt.Errorf("%w: duplicate part number %d", video.ErrValidation, p.PartNumber)
		}
		seen[p.PartNumber] = true
	}

	if err := c.sessions.beginFinalize(videoID, storageKey, sessionToken); err != nil {
		return nil, err
	}

	completed := make([]objectstore.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, objectstore.CompletedPart{PartNumber: p.PartNumber, ETag: p.ETag})
	}

	if err := c.objects.FinalizeSession(ctx, storageKey, sessionToken, completed); err != nil {
		// Status untouched; the claim is released so the client can
		// retry the completion with a corrected part set.
		c.sessions.abortFinalize(videoID)
		return nil, fmt.Errorf("%w: %v", video.ErrFinalization, err)
	}
	c.sessions.finishFinalize(videoID)

	if _, err := c.store.TransitionStatus(ctx, videoID, video.StatusQueued); err != nil {
		return nil, err
	}

	v, err := c.store.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}

	params := JobParameters{FileName: v.RawFileName, VideoID: v.ID.String()}
	if err := c.dispatcher.Dispatch(ctx, params); err != nil {
		return nil, fmt.Errorf("%w: %v", video.ErrDispatch, err)
	}
	metrics.JobsDispatchedTotal.Inc()

	c.logger.Info("upload completed, job dispatched",
		zap.String("videoId", v.ID.String()),
		zap.String("fileName", v.RawFileName),
		zap.Int("parts", len(parts)),
	)
	return &params, nil
}

// ListCompleted returns every video that finished processing.
func (c *Coordinator) ListCompleted(ctx context.Context) ([]video.Video, error) {
	return c.store.ListByStatus(ctx, video.StatusCompleted)
}

// AbandonVideo discards a video that never made it through upload,
// aborting its storage session when one is live. This is the recovery
// path for videos whose session could not be opened or whose uploader
// went away.
func (c *Coordinator) AbandonVideo(ctx context.Context, videoID uuid.UUID) error {
	s, err := c.sessions.take(videoID)
	if err != nil {
		return err
	}
	if s != nil && s.state == sessionOpen {
		if err := c.objects.AbortSession(ctx, s.storageKey, s.token); err != nil {
			// The entity is removed regardless; storage reaps stale
			// sessions on its own schedule.
			c.logger.Warn("abort session failed",
				zap.String("videoId", videoID.String()),
				zap.Error(err),
			)
		}
	}
	return c.store.Delete(ctx, videoID)
}

// Close releases the coordinator's external resources.
func (c *Coordinator) Close() error {
	return c.objects.Close()
}
