package hub

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/your-org/streamforge/internal/video"
	"github.com/your-org/streamforge/pkg/metrics"
)

type eventKind int

const (
	kindLog eventKind = iota
	kindJobStatus
)

type event struct {
	kind    eventKind
	videoID string
	text    string
	status  video.Status
}

// Hub bridges the event bus to the subscriber registry and the video
// state machine. Events for one video are processed strictly in arrival
// order; distinct videos proceed in parallel.
type Hub struct {
	store    video.Store
	registry *Registry
	logger   *zap.Logger

	mu        sync.Mutex
	cond      *sync.Cond
	pipelines map[string][]event
	wg        sync.WaitGroup
}

func New(store video.Store, registry *Registry, logger *zap.Logger) *Hub {
	h := &Hub{
		store:     store,
		registry:  registry,
		logger:    logger,
		pipelines: map[string][]event{},
	}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// HandleLog enqueues a log line for relay to the video's channel.
func (h *Hub) HandleLog(ctx context.Context, videoID, line string) {
	metrics.EventsProcessedTotal.WithLabelValues("log").Inc()
	h.enqueue(ctx, event{kind: kindLog, videoID: videoID, text: line})
}

// HandleJobStatus enqueues a job lifecycle update. Only PROCESSING,
// COMPLETED and FAILED are acted on; anything else from external
// producers is dropped here.
func (h *Hub) HandleJobStatus(ctx context.Context, videoID, rawStatus string) {
	metrics.EventsProcessedTotal.WithLabelValues("job-status").Inc()

	status, ok := video.ParseStatus(rawStatus)
	if !ok || !relayedStatus(status) {
		metrics.EventsIgnoredTotal.WithLabelValues("unexpected-status").Inc()
		h.logger.Warn("ignoring unexpected job status",
			zap.String("videoId", videoID),
			zap.String("status", rawStatus),
		)
		return
	}
	h.enqueue(ctx, event{kind: kindJobStatus, videoID: videoID, status: status})
}

func relayedStatus(s video.Status) bool {
	return s == video.StatusProcessing || s == video.StatusCompleted || s == video.StatusFailed
}

// enqueue appends the event to the video's ordered queue and starts a
// drain goroutine if the queue was idle. The first goroutine to see the
// queue keeps draining it until empty, which serializes processing per
// video without any cross-video locking during the work itself.
func (h *Hub) enqueue(ctx context.Context, ev event) {
	h.mu.Lock()
	pending, active := h.pipelines[ev.videoID]
	h.pipelines[ev.videoID] = append(pending, ev)
	if !active {
		h.wg.Add(1)
		go h.drain(ctx, ev.videoID)
	}
	h.mu.Unlock()
}

func (h *Hub) drain(ctx context.Context, videoID string) {
	defer h.wg.Done()
	for {
		h.mu.Lock()
		pending := h.pipelines[videoID]
		if len(pending) == 0 {
			delete(h.pipelines, videoID)
			h.cond.Broadcast()
			h.mu.Unlock()
			return
		}
		ev := pending[0]
		h.pipelines[videoID] = pending[1:]
		h.mu.Unlock()

		h.process(ctx, ev)
	}
}

func (h *Hub) process(ctx context.Context, ev event) {
	switch ev.kind {
	case kindLog:
		h.registry.Broadcast(ev.videoID, logMessage(ev.text))

	case kindJobStatus:
		id, err := uuid.Parse(ev.videoID)
		if err != nil {
			metrics.EventsIgnoredTotal.WithLabelValues("bad-video-id").Inc()
			h.logger.Warn("job status for malformed video id", zap.String("videoId", ev.videoID))
			return
		}
		if _, err := h.store.TransitionStatus(ctx, id, ev.status); err != nil {
			h.logger.Error("persist status transition",
				zap.String("videoId", ev.videoID),
				zap.String("status", string(ev.status)),
				zap.Error(err),
			)
			return
		}
		h.registry.Broadcast(ev.videoID, statusUpdate(string(ev.status)))
	}
}

// Drain blocks until every per-video queue has been fully processed.
// Used at shutdown after the bus subscriptions stop feeding events.
func (h *Hub) Drain() {
	h.mu.Lock()
	for len(h.pipelines) > 0 {
		h.cond.Wait()
	}
	h.mu.Unlock()
	h.wg.Wait()
}
