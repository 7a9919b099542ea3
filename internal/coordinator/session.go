package coordinator

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/your-org/streamforge/internal/video"
)

type sessionState int

const (
	sessionOpen sessionState = iota
	sessionFinalizing
	sessionFinalized
)

type session struct {
	storageKey string
	token      string
	state      sessionState
}

// sessionTable tracks the one live upload session per video. The lock
// guards only map access and state flips; it is never held across a
// storage backend call.
type sessionTable struct {
	mu      sync.Mutex
	byVideo map[uuid.UUID]*session
}

func newSessionTable() *sessionTable {
	return &sessionTable{byVideo: map[uuid.UUID]*session{}}
}

func (t *sessionTable) register(videoID uuid.UUID, storageKey, token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byVideo[videoID] = &session{storageKey: storageKey, token: token}
}

// validate checks that (storageKey, token) identify the video's live
// session and that it has not been finalized.
func (t *sessionTable) validate(videoID uuid.UUID, storageKey, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.byVideo[videoID]
	if !ok {
		return video.ErrSessionNotFound
	}
	if s.storageKey != storageKey || s.token != token {
		return fmt.Errorf("%w: session does not match video", video.ErrValidation)
	}
	if s.state != sessionOpen {
		return video.ErrSessionFinalized
	}
	return nil
}

// beginFinalize claims the session for completion. Exactly one caller
// wins; everyone after gets ErrSessionFinalized. The claim is rolled
// back with abortFinalize when the backend rejects the part set, so the
// client can retry the completion.
func (t *sessionTable) beginFinalize(videoID uuid.UUID, storageKey, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.byVideo[videoID]
	if !ok {
		return video.ErrSessionNotFound
	}
	if s.storageKey != storageKey || s.token != token {
		return fmt.Errorf("%w: session does not match video", video.ErrValidation)
	}
	if s.state != sessionOpen {
		return video.ErrSessionFinalized
	}
	s.state = sessionFinalizing
	return nil
}

func (t *sessionTable) finishFinalize(videoID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.byVideo[videoID]; ok {
		s.state = sessionFinalized
	}
}

func (t *sessionTable) abortFinalize(videoID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.byVideo[videoID]; ok && s.state == sessionFinalizing {
		s.state = sessionOpen
	}
}

// take removes and returns the session, if any. Used by AbandonVideo.
// Refuses while a completion is in flight.
func (t *sessionTable) take(videoID uuid.UUID) (*session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.byVideo[videoID]
	if !ok {
		return nil, nil
	}
	if s.state == sessionFinalizing {
		return nil, video.ErrSessionFinalized
	}
	delete(t.byVideo, videoID)
	return s, nil
}
