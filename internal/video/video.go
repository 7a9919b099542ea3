package video

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a video.
type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusUploading  Status = "UPLOADING"
	StatusQueued     Status = "QUEUED"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// successors holds the single valid forward edge set of the lifecycle.
// Terminal states have no successors.
var successors = map[Status][]Status{
	StatusCreated:    {StatusUploading},
	StatusUploading:  {StatusQueued},
	StatusQueued:     {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// ParseStatus maps a raw string onto a known Status.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	if _, ok := successors[s]; !ok {
		return "", false
	}
	return s, true
}

// TransitionAllowed reports whether a status write from current to next
// should be applied. Re-applying the current status is allowed so that
// duplicate external signals stay idempotent; anything that is not a
// direct successor is silently ignored by callers, which tolerates
// out-of-order delivery from the event bus.
func TransitionAllowed(current, next Status) bool {
	if current == next {
		return true
	}
	for _, s := range successors[current] {
		if s == next {
			return true
		}
	}
	return false
}

// TransitionSources returns every status from which next is reachable,
// including next itself. Store implementations use it to apply a
// transition as a single conditional write.
func TransitionSources(next Status) []Status {
	sources := []Status{next}
	for from, to := range successors {
		for _, s := range to {
			if s == next {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

// Video is the persisted record of an uploaded media item.
type Video struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	RawFileName string    `json:"rawFileName"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// New constructs a Video in its initial state.
func New(title, rawFileName string) *Video {
	return &Video{
		ID:          uuid.New(),
		Title:       title,
		RawFileName: rawFileName,
		Status:      StatusCreated,
		CreatedAt:   time.Now().UTC(),
	}
}
