package video_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/streamforge/internal/video"
)

func TestTransitionAllowed_ForwardChain(t *testing.T) {
	chain := []video.Status{
		video.StatusCreated,
		video.StatusUploading,
		video.StatusQueued,
		video.StatusProcessing,
		video.StatusCompleted,
	}
	for i := 0; i < len(chain)-1; i++ {
		assert.True(t, video.TransitionAllowed(chain[i], chain[i+1]),
			"%s -> %s should be allowed", chain[i], chain[i+1])
	}
	assert.True(t, video.TransitionAllowed(video.StatusProcessing, video.StatusFailed))
}

func TestTransitionAllowed_SameStateIsIdempotent(t *testing.T) {
	for _, s := range []video.Status{
		video.StatusCreated,
		video.StatusUploading,
		video.StatusQueued,
		video.StatusProcessing,
		video.StatusCompleted,
		video.StatusFailed,
	} {
		assert.True(t, video.TransitionAllowed(s, s), "%s -> %s", s, s)
	}
}

func TestTransitionAllowed_RejectsRegressionsAndSkips(t *testing.T) {
	cases := []struct {
		name    string
		current video.Status
		next    video.Status
	}{
		{"backward from uploading", video.StatusUploading, video.StatusCreated},
		{"backward from queued", video.StatusQueued, video.StatusUploading},
		{"skip to queued", video.StatusCreated, video.StatusQueued},
		{"skip to completed", video.StatusUploading, video.StatusCompleted},
		{"out of terminal completed", video.StatusCompleted, video.StatusProcessing},
		{"out of terminal failed", video.StatusFailed, video.StatusProcessing},
		{"completed after failed", video.StatusFailed, video.StatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, video.TransitionAllowed(tc.current, tc.next))
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, ok := video.ParseStatus("PROCESSING")
	require.True(t, ok)
	assert.Equal(t, video.StatusProcessing, s)

	_, ok = video.ParseStatus("UPLOADING_RAW")
	assert.False(t, ok)
}

func TestMemoryStore_TransitionStatus_IgnoresLateProcessingEvent(t *testing.T) {
	ctx := context.Background()
	store := video.NewMemoryStore()

	v := video.New("t", "a.mp4")
	require.NoError(t, store.Insert(ctx, v))

	for _, next := range []video.Status{
		video.StatusUploading,
		video.StatusQueued,
		video.StatusProcessing,
		video.StatusCompleted,
	} {
		got, err := store.TransitionStatus(ctx, v.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, got)
	}

	// A retried PROCESSING event arriving after completion must not
	// regress the state.
	got, err := store.TransitionStatus(ctx, v.ID, video.StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, video.StatusCompleted, got)

	stored, err := store.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, video.StatusCompleted, stored.Status)
}

func TestMemoryStore_TransitionStatus_UnknownVideo(t *testing.T) {
	store := video.NewMemoryStore()
	_, err := store.TransitionStatus(context.Background(), uuid.New(), video.StatusUploading)
	assert.ErrorIs(t, err, video.ErrNotFound)
}

func TestMemoryStore_ListByStatusAndDelete(t *testing.T) {
	ctx := context.Background()
	store := video.NewMemoryStore()

	a := video.New("a", "a.mp4")
	b := video.New("b", "b.mp4")
	require.NoError(t, store.Insert(ctx, a))
	require.NoError(t, store.Insert(ctx, b))

	created, err := store.ListByStatus(ctx, video.StatusCreated)
	require.NoError(t, err)
	assert.Len(t, created, 2)

	completed, err := store.ListByStatus(ctx, video.StatusCompleted)
	require.NoError(t, err)
	assert.Empty(t, completed)

	require.NoError(t, store.Delete(ctx, a.ID))
	_, err = store.Get(ctx, a.ID)
	assert.ErrorIs(t, err, video.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, a.ID), video.ErrNotFound)
}
