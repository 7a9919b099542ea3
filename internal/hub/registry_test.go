package hub_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/streamforge/internal/hub"
)

// testSubscriber records everything sent to it and can be told to start
// failing deliveries.
type testSubscriber struct {
	id string

	mu       sync.Mutex
	payloads [][]byte
	failing  bool
}

func newTestSubscriber(id string) *testSubscriber {
	return &testSubscriber{id: id}
}

func (s *testSubscriber) ID() string {
	return s.id
}

func (s *testSubscriber) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("connection gone")
	}
	s.payloads = append(s.payloads, payload)
	return nil
}

func (s *testSubscriber) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = true
}

func (s *testSubscriber) messages(t *testing.T) []hub.Message {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]hub.Message, 0, len(s.payloads))
	for _, p := range s.payloads {
		var m hub.Message
		require.NoError(t, json.Unmarshal(p, &m))
		out = append(out, m)
	}
	return out
}

func TestRegistry_JoinAcksAndIsIdempotent(t *testing.T) {
	r := hub.NewRegistry(zap.NewNop())
	sub := newTestSubscriber("a")

	r.Join(sub, "v1")
	r.Join(sub, "v1")

	msgs := sub.messages(t)
	require.Len(t, msgs, 1, "double join must not re-ack")
	assert.Equal(t, "joined", msgs[0].Type)
	assert.Equal(t, "v1", msgs[0].Channel)
	assert.Equal(t, 1, r.MemberCount("v1"))
}

func TestRegistry_BroadcastReachesOnlyChannelMembers(t *testing.T) {
	r := hub.NewRegistry(zap.NewNop())
	member := newTestSubscriber("member")
	other := newTestSubscriber("other")

	r.Join(member, "v1")
	r.Join(other, "v2")

	r.Broadcast("v1", []byte(`{"type":"log-message","message":"x"}`))

	require.Len(t, member.messages(t), 2) // join ack + broadcast
	assert.Equal(t, "x", member.messages(t)[1].Message)

	require.Len(t, other.messages(t), 1, "other channel must not receive the event")
}

func TestRegistry_FailedDeliveryEvictsSubscriber(t *testing.T) {
	r := hub.NewRegistry(zap.NewNop())
	healthy := newTestSubscriber("healthy")
	broken := newTestSubscriber("broken")

	r.Join(healthy, "v1")
	r.Join(broken, "v1")
	require.Equal(t, 2, r.MemberCount("v1"))

	broken.fail()
	r.Broadcast("v1", []byte(`{"type":"log-message","message":"x"}`))

	assert.Equal(t, 1, r.MemberCount("v1"))

	// The evicted subscriber is not retried on the next broadcast.
	r.Broadcast("v1", []byte(`{"type":"log-message","message":"y"}`))
	require.Len(t, healthy.messages(t), 3)
	assert.Equal(t, "y", healthy.messages(t)[2].Message)
}

func TestRegistry_LeaveRemovesFromEveryChannel(t *testing.T) {
	r := hub.NewRegistry(zap.NewNop())
	sub := newTestSubscriber("a")
	keeper := newTestSubscriber("b")

	r.Join(sub, "v1")
	r.Join(sub, "v2")
	r.Join(keeper, "v1")

	r.Leave(sub)

	assert.Equal(t, 1, r.MemberCount("v1"))
	assert.Equal(t, 0, r.MemberCount("v2"), "empty channel is garbage-collected")
}
