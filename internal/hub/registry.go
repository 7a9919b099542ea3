package hub

import (
	"sync"

	"go.uber.org/zap"

	"github.com/your-org/streamforge/pkg/metrics"
)

// Subscriber is one connected client able to receive channel payloads.
// Send must be safe for concurrent use; a failed Send gets the
// subscriber evicted from the channel, not retried.
type Subscriber interface {
	ID() string
	Send(payload []byte) error
}

// Registry tracks which subscribers have joined which per-video channel.
// Channels exist only while they have members.
type Registry struct {
	logger *zap.Logger

	mu       sync.Mutex
	channels map[string]map[string]Subscriber
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:   logger,
		channels: map[string]map[string]Subscriber{},
	}
}

// Join adds sub to the channel for videoID and acknowledges the join
// directly to the subscriber. Joining twice is a no-op.
func (r *Registry) Join(sub Subscriber, videoID string) {
	r.mu.Lock()
	members, ok := r.channels[videoID]
	if !ok {
		members = map[string]Subscriber{}
		r.channels[videoID] = members
		metrics.ActiveChannels.Inc()
	}
	_, already := members[sub.ID()]
	members[sub.ID()] = sub
	r.mu.Unlock()

	if already {
		return
	}
	if err := sub.Send(joinedMessage(videoID)); err != nil {
		r.logger.Warn("join ack failed", zap.String("subscriber", sub.ID()), zap.Error(err))
		r.remove(sub.ID(), videoID)
	}
}

// Leave removes sub from every channel it belongs to. Called from
// disconnect hooks.
func (r *Registry) Leave(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for videoID, members := range r.channels {
		if _, ok := members[sub.ID()]; !ok {
			continue
		}
		delete(members, sub.ID())
		if len(members) == 0 {
			delete(r.channels, videoID)
			metrics.ActiveChannels.Dec()
		}
	}
}

// Broadcast delivers payload to every current member of the channel.
// Membership is snapshotted first so joins and leaves during the send
// never tear the iteration. Failed deliveries evict the subscriber.
func (r *Registry) Broadcast(videoID string, payload []byte) {
	r.mu.Lock()
	members := r.channels[videoID]
	snapshot := make([]Subscriber, 0, len(members))
	for _, sub := range members {
		snapshot = append(snapshot, sub)
	}
	r.mu.Unlock()

	for _, sub := range snapshot {
		if err := sub.Send(payload); err != nil {
			r.logger.Debug("delivery failed, evicting subscriber",
				zap.String("subscriber", sub.ID()),
				zap.String("channel", videoID),
			)
			metrics.SubscriberEvictionsTotal.Inc()
			r.remove(sub.ID(), videoID)
		}
	}
	metrics.BroadcastsTotal.Inc()
}

// MemberCount reports the current channel membership size.
func (r *Registry) MemberCount(videoID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels[videoID])
}

func (r *Registry) remove(subID, videoID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.channels[videoID]
	if !ok {
		return
	}
	delete(members, subID)
	if len(members) == 0 {
		delete(r.channels, videoID)
		metrics.ActiveChannels.Dec()
	}
}
