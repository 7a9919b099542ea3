package video

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used in tests and single-node
// development setups.
type MemoryStore struct {
	mu     sync.Mutex
	videos map[uuid.UUID]Video
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{videos: map[uuid.UUID]Video{}}
}

func (s *MemoryStore) Insert(_ context.Context, v *Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[v.ID] = *v
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (s *MemoryStore) TransitionStatus(_ context.Context, id uuid.UUID, next Status) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return "", ErrNotFound
	}
	if TransitionAllowed(v.Status, next) {
		v.Status = next
		s.videos[id] = v
	}
	return v.Status, nil
}

func (s *MemoryStore) ListByStatus(_ context.Context, status Status) ([]Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Video
	for _, v := range s.videos {
		if v.Status == status {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return ErrNotFound
	}
	delete(s.videos, id)
	return nil
}
