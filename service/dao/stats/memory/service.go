package memory

import (
	"context"
	"sync"

	"github.com/viant/coproc/service/dao"
	"github.com/viant/coproc/service/dao/stats"
)

// Service implements an in-memory, thread-safe store for the latest
// ProcessorStats snapshot per processor ID.
type Service struct {
	snapshots map[string]*stats.ProcessorStats
	mux       sync.RWMutex
}

var _ dao.Service[string, stats.ProcessorStats] = (*Service)(nil)

func New() *Service {
	return &Service{snapshots: map[string]*stats.ProcessorStats{}}
}

func (s *Service) Save(_ context.Context, snap *stats.ProcessorStats) error {
	if snap == nil {
		return dao.ErrNilEntity
	}
	if snap.ProcessorID == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	s.snapshots[snap.ProcessorID] = snap
	return nil
}

func (s *Service) Load(_ context.Context, id string) (*stats.ProcessorStats, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mux.RLock()
	snap, ok := s.snapshots[id]
	s.mux.RUnlock()

	if !ok {
		return nil, dao.ErrNotFound
	}
	return snap, nil
}

func (s *Service) Delete(_ context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if _, ok := s.snapshots[id]; !ok {
		return dao.ErrNotFound
	}
	delete(s.snapshots, id)
	return nil
}

func (s *Service) List(_ context.Context, _ ...*dao.Parameter) ([]*stats.ProcessorStats, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	out := make([]*stats.ProcessorStats, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap)
	}
	return out, nil
}
