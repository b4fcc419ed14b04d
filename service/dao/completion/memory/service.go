package memory

import (
	"context"
	"sync"

	"github.com/viant/coproc/service/dao"
	"github.com/viant/coproc/service/dao/completion"
)

// Service implements an in-memory, thread-safe store of CompletionRecords,
// one per reclaimed task.
type Service struct {
	records map[string]*completion.CompletionRecord
	mux     sync.RWMutex
}

var _ dao.Service[string, completion.CompletionRecord] = (*Service)(nil)

func New() *Service {
	return &Service{records: map[string]*completion.CompletionRecord{}}
}

func (s *Service) Save(_ context.Context, r *completion.CompletionRecord) error {
	if r == nil {
		return dao.ErrNilEntity
	}
	if r.TaskID == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()
	s.records[r.TaskID] = r
	return nil
}

func (s *Service) Load(_ context.Context, id string) (*completion.CompletionRecord, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mux.RLock()
	r, ok := s.records[id]
	s.mux.RUnlock()

	if !ok {
		return nil, dao.ErrNotFound
	}
	return r, nil
}

func (s *Service) Delete(_ context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if _, ok := s.records[id]; !ok {
		return dao.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *Service) List(_ context.Context, _ ...*dao.Parameter) ([]*completion.CompletionRecord, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()

	out := make([]*completion.CompletionRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}
