package memory

import (
	"context"
	"sync"

	"github.com/ternarybob/autovis/internal/interfaces"
	"github.com/ternarybob/autovis/internal/models"
)

// Store is the default volatile job store. One map-level lock guards
// insertion and lookup; per-field locking is unnecessary because each
// job record is only ever written by the pipeline goroutine owning it.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewStore creates an empty in-memory job store
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*models.Job),
	}
}

func (s *Store) Put(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return job.Clone(), nil
}

func (s *Store) Update(ctx context.Context, id string, mutate func(*models.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	mutate(job)
	return nil
}

func (s *Store) List(ctx context.Context) ([]*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.Clone())
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs), nil
}

func (s *Store) Close() error {
	return nil
}
