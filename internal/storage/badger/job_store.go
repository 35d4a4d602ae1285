package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/autovis/internal/interfaces"
	"github.com/ternarybob/autovis/internal/models"
)

// JobStore implements interfaces.JobStore on BadgerDB. Jobs survive
// process restarts, unlike the default in-memory store.
type JobStore struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobStore creates a Badger-backed job store
func NewJobStore(db *BadgerDB, logger arbor.ILogger) *JobStore {
	return &JobStore{
		db:     db,
		logger: logger,
	}
}

func (s *JobStore) Put(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		return fmt.Errorf("job ID is required")
	}
	if err := s.db.Store().Upsert(job.ID, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := s.db.Store().Get(id, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// Update reads, mutates, and writes back under badgerhold's internal
// locking. Each job is written only by its own pipeline goroutine, so
// read-modify-write without a transaction is safe here.
func (s *JobStore) Update(ctx context.Context, id string, mutate func(*models.Job)) error {
	var job models.Job
	if err := s.db.Store().Get(id, &job); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrJobNotFound
		}
		return fmt.Errorf("failed to get job: %w", err)
	}

	mutate(&job)

	if err := s.db.Store().Upsert(id, &job); err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

func (s *JobStore) List(ctx context.Context) ([]*models.Job, error) {
	var jobs []models.Job
	if err := s.db.Store().Find(&jobs, badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	out := make([]*models.Job, len(jobs))
	for i := range jobs {
		out[i] = &jobs[i]
	}
	return out, nil
}

func (s *JobStore) Count(ctx context.Context) (int, error) {
	n, err := s.db.Store().Count(&models.Job{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return int(n), nil
}

func (s *JobStore) Close() error {
	return s.db.Close()
}
