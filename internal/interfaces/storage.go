package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/autovis/internal/models"
)

// ErrJobNotFound is returned when a job identifier has no record
var ErrJobNotFound = errors.New("job not found")

// JobStore is the process-wide job state store. Each job's record is
// written only by the pipeline goroutine owning that job; concurrent
// readers poll it through Get. Implementations must return deep copies
// so callers cannot mutate stored state.
type JobStore interface {
	// Put stores a new job record
	Put(ctx context.Context, job *models.Job) error

	// Get returns a copy of the job, or ErrJobNotFound
	Get(ctx context.Context, id string) (*models.Job, error)

	// Update applies mutate to the stored job under the store's lock.
	// Returns ErrJobNotFound if the job does not exist.
	Update(ctx context.Context, id string, mutate func(*models.Job)) error

	// List returns copies of all jobs
	List(ctx context.Context) ([]*models.Job, error)

	// Count returns the number of stored jobs
	Count(ctx context.Context) (int, error)

	// Close releases any backing resources
	Close() error
}
