package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/autovis/internal/common"
	"github.com/ternarybob/autovis/internal/interfaces"
	"github.com/ternarybob/autovis/internal/storage/badger"
	"github.com/ternarybob/autovis/internal/storage/memory"
)

// NewJobStore creates a job store based on config. The default is the
// volatile in-memory store; "badger" persists jobs across restarts.
func NewJobStore(logger arbor.ILogger, config *common.Config) (interfaces.JobStore, error) {
	switch config.Storage.Type {
	case "", "memory":
		return memory.NewStore(), nil
	case "badger":
		db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
		if err != nil {
			return nil, err
		}
		return badger.NewJobStore(db, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Storage.Type)
	}
}
