package cleanup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/autovis/internal/common"
)

// Service sweeps stale files out of the uploads directory on a cron
// schedule. Uploaded and scraped images are only needed while their job
// runs; rendered outputs are kept for download and are not touched.
type Service struct {
	logger     arbor.ILogger
	cron       *cron.Cron
	uploadsDir string
	maxAge     time.Duration
	schedule   string
	enabled    bool
}

// NewService creates the upload sweeper
func NewService(logger arbor.ILogger, cfg *common.CleanupConfig, uploadsDir string) *Service {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = "0 * * * *"
	}
	return &Service{
		logger:     logger,
		cron:       cron.New(),
		uploadsDir: uploadsDir,
		maxAge:     common.DurationOr(cfg.MaxAge, 24*time.Hour),
		schedule:   schedule,
		enabled:    cfg.Enabled,
	}
}

// Start registers the sweep schedule and starts the cron runner
func (s *Service) Start() error {
	if !s.enabled {
		s.logger.Debug().Msg("Upload cleanup disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if n, err := s.Sweep(); err != nil {
			s.logger.Warn().Err(err).Msg("Upload sweep failed")
		} else if n > 0 {
			s.logger.Info().Int("removed", n).Msg("Swept stale uploads")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.schedule).
		Str("max_age", s.maxAge.String()).
		Msg("Upload cleanup started")
	return nil
}

// Sweep removes uploads older than the configured max age and returns
// the number of files removed
func (s *Service) Sweep() (int, error) {
	entries, err := os.ReadDir(s.uploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read uploads directory: %w", err)
	}

	cutoff := time.Now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.uploadsDir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Debug().Err(err).Str("path", path).Msg("Failed to remove stale upload")
			continue
		}
		removed++
	}
	return removed, nil
}

// Stop halts the cron runner
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
