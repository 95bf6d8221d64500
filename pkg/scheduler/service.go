package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PredictionPruner deletes history entries older than a cutoff
type PredictionPruner interface {
	DeletePredictionsBefore(cutoff time.Time) (int64, error)
}

// Service runs the prediction history retention sweep on a cron schedule
type Service struct {
	store     PredictionPruner
	retention time.Duration
	schedule  string
	cron      *cron.Cron
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	entryID cron.EntryID
	started bool
}

// NewService creates a retention scheduler. retentionDays of 0 keeps
// history forever, so Start schedules nothing.
func NewService(store PredictionPruner, retentionDays int, schedule string, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if retentionDays < 0 {
		return nil, fmt.Errorf("retention days must not be negative, got %d", retentionDays)
	}
	if schedule == "" {
		schedule = "@daily"
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		schedule:  schedule,
		cron:      cron.New(),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Start starts the scheduler
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.retention == 0 {
		s.logger.Info("history retention disabled")
		return nil
	}

	schedule, err := cron.ParseStandard(s.schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	s.entryID = s.cron.Schedule(schedule, cron.FuncJob(func() {
		if _, err := s.Sweep(); err != nil {
			s.logger.Error("history retention sweep failed", zap.Error(err))
		}
	}))
	s.cron.Start()
	s.started = true

	s.logger.Info("history retention scheduler started",
		zap.String("schedule", s.schedule),
		zap.Duration("retention", s.retention),
	)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.started = false
	s.logger.Info("history retention scheduler stopped")
}

// NextRun reports when the sweep fires next. The zero time means the
// scheduler is not running.
func (s *Service) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Sweep deletes predictions older than the retention window
func (s *Service) Sweep() (int64, error) {
	if s.retention == 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.retention)
	deleted, err := s.store.DeletePredictionsBefore(cutoff)
	if err != nil {
		return 0, err
	}
	s.logger.Info("history retention sweep completed",
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted),
	)
	return deleted, nil
}
