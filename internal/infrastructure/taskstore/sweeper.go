package taskstore

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type evicter interface {
	Evict(now time.Time, retention time.Duration) int
}

// Sweeper periodically evicts finished tasks from a store.
type Sweeper struct {
	store     evicter
	retention time.Duration
	schedule  string
	logger    *zap.Logger
	cron      *cron.Cron
	now       func() time.Time
}

func NewSweeper(store evicter, retention time.Duration, schedule string, logger *zap.Logger) *Sweeper {
	if retention <= 0 {
		retention = time.Hour
	}
	if schedule == "" {
		schedule = "@every 5m"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sweeper{
		store:     store,
		retention: retention,
		schedule:  schedule,
		logger:    logger,
		cron:      cron.New(),
		now:       time.Now,
	}
}

func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.Sweep); err != nil {
		return fmt.Errorf("schedule task sweep %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("task sweeper started",
		zap.String("schedule", s.schedule),
		zap.Duration("retention", s.retention),
	)
	return nil
}

// Sweep runs one eviction pass.
func (s *Sweeper) Sweep() {
	removed := s.store.Evict(s.now(), s.retention)
	if removed > 0 {
		s.logger.Info("evicted finished upload tasks", zap.Int("count", removed))
	}
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("task sweeper stopped")
}
