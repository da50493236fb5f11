package services

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/eddie-kann/astrokiddo/pkg/logger"
)

// defaultApodSchedule fetches the daily picture shortly after it is published.
const defaultApodSchedule = "0 6 * * *"

// ApodScheduler fetches the picture of the day on a cron schedule so the
// first morning visitor does not pay the upstream round-trip.
type ApodScheduler struct {
	svc      *ApodService
	cron     *cron.Cron
	schedule string
	log      *zap.Logger
}

// NewApodScheduler constructs the scheduler. An empty schedule selects the
// default daily run; the cron expression is evaluated in the given zone.
func NewApodScheduler(svc *ApodService, schedule string, zone *time.Location) (*ApodScheduler, error) {
	if svc == nil {
		return nil, errors.New("apod scheduler: service is required")
	}
	if schedule == "" {
		schedule = defaultApodSchedule
	}
	if zone == nil {
		zone = time.UTC
	}

	return &ApodScheduler{
		svc:      svc,
		cron:     cron.New(cron.WithLocation(zone)),
		schedule: schedule,
		log:      logger.WithModule("apod-scheduler"),
	}, nil
}

// Start registers the daily job and starts the cron loop.
func (s *ApodScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("apod scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *ApodScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("apod scheduler stopped")
}

func (s *ApodScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s.log.Info("running scheduled apod fetch")
	if _, err := s.svc.GetOrCreateToday(ctx); err != nil {
		s.log.Error("scheduled apod fetch failed", zap.Error(err))
	}
}
