package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/crawler"
)

// Scheduler triggers periodic discovery scans
type Scheduler struct {
	cron      *cron.Cron
	discovery *crawler.Discovery
	config    *common.SchedulerConfig
	logger    arbor.ILogger
}

// New creates a scheduler for periodic discovery scans
func New(discovery *crawler.Discovery, config *common.SchedulerConfig, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		discovery: discovery,
		config:    config,
		logger:    logger,
	}
}

// Start registers the discovery job and starts the cron loop
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info().Msg("Scheduler disabled, discovery scans are manual only")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		result, err := s.discovery.Scan(context.Background(), s.config.Pages)
		if err != nil {
			s.logger.Error().Err(err).Msg("Scheduled discovery scan failed")
			return
		}
		s.logger.Info().
			Int("pages_scanned", result.PagesScanned).
			Int("new_records", result.NewRecords).
			Msg("Scheduled discovery scan finished")
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Int("pages", s.config.Pages).
		Msg("Scheduler started")

	return nil
}

// Stop stops the cron loop, waiting for a running scan to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Scheduler stopped")
}
