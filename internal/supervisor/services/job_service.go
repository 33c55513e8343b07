// Affinity - Publication Interest Scoring and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/affinity

package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is one run of a batch job. Returned errors are logged; they do not
// stop the schedule.
type Job func(ctx context.Context) error

// JobConfig configures a JobService.
type JobConfig struct {
	// Name identifies the service in supervisor and job logs.
	Name string

	// Interval between runs. Default: 24h
	Interval time.Duration

	// RunOnStartup runs the job once before the first tick.
	RunOnStartup bool

	// Timeout bounds a single run. Default: Interval
	Timeout time.Duration
}

// JobStats is a snapshot of a job's history.
type JobStats struct {
	Runs      int64
	Failures  int64
	LastRun   time.Time
	LastError string
}

// JobService runs a Job on a fixed interval under suture. Runs never
// overlap: a tick that fires while a run is in progress is dropped by the
// ticker.
type JobService struct {
	job    Job
	config JobConfig
	logger zerolog.Logger

	mu    sync.Mutex
	stats JobStats
}

// NewJobService creates a periodic job service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewJobService(job Job, cfg JobConfig, logger zerolog.Logger) *JobService {
	if cfg.Name == "" {
		cfg.Name = "batch-job"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	return &JobService{
		job:    job,
		config: cfg,
		logger: logger.With().Str("service", cfg.Name).Logger(),
	}
}

// Serve implements suture.Service.
func (s *JobService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("run_on_startup", s.config.RunOnStartup).
		Dur("interval", s.config.Interval).
		Msg("job service starting")

	if s.config.RunOnStartup {
		s.run(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("job service shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *JobService) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	err := s.job(runCtx)

	s.mu.Lock()
	s.stats.Runs++
	s.stats.LastRun = start
	s.stats.LastError = ""
	if err != nil {
		s.stats.Failures++
		s.stats.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn().Err(err).Dur("duration", time.Since(start)).Msg("job run failed")
		return
	}
	s.logger.Debug().Dur("duration", time.Since(start)).Msg("job run complete")
}

// Stats returns a snapshot of the run history.
func (s *JobService) Stats() JobStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// String implements fmt.Stringer.
func (s *JobService) String() string {
	return s.config.Name
}
