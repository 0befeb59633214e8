package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/kyobodev/fc-onboarding-backend/internal/config"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron        *cron.Cron
	reminderSvc *ReminderService
	rateLimit   *RateLimitService
	config      config.ReminderConfig
	logger      *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(reminderSvc *ReminderService, rateLimit *RateLimitService, cfg config.ReminderConfig, logger *logrus.Logger) *CronService {
	// Seconds precision so the reminder spec can pin an exact minute
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:        c,
		reminderSvc: reminderSvc,
		rateLimit:   rateLimit,
		config:      cfg,
		logger:      logger,
	}
}

// Start schedules all background jobs and starts the scheduler.
func (s *CronService) Start() error {
	// Job 1: deadline reminder sweep, daily right after the submission cutoff
	_, err := s.cron.AddFunc(s.config.CronSpec, s.reminderSweepJob)
	if err != nil {
		return fmt.Errorf("failed to schedule reminder sweep: %w", err)
	}
	s.logger.WithField("spec", s.config.CronSpec).Info("scheduled deadline reminder sweep")

	// Job 2: rate limit cleanup every hour
	_, err = s.cron.AddFunc("0 0 * * * *", s.rateLimitCleanupJob)
	if err != nil {
		return fmt.Errorf("failed to schedule rate limit cleanup: %w", err)
	}
	s.logger.Info("scheduled hourly rate limit cleanup")

	s.cron.Start()
	s.logger.Info("cron service started")

	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("cron service stopped")
}

// reminderSweepJob runs one deadline reminder pass.
func (s *CronService) reminderSweepJob() {
	startTime := time.Now()

	result, err := s.reminderSvc.Sweep()
	if err != nil {
		s.logger.WithError(err).Error("reminder sweep job failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"candidates": result.Candidates,
		"notified":   result.Notified,
		"duration":   time.Since(startTime).String(),
	}).Info("reminder sweep job finished")
}

// rateLimitCleanupJob drops expired rate limit rows.
func (s *CronService) rateLimitCleanupJob() {
	removed, err := s.rateLimit.CleanupExpiredRateLimits()
	if err != nil {
		s.logger.WithError(err).Error("rate limit cleanup job failed")
		return
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("cleaned up expired rate limit records")
	}
}

// RunReminderSweepNow runs the reminder sweep immediately. Exposed through
// the admin API for manual triggering.
func (s *CronService) RunReminderSweepNow() (SweepResult, error) {
	s.logger.Info("running reminder sweep manually")
	return s.reminderSvc.Sweep()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
