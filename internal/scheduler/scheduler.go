// Package scheduler runs the periodic maintenance jobs: sweeping expired
// invitations and sending interview reminders.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-placement-portal/pkg/logger"
	"go-placement-portal/pkg/metrics"

	"github.com/robfig/cron/v3"
)

const (
	JobExpireInvitations  = "expire_invitations"
	JobInterviewReminders = "interview_reminders"
)

type AssessmentExpirer interface {
	ExpireStaleInvitations(ctx context.Context, now time.Time) (int64, error)
}

type JobInvitationExpirer interface {
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type ReminderSender interface {
	SendDueReminders(ctx context.Context, now time.Time) (int, error)
}

type Config struct {
	InvitationExpirySpec  string
	InterviewReminderSpec string
	// JobTimeout bounds a single run. Defaults to one minute.
	JobTimeout time.Duration
}

type Scheduler struct {
	cron        *cron.Cron
	assessments AssessmentExpirer
	jobInvites  JobInvitationExpirer
	reminders   ReminderSender
	timeout     time.Duration
	now         func() time.Time
}

func New(cfg Config, assessments AssessmentExpirer, jobInvites JobInvitationExpirer, reminders ReminderSender) (*Scheduler, error) {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = time.Minute
	}
	log := cronLogger{}
	s := &Scheduler{
		cron:        cron.New(cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log))),
		assessments: assessments,
		jobInvites:  jobInvites,
		reminders:   reminders,
		timeout:     cfg.JobTimeout,
		now:         time.Now,
	}

	if _, err := s.cron.AddFunc(cfg.InvitationExpirySpec, func() { s.run(JobExpireInvitations, s.ExpireInvitations) }); err != nil {
		return nil, fmt.Errorf("invalid invitation expiry schedule %q: %w", cfg.InvitationExpirySpec, err)
	}
	if _, err := s.cron.AddFunc(cfg.InterviewReminderSpec, func() { s.run(JobInterviewReminders, s.SendInterviewReminders) }); err != nil {
		return nil, fmt.Errorf("invalid interview reminder schedule %q: %w", cfg.InterviewReminderSpec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Log.Info("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		logger.Log.Info("Scheduler stopped")
	case <-ctx.Done():
		logger.Log.Warn("Scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) run(name string, job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := job(ctx)
	metrics.RecordSchedulerRun(name, time.Since(start), err == nil)
	if err != nil {
		logger.Log.Error("Scheduled job failed", "job", name, "error", err)
	}
}

// ExpireInvitations marks past-due Pending assessment and job invitations
// Expired. Both sweeps run even if the first fails.
func (s *Scheduler) ExpireInvitations(ctx context.Context) error {
	now := s.now()

	assessments, errA := s.assessments.ExpireStaleInvitations(ctx, now)
	jobs, errJ := s.jobInvites.ExpireStale(ctx, now)

	if assessments+jobs > 0 {
		logger.Log.Info("Expired stale invitations", "assessment", assessments, "job", jobs)
	}
	return errors.Join(errA, errJ)
}

func (s *Scheduler) SendInterviewReminders(ctx context.Context) error {
	sent, err := s.reminders.SendDueReminders(ctx, s.now())
	if sent > 0 {
		logger.Log.Info("Interview reminders sent", "count", sent)
	}
	return err
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Log.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
