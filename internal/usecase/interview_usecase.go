package usecase

import (
	"context"
	"fmt"
	"time"

	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"
	"go-placement-portal/pkg/email"
	"go-placement-portal/pkg/logger"
	"go-placement-portal/pkg/metrics"

	"github.com/go-playground/validator/v10"
)

const defaultInterviewMinutes = 30

type interviewUsecase struct {
	interviewRepo  domain.InterviewRepository
	appRepo        domain.ApplicationRepository
	jobRepo        domain.JobRepository
	notifier       notifier
	reminderWindow time.Duration
	validate       *validator.Validate
}

func NewInterviewUsecase(
	interviewRepo domain.InterviewRepository,
	appRepo domain.ApplicationRepository,
	jobRepo domain.JobRepository,
	mailer domain.Mailer,
	reminderWindow time.Duration,
	validate *validator.Validate,
) domain.InterviewUsecase {
	if reminderWindow <= 0 {
		reminderWindow = 24 * time.Hour
	}
	return &interviewUsecase{
		interviewRepo:  interviewRepo,
		appRepo:        appRepo,
		jobRepo:        jobRepo,
		notifier:       notifier{mailer: mailer},
		reminderWindow: reminderWindow,
		validate:       validate,
	}
}

func (uc *interviewUsecase) Schedule(ctx context.Context, actor domain.Actor, applicationID int64, req domain.ScheduleInterviewRequest) (*domain.Interview, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	now := time.Now().UTC()
	if !req.ScheduledAt.After(now) {
		return nil, apperror.BadRequest("Interview must be scheduled in the future")
	}

	app, err := uc.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, repoError(err, "Application not found")
	}
	if _, err := loadManagedJob(ctx, uc.jobRepo, actor, app.JobID); err != nil {
		return nil, err
	}
	if domain.IsTerminalApplicationStatus(app.Status) {
		return nil, apperror.BadRequest(fmt.Sprintf("Cannot schedule an interview for an application that is %s", app.Status))
	}

	iv := &domain.Interview{
		ApplicationID:   app.ID,
		JobID:           app.JobID,
		StudentID:       app.StudentID,
		ScheduledBy:     actor.UserID,
		Round:           req.Round,
		ScheduledAt:     req.ScheduledAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		Mode:            req.Mode,
		Location:        req.Location,
		Status:          domain.InterviewStatusScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
		StudentName:     app.StudentName,
		StudentEmail:    app.StudentEmail,
		JobTitle:        app.JobTitle,
		Organization:    app.Organization,
	}
	if iv.Round == 0 {
		iv.Round = 1
	}
	if iv.DurationMinutes == 0 {
		iv.DurationMinutes = defaultInterviewMinutes
	}

	err = uc.appRepo.AppendStatus(ctx, app.ID, domain.StatusChange{
		Status:    domain.ApplicationStatusInterviewScheduled,
		Note:      fmt.Sprintf("Round %d scheduled", iv.Round),
		ChangedBy: actor.UserID,
		ChangedAt: now,
	})
	if err != nil {
		return nil, applicationWriteError(err)
	}
	if err := uc.interviewRepo.Create(ctx, iv); err != nil {
		return nil, apperror.Internal(err)
	}
	if err := uc.jobRepo.IncrementInterviews(ctx, app.JobID, 1); err != nil {
		logger.Log.Error("Failed to increment interview count", "job_id", app.JobID, "error", err)
	}
	metrics.RecordEvent(metrics.EventInterviewScheduled, 1)

	uc.notifyScheduled(ctx, iv)
	return iv, nil
}

func (uc *interviewUsecase) notifyScheduled(ctx context.Context, iv *domain.Interview) {
	uc.notifier.notify(ctx, iv.StudentEmail, "Interview scheduled: "+iv.JobTitle, email.TemplateInterviewScheduled, map[string]any{
		"Name":        iv.StudentName,
		"JobTitle":    iv.JobTitle,
		"Round":       iv.Round,
		"ScheduledAt": formatTime(iv.ScheduledAt),
		"Duration":    iv.DurationMinutes,
		"Mode":        iv.Mode,
		"Location":    iv.Location,
	})
}

func (uc *interviewUsecase) Update(ctx context.Context, actor domain.Actor, id int64, req domain.UpdateInterviewRequest) (*domain.Interview, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	iv, err := uc.interviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Interview not found")
	}
	if _, err := loadManagedJob(ctx, uc.jobRepo, actor, iv.JobID); err != nil {
		return nil, err
	}
	if iv.Status != domain.InterviewStatusScheduled {
		return nil, apperror.BadRequest(fmt.Sprintf("Interview is already %s", iv.Status))
	}

	now := time.Now().UTC()
	rescheduled := false
	if req.ScheduledAt != nil {
		if !req.ScheduledAt.After(now) {
			return nil, apperror.BadRequest("Interview must be scheduled in the future")
		}
		iv.ScheduledAt = req.ScheduledAt.UTC()
		iv.ReminderSent = false
		rescheduled = true
	}
	if req.DurationMinutes != 0 {
		iv.DurationMinutes = req.DurationMinutes
	}
	if req.Location != nil {
		iv.Location = *req.Location
	}
	if req.Status != "" {
		iv.Status = req.Status
	}
	if req.Feedback != "" {
		iv.Feedback = req.Feedback
	}
	iv.UpdatedAt = now

	if err := uc.interviewRepo.Update(ctx, iv); err != nil {
		return nil, repoError(err, "Interview not found")
	}
	if rescheduled && iv.Status == domain.InterviewStatusScheduled {
		uc.notifyScheduled(ctx, iv)
	}
	return iv, nil
}

func (uc *interviewUsecase) ListForJob(ctx context.Context, actor domain.Actor, jobID int64) ([]domain.Interview, error) {
	if _, err := loadManagedJob(ctx, uc.jobRepo, actor, jobID); err != nil {
		return nil, err
	}
	interviews, err := uc.interviewRepo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if interviews == nil {
		interviews = []domain.Interview{}
	}
	return interviews, nil
}

// SendDueReminders emails students whose interview starts within the
// reminder window. Each interview is claimed before sending.
func (uc *interviewUsecase) SendDueReminders(ctx context.Context, now time.Time) (int, error) {
	due, err := uc.interviewRepo.ListDueReminders(ctx, now, now.Add(uc.reminderWindow))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, iv := range due {
		claimed, err := uc.interviewRepo.MarkReminderSent(ctx, iv.ID)
		if err != nil {
			logger.Log.Error("Failed to claim interview reminder", "interview_id", iv.ID, "error", err)
			continue
		}
		if !claimed {
			continue
		}
		if uc.notifier.notify(ctx, iv.StudentEmail, "Reminder: interview for "+iv.JobTitle, email.TemplateInterviewReminder, map[string]any{
			"Name":        iv.StudentName,
			"JobTitle":    iv.JobTitle,
			"ScheduledAt": formatTime(iv.ScheduledAt),
			"Location":    iv.Location,
		}) {
			sent++
		}
	}
	return sent, nil
}
