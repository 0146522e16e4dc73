package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"
	"go-placement-portal/pkg/email"
	"go-placement-portal/pkg/excel"
	"go-placement-portal/pkg/logger"
	"go-placement-portal/pkg/metrics"
	"go-placement-portal/pkg/security"

	"github.com/go-playground/validator/v10"
)

type applicationUsecase struct {
	appRepo     domain.ApplicationRepository
	jobRepo     domain.JobRepository
	studentRepo domain.StudentRepository
	notifier    notifier
	validate    *validator.Validate
}

func NewApplicationUsecase(
	appRepo domain.ApplicationRepository,
	jobRepo domain.JobRepository,
	studentRepo domain.StudentRepository,
	mailer domain.Mailer,
	validate *validator.Validate,
) domain.ApplicationUsecase {
	return &applicationUsecase{
		appRepo:     appRepo,
		jobRepo:     jobRepo,
		studentRepo: studentRepo,
		notifier:    notifier{mailer: mailer},
		validate:    validate,
	}
}

// Apply creates an application using the student's stored resume.
func (uc *applicationUsecase) Apply(ctx context.Context, studentID string, jobID int64, req domain.ApplyRequest) (*domain.Application, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	job, err := uc.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, repoError(err, "Job not found")
	}
	now := time.Now().UTC()
	if !job.AcceptingApplications(now) {
		return nil, apperror.BadRequest("This job is no longer accepting applications")
	}

	profile, err := uc.studentRepo.GetProfile(ctx, studentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.Internal(err)
	}
	if profile == nil || profile.ResumeURL == "" {
		return nil, apperror.BadRequest("Upload your resume before applying")
	}

	app := &domain.Application{
		JobID:       jobID,
		StudentID:   studentID,
		ResumeURL:   profile.ResumeURL,
		CoverLetter: req.CoverLetter,
		Status:      domain.ApplicationStatusApplied,
		History: []domain.StatusChange{{
			Status:    domain.ApplicationStatusApplied,
			ChangedBy: studentID,
			ChangedAt: now,
		}},
		CreatedAt:    now,
		UpdatedAt:    now,
		JobTitle:     job.Title,
		Organization: job.Organization,
	}
	if err := uc.appRepo.Create(ctx, app); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, apperror.Conflict("You have already applied to this job")
		}
		return nil, apperror.Internal(err)
	}

	if err := uc.jobRepo.IncrementApplicants(ctx, jobID, 1); err != nil {
		logger.Log.Error("Failed to increment applicant count", "job_id", jobID, "error", err)
	}
	metrics.RecordEvent(metrics.EventApplicationCreated, 1)
	return app, nil
}

func (uc *applicationUsecase) ListForJob(ctx context.Context, actor domain.Actor, jobID int64, status string) ([]domain.Application, error) {
	if _, err := loadManagedJob(ctx, uc.jobRepo, actor, jobID); err != nil {
		return nil, err
	}
	apps, err := uc.appRepo.ListByJob(ctx, jobID, status)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if apps == nil {
		apps = []domain.Application{}
	}
	return apps, nil
}

func (uc *applicationUsecase) UpdateStatus(ctx context.Context, actor domain.Actor, applicationID int64, req domain.UpdateApplicationStatusRequest) (*domain.Application, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	app, err := uc.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, repoError(err, "Application not found")
	}
	if _, err := loadManagedJob(ctx, uc.jobRepo, actor, app.JobID); err != nil {
		return nil, err
	}
	if domain.IsTerminalApplicationStatus(app.Status) {
		return nil, apperror.BadRequest(fmt.Sprintf("Application is already %s", app.Status))
	}

	change := domain.StatusChange{
		Status:    req.Status,
		Note:      req.Note,
		ChangedBy: actor.UserID,
		ChangedAt: time.Now().UTC(),
	}
	if err := uc.appRepo.AppendStatus(ctx, app.ID, change); err != nil {
		return nil, applicationWriteError(err)
	}
	app.Status = change.Status
	app.History = append(app.History, change)
	app.UpdatedAt = change.ChangedAt
	metrics.RecordEvent(metrics.EventApplicationStatus, 1)

	uc.notifier.notify(ctx, app.StudentEmail, "Update on your application for "+app.JobTitle, email.TemplateApplicationStatus, map[string]any{
		"Name":         app.StudentName,
		"JobTitle":     app.JobTitle,
		"Organization": app.Organization,
		"Status":       humanizeStatus(app.Status),
		"Note":         req.Note,
	})
	return app, nil
}

func (uc *applicationUsecase) Withdraw(ctx context.Context, studentID string, applicationID int64) (*domain.Application, error) {
	app, err := uc.appRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, repoError(err, "Application not found")
	}
	if app.StudentID != studentID {
		return nil, apperror.Forbidden("You can only withdraw your own applications")
	}
	if domain.IsTerminalApplicationStatus(app.Status) {
		return nil, apperror.BadRequest(fmt.Sprintf("Application is already %s", app.Status))
	}

	change := domain.StatusChange{
		Status:    domain.ApplicationStatusWithdrawn,
		ChangedBy: studentID,
		ChangedAt: time.Now().UTC(),
	}
	if err := uc.appRepo.AppendStatus(ctx, app.ID, change); err != nil {
		return nil, applicationWriteError(err)
	}
	if err := uc.jobRepo.IncrementApplicants(ctx, app.JobID, -1); err != nil {
		logger.Log.Error("Failed to decrement applicant count", "job_id", app.JobID, "error", err)
	}

	app.Status = change.Status
	app.History = append(app.History, change)
	app.UpdatedAt = change.ChangedAt
	return app, nil
}

var applicationExportHeaders = []string{"Name", "Email", "Status", "Applied At", "Resume URL", "Cover Letter"}

func (uc *applicationUsecase) ExportForJob(ctx context.Context, actor domain.Actor, jobID int64, status string) ([]byte, string, error) {
	job, err := loadManagedJob(ctx, uc.jobRepo, actor, jobID)
	if err != nil {
		return nil, "", err
	}
	apps, err := uc.appRepo.ListByJob(ctx, jobID, status)
	if err != nil {
		return nil, "", apperror.Internal(err)
	}

	rows := make([][]any, 0, len(apps))
	for _, a := range apps {
		rows = append(rows, []any{
			a.StudentName, a.StudentEmail, humanizeStatus(a.Status), formatTime(a.CreatedAt), a.ResumeURL, a.CoverLetter,
		})
	}
	data, err := excel.Write("Applications", applicationExportHeaders, rows)
	if err != nil {
		return nil, "", apperror.Internal(err)
	}

	security.DefaultLogger().Log(ctx, security.SecurityEvent{
		Event:        security.EventDataExport,
		SubjectType:  "user_id",
		SubjectValue: actor.UserID,
		Details:      map[string]any{"export": "applications", "job_id": job.ID, "rows": len(rows)},
	})
	return data, fmt.Sprintf("applications-job-%d.xlsx", job.ID), nil
}

func humanizeStatus(status string) string {
	s := strings.ReplaceAll(status, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
