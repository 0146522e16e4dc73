package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"
	"go-placement-portal/pkg/email"
	"go-placement-portal/pkg/logger"
	"go-placement-portal/pkg/metrics"
	"go-placement-portal/pkg/security"
	"go-placement-portal/pkg/validation"
)

const dateTimeLayout = "02 Jan 2006, 15:04 MST"

// notifier renders and sends best-effort emails. A failed send is logged
// and counted; callers never see it.
type notifier struct {
	mailer domain.Mailer
}

func (n notifier) notify(ctx context.Context, to, subject, tmpl string, data map[string]any) bool {
	if n.mailer == nil || to == "" {
		return false
	}
	body, err := email.Render(tmpl, data)
	if err == nil {
		err = n.mailer.Send(ctx, email.Message{To: []string{to}, Subject: subject, HTMLBody: body})
	}
	metrics.RecordNotification(tmpl, err)
	if err != nil {
		logger.Log.Warn("Notification not delivered",
			"template", tmpl,
			"to", security.MaskEmail(to),
			"error", err,
		)
		return false
	}
	return true
}

func validationError(err error) error {
	return apperror.New(http.StatusBadRequest, validation.Summary(err), err)
}

// repoError maps repository sentinels to API errors.
func repoError(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return apperror.NotFound(notFoundMsg)
	case errors.Is(err, domain.ErrConflict):
		return apperror.Conflict("Resource already exists")
	default:
		return apperror.Internal(err)
	}
}

// applicationWriteError maps a failed AppendStatus.
func applicationWriteError(err error) error {
	if errors.Is(err, domain.ErrStateChanged) {
		return apperror.Conflict("Application was already closed by another request")
	}
	return repoError(err, "Application not found")
}

// loadManagedJob fetches a job and checks the actor may manage it.
func loadManagedJob(ctx context.Context, jobs domain.JobRepository, actor domain.Actor, id int64) (*domain.Job, error) {
	job, err := jobs.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Job not found")
	}
	if !actor.CanManage(job.Organization) {
		return nil, apperror.Forbidden("You can only manage jobs of your own organization")
	}
	return job, nil
}

// organizationFor resolves which organization a new record belongs to.
func organizationFor(actor domain.Actor, requested string) (string, error) {
	if actor.IsAdmin() {
		org := strings.TrimSpace(requested)
		if org == "" {
			org = actor.Organization
		}
		if org == "" {
			return "", apperror.BadRequest("Organization is required")
		}
		return org, nil
	}
	if !actor.IsEmployee() || actor.Organization == "" {
		return "", apperror.Forbidden("Only employees of an organization can do this")
	}
	return actor.Organization, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(dateTimeLayout)
}
