package domain

import (
	"context"
	"time"
)

const (
	ApplicationStatusApplied            = "applied"
	ApplicationStatusShortlisted        = "shortlisted"
	ApplicationStatusInterviewScheduled = "interview_scheduled"
	ApplicationStatusSelected           = "selected"
	ApplicationStatusRejected           = "rejected"
	ApplicationStatusWithdrawn          = "withdrawn"
)

// TerminalApplicationStatuses accept no further changes.
var TerminalApplicationStatuses = []string{
	ApplicationStatusSelected,
	ApplicationStatusRejected,
	ApplicationStatusWithdrawn,
}

// IsTerminalApplicationStatus reports statuses that accept no further changes.
func IsTerminalApplicationStatus(status string) bool {
	for _, s := range TerminalApplicationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// StatusChange is one entry of an application's append-only history.
type StatusChange struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

type Application struct {
	ID          int64          `json:"id"`
	JobID       int64          `json:"job_id"`
	StudentID   string         `json:"student_id"`
	ResumeURL   string         `json:"resume_url"`
	CoverLetter string         `json:"cover_letter,omitempty"`
	Status      string         `json:"status"`
	History     []StatusChange `json:"history"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Joined data for list responses
	StudentName  string `json:"student_name,omitempty"`
	StudentEmail string `json:"student_email,omitempty"`
	JobTitle     string `json:"job_title,omitempty"`
	Organization string `json:"organization,omitempty"`
}

type ApplyRequest struct {
	CoverLetter string `json:"cover_letter" validate:"max=5000"`
}

type UpdateApplicationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=shortlisted selected rejected"`
	Note   string `json:"note" validate:"max=1000"`
}

type ApplicationRepository interface {
	// Create fails with ErrConflict when (job, student) already exists.
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id int64) (*Application, error)
	ListByJob(ctx context.Context, jobID int64, status string) ([]Application, error)
	ListByStudent(ctx context.Context, studentID string) ([]Application, error)
	// AppendStatus sets status and appends change to history in one statement.
	// It fails with ErrStateChanged when the application is already terminal.
	AppendStatus(ctx context.Context, id int64, change StatusChange) error
}

type ApplicationUsecase interface {
	Apply(ctx context.Context, studentID string, jobID int64, req ApplyRequest) (*Application, error)
	ListForJob(ctx context.Context, actor Actor, jobID int64, status string) ([]Application, error)
	UpdateStatus(ctx context.Context, actor Actor, applicationID int64, req UpdateApplicationStatusRequest) (*Application, error)
	Withdraw(ctx context.Context, studentID string, applicationID int64) (*Application, error)
	ExportForJob(ctx context.Context, actor Actor, jobID int64, status string) ([]byte, string, error)
}
