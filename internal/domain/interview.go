package domain

import (
	"context"
	"time"
)

const (
	InterviewStatusScheduled = "scheduled"
	InterviewStatusCompleted = "completed"
	InterviewStatusCancelled = "cancelled"

	InterviewModeOnline = "online"
	InterviewModeOnsite = "onsite"
)

type Interview struct {
	ID              int64     `json:"id"`
	ApplicationID   int64     `json:"application_id"`
	JobID           int64     `json:"job_id"`
	StudentID       string    `json:"student_id"`
	ScheduledBy     string    `json:"scheduled_by"`
	Round           int       `json:"round"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Mode            string    `json:"mode"`
	Location        string    `json:"location"`
	Status          string    `json:"status"`
	Feedback        string    `json:"feedback,omitempty"`
	ReminderSent    bool      `json:"reminder_sent"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	StudentName  string `json:"student_name,omitempty"`
	StudentEmail string `json:"student_email,omitempty"`
	JobTitle     string `json:"job_title,omitempty"`
	Organization string `json:"organization,omitempty"`
}

type ScheduleInterviewRequest struct {
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,min=10,max=480"`
	Mode            string    `json:"mode" validate:"required,oneof=online onsite"`
	Location        string    `json:"location" validate:"max=500"`
	Round           int       `json:"round" validate:"omitempty,min=1,max=20"`
}

// UpdateInterviewRequest reschedules when ScheduledAt is set, or moves the
// interview to Status with optional Feedback.
type UpdateInterviewRequest struct {
	ScheduledAt     *time.Time `json:"scheduled_at"`
	DurationMinutes int        `json:"duration_minutes" validate:"omitempty,min=10,max=480"`
	Location        *string    `json:"location" validate:"omitempty,max=500"`
	Status          string     `json:"status" validate:"omitempty,oneof=scheduled completed cancelled"`
	Feedback        string     `json:"feedback" validate:"max=5000"`
}

type InterviewRepository interface {
	Create(ctx context.Context, iv *Interview) error
	GetByID(ctx context.Context, id int64) (*Interview, error)
	Update(ctx context.Context, iv *Interview) error
	ListByJob(ctx context.Context, jobID int64) ([]Interview, error)
	ListByStudent(ctx context.Context, studentID string) ([]Interview, error)
	ListDueReminders(ctx context.Context, from, to time.Time) ([]Interview, error)
	// MarkReminderSent returns false when another run already claimed it.
	MarkReminderSent(ctx context.Context, id int64) (bool, error)
}

type InterviewUsecase interface {
	Schedule(ctx context.Context, actor Actor, applicationID int64, req ScheduleInterviewRequest) (*Interview, error)
	Update(ctx context.Context, actor Actor, id int64, req UpdateInterviewRequest) (*Interview, error)
	ListForJob(ctx context.Context, actor Actor, jobID int64) ([]Interview, error)
	SendDueReminders(ctx context.Context, now time.Time) (int, error)
}
