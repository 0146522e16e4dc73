package domain

import (
	"context"
	"time"
)

const (
	JobStatusOpen   = "open"
	JobStatusClosed = "closed"
)

type Job struct {
	ID             int64      `json:"id"`
	Organization   string     `json:"organization"`
	PostedBy       string     `json:"posted_by"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Location       string     `json:"location"`
	EmploymentType string     `json:"employment_type"`
	SalaryMin      float64    `json:"salary_min"`
	SalaryMax      float64    `json:"salary_max"`
	Skills         []string   `json:"skills"`
	Status         string     `json:"status"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	ApplicantCount int        `json:"applicant_count"`
	InterviewCount int        `json:"interview_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// AcceptingApplications is true for open jobs whose deadline has not passed.
func (j *Job) AcceptingApplications(now time.Time) bool {
	if j.Status != JobStatusOpen {
		return false
	}
	return j.Deadline == nil || now.Before(*j.Deadline)
}

type JobInput struct {
	Title          string     `json:"title" validate:"required,min=3,max=150,no_emoji"`
	Description    string     `json:"description" validate:"required,min=10,max=10000"`
	Location       string     `json:"location" validate:"required,max=150"`
	EmploymentType string     `json:"employment_type" validate:"omitempty,oneof=full_time part_time internship contract"`
	SalaryMin      float64    `json:"salary_min" validate:"gte=0"`
	SalaryMax      float64    `json:"salary_max" validate:"gte=0,gtefield=SalaryMin"`
	Skills         []string   `json:"skills" validate:"max=30,dive,min=1,max=50"`
	Deadline       *time.Time `json:"deadline"`
	// Admins may post on behalf of an organization
	Organization string `json:"organization" validate:"max=150"`
}

type JobFilter struct {
	Query        string
	Status       string
	Organization string
	Page         int
	PageSize     int
}

type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id int64) (*Job, error)
	Update(ctx context.Context, job *Job) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter JobFilter) ([]Job, int64, error)
	// Counters are adjusted with a single UPDATE ... SET n = n + delta.
	IncrementApplicants(ctx context.Context, id int64, delta int) error
	IncrementInterviews(ctx context.Context, id int64, delta int) error
}

type JobUsecase interface {
	Create(ctx context.Context, actor Actor, input JobInput) (*Job, error)
	Update(ctx context.Context, actor Actor, id int64, input JobInput) (*Job, error)
	UpdateStatus(ctx context.Context, actor Actor, id int64, status string) (*Job, error)
	Delete(ctx context.Context, actor Actor, id int64) error
	Get(ctx context.Context, id int64) (*Job, error)
	ListOpen(ctx context.Context, query string, page, pageSize int) (*PaginatedResult[Job], error)
	ListManaged(ctx context.Context, actor Actor, page, pageSize int) (*PaginatedResult[Job], error)
}
