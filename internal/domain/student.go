package domain

import (
	"context"
	"time"
)

type StudentProfile struct {
	AccountID      string    `json:"account_id"`
	RollNumber     string    `json:"roll_number"`
	College        string    `json:"college"`
	Branch         string    `json:"branch"`
	GraduationYear int       `json:"graduation_year,omitempty"`
	CGPA           float64   `json:"cgpa,omitempty"`
	Skills         []string  `json:"skills"`
	ResumeURL      string    `json:"resume_url,omitempty"`
	ResumePublicID string    `json:"-"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StudentView combines the account with its profile for the student portal.
type StudentView struct {
	Account *Account        `json:"account"`
	Profile *StudentProfile `json:"profile"`
}

type UpdateStudentProfileRequest struct {
	FullName       string   `json:"full_name" validate:"omitempty,min=2,max=100,valid_name,no_emoji"`
	Phone          string   `json:"phone" validate:"omitempty,valid_phone"`
	RollNumber     string   `json:"roll_number" validate:"max=50"`
	College        string   `json:"college" validate:"max=150"`
	Branch         string   `json:"branch" validate:"max=100"`
	GraduationYear int      `json:"graduation_year" validate:"omitempty,gte=1980,max_current_year=6"`
	CGPA           float64  `json:"cgpa" validate:"gte=0,lte=10"`
	Skills         []string `json:"skills" validate:"max=50,dive,min=1,max=50"`
}

// StudentExportRow is one line of the admin student export.
type StudentExportRow struct {
	Account
	Profile          StudentProfile
	ApplicationCount int
}

type StudentRepository interface {
	GetProfile(ctx context.Context, accountID string) (*StudentProfile, error)
	UpsertProfile(ctx context.Context, p *StudentProfile) error
	UpdateContact(ctx context.Context, accountID, fullName, phone string) error
	UpdateResume(ctx context.Context, accountID, url, publicID string) error
	ListForExport(ctx context.Context) ([]StudentExportRow, error)
}

type StudentUsecase interface {
	GetProfile(ctx context.Context, studentID string) (*StudentView, error)
	UpdateProfile(ctx context.Context, studentID string, req UpdateStudentProfileRequest) (*StudentView, error)
	UploadResume(ctx context.Context, studentID string, file UploadedFile) (*StudentProfile, error)
	ListApplications(ctx context.Context, studentID string) ([]Application, error)
	ListInterviews(ctx context.Context, studentID string) ([]Interview, error)
}
