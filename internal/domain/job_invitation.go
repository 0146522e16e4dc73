package domain

import (
	"context"
	"time"
)

const (
	InvitationStatusPending   = "Pending"
	InvitationStatusAccepted  = "Accepted"
	InvitationStatusStarted   = "Started"
	InvitationStatusCompleted = "Completed"
	InvitationStatusExpired   = "Expired"
)

type JobInvitation struct {
	ID         int64      `json:"id"`
	JobID      int64      `json:"job_id"`
	Email      string     `json:"email"`
	Token      string     `json:"-"`
	Status     string     `json:"status"`
	InvitedBy  string     `json:"invited_by"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// EffectiveStatus evaluates expiry against now without touching storage.
func (i *JobInvitation) EffectiveStatus(now time.Time) string {
	if i.Status == InvitationStatusPending && !now.Before(i.ExpiresAt) {
		return InvitationStatusExpired
	}
	return i.Status
}

type JobInvitationView struct {
	Status    string    `json:"status"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	Job       *Job      `json:"job"`
	// HasAccount tells the client whether to ask for a name (new account) or just a password.
	HasAccount bool `json:"has_account"`
}

type InviteToJobRequest struct {
	Emails []string `json:"emails" validate:"required,min=1,max=200,dive,email"`
}

type InvitationSignInRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	FullName    string `json:"full_name" validate:"omitempty,min=2,max=100,valid_name,no_emoji"`
	CoverLetter string `json:"cover_letter" validate:"max=5000"`
}

type InvitationSignInResult struct {
	Session     *Session     `json:"session"`
	Application *Application `json:"application"`
	Created     bool         `json:"account_created"`
}

// AcceptInvitationParams is the unit of work for the transactional sign-in.
// NewAccount is nil when the student already exists.
type AcceptInvitationParams struct {
	InvitationID int64
	NewAccount   *Account
	NewProfile   *StudentProfile
	Application  *Application
	AcceptedAt   time.Time
}

type JobInvitationRepository interface {
	CreateBatch(ctx context.Context, invitations []*JobInvitation) error
	GetByToken(ctx context.Context, token string) (*JobInvitation, error)
	MarkExpired(ctx context.Context, id int64) error
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
	// AcceptAndApply creates the account (if new), the application, bumps the
	// applicant counter and marks the invitation accepted in one transaction.
	AcceptAndApply(ctx context.Context, p AcceptInvitationParams) error
}

type JobInvitationUsecase interface {
	Invite(ctx context.Context, actor Actor, jobID int64, req InviteToJobRequest) ([]JobInvitation, error)
	Validate(ctx context.Context, token string) (*JobInvitationView, error)
	SignIn(ctx context.Context, token string, req InvitationSignInRequest, meta RequestMeta) (*InvitationSignInResult, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}
