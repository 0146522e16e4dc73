package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"
	"go-placement-portal/pkg/auth"
	"go-placement-portal/pkg/email"
	"go-placement-portal/pkg/logger"
	"go-placement-portal/pkg/metrics"
	"go-placement-portal/pkg/security"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type jobInvitationUsecase struct {
	invRepo     domain.JobInvitationRepository
	jobRepo     domain.JobRepository
	accountRepo domain.AccountRepository
	studentRepo domain.StudentRepository
	tokens      *auth.TokenService
	hasher      *auth.PasswordHasher
	notifier    notifier
	baseURL     string
	ttl         time.Duration
	validate    *validator.Validate
}

func NewJobInvitationUsecase(
	invRepo domain.JobInvitationRepository,
	jobRepo domain.JobRepository,
	accountRepo domain.AccountRepository,
	studentRepo domain.StudentRepository,
	tokens *auth.TokenService,
	hasher *auth.PasswordHasher,
	mailer domain.Mailer,
	baseURL string,
	ttl time.Duration,
	validate *validator.Validate,
) domain.JobInvitationUsecase {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &jobInvitationUsecase{
		invRepo:     invRepo,
		jobRepo:     jobRepo,
		accountRepo: accountRepo,
		studentRepo: studentRepo,
		tokens:      tokens,
		hasher:      hasher,
		notifier:    notifier{mailer: mailer},
		baseURL:     baseURL,
		ttl:         ttl,
		validate:    validate,
	}
}

func (uc *jobInvitationUsecase) Invite(ctx context.Context, actor domain.Actor, jobID int64, req domain.InviteToJobRequest) ([]domain.JobInvitation, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	job, err := loadManagedJob(ctx, uc.jobRepo, actor, jobID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if !job.AcceptingApplications(now) {
		return nil, apperror.BadRequest("This job is no longer accepting applications")
	}

	seen := make(map[string]bool, len(req.Emails))
	var invitations []*domain.JobInvitation
	for _, raw := range req.Emails {
		addr := normalizeEmail(raw)
		if seen[addr] {
			continue
		}
		seen[addr] = true
		invitations = append(invitations, &domain.JobInvitation{
			JobID:     job.ID,
			Email:     addr,
			Token:     auth.NewOpaqueToken(),
			Status:    domain.InvitationStatusPending,
			InvitedBy: actor.UserID,
			ExpiresAt: now.Add(uc.ttl),
			CreatedAt: now,
		})
	}

	if err := uc.invRepo.CreateBatch(ctx, invitations); err != nil {
		return nil, apperror.Internal(err)
	}

	out := make([]domain.JobInvitation, 0, len(invitations))
	for _, inv := range invitations {
		uc.notifier.notify(ctx, inv.Email, "Invitation to apply: "+job.Title, email.TemplateJobInvitation, map[string]any{
			"Organization": job.Organization,
			"JobTitle":     job.Title,
			"Link":         uc.baseURL + "/job-invitations/" + inv.Token,
			"ExpiresAt":    formatTime(inv.ExpiresAt),
		})
		out = append(out, *inv)
	}
	return out, nil
}

// current loads the invitation and persists expiry when it has lapsed.
func (uc *jobInvitationUsecase) current(ctx context.Context, token string) (*domain.JobInvitation, string, error) {
	inv, err := uc.invRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, "", repoError(err, "Invitation not found")
	}
	status := inv.EffectiveStatus(time.Now().UTC())
	if status != inv.Status && status == domain.InvitationStatusExpired {
		if err := uc.invRepo.MarkExpired(ctx, inv.ID); err != nil {
			logger.Log.Warn("Failed to persist invitation expiry", "invitation_id", inv.ID, "error", err)
		}
		inv.Status = status
	}
	return inv, status, nil
}

func (uc *jobInvitationUsecase) Validate(ctx context.Context, token string) (*domain.JobInvitationView, error) {
	inv, status, err := uc.current(ctx, token)
	if err != nil {
		return nil, err
	}
	job, err := uc.jobRepo.GetByID(ctx, inv.JobID)
	if err != nil {
		return nil, repoError(err, "Job not found")
	}

	_, lookupErr := uc.accountRepo.GetByEmail(ctx, inv.Email)
	if lookupErr != nil && !errors.Is(lookupErr, domain.ErrNotFound) {
		return nil, apperror.Internal(lookupErr)
	}

	return &domain.JobInvitationView{
		Status:     status,
		Email:      inv.Email,
		ExpiresAt:  inv.ExpiresAt,
		Job:        job,
		HasAccount: lookupErr == nil,
	}, nil
}

// SignIn accepts the invitation: it signs in (or creates) the student and
// files the application in a single transaction.
func (uc *jobInvitationUsecase) SignIn(ctx context.Context, token string, req domain.InvitationSignInRequest, meta domain.RequestMeta) (*domain.InvitationSignInResult, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	inv, status, err := uc.current(ctx, token)
	if err != nil {
		return nil, err
	}
	switch status {
	case domain.InvitationStatusPending:
	case domain.InvitationStatusExpired:
		return nil, apperror.Gone("This invitation has expired")
	default:
		return nil, apperror.Conflict("This invitation has already been used")
	}

	addr := normalizeEmail(req.Email)
	if addr != normalizeEmail(inv.Email) {
		return nil, apperror.Forbidden("This invitation was sent to a different email address")
	}

	job, err := uc.jobRepo.GetByID(ctx, inv.JobID)
	if err != nil {
		return nil, repoError(err, "Job not found")
	}
	now := time.Now().UTC()
	if !job.AcceptingApplications(now) {
		return nil, apperror.BadRequest("This job is no longer accepting applications")
	}

	params := domain.AcceptInvitationParams{InvitationID: inv.ID, AcceptedAt: now}
	acc, err := uc.accountRepo.GetByEmail(ctx, addr)
	switch {
	case err == nil:
		if acc.Role != domain.RoleStudent {
			return nil, apperror.Forbidden("Only student accounts can accept job invitations")
		}
		if !acc.IsActive {
			return nil, apperror.Forbidden("Your account has been disabled")
		}
		if !uc.hasher.Verify(acc.PasswordHash, req.Password) {
			security.DefaultLogger().LogLoginFailed(ctx, addr, meta.IP, meta.RequestID, "invitation_sign_in")
			return nil, apperror.Unauthorized("Invalid email or password")
		}
	case errors.Is(err, domain.ErrNotFound):
		if strings.TrimSpace(req.FullName) == "" {
			return nil, apperror.BadRequest("Full name is required to create your account")
		}
		hash, err := uc.hasher.Hash(req.Password)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		// The emailed token proves ownership of the address.
		acc = &domain.Account{
			ID:            uuid.NewString(),
			Email:         addr,
			PasswordHash:  hash,
			Role:          domain.RoleStudent,
			FullName:      strings.TrimSpace(req.FullName),
			EmailVerified: true,
			IsApproved:    true,
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		params.NewAccount = acc
		params.NewProfile = &domain.StudentProfile{Skills: []string{}, UpdatedAt: now}
	default:
		return nil, apperror.Internal(err)
	}

	var resumeURL string
	if params.NewAccount == nil {
		if profile, err := uc.studentRepo.GetProfile(ctx, acc.ID); err == nil {
			resumeURL = profile.ResumeURL
		}
	}

	app := &domain.Application{
		JobID:       job.ID,
		StudentID:   acc.ID,
		ResumeURL:   resumeURL,
		CoverLetter: req.CoverLetter,
		Status:      domain.ApplicationStatusApplied,
		History: []domain.StatusChange{{
			Status:    domain.ApplicationStatusApplied,
			Note:      "Applied via invitation",
			ChangedBy: acc.ID,
			ChangedAt: now,
		}},
		CreatedAt:    now,
		UpdatedAt:    now,
		StudentName:  acc.FullName,
		StudentEmail: acc.Email,
		JobTitle:     job.Title,
		Organization: job.Organization,
	}
	params.Application = app

	if err := uc.invRepo.AcceptAndApply(ctx, params); err != nil {
		switch {
		case errors.Is(err, domain.ErrStateChanged):
			return nil, apperror.Conflict("This invitation has already been used")
		case errors.Is(err, domain.ErrEmailTaken):
			return nil, apperror.Conflict("An account with this email already exists. Sign in again with its password")
		case errors.Is(err, domain.ErrConflict):
			return nil, apperror.Conflict("You have already applied to this job")
		default:
			return nil, apperror.Internal(err)
		}
	}

	session, err := issueSession(uc.tokens, acc)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if err := uc.accountRepo.TouchLastLogin(ctx, acc.ID, now); err != nil {
		logger.Log.Warn("Failed to record last login", "account_id", acc.ID, "error", err)
	}
	metrics.RecordEvent(metrics.EventJobInvitationSignIn, 1)

	return &domain.InvitationSignInResult{
		Session:     session,
		Application: app,
		Created:     params.NewAccount != nil,
	}, nil
}

func (uc *jobInvitationUsecase) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	n, err := uc.invRepo.ExpireStale(ctx, now)
	if err != nil {
		return 0, err
	}
	metrics.RecordEvent(metrics.EventInvitationsExpired, int(n))
	return n, nil
}
