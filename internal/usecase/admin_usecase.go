package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"
	"go-placement-portal/pkg/excel"
	"go-placement-portal/pkg/security"

	"golang.org/x/sync/errgroup"
)

type adminUsecase struct {
	adminRepo   domain.AdminRepository
	accountRepo domain.AccountRepository
	studentRepo domain.StudentRepository
	auditLog    domain.AuditLog

	// Dashboard stats are cached briefly
	statsCache    *domain.AdminStats
	statsCacheAt  time.Time
	statsCacheTTL time.Duration
	statsMutex    sync.RWMutex
}

func NewAdminUsecase(
	adminRepo domain.AdminRepository,
	accountRepo domain.AccountRepository,
	studentRepo domain.StudentRepository,
	auditLog domain.AuditLog,
) domain.AdminUsecase {
	return &adminUsecase{
		adminRepo:     adminRepo,
		accountRepo:   accountRepo,
		studentRepo:   studentRepo,
		auditLog:      auditLog,
		statsCacheTTL: time.Minute,
	}
}

func (uc *adminUsecase) Stats(ctx context.Context) (*domain.AdminStats, error) {
	uc.statsMutex.RLock()
	if uc.statsCache != nil && time.Since(uc.statsCacheAt) < uc.statsCacheTTL {
		stats := uc.statsCache
		uc.statsMutex.RUnlock()
		return stats, nil
	}
	uc.statsMutex.RUnlock()

	stats, err := uc.computeStats(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	uc.statsMutex.Lock()
	uc.statsCache = stats
	uc.statsCacheAt = time.Now()
	uc.statsMutex.Unlock()
	return stats, nil
}

// computeStats runs the dashboard aggregates concurrently.
func (uc *adminUsecase) computeStats(ctx context.Context) (*domain.AdminStats, error) {
	var stats domain.AdminStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s, err := uc.adminRepo.AccountStats(gctx)
		if err == nil {
			stats.Accounts = *s
		}
		return err
	})
	g.Go(func() error {
		s, err := uc.adminRepo.JobStats(gctx)
		if err == nil {
			stats.Jobs = *s
		}
		return err
	})
	g.Go(func() (err error) {
		stats.Applications, err = uc.adminRepo.ApplicationsByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Interviews, err = uc.adminRepo.UpcomingInterviews(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.AssessmentTests, err = uc.adminRepo.AssessmentTestCount(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Invitations, err = uc.adminRepo.InvitationsByStatus(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (uc *adminUsecase) ListAccounts(ctx context.Context, filter domain.AccountFilter) (*domain.PaginatedResult[domain.Account], error) {
	filter.Page, filter.PageSize = domain.NormalizePage(filter.Page, filter.PageSize)
	accounts, total, err := uc.accountRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return domain.NewPaginatedResult(accounts, total, filter.Page, filter.PageSize), nil
}

func (uc *adminUsecase) SetApproved(ctx context.Context, actor domain.Actor, id string, approved bool) (*domain.Account, error) {
	acc, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Account not found")
	}
	if err := uc.accountRepo.SetApproved(ctx, id, approved); err != nil {
		return nil, repoError(err, "Account not found")
	}
	acc.IsApproved = approved

	security.DefaultLogger().Log(ctx, security.SecurityEvent{
		Event:        security.EventAccountApproved,
		SubjectType:  "user_id",
		SubjectValue: id,
		Details:      map[string]any{"approved": approved, "by": actor.UserID},
	})
	return acc, nil
}

func (uc *adminUsecase) SetActive(ctx context.Context, actor domain.Actor, id string, active bool) (*domain.Account, error) {
	if id == actor.UserID && !active {
		return nil, apperror.BadRequest("You cannot deactivate your own account")
	}
	acc, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Account not found")
	}
	if err := uc.accountRepo.SetActive(ctx, id, active); err != nil {
		return nil, repoError(err, "Account not found")
	}
	acc.IsActive = active

	if !active {
		security.DefaultLogger().Log(ctx, security.SecurityEvent{
			Event:        security.EventAccountDisabled,
			SubjectType:  "user_id",
			SubjectValue: id,
			Details:      map[string]any{"by": actor.UserID},
		})
	}
	return acc, nil
}

var studentExportHeaders = []string{
	"Name", "Email", "Phone", "Roll Number", "College", "Branch", "Graduation Year",
	"CGPA", "Skills", "Resume URL", "Applications", "Email Verified", "Active", "Registered At",
}

func (uc *adminUsecase) ExportStudents(ctx context.Context, actor domain.Actor) ([]byte, string, error) {
	students, err := uc.studentRepo.ListForExport(ctx)
	if err != nil {
		return nil, "", apperror.Internal(err)
	}

	rows := make([][]any, 0, len(students))
	for _, s := range students {
		rows = append(rows, []any{
			s.FullName, s.Email, s.Phone, s.Profile.RollNumber, s.Profile.College, s.Profile.Branch,
			s.Profile.GraduationYear, s.Profile.CGPA, strings.Join(s.Profile.Skills, ", "), s.Profile.ResumeURL,
			s.ApplicationCount, yesNo(s.EmailVerified), yesNo(s.IsActive), formatTime(s.CreatedAt),
		})
	}
	data, err := excel.Write("Students", studentExportHeaders, rows)
	if err != nil {
		return nil, "", apperror.Internal(err)
	}

	security.DefaultLogger().Log(ctx, security.SecurityEvent{
		Event:        security.EventDataExport,
		SubjectType:  "user_id",
		SubjectValue: actor.UserID,
		Details:      map[string]any{"export": "students", "rows": len(rows)},
	})
	return data, "students-" + time.Now().UTC().Format("20060102") + ".xlsx", nil
}

func (uc *adminUsecase) ListSecurityEvents(ctx context.Context, filter security.EventFilter) ([]security.SecurityEvent, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	events, err := uc.auditLog.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if events == nil {
		events = []security.SecurityEvent{}
	}
	return events, nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
