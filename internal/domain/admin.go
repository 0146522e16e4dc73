package domain

import (
	"context"

	"go-placement-portal/pkg/security"
	"go-placement-portal/pkg/storage"
)

type AdminStats struct {
	Accounts        AccountStats     `json:"accounts"`
	Jobs            JobStats         `json:"jobs"`
	Applications    map[string]int64 `json:"applications_by_status"`
	Interviews      int64            `json:"upcoming_interviews"`
	AssessmentTests int64            `json:"assessment_tests"`
	Invitations     map[string]int64 `json:"invitations_by_status"`
}

type AccountStats struct {
	Students         int64 `json:"students"`
	Employees        int64 `json:"employees"`
	Admins           int64 `json:"admins"`
	PendingApprovals int64 `json:"pending_approvals"`
}

type JobStats struct {
	Total int64 `json:"total"`
	Open  int64 `json:"open"`
}

type AdminRepository interface {
	AccountStats(ctx context.Context) (*AccountStats, error)
	JobStats(ctx context.Context) (*JobStats, error)
	ApplicationsByStatus(ctx context.Context) (map[string]int64, error)
	UpcomingInterviews(ctx context.Context) (int64, error)
	AssessmentTestCount(ctx context.Context) (int64, error)
	InvitationsByStatus(ctx context.Context) (map[string]int64, error)
}

// AuditLog reads persisted security events.
type AuditLog interface {
	List(ctx context.Context, filter security.EventFilter) ([]security.SecurityEvent, error)
}

type AdminUsecase interface {
	Stats(ctx context.Context) (*AdminStats, error)
	ListAccounts(ctx context.Context, filter AccountFilter) (*PaginatedResult[Account], error)
	SetApproved(ctx context.Context, actor Actor, id string, approved bool) (*Account, error)
	SetActive(ctx context.Context, actor Actor, id string, active bool) (*Account, error)
	ExportStudents(ctx context.Context, actor Actor) ([]byte, string, error)
	ListSecurityEvents(ctx context.Context, filter security.EventFilter) ([]security.SecurityEvent, error)
}

type UploadUsecase interface {
	Upload(ctx context.Context, actor Actor, folder string, file UploadedFile) (*storage.UploadResult, error)
}

type HealthStatus struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

type HealthUsecase interface {
	Check(ctx context.Context) *HealthStatus
}
