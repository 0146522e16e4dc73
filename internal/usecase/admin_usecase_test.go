package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go-placement-portal/internal/domain"
	"go-placement-portal/internal/usecase"
	"go-placement-portal/pkg/excel"
	"go-placement-portal/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var adminActor = domain.Actor{UserID: "adm-1", Role: domain.RoleAdmin}

func stubStats(repo *MockAdminRepo) {
	repo.On("AccountStats", mock.Anything).Return(&domain.AccountStats{Students: 40, Employees: 5, Admins: 1, PendingApprovals: 2}, nil)
	repo.On("JobStats", mock.Anything).Return(&domain.JobStats{Total: 9, Open: 6}, nil)
	repo.On("ApplicationsByStatus", mock.Anything).Return(map[string]int64{"applied": 12, "selected": 3}, nil)
	repo.On("UpcomingInterviews", mock.Anything).Return(int64(4), nil)
	repo.On("AssessmentTestCount", mock.Anything).Return(int64(2), nil)
	repo.On("InvitationsByStatus", mock.Anything).Return(map[string]int64{"Pending": 7}, nil)
}

func TestAdminUsecase_StatsAreCached(t *testing.T) {
	repo := new(MockAdminRepo)
	stubStats(repo)
	uc := usecase.NewAdminUsecase(repo, new(MockAccountRepo), new(MockStudentRepo), new(MockAuditLog))

	first, err := uc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(40), first.Accounts.Students)
	assert.Equal(t, int64(6), first.Jobs.Open)
	assert.Equal(t, int64(12), first.Applications["applied"])

	_, err = uc.Stats(context.Background())
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "AccountStats", 1)
}

func TestAdminUsecase_StatsError(t *testing.T) {
	repo := new(MockAdminRepo)
	repo.On("AccountStats", mock.Anything).Return(nil, errors.New("db down"))
	repo.On("JobStats", mock.Anything).Return(&domain.JobStats{}, nil)
	repo.On("ApplicationsByStatus", mock.Anything).Return(map[string]int64{}, nil)
	repo.On("UpcomingInterviews", mock.Anything).Return(int64(0), nil)
	repo.On("AssessmentTestCount", mock.Anything).Return(int64(0), nil)
	repo.On("InvitationsByStatus", mock.Anything).Return(map[string]int64{}, nil)
	uc := usecase.NewAdminUsecase(repo, new(MockAccountRepo), new(MockStudentRepo), new(MockAuditLog))

	_, err := uc.Stats(context.Background())
	assert.Equal(t, http.StatusInternalServerError, errorCode(t, err))
}

func TestAdminUsecase_SetActive(t *testing.T) {
	ctx := context.Background()

	t.Run("Cannot deactivate self", func(t *testing.T) {
		accounts := new(MockAccountRepo)
		uc := usecase.NewAdminUsecase(new(MockAdminRepo), accounts, new(MockStudentRepo), new(MockAuditLog))

		_, err := uc.SetActive(ctx, adminActor, "adm-1", false)

		assert.Equal(t, http.StatusBadRequest, errorCode(t, err))
		accounts.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Deactivates another account", func(t *testing.T) {
		accounts := new(MockAccountRepo)
		accounts.On("GetByID", ctx, "emp-1").Return(&domain.Account{ID: "emp-1", IsActive: true}, nil)
		accounts.On("SetActive", ctx, "emp-1", false).Return(nil)
		uc := usecase.NewAdminUsecase(new(MockAdminRepo), accounts, new(MockStudentRepo), new(MockAuditLog))

		acc, err := uc.SetActive(ctx, adminActor, "emp-1", false)

		require.NoError(t, err)
		assert.False(t, acc.IsActive)
	})

	t.Run("Unknown account", func(t *testing.T) {
		accounts := new(MockAccountRepo)
		accounts.On("GetByID", ctx, "ghost").Return(nil, domain.ErrNotFound)
		uc := usecase.NewAdminUsecase(new(MockAdminRepo), accounts, new(MockStudentRepo), new(MockAuditLog))

		_, err := uc.SetApproved(ctx, adminActor, "ghost", true)
		assert.Equal(t, http.StatusNotFound, errorCode(t, err))
	})
}

func TestAdminUsecase_ExportStudents(t *testing.T) {
	ctx := context.Background()
	students := new(MockStudentRepo)
	students.On("ListForExport", ctx).Return([]domain.StudentExportRow{
		{
			Account:          domain.Account{FullName: "Asha", Email: "asha@example.com", EmailVerified: true, IsActive: true, CreatedAt: time.Now()},
			Profile:          domain.StudentProfile{College: "GEC", Skills: []string{"go", "sql"}},
			ApplicationCount: 3,
		},
	}, nil)
	uc := usecase.NewAdminUsecase(new(MockAdminRepo), new(MockAccountRepo), students, new(MockAuditLog))

	data, filename, err := uc.ExportStudents(ctx, adminActor)

	require.NoError(t, err)
	assert.Contains(t, filename, "students-")
	rows, err := excel.ReadRows(data)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "go, sql", rows[1][8])
	assert.Equal(t, "Yes", rows[1][11])
}

func TestAdminUsecase_ListSecurityEventsDefaultsLimit(t *testing.T) {
	ctx := context.Background()
	audit := new(MockAuditLog)
	audit.On("List", ctx, security.EventFilter{EventType: "login_failed", Limit: 100}).Return([]security.SecurityEvent(nil), nil)
	uc := usecase.NewAdminUsecase(new(MockAdminRepo), new(MockAccountRepo), new(MockStudentRepo), audit)

	events, err := uc.ListSecurityEvents(ctx, security.EventFilter{EventType: "login_failed"})

	require.NoError(t, err)
	assert.NotNil(t, events)
	audit.AssertExpectations(t)
}
