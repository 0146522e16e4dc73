package usecase_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"go-placement-portal/internal/domain"
	"go-placement-portal/internal/usecase"
	"go-placement-portal/pkg/excel"
	"go-placement-portal/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type applicationFixture struct {
	apps     *MockApplicationRepo
	jobs     *MockJobRepo
	students *MockStudentRepo
	mailer   *MockMailer
	uc       domain.ApplicationUsecase
}

func newApplicationFixture() *applicationFixture {
	f := &applicationFixture{
		apps:     new(MockApplicationRepo),
		jobs:     new(MockJobRepo),
		students: new(MockStudentRepo),
		mailer:   new(MockMailer),
	}
	f.uc = usecase.NewApplicationUsecase(f.apps, f.jobs, f.students, f.mailer, validation.New())
	return f
}

func openJob() *domain.Job {
	deadline := time.Now().Add(48 * time.Hour)
	return &domain.Job{ID: 7, Organization: "Acme", Title: "Backend Intern", Status: domain.JobStatusOpen, Deadline: &deadline}
}

func TestApplicationUsecase_Apply(t *testing.T) {
	ctx := context.Background()
	withResume := &domain.StudentProfile{AccountID: "stu-1", ResumeURL: "https://cdn.example.com/resumes/stu-1.pdf"}

	t.Run("Success", func(t *testing.T) {
		f := newApplicationFixture()
		f.jobs.On("GetByID", ctx, int64(7)).Return(openJob(), nil)
		f.students.On("GetProfile", ctx, "stu-1").Return(withResume, nil)
		f.apps.On("Create", ctx, mock.MatchedBy(func(a *domain.Application) bool {
			return a.Status == domain.ApplicationStatusApplied && len(a.History) == 1 && a.ResumeURL == withResume.ResumeURL
		})).Return(nil)
		f.jobs.On("IncrementApplicants", ctx, int64(7), 1).Return(nil)

		app, err := f.uc.Apply(ctx, "stu-1", 7, domain.ApplyRequest{CoverLetter: "Hello"})

		require.NoError(t, err)
		assert.Equal(t, "Backend Intern", app.JobTitle)
		f.jobs.AssertExpectations(t)
	})

	t.Run("Duplicate application", func(t *testing.T) {
		f := newApplicationFixture()
		f.jobs.On("GetByID", ctx, int64(7)).Return(openJob(), nil)
		f.students.On("GetProfile", ctx, "stu-1").Return(withResume, nil)
		f.apps.On("Create", ctx, mock.Anything).Return(domain.ErrConflict)

		_, err := f.uc.Apply(ctx, "stu-1", 7, domain.ApplyRequest{})

		assert.Equal(t, http.StatusConflict, errorCode(t, err))
		f.jobs.AssertNotCalled(t, "IncrementApplicants", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("No resume", func(t *testing.T) {
		f := newApplicationFixture()
		f.jobs.On("GetByID", ctx, int64(7)).Return(openJob(), nil)
		f.students.On("GetProfile", ctx, "stu-1").Return(&domain.StudentProfile{AccountID: "stu-1"}, nil)

		_, err := f.uc.Apply(ctx, "stu-1", 7, domain.ApplyRequest{})

		assert.Equal(t, http.StatusBadRequest, errorCode(t, err))
		f.apps.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Deadline passed", func(t *testing.T) {
		f := newApplicationFixture()
		job := openJob()
		past := time.Now().Add(-time.Hour)
		job.Deadline = &past
		f.jobs.On("GetByID", ctx, int64(7)).Return(job, nil)

		_, err := f.uc.Apply(ctx, "stu-1", 7, domain.ApplyRequest{})
		assert.Equal(t, http.StatusBadRequest, errorCode(t, err))
	})

	t.Run("Unknown job", func(t *testing.T) {
		f := newApplicationFixture()
		f.jobs.On("GetByID", ctx, int64(99)).Return(nil, domain.ErrNotFound)

		_, err := f.uc.Apply(ctx, "stu-1", 99, domain.ApplyRequest{})
		assert.Equal(t, http.StatusNotFound, errorCode(t, err))
	})
}

func TestApplicationUsecase_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	req := domain.UpdateApplicationStatusRequest{Status: domain.ApplicationStatusShortlisted, Note: "Strong resume"}

	t.Run("Other organization is forbidden", func(t *testing.T) {
		f := newApplicationFixture()
		f.apps.On("GetByID", ctx, int64(3)).Return(&domain.Application{ID: 3, JobID: 7, Status: domain.ApplicationStatusApplied}, nil)
		f.jobs.On("GetByID", ctx, int64(7)).Return(openJob(), nil)

		actor := domain.Actor{UserID: "emp-2", Role: domain.RoleEmployee, Organization: "Globex"}
		_, err := f.uc.UpdateStatus(ctx, actor, 3, req)

		assert.Equal(t, http.StatusForbidden, errorCode(t, err))
		f.apps.AssertNotCalled(t, "AppendStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Terminal status is final", func(t *testing.T) {
		f := newApplicationFixture()
		f.apps.On("GetByID", ctx, int64(3)).Return(&domain.Application{ID: 3, JobID: 7, Status: domain.ApplicationStatusWithdrawn}, nil)
		f.jobs.On("GetByID", ctx, int64(7)).Return(openJob(), nil)

		actor := domain.Actor{UserID: "emp-1", Role: domain.RoleEmployee, Organization: "Acme"}
		_, err := f.uc.UpdateStatus(ctx, actor, 3, req)

		assert.Equal(t, http.StatusBadRequest, errorCode(t, err))
	})

	t.Run("Success notifies student", func(t *testing.T) {
		f := newApplicationFixture()
		f.apps.On("GetByID", ctx, int64(3)).Return(&domain.Application{
			ID: 3, JobID: 7, Status: domain.ApplicationStatusApplied,
			StudentEmail: "asha@example.com", StudentName: "Asha", JobTitle: "Backend Intern",
		}, nil)
		f.jobs.On("GetByID", ctx, int64(7)).Return(openJob(), nil)
		f.apps.On("AppendStatus", ctx, int64(3), mock.MatchedBy(func(c domain.StatusChange) bool {
			return c.Status == domain.ApplicationStatusShortlisted && c.ChangedBy == "emp-1"
		})).Return(nil)
		f.mailer.On("Send", ctx, mock.Anything).Return(nil)

		actor := domain.Actor{UserID: "emp-1", Role: domain.RoleEmployee, Organization: "Acme"}
		app, err := f.uc.UpdateStatus(ctx, actor, 3, req)

		require.NoError(t, err)
		assert.Equal(t, domain.ApplicationStatusShortlisted, app.Status)
		assert.Len(t, app.History, 1)
		f.mailer.AssertNumberOfCalls(t, "Send", 1)
	})

	t.Run("Withdrawn concurrently", func(t *testing.T) {
		f := newApplicationFixture()
		f.apps.On("GetByID", ctx, int64(3)).Return(&domain.Application{ID: 3, JobID: 7, Status: domain.ApplicationStatusApplied}, nil)
		f.jobs.On("GetByID", ctx, int64(7)).Return(openJob(), nil)
		f.apps.On("AppendStatus", ctx, int64(3), mock.Anything).Return(domain.ErrStateChanged)

		actor := domain.Actor{UserID: "emp-1", Role: domain.RoleEmployee, Organization: "Acme"}
		_, err := f.uc.UpdateStatus(ctx, actor, 3, req)

		assert.Equal(t, http.StatusConflict, errorCode(t, err))
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestApplicationUsecase_Withdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("Not owner", func(t *testing.T) {
		f := newApplicationFixture()
		f.apps.On("GetByID", ctx, int64(3)).Return(&domain.Application{ID: 3, JobID: 7, StudentID: "stu-2", Status: domain.ApplicationStatusApplied}, nil)

		_, err := f.uc.Withdraw(ctx, "stu-1", 3)
		assert.Equal(t, http.StatusForbidden, errorCode(t, err))
	})

	t.Run("Decrements applicant count", func(t *testing.T) {
		f := newApplicationFixture()
		f.apps.On("GetByID", ctx, int64(3)).Return(&domain.Application{ID: 3, JobID: 7, StudentID: "stu-1", Status: domain.ApplicationStatusApplied}, nil)
		f.apps.On("AppendStatus", ctx, int64(3), mock.Anything).Return(nil)
		f.jobs.On("IncrementApplicants", ctx, int64(7), -1).Return(nil)

		app, err := f.uc.Withdraw(ctx, "stu-1", 3)

		require.NoError(t, err)
		assert.Equal(t, domain.ApplicationStatusWithdrawn, app.Status)
		f.jobs.AssertExpectations(t)
	})

	t.Run("Concurrent withdraws decrement once", func(t *testing.T) {
		f := newApplicationFixture()
		f.apps.On("GetByID", ctx, int64(3)).Return(&domain.Application{ID: 3, JobID: 7, StudentID: "stu-1", Status: domain.ApplicationStatusApplied}, nil)
		f.apps.On("AppendStatus", ctx, int64(3), mock.Anything).Return(nil).Once()
		f.apps.On("AppendStatus", ctx, int64(3), mock.Anything).Return(domain.ErrStateChanged)
		f.jobs.On("IncrementApplicants", ctx, int64(7), -1).Return(nil)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.uc.Withdraw(ctx, "stu-1", 3)
			}(i)
		}
		wg.Wait()

		var succeeded, conflicts int
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else if errorCode(t, err) == http.StatusConflict {
				conflicts++
			}
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 1, conflicts)
		f.jobs.AssertNumberOfCalls(t, "IncrementApplicants", 1)
	})

	t.Run("Closed between read and write", func(t *testing.T) {
		f := newApplicationFixture()
		f.apps.On("GetByID", ctx, int64(3)).Return(&domain.Application{ID: 3, JobID: 7, StudentID: "stu-1", Status: domain.ApplicationStatusShortlisted}, nil)
		f.apps.On("AppendStatus", ctx, int64(3), mock.Anything).Return(domain.ErrStateChanged)

		_, err := f.uc.Withdraw(ctx, "stu-1", 3)

		assert.Equal(t, http.StatusConflict, errorCode(t, err))
		f.jobs.AssertNotCalled(t, "IncrementApplicants", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestApplicationUsecase_ExportForJob(t *testing.T) {
	ctx := context.Background()
	f := newApplicationFixture()
	f.jobs.On("GetByID", ctx, int64(7)).Return(openJob(), nil)
	f.apps.On("ListByJob", ctx, int64(7), "").Return([]domain.Application{
		{ID: 1, StudentName: "Asha", StudentEmail: "asha@example.com", Status: "applied", CreatedAt: time.Now()},
		{ID: 2, StudentName: "Ravi", StudentEmail: "ravi@example.com", Status: "interview_scheduled", CreatedAt: time.Now()},
	}, nil)

	actor := domain.Actor{UserID: "emp-1", Role: domain.RoleEmployee, Organization: "Acme"}
	data, filename, err := f.uc.ExportForJob(ctx, actor, 7, "")

	require.NoError(t, err)
	assert.Equal(t, "applications-job-7.xlsx", filename)

	rows, err := excel.ReadRows(data)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Interview scheduled", rows[2][2])
}
