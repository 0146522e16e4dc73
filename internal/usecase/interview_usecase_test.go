package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"go-placement-portal/internal/domain"
	"go-placement-portal/internal/usecase"
	"go-placement-portal/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newInterviewUsecase(interviews *MockInterviewRepo, apps *MockApplicationRepo, jobs *MockJobRepo, mailer *MockMailer) domain.InterviewUsecase {
	return usecase.NewInterviewUsecase(interviews, apps, jobs, mailer, 24*time.Hour, validation.New())
}

func TestInterviewUsecase_Schedule(t *testing.T) {
	ctx := context.Background()
	actor := domain.Actor{UserID: "emp-1", Role: domain.RoleEmployee, Organization: "Acme"}
	application := &domain.Application{
		ID: 3, JobID: 7, StudentID: "stu-1", Status: domain.ApplicationStatusShortlisted,
		StudentEmail: "asha@example.com", StudentName: "Asha", JobTitle: "Backend Intern", Organization: "Acme",
	}

	t.Run("Success applies defaults", func(t *testing.T) {
		interviews, apps, jobs, mailer := new(MockInterviewRepo), new(MockApplicationRepo), new(MockJobRepo), new(MockMailer)
		apps.On("GetByID", ctx, int64(3)).Return(application, nil)
		jobs.On("GetByID", ctx, int64(7)).Return(openJob(), nil)
		interviews.On("Create", ctx, mock.MatchedBy(func(iv *domain.Interview) bool {
			return iv.Round == 1 && iv.DurationMinutes == 30 && iv.Status == domain.InterviewStatusScheduled
		})).Return(nil)
		jobs.On("IncrementInterviews", ctx, int64(7), 1).Return(nil)
		apps.On("AppendStatus", ctx, int64(3), mock.MatchedBy(func(c domain.StatusChange) bool {
			return c.Status == domain.ApplicationStatusInterviewScheduled
		})).Return(nil)
		mailer.On("Send", ctx, mock.Anything).Return(nil)

		uc := newInterviewUsecase(interviews, apps, jobs, mailer)
		iv, err := uc.Schedule(ctx, actor, 3, domain.ScheduleInterviewRequest{
			ScheduledAt: time.Now().Add(48 * time.Hour),
			Mode:        domain.InterviewModeOnline,
			Location:    "https://meet.example.com/abc",
		})

		require.NoError(t, err)
		assert.Equal(t, "stu-1", iv.StudentID)
		interviews.AssertExpectations(t)
		apps.AssertExpectations(t)
		mailer.AssertNumberOfCalls(t, "Send", 1)
	})

	t.Run("Past time rejected", func(t *testing.T) {
		uc := newInterviewUsecase(new(MockInterviewRepo), new(MockApplicationRepo), new(MockJobRepo), new(MockMailer))
		_, err := uc.Schedule(ctx, actor, 3, domain.ScheduleInterviewRequest{
			ScheduledAt: time.Now().Add(-time.Hour),
			Mode:        domain.InterviewModeOnsite,
		})
		assert.Equal(t, http.StatusBadRequest, errorCode(t, err))
	})

	t.Run("Rejected application", func(t *testing.T) {
		interviews, apps, jobs := new(MockInterviewRepo), new(MockApplicationRepo), new(MockJobRepo)
		rejected := *application
		rejected.Status = domain.ApplicationStatusRejected
		apps.On("GetByID", ctx, int64(3)).Return(&rejected, nil)
		jobs.On("GetByID", ctx, int64(7)).Return(openJob(), nil)

		uc := newInterviewUsecase(interviews, apps, jobs, new(MockMailer))
		_, err := uc.Schedule(ctx, actor, 3, domain.ScheduleInterviewRequest{
			ScheduledAt: time.Now().Add(time.Hour),
			Mode:        domain.InterviewModeOnsite,
		})

		assert.Equal(t, http.StatusBadRequest, errorCode(t, err))
		interviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Withdrawn before status write", func(t *testing.T) {
		interviews, apps, jobs, mailer := new(MockInterviewRepo), new(MockApplicationRepo), new(MockJobRepo), new(MockMailer)
		apps.On("GetByID", ctx, int64(3)).Return(application, nil)
		jobs.On("GetByID", ctx, int64(7)).Return(openJob(), nil)
		apps.On("AppendStatus", ctx, int64(3), mock.Anything).Return(domain.ErrStateChanged)

		uc := newInterviewUsecase(interviews, apps, jobs, mailer)
		_, err := uc.Schedule(ctx, actor, 3, domain.ScheduleInterviewRequest{
			ScheduledAt: time.Now().Add(time.Hour),
			Mode:        domain.InterviewModeOnsite,
		})

		assert.Equal(t, http.StatusConflict, errorCode(t, err))
		interviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		jobs.AssertNotCalled(t, "IncrementInterviews", mock.Anything, mock.Anything, mock.Anything)
		mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestInterviewUsecase_UpdateCompletedIsFinal(t *testing.T) {
	ctx := context.Background()
	interviews, jobs := new(MockInterviewRepo), new(MockJobRepo)
	interviews.On("GetByID", ctx, int64(4)).Return(&domain.Interview{ID: 4, JobID: 7, Status: domain.InterviewStatusCompleted}, nil)
	jobs.On("GetByID", ctx, int64(7)).Return(openJob(), nil)

	uc := newInterviewUsecase(interviews, new(MockApplicationRepo), jobs, new(MockMailer))
	_, err := uc.Update(ctx, domain.Actor{UserID: "adm", Role: domain.RoleAdmin}, 4, domain.UpdateInterviewRequest{Status: domain.InterviewStatusCancelled})

	assert.Equal(t, http.StatusBadRequest, errorCode(t, err))
	interviews.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestInterviewUsecase_SendDueReminders(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	interviews, mailer := new(MockInterviewRepo), new(MockMailer)
	interviews.On("ListDueReminders", ctx, now, now.Add(24*time.Hour)).Return([]domain.Interview{
		{ID: 1, StudentEmail: "a@example.com", ScheduledAt: now.Add(time.Hour)},
		{ID: 2, StudentEmail: "b@example.com", ScheduledAt: now.Add(2 * time.Hour)},
	}, nil)
	interviews.On("MarkReminderSent", ctx, int64(1)).Return(true, nil)
	// Another instance claimed this one first.
	interviews.On("MarkReminderSent", ctx, int64(2)).Return(false, nil)
	mailer.On("Send", ctx, mock.Anything).Return(nil)

	uc := newInterviewUsecase(interviews, new(MockApplicationRepo), new(MockJobRepo), mailer)
	sent, err := uc.SendDueReminders(ctx, now)

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	mailer.AssertNumberOfCalls(t, "Send", 1)
}
