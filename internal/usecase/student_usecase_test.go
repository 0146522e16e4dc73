package usecase_test

import (
	"context"
	"testing"

	"go-placement-portal/internal/domain"
	"go-placement-portal/internal/usecase"
	"go-placement-portal/pkg/storage"
	"go-placement-portal/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStudentUsecase_GetProfileWithoutProfileRow(t *testing.T) {
	ctx := context.Background()
	accounts, students := new(MockAccountRepo), new(MockStudentRepo)
	accounts.On("GetByID", ctx, "stu-1").Return(&domain.Account{ID: "stu-1", FullName: "Asha"}, nil)
	students.On("GetProfile", ctx, "stu-1").Return(nil, domain.ErrNotFound)

	uc := usecase.NewStudentUsecase(accounts, students, new(MockApplicationRepo), new(MockInterviewRepo), new(MockStorage), validation.New())
	view, err := uc.GetProfile(ctx, "stu-1")

	require.NoError(t, err)
	assert.Equal(t, "stu-1", view.Profile.AccountID)
	assert.NotNil(t, view.Profile.Skills)
}

func TestStudentUsecase_UploadResumeReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	students, store := new(MockStudentRepo), new(MockStorage)
	students.On("GetProfile", ctx, "stu-1").Return(&domain.StudentProfile{AccountID: "stu-1", ResumePublicID: "resumes/old.pdf"}, nil)
	store.On("Upload", ctx, pdfBytes, "resumes", "cv.pdf", "application/pdf").
		Return(&storage.UploadResult{URL: "https://cdn/resumes/new.pdf", PublicID: "resumes/new.pdf"}, nil)
	students.On("UpdateResume", ctx, "stu-1", "https://cdn/resumes/new.pdf", "resumes/new.pdf").Return(nil)
	store.On("Delete", ctx, "resumes/old.pdf").Return(nil)

	uc := usecase.NewStudentUsecase(new(MockAccountRepo), students, new(MockApplicationRepo), new(MockInterviewRepo), store, validation.New())
	profile, err := uc.UploadResume(ctx, "stu-1", domain.UploadedFile{Filename: "cv.pdf", Data: pdfBytes})

	require.NoError(t, err)
	assert.Equal(t, "https://cdn/resumes/new.pdf", profile.ResumeURL)
	store.AssertExpectations(t)
	students.AssertExpectations(t)
}

func TestStudentUsecase_ListApplicationsNeverNil(t *testing.T) {
	ctx := context.Background()
	apps := new(MockApplicationRepo)
	apps.On("ListByStudent", ctx, "stu-1").Return([]domain.Application(nil), nil)

	uc := usecase.NewStudentUsecase(new(MockAccountRepo), new(MockStudentRepo), apps, new(MockInterviewRepo), new(MockStorage), validation.New())
	out, err := uc.ListApplications(ctx, "stu-1")

	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	apps.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
