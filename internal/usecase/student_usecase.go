package usecase

import (
	"context"
	"errors"
	"time"

	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"
	"go-placement-portal/pkg/logger"
	"go-placement-portal/pkg/security"

	"github.com/go-playground/validator/v10"
)

const resumeFolder = "resumes"

type studentUsecase struct {
	accountRepo   domain.AccountRepository
	studentRepo   domain.StudentRepository
	appRepo       domain.ApplicationRepository
	interviewRepo domain.InterviewRepository
	storage       domain.FileStorage
	validate      *validator.Validate
}

func NewStudentUsecase(
	accountRepo domain.AccountRepository,
	studentRepo domain.StudentRepository,
	appRepo domain.ApplicationRepository,
	interviewRepo domain.InterviewRepository,
	storage domain.FileStorage,
	validate *validator.Validate,
) domain.StudentUsecase {
	return &studentUsecase{
		accountRepo:   accountRepo,
		studentRepo:   studentRepo,
		appRepo:       appRepo,
		interviewRepo: interviewRepo,
		storage:       storage,
		validate:      validate,
	}
}

func (uc *studentUsecase) GetProfile(ctx context.Context, studentID string) (*domain.StudentView, error) {
	acc, err := uc.accountRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, repoError(err, "Student not found")
	}
	profile, err := uc.profileOrEmpty(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &domain.StudentView{Account: acc, Profile: profile}, nil
}

func (uc *studentUsecase) profileOrEmpty(ctx context.Context, studentID string) (*domain.StudentProfile, error) {
	profile, err := uc.studentRepo.GetProfile(ctx, studentID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.StudentProfile{AccountID: studentID, Skills: []string{}}, nil
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return profile, nil
}

func (uc *studentUsecase) UpdateProfile(ctx context.Context, studentID string, req domain.UpdateStudentProfileRequest) (*domain.StudentView, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	if err := uc.studentRepo.UpdateContact(ctx, studentID, req.FullName, req.Phone); err != nil {
		return nil, repoError(err, "Student not found")
	}

	skills := req.Skills
	if skills == nil {
		skills = []string{}
	}
	profile := &domain.StudentProfile{
		AccountID:      studentID,
		RollNumber:     req.RollNumber,
		College:        req.College,
		Branch:         req.Branch,
		GraduationYear: req.GraduationYear,
		CGPA:           req.CGPA,
		Skills:         skills,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := uc.studentRepo.UpsertProfile(ctx, profile); err != nil {
		return nil, apperror.Internal(err)
	}
	return uc.GetProfile(ctx, studentID)
}

func (uc *studentUsecase) UploadResume(ctx context.Context, studentID string, file domain.UploadedFile) (*domain.StudentProfile, error) {
	check := security.ValidateFile(file.Filename, file.Data, security.KindDocument)
	if !check.Valid {
		return nil, apperror.BadRequest("Invalid resume: " + check.Error)
	}

	existing, err := uc.profileOrEmpty(ctx, studentID)
	if err != nil {
		return nil, err
	}

	uploaded, err := uc.storage.Upload(ctx, file.Data, resumeFolder, file.Filename, security.ContentTypeFor(check.Extension))
	if err != nil {
		return nil, apperror.ServiceUnavailable("Could not store the file. Please try again later.", err)
	}
	if err := uc.studentRepo.UpdateResume(ctx, studentID, uploaded.URL, uploaded.PublicID); err != nil {
		return nil, apperror.Internal(err)
	}

	if existing.ResumePublicID != "" {
		if err := uc.storage.Delete(ctx, existing.ResumePublicID); err != nil {
			logger.Log.Warn("Failed to delete previous resume", "public_id", existing.ResumePublicID, "error", err)
		}
	}

	existing.ResumeURL = uploaded.URL
	existing.ResumePublicID = uploaded.PublicID
	existing.UpdatedAt = time.Now().UTC()
	return existing, nil
}

func (uc *studentUsecase) ListApplications(ctx context.Context, studentID string) ([]domain.Application, error) {
	apps, err := uc.appRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if apps == nil {
		apps = []domain.Application{}
	}
	return apps, nil
}

func (uc *studentUsecase) ListInterviews(ctx context.Context, studentID string) ([]domain.Interview, error) {
	interviews, err := uc.interviewRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if interviews == nil {
		interviews = []domain.Interview{}
	}
	return interviews, nil
}
