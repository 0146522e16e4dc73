package usecase

import (
	"context"
	"strings"
	"time"

	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

type jobUsecase struct {
	jobRepo  domain.JobRepository
	validate *validator.Validate
}

func NewJobUsecase(jobRepo domain.JobRepository, validate *validator.Validate) domain.JobUsecase {
	return &jobUsecase{jobRepo: jobRepo, validate: validate}
}

func (uc *jobUsecase) Create(ctx context.Context, actor domain.Actor, input domain.JobInput) (*domain.Job, error) {
	if err := uc.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	org, err := organizationFor(actor, input.Organization)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := &domain.Job{
		Organization: org,
		PostedBy:     actor.UserID,
		Status:       domain.JobStatusOpen,
		CreatedAt:    now,
	}
	applyJobInput(job, input, now)

	if err := uc.jobRepo.Create(ctx, job); err != nil {
		return nil, apperror.Internal(err)
	}
	return job, nil
}

func applyJobInput(job *domain.Job, input domain.JobInput, now time.Time) {
	job.Title = strings.TrimSpace(input.Title)
	job.Description = input.Description
	job.Location = input.Location
	job.EmploymentType = input.EmploymentType
	if job.EmploymentType == "" {
		job.EmploymentType = "full_time"
	}
	job.SalaryMin = input.SalaryMin
	job.SalaryMax = input.SalaryMax
	job.Skills = input.Skills
	if job.Skills == nil {
		job.Skills = []string{}
	}
	job.Deadline = input.Deadline
	job.UpdatedAt = now
}

func (uc *jobUsecase) Update(ctx context.Context, actor domain.Actor, id int64, input domain.JobInput) (*domain.Job, error) {
	if err := uc.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	job, err := loadManagedJob(ctx, uc.jobRepo, actor, id)
	if err != nil {
		return nil, err
	}

	applyJobInput(job, input, time.Now().UTC())
	if err := uc.jobRepo.Update(ctx, job); err != nil {
		return nil, repoError(err, "Job not found")
	}
	return job, nil
}

func (uc *jobUsecase) UpdateStatus(ctx context.Context, actor domain.Actor, id int64, status string) (*domain.Job, error) {
	if status != domain.JobStatusOpen && status != domain.JobStatusClosed {
		return nil, apperror.BadRequest("Status must be open or closed")
	}
	job, err := loadManagedJob(ctx, uc.jobRepo, actor, id)
	if err != nil {
		return nil, err
	}
	if err := uc.jobRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, repoError(err, "Job not found")
	}
	job.Status = status
	return job, nil
}

func (uc *jobUsecase) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	if _, err := loadManagedJob(ctx, uc.jobRepo, actor, id); err != nil {
		return err
	}
	if err := uc.jobRepo.Delete(ctx, id); err != nil {
		return repoError(err, "Job not found")
	}
	return nil
}

func (uc *jobUsecase) Get(ctx context.Context, id int64) (*domain.Job, error) {
	job, err := uc.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "Job not found")
	}
	return job, nil
}

func (uc *jobUsecase) ListOpen(ctx context.Context, query string, page, pageSize int) (*domain.PaginatedResult[domain.Job], error) {
	page, pageSize = domain.NormalizePage(page, pageSize)
	return uc.list(ctx, domain.JobFilter{
		Query:    query,
		Status:   domain.JobStatusOpen,
		Page:     page,
		PageSize: pageSize,
	})
}

func (uc *jobUsecase) ListManaged(ctx context.Context, actor domain.Actor, page, pageSize int) (*domain.PaginatedResult[domain.Job], error) {
	page, pageSize = domain.NormalizePage(page, pageSize)
	filter := domain.JobFilter{Page: page, PageSize: pageSize}
	if !actor.IsAdmin() {
		if actor.Organization == "" {
			return nil, apperror.Forbidden("Only employees of an organization can do this")
		}
		filter.Organization = actor.Organization
	}
	return uc.list(ctx, filter)
}

func (uc *jobUsecase) list(ctx context.Context, filter domain.JobFilter) (*domain.PaginatedResult[domain.Job], error) {
	jobs, total, err := uc.jobRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return domain.NewPaginatedResult(jobs, total, filter.Page, filter.PageSize), nil
}
