package postgres

import (
	"context"
	"fmt"
	"strings"

	"go-placement-portal/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type jobRepo struct {
	db *pgxpool.Pool
}

func NewJobRepository(db *pgxpool.Pool) domain.JobRepository {
	return &jobRepo{db: db}
}

const jobColumns = `id, organization, posted_by, title, description, location, employment_type, salary_min, salary_max,
	skills, status, deadline, applicant_count, interview_count, created_at, updated_at`

func scanJob(row pgx.Row) (*domain.Job, error) {
	var j domain.Job
	err := row.Scan(
		&j.ID, &j.Organization, &j.PostedBy, &j.Title, &j.Description, &j.Location, &j.EmploymentType,
		&j.SalaryMin, &j.SalaryMax, pq.Array(&j.Skills), &j.Status, &j.Deadline,
		&j.ApplicantCount, &j.InterviewCount, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &j, nil
}

func (r *jobRepo) Create(ctx context.Context, job *domain.Job) error {
	query := `INSERT INTO jobs (organization, posted_by, title, description, location, employment_type, salary_min, salary_max,
		skills, status, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	skills := job.Skills
	if skills == nil {
		skills = []string{}
	}
	err := r.db.QueryRow(ctx, query,
		job.Organization, job.PostedBy, job.Title, job.Description, job.Location, job.EmploymentType,
		job.SalaryMin, job.SalaryMax, pq.Array(skills), job.Status, job.Deadline, job.CreatedAt, job.UpdatedAt,
	).Scan(&job.ID)
	return mapError(err)
}

func (r *jobRepo) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	return scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
}

func (r *jobRepo) Update(ctx context.Context, job *domain.Job) error {
	query := `UPDATE jobs SET title = $2, description = $3, location = $4, employment_type = $5,
		salary_min = $6, salary_max = $7, skills = $8, deadline = $9, updated_at = $10
		WHERE id = $1`
	skills := job.Skills
	if skills == nil {
		skills = []string{}
	}
	return expectOne(r.db.Exec(ctx, query,
		job.ID, job.Title, job.Description, job.Location, job.EmploymentType,
		job.SalaryMin, job.SalaryMax, pq.Array(skills), job.Deadline, job.UpdatedAt,
	))
}

func (r *jobRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	return expectOne(r.db.Exec(ctx, `UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1`, id, status))
}

func (r *jobRepo) Delete(ctx context.Context, id int64) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id))
}

func (r *jobRepo) List(ctx context.Context, filter domain.JobFilter) ([]domain.Job, int64, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Organization != "" {
		add("organization = $%d", filter.Organization)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		add("(title ILIKE $%[1]d OR location ILIKE $%[1]d OR organization ILIKE $%[1]d)", "%"+q+"%")
	}
	if filter.Status == domain.JobStatusOpen {
		conds = append(conds, "(deadline IS NULL OR deadline > NOW())")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, pageSize := domain.NormalizePage(filter.Page, filter.PageSize)
	args = append(args, pageSize, offset(page, pageSize))
	query := fmt.Sprintf(`SELECT %s FROM jobs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		jobColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, total, rows.Err()
}

func incrementCounter(ctx context.Context, q querier, column string, id int64, delta int) error {
	query := fmt.Sprintf(`UPDATE jobs SET %[1]s = GREATEST(%[1]s + $2, 0) WHERE id = $1`, column)
	return expectOne(q.Exec(ctx, query, id, delta))
}

func (r *jobRepo) IncrementApplicants(ctx context.Context, id int64, delta int) error {
	return incrementCounter(ctx, r.db, "applicant_count", id, delta)
}

func (r *jobRepo) IncrementInterviews(ctx context.Context, id int64, delta int) error {
	return incrementCounter(ctx, r.db, "interview_count", id, delta)
}
