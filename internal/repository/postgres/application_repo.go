package postgres

import (
	"context"
	"encoding/json"

	"go-placement-portal/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type applicationRepo struct {
	db *pgxpool.Pool
}

func NewApplicationRepository(db *pgxpool.Pool) domain.ApplicationRepository {
	return &applicationRepo{db: db}
}

const applicationSelect = `SELECT ja.id, ja.job_id, ja.student_id, COALESCE(ja.resume_url, ''), COALESCE(ja.cover_letter, ''),
		ja.status, ja.history, ja.created_at, ja.updated_at,
		a.full_name, a.email, j.title, j.organization
	FROM job_applications ja
	JOIN accounts a ON a.id = ja.student_id
	JOIN jobs j ON j.id = ja.job_id`

func scanApplication(row pgx.Row) (*domain.Application, error) {
	var (
		app     domain.Application
		history []byte
	)
	err := row.Scan(
		&app.ID, &app.JobID, &app.StudentID, &app.ResumeURL, &app.CoverLetter,
		&app.Status, &history, &app.CreatedAt, &app.UpdatedAt,
		&app.StudentName, &app.StudentEmail, &app.JobTitle, &app.Organization,
	)
	if err != nil {
		return nil, mapError(err)
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &app.History); err != nil {
			return nil, err
		}
	}
	return &app, nil
}

func insertApplication(ctx context.Context, q querier, app *domain.Application) error {
	history, err := json.Marshal(app.History)
	if err != nil {
		return err
	}
	query := `INSERT INTO job_applications (job_id, student_id, resume_url, cover_letter, status, history, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6::jsonb, $7, $8) RETURNING id`
	err = q.QueryRow(ctx, query,
		app.JobID, app.StudentID, app.ResumeURL, app.CoverLetter, app.Status, string(history), app.CreatedAt, app.UpdatedAt,
	).Scan(&app.ID)
	return mapError(err)
}

func (r *applicationRepo) Create(ctx context.Context, app *domain.Application) error {
	return insertApplication(ctx, r.db, app)
}

func (r *applicationRepo) GetByID(ctx context.Context, id int64) (*domain.Application, error) {
	return scanApplication(r.db.QueryRow(ctx, applicationSelect+` WHERE ja.id = $1`, id))
}

func (r *applicationRepo) ListByJob(ctx context.Context, jobID int64, status string) ([]domain.Application, error) {
	query := applicationSelect + ` WHERE ja.job_id = $1 AND ($2 = '' OR ja.status = $2) ORDER BY ja.created_at`
	return r.list(ctx, query, jobID, status)
}

func (r *applicationRepo) ListByStudent(ctx context.Context, studentID string) ([]domain.Application, error) {
	return r.list(ctx, applicationSelect+` WHERE ja.student_id = $1 ORDER BY ja.created_at DESC`, studentID)
}

func (r *applicationRepo) list(ctx context.Context, query string, args ...any) ([]domain.Application, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []domain.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

func (r *applicationRepo) AppendStatus(ctx context.Context, id int64, change domain.StatusChange) error {
	entry, err := json.Marshal([]domain.StatusChange{change})
	if err != nil {
		return err
	}
	query := `UPDATE job_applications SET status = $2, history = history || $3::jsonb, updated_at = $4
		WHERE id = $1 AND status <> ALL($5::text[])`
	return expectTransition(r.db.Exec(ctx, query,
		id, change.Status, string(entry), change.ChangedAt, domain.TerminalApplicationStatuses,
	))
}
