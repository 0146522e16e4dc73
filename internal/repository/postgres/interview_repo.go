package postgres

import (
	"context"
	"time"

	"go-placement-portal/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type interviewRepo struct {
	db *pgxpool.Pool
}

func NewInterviewRepository(db *pgxpool.Pool) domain.InterviewRepository {
	return &interviewRepo{db: db}
}

const interviewSelect = `SELECT i.id, i.application_id, i.job_id, i.student_id, i.scheduled_by, i.round, i.scheduled_at,
		i.duration_minutes, i.mode, i.location, i.status, COALESCE(i.feedback, ''), i.reminder_sent, i.created_at, i.updated_at,
		a.full_name, a.email, j.title, j.organization
	FROM interviews i
	JOIN accounts a ON a.id = i.student_id
	JOIN jobs j ON j.id = i.job_id`

func scanInterview(row pgx.Row) (*domain.Interview, error) {
	var iv domain.Interview
	err := row.Scan(
		&iv.ID, &iv.ApplicationID, &iv.JobID, &iv.StudentID, &iv.ScheduledBy, &iv.Round, &iv.ScheduledAt,
		&iv.DurationMinutes, &iv.Mode, &iv.Location, &iv.Status, &iv.Feedback, &iv.ReminderSent, &iv.CreatedAt, &iv.UpdatedAt,
		&iv.StudentName, &iv.StudentEmail, &iv.JobTitle, &iv.Organization,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &iv, nil
}

func (r *interviewRepo) Create(ctx context.Context, iv *domain.Interview) error {
	query := `INSERT INTO interviews (application_id, job_id, student_id, scheduled_by, round, scheduled_at,
		duration_minutes, mode, location, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
	err := r.db.QueryRow(ctx, query,
		iv.ApplicationID, iv.JobID, iv.StudentID, iv.ScheduledBy, iv.Round, iv.ScheduledAt,
		iv.DurationMinutes, iv.Mode, iv.Location, iv.Status, iv.CreatedAt, iv.UpdatedAt,
	).Scan(&iv.ID)
	return mapError(err)
}

func (r *interviewRepo) GetByID(ctx context.Context, id int64) (*domain.Interview, error) {
	return scanInterview(r.db.QueryRow(ctx, interviewSelect+` WHERE i.id = $1`, id))
}

// Update persists schedule fields; moving scheduled_at re-arms the reminder.
func (r *interviewRepo) Update(ctx context.Context, iv *domain.Interview) error {
	query := `UPDATE interviews SET scheduled_at = $2, duration_minutes = $3, location = $4, status = $5,
		feedback = NULLIF($6, ''), reminder_sent = $7, updated_at = $8
		WHERE id = $1`
	return expectOne(r.db.Exec(ctx, query,
		iv.ID, iv.ScheduledAt, iv.DurationMinutes, iv.Location, iv.Status, iv.Feedback, iv.ReminderSent, iv.UpdatedAt,
	))
}

func (r *interviewRepo) ListByJob(ctx context.Context, jobID int64) ([]domain.Interview, error) {
	return r.list(ctx, interviewSelect+` WHERE i.job_id = $1 ORDER BY i.scheduled_at`, jobID)
}

func (r *interviewRepo) ListByStudent(ctx context.Context, studentID string) ([]domain.Interview, error) {
	return r.list(ctx, interviewSelect+` WHERE i.student_id = $1 ORDER BY i.scheduled_at DESC`, studentID)
}

func (r *interviewRepo) ListDueReminders(ctx context.Context, from, to time.Time) ([]domain.Interview, error) {
	query := interviewSelect + ` WHERE i.status = 'scheduled' AND i.reminder_sent = FALSE
		AND i.scheduled_at > $1 AND i.scheduled_at <= $2 ORDER BY i.scheduled_at`
	return r.list(ctx, query, from, to)
}

func (r *interviewRepo) MarkReminderSent(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE interviews SET reminder_sent = TRUE WHERE id = $1 AND reminder_sent = FALSE`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *interviewRepo) list(ctx context.Context, query string, args ...any) ([]domain.Interview, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *iv)
	}
	return out, rows.Err()
}
