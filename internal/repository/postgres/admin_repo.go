package postgres

import (
	"context"

	"go-placement-portal/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type adminRepo struct {
	db *pgxpool.Pool
}

func NewAdminRepository(db *pgxpool.Pool) domain.AdminRepository {
	return &adminRepo{db: db}
}

func (r *adminRepo) AccountStats(ctx context.Context) (*domain.AccountStats, error) {
	query := `SELECT
			COUNT(*) FILTER (WHERE role = 'student'),
			COUNT(*) FILTER (WHERE role = 'employee'),
			COUNT(*) FILTER (WHERE role = 'admin'),
			COUNT(*) FILTER (WHERE role = 'employee' AND is_approved = FALSE)
		FROM accounts`
	var s domain.AccountStats
	if err := r.db.QueryRow(ctx, query).Scan(&s.Students, &s.Employees, &s.Admins, &s.PendingApprovals); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *adminRepo) JobStats(ctx context.Context) (*domain.JobStats, error) {
	var s domain.JobStats
	err := r.db.QueryRow(ctx, `SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'open') FROM jobs`).Scan(&s.Total, &s.Open)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *adminRepo) ApplicationsByStatus(ctx context.Context) (map[string]int64, error) {
	return r.groupCount(ctx, `SELECT status, COUNT(*) FROM job_applications GROUP BY status`)
}

func (r *adminRepo) UpcomingInterviews(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM interviews WHERE status = 'scheduled' AND scheduled_at > NOW()`).Scan(&n)
	return n, err
}

func (r *adminRepo) AssessmentTestCount(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM assessment_tests`).Scan(&n)
	return n, err
}

func (r *adminRepo) InvitationsByStatus(ctx context.Context) (map[string]int64, error) {
	return r.groupCount(ctx, `SELECT status, COUNT(*) FROM assessment_invitations GROUP BY status`)
}

func (r *adminRepo) groupCount(ctx context.Context, query string) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
