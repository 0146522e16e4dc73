package postgres

import (
	"context"

	"go-placement-portal/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type studentRepo struct {
	db *pgxpool.Pool
}

func NewStudentRepository(db *pgxpool.Pool) domain.StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) GetProfile(ctx context.Context, accountID string) (*domain.StudentProfile, error) {
	query := `SELECT account_id, COALESCE(roll_number, ''), COALESCE(college, ''), COALESCE(branch, ''),
		COALESCE(graduation_year, 0), COALESCE(cgpa, 0), skills, COALESCE(resume_url, ''), COALESCE(resume_public_id, ''), updated_at
		FROM student_profiles WHERE account_id = $1`

	var p domain.StudentProfile
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&p.AccountID, &p.RollNumber, &p.College, &p.Branch,
		&p.GraduationYear, &p.CGPA, pq.Array(&p.Skills), &p.ResumeURL, &p.ResumePublicID, &p.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *studentRepo) UpsertProfile(ctx context.Context, p *domain.StudentProfile) error {
	return upsertProfile(ctx, r.db, p)
}

func (r *studentRepo) UpdateContact(ctx context.Context, accountID, fullName, phone string) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE accounts SET full_name = COALESCE(NULLIF($2, ''), full_name), phone = NULLIF($3, ''), updated_at = NOW() WHERE id = $1`,
		accountID, fullName, phone,
	))
}

func (r *studentRepo) UpdateResume(ctx context.Context, accountID, url, publicID string) error {
	query := `INSERT INTO student_profiles (account_id, resume_url, resume_public_id, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (account_id) DO UPDATE SET resume_url = EXCLUDED.resume_url,
			resume_public_id = EXCLUDED.resume_public_id, updated_at = NOW()`
	_, err := r.db.Exec(ctx, query, accountID, url, publicID)
	return mapError(err)
}

func (r *studentRepo) ListForExport(ctx context.Context) ([]domain.StudentExportRow, error) {
	query := `SELECT a.id, a.email, a.full_name, COALESCE(a.phone, ''), a.email_verified, a.is_active, a.created_at,
			COALESCE(p.roll_number, ''), COALESCE(p.college, ''), COALESCE(p.branch, ''),
			COALESCE(p.graduation_year, 0), COALESCE(p.cgpa, 0), COALESCE(p.skills, '{}'), COALESCE(p.resume_url, ''),
			(SELECT COUNT(*) FROM job_applications ja WHERE ja.student_id = a.id)
		FROM accounts a
		LEFT JOIN student_profiles p ON p.account_id = a.id
		WHERE a.role = 'student'
		ORDER BY a.created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StudentExportRow
	for rows.Next() {
		var row domain.StudentExportRow
		if err := rows.Scan(
			&row.ID, &row.Email, &row.FullName, &row.Phone, &row.EmailVerified, &row.IsActive, &row.CreatedAt,
			&row.Profile.RollNumber, &row.Profile.College, &row.Profile.Branch,
			&row.Profile.GraduationYear, &row.Profile.CGPA, pq.Array(&row.Profile.Skills), &row.Profile.ResumeURL,
			&row.ApplicationCount,
		); err != nil {
			return nil, err
		}
		row.Role = domain.RoleStudent
		out = append(out, row)
	}
	return out, rows.Err()
}
