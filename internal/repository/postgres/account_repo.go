package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-placement-portal/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type accountRepo struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) domain.AccountRepository {
	return &accountRepo{db: db}
}

const accountColumns = `id, email, password_hash, role, full_name, COALESCE(phone, ''), COALESCE(organization, ''),
	COALESCE(designation, ''), email_verified, is_approved, is_active, COALESCE(totp_secret, ''), totp_enabled,
	last_login_at, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.FullName, &a.Phone, &a.Organization,
		&a.Designation, &a.EmailVerified, &a.IsApproved, &a.IsActive, &a.TOTPSecret, &a.TOTPEnabled,
		&a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func insertAccount(ctx context.Context, q querier, a *domain.Account) error {
	query := `INSERT INTO accounts (id, email, password_hash, role, full_name, phone, organization, designation,
		email_verified, is_approved, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11, $12, $13)`
	_, err := q.Exec(ctx, query,
		a.ID, strings.ToLower(a.Email), a.PasswordHash, a.Role, a.FullName, a.Phone, a.Organization, a.Designation,
		a.EmailVerified, a.IsApproved, a.IsActive, a.CreatedAt, a.UpdatedAt,
	)
	return mapError(err)
}

func upsertProfile(ctx context.Context, q querier, p *domain.StudentProfile) error {
	query := `INSERT INTO student_profiles (account_id, roll_number, college, branch, graduation_year, cgpa, skills, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, 0), NULLIF($6, 0), $7, $8)
		ON CONFLICT (account_id) DO UPDATE SET
			roll_number = EXCLUDED.roll_number,
			college = EXCLUDED.college,
			branch = EXCLUDED.branch,
			graduation_year = EXCLUDED.graduation_year,
			cgpa = EXCLUDED.cgpa,
			skills = EXCLUDED.skills,
			updated_at = EXCLUDED.updated_at`
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	_, err := q.Exec(ctx, query,
		p.AccountID, p.RollNumber, p.College, p.Branch, p.GraduationYear, p.CGPA, pq.Array(skills), p.UpdatedAt,
	)
	return mapError(err)
}

func (r *accountRepo) Create(ctx context.Context, acc *domain.Account) error {
	return insertAccount(ctx, r.db, acc)
}

func (r *accountRepo) CreateStudent(ctx context.Context, acc *domain.Account, profile *domain.StudentProfile) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertAccount(ctx, tx, acc); err != nil {
		return err
	}
	profile.AccountID = acc.ID
	if err := upsertProfile(ctx, tx, profile); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *accountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, strings.ToLower(email)))
}

func (r *accountRepo) MarkEmailVerified(ctx context.Context, id string) error {
	return expectOne(r.db.Exec(ctx, `UPDATE accounts SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`, id))
}

func (r *accountRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return expectOne(r.db.Exec(ctx, `UPDATE accounts SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash))
}

func (r *accountRepo) SetApproved(ctx context.Context, id string, approved bool) error {
	return expectOne(r.db.Exec(ctx, `UPDATE accounts SET is_approved = $2, updated_at = NOW() WHERE id = $1`, id, approved))
}

func (r *accountRepo) SetActive(ctx context.Context, id string, active bool) error {
	return expectOne(r.db.Exec(ctx, `UPDATE accounts SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active))
}

func (r *accountRepo) SetTOTP(ctx context.Context, id, secret string, enabled bool) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE accounts SET totp_secret = NULLIF($2, ''), totp_enabled = $3, updated_at = NOW() WHERE id = $1`,
		id, secret, enabled,
	))
}

func (r *accountRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE accounts SET last_login_at = $2 WHERE id = $1`, id, at)
	return err
}

func (r *accountRepo) List(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, int64, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Role != "" {
		add("role = $%d", filter.Role)
	}
	switch filter.Status {
	case "pending":
		conds = append(conds, "is_approved = FALSE AND role = 'employee'")
	case "active":
		conds = append(conds, "is_active = TRUE")
	case "inactive":
		conds = append(conds, "is_active = FALSE")
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		add("(email ILIKE $%[1]d OR full_name ILIKE $%[1]d OR organization ILIKE $%[1]d)", "%"+q+"%")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, pageSize := domain.NormalizePage(filter.Page, filter.PageSize)
	args = append(args, pageSize, offset(page, pageSize))
	query := fmt.Sprintf(`SELECT %s FROM accounts%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		accountColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, total, rows.Err()
}

type authTokenRepo struct {
	db *pgxpool.Pool
}

func NewAuthTokenRepository(db *pgxpool.Pool) domain.AuthTokenRepository {
	return &authTokenRepo{db: db}
}

func (r *authTokenRepo) Create(ctx context.Context, t *domain.AuthToken) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO auth_tokens (token_hash, account_id, purpose, expires_at) VALUES ($1, $2, $3, $4)`,
		t.TokenHash, t.AccountID, t.Purpose, t.ExpiresAt,
	)
	return mapError(err)
}

func (r *authTokenRepo) Get(ctx context.Context, tokenHash, purpose string) (*domain.AuthToken, error) {
	var t domain.AuthToken
	err := r.db.QueryRow(ctx,
		`SELECT token_hash, account_id, purpose, expires_at, used_at FROM auth_tokens WHERE token_hash = $1 AND purpose = $2`,
		tokenHash, purpose,
	).Scan(&t.TokenHash, &t.AccountID, &t.Purpose, &t.ExpiresAt, &t.UsedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

func (r *authTokenRepo) MarkUsed(ctx context.Context, tokenHash string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE auth_tokens SET used_at = $2 WHERE token_hash = $1 AND used_at IS NULL`, tokenHash, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStateChanged
	}
	return nil
}
