package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-placement-portal/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type assessmentTestRepo struct {
	db *pgxpool.Pool
}

func NewAssessmentTestRepository(db *pgxpool.Pool) domain.AssessmentTestRepository {
	return &assessmentTestRepo{db: db}
}

const assessmentTestColumns = `id, organization, created_by, title, description, duration_minutes, pass_percentage,
	max_tab_switches, questions, results_declared, declared_at, created_at, updated_at`

func scanAssessmentTest(row pgx.Row) (*domain.AssessmentTest, error) {
	var (
		t         domain.AssessmentTest
		questions []byte
	)
	err := row.Scan(
		&t.ID, &t.Organization, &t.CreatedBy, &t.Title, &t.Description, &t.DurationMinutes, &t.PassPercentage,
		&t.MaxTabSwitches, &questions, &t.ResultsDeclared, &t.DeclaredAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	if err := json.Unmarshal(questions, &t.Questions); err != nil {
		return nil, fmt.Errorf("decode questions for test %d: %w", t.ID, err)
	}
	return &t, nil
}

func (r *assessmentTestRepo) Create(ctx context.Context, t *domain.AssessmentTest) error {
	questions, err := json.Marshal(t.Questions)
	if err != nil {
		return err
	}
	query := `INSERT INTO assessment_tests (organization, created_by, title, description, duration_minutes, pass_percentage,
		max_tab_switches, questions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10) RETURNING id`
	err = r.db.QueryRow(ctx, query,
		t.Organization, t.CreatedBy, t.Title, t.Description, t.DurationMinutes, t.PassPercentage,
		t.MaxTabSwitches, string(questions), t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	return mapError(err)
}

func (r *assessmentTestRepo) GetByID(ctx context.Context, id int64) (*domain.AssessmentTest, error) {
	return scanAssessmentTest(r.db.QueryRow(ctx, `SELECT `+assessmentTestColumns+` FROM assessment_tests WHERE id = $1`, id))
}

func (r *assessmentTestRepo) Update(ctx context.Context, t *domain.AssessmentTest) error {
	questions, err := json.Marshal(t.Questions)
	if err != nil {
		return err
	}
	query := `UPDATE assessment_tests SET title = $2, description = $3, duration_minutes = $4, pass_percentage = $5,
		max_tab_switches = $6, questions = $7::jsonb, updated_at = $8
		WHERE id = $1`
	return expectOne(r.db.Exec(ctx, query,
		t.ID, t.Title, t.Description, t.DurationMinutes, t.PassPercentage, t.MaxTabSwitches, string(questions), t.UpdatedAt,
	))
}

func (r *assessmentTestRepo) Delete(ctx context.Context, id int64) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM assessment_tests WHERE id = $1`, id))
}

func (r *assessmentTestRepo) List(ctx context.Context, organization string) ([]domain.AssessmentTest, error) {
	query := `SELECT ` + assessmentTestColumns + ` FROM assessment_tests
		WHERE ($1 = '' OR organization = $1) ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, organization)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []domain.AssessmentTest
	for rows.Next() {
		t, err := scanAssessmentTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, *t)
	}
	return tests, rows.Err()
}

func (r *assessmentTestRepo) MarkResultsDeclared(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE assessment_tests SET results_declared = TRUE, declared_at = $2, updated_at = $2 WHERE id = $1`, id, at)
	return err
}

type assessmentInvitationRepo struct {
	db *pgxpool.Pool
}

func NewAssessmentInvitationRepository(db *pgxpool.Pool) domain.AssessmentInvitationRepository {
	return &assessmentInvitationRepo{db: db}
}

const assessmentInvitationColumns = `id, test_id, email, candidate_name, token, status, expires_at, started_at,
	completed_at, tab_switch_count, created_at`

func scanAssessmentInvitation(row pgx.Row) (*domain.AssessmentInvitation, error) {
	var inv domain.AssessmentInvitation
	err := row.Scan(
		&inv.ID, &inv.TestID, &inv.Email, &inv.CandidateName, &inv.Token, &inv.Status, &inv.ExpiresAt, &inv.StartedAt,
		&inv.CompletedAt, &inv.TabSwitchCount, &inv.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &inv, nil
}

func (r *assessmentInvitationRepo) CreateBatch(ctx context.Context, invitations []*domain.AssessmentInvitation) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO assessment_invitations (test_id, email, candidate_name, token, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	for _, inv := range invitations {
		err := tx.QueryRow(ctx, query,
			inv.TestID, inv.Email, inv.CandidateName, inv.Token, inv.Status, inv.ExpiresAt, inv.CreatedAt,
		).Scan(&inv.ID)
		if err != nil {
			return mapError(err)
		}
	}
	return tx.Commit(ctx)
}

func (r *assessmentInvitationRepo) GetByToken(ctx context.Context, token string) (*domain.AssessmentInvitation, error) {
	return scanAssessmentInvitation(r.db.QueryRow(ctx,
		`SELECT `+assessmentInvitationColumns+` FROM assessment_invitations WHERE token = $1`, token))
}

func (r *assessmentInvitationRepo) ListByTest(ctx context.Context, testID int64) ([]domain.AssessmentInvitation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+assessmentInvitationColumns+` FROM assessment_invitations WHERE test_id = $1 ORDER BY created_at`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AssessmentInvitation
	for rows.Next() {
		inv, err := scanAssessmentInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (r *assessmentInvitationRepo) OpenEmails(ctx context.Context, testID int64) (map[string]bool, error) {
	rows, err := r.db.Query(ctx,
		`SELECT LOWER(email) FROM assessment_invitations
		 WHERE test_id = $1 AND status IN ('Pending', 'Started') AND (status = 'Started' OR expires_at > NOW())`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := make(map[string]bool)
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		emails[e] = true
	}
	return emails, rows.Err()
}

func (r *assessmentInvitationRepo) MarkStarted(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE assessment_invitations SET status = 'Started', started_at = $2 WHERE id = $1 AND status = 'Pending'`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStateChanged
	}
	return nil
}

func (r *assessmentInvitationRepo) MarkExpired(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE assessment_invitations SET status = 'Expired' WHERE id = $1 AND status IN ('Pending', 'Started')`, id)
	return err
}

func (r *assessmentInvitationRepo) IncrementTabSwitch(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`UPDATE assessment_invitations SET tab_switch_count = tab_switch_count + 1
		 WHERE id = $1 AND status = 'Started' RETURNING tab_switch_count`, id,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrStateChanged
		}
		return 0, err
	}
	return count, nil
}

func (r *assessmentInvitationRepo) MarkCompleted(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE assessment_invitations SET status = 'Completed', completed_at = $2 WHERE id = $1 AND status <> 'Completed'`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStateChanged
	}
	return nil
}

// ExpireStale closes pending invitations past expiry and started attempts past their window.
func (r *assessmentInvitationRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	query := fmt.Sprintf(`UPDATE assessment_invitations ai SET status = 'Expired'
		FROM assessment_tests t
		WHERE t.id = ai.test_id AND (
			(ai.status = 'Pending' AND ai.expires_at <= $1) OR
			(ai.status = 'Started' AND ai.started_at + make_interval(mins => t.duration_minutes) + interval '%d seconds' <= $1)
		)`, int(domain.SubmissionGrace.Seconds()))
	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type assessmentVerificationRepo struct {
	db *pgxpool.Pool
}

func NewAssessmentVerificationRepository(db *pgxpool.Pool) domain.AssessmentVerificationRepository {
	return &assessmentVerificationRepo{db: db}
}

func (r *assessmentVerificationRepo) Upsert(ctx context.Context, v *domain.AssessmentVerification) (*domain.AssessmentVerification, error) {
	previous, err := r.GetByInvitation(ctx, v.InvitationID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	query := `INSERT INTO assessment_verifications (invitation_id, test_id, face_image_url, face_public_id,
		id_card_image_url, id_card_public_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (invitation_id) DO UPDATE SET
			face_image_url = EXCLUDED.face_image_url,
			face_public_id = EXCLUDED.face_public_id,
			id_card_image_url = EXCLUDED.id_card_image_url,
			id_card_public_id = EXCLUDED.id_card_public_id,
			created_at = EXCLUDED.created_at
		RETURNING id`
	err = r.db.QueryRow(ctx, query,
		v.InvitationID, v.TestID, v.FaceImageURL, v.FacePublicID, v.IDCardImageURL, v.IDCardPublicID, v.CreatedAt,
	).Scan(&v.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return previous, nil
}

const verificationSelect = `SELECT v.id, v.invitation_id, v.test_id, v.face_image_url, v.face_public_id,
		v.id_card_image_url, v.id_card_public_id, v.created_at, ai.email, ai.candidate_name
	FROM assessment_verifications v
	JOIN assessment_invitations ai ON ai.id = v.invitation_id`

func scanVerification(row pgx.Row) (*domain.AssessmentVerification, error) {
	var v domain.AssessmentVerification
	err := row.Scan(
		&v.ID, &v.InvitationID, &v.TestID, &v.FaceImageURL, &v.FacePublicID,
		&v.IDCardImageURL, &v.IDCardPublicID, &v.CreatedAt, &v.Email, &v.CandidateName,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &v, nil
}

func (r *assessmentVerificationRepo) GetByInvitation(ctx context.Context, invitationID int64) (*domain.AssessmentVerification, error) {
	return scanVerification(r.db.QueryRow(ctx, verificationSelect+` WHERE v.invitation_id = $1`, invitationID))
}

func (r *assessmentVerificationRepo) ListByTest(ctx context.Context, testID int64) ([]domain.AssessmentVerification, error) {
	rows, err := r.db.Query(ctx, verificationSelect+` WHERE v.test_id = $1 ORDER BY v.created_at`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AssessmentVerification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

type assessmentResultRepo struct {
	db *pgxpool.Pool
}

func NewAssessmentResultRepository(db *pgxpool.Pool) domain.AssessmentResultRepository {
	return &assessmentResultRepo{db: db}
}

const assessmentResultColumns = `id, test_id, invitation_id, email, candidate_name, answers, score, total_marks, percentage,
	passed, tab_switches, auto_submitted, time_taken_seconds, result_declared, declared_at, submitted_at`

func scanResult(row pgx.Row) (*domain.AssessmentResult, error) {
	var (
		res     domain.AssessmentResult
		answers []byte
	)
	err := row.Scan(
		&res.ID, &res.TestID, &res.InvitationID, &res.Email, &res.CandidateName, &answers, &res.Score, &res.TotalMarks,
		&res.Percentage, &res.Passed, &res.TabSwitches, &res.AutoSubmitted, &res.TimeTakenSeconds,
		&res.ResultDeclared, &res.DeclaredAt, &res.SubmittedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &res.Answers); err != nil {
			return nil, err
		}
	}
	return &res, nil
}

func (r *assessmentResultRepo) Create(ctx context.Context, res *domain.AssessmentResult) error {
	answers := res.Answers
	if answers == nil {
		answers = map[string]int{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	query := `INSERT INTO assessment_results (test_id, invitation_id, email, candidate_name, answers, score, total_marks,
		percentage, passed, tab_switches, auto_submitted, time_taken_seconds, submitted_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	err = r.db.QueryRow(ctx, query,
		res.TestID, res.InvitationID, res.Email, res.CandidateName, string(raw), res.Score, res.TotalMarks,
		res.Percentage, res.Passed, res.TabSwitches, res.AutoSubmitted, res.TimeTakenSeconds, res.SubmittedAt,
	).Scan(&res.ID)
	return mapError(err)
}

// resultFilterWhere numbers placeholders in the order args are appended.
func resultFilterWhere(testID int64, filter domain.ResultFilter) (string, []any) {
	conds := []string{"test_id = $1"}
	args := []any{testID}
	if filter.Passed != nil {
		args = append(args, *filter.Passed)
		conds = append(conds, fmt.Sprintf("passed = $%d", len(args)))
	}
	if filter.MinScore != nil {
		args = append(args, *filter.MinScore)
		conds = append(conds, fmt.Sprintf("score >= $%d", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

func (r *assessmentResultRepo) ListByTest(ctx context.Context, testID int64, filter domain.ResultFilter) ([]domain.AssessmentResult, error) {
	where, args := resultFilterWhere(testID, filter)
	query := `SELECT ` + assessmentResultColumns + ` FROM assessment_results WHERE ` +
		where + ` ORDER BY percentage DESC, submitted_at`
	return r.list(ctx, query, args...)
}

// DeclarePending is a single guarded UPDATE, so concurrent declares never return the same row twice.
func (r *assessmentResultRepo) DeclarePending(ctx context.Context, testID int64, at time.Time) ([]domain.AssessmentResult, error) {
	query := `UPDATE assessment_results SET result_declared = TRUE, declared_at = $2
		WHERE test_id = $1 AND result_declared = FALSE
		RETURNING ` + assessmentResultColumns
	return r.list(ctx, query, testID, at)
}

func (r *assessmentResultRepo) list(ctx context.Context, query string, args ...any) ([]domain.AssessmentResult, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AssessmentResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}
