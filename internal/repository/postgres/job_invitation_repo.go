package postgres

import (
	"context"
	"time"

	"go-placement-portal/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type jobInvitationRepo struct {
	db *pgxpool.Pool
}

func NewJobInvitationRepository(db *pgxpool.Pool) domain.JobInvitationRepository {
	return &jobInvitationRepo{db: db}
}

func (r *jobInvitationRepo) CreateBatch(ctx context.Context, invitations []*domain.JobInvitation) error {
	batch := &pgx.Batch{}
	query := `INSERT INTO job_invitations (job_id, email, token, status, invited_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	for _, inv := range invitations {
		batch.Queue(query, inv.JobID, inv.Email, inv.Token, inv.Status, inv.InvitedBy, inv.ExpiresAt, inv.CreatedAt)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()
	for _, inv := range invitations {
		if err := br.QueryRow().Scan(&inv.ID); err != nil {
			return mapError(err)
		}
	}
	return nil
}

func (r *jobInvitationRepo) GetByToken(ctx context.Context, token string) (*domain.JobInvitation, error) {
	query := `SELECT id, job_id, email, token, status, invited_by, expires_at, accepted_at, created_at
		FROM job_invitations WHERE token = $1`
	var inv domain.JobInvitation
	err := r.db.QueryRow(ctx, query, token).Scan(
		&inv.ID, &inv.JobID, &inv.Email, &inv.Token, &inv.Status, &inv.InvitedBy, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &inv, nil
}

func (r *jobInvitationRepo) MarkExpired(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE job_invitations SET status = 'Expired' WHERE id = $1 AND status = 'Pending'`, id)
	return err
}

func (r *jobInvitationRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE job_invitations SET status = 'Expired' WHERE status = 'Pending' AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *jobInvitationRepo) AcceptAndApply(ctx context.Context, p domain.AcceptInvitationParams) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM job_invitations WHERE id = $1 FOR UPDATE`, p.InvitationID).Scan(&status)
	if err != nil {
		return mapError(err)
	}
	if status != domain.InvitationStatusPending {
		return domain.ErrStateChanged
	}

	if p.NewAccount != nil {
		if err := insertAccount(ctx, tx, p.NewAccount); err != nil {
			return emailTaken(err)
		}
		if p.NewProfile != nil {
			p.NewProfile.AccountID = p.NewAccount.ID
			if err := upsertProfile(ctx, tx, p.NewProfile); err != nil {
				return err
			}
		}
	}

	if err := insertApplication(ctx, tx, p.Application); err != nil {
		return err
	}
	if err := incrementCounter(ctx, tx, "applicant_count", p.Application.JobID, 1); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE job_invitations SET status = 'Accepted', accepted_at = $2 WHERE id = $1`,
		p.InvitationID, p.AcceptedAt,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
