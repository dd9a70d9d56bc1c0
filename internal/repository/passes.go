package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yourusername/clarity-api/internal/model"
)

type PassRepo struct {
	pool *pgxpool.Pool
}

func NewPassRepo(pool *pgxpool.Pool) *PassRepo {
	return &PassRepo{pool: pool}
}

// FindActiveByUserID returns the user's unexpired pass with the latest
// expiry, or nil when none is active.
func (r *PassRepo) FindActiveByUserID(ctx context.Context, userID uuid.UUID) (*model.Pass, error) {
	var p model.Pass
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, tier, status, stripe_session_id, expires_at, created_at
		FROM passes
		WHERE user_id = $1 AND status = $2 AND expires_at > now()
		ORDER BY expires_at DESC
		LIMIT 1
	`, userID, model.PassStatusActive).Scan(
		&p.ID, &p.UserID, &p.Tier, &p.Status, &p.StripeSessionID,
		&p.ExpiresAt, &p.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding active pass: %w", err)
	}
	return &p, nil
}

// Create records a newly purchased pass
func (r *PassRepo) Create(ctx context.Context, userID uuid.UUID, tier, stripeSessionID string, expiresAt time.Time) (*model.Pass, error) {
	var p model.Pass
	err := r.pool.QueryRow(ctx, `
		INSERT INTO passes (user_id, tier, status, stripe_session_id, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, tier, status, stripe_session_id, expires_at, created_at
	`, userID, tier, model.PassStatusActive, stripeSessionID, expiresAt).Scan(
		&p.ID, &p.UserID, &p.Tier, &p.Status, &p.StripeSessionID,
		&p.ExpiresAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating pass: %w", err)
	}
	return &p, nil
}

// ExpireStale flips active passes whose window has closed. Run
// opportunistically; the active lookup already filters by expiry.
func (r *PassRepo) ExpireStale(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE passes
		SET status = $1
		WHERE status = $2 AND expires_at <= now()
	`, model.PassStatusExpired, model.PassStatusActive)
	if err != nil {
		return 0, fmt.Errorf("expiring stale passes: %w", err)
	}
	return tag.RowsAffected(), nil
}
