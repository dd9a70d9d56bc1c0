package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yourusername/clarity-api/internal/model"
)

// RunRepo tracks free-tier run counters per subject. The subject is a
// user UUID string for logged-in users and "ip:<addr>" for guests.
type RunRepo struct {
	pool *pgxpool.Pool
}

func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Get returns the counter for a subject, nil if the subject never ran.
func (r *RunRepo) Get(ctx context.Context, subject string) (*model.RunCounter, error) {
	var c model.RunCounter
	err := r.pool.QueryRow(ctx, `
		SELECT subject, run_count, updated_at
		FROM free_runs
		WHERE subject = $1
	`, subject).Scan(&c.Subject, &c.RunCount, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting run counter: %w", err)
	}
	return &c, nil
}

// Increment bumps the counter and returns the new count.
func (r *RunRepo) Increment(ctx context.Context, subject string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		INSERT INTO free_runs (subject, run_count)
		VALUES ($1, 1)
		ON CONFLICT (subject) DO UPDATE
		SET run_count = free_runs.run_count + 1, updated_at = now()
		RETURNING run_count
	`, subject).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("incrementing run counter: %w", err)
	}
	return count, nil
}
