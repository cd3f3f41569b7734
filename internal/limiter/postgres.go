package limiter

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG keeps the failure counters in the auth_limiter table. The window resets
// the counter when attempts are spread far enough apart; the block is a flat
// lockout once the threshold is crossed.
type PG struct {
	pool     pgxQuerier
	window   time.Duration
	maxFails int
	blockFor time.Duration
}

// NewPG constructs a limiter over a live connection pool.
func NewPG(pool *pgxpool.Pool, window time.Duration, maxFails int, blockFor time.Duration) *PG {
	return NewPGWithQuerier(pool, window, maxFails, blockFor)
}

// NewPGWithQuerier constructs a limiter over any Exec/QueryRow implementation.
func NewPGWithQuerier(q pgxQuerier, window time.Duration, maxFails int, blockFor time.Duration) *PG {
	return &PG{pool: q, window: window, maxFails: maxFails, blockFor: blockFor}
}

// Allow checks for an active block on (username, ip).
func (l *PG) Allow(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until, updated_at FROM auth_limiter WHERE username=$1 AND ip_hash=$2`
	var blockedUntil, updatedAt time.Time
	err := l.pool.QueryRow(ctx, q, username, ipHash).Scan(&blockedUntil, &updatedAt)
	if err == pgx.ErrNoRows {
		return true, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	if remaining := time.Until(blockedUntil); remaining > 0 {
		return false, remaining, nil
	}
	return true, 0, nil
}

// Success resets the counter and clears any block.
func (l *PG) Success(ctx context.Context, username string, ipHash []byte) error {
	const q = `
INSERT INTO auth_limiter (username, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1,$2,0,'epoch',now())
ON CONFLICT (username, ip_hash)
DO UPDATE SET fail_count=0, blocked_until='epoch', updated_at=now()`
	_, err := l.pool.Exec(ctx, q, username, ipHash)
	return err
}

// Failure bumps the counter, restarting it when the previous attempt fell
// outside the window, and blocks the pair once maxFails is reached.
func (l *PG) Failure(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	const bump = `
INSERT INTO auth_limiter (username, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1,$2,1,'epoch',now())
ON CONFLICT (username, ip_hash) DO UPDATE
SET
  fail_count = CASE WHEN EXCLUDED.updated_at - auth_limiter.updated_at > $3::interval THEN 1 ELSE auth_limiter.fail_count + 1 END,
  updated_at = now()
RETURNING fail_count`
	var fails int
	if err := l.pool.QueryRow(ctx, bump, username, ipHash, l.window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.maxFails {
		return false, 0, nil
	}

	const block = `UPDATE auth_limiter SET blocked_until=$3 WHERE username=$1 AND ip_hash=$2`
	if _, err := l.pool.Exec(ctx, block, username, ipHash, time.Now().Add(l.blockFor)); err != nil {
		return false, 0, err
	}
	return true, l.blockFor, nil
}
