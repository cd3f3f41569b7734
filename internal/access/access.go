// Package access supplies the administrator check consumed by the
// beneficiary-change operation and the platform-income view.
package access

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// Controller answers role questions about marketplace identities.
type Controller interface {
	// IsAdministrator reports whether the identity is the configured administrator.
	IsAdministrator(ctx context.Context, identity uuid.UUID) (bool, error)
}

type pgxRowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG resolves the administrator from the marketplace configuration row.
type PG struct{ pool pgxRowQuerier }

// NewPG constructs a config-backed access controller.
func NewPG(pool pgxRowQuerier) *PG { return &PG{pool: pool} }

var _ Controller = (*PG)(nil)

// IsAdministrator compares the identity against the configured administrator.
// A missing config row reads as "not an administrator".
func (c *PG) IsAdministrator(ctx context.Context, identity uuid.UUID) (bool, error) {
	const q = `SELECT admin_account FROM market_config WHERE id=1`
	var admin uuid.UUID
	err := c.pool.QueryRow(ctx, q).Scan(&admin)
	switch {
	case err == nil:
		return identity != uuid.Nil && identity == admin, nil
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	default:
		return false, err
	}
}
