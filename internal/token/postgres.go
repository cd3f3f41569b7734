package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/tokenstall/internal/errs"
)

// PG is a PostgreSQL-backed token ledger. Balances and allowances live in the
// same database as the marketplace, so a purchase transaction covers both.
type PG struct{}

// NewPG constructs a PostgreSQL-backed token service.
func NewPG() *PG { return &PG{} }

var _ Service = (*PG)(nil)

// BalanceOf returns the current balance, 0 for unknown accounts.
func (t *PG) BalanceOf(ctx context.Context, q Querier, owner uuid.UUID) (int64, error) {
	const sel = `SELECT balance FROM token_accounts WHERE owner=$1`
	var bal int64
	err := q.QueryRow(ctx, sel, owner).Scan(&bal)
	switch {
	case err == nil:
		return bal, nil
	case errors.Is(err, pgx.ErrNoRows):
		return 0, nil
	default:
		return 0, err
	}
}

// Allowance returns what spender may move on owner's behalf, 0 when absent.
func (t *PG) Allowance(ctx context.Context, q Querier, owner, spender uuid.UUID) (int64, error) {
	const sel = `SELECT amount FROM token_allowances WHERE owner=$1 AND spender=$2`
	var amount int64
	err := q.QueryRow(ctx, sel, owner, spender).Scan(&amount)
	switch {
	case err == nil:
		return amount, nil
	case errors.Is(err, pgx.ErrNoRows):
		return 0, nil
	default:
		return 0, err
	}
}

// TransferFrom debits allowance and balance, then credits the recipient.
// A zero amount succeeds without touching any row.
func (t *PG) TransferFrom(ctx context.Context, q Querier, spender, owner, recipient uuid.UUID, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative amount: %w", errs.ErrTransferFailed)
	}
	if amount == 0 {
		return nil
	}

	const debitAllowance = `
UPDATE token_allowances SET amount = amount - $3
WHERE owner=$1 AND spender=$2 AND amount >= $3`
	tag, err := q.Exec(ctx, debitAllowance, owner, spender, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("allowance: %w", errs.ErrTransferFailed)
	}

	const debitBalance = `
UPDATE token_accounts SET balance = balance - $2
WHERE owner=$1 AND balance >= $2`
	tag, err = q.Exec(ctx, debitBalance, owner, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("balance: %w", errs.ErrTransferFailed)
	}

	const credit = `
INSERT INTO token_accounts (owner, balance) VALUES ($1, $2)
ON CONFLICT (owner) DO UPDATE SET balance = token_accounts.balance + EXCLUDED.balance`
	if _, err = q.Exec(ctx, credit, recipient, amount); err != nil {
		return err
	}
	return nil
}

// Approve sets (not adds to) the spender's allowance.
func (t *PG) Approve(ctx context.Context, q Querier, owner, spender uuid.UUID, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative allowance: %w", errs.ErrInvalidArgument)
	}
	const upsert = `
INSERT INTO token_allowances (owner, spender, amount) VALUES ($1, $2, $3)
ON CONFLICT (owner, spender) DO UPDATE SET amount = EXCLUDED.amount`
	_, err := q.Exec(ctx, upsert, owner, spender, amount)
	return err
}

// Mint credits freshly issued units to recipient.
func (t *PG) Mint(ctx context.Context, q Querier, recipient uuid.UUID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("non-positive amount: %w", errs.ErrInvalidArgument)
	}
	const credit = `
INSERT INTO token_accounts (owner, balance) VALUES ($1, $2)
ON CONFLICT (owner) DO UPDATE SET balance = token_accounts.balance + EXCLUDED.balance`
	_, err := q.Exec(ctx, credit, recipient, amount)
	return err
}
