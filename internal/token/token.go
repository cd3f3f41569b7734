// Package token defines the fungible-token collaborator used by the marketplace
// for value movement. The marketplace never inspects token internals; it only
// calls the primitives below, and inside a purchase it hands the token service
// its own transaction so that transfers commit or roll back with the ledger.
package token

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the minimal query surface the token service needs. It is
// satisfied by pgx.Tx, *pgxpool.Pool and pgxmock pools, so token operations
// can join a caller-owned transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service is the fungible-token contract required of the collaborator.
// Amounts are in the smallest token unit.
type Service interface {
	// BalanceOf returns the balance of an account (0 for unknown accounts).
	BalanceOf(ctx context.Context, q Querier, owner uuid.UUID) (int64, error)

	// Allowance returns how much spender may move on owner's behalf.
	Allowance(ctx context.Context, q Querier, owner, spender uuid.UUID) (int64, error)

	// TransferFrom moves amount from owner to recipient on behalf of spender.
	// Requires allowance(owner, spender) >= amount and balance(owner) >= amount;
	// fails with ErrTransferFailed otherwise. Atomic per call.
	TransferFrom(ctx context.Context, q Querier, spender, owner, recipient uuid.UUID, amount int64) error

	// Approve sets the allowance of spender over owner's funds.
	Approve(ctx context.Context, q Querier, owner, spender uuid.UUID, amount int64) error

	// Mint credits freshly issued units to recipient.
	Mint(ctx context.Context, q Querier, recipient uuid.UUID, amount int64) error
}
