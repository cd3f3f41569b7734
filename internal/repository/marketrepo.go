// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/tokenstall/internal/model"
)

// MarketRepository owns all marketplace state: items, purchases, incomes and
// configuration. Every state-changing method is one atomic transaction; a
// failed precondition leaves no partial mutation behind.
type MarketRepository interface {
	// InitConfig inserts the configuration row once; later calls return ErrAlreadyExists.
	InitConfig(ctx context.Context, cfg model.MarketConfig) error

	// GetConfig loads the configuration row.
	GetConfig(ctx context.Context) (model.MarketConfig, error)

	// SetBeneficiary atomically replaces the fee beneficiary and returns the
	// previous one. Rejects the market's own account and unchanged values.
	SetBeneficiary(ctx context.Context, newBeneficiary uuid.UUID) (uuid.UUID, error)

	// CreateItem allocates the next sequential item id and stores the listing.
	CreateItem(ctx context.Context, seller uuid.UUID, price int64, title, redirectTo string, now time.Time) (model.Item, error)

	// UpdateItem overwrites title and redirect target; price, seller, creation
	// time and purchase count stay untouched. Only the seller may call it.
	UpdateItem(ctx context.Context, caller uuid.UUID, itemID int64, title, redirectTo string) error

	// GetItem loads a single item.
	GetItem(ctx context.Context, itemID int64) (*model.Item, error)

	// Purchase executes the whole buy transaction: existence, balance and
	// allowance checks, the net and fee transfers, and all bookkeeping, in one
	// serializable unit. Returns the purchase record and the item's seller.
	Purchase(ctx context.Context, buyer uuid.UUID, itemID int64, now time.Time) (model.Purchase, uuid.UUID, error)

	// ListItemsBySeller returns a seller's items in listing order.
	ListItemsBySeller(ctx context.Context, seller uuid.UUID) ([]model.Item, error)

	// ListPurchasesByBuyer returns a buyer's purchases in purchase order.
	ListPurchasesByBuyer(ctx context.Context, buyer uuid.UUID) ([]model.Purchase, error)

	// ListItemPurchases returns an item's purchase history; only its seller may read it.
	ListItemPurchases(ctx context.Context, caller uuid.UUID, itemID int64) ([]model.ItemPurchase, error)

	// SellerIncome returns the running net income of a seller (0 if never sold).
	SellerIncome(ctx context.Context, seller uuid.UUID) (int64, error)

	// PlatformIncome returns the total fees collected.
	PlatformIncome(ctx context.Context) (int64, error)
}
