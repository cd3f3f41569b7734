package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/tokenstall/internal/errs"
	"github.com/and161185/tokenstall/internal/model"
	"github.com/and161185/tokenstall/internal/token"
)

// MarketRepo implements MarketRepository using PostgreSQL. The token service
// is bound at construction and never swapped afterwards; inside a purchase it
// operates on the repo's own transaction.
type MarketRepo struct {
	db  *DB
	tok token.Service
}

// NewMarketRepo constructs a market repository over the given token service.
func NewMarketRepo(db *DB, tok token.Service) *MarketRepo {
	return &MarketRepo{db: db, tok: tok}
}

// InitConfig inserts the single configuration row; the beneficiary starts as
// the administrator. Safe to call on every boot.
func (r *MarketRepo) InitConfig(ctx context.Context, cfg model.MarketConfig) error {
	const ins = `
INSERT INTO market_config (id, market_account, service_fee, beneficiary, admin_account)
VALUES (1, $1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`
	tag, err := r.db.Pool.Exec(ctx, ins, cfg.MarketAccount, cfg.ServiceFee, cfg.Beneficiary, cfg.Admin)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrAlreadyExists
	}
	return nil
}

// GetConfig loads the configuration row.
func (r *MarketRepo) GetConfig(ctx context.Context) (model.MarketConfig, error) {
	const sel = `
SELECT market_account, service_fee, beneficiary, admin_account, platform_income, next_item_id, next_purchase_id
FROM market_config WHERE id=1`
	var cfg model.MarketConfig
	err := r.db.Pool.QueryRow(ctx, sel).Scan(
		&cfg.MarketAccount, &cfg.ServiceFee, &cfg.Beneficiary, &cfg.Admin,
		&cfg.PlatformIncome, &cfg.NextItemID, &cfg.NextPurchaseID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MarketConfig{}, errs.ErrNotFound
		}
		return model.MarketConfig{}, err
	}
	return cfg, nil
}

// SetBeneficiary replaces the beneficiary under the config row lock and
// returns the previous value.
func (r *MarketRepo) SetBeneficiary(ctx context.Context, newBeneficiary uuid.UUID) (old uuid.UUID, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return uuid.Nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const sel = `SELECT market_account, beneficiary FROM market_config WHERE id=1 FOR UPDATE`
	var marketAccount, current uuid.UUID
	if err = tx.QueryRow(ctx, sel).Scan(&marketAccount, &current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, errs.ErrNotFound
		}
		return uuid.Nil, err
	}
	if newBeneficiary == marketAccount {
		return uuid.Nil, fmt.Errorf("beneficiary is the market itself: %w", errs.ErrInvalidArgument)
	}
	if newBeneficiary == current {
		return uuid.Nil, errs.ErrNoOp
	}

	const upd = `UPDATE market_config SET beneficiary=$1 WHERE id=1`
	if _, err = tx.Exec(ctx, upd, newBeneficiary); err != nil {
		return uuid.Nil, err
	}
	return current, nil
}

// CreateItem allocates the next item id from the config-row counter and
// inserts the listing. The row lock serializes id allocation.
func (r *MarketRepo) CreateItem(
	ctx context.Context, seller uuid.UUID, price int64, title, redirectTo string, now time.Time,
) (it model.Item, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Item{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const sel = `SELECT next_item_id FROM market_config WHERE id=1 FOR UPDATE`
	var id int64
	if err = tx.QueryRow(ctx, sel).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Item{}, errs.ErrNotFound
		}
		return model.Item{}, err
	}

	const ins = `
INSERT INTO items (id, seller, title, redirect_to, price, created_at, purchase_count)
VALUES ($1,$2,$3,$4,$5,$6,0)`
	if _, err = tx.Exec(ctx, ins, id, seller, title, redirectTo, price, now); err != nil {
		return model.Item{}, err
	}

	const bump = `UPDATE market_config SET next_item_id = next_item_id + 1 WHERE id=1`
	if _, err = tx.Exec(ctx, bump); err != nil {
		return model.Item{}, err
	}

	return model.Item{
		ID: id, Seller: seller, Title: title, RedirectTo: redirectTo,
		Price: price, CreatedAt: now, PurchaseCount: 0,
	}, nil
}

// UpdateItem overwrites title and redirect target for the item's seller only.
func (r *MarketRepo) UpdateItem(ctx context.Context, caller uuid.UUID, itemID int64, title, redirectTo string) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const sel = `SELECT seller FROM items WHERE id=$1 FOR UPDATE`
	var seller uuid.UUID
	if err = tx.QueryRow(ctx, sel, itemID).Scan(&seller); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.ErrNotFound
		}
		return err
	}
	if seller != caller {
		return errs.ErrUnauthorized
	}

	const upd = `UPDATE items SET title=$2, redirect_to=$3 WHERE id=$1`
	if _, err = tx.Exec(ctx, upd, itemID, title, redirectTo); err != nil {
		return err
	}
	return nil
}

// GetItem loads a single item.
func (r *MarketRepo) GetItem(ctx context.Context, itemID int64) (*model.Item, error) {
	const sel = `
SELECT id, seller, title, redirect_to, price, created_at, purchase_count
FROM items WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, sel, itemID)
	var it model.Item
	if err := row.Scan(&it.ID, &it.Seller, &it.Title, &it.RedirectTo, &it.Price, &it.CreatedAt, &it.PurchaseCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

// Purchase is the core buy transaction. Check order is fixed: item existence,
// buyer balance, allowance; then the net and fee transfers; then bookkeeping.
// The config row lock serializes every purchase against all other state
// changes, and the token transfers run on the same transaction, so a failure
// at any step rolls the whole unit back.
func (r *MarketRepo) Purchase(
	ctx context.Context, buyer uuid.UUID, itemID int64, now time.Time,
) (p model.Purchase, seller uuid.UUID, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Purchase{}, uuid.Nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const selCfg = `
SELECT market_account, service_fee, beneficiary, next_purchase_id
FROM market_config WHERE id=1 FOR UPDATE`
	var (
		marketAccount uuid.UUID
		feePercent    int
		beneficiary   uuid.UUID
		purchaseID    int64
	)
	if err = tx.QueryRow(ctx, selCfg).Scan(&marketAccount, &feePercent, &beneficiary, &purchaseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Purchase{}, uuid.Nil, errs.ErrNotFound
		}
		return model.Purchase{}, uuid.Nil, err
	}

	const selItem = `SELECT seller, title, price FROM items WHERE id=$1 FOR UPDATE`
	var (
		title string
		price int64
	)
	if err = tx.QueryRow(ctx, selItem, itemID).Scan(&seller, &title, &price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Purchase{}, uuid.Nil, errs.ErrNotFound
		}
		return model.Purchase{}, uuid.Nil, err
	}

	var balance int64
	if balance, err = r.tok.BalanceOf(ctx, tx, buyer); err != nil {
		return model.Purchase{}, uuid.Nil, err
	}
	if balance < price {
		err = errs.ErrInsufficientBalance
		return model.Purchase{}, uuid.Nil, err
	}

	var allowance int64
	if allowance, err = r.tok.Allowance(ctx, tx, buyer, marketAccount); err != nil {
		return model.Purchase{}, uuid.Nil, err
	}
	if allowance < price {
		err = errs.ErrInsufficientAllowance
		return model.Purchase{}, uuid.Nil, err
	}

	// Floor division: the fee may come out as 0 for very small prices, in
	// which case the seller receives the full price.
	fee := price * int64(feePercent) / 100
	net := price - fee

	if err = r.tok.TransferFrom(ctx, tx, marketAccount, buyer, seller, net); err != nil {
		return model.Purchase{}, uuid.Nil, err
	}
	if err = r.tok.TransferFrom(ctx, tx, marketAccount, buyer, beneficiary, fee); err != nil {
		return model.Purchase{}, uuid.Nil, err
	}

	const insPurchase = `
INSERT INTO purchases (id, item_id, buyer, title, price, purchased_at)
VALUES ($1,$2,$3,$4,$5,$6)`
	if _, err = tx.Exec(ctx, insPurchase, purchaseID, itemID, buyer, title, price, now); err != nil {
		return model.Purchase{}, uuid.Nil, err
	}

	const bumpItem = `UPDATE items SET purchase_count = purchase_count + 1 WHERE id=$1`
	if _, err = tx.Exec(ctx, bumpItem, itemID); err != nil {
		return model.Purchase{}, uuid.Nil, err
	}

	const addIncome = `
INSERT INTO seller_income (seller, total) VALUES ($1, $2)
ON CONFLICT (seller) DO UPDATE SET total = seller_income.total + EXCLUDED.total`
	if _, err = tx.Exec(ctx, addIncome, seller, net); err != nil {
		return model.Purchase{}, uuid.Nil, err
	}

	const bumpCfg = `
UPDATE market_config SET platform_income = platform_income + $1, next_purchase_id = next_purchase_id + 1 WHERE id=1`
	if _, err = tx.Exec(ctx, bumpCfg, fee); err != nil {
		return model.Purchase{}, uuid.Nil, err
	}

	return model.Purchase{
		ID: purchaseID, ItemID: itemID, Buyer: buyer,
		Title: title, Price: price, Date: now,
	}, seller, nil
}

// ListItemsBySeller returns the seller's items in listing order.
func (r *MarketRepo) ListItemsBySeller(ctx context.Context, seller uuid.UUID) ([]model.Item, error) {
	const q = `
SELECT id, seller, title, redirect_to, price, created_at, purchase_count
FROM items
WHERE seller=$1
ORDER BY id ASC`
	rows, err := r.db.Pool.Query(ctx, q, seller)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Item
	for rows.Next() {
		var it model.Item
		if err = rows.Scan(&it.ID, &it.Seller, &it.Title, &it.RedirectTo, &it.Price, &it.CreatedAt, &it.PurchaseCount); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListPurchasesByBuyer returns the buyer's purchases in purchase order.
func (r *MarketRepo) ListPurchasesByBuyer(ctx context.Context, buyer uuid.UUID) ([]model.Purchase, error) {
	const q = `
SELECT id, item_id, buyer, title, price, purchased_at
FROM purchases
WHERE buyer=$1
ORDER BY id ASC`
	rows, err := r.db.Pool.Query(ctx, q, buyer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Purchase
	for rows.Next() {
		var p model.Purchase
		if err = rows.Scan(&p.ID, &p.ItemID, &p.Buyer, &p.Title, &p.Price, &p.Date); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListItemPurchases returns the purchase history of an item to its seller.
func (r *MarketRepo) ListItemPurchases(ctx context.Context, caller uuid.UUID, itemID int64) ([]model.ItemPurchase, error) {
	const selSeller = `SELECT seller FROM items WHERE id=$1`
	var seller uuid.UUID
	if err := r.db.Pool.QueryRow(ctx, selSeller, itemID).Scan(&seller); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	if seller != caller {
		return nil, errs.ErrUnauthorized
	}

	const q = `
SELECT id, buyer, purchased_at
FROM purchases
WHERE item_id=$1
ORDER BY id ASC`
	rows, err := r.db.Pool.Query(ctx, q, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ItemPurchase
	for rows.Next() {
		var p model.ItemPurchase
		if err = rows.Scan(&p.ID, &p.Buyer, &p.Date); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SellerIncome returns the seller's accumulated net proceeds.
func (r *MarketRepo) SellerIncome(ctx context.Context, seller uuid.UUID) (int64, error) {
	const q = `SELECT COALESCE((SELECT total FROM seller_income WHERE seller=$1), 0)`
	var total int64
	if err := r.db.Pool.QueryRow(ctx, q, seller).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// PlatformIncome returns the total fees collected so far.
func (r *MarketRepo) PlatformIncome(ctx context.Context) (int64, error) {
	const q = `SELECT platform_income FROM market_config WHERE id=1`
	var total int64
	if err := r.db.Pool.QueryRow(ctx, q).Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}
	return total, nil
}
