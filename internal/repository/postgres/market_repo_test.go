package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/tokenstall/internal/errs"
	"github.com/and161185/tokenstall/internal/model"
	"github.com/and161185/tokenstall/internal/token"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func newMarketRepo(t *testing.T) (*MarketRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	db, mock := newDB(t)
	return NewMarketRepo(db, token.NewPG()), mock
}

func TestMarketRepo_InitConfig(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	cfg := model.MarketConfig{
		MarketAccount: uuid.Must(uuid.NewV4()),
		ServiceFee:    3,
		Beneficiary:   uuid.Must(uuid.NewV4()),
		Admin:         uuid.Must(uuid.NewV4()),
	}

	mock.ExpectExec(`INSERT INTO market_config \(id, market_account, service_fee, beneficiary, admin_account\)`).
		WithArgs(cfg.MarketAccount, cfg.ServiceFee, cfg.Beneficiary, cfg.Admin).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.InitConfig(context.Background(), cfg))

	// second boot hits the conflict path
	mock.ExpectExec(`INSERT INTO market_config \(id, market_account, service_fee, beneficiary, admin_account\)`).
		WithArgs(cfg.MarketAccount, cfg.ServiceFee, cfg.Beneficiary, cfg.Admin).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	require.ErrorIs(t, r.InitConfig(context.Background(), cfg), errs.ErrAlreadyExists)
}

func TestMarketRepo_SetBeneficiary_OK(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	market := uuid.Must(uuid.NewV4())
	current := uuid.Must(uuid.NewV4())
	next := uuid.Must(uuid.NewV4())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT market_account, beneficiary FROM market_config WHERE id=1 FOR UPDATE`).
		WillReturnRows(pgxmock.NewRows([]string{"market_account", "beneficiary"}).AddRow(market, current))
	mock.ExpectExec(`UPDATE market_config SET beneficiary=\$1 WHERE id=1`).
		WithArgs(next).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	old, err := r.SetBeneficiary(context.Background(), next)
	require.NoError(t, err)
	require.Equal(t, current, old)
}

func TestMarketRepo_SetBeneficiary_SelfAndNoOp(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	market := uuid.Must(uuid.NewV4())
	current := uuid.Must(uuid.NewV4())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT market_account, beneficiary FROM market_config WHERE id=1 FOR UPDATE`).
		WillReturnRows(pgxmock.NewRows([]string{"market_account", "beneficiary"}).AddRow(market, current))
	mock.ExpectRollback()
	_, err := r.SetBeneficiary(context.Background(), market)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT market_account, beneficiary FROM market_config WHERE id=1 FOR UPDATE`).
		WillReturnRows(pgxmock.NewRows([]string{"market_account", "beneficiary"}).AddRow(market, current))
	mock.ExpectRollback()
	_, err = r.SetBeneficiary(context.Background(), current)
	require.ErrorIs(t, err, errs.ErrNoOp)
}

func TestMarketRepo_CreateItem_SequentialID(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	seller := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT next_item_id FROM market_config WHERE id=1 FOR UPDATE`).
		WillReturnRows(pgxmock.NewRows([]string{"next_item_id"}).AddRow(int64(0)))
	mock.ExpectExec(`INSERT INTO items \(id, seller, title, redirect_to, price, created_at, purchase_count\)`).
		WithArgs(int64(0), seller, "first item", "", int64(50), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE market_config SET next_item_id = next_item_id \+ 1 WHERE id=1`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	it, err := r.CreateItem(context.Background(), seller, 50, "first item", "", now)
	require.NoError(t, err)
	require.Equal(t, int64(0), it.ID)
	require.Equal(t, seller, it.Seller)
	require.Equal(t, int64(0), it.PurchaseCount)
}

func TestMarketRepo_UpdateItem_OwnershipAndNotFound(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	seller := uuid.Must(uuid.NewV4())
	stranger := uuid.Must(uuid.NewV4())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT seller FROM items WHERE id=\$1 FOR UPDATE`).
		WithArgs(int64(3)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()
	require.ErrorIs(t, r.UpdateItem(context.Background(), seller, 3, "t", ""), errs.ErrNotFound)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT seller FROM items WHERE id=\$1 FOR UPDATE`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"seller"}).AddRow(seller))
	mock.ExpectRollback()
	require.ErrorIs(t, r.UpdateItem(context.Background(), stranger, 3, "t", ""), errs.ErrUnauthorized)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT seller FROM items WHERE id=\$1 FOR UPDATE`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"seller"}).AddRow(seller))
	mock.ExpectExec(`UPDATE items SET title=\$2, redirect_to=\$3 WHERE id=\$1`).
		WithArgs(int64(3), "new title", "https://example.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	require.NoError(t, r.UpdateItem(context.Background(), seller, 3, "new title", "https://example.com"))
}

// expectPurchasePreamble wires the config and item reads shared by buy tests.
func expectPurchasePreamble(mock pgxmock.PgxPoolIface, market, beneficiary, seller uuid.UUID, fee int, purchaseID, price int64, title string, itemID int64) {
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT market_account, service_fee, beneficiary, next_purchase_id FROM market_config WHERE id=1 FOR UPDATE`).
		WillReturnRows(pgxmock.NewRows([]string{"market_account", "service_fee", "beneficiary", "next_purchase_id"}).
			AddRow(market, fee, beneficiary, purchaseID))
	mock.ExpectQuery(`SELECT seller, title, price FROM items WHERE id=\$1 FOR UPDATE`).
		WithArgs(itemID).
		WillReturnRows(pgxmock.NewRows([]string{"seller", "title", "price"}).AddRow(seller, title, price))
}

func TestMarketRepo_Purchase_OK(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	market := uuid.Must(uuid.NewV4())
	beneficiary := uuid.Must(uuid.NewV4())
	seller := uuid.Must(uuid.NewV4())
	buyer := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()

	// price=97, fee=3% -> floor(2.91)=2, net=95
	expectPurchasePreamble(mock, market, beneficiary, seller, 3, 7, 97, "pen", 4)
	mock.ExpectQuery(`SELECT balance FROM token_accounts WHERE owner=\$1`).
		WithArgs(buyer).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(200)))
	mock.ExpectQuery(`SELECT amount FROM token_allowances WHERE owner=\$1 AND spender=\$2`).
		WithArgs(buyer, market).
		WillReturnRows(pgxmock.NewRows([]string{"amount"}).AddRow(int64(97)))

	// net transfer buyer -> seller
	mock.ExpectExec(`UPDATE token_allowances SET amount = amount - \$3`).
		WithArgs(buyer, market, int64(95)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE token_accounts SET balance = balance - \$2`).
		WithArgs(buyer, int64(95)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO token_accounts \(owner, balance\)`).
		WithArgs(seller, int64(95)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// fee transfer buyer -> beneficiary
	mock.ExpectExec(`UPDATE token_allowances SET amount = amount - \$3`).
		WithArgs(buyer, market, int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE token_accounts SET balance = balance - \$2`).
		WithArgs(buyer, int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO token_accounts \(owner, balance\)`).
		WithArgs(beneficiary, int64(2)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// bookkeeping
	mock.ExpectExec(`INSERT INTO purchases \(id, item_id, buyer, title, price, purchased_at\)`).
		WithArgs(int64(7), int64(4), buyer, "pen", int64(97), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE items SET purchase_count = purchase_count \+ 1 WHERE id=\$1`).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO seller_income \(seller, total\)`).
		WithArgs(seller, int64(95)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE market_config SET platform_income = platform_income \+ \$1, next_purchase_id = next_purchase_id \+ 1 WHERE id=1`).
		WithArgs(int64(2)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	p, gotSeller, err := r.Purchase(context.Background(), buyer, 4, now)
	require.NoError(t, err)
	require.Equal(t, seller, gotSeller)
	require.Equal(t, int64(7), p.ID)
	require.Equal(t, "pen", p.Title)
	require.Equal(t, int64(97), p.Price)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarketRepo_Purchase_ZeroFee_SkipsFeeTransfer(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	market := uuid.Must(uuid.NewV4())
	beneficiary := uuid.Must(uuid.NewV4())
	seller := uuid.Must(uuid.NewV4())
	buyer := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()

	// price=19, fee=5% -> floor(0.95)=0, seller gets the full price
	expectPurchasePreamble(mock, market, beneficiary, seller, 5, 0, 19, "sticker", 1)
	mock.ExpectQuery(`SELECT balance FROM token_accounts WHERE owner=\$1`).
		WithArgs(buyer).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(19)))
	mock.ExpectQuery(`SELECT amount FROM token_allowances WHERE owner=\$1 AND spender=\$2`).
		WithArgs(buyer, market).
		WillReturnRows(pgxmock.NewRows([]string{"amount"}).AddRow(int64(19)))

	mock.ExpectExec(`UPDATE token_allowances SET amount = amount - \$3`).
		WithArgs(buyer, market, int64(19)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE token_accounts SET balance = balance - \$2`).
		WithArgs(buyer, int64(19)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO token_accounts \(owner, balance\)`).
		WithArgs(seller, int64(19)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// fee transfer is a no-op, no queries expected

	mock.ExpectExec(`INSERT INTO purchases \(id, item_id, buyer, title, price, purchased_at\)`).
		WithArgs(int64(0), int64(1), buyer, "sticker", int64(19), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE items SET purchase_count = purchase_count \+ 1 WHERE id=\$1`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO seller_income \(seller, total\)`).
		WithArgs(seller, int64(19)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE market_config SET platform_income = platform_income \+ \$1, next_purchase_id = next_purchase_id \+ 1 WHERE id=1`).
		WithArgs(int64(0)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	_, _, err := r.Purchase(context.Background(), buyer, 1, now)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarketRepo_Purchase_ItemNotFound(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	buyer := uuid.Must(uuid.NewV4())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT market_account, service_fee, beneficiary, next_purchase_id FROM market_config WHERE id=1 FOR UPDATE`).
		WillReturnRows(pgxmock.NewRows([]string{"market_account", "service_fee", "beneficiary", "next_purchase_id"}).
			AddRow(uuid.Must(uuid.NewV4()), 3, uuid.Must(uuid.NewV4()), int64(0)))
	mock.ExpectQuery(`SELECT seller, title, price FROM items WHERE id=\$1 FOR UPDATE`).
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := r.Purchase(context.Background(), buyer, 99, time.Now())
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMarketRepo_Purchase_InsufficientBalance(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	market := uuid.Must(uuid.NewV4())
	buyer := uuid.Must(uuid.NewV4())

	expectPurchasePreamble(mock, market, uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), 3, 0, 100, "pen", 1)
	mock.ExpectQuery(`SELECT balance FROM token_accounts WHERE owner=\$1`).
		WithArgs(buyer).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(99)))
	mock.ExpectRollback()

	_, _, err := r.Purchase(context.Background(), buyer, 1, time.Now())
	require.ErrorIs(t, err, errs.ErrInsufficientBalance)
}

func TestMarketRepo_Purchase_InsufficientAllowance(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	market := uuid.Must(uuid.NewV4())
	buyer := uuid.Must(uuid.NewV4())

	expectPurchasePreamble(mock, market, uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), 3, 0, 100, "pen", 1)
	mock.ExpectQuery(`SELECT balance FROM token_accounts WHERE owner=\$1`).
		WithArgs(buyer).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(100)))
	mock.ExpectQuery(`SELECT amount FROM token_allowances WHERE owner=\$1 AND spender=\$2`).
		WithArgs(buyer, market).
		WillReturnRows(pgxmock.NewRows([]string{"amount"}).AddRow(int64(99)))
	mock.ExpectRollback()

	_, _, err := r.Purchase(context.Background(), buyer, 1, time.Now())
	require.ErrorIs(t, err, errs.ErrInsufficientAllowance)
}

func TestMarketRepo_Purchase_TransferFailure_RollsBack(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	market := uuid.Must(uuid.NewV4())
	buyer := uuid.Must(uuid.NewV4())

	expectPurchasePreamble(mock, market, uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), 3, 0, 100, "pen", 1)
	mock.ExpectQuery(`SELECT balance FROM token_accounts WHERE owner=\$1`).
		WithArgs(buyer).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(100)))
	mock.ExpectQuery(`SELECT amount FROM token_allowances WHERE owner=\$1 AND spender=\$2`).
		WithArgs(buyer, market).
		WillReturnRows(pgxmock.NewRows([]string{"amount"}).AddRow(int64(100)))
	// allowance raced away between the check and the transfer
	mock.ExpectExec(`UPDATE token_allowances SET amount = amount - \$3`).
		WithArgs(buyer, market, int64(97)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, _, err := r.Purchase(context.Background(), buyer, 1, time.Now())
	require.ErrorIs(t, err, errs.ErrTransferFailed)
}

func TestMarketRepo_ListItemsBySeller(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	seller := uuid.Must(uuid.NewV4())
	ts := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "seller", "title", "redirect_to", "price", "created_at", "purchase_count"}).
		AddRow(int64(0), seller, "a", "", int64(10), ts, int64(2)).
		AddRow(int64(3), seller, "b", "https://x", int64(20), ts, int64(0))
	mock.ExpectQuery(`SELECT id, seller, title, redirect_to, price, created_at, purchase_count FROM items WHERE seller=\$1 ORDER BY id ASC`).
		WithArgs(seller).
		WillReturnRows(rows)

	out, err := r.ListItemsBySeller(context.Background(), seller)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, int64(0), out[0].ID)
	require.Equal(t, int64(3), out[1].ID)
}

func TestMarketRepo_ListItemPurchases_AccessControl(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	seller := uuid.Must(uuid.NewV4())
	stranger := uuid.Must(uuid.NewV4())
	buyer := uuid.Must(uuid.NewV4())
	ts := time.Now().UTC()

	mock.ExpectQuery(`SELECT seller FROM items WHERE id=\$1`).
		WithArgs(int64(5)).
		WillReturnError(pgx.ErrNoRows)
	_, err := r.ListItemPurchases(context.Background(), seller, 5)
	require.ErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectQuery(`SELECT seller FROM items WHERE id=\$1`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"seller"}).AddRow(seller))
	_, err = r.ListItemPurchases(context.Background(), stranger, 5)
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	mock.ExpectQuery(`SELECT seller FROM items WHERE id=\$1`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"seller"}).AddRow(seller))
	mock.ExpectQuery(`SELECT id, buyer, purchased_at FROM purchases WHERE item_id=\$1 ORDER BY id ASC`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "buyer", "purchased_at"}).
			AddRow(int64(0), buyer, ts).
			AddRow(int64(4), buyer, ts))
	out, err := r.ListItemPurchases(context.Background(), seller, 5)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, buyer, out[0].Buyer)
}

func TestMarketRepo_SellerIncome_ZeroWhenAbsent(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	seller := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT COALESCE\(\(SELECT total FROM seller_income WHERE seller=\$1\), 0\)`).
		WithArgs(seller).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(0)))

	total, err := r.SellerIncome(context.Background(), seller)
	require.NoError(t, err)
	require.Equal(t, int64(0), total)
}

func TestMarketRepo_PlatformIncome(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT platform_income FROM market_config WHERE id=1`).
		WillReturnRows(pgxmock.NewRows([]string{"platform_income"}).AddRow(int64(6)))

	total, err := r.PlatformIncome(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(6), total)
}

func TestMarketRepo_GetConfig_NotFound(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT market_account, service_fee, beneficiary, admin_account, platform_income, next_item_id, next_purchase_id FROM market_config WHERE id=1`).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.GetConfig(context.Background())
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMarketRepo_CreateItem_BeginErr(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("boom"))
	_, err := r.CreateItem(context.Background(), uuid.Must(uuid.NewV4()), 10, "t", "", time.Now())
	require.Error(t, err)
}

func TestMarketRepo_Purchase_CommitErr(t *testing.T) {
	r, mock := newMarketRepo(t)
	defer mock.Close()

	market := uuid.Must(uuid.NewV4())
	beneficiary := uuid.Must(uuid.NewV4())
	seller := uuid.Must(uuid.NewV4())
	buyer := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()

	// price=100, fee=1 -> fee=1, net=99
	expectPurchasePreamble(mock, market, beneficiary, seller, 1, 2, 100, "pen", 8)
	mock.ExpectQuery(`SELECT balance FROM token_accounts WHERE owner=\$1`).
		WithArgs(buyer).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(100)))
	mock.ExpectQuery(`SELECT amount FROM token_allowances WHERE owner=\$1 AND spender=\$2`).
		WithArgs(buyer, market).
		WillReturnRows(pgxmock.NewRows([]string{"amount"}).AddRow(int64(100)))

	mock.ExpectExec(`UPDATE token_allowances SET amount = amount - \$3`).
		WithArgs(buyer, market, int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE token_accounts SET balance = balance - \$2`).
		WithArgs(buyer, int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO token_accounts \(owner, balance\)`).
		WithArgs(seller, int64(99)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE token_allowances SET amount = amount - \$3`).
		WithArgs(buyer, market, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE token_accounts SET balance = balance - \$2`).
		WithArgs(buyer, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO token_accounts \(owner, balance\)`).
		WithArgs(beneficiary, int64(1)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO purchases \(id, item_id, buyer, title, price, purchased_at\)`).
		WithArgs(int64(2), int64(8), buyer, "pen", int64(100), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE items SET purchase_count = purchase_count \+ 1 WHERE id=\$1`).
		WithArgs(int64(8)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO seller_income \(seller, total\)`).
		WithArgs(seller, int64(99)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE market_config SET platform_income = platform_income \+ \$1, next_purchase_id = next_purchase_id \+ 1 WHERE id=1`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit().WillReturnError(errors.New("commit-fail"))

	_, _, err := r.Purchase(context.Background(), buyer, 8, now)
	require.Error(t, err)
}
