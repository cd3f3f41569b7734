package token

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/tokenstall/internal/errs"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return mock
}

func TestPG_BalanceOf(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	tok := NewPG()

	ctx := context.Background()
	owner := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT balance FROM token_accounts WHERE owner=\$1`).
		WithArgs(owner).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(int64(150)))
	bal, err := tok.BalanceOf(ctx, mock, owner)
	require.NoError(t, err)
	require.Equal(t, int64(150), bal)

	// unknown account reads as zero
	mock.ExpectQuery(`SELECT balance FROM token_accounts WHERE owner=\$1`).
		WithArgs(owner).
		WillReturnError(pgx.ErrNoRows)
	bal, err = tok.BalanceOf(ctx, mock, owner)
	require.NoError(t, err)
	require.Equal(t, int64(0), bal)
}

func TestPG_Allowance(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	tok := NewPG()

	ctx := context.Background()
	owner := uuid.Must(uuid.NewV4())
	spender := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT amount FROM token_allowances WHERE owner=\$1 AND spender=\$2`).
		WithArgs(owner, spender).
		WillReturnError(pgx.ErrNoRows)
	a, err := tok.Allowance(ctx, mock, owner, spender)
	require.NoError(t, err)
	require.Equal(t, int64(0), a)
}

func TestPG_TransferFrom_OK(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	tok := NewPG()

	ctx := context.Background()
	spender := uuid.Must(uuid.NewV4())
	owner := uuid.Must(uuid.NewV4())
	recipient := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`UPDATE token_allowances SET amount = amount - \$3 WHERE owner=\$1 AND spender=\$2 AND amount >= \$3`).
		WithArgs(owner, spender, int64(94)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE token_accounts SET balance = balance - \$2 WHERE owner=\$1 AND balance >= \$2`).
		WithArgs(owner, int64(94)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO token_accounts \(owner, balance\) VALUES \(\$1, \$2\) ON CONFLICT \(owner\) DO UPDATE SET balance = token_accounts\.balance \+ EXCLUDED\.balance`).
		WithArgs(recipient, int64(94)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, tok.TransferFrom(ctx, mock, spender, owner, recipient, 94))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPG_TransferFrom_ZeroAmount_NoQueries(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	tok := NewPG()

	require.NoError(t, tok.TransferFrom(context.Background(), mock,
		uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), 0))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPG_TransferFrom_AllowanceExhausted(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	tok := NewPG()

	owner := uuid.Must(uuid.NewV4())
	spender := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`UPDATE token_allowances SET amount = amount - \$3`).
		WithArgs(owner, spender, int64(10)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := tok.TransferFrom(context.Background(), mock, spender, owner, uuid.Must(uuid.NewV4()), 10)
	require.ErrorIs(t, err, errs.ErrTransferFailed)
}

func TestPG_TransferFrom_BalanceExhausted(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	tok := NewPG()

	owner := uuid.Must(uuid.NewV4())
	spender := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`UPDATE token_allowances SET amount = amount - \$3`).
		WithArgs(owner, spender, int64(10)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE token_accounts SET balance = balance - \$2`).
		WithArgs(owner, int64(10)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := tok.TransferFrom(context.Background(), mock, spender, owner, uuid.Must(uuid.NewV4()), 10)
	require.ErrorIs(t, err, errs.ErrTransferFailed)
}

func TestPG_TransferFrom_NegativeAmount(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	tok := NewPG()

	err := tok.TransferFrom(context.Background(), mock,
		uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), -1)
	require.ErrorIs(t, err, errs.ErrTransferFailed)
}

func TestPG_Approve_SetsNotAdds(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	tok := NewPG()

	owner := uuid.Must(uuid.NewV4())
	spender := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`INSERT INTO token_allowances \(owner, spender, amount\) VALUES \(\$1, \$2, \$3\) ON CONFLICT \(owner, spender\) DO UPDATE SET amount = EXCLUDED\.amount`).
		WithArgs(owner, spender, int64(97)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, tok.Approve(context.Background(), mock, owner, spender, 97))
	require.ErrorIs(t, tok.Approve(context.Background(), mock, owner, spender, -1), errs.ErrInvalidArgument)
}

func TestPG_Mint(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	tok := NewPG()

	recipient := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`INSERT INTO token_accounts \(owner, balance\) VALUES \(\$1, \$2\)`).
		WithArgs(recipient, int64(200)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, tok.Mint(context.Background(), mock, recipient, 200))
	require.ErrorIs(t, tok.Mint(context.Background(), mock, recipient, 0), errs.ErrInvalidArgument)
}

func TestPG_TransferFrom_ExecErr(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	tok := NewPG()

	owner := uuid.Must(uuid.NewV4())
	spender := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`UPDATE token_allowances SET amount = amount - \$3`).
		WithArgs(owner, spender, int64(5)).
		WillReturnError(errors.New("boom"))

	err := tok.TransferFrom(context.Background(), mock, spender, owner, uuid.Must(uuid.NewV4()), 5)
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrTransferFailed)
}
