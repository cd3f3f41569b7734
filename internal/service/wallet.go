package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/tokenstall/internal/errs"
	"github.com/and161185/tokenstall/internal/repository"
	"github.com/and161185/tokenstall/internal/token"
)

// WalletService exposes the token operations buyers need to fund purchases:
// checking funds, approving the marketplace as spender, and the dev faucet.
type WalletService interface {
	// Balance returns the caller's balance and current marketplace allowance.
	Balance(ctx context.Context, caller uuid.UUID) (balance, allowance int64, err error)
	// Approve lets the marketplace spend up to amount on the caller's behalf.
	Approve(ctx context.Context, caller uuid.UUID, amount int64) error
	// Mint credits freshly issued units to the caller.
	Mint(ctx context.Context, caller uuid.UUID, amount int64) error
}

type WalletServiceImpl struct {
	q      token.Querier
	tok    token.Service
	market repository.MarketRepository
}

// NewWalletService constructs WalletService over the shared database pool.
func NewWalletService(q token.Querier, tok token.Service, market repository.MarketRepository) *WalletServiceImpl {
	return &WalletServiceImpl{q: q, tok: tok, market: market}
}

// Balance reads the caller's funds and the allowance granted to the marketplace.
func (s *WalletServiceImpl) Balance(ctx context.Context, caller uuid.UUID) (int64, int64, error) {
	if caller == uuid.Nil {
		return 0, 0, fmt.Errorf("empty caller: %w", errs.ErrInvalidArgument)
	}
	cfg, err := s.market.GetConfig(ctx)
	if err != nil {
		return 0, 0, err
	}
	bal, err := s.tok.BalanceOf(ctx, s.q, caller)
	if err != nil {
		return 0, 0, err
	}
	alw, err := s.tok.Allowance(ctx, s.q, caller, cfg.MarketAccount)
	if err != nil {
		return 0, 0, err
	}
	return bal, alw, nil
}

// Approve grants the marketplace an allowance over the caller's funds.
func (s *WalletServiceImpl) Approve(ctx context.Context, caller uuid.UUID, amount int64) error {
	if caller == uuid.Nil {
		return fmt.Errorf("empty caller: %w", errs.ErrInvalidArgument)
	}
	if amount < 0 {
		return fmt.Errorf("negative allowance: %w", errs.ErrInvalidArgument)
	}
	cfg, err := s.market.GetConfig(ctx)
	if err != nil {
		return err
	}
	return s.tok.Approve(ctx, s.q, caller, cfg.MarketAccount, amount)
}

// Mint credits units to the caller.
func (s *WalletServiceImpl) Mint(ctx context.Context, caller uuid.UUID, amount int64) error {
	if caller == uuid.Nil {
		return fmt.Errorf("empty caller: %w", errs.ErrInvalidArgument)
	}
	if amount <= 0 {
		return fmt.Errorf("non-positive amount: %w", errs.ErrInvalidArgument)
	}
	return s.tok.Mint(ctx, s.q, caller, amount)
}
