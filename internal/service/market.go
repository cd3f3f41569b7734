// Package service contains application services for the marketplace and authentication.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/tokenstall/internal/access"
	"github.com/and161185/tokenstall/internal/errs"
	"github.com/and161185/tokenstall/internal/events"
	"github.com/and161185/tokenstall/internal/model"
	"github.com/and161185/tokenstall/internal/repository"
	"github.com/and161185/tokenstall/internal/token"
)

// MarketService defines the marketplace operations: the state-changing calls
// and the read views built on top of them.
type MarketService interface {
	// Initialize stores the marketplace configuration once: fee, administrator,
	// and the beneficiary (initially the administrator).
	Initialize(ctx context.Context, tok token.Service, feePercent int, admin uuid.UUID) error
	// SetBeneficiary redirects future fee proceeds; administrator only.
	SetBeneficiary(ctx context.Context, caller, newBeneficiary uuid.UUID) error
	// Sell lists a new item and returns its id.
	Sell(ctx context.Context, caller uuid.UUID, price int64, title, redirectTo string) (int64, error)
	// UpdateItem overwrites an item's title and redirect target; seller only.
	UpdateItem(ctx context.Context, caller uuid.UUID, itemID int64, title, redirectTo string) error
	// Buy purchases an item and returns the purchase id.
	Buy(ctx context.Context, caller uuid.UUID, itemID int64) (int64, error)

	// MyItems returns the caller's listings in listing order.
	MyItems(ctx context.Context, caller uuid.UUID) ([]model.Item, error)
	// MyPurchases returns the caller's purchases in purchase order.
	MyPurchases(ctx context.Context, caller uuid.UUID) ([]model.Purchase, error)
	// Item returns a single item; no caller restriction.
	Item(ctx context.Context, itemID int64) (*model.Item, error)
	// ItemPurchases returns an item's purchase history to its seller.
	ItemPurchases(ctx context.Context, caller uuid.UUID, itemID int64) ([]model.ItemPurchase, error)
	// MyIncome returns the caller's running net income.
	MyIncome(ctx context.Context, caller uuid.UUID) (int64, error)
	// PlatformIncome returns total fees collected; administrator only.
	PlatformIncome(ctx context.Context, caller uuid.UUID) (int64, error)
}

type MarketServiceImpl struct {
	repo repository.MarketRepository
	acl  access.Controller
	pub  events.Publisher
	log  *zap.Logger
}

// NewMarketService constructs MarketService with required collaborators.
func NewMarketService(repo repository.MarketRepository, acl access.Controller, pub events.Publisher, log *zap.Logger) *MarketServiceImpl {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MarketServiceImpl{repo: repo, acl: acl, pub: pub, log: log}
}

// Initialize validates construction arguments and stores the config row.
// The beneficiary starts as the administrator, the market's own token account
// is allocated here.
func (s *MarketServiceImpl) Initialize(ctx context.Context, tok token.Service, feePercent int, admin uuid.UUID) error {
	if tok == nil {
		return fmt.Errorf("nil token service: %w", errs.ErrInvalidConfig)
	}
	if feePercent < model.MinServiceFee || feePercent > model.MaxServiceFee {
		return fmt.Errorf("service fee %d%% outside [%d,%d]: %w",
			feePercent, model.MinServiceFee, model.MaxServiceFee, errs.ErrInvalidConfig)
	}
	if admin == uuid.Nil {
		return fmt.Errorf("empty admin identity: %w", errs.ErrInvalidConfig)
	}
	marketAccount, err := uuid.NewV4()
	if err != nil {
		return err
	}
	return s.repo.InitConfig(ctx, model.MarketConfig{
		MarketAccount: marketAccount,
		ServiceFee:    feePercent,
		Beneficiary:   admin,
		Admin:         admin,
	})
}

// SetBeneficiary redirects future fees. The repository enforces the
// self/unchanged checks atomically under the config lock.
func (s *MarketServiceImpl) SetBeneficiary(ctx context.Context, caller, newBeneficiary uuid.UUID) error {
	if newBeneficiary == uuid.Nil {
		return fmt.Errorf("empty beneficiary: %w", errs.ErrInvalidArgument)
	}
	ok, err := s.acl.IsAdministrator(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrUnauthorized
	}

	old, err := s.repo.SetBeneficiary(ctx, newBeneficiary)
	if err != nil {
		return err
	}
	s.publish(ctx, events.SubjectBeneficiaryChanged, model.BeneficiaryChanged{
		EventID: newEventID(), Caller: caller, Old: old, New: newBeneficiary, At: time.Now().UTC(),
	})
	return nil
}

// Sell validates the listing and delegates item creation.
func (s *MarketServiceImpl) Sell(ctx context.Context, caller uuid.UUID, price int64, title, redirectTo string) (int64, error) {
	if caller == uuid.Nil {
		return 0, fmt.Errorf("empty caller: %w", errs.ErrInvalidArgument)
	}
	if price <= 0 {
		return 0, fmt.Errorf("non-positive price: %w", errs.ErrInvalidArgument)
	}
	if title == "" {
		return 0, fmt.Errorf("empty title: %w", errs.ErrInvalidArgument)
	}
	// redirectTo stays opaque, no validation

	it, err := s.repo.CreateItem(ctx, caller, price, title, redirectTo, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.SubjectItemAdded, model.ItemAdded{
		EventID: newEventID(), Seller: caller, ItemID: it.ID, At: it.CreatedAt,
	})
	return it.ID, nil
}

// UpdateItem overwrites the mutable item fields for its seller.
func (s *MarketServiceImpl) UpdateItem(ctx context.Context, caller uuid.UUID, itemID int64, title, redirectTo string) error {
	if caller == uuid.Nil {
		return fmt.Errorf("empty caller: %w", errs.ErrInvalidArgument)
	}
	if title == "" {
		return fmt.Errorf("empty title: %w", errs.ErrInvalidArgument)
	}
	if err := s.repo.UpdateItem(ctx, caller, itemID, title, redirectTo); err != nil {
		return err
	}
	s.publish(ctx, events.SubjectItemUpdated, model.ItemUpdated{
		EventID: newEventID(), Seller: caller, ItemID: itemID, At: time.Now().UTC(),
	})
	return nil
}

// Buy executes the purchase transaction and reports the purchase id.
func (s *MarketServiceImpl) Buy(ctx context.Context, caller uuid.UUID, itemID int64) (int64, error) {
	if caller == uuid.Nil {
		return 0, fmt.Errorf("empty caller: %w", errs.ErrInvalidArgument)
	}
	p, seller, err := s.repo.Purchase(ctx, caller, itemID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.SubjectItemPurchased, model.ItemPurchased{
		EventID: newEventID(), Seller: seller, ItemID: itemID, Buyer: caller,
		PurchaseID: p.ID, At: p.Date,
	})
	return p.ID, nil
}

// MyItems lists the caller's items.
func (s *MarketServiceImpl) MyItems(ctx context.Context, caller uuid.UUID) ([]model.Item, error) {
	if caller == uuid.Nil {
		return nil, fmt.Errorf("empty caller: %w", errs.ErrInvalidArgument)
	}
	return s.repo.ListItemsBySeller(ctx, caller)
}

// MyPurchases lists the caller's purchases.
func (s *MarketServiceImpl) MyPurchases(ctx context.Context, caller uuid.UUID) ([]model.Purchase, error) {
	if caller == uuid.Nil {
		return nil, fmt.Errorf("empty caller: %w", errs.ErrInvalidArgument)
	}
	return s.repo.ListPurchasesByBuyer(ctx, caller)
}

// Item fetches a single item by id.
func (s *MarketServiceImpl) Item(ctx context.Context, itemID int64) (*model.Item, error) {
	return s.repo.GetItem(ctx, itemID)
}

// ItemPurchases returns an item's purchase history to its seller.
func (s *MarketServiceImpl) ItemPurchases(ctx context.Context, caller uuid.UUID, itemID int64) ([]model.ItemPurchase, error) {
	if caller == uuid.Nil {
		return nil, fmt.Errorf("empty caller: %w", errs.ErrInvalidArgument)
	}
	return s.repo.ListItemPurchases(ctx, caller, itemID)
}

// MyIncome returns the caller's accumulated net proceeds.
func (s *MarketServiceImpl) MyIncome(ctx context.Context, caller uuid.UUID) (int64, error) {
	if caller == uuid.Nil {
		return 0, fmt.Errorf("empty caller: %w", errs.ErrInvalidArgument)
	}
	return s.repo.SellerIncome(ctx, caller)
}

// PlatformIncome returns total collected fees; administrator only.
func (s *MarketServiceImpl) PlatformIncome(ctx context.Context, caller uuid.UUID) (int64, error) {
	ok, err := s.acl.IsAdministrator(ctx, caller)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errs.ErrUnauthorized
	}
	return s.repo.PlatformIncome(ctx)
}

// publish delivers a notification; failures are logged, never surfaced.
func (s *MarketServiceImpl) publish(ctx context.Context, subject string, payload any) {
	if err := s.pub.Publish(ctx, subject, payload); err != nil {
		s.log.Warn("publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func newEventID() uuid.UUID {
	id, _ := uuid.NewV4()
	return id
}
