// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Service fee bounds, integer percent of the purchase price.
const (
	MinServiceFee = 1
	MaxServiceFee = 5
)

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents a marketplace account. Its ID doubles as the token-ledger
// account identity.
type User struct {
	ID        uuid.UUID // PK
	Username  string    // unique
	PwdHash   []byte    // Argon2id(password, SaltAuth)
	SaltAuth  []byte    // per-user auth salt
	CreatedAt time.Time
}

// Item is a single listing. Seller, price and creation time are frozen at
// listing time; only title and redirect target may change afterwards.
type Item struct {
	ID            int64     // sequential, starts at 0
	Seller        uuid.UUID // immutable
	Title         string    // non-empty, seller-mutable
	RedirectTo    string    // opaque, may be empty
	Price         int64     // smallest token unit, > 0, immutable
	CreatedAt     time.Time // immutable
	PurchaseCount int64     // incremented only by successful purchases
}

// Purchase is one completed transaction against one item. Title and price are
// snapshots taken at purchase time and do not reflect later item edits.
type Purchase struct {
	ID     int64 // sequential, global across items
	ItemID int64
	Buyer  uuid.UUID
	Title  string
	Price  int64
	Date   time.Time
}

// ItemPurchase is the seller-facing row of an item's purchase history.
type ItemPurchase struct {
	ID    int64
	Buyer uuid.UUID
	Date  time.Time
}

// MarketConfig is the marketplace configuration row. ServiceFee and the
// market account are immutable after initialization; Beneficiary changes only
// through the administrator.
type MarketConfig struct {
	MarketAccount  uuid.UUID // the ledger's own token account (allowance spender)
	ServiceFee     int       // percent, [MinServiceFee, MaxServiceFee]
	Beneficiary    uuid.UUID // receives fee proceeds
	Admin          uuid.UUID // may change beneficiary and read platform income
	PlatformIncome int64
	NextItemID     int64
	NextPurchaseID int64
}

// Event payloads published after committed state changes.

// BeneficiaryChanged is emitted by a successful beneficiary change.
type BeneficiaryChanged struct {
	EventID uuid.UUID `json:"event_id"`
	Caller  uuid.UUID `json:"caller"`
	Old     uuid.UUID `json:"old"`
	New     uuid.UUID `json:"new"`
	At      time.Time `json:"at"`
}

// ItemAdded is emitted when a seller lists a new item.
type ItemAdded struct {
	EventID uuid.UUID `json:"event_id"`
	Seller  uuid.UUID `json:"seller"`
	ItemID  int64     `json:"item_id"`
	At      time.Time `json:"at"`
}

// ItemUpdated is emitted when a seller edits title or redirect target.
type ItemUpdated struct {
	EventID uuid.UUID `json:"event_id"`
	Seller  uuid.UUID `json:"seller"`
	ItemID  int64     `json:"item_id"`
	At      time.Time `json:"at"`
}

// ItemPurchased is emitted by a successful purchase.
type ItemPurchased struct {
	EventID    uuid.UUID `json:"event_id"`
	Seller     uuid.UUID `json:"seller"`
	ItemID     int64     `json:"item_id"`
	Buyer      uuid.UUID `json:"buyer"`
	PurchaseID int64     `json:"purchase_id"`
	At         time.Time `json:"at"`
}
