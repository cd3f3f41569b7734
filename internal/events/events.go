// Package events publishes marketplace notifications after committed state changes.
package events

import "context"

// Subjects for the four marketplace notifications.
const (
	SubjectBeneficiaryChanged = "market.beneficiary_changed"
	SubjectItemAdded          = "market.item_added"
	SubjectItemUpdated        = "market.item_updated"
	SubjectItemPurchased      = "market.item_purchased"
)

// Publisher delivers event payloads to interested subscribers. Publishing
// happens after the state change has committed; a delivery failure never
// unwinds the operation.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close()
}

// Nop is a Publisher that drops everything; used in tests and when no broker
// is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close()                                     {}
