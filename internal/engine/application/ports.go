package application

import (
	"context"

	"github.com/dmehra2102/Order-Lifecycle-System/internal/lifecycle"
)

type OrderStore interface {
	// Upsert creates or replaces the order record keyed by order id.
	Upsert(ctx context.Context, o lifecycle.Order) error
	// UpdateStatus writes the status field unconditionally, creating the
	// record if it does not exist.
	UpdateStatus(ctx context.Context, orderID string, status lifecycle.OrderStatus) error
}

type InventoryStore interface {
	// Decrement atomically subtracts qty with the precondition that the
	// remaining quantity is non-negative. Returns
	// *lifecycle.InsufficientInventoryError when the precondition fails.
	Decrement(ctx context.Context, productID string, qty int64) error
	// Increment atomically adds qty with no upper bound. Returns
	// *lifecycle.UnknownProductError for unprovisioned products.
	Increment(ctx context.Context, productID string, qty int64) error
}

type ProcessedEvents interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type ShortfallJournal interface {
	Record(ctx context.Context, s Shortfall) error
}

// Shortfall captures an aborted placement for compensating workflows: which
// product fell short and the fate of every line item up to that point.
type Shortfall struct {
	EventID   string
	OrderID   string
	ProductID string
	Requested int64
	Items     []ItemOutcome
}
