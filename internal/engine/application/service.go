package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmehra2102/Order-Lifecycle-System/internal/lifecycle"
)

// Engine applies one lifecycle event at a time against the order and
// inventory stores. There is no transaction spanning the order write and the
// inventory writes; each store operation is atomic on its own record and the
// partial-failure behavior per event type is deliberate.
type Engine struct {
	log       *slog.Logger
	orders    OrderStore
	inventory InventoryStore
	processed ProcessedEvents
	journal   ShortfallJournal
}

// NewEngine wires the engine. processed and journal may be nil: without a
// processed-events store redelivered events are re-applied, without a journal
// aborted placements are only visible in logs.
func NewEngine(log *slog.Logger, orders OrderStore, inventory InventoryStore, processed ProcessedEvents, journal ShortfallJournal) *Engine {
	return &Engine{
		log:       log,
		orders:    orders,
		inventory: inventory,
		processed: processed,
		journal:   journal,
	}
}

// Process runs the state machine for a single event. It never returns an
// error; every failure is folded into the Result.
func (e *Engine) Process(ctx context.Context, ev lifecycle.Event) Result {
	if ev.ID != "" && e.processed != nil {
		seen, err := e.processed.Seen(ctx, ev.ID)
		if err != nil {
			e.log.Error("processed-events check failed", "event_id", ev.ID, "err", err)
		} else if seen {
			e.log.Info("duplicate event skipped", "event_id", ev.ID, "order_id", ev.OrderID)
			return success("duplicate event skipped")
		}
	}

	var res Result
	switch ev.Type {
	case lifecycle.EventOrderPlaced:
		res = e.handlePlaced(ctx, ev)
	case lifecycle.EventOrderShipped, lifecycle.EventOrderDelivered:
		res = e.handleStatusUpdate(ctx, ev)
	case lifecycle.EventOrderCanceled:
		res = e.handleCanceled(ctx, ev)
	default:
		// Observed behavior of the predecessor: unknown detail types are
		// absorbed without a transition.
		e.log.Warn("unrecognized event type ignored", "order_id", ev.OrderID)
		res = success("unrecognized event type ignored")
	}

	if res.OK() && ev.ID != "" && e.processed != nil {
		if err := e.processed.Mark(ctx, ev.ID); err != nil {
			e.log.Error("processed-events mark failed", "event_id", ev.ID, "err", err)
		}
	}
	return res
}

// handlePlaced writes the order record, then decrements inventory item by
// item in event order. The first failed decrement aborts the remaining items;
// decrements already applied are not rolled back and the order record stays
// written. Callers must treat a failed placement as needing compensating
// reconciliation, which is what the shortfall journal feeds.
func (e *Engine) handlePlaced(ctx context.Context, ev lifecycle.Event) Result {
	if ev.OrderID == "" {
		e.log.Error("placed event without order id")
		return failure("failed to process event")
	}

	order := lifecycle.Order{
		ID:     ev.OrderID,
		Status: lifecycle.StatusPlaced,
		Items:  ev.Items,
		Detail: ev.Detail,
	}
	if err := e.orders.Upsert(ctx, order); err != nil {
		e.log.Error("order upsert failed", "order_id", ev.OrderID, "err", err)
		return failure("failed to process event")
	}
	e.log.Info("order stored", "order_id", ev.OrderID, "status", order.Status)

	outcomes := make([]ItemOutcome, 0, len(ev.Items))
	for i, item := range ev.Items {
		err := e.inventory.Decrement(ctx, item.ProductID, item.Quantity)
		if err == nil {
			outcomes = append(outcomes, ItemOutcome{ProductID: item.ProductID, Quantity: item.Quantity, State: ItemApplied})
			continue
		}

		var insufficient *lifecycle.InsufficientInventoryError
		if errors.As(err, &insufficient) {
			outcomes = append(outcomes, ItemOutcome{ProductID: item.ProductID, Quantity: item.Quantity, State: ItemInsufficient, Error: err.Error()})
			outcomes = append(outcomes, skipRemaining(ev.Items[i+1:])...)
			e.log.Error("inventory decrement rejected", "order_id", ev.OrderID, "product_id", item.ProductID, "requested", item.Quantity)
			e.recordShortfall(ctx, ev, item, outcomes)
			return Result{Code: 500, Message: err.Error(), Items: outcomes}
		}

		outcomes = append(outcomes, ItemOutcome{ProductID: item.ProductID, Quantity: item.Quantity, State: ItemFailed, Error: err.Error()})
		outcomes = append(outcomes, skipRemaining(ev.Items[i+1:])...)
		e.log.Error("inventory decrement failed", "order_id", ev.OrderID, "product_id", item.ProductID, "err", err)
		return Result{Code: 500, Message: "failed to process event", Items: outcomes}
	}

	return Result{Code: 200, Message: "order placed", Items: outcomes}
}

// handleStatusUpdate overwrites the status field, nothing else. Out-of-order
// delivery is accepted; ordering is the bus partitioning's concern.
func (e *Engine) handleStatusUpdate(ctx context.Context, ev lifecycle.Event) Result {
	if ev.OrderID == "" {
		e.log.Error("status event without order id", "event_type", ev.Type.String())
		return failure("failed to process event")
	}

	status := ev.Status
	if status == "" {
		status, _ = ev.Type.DerivedStatus()
	}
	if err := e.orders.UpdateStatus(ctx, ev.OrderID, status); err != nil {
		e.log.Error("order status update failed", "order_id", ev.OrderID, "status", status, "err", err)
		return failure("failed to process event")
	}
	e.log.Info("order status updated", "order_id", ev.OrderID, "status", status)
	return success("order status updated")
}

// handleCanceled marks the order canceled, then restores inventory for every
// line item. Restoration is best effort: a failed increment is recorded and
// the remaining items are still attempted. Failing to restore stock is
// lower-risk than overselling, so the asymmetry with handlePlaced is
// intentional.
func (e *Engine) handleCanceled(ctx context.Context, ev lifecycle.Event) Result {
	if ev.OrderID == "" {
		e.log.Error("canceled event without order id")
		return failure("failed to process event")
	}

	if err := e.orders.UpdateStatus(ctx, ev.OrderID, lifecycle.StatusCanceled); err != nil {
		e.log.Error("order cancel failed", "order_id", ev.OrderID, "err", err)
		return failure("failed to process event")
	}
	e.log.Info("order canceled", "order_id", ev.OrderID)

	outcomes := make([]ItemOutcome, 0, len(ev.Items))
	failed := 0
	for _, item := range ev.Items {
		if err := e.inventory.Increment(ctx, item.ProductID, item.Quantity); err != nil {
			failed++
			outcomes = append(outcomes, ItemOutcome{ProductID: item.ProductID, Quantity: item.Quantity, State: ItemFailed, Error: err.Error()})
			e.log.Error("inventory restore failed", "order_id", ev.OrderID, "product_id", item.ProductID, "err", err)
			continue
		}
		outcomes = append(outcomes, ItemOutcome{ProductID: item.ProductID, Quantity: item.Quantity, State: ItemApplied})
	}

	if failed > 0 {
		return Result{Code: 500, Message: "inventory restoration incomplete", Items: outcomes}
	}
	return Result{Code: 200, Message: "order canceled", Items: outcomes}
}

func (e *Engine) recordShortfall(ctx context.Context, ev lifecycle.Event, item lifecycle.LineItem, outcomes []ItemOutcome) {
	if e.journal == nil {
		return
	}
	s := Shortfall{
		EventID:   ev.ID,
		OrderID:   ev.OrderID,
		ProductID: item.ProductID,
		Requested: item.Quantity,
		Items:     outcomes,
	}
	if err := e.journal.Record(ctx, s); err != nil {
		e.log.Error("shortfall journal write failed", "order_id", ev.OrderID, "err", err)
	}
}

func skipRemaining(items []lifecycle.LineItem) []ItemOutcome {
	out := make([]ItemOutcome, 0, len(items))
	for _, item := range items {
		out = append(out, ItemOutcome{ProductID: item.ProductID, Quantity: item.Quantity, State: ItemSkipped})
	}
	return out
}
