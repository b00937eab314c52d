package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/dmehra2102/Order-Lifecycle-System/internal/engine/application"
	"github.com/dmehra2102/Order-Lifecycle-System/pkg/outbox"
)

// ShortfallJournal is both the engine's journal port and the relay's outbox
// store. Aborted placements land here as pending entries and the relay
// publishes them as InventoryShortfall events for compensating workflows.
type ShortfallJournal struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewShortfallJournal(log *slog.Logger, pool *pgxpool.Pool) *ShortfallJournal {
	return &ShortfallJournal{log: log, pool: pool}
}

func (j *ShortfallJournal) EnsureSchema(ctx context.Context) error {
	_, err := j.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS inventory_shortfalls (
		id BIGSERIAL PRIMARY KEY,
		event_id TEXT NOT NULL,
		order_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		requested BIGINT NOT NULL,
		payload JSONB NOT NULL,
		traceparent TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		relay_id TEXT,
		lease_until TIMESTAMPTZ,
		retry_count INT NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	return err
}

type shortfallPayload struct {
	OrderID   string                    `json:"orderId"`
	ProductID string                    `json:"productId"`
	Requested int64                     `json:"requested"`
	CauseID   string                    `json:"causeEventId,omitempty"`
	Items     []application.ItemOutcome `json:"items"`
}

func (j *ShortfallJournal) Record(ctx context.Context, s application.Shortfall) error {
	payload, err := json.Marshal(shortfallPayload{
		OrderID:   s.OrderID,
		ProductID: s.ProductID,
		Requested: s.Requested,
		CauseID:   s.EventID,
		Items:     s.Items,
	})
	if err != nil {
		return fmt.Errorf("marshal shortfall: %w", err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	_, err = j.pool.Exec(ctx, `INSERT INTO inventory_shortfalls
		(event_id, order_id, product_id, requested, payload, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		uuid.New().String(), s.OrderID, s.ProductID, s.Requested, payload, carrier["traceparent"])
	return err
}

func (j *ShortfallJournal) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Entry, error) {
	tx, err := j.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, event_id, order_id, payload, traceparent, created_at
		FROM inventory_shortfalls
		WHERE status = 'pending'
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, batchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []outbox.Entry
	for rows.Next() {
		e := outbox.Entry{Type: "InventoryShortfall", Status: outbox.StatusInProgress}
		if err := rows.Scan(&e.ID, &e.EventID, &e.Key, &e.Payload, &e.Traceparent, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	_, err = tx.Exec(ctx, `UPDATE inventory_shortfalls
		SET status='in_progress', relay_id=$1, lease_until=now() + $2::interval
		WHERE id = ANY($3)`, relayID, lease.String(), ids)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entries, nil
}

func (j *ShortfallJournal) MarkSent(ctx context.Context, ids []int64) error {
	_, err := j.pool.Exec(ctx, `UPDATE inventory_shortfalls SET status='sent' WHERE id = ANY($1)`, ids)
	return err
}

func (j *ShortfallJournal) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := j.pool.Exec(ctx, `UPDATE inventory_shortfalls
		SET status='failed', last_error=$2, retry_count=retry_count+1 WHERE id=$1`, id, errMsg)
	return err
}
