package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/Order-Lifecycle-System/internal/lifecycle"
)

// OrderStore keeps order records in a table named by ORDERS_STORE_NAME. The
// submission payload is stored opaquely so attributes the engine does not
// understand are carried through unchanged.
type OrderStore struct {
	log   *slog.Logger
	pool  *pgxpool.Pool
	table string
}

func NewOrderStore(log *slog.Logger, pool *pgxpool.Pool, table string) *OrderStore {
	return &OrderStore{log: log, pool: pool, table: pgx.Identifier{table}.Sanitize()}
}

func (s *OrderStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		detail JSONB,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`, s.table))
	return err
}

func (s *OrderStore) Upsert(ctx context.Context, o lifecycle.Order) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (id, status, detail, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$4)
		ON CONFLICT (id) DO UPDATE SET status=$2, detail=$3, updated_at=$4`, s.table),
		o.ID, o.Status, o.Detail, now)
	return err
}

// UpdateStatus writes the status without any precondition on the current
// value. A missing record is created with just id and status, matching the
// predecessor's update-creates-record semantics.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID string, status lifecycle.OrderStatus) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (id, status, created_at, updated_at)
		VALUES ($1,$2,$3,$3)
		ON CONFLICT (id) DO UPDATE SET status=$2, updated_at=$3`, s.table),
		orderID, status, now)
	return err
}

func (s *OrderStore) Get(ctx context.Context, orderID string) (lifecycle.Order, error) {
	var o lifecycle.Order
	var status string
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT id, status, detail FROM %s WHERE id=$1`, s.table), orderID).
		Scan(&o.ID, &status, &o.Detail)
	if err != nil {
		return lifecycle.Order{}, err
	}
	o.Status = lifecycle.OrderStatus(status)
	return o, nil
}
