package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/Order-Lifecycle-System/internal/lifecycle"
)

// InventoryStore adjusts quantities in a table named by INVENTORY_STORE_NAME.
// Both adjustments are single UPDATE statements, so each is atomic at the
// record level; there is never a transaction across products.
type InventoryStore struct {
	log   *slog.Logger
	pool  *pgxpool.Pool
	table string
}

func NewInventoryStore(log *slog.Logger, pool *pgxpool.Pool, table string) *InventoryStore {
	return &InventoryStore{log: log, pool: pool, table: pgx.Identifier{table}.Sanitize()}
}

func (s *InventoryStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		product_id TEXT PRIMARY KEY,
		quantity BIGINT NOT NULL CHECK (quantity >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, s.table))
	return err
}

// Decrement subtracts qty only when enough stock remains. The quantity >= qty
// predicate makes the check-and-set a single atomic statement; zero affected
// rows means the precondition failed (or the product was never provisioned,
// which is indistinguishable here and treated the same).
func (s *InventoryStore) Decrement(ctx context.Context, productID string, qty int64) error {
	ct, err := s.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET quantity = quantity - $2, updated_at = now() WHERE product_id=$1 AND quantity >= $2`, s.table),
		productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return &lifecycle.InsufficientInventoryError{ProductID: productID, Requested: qty}
	}
	return nil
}

// Increment adds qty with no upper bound.
func (s *InventoryStore) Increment(ctx context.Context, productID string, qty int64) error {
	ct, err := s.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET quantity = quantity + $2, updated_at = now() WHERE product_id=$1`, s.table),
		productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return &lifecycle.UnknownProductError{ProductID: productID}
	}
	return nil
}

// Provision seeds a product's quantity. Inventory records are owned by an
// external process in production; this exists for environments and tests.
func (s *InventoryStore) Provision(ctx context.Context, productID string, qty int64) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (product_id, quantity)
		VALUES ($1,$2)
		ON CONFLICT (product_id) DO UPDATE SET quantity=$2, updated_at=now()`, s.table),
		productID, qty)
	return err
}

func (s *InventoryStore) Quantity(ctx context.Context, productID string) (int64, error) {
	var qty int64
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT quantity FROM %s WHERE product_id=$1`, s.table), productID).Scan(&qty)
	if err == pgx.ErrNoRows {
		return 0, &lifecycle.UnknownProductError{ProductID: productID}
	}
	return qty, err
}
