package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hydraex/exchange-core/internal/core"
	"github.com/hydraex/exchange-core/internal/engine"
)

// DealStore writes executed deals to Postgres. One SaveDeals call is
// one transaction: either the whole match batch lands or none of it.
type DealStore struct {
	pool *pgxpool.Pool
}

func NewDealStore(pool *pgxpool.Pool) *DealStore {
	return &DealStore{pool: pool}
}

const insertDeal = `
INSERT INTO deals (id, market, taker_order_id, maker_order_id, taker_side, price, quantity, executed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (s *DealStore) SaveDeals(ctx context.Context, deals []engine.DealRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, d := range deals {
		_, err := tx.Exec(ctx, insertDeal,
			d.ID, d.Market, d.TakerOrderID, d.MakerOrderID,
			string(d.Type), d.Price.String(), d.Quantity.String(), d.ExecutedAt)
		if err != nil {
			return fmt.Errorf("insert deal %s: %w", d.ID, err)
		}
	}
	return tx.Commit(ctx)
}

const listDealsByOrder = `
SELECT id, market, taker_order_id, maker_order_id, taker_side, price::text, quantity::text, executed_at
FROM deals
WHERE taker_order_id = $1 OR maker_order_id = $1
ORDER BY executed_at`

func (s *DealStore) ListDealsByOrder(ctx context.Context, orderID string) ([]engine.DealRecord, error) {
	rows, err := s.pool.Query(ctx, listDealsByOrder, orderID)
	if err != nil {
		return nil, fmt.Errorf("query deals: %w", err)
	}
	defer rows.Close()

	var out []engine.DealRecord
	for rows.Next() {
		var (
			d          engine.DealRecord
			side       string
			price, qty string
			executed   time.Time
		)
		if err := rows.Scan(&d.ID, &d.Market, &d.TakerOrderID, &d.MakerOrderID,
			&side, &price, &qty, &executed); err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		d.Type = core.TakerSide(side)
		d.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("decode price %q: %w", price, err)
		}
		d.Quantity, err = decimal.NewFromString(qty)
		if err != nil {
			return nil, fmt.Errorf("decode quantity %q: %w", qty, err)
		}
		d.ExecutedAt = executed
		out = append(out, d)
	}
	return out, rows.Err()
}
