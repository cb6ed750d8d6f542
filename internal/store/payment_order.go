package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hope-foundation/apiserver/types"
)

// PaymentOrderRepository tracks provider orders awaiting confirmation.
type PaymentOrderRepository struct {
	db *sql.DB
}

func NewPaymentOrderRepository(db *sql.DB) *PaymentOrderRepository {
	return &PaymentOrderRepository{db: db}
}

const paymentOrderColumns = `provider_order_id, amount, currency, receipt, name, email, message,
	is_recurring, purpose, status, created_at, updated_at`

func scanPaymentOrder(row interface{ Scan(...any) error }) (types.PaymentOrder, error) {
	var order types.PaymentOrder
	var status string
	if err := row.Scan(
		&order.ProviderOrderID,
		&order.Amount,
		&order.Currency,
		&order.Receipt,
		&order.Name,
		&order.Email,
		&order.Message,
		&order.IsRecurring,
		&order.Purpose,
		&status,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return types.PaymentOrder{}, err
	}
	parsed, err := types.ParseOrderStatus(status)
	if err != nil {
		return types.PaymentOrder{}, err
	}
	order.Status = parsed
	return order, nil
}

func (r *PaymentOrderRepository) Create(ctx context.Context, order types.PaymentOrder) (types.PaymentOrder, error) {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	order.Status = types.OrderCreated

	const query = `
		INSERT INTO payment_orders (
			provider_order_id, amount, currency, receipt, name, email, message,
			is_recurring, purpose, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		order.ProviderOrderID,
		order.Amount,
		order.Currency,
		order.Receipt,
		order.Name,
		order.Email,
		order.Message,
		order.IsRecurring,
		order.Purpose,
		order.Status.String(),
		order.CreatedAt,
		order.UpdatedAt,
	); err != nil {
		return types.PaymentOrder{}, mapError(err)
	}
	return order, nil
}

func (r *PaymentOrderRepository) Get(ctx context.Context, orderID string) (types.PaymentOrder, error) {
	query := `SELECT ` + paymentOrderColumns + ` FROM payment_orders WHERE provider_order_id = $1`
	order, err := scanPaymentOrder(r.db.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.PaymentOrder{}, ErrNotFound
		}
		return types.PaymentOrder{}, err
	}
	return order, nil
}

// MarkFailed moves a still-open order to failed. Paid orders are left alone.
func (r *PaymentOrderRepository) MarkFailed(ctx context.Context, orderID string) error {
	const query = `
		UPDATE payment_orders
		SET status = $1, updated_at = $2
		WHERE provider_order_id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, types.OrderFailed.String(), time.Now(), orderID, types.OrderCreated.String())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := r.Get(ctx, orderID); err != nil {
			return err
		}
	}
	return nil
}

// ListStale returns unpaid orders created between notBefore and notAfter,
// oldest first. Failed orders are included because the donor may have
// retried the same order and paid on a later attempt.
func (r *PaymentOrderRepository) ListStale(ctx context.Context, notBefore, notAfter time.Time, limit int) ([]types.PaymentOrder, error) {
	query := `SELECT ` + paymentOrderColumns + `
		FROM payment_orders
		WHERE status IN ($1, $2) AND created_at >= $3 AND created_at <= $4
		ORDER BY created_at ASC
		LIMIT $5`
	rows, err := r.db.QueryContext(ctx, query,
		types.OrderCreated.String(), types.OrderFailed.String(), notBefore, notAfter, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]types.PaymentOrder, 0)
	for rows.Next() {
		order, err := scanPaymentOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
