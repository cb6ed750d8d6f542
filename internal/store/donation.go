package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hope-foundation/apiserver/types"
)

// DonationRepository handles persistence for donations.
type DonationRepository struct {
	db *sql.DB
}

func NewDonationRepository(db *sql.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

const donationColumns = `id, amount, currency, name, email, message, is_recurring, purpose,
	provider_payment_id, provider_order_id, created_at`

func scanDonation(row interface{ Scan(...any) error }) (types.Donation, error) {
	var donation types.Donation
	if err := row.Scan(
		&donation.ID,
		&donation.Amount,
		&donation.Currency,
		&donation.Name,
		&donation.Email,
		&donation.Message,
		&donation.IsRecurring,
		&donation.Purpose,
		&donation.ProviderPaymentID,
		&donation.ProviderOrderID,
		&donation.CreatedAt,
	); err != nil {
		return types.Donation{}, err
	}
	return donation, nil
}

// List returns donations newest first.
func (r *DonationRepository) List(ctx context.Context, limit, offset int) ([]types.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donations := make([]types.Donation, 0)
	for rows.Next() {
		donation, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, donation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return donations, nil
}

// Totals returns the number of donations and their summed amount.
func (r *DonationRepository) Totals(ctx context.Context) (int, int64, error) {
	const query = `SELECT COUNT(1), COALESCE(SUM(amount), 0) FROM donations`
	var count int
	var total int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count, &total); err != nil {
		return 0, 0, err
	}
	return count, total, nil
}

// RecordForOrder writes the donation for a confirmed payment of orderID and
// marks the order paid, in one transaction. Donor details come from the
// order row. It reports created=false when paymentID was already recorded,
// returning the existing donation.
func (r *DonationRepository) RecordForOrder(ctx context.Context, orderID, paymentID string) (types.Donation, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Donation{}, false, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	order, err := scanPaymentOrder(tx.QueryRowContext(ctx,
		`SELECT `+paymentOrderColumns+` FROM payment_orders WHERE provider_order_id = $1 FOR UPDATE`, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Donation{}, false, ErrNotFound
		}
		return types.Donation{}, false, err
	}

	now := time.Now()
	donation := types.Donation{
		Amount:            order.Amount,
		Currency:          order.Currency,
		Name:              order.Name,
		Email:             order.Email,
		Message:           order.Message,
		IsRecurring:       order.IsRecurring,
		Purpose:           order.Purpose,
		ProviderPaymentID: paymentID,
		ProviderOrderID:   order.ProviderOrderID,
		CreatedAt:         now,
	}

	const insert = `
		INSERT INTO donations (
			amount, currency, name, email, message, is_recurring, purpose,
			provider_payment_id, provider_order_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (provider_payment_id) DO NOTHING
		RETURNING id`
	err = tx.QueryRowContext(
		ctx,
		insert,
		donation.Amount,
		donation.Currency,
		donation.Name,
		donation.Email,
		donation.Message,
		donation.IsRecurring,
		donation.Purpose,
		donation.ProviderPaymentID,
		donation.ProviderOrderID,
		donation.CreatedAt,
	).Scan(&donation.ID)
	created := true
	if errors.Is(err, sql.ErrNoRows) {
		created = false
		donation, err = scanDonation(tx.QueryRowContext(ctx,
			`SELECT `+donationColumns+` FROM donations WHERE provider_payment_id = $1`, paymentID))
	}
	if err != nil {
		return types.Donation{}, false, fmt.Errorf("insert donation: %w", err)
	}

	if order.Status != types.OrderPaid {
		const update = `UPDATE payment_orders SET status = $1, updated_at = $2 WHERE provider_order_id = $3`
		if _, err := tx.ExecContext(ctx, update, types.OrderPaid.String(), now, orderID); err != nil {
			return types.Donation{}, false, fmt.Errorf("mark order paid: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return types.Donation{}, false, err
	}
	return donation, created, nil
}
