package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cartloom/checkout/internal/domain/order"
	ierr "github.com/cartloom/checkout/internal/errors"
	"github.com/cartloom/checkout/internal/logger"
	"github.com/cartloom/checkout/internal/postgres"
)

const ordersSchema = `
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	order_number BIGINT UNIQUE NOT NULL,
	amount_cents BIGINT NOT NULL,
	currency TEXT NOT NULL DEFAULT 'usd',
	provider TEXT NOT NULL,
	account TEXT NOT NULL DEFAULT '',
	payment_ref TEXT NOT NULL,
	template_id TEXT NOT NULL DEFAULT '',
	billing JSONB,
	receipt_key TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

type orderRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewOrderRepository creates the postgres-backed order repository and
// bootstraps the schema.
func NewOrderRepository(db *postgres.DB, logger *logger.Logger) (order.Repository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, ordersSchema); err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to create orders table").
			Mark(ierr.ErrDatabase)
	}

	return &orderRepository{db: db, logger: logger}, nil
}

func (r *orderRepository) Create(ctx context.Context, record *order.OrderRecord) error {
	query := `
	INSERT INTO orders (id, order_number, amount_cents, currency, provider, account,
		payment_ref, template_id, billing, receipt_key, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(
		ctx, query,
		record.ID,
		record.OrderNumber,
		record.AmountCents,
		record.Currency,
		record.Provider,
		record.Account,
		record.PaymentRef,
		record.TemplateID,
		record.Billing,
		record.ReceiptKey,
		record.Status,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to insert order record").
			WithMessagef("order_number:%d", record.OrderNumber).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *orderRepository) Update(ctx context.Context, record *order.OrderRecord) error {
	record.UpdatedAt = time.Now().UTC()

	query := `
	UPDATE orders
	SET template_id = $2, billing = $3, receipt_key = $4, status = $5, updated_at = $6
	WHERE id = $1
	`

	_, err := r.db.ExecContext(
		ctx, query,
		record.ID,
		record.TemplateID,
		record.Billing,
		record.ReceiptKey,
		record.Status,
		record.UpdatedAt,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to update order record").
			WithMessagef("order_id:%s", record.ID).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *orderRepository) GetByOrderNumber(ctx context.Context, orderNumber int64) (*order.OrderRecord, error) {
	query := `SELECT * FROM orders WHERE order_number = $1`

	var record order.OrderRecord
	err := r.db.GetContext(ctx, &record, query, orderNumber)
	if err != nil {
		if ierr.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewErrorf("order %d not found", orderNumber).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("failed to get order record").
			Mark(ierr.ErrDatabase)
	}
	return &record, nil
}

func (r *orderRepository) ListRecent(ctx context.Context, limit int) ([]*order.OrderRecord, error) {
	query := `SELECT * FROM orders ORDER BY order_number DESC LIMIT $1`

	var records []*order.OrderRecord
	err := r.db.SelectContext(ctx, &records, query, limit)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("failed to list order records").
			Mark(ierr.ErrDatabase)
	}
	return records, nil
}
