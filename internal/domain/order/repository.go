package order

import "context"

// Repository persists order records.
type Repository interface {
	Create(ctx context.Context, record *OrderRecord) error
	Update(ctx context.Context, record *OrderRecord) error
	GetByOrderNumber(ctx context.Context, orderNumber int64) (*OrderRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*OrderRecord, error)
}
