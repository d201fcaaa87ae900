package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cartloom/checkout/internal/domain/order"
	ierr "github.com/cartloom/checkout/internal/errors"
)

// OrderStore implements order.Repository in process memory. It backs local
// runs without postgres and the service tests.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*order.OrderRecord
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[string]*order.OrderRecord),
	}
}

func (s *OrderStore) Create(ctx context.Context, record *order.OrderRecord) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[record.ID]; exists {
		return ierr.NewErrorf("order %s already exists", record.ID).
			Mark(ierr.ErrAlreadyExists)
	}

	clone := *record
	s.orders[record.ID] = &clone
	return nil
}

func (s *OrderStore) Update(ctx context.Context, record *order.OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[record.ID]; !exists {
		return ierr.NewErrorf("order %s not found", record.ID).
			Mark(ierr.ErrNotFound)
	}

	clone := *record
	s.orders[record.ID] = &clone
	return nil
}

func (s *OrderStore) GetByOrderNumber(ctx context.Context, orderNumber int64) (*order.OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.orders {
		if r.OrderNumber == orderNumber {
			clone := *r
			return &clone, nil
		}
	}
	return nil, ierr.NewErrorf("order %d not found", orderNumber).
		Mark(ierr.ErrNotFound)
}

func (s *OrderStore) ListRecent(ctx context.Context, limit int) ([]*order.OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*order.OrderRecord, 0, len(s.orders))
	for _, r := range s.orders {
		clone := *r
		records = append(records, &clone)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].OrderNumber > records[j].OrderNumber
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *OrderStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}
