package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmehra2102/storefront-orders/internal/order/application"
	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

// Store keeps products, orders and events in process. It serves as catalog
// and order store at once. Transactions are serialized against each other
// and undone on error; plain writes outside a transaction are not isolated
// from them.
type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	seq      int64
	products map[string]domain.ProductSnapshot
	orders   map[string]storedOrder
	numbers  map[string]string
	items    map[string][]domain.LineItem
	events   []domain.Event
}

type storedOrder struct {
	order domain.Order
	seq   int64
}

var (
	_ application.Store         = (*Store)(nil)
	_ application.CatalogReader = (*Store)(nil)
)

func New() *Store {
	return &Store{
		products: make(map[string]domain.ProductSnapshot),
		orders:   make(map[string]storedOrder),
		numbers:  make(map[string]string),
		items:    make(map[string][]domain.LineItem),
	}
}

func (s *Store) PutProduct(p domain.ProductSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) Stock(productID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	return p.AvailableStock, ok
}

func (s *Store) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...)
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// LineItems returns the stored items of one order.
func (s *Store) LineItems(orderID string) []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LineItem(nil), s.items[orderID]...)
}

func (s *Store) GetProduct(ctx context.Context, productID string) (domain.ProductSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProductSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return domain.ProductSnapshot{}, domain.ProductNotFound(productID)
	}
	return p, nil
}

func (s *Store) InsertOrder(ctx context.Context, o domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.numbers[o.OrderNumber]; taken {
		return domain.ErrDuplicateOrderNumber
	}
	if _, exists := s.orders[o.ID]; exists {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	s.seq++
	o.Items = nil
	s.orders[o.ID] = storedOrder{order: o, seq: s.seq}
	s.numbers[o.OrderNumber] = o.ID
	return nil
}

func (s *Store) InsertLineItems(ctx context.Context, items []domain.LineItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if _, ok := s.orders[it.OrderID]; !ok {
			return fmt.Errorf("line item %s references unknown order %s", it.ID, it.OrderID)
		}
	}
	for _, it := range items {
		it.Product = nil
		s.items[it.OrderID] = append(s.items[it.OrderID], it)
	}
	return nil
}

func (s *Store) DecrementStock(ctx context.Context, productID string, quantity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok || p.AvailableStock < quantity {
		return domain.ErrStockShortfall
	}
	p.AvailableStock -= quantity
	s.products[productID] = p
	return nil
}

func (s *Store) ReadStock(ctx context.Context, productID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return 0, domain.ProductNotFound(productID)
	}
	return p.AvailableStock, nil
}

func (s *Store) WriteStock(ctx context.Context, productID string, stock int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return domain.ProductNotFound(productID)
	}
	p.AvailableStock = stock
	s.products[productID] = p
	return nil
}

func (s *Store) RecordEvent(ctx context.Context, ev domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, w application.OrderWriter) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	seq      int64
	products map[string]domain.ProductSnapshot
	orders   map[string]storedOrder
	numbers  map[string]string
	items    map[string][]domain.LineItem
	events   int
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		seq:      s.seq,
		products: make(map[string]domain.ProductSnapshot, len(s.products)),
		orders:   make(map[string]storedOrder, len(s.orders)),
		numbers:  make(map[string]string, len(s.numbers)),
		items:    make(map[string][]domain.LineItem, len(s.items)),
		events:   len(s.events),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	for k, v := range s.numbers {
		snap.numbers[k] = v
	}
	for k, v := range s.items {
		snap.items[k] = append([]domain.LineItem(nil), v...)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = snap.seq
	s.products = snap.products
	s.orders = snap.orders
	s.numbers = snap.numbers
	s.items = snap.items
	s.events = s.events[:snap.events]
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.list(ctx, func(o domain.Order) bool { return o.UserID == userID }, 0)
}

func (s *Store) ListAll(ctx context.Context, filter domain.ListFilter) ([]domain.Order, error) {
	return s.list(ctx, func(o domain.Order) bool {
		return filter.Status == "" || o.Status == filter.Status
	}, filter.Limit)
}

func (s *Store) GetByNumber(ctx context.Context, userID, orderNumber string) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.numbers[orderNumber]
	if !ok || s.orders[id].order.UserID != userID {
		return domain.Order{}, domain.OrderNotFound(orderNumber)
	}
	return s.withItems(s.orders[id].order), nil
}

func (s *Store) list(ctx context.Context, keep func(domain.Order) bool, limit int) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]storedOrder, 0, len(s.orders))
	for _, so := range s.orders {
		if keep(so.order) {
			matched = append(matched, so)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.order.CreatedAt.Equal(b.order.CreatedAt) {
			return a.order.CreatedAt.After(b.order.CreatedAt)
		}
		return a.seq > b.seq
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]domain.Order, 0, len(matched))
	for _, so := range matched {
		out = append(out, s.withItems(so.order))
	}
	return out, nil
}

// withItems attaches stored items and current product snapshots. Callers
// hold s.mu.
func (s *Store) withItems(o domain.Order) domain.Order {
	stored := s.items[o.ID]
	o.Items = make([]domain.LineItem, 0, len(stored))
	for _, it := range stored {
		if p, ok := s.products[it.ProductID]; ok {
			snap := p
			it.Product = &snap
		}
		o.Items = append(o.Items, it)
	}
	return o
}
