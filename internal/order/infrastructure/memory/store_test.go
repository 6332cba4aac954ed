package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront-orders/internal/order/application"
	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

func newStore() *Store {
	s := New()
	s.PutProduct(domain.ProductSnapshot{ID: "A", Name: "Widget", UnitPrice: decimal.RequireFromString("2.50"), AvailableStock: 3})
	return s
}

func order(id, number, user string, at time.Time) domain.Order {
	return domain.Order{ID: id, OrderNumber: number, UserID: user, Status: domain.StatusPending, CreatedAt: at}
}

func TestInsertOrder_RejectsTakenNumber(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	require.NoError(t, s.InsertOrder(ctx, order("o1", "N-1", "u", time.Now())))
	err := s.InsertOrder(ctx, order("o2", "N-1", "u", time.Now()))

	assert.ErrorIs(t, err, domain.ErrDuplicateOrderNumber)
	assert.Equal(t, 1, s.OrderCount())
}

func TestDecrementStock_Conditional(t *testing.T) {
	s := newStore()
	ctx := context.Background()

	require.NoError(t, s.DecrementStock(ctx, "A", 2))
	assert.ErrorIs(t, s.DecrementStock(ctx, "A", 2), domain.ErrStockShortfall)
	assert.ErrorIs(t, s.DecrementStock(ctx, "missing", 1), domain.ErrStockShortfall)

	stock, _ := s.Stock("A")
	assert.Equal(t, 1, stock)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, w application.OrderWriter) error {
		require.NoError(t, w.InsertOrder(ctx, order("o1", "N-1", "u", time.Now())))
		require.NoError(t, w.InsertLineItems(ctx, []domain.LineItem{{ID: "i1", OrderID: "o1", ProductID: "A", Quantity: 1}}))
		require.NoError(t, w.DecrementStock(ctx, "A", 1))
		require.NoError(t, w.RecordEvent(ctx, domain.Event{AggregateID: "o1", Type: domain.EventOrderPlaced}))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, s.OrderCount())
	assert.Empty(t, s.LineItems("o1"))
	assert.Empty(t, s.Events())
	stock, _ := s.Stock("A")
	assert.Equal(t, 3, stock)

	// the number is free again
	assert.NoError(t, s.InsertOrder(ctx, order("o2", "N-1", "u", time.Now())))
}

func TestInsertLineItems_UnknownOrder(t *testing.T) {
	s := newStore()
	err := s.InsertLineItems(context.Background(), []domain.LineItem{{ID: "i1", OrderID: "nope", ProductID: "A"}})
	assert.Error(t, err)
}

func TestListing(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertOrder(ctx, order("o1", "N-1", "u1", base)))
	require.NoError(t, s.InsertOrder(ctx, order("o2", "N-2", "u2", base.Add(time.Minute))))
	shipped := order("o3", "N-3", "u1", base.Add(2*time.Minute))
	shipped.Status = domain.StatusShipped
	require.NoError(t, s.InsertOrder(ctx, shipped))
	require.NoError(t, s.InsertLineItems(ctx, []domain.LineItem{{ID: "i1", OrderID: "o1", ProductID: "A", Quantity: 1}}))

	mine, err := s.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "o3", mine[0].ID)
	assert.Equal(t, "o1", mine[1].ID)
	require.Len(t, mine[1].Items, 1)
	assert.Equal(t, "Widget", mine[1].Items[0].Product.Name)

	all, err := s.ListAll(ctx, domain.ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"o3", "o2"}, []string{all[0].ID, all[1].ID})

	onlyShipped, err := s.ListAll(ctx, domain.ListFilter{Status: domain.StatusShipped})
	require.NoError(t, err)
	require.Len(t, onlyShipped, 1)

	_, err = s.GetByNumber(ctx, "u2", "N-1")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	got, err := s.GetByNumber(ctx, "u1", "N-1")
	require.NoError(t, err)
	assert.Equal(t, "o1", got.ID)
}

func TestCanceledContext(t *testing.T) {
	s := newStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetProduct(ctx, "A")
	assert.ErrorIs(t, err, context.Canceled)
}
