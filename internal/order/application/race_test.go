package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dmehra2102/storefront-orders/internal/order/application"
	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

// placeConcurrently runs one placement per quantity, all released from the
// catalog barrier together, and returns the errors in input order.
func placeConcurrently(svc *application.Service, quantities []int) []error {
	errs := make([]error, len(quantities))
	var wg sync.WaitGroup
	for i, q := range quantities {
		wg.Add(1)
		go func(i, q int) {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(context.Background(), buyerToken, cart(domain.CartLine{ProductID: "A", Quantity: q}))
		}(i, q)
	}
	wg.Wait()
	return errs
}

// Both placements pass validation against the same stock of 10 before
// either writes. Reading stock and writing the difference lets both
// through and 12 units are sold from a stock of 10.
func TestConcurrentPlacement_ReadThenWriteOversells(t *testing.T) {
	store := seededStore(10, 0)
	catalog := newBarrierCatalog(store, 2)
	svc := newService(catalog, store, sequential, readThenWrite)

	errs := placeConcurrently(svc, []int{6, 6})

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 2, store.OrderCount())
	a, _ := store.Stock("A")
	assert.Contains(t, []int{4, -2}, a, "stock after oversell")
}

func TestConcurrentPlacement_ConditionalDecrementAllowsOne(t *testing.T) {
	store := seededStore(10, 0)
	catalog := newBarrierCatalog(store, 2)
	svc := newService(catalog, store)

	errs := placeConcurrently(svc, []int{6, 6})

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case domain.KindOf(err) == domain.KindInsufficientStock:
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Equal(t, 1, store.OrderCount())
	a, _ := store.Stock("A")
	assert.Equal(t, 4, a)
}

func TestConcurrentPlacement_SequentialConditionalWarns(t *testing.T) {
	store := seededStore(10, 0)
	catalog := newBarrierCatalog(store, 2)
	svc := newService(catalog, store, sequential)

	var (
		mu       sync.Mutex
		warnings int
		wg       sync.WaitGroup
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := svc.PlaceOrder(context.Background(), buyerToken, cart(domain.CartLine{ProductID: "A", Quantity: 6}))
			assert.NoError(t, err)
			mu.Lock()
			warnings += len(p.Warnings)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, warnings)
	a, _ := store.Stock("A")
	assert.Equal(t, 4, a)
}

func TestConcurrentPlacement_NeverOversells(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stock := rapid.IntRange(0, 30).Draw(t, "stock")
		quantities := rapid.SliceOfN(rapid.IntRange(1, 10), 1, 6).Draw(t, "quantities")

		store := seededStore(stock, 0)
		svc := newService(store, store, func(c *application.Config) { c.CallTimeout = 5 * time.Second })

		errs := placeConcurrently(svc, quantities)

		sold := 0
		for i, err := range errs {
			switch {
			case err == nil:
				sold += quantities[i]
			case domain.KindOf(err) != domain.KindInsufficientStock:
				t.Fatalf("placement %d: %v", i, err)
			}
		}
		left, _ := store.Stock("A")
		if sold > stock {
			t.Fatalf("sold %d from stock %d", sold, stock)
		}
		if left != stock-sold {
			t.Fatalf("stock %d after selling %d of %d", left, sold, stock)
		}
	})
}
