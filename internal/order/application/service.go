package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

// WriteMode selects how a placement reaches the store.
type WriteMode string

const (
	// WriteTransactional writes header, items, event and stock in one
	// transaction.
	WriteTransactional WriteMode = "transactional"
	// WriteSequential writes header, then items, then each stock change on
	// its own. A failure midway leaves what was already written.
	WriteSequential WriteMode = "sequential"
)

// StockPolicy selects how stock is decremented.
type StockPolicy string

const (
	StockConditional StockPolicy = "conditional"
	// StockReadThenWrite re-reads stock and writes the difference. Two
	// placements interleaving here can oversell.
	StockReadThenWrite StockPolicy = "read-then-write"
)

const (
	DefaultCallTimeout     = 3 * time.Second
	maxOrderNumberAttempts = 3
)

type Config struct {
	Pricing           domain.PricingPolicy
	OrderNumberPrefix string
	// CallTimeout bounds every catalog read and store write. Zero disables it.
	CallTimeout time.Duration
	WriteMode   WriteMode
	StockPolicy StockPolicy
}

func DefaultConfig() Config {
	return Config{
		Pricing:           domain.DefaultPricing(),
		OrderNumberPrefix: domain.DefaultOrderNumberPrefix,
		CallTimeout:       DefaultCallTimeout,
		WriteMode:         WriteTransactional,
		StockPolicy:       StockConditional,
	}
}

func (c Config) Validate() error {
	if err := c.Pricing.Validate(); err != nil {
		return err
	}
	switch c.WriteMode {
	case WriteTransactional, WriteSequential:
	default:
		return fmt.Errorf("unknown write mode %q", c.WriteMode)
	}
	switch c.StockPolicy {
	case StockConditional, StockReadThenWrite:
	default:
		return fmt.Errorf("unknown stock policy %q", c.StockPolicy)
	}
	if c.CallTimeout < 0 {
		return errors.New("call timeout must not be negative")
	}
	return nil
}

type Service struct {
	log      *slog.Logger
	identity IdentityProvider
	catalog  CatalogReader
	store    Store
	cfg      Config
	numbers  *domain.OrderNumberGenerator
	newID    func() string
	now      func() time.Time
	tracer   trace.Tracer
}

func NewService(log *slog.Logger, identity IdentityProvider, catalog CatalogReader, store Store, cfg Config) *Service {
	return &Service{
		log:      log,
		identity: identity,
		catalog:  catalog,
		store:    store,
		cfg:      cfg,
		numbers:  domain.NewOrderNumberGenerator(cfg.OrderNumberPrefix),
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
		tracer:   otel.Tracer("order-application"),
	}
}

func (s *Service) authenticate(ctx context.Context, credential string) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, domain.Unauthenticated(nil)
	}
	id, err := s.identity.Resolve(ctx, credential)
	if err != nil {
		if domain.KindOf(err) != "" {
			return domain.Identity{}, err
		}
		return domain.Identity{}, domain.Unauthenticated(err)
	}
	if id.UserID == "" {
		return domain.Identity{}, domain.Unauthenticated(errors.New("credential carries no user id"))
	}
	return id, nil
}

// ListOrders returns the caller's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, credential string) ([]domain.Order, error) {
	who, err := s.authenticate(ctx, credential)
	if err != nil {
		return nil, err
	}
	var orders []domain.Order
	err = s.bound(ctx, "order history read", func(ctx context.Context) error {
		var err error
		orders, err = s.store.ListByUser(ctx, who.UserID)
		return err
	})
	if err != nil {
		return nil, readFailure(err)
	}
	return orders, nil
}

func (s *Service) GetOrder(ctx context.Context, credential, orderNumber string) (domain.Order, error) {
	who, err := s.authenticate(ctx, credential)
	if err != nil {
		return domain.Order{}, err
	}
	var o domain.Order
	err = s.bound(ctx, "order read", func(ctx context.Context) error {
		var err error
		o, err = s.store.GetByNumber(ctx, who.UserID, orderNumber)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Order{}, domain.OrderNotFound(orderNumber)
		}
		return domain.Order{}, readFailure(err)
	}
	return o, nil
}

// ListAllOrders is the back-office listing and requires the admin role.
func (s *Service) ListAllOrders(ctx context.Context, credential string, filter domain.ListFilter) ([]domain.Order, error) {
	who, err := s.authenticate(ctx, credential)
	if err != nil {
		return nil, err
	}
	if !who.IsAdmin() {
		return nil, domain.Forbidden("admin role required")
	}
	var orders []domain.Order
	err = s.bound(ctx, "order listing read", func(ctx context.Context) error {
		var err error
		orders, err = s.store.ListAll(ctx, filter)
		return err
	})
	if err != nil {
		return nil, readFailure(err)
	}
	return orders, nil
}

func readFailure(err error) error {
	if domain.KindOf(err) != "" {
		return err
	}
	return domain.UpstreamUnavailable("order store", err)
}
