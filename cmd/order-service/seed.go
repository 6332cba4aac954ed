package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

type seedProduct struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

func (p seedProduct) validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return errors.New("id is required")
	case p.Price.IsNegative():
		return fmt.Errorf("product %s: negative price %s", p.ID, p.Price)
	case p.Stock < 0:
		return fmt.Errorf("product %s: negative stock %d", p.ID, p.Stock)
	}
	return nil
}

// loadSeed reads a JSON array of products, checks every entry, then hands each
// to put. Nothing is written when an entry is invalid.
func loadSeed(ctx context.Context, path string, put func(context.Context, domain.ProductSnapshot) error) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var products []seedProduct
	if err := json.Unmarshal(raw, &products); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, p := range products {
		if err := p.validate(); err != nil {
			return 0, fmt.Errorf("seed entry %d: %w", i, err)
		}
	}
	for _, p := range products {
		snap := domain.ProductSnapshot{ID: p.ID, Name: p.Name, UnitPrice: p.Price, AvailableStock: p.Stock}
		if err := put(ctx, snap); err != nil {
			return 0, fmt.Errorf("seed %s: %w", p.ID, err)
		}
	}
	return len(products), nil
}
