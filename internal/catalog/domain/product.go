package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

// Product is a sellable item with its current price and stock on hand.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int
}
