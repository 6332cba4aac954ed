package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// ParseOrderStatus accepts any of the known statuses, case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, true
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// Identity is who the bearer credential resolved to.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// CartLine is one requested line of a cart. It is never persisted as is.
type CartLine struct {
	ProductID string
	Quantity  int
}

// ProductSnapshot is the catalog state at the moment it was read. Nothing
// holds it stable afterwards.
type ProductSnapshot struct {
	ID             string
	Name           string
	UnitPrice      decimal.Decimal
	AvailableStock int
}

// ValidatedLine is a cart line that passed the inventory check, priced from
// the snapshot it was checked against.
type ValidatedLine struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

func NewValidatedLine(p ProductSnapshot, quantity int) ValidatedLine {
	return ValidatedLine{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    quantity,
		UnitPrice:   p.UnitPrice,
		LineTotal:   p.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

type LineItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	// Product is filled on read paths only.
	Product *ProductSnapshot
}

type Order struct {
	ID              string
	OrderNumber     string
	UserID          string
	Email           string
	Phone           string
	Status          OrderStatus
	Subtotal        decimal.Decimal
	Shipping        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	ShippingAddress json.RawMessage
	BillingAddress  json.RawMessage
	PaymentMethod   string
	PaymentStatus   PaymentStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Items           []LineItem
}

// NewOrder builds a PENDING order from validated lines and their totals.
// Ids are supplied by the caller so the order stays deterministic in tests.
func NewOrder(id, number string, who Identity, req PlacementRequest, lines []ValidatedLine, totals Totals, itemIDs func() string, now time.Time) Order {
	billing := req.BillingAddress
	if isBlankJSON(billing) {
		billing = req.ShippingAddress
	}
	o := Order{
		ID:              id,
		OrderNumber:     number,
		UserID:          who.UserID,
		Email:           req.Email,
		Phone:           req.Phone,
		Status:          StatusPending,
		Subtotal:        totals.Subtotal,
		Shipping:        totals.Shipping,
		Tax:             totals.Tax,
		Total:           totals.Total,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billing,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           make([]LineItem, 0, len(lines)),
	}
	for _, l := range lines {
		o.Items = append(o.Items, LineItem{
			ID:        itemIDs(),
			OrderID:   id,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.LineTotal,
		})
	}
	return o
}

// ListFilter narrows the admin listing. Zero values mean no filter.
type ListFilter struct {
	Status OrderStatus
	Limit  int
}
