package domain

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnauthenticated        Kind = "Unauthenticated"
	KindForbidden              Kind = "Forbidden"
	KindInvalidRequest         Kind = "InvalidRequest"
	KindEmptyCart              Kind = "EmptyCart"
	KindProductNotFound        Kind = "ProductNotFound"
	KindInsufficientStock      Kind = "InsufficientStock"
	KindOrderPersistFailure    Kind = "OrderPersistFailure"
	KindLineItemPersistFailure Kind = "LineItemPersistFailure"
	KindUpstreamUnavailable    Kind = "UpstreamUnavailable"
	KindStockAdjustmentFailure Kind = "StockAdjustmentFailure"
	KindOrderNotFound          Kind = "OrderNotFound"
)

// Error is the error every order operation reports to its caller. Two Errors
// match under errors.Is when their kinds are equal, so the Err* values below
// work as sentinels.
type Error struct {
	Kind        Kind
	Message     string
	ProductID   string
	ProductName string
	Field       string
	OrderID     string
	OrderNumber string
	Err         error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrUnauthenticated        = &Error{Kind: KindUnauthenticated}
	ErrForbidden              = &Error{Kind: KindForbidden}
	ErrInvalidRequest         = &Error{Kind: KindInvalidRequest}
	ErrEmptyCart              = &Error{Kind: KindEmptyCart}
	ErrProductNotFound        = &Error{Kind: KindProductNotFound}
	ErrInsufficientStock      = &Error{Kind: KindInsufficientStock}
	ErrOrderPersistFailure    = &Error{Kind: KindOrderPersistFailure}
	ErrLineItemPersistFailure = &Error{Kind: KindLineItemPersistFailure}
	ErrUpstreamUnavailable    = &Error{Kind: KindUpstreamUnavailable}
	ErrStockAdjustmentFailure = &Error{Kind: KindStockAdjustmentFailure}
	ErrOrderNotFound          = &Error{Kind: KindOrderNotFound}
)

// Store-level conditions. Adapters return these; the application turns them
// into Errors.
var (
	ErrDuplicateOrderNumber = errors.New("order number already taken")
	ErrStockShortfall       = errors.New("stock below requested quantity")
)

// KindOf reports the Kind of the first Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Unauthenticated(err error) *Error {
	return &Error{Kind: KindUnauthenticated, Message: "authentication required", Err: err}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func InvalidField(field, msg string) *Error {
	return &Error{Kind: KindInvalidRequest, Field: field, Message: msg}
}

func EmptyCart() *Error {
	return &Error{Kind: KindEmptyCart, Message: "cart is empty"}
}

func ProductNotFound(productID string) *Error {
	return &Error{Kind: KindProductNotFound, ProductID: productID, Message: "product not found: " + productID}
}

func InsufficientStock(productID, productName string) *Error {
	return &Error{
		Kind:        KindInsufficientStock,
		ProductID:   productID,
		ProductName: productName,
		Message:     "insufficient stock for " + productName,
	}
}

func OrderPersistFailure(err error) *Error {
	return &Error{Kind: KindOrderPersistFailure, Message: "order could not be saved", Err: err}
}

func LineItemPersistFailure(orderID, orderNumber string, err error) *Error {
	return &Error{
		Kind:        KindLineItemPersistFailure,
		OrderID:     orderID,
		OrderNumber: orderNumber,
		Message:     fmt.Sprintf("order %s saved without line items", orderNumber),
		Err:         err,
	}
}

func UpstreamUnavailable(op string, err error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Message: op + " unavailable", Err: err}
}

func StockAdjustmentFailure(orderID, productID string, err error) *Error {
	return &Error{
		Kind:      KindStockAdjustmentFailure,
		OrderID:   orderID,
		ProductID: productID,
		Message:   "stock not adjusted for " + productID,
		Err:       err,
	}
}

func OrderNotFound(orderNumber string) *Error {
	return &Error{Kind: KindOrderNotFound, OrderNumber: orderNumber, Message: "order not found: " + orderNumber}
}
