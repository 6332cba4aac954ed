package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	orderdomain "github.com/dmehra2102/storefront-orders/internal/order/domain"
)

type Kind string

const (
	KindStockNotAdjusted Kind = "STOCK_NOT_ADJUSTED"
	KindLineItemsMissing Kind = "LINE_ITEMS_MISSING"
)

// ErrMalformedEvent marks a payload that will never decode. Redelivery does
// not help.
var ErrMalformedEvent = errors.New("malformed event")

// Incident is an order left inconsistent by a partial write, waiting for an
// operator.
type Incident struct {
	ID          string
	EventKey    string
	Kind        Kind
	OrderID     string
	OrderNumber string
	ProductID   string
	Quantity    int
	Reason      string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

// FromEvent turns an order event into an incident. ok is false for event
// types that need no follow-up.
func FromEvent(eventType, eventKey string, payload []byte) (inc Incident, ok bool, err error) {
	inc = Incident{EventKey: eventKey, Payload: json.RawMessage(payload)}
	switch eventType {
	case orderdomain.EventStockAdjustmentFailed:
		var ev orderdomain.StockAdjustmentFailed
		if err := json.Unmarshal(payload, &ev); err != nil {
			return Incident{}, false, fmt.Errorf("%w: %s: %v", ErrMalformedEvent, eventType, err)
		}
		inc.Kind = KindStockNotAdjusted
		inc.OrderID, inc.OrderNumber = ev.OrderID, ev.OrderNumber
		inc.ProductID, inc.Quantity, inc.Reason = ev.ProductID, ev.Quantity, ev.Reason
	case orderdomain.EventLineItemsMissing:
		var ev orderdomain.LineItemsMissing
		if err := json.Unmarshal(payload, &ev); err != nil {
			return Incident{}, false, fmt.Errorf("%w: %s: %v", ErrMalformedEvent, eventType, err)
		}
		inc.Kind = KindLineItemsMissing
		inc.OrderID, inc.OrderNumber = ev.OrderID, ev.OrderNumber
		inc.Quantity, inc.Reason = ev.ItemCount, ev.Reason
	default:
		return Incident{}, false, nil
	}
	if inc.OrderID == "" {
		return Incident{}, false, fmt.Errorf("%w: %s without orderId", ErrMalformedEvent, eventType)
	}
	return inc, true, nil
}
