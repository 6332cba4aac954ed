package domain

import "encoding/json"

const (
	EventOrderPlaced           = "OrderPlaced"
	EventStockAdjustmentFailed = "StockAdjustmentFailed"
	EventLineItemsMissing      = "OrderLineItemsMissing"

	AggregateOrder = "order"
)

type OrderPlaced struct {
	OrderID     string            `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	UserID      string            `json:"userId"`
	Total       string            `json:"total"`
	Items       []OrderPlacedItem `json:"items"`
}

type OrderPlacedItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

type StockAdjustmentFailed struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	ProductID   string `json:"productId"`
	Quantity    int    `json:"quantity"`
	Reason      string `json:"reason"`
}

type LineItemsMissing struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	ItemCount   int    `json:"itemCount"`
	Reason      string `json:"reason"`
}

// Event is a domain event on its way to the outbox.
type Event struct {
	AggregateID string
	Type        string
	Payload     []byte
	Headers     map[string]string
	Traceparent string
}

func NewEvent(aggregateID, eventType string, body any) (Event, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Event{}, err
	}
	return Event{AggregateID: aggregateID, Type: eventType, Payload: payload}, nil
}

func OrderPlacedFrom(o Order) OrderPlaced {
	ev := OrderPlaced{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Total:       o.Total.StringFixed(moneyPlaces),
		Items:       make([]OrderPlacedItem, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, OrderPlacedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(moneyPlaces),
		})
	}
	return ev
}
