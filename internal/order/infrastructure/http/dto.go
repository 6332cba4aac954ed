package http

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront-orders/internal/order/application"
	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

type cartLineReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type placeOrderReq struct {
	Items           []cartLineReq   `json:"items"`
	ShippingAddress json.RawMessage `json:"shippingAddress"`
	BillingAddress  json.RawMessage `json:"billingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
}

func (r placeOrderReq) toDomain() domain.PlacementRequest {
	lines := make([]domain.CartLine, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, domain.CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return domain.PlacementRequest{
		Items:           lines,
		ShippingAddress: r.ShippingAddress,
		BillingAddress:  r.BillingAddress,
		PaymentMethod:   r.PaymentMethod,
		Email:           r.Email,
		Phone:           r.Phone,
	}
}

type productResp struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
	Stock int         `json:"stock"`
}

type lineItemResp struct {
	ID        string       `json:"id"`
	ProductID string       `json:"productId"`
	Quantity  int          `json:"quantity"`
	Price     json.Number  `json:"price"`
	Total     json.Number  `json:"total"`
	Product   *productResp `json:"product,omitempty"`
}

type orderResp struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          string          `json:"userId"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Status          string          `json:"status"`
	Subtotal        json.Number     `json:"subtotal"`
	Shipping        json.Number     `json:"shipping"`
	Tax             json.Number     `json:"tax"`
	Total           json.Number     `json:"total"`
	ShippingAddress json.RawMessage `json:"shippingAddress"`
	BillingAddress  json.RawMessage `json:"billingAddress"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
	PaymentStatus   string          `json:"paymentStatus"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Items           []lineItemResp  `json:"items"`
}

type warningResp struct {
	Code      string `json:"code"`
	Error     string `json:"error"`
	ProductID string `json:"productId,omitempty"`
}

type placeOrderResp struct {
	Order    orderResp     `json:"order"`
	Message  string        `json:"message"`
	Warnings []warningResp `json:"warnings,omitempty"`
}

type ordersResp struct {
	Orders []orderResp `json:"orders"`
}

type errorResp struct {
	Error       string `json:"error"`
	Code        string `json:"code"`
	ProductID   string `json:"productId,omitempty"`
	Field       string `json:"field,omitempty"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func toOrderResp(o domain.Order) orderResp {
	resp := orderResp{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Email:           o.Email,
		Phone:           o.Phone,
		Status:          string(o.Status),
		Subtotal:        money(o.Subtotal),
		Shipping:        money(o.Shipping),
		Tax:             money(o.Tax),
		Total:           money(o.Total),
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   string(o.PaymentStatus),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           make([]lineItemResp, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		li := lineItemResp{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     money(it.UnitPrice),
			Total:     money(it.LineTotal),
		}
		if it.Product != nil {
			li.Product = &productResp{
				ID:    it.Product.ID,
				Name:  it.Product.Name,
				Price: money(it.Product.UnitPrice),
				Stock: it.Product.AvailableStock,
			}
		}
		resp.Items = append(resp.Items, li)
	}
	return resp
}

func toOrdersResp(orders []domain.Order) ordersResp {
	out := ordersResp{Orders: make([]orderResp, 0, len(orders))}
	for _, o := range orders {
		out.Orders = append(out.Orders, toOrderResp(o))
	}
	return out
}

func toPlaceOrderResp(p application.Placement) placeOrderResp {
	resp := placeOrderResp{Order: toOrderResp(p.Order), Message: "order created"}
	for _, w := range p.Warnings {
		resp.Warnings = append(resp.Warnings, warningResp{Code: string(w.Kind), Error: w.Error(), ProductID: w.ProductID})
	}
	return resp
}
