package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PlacementRequest is everything the client sends to place an order.
type PlacementRequest struct {
	Items           []CartLine
	ShippingAddress json.RawMessage
	// BillingAddress falls back to ShippingAddress when blank.
	BillingAddress json.RawMessage
	PaymentMethod  string
	Email          string
	Phone          string
}

// Validate runs the checks that need no storage access.
func (r PlacementRequest) Validate() error {
	if len(r.Items) == 0 {
		return EmptyCart()
	}
	for i, line := range r.Items {
		if strings.TrimSpace(line.ProductID) == "" {
			return InvalidField(fmt.Sprintf("items[%d].productId", i), "product id is required")
		}
		if line.Quantity < 1 {
			return InvalidField(fmt.Sprintf("items[%d].quantity", i), "quantity must be a positive integer")
		}
	}
	if isBlankJSON(r.ShippingAddress) {
		return InvalidField("shippingAddress", "shipping address is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return InvalidField("email", "email is required")
	}
	if strings.TrimSpace(r.Phone) == "" {
		return InvalidField("phone", "phone is required")
	}
	return nil
}

func isBlankJSON(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	return len(v) == 0 || bytes.Equal(v, []byte("null")) || bytes.Equal(v, []byte(`""`))
}
