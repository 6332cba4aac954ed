package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

func statusOf(kind domain.Kind) int {
	switch kind {
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindInvalidRequest, domain.KindEmptyCart, domain.KindProductNotFound, domain.KindInsufficientStock:
		return http.StatusBadRequest
	case domain.KindOrderNotFound:
		return http.StatusNotFound
	case domain.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = domain.OrderPersistFailure(err)
	}
	status := statusOf(de.Kind)
	// errors.As stops at the outermost Error, so a LineItemPersistFailure
	// caused by a timeout stays a 500.
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "code", de.Kind, "err", err)
	}

	msg := de.Message
	if msg == "" {
		msg = string(de.Kind)
	}
	writeJSON(w, status, errorResp{
		Error:       msg,
		Code:        string(de.Kind),
		ProductID:   de.ProductID,
		Field:       de.Field,
		OrderNumber: de.OrderNumber,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
