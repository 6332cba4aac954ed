package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmehra2102/storefront-orders/internal/order/application"
	"github.com/dmehra2102/storefront-orders/internal/order/domain"
)

const (
	maxBodyBytes = 1 << 20
	// AuthCookie is the cookie the storefront keeps its session token in.
	AuthCookie = "auth-token"
)

// OrderService is what the handler needs from the application layer.
type OrderService interface {
	PlaceOrder(ctx context.Context, credential string, req domain.PlacementRequest) (application.Placement, error)
	ListOrders(ctx context.Context, credential string) ([]domain.Order, error)
	GetOrder(ctx context.Context, credential, orderNumber string) (domain.Order, error)
	ListAllOrders(ctx context.Context, credential string, filter domain.ListFilter) ([]domain.Order, error)
}

type Handler struct {
	log     *slog.Logger
	service OrderService
}

func NewHandler(log *slog.Logger, service OrderService) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderNumber}", h.getOrder)
	r.Get("/admin/orders", h.listAllOrders)

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, r, decodeError(err))
		return
	}

	p, err := h.service.PlaceOrder(r.Context(), credential(r), req.toDomain())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlaceOrderResp(p))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), credential(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrdersResp(orders))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), credential(r), chi.URLParam(r, "orderNumber"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]orderResp{"order": toOrderResp(o)})
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	orders, err := h.service.ListAllOrders(r.Context(), credential(r), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrdersResp(orders))
}

// parseFilter reads ?status= and ?limit=. "all" and "RECENT" mean no status
// filter.
func parseFilter(r *http.Request) (domain.ListFilter, error) {
	var f domain.ListFilter
	q := r.URL.Query()

	switch raw := q.Get("status"); strings.ToUpper(raw) {
	case "", "ALL", "RECENT":
	default:
		st, ok := domain.ParseOrderStatus(raw)
		if !ok {
			return f, domain.InvalidField("status", "unknown order status "+raw)
		}
		f.Status = st
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > math.MaxInt32 {
			return f, domain.InvalidField("limit", "limit must be an integer between 0 and 2147483647")
		}
		f.Limit = n
	}
	return f, nil
}

// credential prefers the Authorization header over the session cookie.
func credential(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(AuthCookie); err == nil {
		return c.Value
	}
	return ""
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.InvalidField("body", "request body too large")
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return domain.InvalidField(typeErr.Field, "wrong type for "+typeErr.Field)
	}
	return domain.InvalidField("body", "request body is not valid JSON")
}
