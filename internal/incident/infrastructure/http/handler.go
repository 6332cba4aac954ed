package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"

	"github.com/dmehra2102/storefront-orders/internal/incident/domain"
	orderdomain "github.com/dmehra2102/storefront-orders/internal/order/domain"
)

const defaultLimit = 50

type IncidentStore interface {
	ListOpen(ctx context.Context, limit int) ([]domain.Incident, error)
	Resolve(ctx context.Context, id string) error
}

type IdentityProvider interface {
	Resolve(ctx context.Context, credential string) (orderdomain.Identity, error)
}

// Handler is the operator view of open incidents. Every route needs an
// admin token.
type Handler struct {
	log      *slog.Logger
	store    IncidentStore
	identity IdentityProvider
}

func NewHandler(log *slog.Logger, store IncidentStore, identity IdentityProvider) *Handler {
	return &Handler{log: log, store: store, identity: identity}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Group(func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Get("/incidents", h.list)
		r.Post("/incidents/{id}/resolve", h.resolve)
	})
	return r
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorResp{Error: "authentication required"})
			return
		}
		id, err := h.identity.Resolve(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResp{Error: "authentication required"})
			return
		}
		if !id.IsAdmin() {
			writeJSON(w, http.StatusForbidden, errorResp{Error: "admin role required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type incidentResp struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	OrderID     string          `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	ProductID   string          `json:"productId,omitempty"`
	Quantity    int             `json:"quantity"`
	Reason      string          `json:"reason"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type errorResp struct {
	Error string `json:"error"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResp{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	incidents, err := h.store.ListOpen(r.Context(), limit)
	if err != nil {
		h.log.Error("list incidents failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResp{Error: "incident store unavailable"})
		return
	}
	out := make([]incidentResp, 0, len(incidents))
	for _, inc := range incidents {
		out = append(out, incidentResp{
			ID:          inc.ID,
			Kind:        string(inc.Kind),
			OrderID:     inc.OrderID,
			OrderNumber: inc.OrderNumber,
			ProductID:   inc.ProductID,
			Quantity:    inc.Quantity,
			Reason:      inc.Reason,
			Payload:     inc.Payload,
			CreatedAt:   inc.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"incidents": out})
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.store.Resolve(r.Context(), id)
	switch {
	case err == nil:
		h.log.Info("incident resolved", "incident_id", id)
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, pgx.ErrNoRows):
		writeJSON(w, http.StatusNotFound, errorResp{Error: "no open incident " + id})
	default:
		h.log.Error("resolve incident failed", "incident_id", id, "err", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResp{Error: "incident store unavailable"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
