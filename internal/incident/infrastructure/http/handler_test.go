package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront-orders/internal/incident/domain"
	orderdomain "github.com/dmehra2102/storefront-orders/internal/order/domain"
)

type tokens map[string]orderdomain.Identity

func (m tokens) Resolve(_ context.Context, credential string) (orderdomain.Identity, error) {
	id, ok := m[credential]
	if !ok {
		return orderdomain.Identity{}, errors.New("unknown token")
	}
	return id, nil
}

type fakeStore struct {
	open     []domain.Incident
	lastLim  int
	resolved []string
	listErr  error
}

func (s *fakeStore) ListOpen(_ context.Context, limit int) ([]domain.Incident, error) {
	s.lastLim = limit
	return s.open, s.listErr
}

func (s *fakeStore) Resolve(_ context.Context, id string) error {
	if id != "i1" {
		return fmt.Errorf("incident %s: %w", id, pgx.ErrNoRows)
	}
	s.resolved = append(s.resolved, id)
	return nil
}

func serve(t *testing.T, store *fakeStore, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	ids := tokens{
		"admin": {UserID: "a", Role: orderdomain.RoleAdmin},
		"buyer": {UserID: "b", Role: orderdomain.RoleCustomer},
	}
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), store, ids)
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestIncidents_Access(t *testing.T) {
	store := &fakeStore{}
	assert.Equal(t, http.StatusUnauthorized, serve(t, store, http.MethodGet, "/incidents", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, store, http.MethodGet, "/incidents", "nope").Code)
	assert.Equal(t, http.StatusForbidden, serve(t, store, http.MethodGet, "/incidents", "buyer").Code)
	assert.Equal(t, http.StatusOK, serve(t, store, http.MethodGet, "/health", "").Code)
}

func TestIncidents_List(t *testing.T) {
	store := &fakeStore{open: []domain.Incident{{
		ID: "i1", Kind: domain.KindStockNotAdjusted, OrderID: "o1", OrderNumber: "CBD-1-X",
		ProductID: "A", Quantity: 2, Payload: json.RawMessage(`{"orderId":"o1"}`),
	}}}

	rec := serve(t, store, http.MethodGet, "/incidents?limit=5", "admin")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, store.lastLim)
	var body struct {
		Incidents []incidentResp `json:"incidents"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Incidents, 1)
	assert.Equal(t, "STOCK_NOT_ADJUSTED", body.Incidents[0].Kind)

	assert.Equal(t, http.StatusBadRequest, serve(t, store, http.MethodGet, "/incidents?limit=0", "admin").Code)

	store.listErr = errors.New("db down")
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, store, http.MethodGet, "/incidents", "admin").Code)
}

func TestIncidents_Resolve(t *testing.T) {
	store := &fakeStore{}
	assert.Equal(t, http.StatusNoContent, serve(t, store, http.MethodPost, "/incidents/i1/resolve", "admin").Code)
	assert.Equal(t, []string{"i1"}, store.resolved)
	assert.Equal(t, http.StatusNotFound, serve(t, store, http.MethodPost, "/incidents/i9/resolve", "admin").Code)
}
