package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/crm-service/internal/clock"
	"github.com/psds-microservice/crm-service/internal/handler"
	"github.com/psds-microservice/crm-service/internal/logging"
	"github.com/psds-microservice/crm-service/internal/model"
	"github.com/psds-microservice/crm-service/internal/service"
	"github.com/psds-microservice/crm-service/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapKV map[string][]byte

func (m mapKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapKV) Put(_ context.Context, key string, value []byte) error {
	m[key] = value
	return nil
}

func (m mapKV) Close() error { return nil }

func newTestRouter(t *testing.T, origins []string) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	clk := clock.NewFake(time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC))
	kv := mapKV{}
	deps := service.Deps{Clock: clk}
	requests := service.NewRequests(store.NewSnapshotStore[model.RequestStatus, model.ContactRequest](kv, store.KeyRequests, clk), deps)
	tickets := service.NewTickets(store.NewSnapshotStore[model.TicketStatus, model.Ticket](kv, store.KeyTickets, clk), store.NewSnapshotClients(kv, clk), nil, deps)
	log := logging.Nop()

	return New(Handlers{
		Health:   handler.NewHealthHandler(nil),
		Contact:  handler.NewContactHandler(requests, log),
		Requests: handler.NewRequestHandler(requests, log),
		Admin:    handler.NewAdminHandler(requests, tickets, log),
		Tickets:  handler.NewTicketHandler(tickets, log),
		Clients:  handler.NewClientHandler(tickets, log),
	}, Options{AllowedOrigins: origins, Logger: log})
}

func TestRouter_HealthAndRequestID(t *testing.T) {
	r := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, PathHealth, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	req := httptest.NewRequest(http.MethodGet, PathReady, nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestRouter_OpenAPIDocument(t *testing.T) {
	r := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, PathSwagger+"/openapi.json", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/api/contact"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, PathSwagger, nil))
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestRouter_CORS(t *testing.T) {
	r := newTestRouter(t, []string{"https://app.example.org"})

	req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
	req.Header.Set("Origin", "https://app.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), http.CanonicalHeaderKey(HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, PathHealth, nil)
	req.Header.Set("Origin", "https://app.example.org")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.CanonicalHeaderKey(HeaderRequestID), w.Header().Get("Access-Control-Expose-Headers"))

	req = httptest.NewRequest(http.MethodGet, PathHealth, nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_CORSWildcard(t *testing.T) {
	r := newTestRouter(t, []string{"*"})

	req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
	req.Header.Set("Origin", "https://anywhere.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_NoCORSWithoutOrigins(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, PathHealth, nil)
	req.Header.Set("Origin", "https://app.example.org")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ContactRoundTrip(t *testing.T) {
	r := newTestRouter(t, []string{"*"})

	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{"name":"Al","email":"a@b.com","subject":"Hi there","message":"long enough message"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/requests?status=new", nil))
	assert.Contains(t, w.Body.String(), `"total":1`)
}
