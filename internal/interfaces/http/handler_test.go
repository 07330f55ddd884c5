package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"proyecto_reservas/internal/entities"
	"proyecto_reservas/internal/infrastructure"
	"proyecto_reservas/internal/interfaces"
	"proyecto_reservas/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingMessenger struct {
	mu    sync.Mutex
	texts []string
}

func (m *recordingMessenger) SendText(_ context.Context, _, _, text string, _ *entities.Keyboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

func (m *recordingMessenger) SendDocument(context.Context, string, string, string, string) error {
	return nil
}

func (m *recordingMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

type stubWebhookAPI struct {
	url string
}

func (s *stubWebhookAPI) SetWebhook(_ context.Context, _, url, _ string) error {
	s.url = url
	return nil
}

func (s *stubWebhookAPI) GetWebhook(context.Context, string) (entities.WebhookStatus, error) {
	return entities.WebhookStatus{URL: s.url, Registered: s.url != ""}, nil
}

type memoryReservations struct {
	list []entities.Reservation
}

func (m *memoryReservations) Create(_ context.Context, r *entities.Reservation) error {
	m.list = append(m.list, *r)
	return nil
}

func (m *memoryReservations) ListByTenant(_ context.Context, tenantID string, limit int) ([]entities.Reservation, error) {
	out := []entities.Reservation{}
	for _, r := range m.list {
		if r.TenantID == tenantID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

const testJWTSecret = "test-jwt-secret"

type testServer struct {
	router       *gin.Engine
	messenger    *recordingMessenger
	webhooks     *stubWebhookAPI
	reservations *memoryReservations
}

func newTestServer(t *testing.T, baseURL string, withReservations bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tenants := usecases.NewTenantRegistry([]entities.TenantConfig{
		{ID: "default", Credential: "111:def", BotUsername: "default_bot"},
		{ID: "bistro", DisplayName: "Bistró Central", Credential: "123:abc", WebhookSecret: "s3cret", AdminChatID: "900", BotUsername: "bistro_bot"},
		{ID: "sinbot"},
	})

	sessions := infrastructure.NewMemorySessionStore(0)
	dedupe := infrastructure.NewUpdateDeduper(time.Minute, 100)
	t.Cleanup(func() {
		sessions.Close()
		dedupe.Close()
	})

	ts := &testServer{messenger: &recordingMessenger{}, webhooks: &stubWebhookAPI{}}
	var reservations interfaces.ReservationRecorder
	if withReservations {
		ts.reservations = &memoryReservations{}
		reservations = ts.reservations
	}

	service := usecases.NewWebhookService(usecases.WebhookServiceDeps{
		Tenants:    tenants,
		Sessions:   sessions,
		Dispatcher: usecases.NewNotificationDispatcher(ts.messenger, nil, time.Second, logger),
		Dedupe:     dedupe,
		Recorder:   reservations,
		Logger:     logger,
	})

	hash, err := bcrypt.GenerateFromPassword([]byte("correcta"), bcrypt.MinCost)
	require.NoError(t, err)

	ts.router = gin.New()
	admin := NewAdminHandler(tenants, usecases.NewWebhookRegistrar(ts.webhooks, tenants, baseURL), reservations, nil, logger)
	SetupRoutes(ts.router, RouteDeps{
		Telegram:   NewTelegramHandler(service, "default", logger),
		Admin:      admin,
		Auth:       usecases.NewAuthUsecase(testJWTSecret, entities.AdminUser{Username: "owner", PasswordHash: string(hash)}),
		Middleware: NewMiddleware(testJWTSecret, logger),
	})
	return ts
}

func (ts *testServer) do(method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T) map[string]string {
	t.Helper()
	w := ts.do(http.MethodPost, "/api/auth/login", []byte(`{"username":"owner","password":"correcta"}`), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return map[string]string{"Authorization": "Bearer " + resp.Token}
}

func update(id int, chatID int64, text string) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"update_id": id,
		"message": map[string]interface{}{
			"message_id": 1,
			"date":       0,
			"chat":       map[string]interface{}{"id": chatID, "type": "private"},
			"text":       text,
		},
	})
	return body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "https://bot.example.com", false)

	w := ts.do(http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","message":"proyecto-reservas activo"}`, w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestWebhook_Routing(t *testing.T) {
	ts := newTestServer(t, "https://bot.example.com", false)
	secret := map[string]string{SecretHeader: "s3cret"}

	w := ts.do(http.MethodPost, "/telegram/webhook/bistro", update(1, 42, "reservar"), secret)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"flow_started"`)
	assert.Equal(t, 1, ts.messenger.count())

	w = ts.do(http.MethodPost, "/telegram/webhook", update(2, 42, "/start"), nil)
	assert.Equal(t, http.StatusOK, w.Code, "default tenant route")
	assert.Equal(t, 3, ts.messenger.count())

	w = ts.do(http.MethodPost, "/telegram/webhook/ghost", update(3, 42, "hola"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodPost, "/telegram/webhook/bistro", update(4, 42, "hola"), map[string]string{SecretHeader: "nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(http.MethodPost, "/telegram/webhook/bistro", update(5, 42, "hola"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "missing secret")
	assert.Equal(t, 3, ts.messenger.count(), "rejected updates reach no one")
}

func TestWebhook_BadAndEmptyUpdates(t *testing.T) {
	ts := newTestServer(t, "https://bot.example.com", false)

	w := ts.do(http.MethodPost, "/telegram/webhook/default", []byte(`{not json`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPost, "/telegram/webhook/default", []byte(`{"update_id":9}`), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ignored":true`)
}

func TestWebhook_DuplicateDelivery(t *testing.T) {
	ts := newTestServer(t, "https://bot.example.com", false)

	body := update(77, 42, "reservar")
	require.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/telegram/webhook/default", body, nil).Code)
	w := ts.do(http.MethodPost, "/telegram/webhook/default", body, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"duplicate":true`)
	assert.Equal(t, 1, ts.messenger.count())
}

func TestAdmin_RequiresToken(t *testing.T) {
	ts := newTestServer(t, "https://bot.example.com", false)

	w := ts.do(http.MethodGet, "/api/tenants", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodGet, "/api/tenants", nil, map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/api/auth/login", []byte(`{"username":"owner","password":"mala"}`), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdmin_ListTenantsHidesSecrets(t *testing.T) {
	ts := newTestServer(t, "https://bot.example.com", false)
	auth := ts.login(t)

	w := ts.do(http.MethodGet, "/api/tenants", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "123:abc")
	assert.NotContains(t, w.Body.String(), "s3cret")

	var tenants []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tenants))
	require.Len(t, tenants, 3)
	assert.Equal(t, "bistro", tenants[0]["id"])
	assert.Equal(t, true, tenants[0]["has_secret"])
}

func TestAdmin_Webhook(t *testing.T) {
	ts := newTestServer(t, "https://bot.example.com", false)
	auth := ts.login(t)

	w := ts.do(http.MethodPost, "/api/tenants/bistro/webhook", nil, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "https://bot.example.com/telegram/webhook/bistro")

	w = ts.do(http.MethodGet, "/api/tenants/bistro/webhook", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"registered":true`)

	w = ts.do(http.MethodPost, "/api/tenants/sinbot/webhook", nil, auth)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = ts.do(http.MethodPost, "/api/tenants/ghost/webhook", nil, auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_WebhookWithoutBaseURL(t *testing.T) {
	ts := newTestServer(t, "", false)
	auth := ts.login(t)

	w := ts.do(http.MethodPost, "/api/tenants/bistro/webhook", nil, auth)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "BASE_URL")
}

func TestAdmin_QRCode(t *testing.T) {
	ts := newTestServer(t, "https://bot.example.com", false)
	auth := ts.login(t)

	w := ts.do(http.MethodGet, "/api/tenants/bistro/qr?size=128", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = ts.do(http.MethodGet, "/api/tenants/sinbot/qr", nil, auth)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAdmin_Reservations(t *testing.T) {
	ts := newTestServer(t, "https://bot.example.com", true)
	auth := ts.login(t)
	secret := map[string]string{SecretHeader: "s3cret"}

	for i, text := range []string{"reservar", "2026-01-10", "19:30", "4", "Ana", "+56911112222", "si"} {
		w := ts.do(http.MethodPost, "/telegram/webhook/bistro", update(100+i, 42, text), secret)
		require.Equal(t, http.StatusOK, w.Code, text)
	}

	w := ts.do(http.MethodGet, "/api/tenants/bistro/reservations", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Reservations []entities.Reservation `json:"reservations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Reservations, 1)
	assert.Equal(t, "Ana", resp.Reservations[0].Name)

	w = ts.do(http.MethodGet, "/api/tenants/bistro/reservations?limit=abc", nil, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_ReservationsWithoutStorage(t *testing.T) {
	ts := newTestServer(t, "https://bot.example.com", false)
	auth := ts.login(t)

	w := ts.do(http.MethodGet, "/api/tenants/bistro/reservations", nil, auth)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, "https://bot.example.com", false)
	ts.do(http.MethodPost, "/telegram/webhook/default", update(1, 42, "hola"), nil)

	w := ts.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "reservas_webhook_updates_total")
}
