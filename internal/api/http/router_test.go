package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository/memstore"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
	store  *memstore.Store
	seed   seeded
}

type seeded struct {
	categoryID   int64
	clientID     int64
	technicianID int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	store := memstore.New()
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	tokens := auth.NewTokenManager("test-secret", 15)
	policy := authz.DefaultPolicy

	directory := service.NewDirectoryService(service.DirectoryDependencies{
		CategoryRepo:   store.Categories(),
		ClientRepo:     store.Clients(),
		TechnicianRepo: store.Technicians(),
		UserRepo:       store.Users(),
		Policy:         policy,
		Logger:         logger,
	})
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     store.Tickets(),
		HistoryRepo:    store.History(),
		TechnicianLock: store.Technicians(),
		Tx:             store,
		Directory:      directory,
		Policy:         policy,
		Dispatcher:     events.NewInMemoryDispatcher(logger),
		Metrics:        metrics,
		Logger:         logger,
	})
	users := service.NewUserService(service.UserDependencies{UserRepo: store.Users(), Policy: policy, BcryptCost: bcrypt.MinCost})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("helpdesk-service", "test", map[string]handlers.Pinger{
			"postgres": (*persistence.Postgres)(nil),
		}),
		Users:          handlers.NewUsersHandler(service.NewAuthService(store.Users(), tokens, logger), users),
		Tickets:        handlers.NewTicketsHandler(tickets),
		Directory:      handlers.NewDirectoryHandler(directory),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		LoginLimiter:   auth.NewIPRateLimiter(1000, 1000),
		Gatherer:       registry,
	})

	srv := &testServer{app: app, tokens: tokens, store: store}
	srv.seed = srv.seedDirectory(t)
	return srv
}

func (s *testServer) seedDirectory(t *testing.T) seeded {
	t.Helper()
	ctx := context.Background()
	hash, err := auth.HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	clientUser := &domain.User{Name: "Client", Email: "client@example.com", PasswordHash: hash, Role: domain.RoleClient}
	techUser := &domain.User{Name: "Tech", Email: "tech@example.com", PasswordHash: hash, Role: domain.RoleTechnician}
	require.NoError(t, s.store.Users().Create(ctx, clientUser))
	require.NoError(t, s.store.Users().Create(ctx, techUser))

	category := &domain.Category{Name: "Hardware incident"}
	client := &domain.Client{Name: "Alpha", ContactEmail: "it@alpha.example.com", UserID: clientUser.ID}
	technician := &domain.Technician{Name: "Tech", Available: true, UserID: techUser.ID}
	require.NoError(t, s.store.Categories().Create(ctx, category))
	require.NoError(t, s.store.Clients().Create(ctx, client))
	require.NoError(t, s.store.Technicians().Create(ctx, technician))
	return seeded{categoryID: category.ID, clientID: client.ID, technicianID: technician.ID}
}

func (s *testServer) token(t *testing.T, role domain.Role) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(domain.User{ID: 100, Email: string(role) + "@example.com", Role: role})
	require.NoError(t, err)
	return token
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

func (s *testServer) createTicket(t *testing.T) map[string]any {
	t.Helper()
	status, env := s.do(t, fiber.MethodPost, "/tickets", s.token(t, domain.RoleClient), map[string]any{
		"title":         "Printer not working",
		"description":   "Paper jam on the second floor",
		"priority":      "HIGH",
		"category_id":   s.seed.categoryID,
		"client_id":     s.seed.clientID,
		"technician_id": s.seed.technicianID,
		"status":        "CLOSED",
	})
	require.Equal(t, fiber.StatusCreated, status)
	var ticket map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	return ticket
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)

	status, env := srv.do(t, fiber.MethodPost, "/auth/login", "", map[string]string{"email": "client@example.com", "password": "secret1"})
	require.Equal(t, fiber.StatusOK, status)
	var body map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.NotEmpty(t, body["access_token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "CLIENT", user["role"])
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, user, "PasswordHash")

	status, env = srv.do(t, fiber.MethodPost, "/auth/login", "", map[string]string{"email": "client@example.com", "password": "nope"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestCreateTicket_ForcesOpen(t *testing.T) {
	srv := newTestServer(t)

	ticket := srv.createTicket(t)

	assert.Equal(t, "OPEN", ticket["status"])
	assert.NotZero(t, ticket["id"])
}

func TestCreateTicket_Errors(t *testing.T) {
	srv := newTestServer(t)
	body := map[string]any{
		"title": "t", "description": "d", "priority": "LOW",
		"category_id": srv.seed.categoryID, "client_id": srv.seed.clientID, "technician_id": srv.seed.technicianID,
	}

	status, env := srv.do(t, fiber.MethodPost, "/tickets", "", body)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, env = srv.do(t, fiber.MethodPost, "/tickets", srv.token(t, domain.RoleTechnician), body)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	body["category_id"] = 999
	status, env = srv.do(t, fiber.MethodPost, "/tickets", srv.token(t, domain.RoleClient), body)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "category not found", env.Error.Message)

	body["priority"] = "URGENT"
	status, env = srv.do(t, fiber.MethodPost, "/tickets", srv.token(t, domain.RoleClient), body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "priority")

	status, env = srv.do(t, fiber.MethodPost, "/tickets", srv.token(t, domain.RoleTechnician), body)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestUpdateStatus(t *testing.T) {
	srv := newTestServer(t)
	ticket := srv.createTicket(t)
	path := fmt.Sprintf("/tickets/%v/status", ticket["id"])
	tech := srv.token(t, domain.RoleTechnician)

	status, env := srv.do(t, fiber.MethodPatch, path, tech, map[string]string{"status": "CLOSED"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)
	assert.Equal(t, "OPEN", env.Error.Details["from"])

	status, env = srv.do(t, fiber.MethodPatch, path, srv.token(t, domain.RoleClient), map[string]string{"status": "IN_PROGRESS"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = srv.do(t, fiber.MethodPatch, path, tech, map[string]string{"status": "IN_PROGRESS"})
	require.Equal(t, fiber.StatusOK, status)
	var updated map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "IN_PROGRESS", updated["status"])

	status, env = srv.do(t, fiber.MethodGet, fmt.Sprintf("/tickets/%v/history", ticket["id"]), tech, nil)
	require.Equal(t, fiber.StatusOK, status)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history, 2)
}

func TestUpdateStatus_MissingTicketBeforeRole(t *testing.T) {
	srv := newTestServer(t)

	status, env := srv.do(t, fiber.MethodPatch, "/tickets/4242/status", srv.token(t, domain.RoleClient), map[string]string{"status": "IN_PROGRESS"})

	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestUpdateStatus_CapacityExceeded(t *testing.T) {
	srv := newTestServer(t)
	tech := srv.token(t, domain.RoleTechnician)
	for i := 0; i < domain.MaxInProgressPerTechnician; i++ {
		ticket := srv.createTicket(t)
		status, _ := srv.do(t, fiber.MethodPatch, fmt.Sprintf("/tickets/%v/status", ticket["id"]), tech, map[string]string{"status": "IN_PROGRESS"})
		require.Equal(t, fiber.StatusOK, status)
	}
	ticket := srv.createTicket(t)

	status, env := srv.do(t, fiber.MethodPatch, fmt.Sprintf("/tickets/%v/status", ticket["id"]), tech, map[string]string{"status": "IN_PROGRESS"})

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "CAPACITY_EXCEEDED", env.Error.Code)
}

func TestReadRoutes(t *testing.T) {
	srv := newTestServer(t)
	srv.createTicket(t)
	admin := srv.token(t, domain.RoleAdmin)

	status, env := srv.do(t, fiber.MethodGet, "/tickets", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	var all []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Len(t, all, 1)

	status, _ = srv.do(t, fiber.MethodGet, fmt.Sprintf("/tickets/client/%d", srv.seed.clientID), srv.token(t, domain.RoleClient), nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = srv.do(t, fiber.MethodGet, fmt.Sprintf("/tickets/technician/%d", srv.seed.technicianID), srv.token(t, domain.RoleTechnician), nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = srv.do(t, fiber.MethodGet, "/tickets", srv.token(t, domain.RoleClient), nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = srv.do(t, fiber.MethodGet, "/tickets/abc", admin, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestDirectoryRoutes(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.token(t, domain.RoleAdmin)

	status, env := srv.do(t, fiber.MethodPost, "/categories", admin, map[string]string{"name": "Request", "description": "Service requests"})
	require.Equal(t, fiber.StatusCreated, status)
	var category map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &category))

	status, env = srv.do(t, fiber.MethodPost, "/categories", admin, map[string]string{"name": "Request", "description": "again"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	status, _ = srv.do(t, fiber.MethodDelete, fmt.Sprintf("/categories/%v", category["id"]), admin, nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = srv.do(t, fiber.MethodGet, "/categories", srv.token(t, domain.RoleClient), nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = srv.do(t, fiber.MethodPatch, fmt.Sprintf("/technicians/%d", srv.seed.technicianID), admin, map[string]any{"availability": false})
	require.Equal(t, fiber.StatusOK, status)
	var technician map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &technician))
	assert.Equal(t, false, technician["availability"])
	assert.Equal(t, "Tech", technician["name"])
}

func TestUserRoutes_NeverExposeHash(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.token(t, domain.RoleAdmin)

	status, env := srv.do(t, fiber.MethodPost, "/users", admin, map[string]string{"name": "Dana", "email": "dana@example.com", "password": "secret12"})
	require.Equal(t, fiber.StatusCreated, status)
	assert.NotContains(t, string(env.Data), "password")
	assert.Contains(t, string(env.Data), `"role":"CLIENT"`)

	status, env = srv.do(t, fiber.MethodGet, "/users", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotContains(t, string(env.Data), "password")
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.do(t, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = srv.do(t, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)

	srv.createTicket(t)
	resp, err := srv.app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "helpdesk_tickets_created_total 1")
	assert.Regexp(t, `helpdesk_http_requests_total\{method="POST",route="/tickets/?",status="201"\} 1`, string(raw))
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(fiber.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "abc-123")

	resp, err := srv.app.Test(req, -1)

	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}
