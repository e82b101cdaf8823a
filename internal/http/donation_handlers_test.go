package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodforward-data/internal/domain"
	"foodforward-data/internal/geocode"
	"foodforward-data/internal/repository"
	"foodforward-data/internal/service"
	"foodforward-data/internal/store"
)

type testEnv struct {
	router *Router
	repo   *repository.MemoryDonationsRepo
	users  *repository.MemoryUsersRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	repo := repository.NewMemoryDonationsRepo()
	users := repository.NewMemoryUsersRepo()
	notifRepo := repository.NewMemoryNotificationsRepo()
	kv := store.NewMemoryKV()

	donationSvc := service.NewDonationService(repo, repo, nil, nil, nil, logger)
	authSvc := service.NewAuthService(users, kv, logger)

	authHandler := NewAuthHandler(authSvc, logger)
	donationHandler := NewDonationHandler(donationSvc, notifRepo, logger)
	projectionHandler := NewProjectionHandler(donationSvc,
		func(_ context.Context, address string) geocode.Coordinates { return geocode.Fallback(address) }, logger)
	adminHandler := NewAdminHandler(donationSvc, users, logger)

	router := NewRouter(logger)
	router.RegisterHealthRoutes()
	router.RegisterAuthRoutes(authHandler)
	router.RegisterDonationRoutes(authHandler, donationHandler)
	router.RegisterProjectionRoutes(authHandler, projectionHandler)
	router.RegisterAdminRoutes(authHandler, adminHandler)

	env := &testEnv{router: router, repo: repo, users: users}
	env.seedUser(t, "donor-1", "donor@example.com", domain.RoleDonor, "Daily Bread Bakery")
	env.seedUser(t, "rec-1", "rec@example.com", domain.RoleRecipient, "Hope Shelter")
	env.seedUser(t, "vol-1", "vol@example.com", domain.RoleVolunteer, "Sam Walker")
	env.seedUser(t, "admin-1", "admin@example.com", domain.RoleAdmin, "Admin")
	return env
}

func (e *testEnv) seedUser(t *testing.T, id, email, role, name string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, e.users.CreateUser(context.Background(), &domain.User{
		UserID:       id,
		Email:        email,
		PasswordHash: service.HashPassword("secret123"),
		Name:         name,
		Role:         role,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
}

func (e *testEnv) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func createBody() map[string]any {
	return map[string]any{
		"title":         "Surplus bread",
		"category":      domain.CategoryBakedGoods,
		"quantity":      "12",
		"unit":          domain.UnitKg,
		"pickupAddress": "12 Baker St",
		"expiryDate":    time.Now().AddDate(0, 0, 5).Format("2006-01-02"),
		"safety": map[string]any{
			"foodSafetyChecked":  true,
			"temperatureControl": domain.TemperatureProper,
			"packagingIntact":    true,
			"properLabeling":     true,
			"contaminationRisk":  domain.ContaminationLow,
		},
	}
}

func (e *testEnv) createDonation(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/data/api/v1/donations", "donor-1", createBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeResult(t, rec)["result"].(map[string]any)
	return result["donationId"].(string)
}

func TestCreateDonationEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/data/api/v1/donations", "donor-1", createBody())
	assert.Equal(t, http.StatusOK, rec.Code)
	out := decodeResult(t, rec)
	assert.Equal(t, float64(ResultSuccess), out["code"])
}

func TestCreateDonation_RequiresIdentity(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/data/api/v1/donations", "", createBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateDonation_SafetyGateReturns422(t *testing.T) {
	env := newTestEnv(t)

	body := createBody()
	body["safety"].(map[string]any)["contaminationRisk"] = domain.ContaminationHigh
	rec := env.do(t, http.MethodPost, "/data/api/v1/donations", "donor-1", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestClaimEndpoint_DoubleClaimReturns409(t *testing.T) {
	env := newTestEnv(t)
	id := env.createDonation(t)

	rec := env.do(t, http.MethodPost, "/data/api/v1/donations/"+id+"/claims", "rec-1",
		map[string]any{"quick": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// 再次认领（同一 recipient 也算守卫失败）
	rec = env.do(t, http.MethodPost, "/data/api/v1/donations/"+id+"/claims", "rec-1",
		map[string]any{"quick": true})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLifecycleEndpoints(t *testing.T) {
	env := newTestEnv(t)
	id := env.createDonation(t)

	rec := env.do(t, http.MethodPost, "/data/api/v1/donations/"+id+"/claims", "rec-1",
		map[string]any{"quick": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/data/api/v1/donations/"+id+"/assign", "vol-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// 非被指派的志愿者无法完成
	rec = env.do(t, http.MethodPost, "/data/api/v1/donations/"+id+"/complete", "rec-1",
		map[string]any{"notes": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/data/api/v1/donations/"+id+"/complete", "vol-1",
		map[string]any{"notes": "delivered"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/data/api/v1/donations/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)["result"].(map[string]any)
	assert.Equal(t, domain.DonationCompleted, result["status"])
}

func TestDeleteEndpoint_NonOwnerForbidden(t *testing.T) {
	env := newTestEnv(t)
	id := env.createDonation(t)

	rec := env.do(t, http.MethodDelete, "/data/api/v1/donations/"+id, "rec-1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/data/api/v1/donations/"+id, "donor-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/data/api/v1/donations/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLedgerEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.createDonation(t)
	env.createDonation(t)

	rec := env.do(t, http.MethodGet, "/data/api/v1/ledger", "rec-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)["result"].([]any)
	assert.Len(t, result, 2)
	first := result[0].(map[string]any)
	assert.Contains(t, first["hash"], "0x")

	rec = env.do(t, http.MethodGet, "/data/api/v1/ledger/stats", "rec-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeResult(t, rec)["result"].(map[string]any)
	assert.Equal(t, float64(2), stats["totalTransactions"])
}

func TestLogisticsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.createDonation(t)

	rec := env.do(t, http.MethodGet, "/data/api/v1/logistics/operations", "vol-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)["result"].(map[string]any)
	ops := result["operations"].([]any)
	require.Len(t, ops, 1)
	op := ops[0].(map[string]any)
	assert.Equal(t, "pickup", op["type"])
	assert.Equal(t, "pending", op["status"])
}

func TestAdminEndpoints_RequireAdminRole(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/admin/api/v1/users", "donor-1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/admin/api/v1/users", "admin-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminBulkStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	id1 := env.createDonation(t)
	id2 := env.createDonation(t)

	rec := env.do(t, http.MethodPost, "/admin/api/v1/donations/bulk-status", "admin-1",
		map[string]any{"donationIds": []string{id1, "missing"}, "status": domain.DonationCompleted})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/admin/api/v1/donations/bulk-status", "admin-1",
		map[string]any{"donationIds": []string{id1, id2}, "status": domain.DonationCompleted})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminExportEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.createDonation(t)

	rec := env.do(t, http.MethodGet, "/admin/api/v1/export/ledger?format=csv", "admin-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"),
		fmt.Sprintf("donation-ledger-%s.csv", time.Now().Format("2006-01-02")))
	assert.Contains(t, rec.Body.String(), "Hash,Block,Donation ID")

	rec = env.do(t, http.MethodGet, "/admin/api/v1/export/ledger", "admin-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/api/v1/login", "",
		map[string]any{"email": "donor@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeResult(t, rec)["result"].(map[string]any)
	token := result["accessToken"].(string)
	require.NotEmpty(t, token)

	// Bearer 令牌可以代替 X-User-Id
	req := httptest.NewRequest(http.MethodGet, "/data/api/v1/claims", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	rec = env.do(t, http.MethodPost, "/auth/api/v1/login", "",
		map[string]any{"email": "donor@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
