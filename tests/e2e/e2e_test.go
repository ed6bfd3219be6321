//go:build integration

package e2e

// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Wasion-it/fork-controle-material/internal/config"
	"github.com/Wasion-it/fork-controle-material/internal/infra"
	"github.com/Wasion-it/fork-controle-material/internal/model"
	"github.com/Wasion-it/fork-controle-material/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	admin  string // admin JWT
	user   string // non-admin JWT
}

func seedAccount(t *testing.T, db *gorm.DB, username, password, role string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.User{
		Username:     username,
		Name:         username,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}).Error)
}

func login(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	resp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": username, "password": password}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("estoque_test"),
		tcPostgres.WithUsername("estoque"),
		tcPostgres.WithPassword("estoque"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                   8000,
		Env:                    "test",
		JWTSecret:              "test-secret-key",
		JWTExpirationHours:     8,
		JWTRefreshHours:        24,
		DatabaseURL:            pgURL,
		RedisURL:               rdURL,
		WorkerPoolSize:         1,
		MovementTimeoutSeconds: 5,
		AlertsDisabled:         true,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	seedAccount(t, db, "admin", "admin-e2e-pw", model.RoleAdmin)
	seedAccount(t, db, "tech", "tech-e2e-pw", model.RoleUser)

	ldapClient := infra.NewLDAPClient(cfg, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	srv := httptest.NewServer(router.New(cfg, db, rdb, ldapClient))
	t.Cleanup(srv.Close)

	return &testEnv{
		server: srv,
		db:     db,
		admin:  login(t, srv, "admin", "admin-e2e-pw"),
		user:   login(t, srv, "tech", "tech-e2e-pw"),
	}
}

func createMaterial(t *testing.T, env *testEnv, name string, qty int) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/materials",
		jsonBody(t, map[string]any{
			"name":        name,
			"description": "e2e material",
			"location":    "e2e shelf",
			"quantity":    qty,
		}), env.admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &created)
	require.NotEmpty(t, created.ID)
	return created.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_MovementLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	id := createMaterial(t, env, "Mouse USB", 0)

	// in 10
	resp := do(t, env.server, "POST", "/v1/movements",
		jsonBody(t, map[string]any{"material_id": id, "direction": "in", "amount": 10}), env.user)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var rec struct {
		Movement struct {
			QuantityBefore int    `json:"quantity_before"`
			QuantityAfter  int    `json:"quantity_after"`
			Technician     string `json:"technician"`
		} `json:"movement"`
		Material struct {
			Quantity int `json:"quantity"`
		} `json:"material"`
	}
	decodeJSON(t, resp, &rec)
	assert.Equal(t, 0, rec.Movement.QuantityBefore)
	assert.Equal(t, 10, rec.Movement.QuantityAfter)
	assert.Equal(t, "tech", rec.Movement.Technician) // resolved from the token
	assert.Equal(t, 10, rec.Material.Quantity)

	// out 3
	resp = do(t, env.server, "POST", "/v1/movements",
		jsonBody(t, map[string]any{"material_id": id, "direction": "out", "amount": 3, "technician": "bob"}), env.user)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// out 20 — would go negative
	resp = do(t, env.server, "POST", "/v1/movements",
		jsonBody(t, map[string]any{"material_id": id, "direction": "out", "amount": 20}), env.user)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Detail reflects the two committed movements only.
	resp = do(t, env.server, "GET", "/v1/materials/"+id, nil, env.user)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail struct {
		Quantity  int `json:"quantity"`
		Movements []struct {
			Direction string `json:"direction"`
		} `json:"movements"`
	}
	decodeJSON(t, resp, &detail)
	assert.Equal(t, 7, detail.Quantity)
	assert.Len(t, detail.Movements, 2)
}

func TestE2E_InitialStockSeedsLedger(t *testing.T) {
	env := setupTestEnv(t)
	id := createMaterial(t, env, "Cat6 spool", 25)

	resp := do(t, env.server, "GET", "/v1/materials/"+id, nil, env.user)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail struct {
		Quantity  int `json:"quantity"`
		Movements []struct {
			Direction      string `json:"direction"`
			Amount         int    `json:"amount"`
			Technician     string `json:"technician"`
			QuantityBefore int    `json:"quantity_before"`
			QuantityAfter  int    `json:"quantity_after"`
		} `json:"movements"`
	}
	decodeJSON(t, resp, &detail)
	assert.Equal(t, 25, detail.Quantity)
	require.Len(t, detail.Movements, 1)
	assert.Equal(t, "in", detail.Movements[0].Direction)
	assert.Equal(t, "system", detail.Movements[0].Technician)
	assert.Equal(t, 0, detail.Movements[0].QuantityBefore)
	assert.Equal(t, 25, detail.Movements[0].QuantityAfter)
}

func TestE2E_ConcurrentMovements(t *testing.T) {
	env := setupTestEnv(t)
	id := createMaterial(t, env, "SSD 500GB", 0)

	const workers = 10
	var wg sync.WaitGroup
	statuses := make(chan int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := do(t, env.server, "POST", "/v1/movements",
				jsonBody(t, map[string]any{"material_id": id, "direction": "in", "amount": 1}), env.user)
			statuses <- resp.StatusCode
			resp.Body.Close()
		}()
	}
	wg.Wait()
	close(statuses)

	committed := 0
	for code := range statuses {
		// Under heavy contention a request may time out with 503; it must
		// then have written nothing.
		require.Contains(t, []int{http.StatusCreated, http.StatusServiceUnavailable}, code)
		if code == http.StatusCreated {
			committed++
		}
	}

	resp := do(t, env.server, "GET", "/v1/materials/"+id, nil, env.user)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail struct {
		Quantity  int `json:"quantity"`
		Movements []struct {
			QuantityBefore int `json:"quantity_before"`
			QuantityAfter  int `json:"quantity_after"`
		} `json:"movements"`
	}
	decodeJSON(t, resp, &detail)
	assert.Equal(t, committed, detail.Quantity)
	require.Len(t, detail.Movements, committed)
	for _, m := range detail.Movements {
		assert.Equal(t, m.QuantityBefore+1, m.QuantityAfter)
	}
}

func TestE2E_RoleEnforcement(t *testing.T) {
	env := setupTestEnv(t)

	// Non-admin cannot create materials.
	resp := do(t, env.server, "POST", "/v1/materials",
		jsonBody(t, map[string]any{
			"name": "Forbidden", "description": "d", "location": "l",
		}), env.user)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Unauthenticated requests are rejected outright.
	resp = do(t, env.server, "GET", "/v1/materials", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Non-admin can still read and record movements.
	id := createMaterial(t, env, "Readable", 5)
	resp = do(t, env.server, "GET", "/v1/materials/"+id, nil, env.user)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E_DeactivationBlocksMovements(t *testing.T) {
	env := setupTestEnv(t)
	id := createMaterial(t, env, "Docking station", 8)

	resp := do(t, env.server, "DELETE", "/v1/materials/"+id, nil, env.admin)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/movements",
		jsonBody(t, map[string]any{"material_id": id, "direction": "out", "amount": 1}), env.user)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "PATCH", "/v1/materials/"+id+"/reactivate", nil, env.admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "POST", "/v1/movements",
		jsonBody(t, map[string]any{"material_id": id, "direction": "out", "amount": 1}), env.user)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E_StatsAndReport(t *testing.T) {
	env := setupTestEnv(t)
	id := createMaterial(t, env, "Toner", 10)
	createMaterial(t, env, "Empty bin", 0)

	resp := do(t, env.server, "POST", "/v1/movements",
		jsonBody(t, map[string]any{"material_id": id, "direction": "out", "amount": 4}), env.user)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, env.server, "GET", "/v1/stats", nil, env.user)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats struct {
		TotalMaterials   int64 `json:"total_materials"`
		MaterialsInStock int64 `json:"materials_in_stock"`
		MovementsToday   int64 `json:"movements_today"`
	}
	decodeJSON(t, resp, &stats)
	assert.Equal(t, int64(2), stats.TotalMaterials)
	assert.Equal(t, int64(1), stats.MaterialsInStock)
	assert.Equal(t, int64(2), stats.MovementsToday) // seed entry + out

	resp = do(t, env.server, "GET", "/v1/reports/movements?direction=out", nil, env.user)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report struct {
		Summary struct {
			TotalOut  int64 `json:"total_out"`
			AmountOut int64 `json:"amount_out"`
		} `json:"summary"`
	}
	decodeJSON(t, resp, &report)
	assert.Equal(t, int64(1), report.Summary.TotalOut)
	assert.Equal(t, int64(4), report.Summary.AmountOut)
}
