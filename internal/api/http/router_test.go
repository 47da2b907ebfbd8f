package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/donor-registry/internal/api/http/handlers"
	"github.com/spec-kit/donor-registry/internal/bootstrap"
	"github.com/spec-kit/donor-registry/internal/config"
	"github.com/spec-kit/donor-registry/internal/observability"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	cfg := config.Config{
		Storage: config.StorageConfig{Backend: config.BackendMemory, Key: "usersCSV"},
		Auth:    config.AuthConfig{BcryptCost: 4},
	}
	reg, err := bootstrap.Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(reg.Close)

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("donor-registry", "test", cfg.Storage.Backend, reg.Users, metrics),
		Users:  handlers.NewUsersHandler(reg.Registration, reg.Directory),
		Donors: handlers.NewDonorsHandler(reg.Directory),
		Import: handlers.NewImportHandler(reg.Import),
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, envelope, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env, string(raw)
}

const aliceJSON = `{"fullName":"Alice","email":"a@x.com","phone":"5551234567","bloodGroup":"O+","city":"NYC","password":"secret12","confirmPassword":"secret12","acceptTerms":true}`

func TestRegisterEndpoint(t *testing.T) {
	app := newTestApp(t)

	status, env, raw := do(t, app, "POST", "/api/users/register", aliceJSON)
	require.Equal(t, fiber.StatusCreated, status, raw)
	assert.NotContains(t, raw, "password")
	assert.Contains(t, string(env.Data), `"email":"a@x.com"`)

	status, env, _ = do(t, app, "POST", "/api/users/register", strings.Replace(aliceJSON, "a@x.com", "A@X.com", 1))
	assert.Equal(t, fiber.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)
}

func TestRegisterEndpoint_Validation(t *testing.T) {
	app := newTestApp(t)

	status, env, _ := do(t, app, "POST", "/api/users/register", `{"fullName":"Alice","email":"bad"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Equal(t, "invalid email address", env.Error.Details["email"])
	assert.Equal(t, "terms must be accepted", env.Error.Details["acceptTerms"])

	status, env, _ = do(t, app, "POST", "/api/users/register", `{not json`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestListLookupAndSearch(t *testing.T) {
	app := newTestApp(t)
	status, _, _ := do(t, app, "POST", "/api/users/register", aliceJSON)
	require.Equal(t, fiber.StatusCreated, status)

	status, env, raw := do(t, app, "GET", "/api/users", "")
	require.Equal(t, fiber.StatusOK, status)
	var users []map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "NYC", users[0]["location"])
	assert.NotContains(t, raw, "password")

	status, env, _ = do(t, app, "GET", "/api/users/lookup?email=A@x.com", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"fullName":"Alice"`)

	status, env, _ = do(t, app, "GET", "/api/users/lookup?email=nobody@x.com", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env, _ = do(t, app, "GET", "/api/donors?blood_group=O%2B&q=ny", "")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &users))
	assert.Len(t, users, 1)

	status, env, _ = do(t, app, "GET", "/api/donors?blood_group=B-", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))

	status, env, _ = do(t, app, "GET", "/api/donors?blood_group=Q", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestImportEndpoint(t *testing.T) {
	app := newTestApp(t)

	dump := map[string]string{
		"usersCSV": "fullName,email,phone,bloodGroup,location,password\nBob,b@x.com,5559876543,B+,Rome,hunter22\n",
		"rv_users": `[{"id":"1","name":"Eve","email":"e@x.com","phone":"5551112222","bloodGroup":"AB+","city":"Oslo"}]`,
	}
	body, err := json.Marshal(dump)
	require.NoError(t, err)

	status, env, _ := do(t, app, "POST", "/api/import/local-storage", string(body))
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"imported":2,"duplicates":0,"invalid":0}`, string(env.Data))

	status, env, _ = do(t, app, "POST", "/api/import/local-storage", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	status, _, raw := do(t, app, "GET", "/health/live", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, raw, "alive")

	status, _, raw = do(t, app, "GET", "/health/ready", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, raw, `"memory":"ok"`)

	status, env, _ := do(t, app, "GET", "/nope", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, _, raw = do(t, app, "GET", "/metrics", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, raw, `"path":"/health/live"`)
	assert.Contains(t, raw, `"status":"NOT_FOUND"`)
	assert.NotContains(t, raw, "/nope")
}

func TestMetrics_UnknownPathsShareOneKey(t *testing.T) {
	app := newTestApp(t)

	for i := 0; i < 50; i++ {
		status, _, _ := do(t, app, "GET", fmt.Sprintf("/scan/%d", i), "")
		require.Equal(t, fiber.StatusNotFound, status)
	}
	status, _, _ := do(t, app, "GET", "/api/users/lookup?email=nobody@x.com", "")
	require.Equal(t, fiber.StatusNotFound, status)

	status, _, raw := do(t, app, "GET", "/metrics", "")
	require.Equal(t, fiber.StatusOK, status)
	require.NotContains(t, raw, "/scan/")

	var snap observability.Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))

	unmatched := 0
	for _, row := range snap.Requests {
		if row.Path == observability.UnmatchedRoute {
			unmatched++
			assert.EqualValues(t, 50, row.Count)
		}
	}
	assert.Equal(t, 1, unmatched)

	var errorPaths []string
	for _, row := range snap.Errors {
		errorPaths = append(errorPaths, row.Path)
	}
	assert.ElementsMatch(t, []string{observability.UnmatchedRoute, "/api/users/lookup"}, errorPaths)
}
