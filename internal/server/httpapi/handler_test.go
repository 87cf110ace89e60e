package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/ontop/internal/logging"
	"github.com/dmitrijs2005/ontop/internal/server/auth"
	"github.com/dmitrijs2005/ontop/internal/server/config"
	"github.com/dmitrijs2005/ontop/internal/server/services"
	"github.com/dmitrijs2005/ontop/internal/server/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fixture struct {
	ts    *httptest.Server
	store *store.Gateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.Open(context.Background(), store.Options{SQLitePath: filepath.Join(t.TempDir(), "api.db")}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{SecretKey: testSecret, TokenTTL: time.Hour}
	us := services.NewUserService(st, cfg, logging.Discard())
	ds := services.NewDataService(st, nil, logging.Discard())

	srv := NewHTTPServer(Options{AdminKey: "admin"}, logging.Discard(), us, ds, st, "sqlite")
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	return &fixture{ts: ts, store: st}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any, headers ...string) (int, map[string]any) {
	t.Helper()

	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, f.ts.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (f *fixture) login(t *testing.T, email string) string {
	t.Helper()
	code, _ := f.do(t, http.MethodPost, "/register", "", map[string]string{"email": email, "password": "Secret123"})
	require.Equal(t, http.StatusCreated, code)

	code, body := f.do(t, http.MethodPost, "/login", "", map[string]string{"email": email, "password": "Secret123"})
	require.Equal(t, http.StatusOK, code)
	return body["token"].(string)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	code, body := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "sqlite", body["backend"])
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodPost, "/register", "", map[string]string{"email": "alice@example.com", "password": "weak"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])

	token := f.login(t, "alice@example.com")
	assert.NotEmpty(t, token)

	code, _ = f.do(t, http.MethodPost, "/register", "", map[string]string{"email": "alice@example.com", "password": "Secret123"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = f.do(t, http.MethodPost, "/login", "", map[string]string{"email": "alice@example.com", "password": "Wrong1234"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestMalformedBody(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodPost, f.ts.URL+"/login", bytes.NewReader([]byte("{nope")))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthMiddleware(t *testing.T) {
	f := newFixture(t)

	code, _ := f.do(t, http.MethodGet, "/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = f.do(t, http.MethodGet, "/tasks", "garbage", nil)
	assert.Equal(t, http.StatusForbidden, code)

	expired, err := auth.GenerateToken(1, "a@b.c", false, []byte(testSecret), -time.Minute)
	require.NoError(t, err)
	code, body := f.do(t, http.MethodGet, "/tasks", expired, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "token expired", body["error"])
}

func TestTasksRoundTrip(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alice@example.com")

	tasks := map[string]any{"tasks": []map[string]any{
		{"title": "write report", "priority": "high"},
		{"title": "buy milk"},
	}}
	code, body := f.do(t, http.MethodPost, "/tasks", token, tasks)
	require.Equal(t, http.StatusOK, code, body)

	code, body = f.do(t, http.MethodGet, "/tasks", token, nil)
	require.Equal(t, http.StatusOK, code)
	list := body["tasks"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, "write report", list[0].(map[string]any)["title"])
	assert.Equal(t, "personal", list[1].(map[string]any)["category"])

	code, _ = f.do(t, http.MethodPost, "/tasks", token, map[string]any{"tasks": []map[string]any{{"title": ""}}})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestProfilesExportAndDelete(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alice@example.com")

	code, _ := f.do(t, http.MethodPost, "/fitness", token, map[string]any{"currentWeight": 70, "goals": []string{"run"}})
	require.Equal(t, http.StatusOK, code)
	code, _ = f.do(t, http.MethodPost, "/finances", token, map[string]any{"monthlyIncome": 3000})
	require.Equal(t, http.StatusOK, code)

	code, body := f.do(t, http.MethodGet, "/fitness", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 70.0, body["fitness"].(map[string]any)["currentWeight"])

	code, body = f.do(t, http.MethodGet, "/export", token, nil)
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "alice@example.com", data["profile"].(map[string]any)["email"])
	assert.NotNil(t, data["finances"])

	code, _ = f.do(t, http.MethodDelete, "/account", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = f.do(t, http.MethodGet, "/export", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPremiumAndAdmin(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alice@example.com")

	u, err := f.store.LoginUser(context.Background(), "alice@example.com")
	require.NoError(t, err)

	req := map[string]any{"userId": u.ID, "isPremium": true, "plan": "yearly"}
	code, _ := f.do(t, http.MethodPost, "/admin/premium-status", "", req)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = f.do(t, http.MethodPost, "/admin/premium-status", "", req, "X-Admin-Key", "admin")
	require.Equal(t, http.StatusOK, code)

	code, body := f.do(t, http.MethodGet, "/premium-status", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["premium"].(map[string]any)["isPremium"])
}

func TestBackupDisabled(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alice@example.com")

	code, _ := f.do(t, http.MethodPost, "/backup", token, nil)
	assert.Equal(t, http.StatusNotImplemented, code)
}
