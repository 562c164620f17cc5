package auth

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokens() TokenService {
	return TokenService{
		Secret:   []byte("test-secret"),
		Issuer:   "tryonhub-test",
		Duration: time.Hour,
	}
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE users (
			id                TEXT PRIMARY KEY,
			username          TEXT NOT NULL UNIQUE,
			email             TEXT NOT NULL UNIQUE,
			password_hash     TEXT NOT NULL,
			token_version     INTEGER NOT NULL DEFAULT 0,
			avatar_image      TEXT,
			avatar_bg_removed TEXT,
			profile_json      TEXT,
			created_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	require.NoError(t, err)
	return db
}

func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(NewRepo(newTestDB(t)), testTokens())
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api"))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, token string, payload any) (*http.Response, map[string]json.RawMessage) {
	return doJSON(t, http.MethodPost, url, token, payload)
}

func doJSON(t *testing.T, method, url, token string, payload any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	b, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(method, url, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out map[string]json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func str(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func createAccount(t *testing.T, srv *httptest.Server) (userID, token string) {
	t.Helper()

	resp, body := postJSON(t, srv.URL+"/api/create-account", "", map[string]any{
		"username": "casey",
		"email":    "casey@example.com",
		"password": "hunter2hunter2",
		"profile":  map[string]string{"size": "M"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body["user"], &user))
	return user.ID, str(t, body["token"])
}

func TestCreateAccountAndLogin(t *testing.T) {
	srv := newAuthServer(t)
	userID, token := createAccount(t, srv)
	assert.NotEmpty(t, userID)
	assert.NotEmpty(t, token)

	resp, body := postJSON(t, srv.URL+"/api/login", "", map[string]string{
		"email":    "casey@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, str(t, body["token"]))

	var user struct {
		ID      string            `json:"id"`
		Profile map[string]string `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(body["user"], &user))
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "M", user.Profile["size"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	srv := newAuthServer(t)
	createAccount(t, srv)

	resp, _ := postJSON(t, srv.URL+"/api/login", "", map[string]string{
		"email":    "casey@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateAccountRejectsDuplicateEmail(t *testing.T) {
	srv := newAuthServer(t)
	createAccount(t, srv)

	resp, _ := postJSON(t, srv.URL+"/api/create-account", "", map[string]string{
		"username": "other",
		"email":    "casey@example.com",
		"password": "hunter2hunter2",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAvatarRoundTrip(t *testing.T) {
	srv := newAuthServer(t)
	userID, token := createAccount(t, srv)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/update-avatar", token, map[string]string{
		"avatar_image":      "data:image/jpeg;base64,AAA",
		"avatar_bg_removed": "data:image/png;base64,BBB",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/get-avatar/"+userID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "data:image/jpeg;base64,AAA", str(t, body["avatar_image"]))
	assert.Equal(t, "data:image/png;base64,BBB", str(t, body["avatar_bg_removed"]))
}

func TestUpdateAvatarKeepsOtherVariant(t *testing.T) {
	srv := newAuthServer(t)
	userID, token := createAccount(t, srv)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/update-avatar", token, map[string]string{
		"avatar_image": "data:image/jpeg;base64,AAA",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// sending only the bg-removed variant must not wipe the raw one
	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/update-avatar", token, map[string]string{
		"avatar_bg_removed": "data:image/png;base64,BBB",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/get-avatar/"+userID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "data:image/jpeg;base64,AAA", str(t, body["avatar_image"]))
	assert.Equal(t, "data:image/png;base64,BBB", str(t, body["avatar_bg_removed"]))
}

func TestUpdateAvatarRequiresToken(t *testing.T) {
	srv := newAuthServer(t)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/update-avatar", "", map[string]string{
		"avatar_image": "data:image/jpeg;base64,AAA",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpdateUserDataOwnUserOnly(t *testing.T) {
	srv := newAuthServer(t)
	userID, token := createAccount(t, srv)

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/update-user-data/"+userID, token, map[string]any{
		"profile": map[string]string{"size": "L"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/update-user-data/someone-else", token, map[string]any{
		"profile": map[string]string{"size": "S"},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	srv := newAuthServer(t)
	_, token := createAccount(t, srv)

	resp, _ := postJSON(t, srv.URL+"/api/logout", token, struct{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// the bumped token version makes the old token stale
	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/update-avatar", token, map[string]string{
		"avatar_image": "data:image/jpeg;base64,AAA",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireSessionRejectsMalformedHeader(t *testing.T) {
	srv := newAuthServer(t)
	_, token := createAccount(t, srv)

	for _, header := range []string{"", "Basic " + token, token, "Bearer"} {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/logout", nil)
		require.NoError(t, err)
		if header != "" {
			req.Header.Set("Authorization", header)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "header %q", header)
	}
}

func TestTokenSignParse(t *testing.T) {
	ts := testTokens()
	u := &User{ID: "u1", Username: "casey", Email: "c@example.com", TokenVersion: 3}

	token, exp, err := ts.Sign(u)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := ts.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, 3, claims.TokenVersion)

	_, err = TokenService{Secret: []byte("other"), Issuer: ts.Issuer, Duration: ts.Duration}.Parse(token)
	assert.Error(t, err)
}

func TestRepoNotFoundIsNilNil(t *testing.T) {
	repo := NewRepo(newTestDB(t))

	u, err := repo.GetByEmail(context.Background(), "missing@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}
