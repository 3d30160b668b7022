package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NordCoder/Authgate/internal/services/auth-gateway/auth"
	"github.com/NordCoder/Authgate/internal/services/auth-gateway/users"
	"github.com/NordCoder/Authgate/internal/token"
)

type env struct {
	*fixture
	mux *http.ServeMux
}

func newEnv(t *testing.T) *env {
	t.Helper()
	f := newFixture(t, nil)

	ctl := auth.NewController(zap.NewNop(), f.uc, auth.CookieOpts{
		Name:   "refresh_token",
		Path:   "/",
		MaxAge: 7 * 24 * time.Hour,
	})
	usersCtl := users.NewController(zap.NewNop(), users.NewUsecase(f.users))

	mux := http.NewServeMux()
	ctl.Register(mux)
	usersCtl.Register(mux, ctl.RequireAuth)
	return &env{fixture: f, mux: mux}
}

func (e *env) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *env) login(t *testing.T, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refresh_token" {
			return c
		}
	}
	return nil
}

type tokenBody struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func TestLoginLogoutScenario(t *testing.T) {
	e := newEnv(t)
	e.users.add(t, "alice", "hunter2hunter2", true)

	// Login issues the pair and sets the refresh cookie.
	rec := e.login(t, "alice", "hunter2hunter2")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[tokenBody](t, rec)
	require.Equal(t, "bearer", body.TokenType)
	require.Equal(t, int64(15*60), body.ExpiresIn)
	require.NotEmpty(t, body.AccessToken)
	require.NotEmpty(t, body.RefreshToken)

	ck := refreshCookie(rec)
	require.NotNil(t, ck)
	require.True(t, ck.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	require.Equal(t, int(7*24*time.Hour/time.Second), ck.MaxAge)
	require.Equal(t, body.RefreshToken, ck.Value)

	// The access token opens protected endpoints.
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+body.AccessToken)
	rec = e.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody[map[string]any](t, rec)
	require.Equal(t, "alice", me["username"])

	// Logout blacklists the token and clears the cookie.
	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+body.AccessToken)
	rec = e.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := refreshCookie(rec)
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)

	// The same token is now rejected for the rest of its lifetime.
	req = httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+body.AccessToken)
	rec = e.do(req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestLogin_GenericFailureShape(t *testing.T) {
	e := newEnv(t)
	e.users.add(t, "alice", "hunter2hunter2", true)

	wrongPassword := e.login(t, "alice", "nope")
	unknownUser := e.login(t, "mallory", "nope")

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	require.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())
	require.Equal(t, "Bearer", wrongPassword.Header().Get("WWW-Authenticate"))
}

func TestLogin_MissingFields(t *testing.T) {
	e := newEnv(t)
	rec := e.login(t, "alice", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshFlow(t *testing.T) {
	e := newEnv(t)
	e.users.add(t, "alice", "hunter2hunter2", true)

	rec := e.login(t, "alice", "hunter2hunter2")
	require.Equal(t, http.StatusOK, rec.Code)
	ck := refreshCookie(rec)
	require.NotNil(t, ck)

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: ck.Value})
	rec = e.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[tokenBody](t, rec)
	require.NotEmpty(t, body.AccessToken)
	require.Empty(t, body.RefreshToken, "refresh responses carry no refresh token")

	// The new access token is immediately usable.
	req = httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+body.AccessToken)
	rec = e.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRefresh_MissingCookie(t *testing.T) {
	e := newEnv(t)
	rec := e.do(httptest.NewRequest(http.MethodPost, "/refresh", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_AccessTokenInCookieRejected(t *testing.T) {
	e := newEnv(t)
	access, err := e.issuer.Access("alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: access.Token})
	rec := e.do(req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_ExpiredCookie(t *testing.T) {
	e := newEnv(t)
	expired := token.NewIssuer(e.codec, token.IssuerConfig{
		Now: func() time.Time { return time.Now().UTC().Add(-30 * 24 * time.Hour) },
	})
	refresh, err := expired.Refresh("alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: refresh.Token})
	rec := e.do(req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_RevocationFailure(t *testing.T) {
	e := newEnv(t)
	e.revoked.revokeErr = context.DeadlineExceeded

	access, err := e.issuer.Access("alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+access.Token)
	rec := e.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	// The cookie must not be cleared when revocation was not recorded.
	require.Nil(t, refreshCookie(rec))
}

func TestProtected_BlacklistOutage(t *testing.T) {
	e := newEnv(t)
	e.users.add(t, "alice", "hunter2hunter2", true)
	e.revoked.lookupErr = context.DeadlineExceeded

	access, err := e.issuer.Access("alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+access.Token)
	rec := e.do(req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProtected_InactiveUser(t *testing.T) {
	e := newEnv(t)
	e.users.add(t, "alice", "hunter2hunter2", false)

	access, err := e.issuer.Access("alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+access.Token)
	rec := e.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterThenLogin(t *testing.T) {
	e := newEnv(t)

	payload := `{"name":"Alice","username":"alice","email":"alice@example.com","password":"hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := e.do(req)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Duplicate registration is rejected.
	req = httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec = e.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.login(t, "alice", "hunter2hunter2")
	require.Equal(t, http.StatusOK, rec.Code)
}
