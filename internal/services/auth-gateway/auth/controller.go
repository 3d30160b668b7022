package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/NordCoder/Authgate/internal/obs"
	"github.com/NordCoder/Authgate/internal/services/auth-gateway/httpjson"
)

type CookieOpts struct {
	Name   string
	Domain string
	Path   string
	Secure bool
	MaxAge time.Duration // refresh lifetime
}

// Controller is the only component that touches transport concerns:
// cookies, headers and status codes.
type Controller struct {
	log    *zap.Logger
	uc     *Usecase
	cookie CookieOpts
}

func NewController(log *zap.Logger, uc *Usecase, cookie CookieOpts) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{log: log, uc: uc, cookie: cookie}
}

func (c *Controller) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /token", c.handleLogin)
	mux.HandleFunc("POST /refresh", c.handleRefresh)
	mux.HandleFunc("POST /logout", c.handleLogout)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (c *Controller) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed form body")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		httpjson.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	_, pair, err := c.uc.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			obs.WithTrace(r.Context(), c.log).Info("auth.login rejected", zap.String("username", username))
			c.unauthorized(w, ErrInvalidCredentials.Error())
			return
		}
		obs.WithTrace(r.Context(), c.log).Error("auth.login", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	c.setRefreshCookie(w, pair.Refresh.Token)
	obs.WithTrace(r.Context(), c.log).Info("auth.login", zap.String("username", username))
	httpjson.Write(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.Access.Token,
		RefreshToken: pair.Refresh.Token,
		TokenType:    "bearer",
		ExpiresIn:    pair.Access.ExpiresIn,
	})
}

func (c *Controller) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var raw string
	if ck, err := r.Cookie(c.cookie.Name); err == nil {
		raw = ck.Value
	}

	access, err := c.uc.Refresh(r.Context(), raw)
	if err != nil {
		var ue *UnauthorizedError
		if errors.As(err, &ue) {
			obs.WithTrace(r.Context(), c.log).Info("auth.refresh rejected", zap.String("reason", string(ue.Reason)))
			c.unauthorized(w, "invalid refresh token")
			return
		}
		obs.WithTrace(r.Context(), c.log).Error("auth.refresh", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpjson.Write(w, http.StatusOK, tokenResponse{
		AccessToken: access.Token,
		TokenType:   "bearer",
		ExpiresIn:   access.ExpiresIn,
	})
}

func (c *Controller) handleLogout(w http.ResponseWriter, r *http.Request) {
	raw := bearerToken(r)

	if err := c.uc.Logout(r.Context(), raw); err != nil {
		var ue *UnauthorizedError
		if errors.As(err, &ue) {
			obs.WithTrace(r.Context(), c.log).Info("auth.logout rejected", zap.String("reason", string(ue.Reason)))
			c.unauthorized(w, "invalid token")
			return
		}
		// Revocation was not recorded; do not pretend the logout worked.
		obs.WithTrace(r.Context(), c.log).Error("auth.logout", zap.Error(err))
		httpjson.Error(w, http.StatusBadRequest, "could not log out")
		return
	}

	c.clearRefreshCookie(w)
	obs.WithTrace(r.Context(), c.log).Info("auth.logout")
	httpjson.Write(w, http.StatusOK, map[string]string{"message": "successfully logged out"})
}

func (c *Controller) unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	httpjson.Error(w, http.StatusUnauthorized, msg)
}

func (c *Controller) setRefreshCookie(w http.ResponseWriter, raw string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookie.Name,
		Value:    raw,
		Path:     c.cookie.Path,
		Domain:   c.cookie.Domain,
		HttpOnly: true,
		Secure:   c.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.cookie.MaxAge.Seconds()),
		Expires:  time.Now().Add(c.cookie.MaxAge).UTC(),
	})
}

func (c *Controller) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookie.Name,
		Value:    "",
		Path:     c.cookie.Path,
		Domain:   c.cookie.Domain,
		HttpOnly: true,
		Secure:   c.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

func bearerToken(r *http.Request) string {
	v := r.Header.Get("Authorization")
	if v == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(v), "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return ""
}
