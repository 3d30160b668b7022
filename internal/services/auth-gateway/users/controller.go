package users

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/NordCoder/Authgate/internal/domain/user"
	"github.com/NordCoder/Authgate/internal/obs"
	"github.com/NordCoder/Authgate/internal/services/auth-gateway/auth"
	"github.com/NordCoder/Authgate/internal/services/auth-gateway/httpjson"
)

type Controller struct {
	log *zap.Logger
	uc  *Usecase
}

func NewController(log *zap.Logger, uc *Usecase) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{log: log, uc: uc}
}

// Register mounts the user endpoints; requireAuth guards the ones that need
// an authenticated principal.
func (c *Controller) Register(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /users", c.handleCreate)
	mux.Handle("GET /users/me", requireAuth(http.HandlerFunc(c.handleMe)))
}

type createRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

func toResponse(u *user.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Email:    u.Email,
		IsActive: u.IsActive,
	}
}

func (c *Controller) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "malformed json body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		httpjson.Error(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	rec, err := c.uc.Register(r.Context(), req.Name, req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			httpjson.Error(w, http.StatusBadRequest, ErrUsernameTaken.Error())
		case errors.Is(err, ErrWeakPassword):
			httpjson.Error(w, http.StatusBadRequest, ErrWeakPassword.Error())
		default:
			obs.WithTrace(r.Context(), c.log).Error("users.create", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	obs.WithTrace(r.Context(), c.log).Info("users.create", zap.String("username", rec.Username))
	httpjson.Write(w, http.StatusCreated, toResponse(rec))
}

func (c *Controller) handleMe(w http.ResponseWriter, r *http.Request) {
	usr, ok := auth.PrincipalFromCtx(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpjson.Write(w, http.StatusOK, toResponse(usr))
}
