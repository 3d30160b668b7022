package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/NordCoder/Authgate/internal/domain/user"
	"github.com/NordCoder/Authgate/internal/obs"
	"github.com/NordCoder/Authgate/internal/services/auth-gateway/httpjson"
)

type ctxKey int

const principalKey ctxKey = 1

func PrincipalFromCtx(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(principalKey).(*user.User)
	return u, ok
}

// RequireAuth resolves the bearer token on every protected request and puts
// the principal into the request context. An unreachable revocation store
// rejects the request: fail-open would defeat revocation.
func (c *Controller) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		usr, err := c.uc.Resolve(r.Context(), bearerToken(r))
		if err != nil {
			c.writeResolveError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), principalKey, usr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (c *Controller) writeResolveError(w http.ResponseWriter, r *http.Request, err error) {
	log := obs.WithTrace(r.Context(), c.log)

	if errors.Is(err, ErrRevocationUnavailable) {
		log.Error("auth.resolve", zap.Error(err))
		httpjson.Error(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	var ue *UnauthorizedError
	if errors.As(err, &ue) {
		log.Info("auth.resolve rejected", zap.String("reason", string(ue.Reason)))
		// Account state is not a forgery concern; it gets its own status
		// and message. Everything else collapses to one generic response.
		if ue.Reason == ReasonInactiveAccount {
			httpjson.Error(w, http.StatusBadRequest, "inactive user")
			return
		}
		c.unauthorized(w, "could not validate credentials")
		return
	}

	log.Error("auth.resolve", zap.Error(err))
	httpjson.Error(w, http.StatusInternalServerError, "internal error")
}
