package main

import (
	"context"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	config "github.com/NordCoder/Authgate/internal/config/auth-gateway"
	domaintoken "github.com/NordCoder/Authgate/internal/domain/token"
	"github.com/NordCoder/Authgate/internal/obs"
	pg "github.com/NordCoder/Authgate/internal/repository/postgres"
	redisrepo "github.com/NordCoder/Authgate/internal/repository/redis"
	"github.com/NordCoder/Authgate/internal/services/auth-gateway/auth"
	"github.com/NordCoder/Authgate/internal/services/auth-gateway/users"
	"github.com/NordCoder/Authgate/internal/token"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB, rdb *goredis.Client) (*http.Server, *auth.Janitor, error) {
	codec, err := token.NewCodec([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTAlgorithm, nil)
	if err != nil {
		return nil, nil, err
	}
	issuer := token.NewIssuer(codec, token.IssuerConfig{
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})

	var revoked domaintoken.RevocationStore = pg.NewRevocationRepo(db)
	if rdb != nil {
		revoked = redisrepo.NewRevocationCache(revoked, rdb, cfg.Redis.FillTTL)
	}

	userRepo := pg.NewUserRepo(db)
	authUC := auth.NewUsecase(userRepo, revoked, codec, issuer)
	authCtl := auth.NewController(logger, authUC, auth.CookieOpts{
		Name:   cfg.Auth.CookieName,
		Domain: cfg.Auth.CookieDomain,
		Path:   cfg.Auth.CookiePath,
		Secure: cfg.Auth.CookieSecure,
		MaxAge: cfg.Auth.RefreshTTL,
	})
	usersCtl := users.NewController(logger, users.NewUsecase(userRepo))

	root := http.NewServeMux()
	authCtl.Register(root)
	usersCtl.Register(root, authCtl.RequireAuth)
	root.Handle("/metrics", obs.MetricsHandler())
	root.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		hctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		if err := db.Pool.Ping(hctx); err != nil {
			http.Error(w, "unhealthy: db", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handler := otelhttp.NewHandler(
		obs.RequestLogger(logger)(cors(cfg.Server.CORSOrigins)(root)),
		cfg.App.Name,
	)

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	janitor := auth.NewJanitor(logger, revoked, cfg.Auth.PurgeEvery)
	return httpSrv, janitor, nil
}

func cors(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
				if r.Method == http.MethodOptions {
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
