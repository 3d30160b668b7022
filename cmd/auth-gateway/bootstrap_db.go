package main

import (
	"context"

	config "github.com/NordCoder/Authgate/internal/config/auth-gateway"
	pg "github.com/NordCoder/Authgate/internal/repository/postgres"
)

func initDB(ctx context.Context, cfg *config.Config) (*pg.DB, error) {
	return pg.NewDB(ctx, cfg.DB)
}
