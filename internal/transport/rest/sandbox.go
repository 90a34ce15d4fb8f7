package rest

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/auth"
	"github.com/frahmantamala/asset-management/internal/sandbox"
	sandboxPostgres "github.com/frahmantamala/asset-management/internal/sandbox/postgres"
	"github.com/frahmantamala/asset-management/internal/transport"
	"github.com/frahmantamala/asset-management/internal/user"
	userPostgres "github.com/frahmantamala/asset-management/internal/user/postgres"
	"github.com/go-chi/chi"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const refreshTTL = 7 * 24 * time.Hour

// NewSandboxRouter wires repositories, services and handlers over db and
// returns the router serving the sandbox API.
func NewSandboxRouter(db *gorm.DB, cfg internal.Config, serverURL string, logger *slog.Logger) (*chi.Mux, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	base := transport.NewBaseHandler(logger)

	userRepo := userPostgres.NewUserRepository(db)
	tokens := auth.NewJWTTokenGenerator(cfg.Sandbox.JWTSecret, cfg.Sandbox.JWTSecret+":refresh", cfg.Sandbox.TokenTTL, refreshTTL)
	authService := auth.NewService(userRepo, tokens, bcrypt.DefaultCost)
	userService := user.NewService(userRepo, logger)

	records := sandbox.NewService(sandboxPostgres.NewRecordRepository(db), logger)
	dashboards := sandbox.NewDashboardService(sandboxPostgres.NewDashboardRepository(db), logger)

	router := chi.NewRouter()
	RegisterAllRoutes(router, sqlDB, db.Dialector.Name(), Handlers{
		Auth:    auth.NewHandler(base, authService),
		User:    user.NewHandler(base, userService),
		Records: sandbox.NewHandler(base, records, dashboards, cfg.Import),
	}, serverURL, logger)

	logger.Info("Sandbox: routes registered", "kinds", sandbox.DescribeKinds())
	return router, nil
}
