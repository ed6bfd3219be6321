package router

import (
	"context"
	"errors"
	"time"

	"github.com/Wasion-it/fork-controle-material/internal/config"
	"github.com/Wasion-it/fork-controle-material/internal/handler"
	"github.com/Wasion-it/fork-controle-material/internal/infra"
	"github.com/Wasion-it/fork-controle-material/internal/middleware"
	"github.com/Wasion-it/fork-controle-material/internal/model"
	"github.com/Wasion-it/fork-controle-material/internal/repository"
	"github.com/Wasion-it/fork-controle-material/internal/service"
	"github.com/Wasion-it/fork-controle-material/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// directoryAdapter bridges the LDAP client to the auth service, translating
// infra errors into the service's taxonomy: disabled/unreachable means "try
// the local account", anything else means the credentials were refused.
type directoryAdapter struct{ client *infra.LDAPClient }

func (a *directoryAdapter) Enabled() bool { return a.client.Enabled() }

func (a *directoryAdapter) Authenticate(ctx context.Context, username, password string) (*service.DirectoryIdentity, error) {
	u, err := a.client.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, infra.ErrDirectoryAuth) {
			return nil, err
		}
		// Disabled, circuit open, or an infra failure mid-dance: the
		// credentials were never checked, so local fallback applies.
		return nil, service.ErrDirectoryUnavailable
	}
	return &service.DirectoryIdentity{
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
	}, nil
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, ldapClient *infra.LDAPClient) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	materialRepo := repository.NewMaterialRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	userRepo := repository.NewUserRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher — injected into the ledger so out movements that land
	// at or below the minimum enqueue an alert job.
	var notifier service.LowStockNotifier
	if !cfg.AlertsDisabled {
		notifier = worker.NewDispatcher(rdb)
	}

	ledgerSvc := service.NewLedgerService(materialRepo, movementRepo, notifier,
		time.Duration(cfg.MovementTimeoutSeconds)*time.Second)
	materialSvc := service.NewMaterialService(materialRepo, movementRepo, ledgerSvc)
	reportSvc := service.NewReportService(materialRepo, movementRepo)
	authSvc := service.NewAuthService(userRepo, &directoryAdapter{client: ldapClient}, cfg)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	materialsH := handler.NewMaterialsHandler(materialSvc)
	movementsH := handler.NewMovementsHandler(ledgerSvc, reportSvc)
	reportsH := handler.NewReportsHandler(reportSvc)
	usersH := handler.NewUsersHandler(authSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, ldapClient))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Reads — any authenticated user
		v1.GET("/materials", materialsH.List)
		v1.GET("/materials/:id", materialsH.GetByID)
		v1.GET("/movements", movementsH.List)
		v1.GET("/stats", reportsH.Stats)
		v1.GET("/reports/movements", reportsH.MovementReport)

		// Movements — any authenticated user can record
		v1.POST("/movements", movementsH.Record)

		// Material writes — admin only
		materials := v1.Group("/materials", middleware.RequireRole(model.RoleAdmin))
		{
			materials.POST("", materialsH.Create)
			materials.PUT("/:id", materialsH.Update)
			materials.DELETE("/:id", materialsH.Deactivate)
			materials.PATCH("/:id/reactivate", materialsH.Reactivate)
		}

		// Local account management — admin only
		users := v1.Group("/users", middleware.RequireRole(model.RoleAdmin))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
