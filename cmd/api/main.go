package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/renovahq/crm-api/internal/config"
	"github.com/renovahq/crm-api/internal/email"
	"github.com/renovahq/crm-api/internal/handler"
	auditHandler "github.com/renovahq/crm-api/internal/handler/audit"
	authHandler "github.com/renovahq/crm-api/internal/handler/auth"
	clientHandler "github.com/renovahq/crm-api/internal/handler/client"
	permissionHandler "github.com/renovahq/crm-api/internal/handler/permission"
	projectHandler "github.com/renovahq/crm-api/internal/handler/project"
	roleHandler "github.com/renovahq/crm-api/internal/handler/role"
	showroomHandler "github.com/renovahq/crm-api/internal/handler/showroom"
	userHandler "github.com/renovahq/crm-api/internal/handler/user"
	"github.com/renovahq/crm-api/internal/middleware"
	"github.com/renovahq/crm-api/internal/repository/postgres"
	"github.com/renovahq/crm-api/internal/router"
	auditService "github.com/renovahq/crm-api/internal/service/audit"
	authService "github.com/renovahq/crm-api/internal/service/auth"
	clientService "github.com/renovahq/crm-api/internal/service/client"
	permissionService "github.com/renovahq/crm-api/internal/service/permission"
	projectService "github.com/renovahq/crm-api/internal/service/project"
	roleService "github.com/renovahq/crm-api/internal/service/role"
	showroomService "github.com/renovahq/crm-api/internal/service/showroom"
	templateService "github.com/renovahq/crm-api/internal/service/template"
	userService "github.com/renovahq/crm-api/internal/service/user"
	"github.com/renovahq/crm-api/pkg/auth"
	"github.com/renovahq/crm-api/pkg/logger"
	"github.com/renovahq/crm-api/pkg/messaging/redis"
	"github.com/renovahq/crm-api/pkg/metrics"
	"github.com/renovahq/crm-api/pkg/security"
	"github.com/renovahq/crm-api/pkg/worker"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	zl := appLogger.Zerolog()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	m := metrics.NewMetrics("crm", "api")

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	showroomRepo := postgres.NewShowroomRepository(db)
	clientRepo := postgres.NewClientRepository(db)
	projectRepo := postgres.NewProjectRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	templateRepo := postgres.NewTemplateRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	// Shared collaborators
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	sender := email.NewSMTPSender(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Enabled:  cfg.SMTP.Enabled,
	}, zl)

	// Services
	auditSvc := auditService.NewService(auditRepo)
	permissionSvc := permissionService.NewService(roleRepo, m, zl)
	authSvc := authService.NewService(userRepo, jwtSvc, hasher, time.Duration(cfg.JWT.ExpiryHours)*time.Hour, zl)
	roleSvc := roleService.NewService(roleRepo, outboxRepo, auditSvc, permissionSvc, zl)
	templateSvc := templateService.NewService(templateRepo, outboxRepo, auditSvc, zl)
	projectSvc := projectService.NewService(projectRepo, clientRepo, outboxRepo, auditSvc, sender, m, zl)
	clientSvc := clientService.NewService(clientRepo, outboxRepo, auditSvc, zl)
	userSvc := userService.NewService(userRepo, hasher, auditSvc, zl)
	showroomSvc := showroomService.NewService(showroomRepo, auditSvc, zl)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, permissionSvc)

	// Handlers
	h := handler.NewHandler(db)
	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		h,
		router.Config{
			RateLimit:     rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:     cfg.RateLimit.Burst,
			Timeout:       time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "crm_api",
		},
		roleHandler.NewHandler(roleSvc, authMiddleware),
		permissionHandler.NewHandler(permissionSvc, templateSvc, authMiddleware),
		projectHandler.NewHandler(projectSvc, authMiddleware),
		clientHandler.NewHandler(clientSvc, authMiddleware),
		userHandler.NewHandler(userSvc, authMiddleware),
		showroomHandler.NewHandler(showroomSvc, authMiddleware),
		auditHandler.NewHandler(auditSvc, authMiddleware),
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	// Outbox processing runs in-process when Redis is configured. The
	// dedicated worker binary covers multi-instance deployments.
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if cfg.Redis.URL != "" {
		broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.Redis.URL}, zl)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()

		processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
			BatchSize:     50,
			PollInterval:  5 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
			RetainFor:     72 * time.Hour,
		}, appLogger, m)
		go processor.Start(ctx)
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
