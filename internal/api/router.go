package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/soporteya/auth-service/docs"
	"github.com/soporteya/auth-service/internal/api/handler"
	"github.com/soporteya/auth-service/internal/api/middleware"
	"github.com/soporteya/auth-service/internal/core/ports"
	"github.com/soporteya/auth-service/internal/core/service"
	"github.com/soporteya/auth-service/internal/infrastructure/config"
	mongostore "github.com/soporteya/auth-service/internal/infrastructure/db/mongo"
	redisstore "github.com/soporteya/auth-service/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, mailer ports.Mailer, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("auth_http"))

	// --- Dependencies ---
	userRepo := mongostore.NewUserRepository(db)
	sessionRepo := mongostore.NewSessionRepository(db)
	resetStore := redisstore.NewResetStore(rdb)
	verifyStore := redisstore.NewVerificationStore(rdb)
	limiter := redisstore.NewRateLimiter(rdb, "ratelimit")

	sessionService := service.NewSessionService(sessionRepo, userRepo, cfg.JWT.RefreshTTL)
	tokenService := service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.AccessTTL, sessionService)
	authService := service.NewAuthService(userRepo, sessionService, tokenService, verifyStore, mailer)
	resetService := service.NewResetService(userRepo, resetStore, limiter, sessionService, tokenService, mailer, log)

	cookies := handler.CookieConfig{TTL: cfg.JWT.RefreshTTL, Secure: !cfg.IsDevelopment()}
	authHandler := handler.NewAuthHandler(authService, cookies)
	sessionHandler := handler.NewSessionHandler(sessionService)
	resetHandler := handler.NewResetHandler(resetService, cookies)

	authRequired := middleware.Auth(tokenService)

	// --- Public auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.POST("/auth/verify-email", authHandler.VerifyEmail)

	// --- Password reset (public) ---
	e.POST("/auth/password-reset", resetHandler.Request)
	e.GET("/auth/password-reset/status", resetHandler.Status)
	e.POST("/auth/password-reset/confirm", resetHandler.Confirm)

	// --- Authenticated routes ---
	auth := e.Group("/auth", authRequired)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me)
	auth.GET("/available-roles", authHandler.AvailableRoles)
	auth.POST("/select-role", authHandler.SelectRole)
	auth.POST("/verify-email/resend", authHandler.ResendVerification)
	auth.GET("/sessions", sessionHandler.List)
	auth.DELETE("/sessions/:id", sessionHandler.Revoke)

	// --- Observability and docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	return e
}
