package app

import (
	"context"
	"net/http"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/credentials"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/handler"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/provider"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/provider/apple"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/provider/google"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/resolver"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/broker"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/config"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/logger"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/metrics"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/middleware"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/token"

	"github.com/gin-gonic/gin"
)

// setupProviders builds only the providers that have a client id.
func setupProviders(ctx context.Context, cfg config.Config) (*provider.Registry, error) {
	var list []provider.Verifier

	if cfg.GoogleClientID != "" {
		p, err := google.New(ctx, google.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}

	if cfg.AppleClientID != "" {
		p, err := apple.New(ctx, apple.Config{ClientID: cfg.AppleClientID})
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}

	registry := provider.NewRegistry(list...)
	logger.Info("identity providers configured", map[string]any{
		"providers": registry.Names(),
		"code_flow": cfg.CodeFlowEnabled(),
	})

	return registry, nil
}

func setupHTTP(ctx context.Context, cfg config.Config, infra *Infra) (*gin.Engine, error) {
	// ----------------------------
	// Dependencies
	// ----------------------------

	registry, err := setupProviders(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	m.RegisterKeyGauge(infra.Keys.Len)

	authBroker := broker.New(
		credentials.NewService(infra.Users, credentials.NewHasher()),
		registry,
		resolver.NewStoreResolver(infra.Users),
		token.NewIssuer(infra.Keys, cfg.Issuer, cfg.Audience),
		broker.WithRecorder(m),
	)

	authHandler := handler.NewHandler(authBroker, registry, infra.Keys, cfg.Issuer)
	authMiddleware := middleware.NewAuthMiddleware(
		token.NewVerifier(infra.Keys, cfg.Issuer, cfg.Audience),
	)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery(), m.Middleware())

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(authMiddleware))

	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"sub":   c.GetString("userID"),
			"email": c.GetString("email"),
		})
	})

	return router, nil
}
