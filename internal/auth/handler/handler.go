package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/credentials"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/provider"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth/resolver"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/keys"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/logger"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/go-jose/go-jose/v4"
)

// Broker is the set of authentication operations the handlers expose.
type Broker interface {
	Register(ctx context.Context, email, password string) (*token.Token, error)
	Login(ctx context.Context, email, password string) (*token.Token, error)
	LoginWithProvider(ctx context.Context, providerName, rawToken string) (*token.Token, error)
	LoginWithIdentity(ctx context.Context, identity *auth.Identity) (*token.Token, error)
}

// KeySet is the read side of the key store used for discovery.
type KeySet interface {
	JWKS() jose.JSONWebKeySet
	Algorithms() []string
}

type Handler struct {
	broker    Broker
	providers *provider.Registry
	keys      KeySet
	issuer    string
}

func NewHandler(
	broker Broker,
	registry *provider.Registry,
	keySet KeySet,
	issuer string,
) *Handler {
	return &Handler{
		broker:    broker,
		providers: registry,
		keys:      keySet,
		issuer:    strings.TrimRight(issuer, "/"),
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/google", h.ProviderLogin("google"))
	r.POST("/auth/apple", h.ProviderLogin("apple"))

	r.GET("/oauth/login/:provider", h.oauthLogin)
	r.GET("/oauth/callback/:provider", h.oauthCallback)

	r.GET("/.well-known/openid-configuration", h.Discovery)
	r.GET("/.well-known/jwks.json", h.JWKS)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func writeToken(c *gin.Context, status int, tok *token.Token) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, tokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   tok.ExpiresIn(),
	})
}

// writeError maps domain errors to HTTP responses. Server faults are logged
// and answered with a generic body.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, credentials.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, credentials.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "credentials taken"})
	case errors.Is(err, credentials.ErrInvalidEmail),
		errors.Is(err, credentials.ErrPasswordTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, provider.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	case errors.Is(err, provider.ErrProviderNotConfigured):
		c.JSON(http.StatusNotImplemented, gin.H{"error": "provider not configured"})
	case errors.Is(err, resolver.ErrIdentityConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "account already linked to a different identity"})
	default:
		fields := map[string]any{
			"path":  c.FullPath(),
			"error": err.Error(),
		}
		if errors.Is(err, keys.ErrNoKeysAvailable) {
			logger.Error("no signing key configured", fields)
		} else {
			logger.Error("request failed", fields)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
