package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	tok, err := h.broker.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	writeToken(c, http.StatusCreated, tok)
}

func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	tok, err := h.broker.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	writeToken(c, http.StatusOK, tok)
}

type providerTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// ProviderLogin exchanges a provider ID token from a client SDK for an access token.
func (h *Handler) ProviderLogin(providerName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req providerTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		tok, err := h.broker.LoginWithProvider(c.Request.Context(), providerName, req.Token)
		if err != nil {
			writeError(c, err)
			return
		}

		writeToken(c, http.StatusOK, tok)
	}
}
