package handler

import (
	"net/http"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/logger"

	"github.com/gin-gonic/gin"
)

func (h *Handler) oauthLogin(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.CodeFlow(providerName)
	if err != nil {
		writeError(c, err)
		return
	}

	state, err := generateState(c)
	if err != nil {
		writeError(c, err)
		return
	}
	_, codeChallenge, err := generatePKCE(c)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Redirect(http.StatusFound, p.AuthCodeURL(state, codeChallenge))
}

func (h *Handler) oauthCallback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.CodeFlow(providerName)
	if err != nil {
		writeError(c, err)
		return
	}

	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid state"})
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		clearFlowCookies(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization denied"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing pkce verifier"})
		return
	}

	// state and verifier are single use
	clearFlowCookies(c)

	identity, err := p.ExchangeCode(c.Request.Context(), code, codeVerifier)
	if err != nil {
		writeError(c, err)
		return
	}

	tok, err := h.broker.LoginWithIdentity(c.Request.Context(), identity)
	if err != nil {
		writeError(c, err)
		return
	}

	writeToken(c, http.StatusOK, tok)
}
