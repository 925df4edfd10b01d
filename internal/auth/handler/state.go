package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	stateCookieName = "__oauth_state"
	flowCookieTTL   = 5 * time.Minute
)

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("handler: random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func setFlowCookie(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/oauth/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func clearFlowCookies(c *gin.Context) {
	setFlowCookie(c, stateCookieName, "", -1)
	setFlowCookie(c, pkceCookieName, "", -1)
}

func generateState(c *gin.Context) (string, error) {
	state, err := randomToken()
	if err != nil {
		return "", err
	}
	setFlowCookie(c, stateCookieName, state, int(flowCookieTTL.Seconds()))
	return state, nil
}

func validateState(c *gin.Context) bool {
	stateQuery := c.Query("state")
	if stateQuery == "" {
		return false
	}

	cookie, err := c.Request.Cookie(stateCookieName)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(stateQuery)) == 1
}
