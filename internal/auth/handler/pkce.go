package handler

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/gin-gonic/gin"
)

const pkceCookieName = "__oauth_pkce"

// generatePKCE stores an S256 verifier in a cookie and returns the pair.
func generatePKCE(c *gin.Context) (verifier string, challenge string, err error) {
	verifier, err = randomToken()
	if err != nil {
		return "", "", err
	}

	hash := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(hash[:])

	setFlowCookie(c, pkceCookieName, verifier, int(flowCookieTTL.Seconds()))

	return verifier, challenge, nil
}

func getPKCEVerifier(c *gin.Context) string {
	cookie, err := c.Request.Cookie(pkceCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
