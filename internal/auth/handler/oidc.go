package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type discoveryDocument struct {
	Issuer                           string   `json:"issuer"`
	JWKSURI                          string   `json:"jwks_uri"`
	ResponseTypesSupported           []string `json:"response_types_supported"`
	SubjectTypesSupported            []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported []string `json:"id_token_signing_alg_values_supported"`
	ClaimsSupported                  []string `json:"claims_supported"`
}

// Discovery serves the OpenID provider metadata downstream verifiers use
// to locate the JWKS.
func (h *Handler) Discovery(c *gin.Context) {
	algs := h.keys.Algorithms()
	if len(algs) == 0 {
		algs = []string{"RS256"}
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(http.StatusOK, discoveryDocument{
		Issuer:                           h.issuer,
		JWKSURI:                          h.issuer + "/.well-known/jwks.json",
		ResponseTypesSupported:           []string{"id_token"},
		SubjectTypesSupported:            []string{"public"},
		IDTokenSigningAlgValuesSupported: algs,
		ClaimsSupported:                  []string{"sub", "iss", "aud", "email", "exp", "iat", "kid"},
	})
}

// JWKS serves every published public key. Caching is short so rotations
// propagate well within a token lifetime.
func (h *Handler) JWKS(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, h.keys.JWKS())
}
