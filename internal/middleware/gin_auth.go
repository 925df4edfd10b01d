package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinRequireAuth adapts the net/http AuthMiddleware to Gin and also
// exposes the subject and email as Gin context keys.
func GinRequireAuth(auth *AuthMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			if claims, ok := ClaimsFromContext(r.Context()); ok {
				c.Set("userID", claims.Subject)
				c.Set("email", claims.Email)
			}
			c.Next()
		})

		auth.RequireAuth(next).ServeHTTP(c.Writer, c.Request)

		// the middleware already answered
		if c.Writer.Written() {
			c.Abort()
		}
	}
}
