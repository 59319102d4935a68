package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lenlo121500/auth-system/internal/token"
)

// SessionCookie is the name of the HTTP-only cookie carrying the session JWT.
const SessionCookie = "token"

const errUnauthorized = "Unauthorized"

// Auth validates the session cookie and sets "userID" in the gin context.
// Requests without a valid session are rejected before any handler runs.
func Auth(tokens *token.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookie)
		if err != nil || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		userID, err := tokens.ParseSession(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
