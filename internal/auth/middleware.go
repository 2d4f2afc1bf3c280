package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const subjectKey = "auth.subject"

// TokenParser validates session tokens.
type TokenParser interface {
	ParseToken(token string) (*Claims, error)
}

// RequireAdmin accepts "Authorization: Bearer <token>" or, when apiKey is set, X-API-Key.
// The authenticated subject is available through Subject.
func RequireAdmin(tokens TokenParser, apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if subject, ok := Authenticate(c, tokens, apiKey); ok {
			c.Set(subjectKey, subject)
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required.",
		})
	}
}

// Authenticate reports the caller's subject when the request carries valid admin credentials.
func Authenticate(c *gin.Context, tokens TokenParser, apiKey string) (string, bool) {
	if validAPIKey(apiKey, c.GetHeader(apiKeyHeader)) {
		return apiKeyActor, true
	}

	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" || tokens == nil {
		return "", false
	}
	claims, err := tokens.ParseToken(strings.TrimSpace(token))
	if err != nil {
		return "", false
	}
	return claims.Subject, true
}

// Subject returns the subject set by RequireAdmin, or "".
func Subject(c *gin.Context) string {
	return c.GetString(subjectKey)
}
