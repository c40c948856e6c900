package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coderag/index_go_server/internal/pkg/jwt"
	"github.com/coderag/index_go_server/internal/pkg/response"
)

const (
	SubjectKey = "subject"
)

// Auth validates the Bearer token and stores the caller subject.
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AuthError(c, "missing authorization header")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			response.AuthError(c, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err != nil {
			response.AuthError(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}

// GetSubject returns the authenticated caller name from the context.
func GetSubject(c *gin.Context) (string, bool) {
	subject, exists := c.Get(SubjectKey)
	if !exists {
		return "", false
	}
	s, ok := subject.(string)
	return s, ok
}
