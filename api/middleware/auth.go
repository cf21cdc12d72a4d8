package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/feichai0017/project-assistant/pkg/logger"
)

const ownerKey = "ownerId"

// Auth resolves the bearer token to the owner id carried in its subject claim.
func Auth(secret, issuer string) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(secret)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header missing")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		tokenString = strings.TrimSpace(tokenString)
		if !ok || tokenString == "" {
			unauthorized(c, "Bearer token missing")
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			unauthorized(c, "Invalid token")
			return
		}
		if claims.Subject == "" {
			unauthorized(c, "Invalid token subject")
			return
		}

		c.Set(ownerKey, claims.Subject)
		c.Request = c.Request.WithContext(logger.ContextWithOwner(c.Request.Context(), claims.Subject))
		c.Next()
	}
}

// OwnerID returns the owner resolved by Auth.
func OwnerID(c *gin.Context) string {
	return c.GetString(ownerKey)
}

func unauthorized(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}
