package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserKey is the gin context key holding the verified acting identity.
const UserKey = "user"

type AuthnConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// Authn verifies the bearer token and stashes the acting identity in the
// request context. It is stateless: a rejected token is a terminal 401, the
// caller must re-authenticate.
func Authn(config AuthnConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		token, err := jwt.Parse(tokenStr,
			func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(config.Secret), nil
			},
			jwt.WithValidMethods([]string{"HS256"}),
			jwt.WithIssuer(config.Issuer),
			jwt.WithAudience(config.Audience),
			jwt.WithExpirationRequired(),
		)
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		user, _ := claims["user"].(string)
		if user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// ActingUser pulls the verified identity set by Authn. The bool is false when
// the middleware did not run (misconfigured route).
func ActingUser(c *gin.Context) (string, bool) {
	value, exists := c.Get(UserKey)
	if !exists {
		return "", false
	}
	user, ok := value.(string)
	return user, ok && user != ""
}
