package middleware

import (
	"net/http"
	"strings"

	"remindflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// OperatorClaims is the token shape accepted by the API. Tokens are issued
// by an external identity provider sharing the HS256 secret.
type OperatorClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTMiddleware authenticates callers with an HS256 bearer token. An empty
// secret disables authentication. In dev mode "X-Dev-Pass: true" injects a
// mock admin.
func JWTMiddleware(secret string, devMode bool) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		if devMode && c.GetHeader("X-Dev-Pass") == "true" {
			ctx := service.WithOperator(c.Request.Context(), &service.OperatorInfo{
				UserID: "9999",
				Name:   "dev-admin",
				Role:   "admin",
			})
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		tokenString := ""
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			return
		}

		claims := &OperatorClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid access token"})
			return
		}

		name := claims.Name
		if name == "" {
			name = claims.Subject
		}
		ctx := service.WithOperator(c.Request.Context(), &service.OperatorInfo{
			UserID: claims.Subject,
			Name:   name,
			Role:   claims.Role,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
