package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/freshkart-dev/grocery-api/models"
)

const (
	ContextEmailKey = "email"
	ContextRoleKey  = "role"
)

// ValidateToken verifies the bearer token issued by the identity service and
// puts the caller's email and role into the request context. Token issuance
// itself lives outside this API.
func ValidateToken(c *gin.Context) {
	tokenString := c.GetHeader("Authorization")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
		c.Abort()
		return
	}
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		c.Abort()
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
		c.Abort()
		return
	}

	email, _ := claims["email"].(string)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has no subject"})
		c.Abort()
		return
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = string(models.RoleUser)
	}

	c.Set(ContextEmailKey, email)
	c.Set(ContextRoleKey, role)
	c.Next()
}

// RequireAdmin gates admin-only routes. Runs after ValidateToken.
func RequireAdmin(c *gin.Context) {
	role := c.GetString(ContextRoleKey)
	if role != string(models.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		c.Abort()
		return
	}
	c.Next()
}

// CallerEmail returns the authenticated caller's email from the context.
func CallerEmail(c *gin.Context) string {
	return c.GetString(ContextEmailKey)
}
