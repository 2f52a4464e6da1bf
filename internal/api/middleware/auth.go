package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/appprovts/SolarFlowPro/internal/db"
	"github.com/appprovts/SolarFlowPro/internal/service"
	"github.com/appprovts/SolarFlowPro/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates JWT tokens and sets user context
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := parts[1]

		token, err := authService.ValidateToken(tokenString)
		if err != nil || !token.Valid {
			log.Printf("[Auth] Invalid token - Path: %s, Error: %v", c.Request.URL.Path, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		userID, err := authService.GetUserIDFromToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		c.Set("userID", userID)

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if role, ok := claims["role"].(string); ok {
				c.Set("userRole", role)
			}
			if name, ok := claims["name"].(string); ok {
				c.Set("userName", name)
			}
		}

		c.Next()
	}
}

// SessionAgeMiddleware rejects requests whose sign-in session has expired,
// regardless of the JWT's own lifetime. When Redis is unavailable the check
// is skipped so the API keeps working in degraded mode.
func SessionAgeMiddleware(redis *db.RedisDB, maxAgeMinutes int) gin.HandlerFunc {
	maxAge := time.Duration(maxAgeMinutes) * time.Minute
	return func(c *gin.Context) {
		if redis == nil {
			c.Next()
			return
		}

		userID := GetUserID(c)
		if userID == "" {
			c.Next()
			return
		}

		session, err := redis.GetSession(c.Request.Context(), userID)
		if err != nil {
			log.Printf("[Auth] Session lookup failed for user %s: %v", userID, err)
			c.Next()
			return
		}
		if session == nil || time.Since(session.SignedIn) > maxAge {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired, please sign in again"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireManagement restricts a route to Engenharia and Admin users
func RequireManagement() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetUserRole(c)
		if role != types.RoleEngenharia && role != types.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin restricts a route to Admin users
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserRole(c) != types.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestLogger logs all incoming requests with details
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		log.Printf("[%s] %s %d - %v", method, path, status, duration)

		if len(c.Errors) > 0 {
			for _, e := range c.Errors {
				log.Printf("[Error] %v", e.Err)
			}
		}
	}
}

// GetUserID extracts user ID from gin context
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get("userID")
	if !exists {
		return ""
	}
	return userID.(string)
}

// GetUserRole extracts the role claim from gin context
func GetUserRole(c *gin.Context) string {
	role, exists := c.Get("userRole")
	if !exists {
		return ""
	}
	return role.(string)
}

// GetUserName extracts the name claim from gin context
func GetUserName(c *gin.Context) string {
	name, exists := c.Get("userName")
	if !exists {
		return ""
	}
	return name.(string)
}

// RequireUserID returns error if user ID is not in context
func RequireUserID(c *gin.Context) (string, bool) {
	userID := GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return "", false
	}
	return userID, true
}
