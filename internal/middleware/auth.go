package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// ContextKeyUserID is the key for the authenticated user UUID in the
	// Gin context. Absent for guests.
	ContextKeyUserID = "user_id"
	// ContextKeyEmail is the key for the authenticated email
	ContextKeyEmail = "email"

	tokenLifetime = 30 * 24 * time.Hour
)

// AuthMiddleware validates bearer session tokens issued by the login
// flow. Requests without a token proceed as guests; only a malformed or
// expired token is rejected.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// IssueToken mints a session JWT for a verified login.
func (am *AuthMiddleware) IssueToken(userID uuid.UUID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(am.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Authenticate is the Gin middleware handler
func (am *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// Guest request
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"ok": false, "errorCode": "VALIDATION_ERROR", "message": "Invalid Authorization header format",
			})
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return am.secret, nil
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to verify session token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"ok": false, "errorCode": "VALIDATION_ERROR", "message": "Invalid or expired token",
			})
			return
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"ok": false, "errorCode": "VALIDATION_ERROR", "message": "Invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyUserID, userID)
		if email, ok := claims["email"].(string); ok {
			c.Set(ContextKeyEmail, email)
		}

		c.Next()
	}
}

// GetUserID extracts the authenticated user UUID, nil for guests.
func GetUserID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(ContextKeyUserID)
	if !ok {
		return nil
	}
	if id, ok := v.(uuid.UUID); ok {
		return &id
	}
	return nil
}

// GetEmail extracts the authenticated email, empty for guests.
func GetEmail(c *gin.Context) string {
	v, _ := c.Get(ContextKeyEmail)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
