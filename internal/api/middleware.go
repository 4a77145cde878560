package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/mkacik/budget/internal/models"
	"github.com/mkacik/budget/internal/repository"
)

// AuthCookieName is the cookie carrying the JWT for browser sessions. The
// Authorization header takes precedence when both are present.
const AuthCookieName = "auth_token"

// AuthMiddleware returns a Gin middleware for authentication
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Status:  "error",
				Code:    "UNAUTHORIZED",
				Message: "Authentication required",
			})
			c.Abort()
			return
		}

		// Parse the JWT token
		jwtSecret := c.MustGet("jwtSecret").([]byte)
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return jwtSecret, nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Status:  "error",
				Code:    "UNAUTHORIZED",
				Message: "Invalid token",
			})
			c.Abort()
			return
		}

		// Extract claims from the token
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Status:  "error",
				Code:    "UNAUTHORIZED",
				Message: "Invalid token claims",
			})
			c.Abort()
			return
		}

		// Get user ID from the token claims
		userID, ok := claims["sub"].(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Status:  "error",
				Code:    "UNAUTHORIZED",
				Message: "Invalid user ID in token",
			})
			c.Abort()
			return
		}

		// Set user ID in the context
		c.Set("userId", userID)
		c.Next()
	}
}

// extractToken pulls the JWT from the Authorization header or, for browser
// sessions, from the auth cookie.
func extractToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", false
		}
		return parts[1], true
	}

	cookie, err := c.Cookie(AuthCookieName)
	if err != nil || cookie == "" {
		return "", false
	}
	return cookie, true
}

// maxLoggedBodyBytes caps how much request content lands in the write log.
const maxLoggedBodyBytes = 64 * 1024

// WriteLogMiddleware records every mutating request in the write log: who
// sent what where, when it started and how it finished. Log failures never
// block the request itself.
func WriteLogMiddleware(repo repository.Repository, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		entry := &models.WriteLogEntry{
			URI:      c.Request.URL.RequestURI(),
			Method:   c.Request.Method,
			Username: c.GetString("userId"),
			Content:  snapshotBody(c),
			StartTS:  time.Now().Unix(),
		}

		if err := repo.LogWriteStart(c.Request.Context(), entry); err != nil {
			log.WithError(err).Warn("failed to record write log entry")
			c.Next()
			return
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		if err := repo.LogWriteEnd(c.Request.Context(), entry.ID, status); err != nil {
			log.WithError(err).Warn("failed to finalize write log entry")
		}
	}
}

// snapshotBody reads the request body for logging and puts it back for the
// handler. Multipart uploads are skipped, only their URI is worth keeping.
func snapshotBody(c *gin.Context) *string {
	if c.Request.Body == nil {
		return nil
	}
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/") {
		return nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	if len(body) == 0 {
		return nil
	}
	if len(body) > maxLoggedBodyBytes {
		body = body[:maxLoggedBodyBytes]
	}
	content := string(body)
	return &content
}
