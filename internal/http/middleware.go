package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"twitter-clone/internal/auth"
	"twitter-clone/internal/service"
)

const principalKey = "principal"

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request completed")
			return
		}
		entry.Info("request completed")
	}
}

// authenticateCredentials checks a username/email and password pair and
// attaches the principal for the next handler.
func (h *Handler) authenticateCredentials(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, err.Error())
		return
	case errors.Is(err, service.ErrNotConfirmed):
		fail(c, http.StatusForbidden, err.Error())
		return
	case err != nil:
		h.internalError(c, err)
		return
	}

	c.Set(principalKey, auth.Authenticated(*user))
	c.Next()
}

// authenticateToken resolves a bearer session token to a fresh copy of the
// user it was issued for.
func (h *Handler) authenticateToken(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	claims, err := h.tokens.Parse(strings.TrimSpace(token))
	if err != nil {
		fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.Current(c.Request.Context(), claims.Subject)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		fail(c, http.StatusUnauthorized, "unauthorized")
		return
	case err != nil:
		h.internalError(c, err)
		return
	}

	c.Set(principalKey, auth.Authenticated(*user))
	c.Next()
}

// principal returns the authentication result attached upstream, anonymous
// when nothing was attached.
func principal(c *gin.Context) auth.Result {
	if v, ok := c.Get(principalKey); ok {
		if result, ok := v.(auth.Result); ok {
			return result
		}
	}
	return auth.Anonymous()
}
