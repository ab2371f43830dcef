package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"twitter-clone/internal/auth"
	"twitter-clone/internal/domain"
	"twitter-clone/internal/service"
)

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(user domain.User) (string, error)
	Parse(token string) (*auth.Claims, error)
}

// Handler wires HTTP routes to the user service.
type Handler struct {
	users  service.UserService
	tokens TokenIssuer
	logger logrus.FieldLogger
}

func NewHandler(users service.UserService, tokens TokenIssuer, logger logrus.FieldLogger) *Handler {
	return &Handler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), requestLogger(h.logger))

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	users := router.Group("/users")
	{
		users.GET("", h.listUsers)
		users.POST("", h.registerUser)
		users.GET("/me", h.authenticateToken, h.currentUser)
		users.GET("/:id", h.getUser)
	}

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.registerUser)
		authGroup.GET("/verify", h.verifyEmail)
		authGroup.POST("/verify/resend", h.resendVerification)
		authGroup.POST("/login", h.authenticateCredentials, h.afterLogin)
	}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email,min=10,max=40"`
	Username  string `json:"username" binding:"required,min=2,max=40,excludesall=@"`
	Fullname  string `json:"fullname" binding:"required,min=2,max=40"`
	Password  string `json:"password" binding:"required,min=6"`
	Password2 string `json:"password2" binding:"required,eqfield=Password"`
}

type resendRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	success(c, http.StatusOK, resp)
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, service.ErrInvalidID):
		c.AbortWithStatus(http.StatusBadRequest)
		return
	case errors.Is(err, service.ErrUserNotFound):
		c.AbortWithStatus(http.StatusNotFound)
		return
	case err != nil:
		h.internalError(c, err)
		return
	}

	success(c, http.StatusOK, userToDetailResponse(*user))
}

func (h *Handler) registerUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"errors": validationErrors(err, req),
		})
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Fullname: req.Fullname,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			fail(c, http.StatusConflict, err.Error())
			return
		}
		h.internalError(c, err)
		return
	}

	success(c, http.StatusCreated, userToResponse(*user))
}

func (h *Handler) verifyEmail(c *gin.Context) {
	hash := c.Query("hash")
	if hash == "" {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	user, err := h.users.Verify(c.Request.Context(), hash)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			fail(c, http.StatusNotFound, err.Error())
			return
		}
		h.internalError(c, err)
		return
	}

	h.respondWithToken(c, *user)
}

func (h *Handler) resendVerification(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"errors": validationErrors(err, req),
		})
		return
	}

	err := h.users.ResendVerification(c.Request.Context(), req.Email)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		fail(c, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, service.ErrAlreadyConfirmed):
		fail(c, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "success"})
}

func (h *Handler) afterLogin(c *gin.Context) {
	user, ok := principal(c).Principal()
	if !ok {
		fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.respondWithToken(c, user)
}

func (h *Handler) currentUser(c *gin.Context) {
	user, ok := principal(c).Principal()
	if !ok {
		fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	success(c, http.StatusOK, userToResponse(user))
}

func (h *Handler) respondWithToken(c *gin.Context, user domain.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		h.internalError(c, err)
		return
	}
	success(c, http.StatusOK, TokenResponse{
		UserResponse: userToResponse(user),
		Token:        token,
	})
}
