package handlers

import (
	"net/http"
	"time"

	"pos-engine/internal/middleware"
	"pos-engine/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles PIN login and session lookups
type AuthHandler struct {
	userService services.UserService
	authService *middleware.AuthService
	logger      *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService services.UserService, authService *middleware.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		logger:      logger,
	}
}

// LoginRequest represents a PIN login
type LoginRequest struct {
	UserID int64  `json:"user_id" binding:"required,gt=0"`
	PIN    string `json:"pin" binding:"required"`
}

// LoginResponse carries the session token
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      interface{} `json:"user"`
}

// LoginUser is the public part of a user shown on the login screen
type LoginUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// @Summary Log in with a PIN
// @Description Verify a user's PIN and issue a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "User and PIN"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.UserID, req.PIN)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	token, expiresAt, err := h.authService.GenerateToken(user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithField("user_id", user.ID).Info("User logged in")

	c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt, User: user})
}

// @Summary List users for the login screen
// @Tags auth
// @Produce json
// @Success 200 {array} LoginUser
// @Router /auth/users [get]
func (h *AuthHandler) ListLoginUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	out := make([]LoginUser, 0, len(users))
	for _, u := range users {
		if u.Active {
			out = append(out, LoginUser{ID: u.ID, Name: u.Name, Role: string(u.Role)})
		}
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Current session
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: CodeUnauthorized, Message: "Authentication required"})
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
