package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farellandr/eventboard/internal/helpers"
	"github.com/farellandr/eventboard/internal/middleware"
	"github.com/farellandr/eventboard/internal/services"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthHandler struct {
	users *services.UserService
	auth  *services.Authenticator
}

func NewAuthHandler(users *services.UserService, auth *services.Authenticator) *AuthHandler {
	return &AuthHandler{users: users, auth: auth}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithValidationErrors(c, helpers.BindingMessages(err))
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), services.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully.",
		"user":    user.Public(),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithValidationErrors(c, helpers.BindingMessages(err))
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user.Public(),
	})
}

// Logout blacklists the presented token until it would have expired.
func (h *AuthHandler) Logout(c *gin.Context) {
	raw, claims := middleware.CurrentToken(c)
	if err := h.auth.Logout(c.Request.Context(), raw, claims); err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully."})
}
