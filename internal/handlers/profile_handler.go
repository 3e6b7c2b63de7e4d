package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farellandr/eventboard/internal/helpers"
	"github.com/farellandr/eventboard/internal/middleware"
	"github.com/farellandr/eventboard/internal/models"
	"github.com/farellandr/eventboard/internal/services"
)

type UpdateProfileRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=255"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6,max=72"`
}

type ProfileHandler struct {
	users         *services.UserService
	participation *services.ParticipationService
}

func NewProfileHandler(users *services.UserService, participation *services.ParticipationService) *ProfileHandler {
	return &ProfileHandler{users: users, participation: participation}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not found in token.")
		return
	}

	c.JSON(http.StatusOK, user.Public())
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithValidationErrors(c, helpers.BindingMessages(err))
		return
	}

	user, err := h.users.UpdateUser(c.Request.Context(), middleware.CurrentUserID(c), services.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Public())
}

func (h *ProfileHandler) MyParticipations(c *gin.Context) {
	events, err := h.participation.ListForUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *ProfileHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	c.JSON(http.StatusOK, out)
}

func (h *ProfileHandler) GetUser(c *gin.Context) {
	userID, ok := helpers.ParseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Public())
}

// CreateUser lets an authenticated user add another account.
func (h *ProfileHandler) CreateUser(c *gin.Context) {
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

	c.JSON(http.StatusCreated, user.Public())
}
