package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farellandr/eventboard/internal/helpers"
	"github.com/farellandr/eventboard/internal/middleware"
	"github.com/farellandr/eventboard/internal/services"
)

type ParticipantHandler struct {
	participation *services.ParticipationService
}

func NewParticipantHandler(participation *services.ParticipationService) *ParticipantHandler {
	return &ParticipantHandler{participation: participation}
}

func (h *ParticipantHandler) Join(c *gin.Context) {
	eventID, ok := helpers.ParseIDParam(c, "id")
	if !ok {
		return
	}

	participant, err := h.participation.Join(c.Request.Context(), eventID, middleware.CurrentUserID(c))
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, participant)
}

func (h *ParticipantHandler) Leave(c *gin.Context) {
	eventID, ok := helpers.ParseIDParam(c, "id")
	if !ok {
		return
	}
	h.leave(c, eventID, middleware.CurrentUserID(c))
}

// LeaveUser removes the participant named in the path, which must be the
// caller.
func (h *ParticipantHandler) LeaveUser(c *gin.Context) {
	eventID, ok := helpers.ParseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := helpers.ParseIDParam(c, "userId")
	if !ok {
		return
	}
	if userID != middleware.CurrentUserID(c) {
		helpers.RespondWithServiceError(c, services.ErrNotSelf)
		return
	}
	h.leave(c, eventID, userID)
}

func (h *ParticipantHandler) leave(c *gin.Context, eventID, userID uint) {
	if err := h.participation.Leave(c.Request.Context(), eventID, userID); err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "You have left the event."})
}

func (h *ParticipantHandler) List(c *gin.Context) {
	eventID, ok := helpers.ParseIDParam(c, "id")
	if !ok {
		return
	}

	participants, err := h.participation.List(c.Request.Context(), eventID)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, participants)
}

func (h *ParticipantHandler) Count(c *gin.Context) {
	eventID, ok := helpers.ParseIDParam(c, "id")
	if !ok {
		return
	}

	count, err := h.participation.Count(c.Request.Context(), eventID)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *ParticipantHandler) Check(c *gin.Context) {
	eventID, ok := helpers.ParseIDParam(c, "id")
	if !ok {
		return
	}

	participating, err := h.participation.IsParticipating(c.Request.Context(), eventID, middleware.CurrentUserID(c))
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"isParticipating": participating})
}
