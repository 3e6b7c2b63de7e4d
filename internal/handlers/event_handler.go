package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/farellandr/eventboard/internal/helpers"
	"github.com/farellandr/eventboard/internal/middleware"
	"github.com/farellandr/eventboard/internal/models"
	"github.com/farellandr/eventboard/internal/services"
)

// Field rules live in EventService so every problem is reported at once.
type CreateEventRequest struct {
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Date        *helpers.ISOTime `json:"date"`
	Category    string           `json:"category"`
	CreatedBy   *uint            `json:"createdBy"`
}

type UpdateEventRequest struct {
	Title       *string               `json:"title"`
	Description models.NullableString `json:"description"`
	Date        *helpers.ISOTime      `json:"date"`
	Category    *string               `json:"category"`
}

type EventHandler struct {
	events     *services.EventService
	dailyLimit int
}

func NewEventHandler(events *services.EventService, dailyLimit int) *EventHandler {
	return &EventHandler{events: events, dailyLimit: dailyLimit}
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithValidationErrors(c, helpers.BindingMessages(err))
		return
	}

	event, err := h.events.Create(c.Request.Context(), middleware.CurrentUserID(c), services.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        optionalTime(req.Date),
		Category:    req.Category,
		CreatedBy:   req.CreatedBy,
	}, h.dailyLimit)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.events.List(c.Request.Context(), helpers.OptionalQuery(c, "category"))
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, ok := helpers.ParseIDParam(c, "id")
	if !ok {
		return
	}

	event, err := h.events.Get(c.Request.Context(), eventID)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) ListUserEvents(c *gin.Context) {
	userID, ok := helpers.ParseIDParam(c, "userId")
	if !ok {
		return
	}

	events, err := h.events.ListByCreator(c.Request.Context(), userID)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	eventID, ok := helpers.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithValidationErrors(c, helpers.BindingMessages(err))
		return
	}

	update := services.EventUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}
	if req.Date != nil {
		update.Date = &req.Date.Time
	}

	event, err := h.events.Update(c.Request.Context(), middleware.CurrentUserID(c), eventID, update)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	eventID, ok := helpers.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.events.Delete(c.Request.Context(), middleware.CurrentUserID(c), eventID); err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully."})
}

// optionalTime leaves a missing date as the zero time, which the service
// reports as required.
func optionalTime(t *helpers.ISOTime) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.Time
}
