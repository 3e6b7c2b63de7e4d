package helpers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/farellandr/eventboard/internal/logging"
	"github.com/farellandr/eventboard/internal/services"
)

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func RespondWithError(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{Error: message})
}

func RespondWithValidationErrors(c *gin.Context, messages []string) {
	if len(messages) == 1 {
		RespondWithError(c, http.StatusBadRequest, messages[0])
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Validation failed.",
		Details: messages,
	})
}

// RespondWithServiceError translates a service error into its HTTP status.
// Anything outside the known taxonomy is logged and hidden behind a 500.
func RespondWithServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var limitErr *services.LimitError

	switch {
	case errors.As(err, &validationErr):
		RespondWithValidationErrors(c, validationErr.Messages)
	case errors.As(err, &limitErr):
		RespondWithError(c, http.StatusTooManyRequests, limitErr.Error())
	case errors.Is(err, services.ErrOwnerCannotJoin):
		RespondWithError(c, http.StatusBadRequest, "You cannot join your own event.")
	case errors.Is(err, services.ErrEventNotFound):
		RespondWithError(c, http.StatusNotFound, "Event not found.")
	case errors.Is(err, services.ErrParticipantNotFound):
		RespondWithError(c, http.StatusNotFound, "Participant not found.")
	case errors.Is(err, services.ErrUserNotFound):
		RespondWithError(c, http.StatusNotFound, "User not found.")
	case errors.Is(err, services.ErrAlreadyParticipating):
		RespondWithError(c, http.StatusConflict, "You are already participating in this event.")
	case errors.Is(err, services.ErrEmailTaken):
		RespondWithError(c, http.StatusConflict, "User with this email already exists.")
	case errors.Is(err, services.ErrInvalidCredentials):
		RespondWithError(c, http.StatusUnauthorized, "Invalid credentials.")
	case errors.Is(err, services.ErrTokenRevoked):
		RespondWithError(c, http.StatusUnauthorized, "Token has been revoked.")
	case errors.Is(err, services.ErrUnauthorized):
		RespondWithError(c, http.StatusUnauthorized, "Unauthorized.")
	case errors.Is(err, services.ErrForbidden):
		RespondWithError(c, http.StatusForbidden, forbiddenMessage(err))
	case errors.Is(err, services.ErrNotFound):
		RespondWithError(c, http.StatusNotFound, "Not found.")
	case errors.Is(err, services.ErrConflict):
		RespondWithError(c, http.StatusConflict, "Conflict.")
	case errors.Is(err, services.ErrValidation):
		RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
	default:
		logging.Logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Errorf("unhandled error: %v", err)
		RespondWithError(c, http.StatusInternalServerError, "Internal server error.")
	}
}

var forbiddenMessages = []struct {
	err     error
	message string
}{
	{services.ErrNotEventOwner, "Only the event creator can modify this event."},
	{services.ErrCreatorMismatch, "You can only create events on your own behalf."},
	{services.ErrNotSelf, "You can only manage your own participation."},
}

func forbiddenMessage(err error) string {
	for _, fm := range forbiddenMessages {
		if errors.Is(err, fm.err) {
			return fm.message
		}
	}
	return "Forbidden."
}
