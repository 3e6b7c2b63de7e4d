package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/farellandr/eventboard/internal/helpers"
	"github.com/farellandr/eventboard/internal/models"
	"github.com/farellandr/eventboard/internal/services"
	"github.com/farellandr/eventboard/internal/tokens"
)

const (
	ContextKeyUser   = "user"
	ContextKeyUserID = "user_id"
	ContextKeyToken  = "token"
	ContextKeyClaims = "claims"
)

// JWTAuthMiddleware rejects requests whose bearer token fails verification,
// is blacklisted, or names a missing user.
func JWTAuthMiddleware(auth *services.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Authorization header is missing or malformed.")
			return
		}

		user, claims, err := auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			helpers.RespondWithServiceError(c, err)
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyToken, raw)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextKeyUser); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func CurrentUserID(c *gin.Context) uint {
	return c.GetUint(ContextKeyUserID)
}

func CurrentToken(c *gin.Context) (string, *tokens.Claims) {
	claims, _ := c.MustGet(ContextKeyClaims).(*tokens.Claims)
	return c.GetString(ContextKeyToken), claims
}
