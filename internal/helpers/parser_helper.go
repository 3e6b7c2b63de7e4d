package helpers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseIDParam reads a positive numeric path parameter. On failure it
// writes a 400 and returns false.
func ParseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		RespondWithError(c, http.StatusBadRequest, "Invalid "+name+".")
		return 0, false
	}
	return uint(id), true
}

// OptionalQuery returns nil when the query parameter is absent or empty.
func OptionalQuery(c *gin.Context, name string) *string {
	value := c.Query(name)
	if value == "" {
		return nil
	}
	return &value
}
