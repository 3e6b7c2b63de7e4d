package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/farellandr/eventboard/internal/models"
)

func ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.Categories})
}
