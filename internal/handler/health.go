package handler

import (
	"net/http"

	"github.com/contacthub/backend/internal/db"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	db *db.Postgres
}

func NewHealthHandler(database *db.Postgres) *HealthHandler {
	return &HealthHandler{db: database}
}

// Healthchecker godoc
// @Summary Database connectivity probe
// @Tags utils
// @Produce json
// @Success 200 {object} model.MessageResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/healthchecker [get]
func (h *HealthHandler) Healthchecker(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database connection error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "welcome to the contacts API"})
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "contacts API server is running",
	})
}
