package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/confradar/confradar/internal/services"
	"github.com/confradar/confradar/pkg/models"
)

type ConferenceHandler struct {
	catalog *services.CatalogCache
	logger  *logrus.Logger
}

func NewConferenceHandler(catalog *services.CatalogCache, logger *logrus.Logger) *ConferenceHandler {
	return &ConferenceHandler{catalog: catalog, logger: logger}
}

// List returns the catalog, optionally narrowed by category and rank
// query parameters.
func (h *ConferenceHandler) List(c *gin.Context) {
	category := strings.ToUpper(strings.TrimSpace(c.Query("category")))
	rank := strings.ToUpper(strings.TrimSpace(c.Query("rank")))

	conferences := h.catalog.Conferences(c.Request.Context())

	filtered := make([]models.Conference, 0, len(conferences))
	for _, conf := range conferences {
		if category != "" && string(conf.Category) != category {
			continue
		}
		if rank != "" && string(conf.Rank) != rank {
			continue
		}
		filtered = append(filtered, conf)
	}

	c.JSON(http.StatusOK, gin.H{
		"conferences": filtered,
		"count":       len(filtered),
	})
}

func (h *ConferenceHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Conference ID must be a valid UUID",
			},
		})
		return
	}

	for _, conf := range h.catalog.Conferences(c.Request.Context()) {
		if conf.ID == id {
			c.JSON(http.StatusOK, conf)
			return
		}
	}

	c.JSON(http.StatusNotFound, gin.H{
		"error": gin.H{
			"code":    "NOT_FOUND",
			"message": "Conference not found",
		},
	})
}
