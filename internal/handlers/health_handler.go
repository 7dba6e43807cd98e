package handlers

import (
	"net/http"

	"vinivici/internal/dto"
	"vinivici/internal/services"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	discoveryService services.DiscoveryService
}

func NewHealthHandler(discoveryService services.DiscoveryService) *HealthHandler {
	return &HealthHandler{discoveryService: discoveryService}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status: "ok",
		Phase:  string(h.discoveryService.Snapshot().State.Phase),
	})
}
