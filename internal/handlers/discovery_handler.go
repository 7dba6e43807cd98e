package handlers

import (
	"net/http"

	"vinivici/internal/dto"
	"vinivici/internal/services"

	"github.com/gin-gonic/gin"
)

// DiscoveryHandler serves the JSON API.
type DiscoveryHandler struct {
	*BaseHandler
	discoveryService services.DiscoveryService
}

func NewDiscoveryHandler(base *BaseHandler, discoveryService services.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{
		BaseHandler:      base,
		discoveryService: discoveryService,
	}
}

func (h *DiscoveryHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/state", h.GetState)
	r.POST("/discover", h.Discover)

	bans := r.Group("/bans")
	{
		bans.GET("", h.ListBans)
		bans.POST("/toggle", h.ToggleBan)
		bans.DELETE("", h.ClearBans)
	}
}

// GetState returns the UI state and ban list
func (h *DiscoveryHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.discoveryService.Snapshot())
}

// Discover runs a discovery and waits for its result
func (h *DiscoveryHandler) Discover(c *gin.Context) {
	if _, err := h.discoveryService.Discover(c.Request.Context()); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.discoveryService.Snapshot())
}

func (h *DiscoveryHandler) ListBans(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewBanListResponse(h.discoveryService.Bans()))
}

func (h *DiscoveryHandler) ToggleBan(c *gin.Context) {
	var req dto.ToggleBanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	bans, err := h.discoveryService.ToggleBan(req.Rule())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBanListResponse(bans))
}

func (h *DiscoveryHandler) ClearBans(c *gin.Context) {
	h.discoveryService.ClearBans()
	c.Status(http.StatusNoContent)
}
