package handlers

import (
	"net/http"

	"vinivici/internal/dto"
	"vinivici/internal/logger"
	"vinivici/internal/services"
	"vinivici/internal/web"
	"vinivici/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// PageHandler serves the HTML page and its form actions.
type PageHandler struct {
	*BaseHandler
	discoveryService services.DiscoveryService
}

func NewPageHandler(base *BaseHandler, discoveryService services.DiscoveryService) *PageHandler {
	return &PageHandler{
		BaseHandler:      base,
		discoveryService: discoveryService,
	}
}

func (h *PageHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Index)
	r.POST("/discover", h.Discover)
	r.POST("/bans/toggle", h.ToggleBan)
}

// Index renders the page. The first visit starts a discovery, like a
// component fetching on mount.
func (h *PageHandler) Index(c *gin.Context) {
	if h.discoveryService.EnsureStarted(c.Request.Context()) {
		logger.CtxInfo(c.Request.Context(), "Initial discovery started")
	}
	h.render(c, http.StatusOK, "")
}

// Discover starts a discovery in the background and redirects to the page,
// which shows the spinner until the websocket reports a result.
func (h *PageHandler) Discover(c *gin.Context) {
	h.discoveryService.StartDiscovery(c.Request.Context())
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *PageHandler) ToggleBan(c *gin.Context) {
	var req dto.ToggleBanRequest
	if err := h.BindAndValidate_Form(c, &req); err != nil {
		h.renderError(c, err)
		return
	}
	if _, err := h.discoveryService.ToggleBan(req.Rule()); err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *PageHandler) renderError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	if appErr, ok := apperrors.AsAppError(err); ok {
		status = appErr.HTTPCode
	}
	h.render(c, status, apperrors.UserMessage(err))
}

func (h *PageHandler) render(c *gin.Context, status int, formError string) {
	view := web.NewPageView(h.discoveryService.Snapshot())
	view.FormError = formError
	c.HTML(status, web.IndexTemplate, view)
}
