package handler

import (
	"net/http"

	"autocaption/internal/model"
	"autocaption/internal/service"
	"autocaption/internal/storage"
	"autocaption/internal/telegram"
	"autocaption/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UpdateSink consumes Bot API updates delivered over the webhook route.
type UpdateSink interface {
	HandleUpdate(upd telegram.Update)
}

// AdminHandler serves the operational HTTP API: health, stats, caption
// previews, and webhook update intake.
type AdminHandler struct {
	captions *service.CaptionService
	extract  *service.ExtractService
	template *service.TemplateService
	rules    *service.TextRulesService
	buttons  *service.ButtonService
	store    *storage.Manager
	sink     UpdateSink
	cfg      *model.Config
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(cs *service.CaptionService, es *service.ExtractService, ts *service.TemplateService, rs *service.TextRulesService, bs *service.ButtonService, store *storage.Manager, sink UpdateSink, cfg *model.Config) *AdminHandler {
	return &AdminHandler{
		captions: cs,
		extract:  es,
		template: ts,
		rules:    rs,
		buttons:  bs,
		store:    store,
		sink:     sink,
		cfg:      cfg,
	}
}

// HealthCheck handles GET /api/health
func (h *AdminHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "auto-caption",
	})
}

// Stats handles GET /api/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Counts())
}

// PreviewCaption handles POST /api/caption/preview. It runs the full
// pipeline once without touching any message: extract fields from the given
// filename, render the given template, and, when a chat id is supplied,
// apply that chat's stored text rules and buttons.
func (h *AdminHandler) PreviewCaption(c *gin.Context) {
	var req model.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Logger.Warn("Invalid preview request", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_request",
			Message: "filename and template are required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	meta := h.extract.Extract(req.Filename, req.SizeBytes)

	var rules *model.TextRules
	markup := ""
	if req.ChatID != 0 {
		rules = h.rules.Rules(req.ChatID)
		if rec := h.buttons.Buttons(req.ChatID); rec != nil {
			markup = rec.Markup
		}
	}

	caption, buttons := h.captions.BuildCaption(req.Template, meta, rules, markup)
	c.JSON(http.StatusOK, model.PreviewResponse{Caption: caption, Buttons: buttons})
}

// Webhook handles POST /webhook when webhook mode is enabled, accepting one
// Bot API update per request.
func (h *AdminHandler) Webhook(c *gin.Context) {
	var upd telegram.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		logger.Logger.Warn("Invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_update",
			Message: "Invalid update payload",
			Code:    http.StatusBadRequest,
		})
		return
	}

	h.sink.HandleUpdate(upd)
	c.Status(http.StatusOK)
}
