package http

import (
	"errors"
	"net/http"
	"proyecto_reservas/internal/entities"
	"proyecto_reservas/internal/infrastructure"
	"proyecto_reservas/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SecretHeader carries the webhook secret Telegram was registered with.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// TelegramHandler receives Telegram webhook deliveries
type TelegramHandler struct {
	service       *usecases.WebhookService
	defaultTenant string
	logger        *logrus.Logger
}

func NewTelegramHandler(service *usecases.WebhookService, defaultTenant string, logger *logrus.Logger) *TelegramHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TelegramHandler{
		service:       service,
		defaultTenant: defaultTenant,
		logger:        logger,
	}
}

// RegisterRoutes registers the per-tenant webhook and the default-tenant alias
func (h *TelegramHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/telegram/webhook/:tenant", h.HandleWebhook)
	r.POST("/telegram/webhook", h.HandleWebhook)
}

// HandleWebhook processes one update. Once the session is committed the
// response is 200 even when replies failed, so Telegram does not redeliver.
func (h *TelegramHandler) HandleWebhook(c *gin.Context) {
	tenantID := c.Param("tenant")
	if tenantID == "" {
		tenantID = h.defaultTenant
	}
	if !ValidTenantID(tenantID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown tenant"})
		return
	}

	// Reject before reading the body so unauthenticated callers cost nothing.
	if _, err := h.service.Authorize(tenantID, c.GetHeader(SecretHeader)); err != nil {
		h.respondError(c, err)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
		return
	}

	msg, err := infrastructure.ParseUpdate(tenantID, body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update"})
		return
	}
	msg.SecretToken = c.GetHeader(SecretHeader)
	msg.Text = TruncateString(SanitizeString(msg.Text), MaxTextLength)

	result, err := h.service.HandleUpdate(c.Request.Context(), msg)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := gin.H{"ok": true}
	switch {
	case result.Ignored:
		resp["ignored"] = true
	case result.Duplicate:
		resp["duplicate"] = true
	default:
		resp["outcome"] = result.Outcome
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TelegramHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entities.ErrTenantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown tenant"})
	case errors.Is(err, entities.ErrSecretMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid secret token"})
	default:
		h.logger.WithError(err).WithField("tenant", c.Param("tenant")).Error("webhook update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
