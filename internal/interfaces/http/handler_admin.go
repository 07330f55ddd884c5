package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"proyecto_reservas/internal/entities"
	"proyecto_reservas/internal/infrastructure"
	"proyecto_reservas/internal/interfaces"
	"proyecto_reservas/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BotDirectory looks up a bot's @username from its token.
type BotDirectory interface {
	BotUsername(ctx context.Context, credential string) (string, error)
}

type AdminHandler struct {
	tenants      *usecases.TenantRegistry
	registrar    *usecases.WebhookRegistrar
	reservations interfaces.ReservationRecorder // nil without a database
	bots         BotDirectory
	logger       *logrus.Logger
}

func NewAdminHandler(tenants *usecases.TenantRegistry, registrar *usecases.WebhookRegistrar, reservations interfaces.ReservationRecorder, bots BotDirectory, logger *logrus.Logger) *AdminHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AdminHandler{
		tenants:      tenants,
		registrar:    registrar,
		reservations: reservations,
		bots:         bots,
		logger:       logger,
	}
}

func (h *AdminHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/tenants", h.ListTenants)
	t := api.Group("/tenants/:tenant")
	{
		t.POST("/webhook", h.SetWebhook)
		t.GET("/webhook", h.GetWebhook)
		t.GET("/qr", h.GetQRCode)
		t.GET("/reservations", h.ListReservations)
	}
}

// ListTenants returns the configured tenants without their secrets
func (h *AdminHandler) ListTenants(c *gin.Context) {
	ids := h.tenants.IDs()
	result := make([]gin.H, 0, len(ids))
	for _, id := range ids {
		t, _ := h.tenants.Resolve(id)
		result = append(result, gin.H{
			"id":             t.ID,
			"display_name":   t.Name(),
			"bot_username":   t.BotUsername,
			"menu_style":     t.MenuStyle,
			"has_credential": t.Credential != "",
			"has_secret":     t.WebhookSecret != "",
			"has_admin_chat": t.AdminChatID != "",
			"has_menu":       t.MenuDocument != "",
		})
	}
	c.JSON(http.StatusOK, result)
}

// SetWebhook points the tenant's bot at this deployment
func (h *AdminHandler) SetWebhook(c *gin.Context) {
	tenantID, ok := h.tenantParam(c)
	if !ok {
		return
	}
	hook, err := h.registrar.Register(c.Request.Context(), tenantID)
	if err != nil {
		h.respondError(c, tenantID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "registered", "tenant": tenantID, "url": hook})
}

// GetWebhook reports what Telegram has registered for the tenant
func (h *AdminHandler) GetWebhook(c *gin.Context) {
	tenantID, ok := h.tenantParam(c)
	if !ok {
		return
	}
	status, err := h.registrar.Status(c.Request.Context(), tenantID)
	if err != nil {
		h.respondError(c, tenantID, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetQRCode returns a PNG QR code that opens a chat with the tenant's bot
func (h *AdminHandler) GetQRCode(c *gin.Context) {
	tenantID, ok := h.tenantParam(c)
	if !ok {
		return
	}
	tenant, _ := h.tenants.Resolve(tenantID)

	username := tenant.BotUsername
	if username == "" && h.bots != nil {
		credential, err := tenant.RequireCredential()
		if err != nil {
			h.respondError(c, tenantID, err)
			return
		}
		username, err = h.bots.BotUsername(c.Request.Context(), credential)
		if err != nil {
			h.respondError(c, tenantID, err)
			return
		}
	}
	if username == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Bot username not configured"})
		return
	}

	size, _ := strconv.Atoi(c.DefaultQuery("size", "256"))
	if size < 64 || size > 1024 {
		size = 256
	}
	payload := c.Query("start")
	if payload != "" && !ValidTenantID(payload) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start payload"})
		return
	}

	png, err := infrastructure.DeepLinkQR(username, payload, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ListReservations returns the tenant's most recent confirmed reservations
func (h *AdminHandler) ListReservations(c *gin.Context) {
	tenantID, ok := h.tenantParam(c)
	if !ok {
		return
	}
	if h.reservations == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Reservation storage not configured"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	list, err := h.reservations.ListByTenant(c.Request.Context(), tenantID, limit)
	if err != nil {
		h.respondError(c, tenantID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant": tenantID, "reservations": list})
}

func (h *AdminHandler) tenantParam(c *gin.Context) (string, bool) {
	id := c.Param("tenant")
	if !ValidTenantID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return "", false
	}
	if _, ok := h.tenants.Resolve(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown tenant"})
		return "", false
	}
	return id, true
}

func (h *AdminHandler) respondError(c *gin.Context, tenantID string, err error) {
	switch {
	case errors.Is(err, entities.ErrTenantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown tenant"})
	case errors.Is(err, entities.ErrMissingCredential):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Tenant has no bot token configured"})
	case errors.Is(err, entities.ErrBaseURLMissing):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "BASE_URL is not configured"})
	default:
		h.logger.WithError(err).WithField("tenant", tenantID).Error("admin request failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
