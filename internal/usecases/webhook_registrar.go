package usecases

import (
	"context"
	"fmt"
	"net/url"
	"proyecto_reservas/internal/entities"
	"proyecto_reservas/internal/interfaces"
	"strings"
)

// WebhookPath is the inbound route prefix; the tenant id is appended.
const WebhookPath = "/telegram/webhook/"

// WebhookRegistrar points each tenant's bot at this deployment.
type WebhookRegistrar struct {
	api     interfaces.WebhookAPI
	tenants *TenantRegistry
	baseURL string
}

func NewWebhookRegistrar(api interfaces.WebhookAPI, tenants *TenantRegistry, baseURL string) *WebhookRegistrar {
	return &WebhookRegistrar{
		api:     api,
		tenants: tenants,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

// WebhookURL returns the address the platform should deliver tenantID's updates to.
func (r *WebhookRegistrar) WebhookURL(tenantID string) (string, error) {
	if r.baseURL == "" {
		return "", entities.ErrBaseURLMissing
	}
	return r.baseURL + WebhookPath + url.PathEscape(tenantID), nil
}

// Register sets the tenant's webhook, including its secret when configured.
func (r *WebhookRegistrar) Register(ctx context.Context, tenantID string) (string, error) {
	tenant, credential, err := r.lookup(tenantID)
	if err != nil {
		return "", err
	}
	hook, err := r.WebhookURL(tenant.ID)
	if err != nil {
		return "", err
	}
	if err := r.api.SetWebhook(ctx, credential, hook, tenant.WebhookSecret); err != nil {
		return "", fmt.Errorf("set webhook for %s: %w", tenant.ID, err)
	}
	return hook, nil
}

// Status reports the platform's view of the tenant's webhook.
func (r *WebhookRegistrar) Status(ctx context.Context, tenantID string) (entities.WebhookStatus, error) {
	tenant, credential, err := r.lookup(tenantID)
	if err != nil {
		return entities.WebhookStatus{}, err
	}
	status, err := r.api.GetWebhook(ctx, credential)
	if err != nil {
		return entities.WebhookStatus{}, fmt.Errorf("get webhook for %s: %w", tenant.ID, err)
	}
	status.TenantID = tenant.ID
	if expected, err := r.WebhookURL(tenant.ID); err == nil {
		status.ExpectedURL = expected
		status.Registered = status.URL == expected
	} else {
		status.Registered = status.URL != ""
	}
	return status, nil
}

func (r *WebhookRegistrar) lookup(tenantID string) (entities.TenantConfig, string, error) {
	tenant, ok := r.tenants.Resolve(tenantID)
	if !ok {
		return entities.TenantConfig{}, "", fmt.Errorf("tenant %q: %w", tenantID, entities.ErrTenantNotFound)
	}
	credential, err := tenant.RequireCredential()
	if err != nil {
		return entities.TenantConfig{}, "", err
	}
	return tenant, credential, nil
}
