package entities

import "strings"

// Menu surfaces a tenant can present its top-level options with.
const (
	MenuStyleNumbered = "numbered"
	MenuStyleButtons  = "buttons"
)

// TenantConfig is the immutable configuration of one bot sharing the deployment.
type TenantConfig struct {
	ID            string `json:"id" yaml:"id"`
	DisplayName   string `json:"display_name" yaml:"display_name"`
	Credential    string `json:"-" yaml:"bot_token"`
	WebhookSecret string `json:"-" yaml:"webhook_secret"`
	BotUsername   string `json:"bot_username" yaml:"bot_username"`
	MenuDocument  string `json:"menu_document" yaml:"menu_document"` // URL or platform file id
	FAQText       string `json:"faq_text" yaml:"faq_text"`
	AdminChatID   string `json:"admin_chat_id" yaml:"admin_chat_id"`
	MenuStyle     string `json:"menu_style" yaml:"menu_style"`
}

// RequireCredential returns the bot credential or ErrMissingCredential.
func (t TenantConfig) RequireCredential() (string, error) {
	if strings.TrimSpace(t.Credential) == "" {
		return "", &ConfigError{TenantID: t.ID, Key: "TELEGRAM_BOT_TOKEN", Err: ErrMissingCredential}
	}
	return t.Credential, nil
}

// UsesButtons reports whether the top-level menu is rendered as a keyboard.
func (t TenantConfig) UsesButtons() bool {
	return strings.EqualFold(t.MenuStyle, MenuStyleButtons)
}

// Name returns the display name, falling back to the tenant id.
func (t TenantConfig) Name() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.ID
}

// Merge overlays the non-empty values of other onto t.
func (t TenantConfig) Merge(other TenantConfig) TenantConfig {
	pick := func(cur, next string) string {
		if strings.TrimSpace(next) != "" {
			return next
		}
		return cur
	}
	t.DisplayName = pick(t.DisplayName, other.DisplayName)
	t.Credential = pick(t.Credential, other.Credential)
	t.WebhookSecret = pick(t.WebhookSecret, other.WebhookSecret)
	t.BotUsername = pick(t.BotUsername, other.BotUsername)
	t.MenuDocument = pick(t.MenuDocument, other.MenuDocument)
	t.FAQText = pick(t.FAQText, other.FAQText)
	t.AdminChatID = pick(t.AdminChatID, other.AdminChatID)
	t.MenuStyle = pick(t.MenuStyle, other.MenuStyle)
	return t
}
