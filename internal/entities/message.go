package entities

// InboundMessage is one text update addressed to a tenant's bot.
type InboundMessage struct {
	TenantID       string
	ConversationID string
	Text           string // trimmed
	SecretToken    string // webhook secret header presented by the caller
	UpdateID       int    // platform update id, 0 when unknown
}
