package entities

// ActionKind tags an OutboundAction.
type ActionKind string

const (
	ActionSendText     ActionKind = "send_text"
	ActionSendDocument ActionKind = "send_document"
	ActionNotifyAdmin  ActionKind = "notify_admin"
)

// Keyboard is a UI hint listing reply buttons row by row. Remove asks the
// client to hide any keyboard left over from an earlier prompt.
type Keyboard struct {
	Rows   [][]string `json:"rows"`
	Remove bool       `json:"remove,omitempty"`
}

// NewKeyboard builds a keyboard from rows of labels.
func NewKeyboard(rows ...[]string) *Keyboard {
	return &Keyboard{Rows: rows}
}

func RemoveKeyboard() *Keyboard {
	return &Keyboard{Remove: true}
}

// Labels flattens the keyboard.
func (k *Keyboard) Labels() []string {
	if k == nil {
		return nil
	}
	var out []string
	for _, row := range k.Rows {
		out = append(out, row...)
	}
	return out
}

// OutboundAction is a deferred side effect produced by a state transition.
// Only the fields relevant to Kind are set.
type OutboundAction struct {
	Kind           ActionKind
	ConversationID string
	Text           string
	Keyboard       *Keyboard
	DocumentRef    string
	Caption        string
	TenantID       string   // NotifyAdmin
	Fields         FieldSet // NotifyAdmin, optional structured payload
}

func SendText(conversationID, text string, keyboard *Keyboard) OutboundAction {
	return OutboundAction{Kind: ActionSendText, ConversationID: conversationID, Text: text, Keyboard: keyboard}
}

func SendDocument(conversationID, documentRef, caption string) OutboundAction {
	return OutboundAction{Kind: ActionSendDocument, ConversationID: conversationID, DocumentRef: documentRef, Caption: caption}
}

func NotifyAdmin(tenantID, text string, fields FieldSet) OutboundAction {
	return OutboundAction{Kind: ActionNotifyAdmin, TenantID: tenantID, Text: text, Fields: fields}
}
