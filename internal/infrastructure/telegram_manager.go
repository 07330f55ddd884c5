package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"proyecto_reservas/internal/entities"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramBotManager keeps one Bot API client per bot token and implements
// both the outbound messenger and the webhook administration ports.
type TelegramBotManager struct {
	bots     map[string]*tgbotapi.BotAPI
	mu       sync.RWMutex
	client   *http.Client
	endpoint string
}

// NewTelegramBotManager creates a manager whose HTTP calls are bounded by timeout.
// endpoint is a tgbotapi endpoint format; empty means the public Bot API.
func NewTelegramBotManager(endpoint string, timeout time.Duration) *TelegramBotManager {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return &TelegramBotManager{
		bots:     make(map[string]*tgbotapi.BotAPI),
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
	}
}

// bot returns the cached client for credential. Unlike tgbotapi.NewBotAPI it
// does not call getMe, so creating a client never touches the network.
func (m *TelegramBotManager) bot(credential string) (*tgbotapi.BotAPI, error) {
	if credential == "" {
		return nil, entities.ErrMissingCredential
	}

	m.mu.RLock()
	bot, ok := m.bots[credential]
	m.mu.RUnlock()
	if ok {
		return bot, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if bot, ok := m.bots[credential]; ok {
		return bot, nil
	}
	bot = &tgbotapi.BotAPI{
		Token:  credential,
		Client: m.client,
		Buffer: 100,
	}
	bot.SetAPIEndpoint(m.endpoint)
	m.bots[credential] = bot
	return bot, nil
}

// call runs fn until it returns or ctx is done. tgbotapi has no context
// support; the HTTP client timeout bounds an abandoned call.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (m *TelegramBotManager) SendText(ctx context.Context, credential, chatID, text string, keyboard *entities.Keyboard) error {
	bot, err := m.bot(credential)
	if err != nil {
		return err
	}

	var msg tgbotapi.MessageConfig
	if isChannel(chatID) {
		msg = tgbotapi.NewMessageToChannel(chatID, text)
	} else {
		id, err := parseChatID(chatID)
		if err != nil {
			return err
		}
		msg = tgbotapi.NewMessage(id, text)
	}
	if markup := replyMarkup(keyboard); markup != nil {
		msg.ReplyMarkup = markup
	}
	msg.ParseMode = tgbotapi.ModeMarkdown

	_, err = call(ctx, func() (tgbotapi.Message, error) { return bot.Send(msg) })
	if isParseError(err) {
		// Tenant-authored text (FAQ, names) may carry unbalanced markup.
		msg.ParseMode = ""
		_, err = call(ctx, func() (tgbotapi.Message, error) { return bot.Send(msg) })
	}
	return err
}

func (m *TelegramBotManager) SendDocument(ctx context.Context, credential, chatID, documentRef, caption string) error {
	bot, err := m.bot(credential)
	if err != nil {
		return err
	}

	var doc tgbotapi.DocumentConfig
	if isChannel(chatID) {
		doc = tgbotapi.NewDocument(0, documentFile(documentRef))
		doc.ChannelUsername = chatID
	} else {
		id, err := parseChatID(chatID)
		if err != nil {
			return err
		}
		doc = tgbotapi.NewDocument(id, documentFile(documentRef))
	}
	doc.Caption = caption

	_, err = call(ctx, func() (tgbotapi.Message, error) { return bot.Send(doc) })
	return err
}

// SetWebhook registers url with the secret token Telegram echoes back in
// the X-Telegram-Bot-Api-Secret-Token header.
func (m *TelegramBotManager) SetWebhook(ctx context.Context, credential, url, secret string) error {
	bot, err := m.bot(credential)
	if err != nil {
		return err
	}
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	params.AddNonEmpty("allowed_updates", `["message"]`)

	_, err = call(ctx, func() (*tgbotapi.APIResponse, error) { return bot.MakeRequest("setWebhook", params) })
	return err
}

func (m *TelegramBotManager) GetWebhook(ctx context.Context, credential string) (entities.WebhookStatus, error) {
	bot, err := m.bot(credential)
	if err != nil {
		return entities.WebhookStatus{}, err
	}
	info, err := call(ctx, bot.GetWebhookInfo)
	if err != nil {
		return entities.WebhookStatus{}, err
	}
	return entities.WebhookStatus{
		URL:                info.URL,
		Registered:         info.URL != "",
		PendingUpdateCount: info.PendingUpdateCount,
		LastErrorDate:      info.LastErrorDate,
		LastErrorMessage:   info.LastErrorMessage,
	}, nil
}

// BotUsername asks Telegram for the bot's @username.
func (m *TelegramBotManager) BotUsername(ctx context.Context, credential string) (string, error) {
	bot, err := m.bot(credential)
	if err != nil {
		return "", err
	}
	me, err := call(ctx, bot.GetMe)
	if err != nil {
		return "", fmt.Errorf("getMe: %w", err)
	}
	return me.UserName, nil
}

// ActiveBots returns how many distinct tokens have a client.
func (m *TelegramBotManager) ActiveBots() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bots)
}

// IsPermanent reports whether err is a Bot API rejection that retrying will not fix.
func IsPermanent(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusBadRequest || apiErr.Code == http.StatusForbidden ||
			apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusNotFound
	}
	return false
}

// ParseUpdate decodes a webhook body into an inbound message for tenantID.
// Updates without a text message yield an empty Text.
func ParseUpdate(tenantID string, body []byte) (entities.InboundMessage, error) {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return entities.InboundMessage{}, fmt.Errorf("decode update: %w", err)
	}
	msg := entities.InboundMessage{TenantID: tenantID, UpdateID: update.UpdateID}
	if update.Message != nil && update.Message.Chat != nil {
		msg.ConversationID = strconv.FormatInt(update.Message.Chat.ID, 10)
		msg.Text = update.Message.Text
	}
	return msg, nil
}

func isChannel(chatID string) bool {
	return strings.HasPrefix(chatID, "@")
}

func parseChatID(chatID string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}
	return id, nil
}

// documentFile treats http(s) references as URLs and anything else as a
// Telegram file_id.
func documentFile(ref string) tgbotapi.RequestFileData {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tgbotapi.FileURL(ref)
	}
	return tgbotapi.FileID(ref)
}

// isParseError reports a Bot API rejection of the message's Markdown entities.
func isParseError(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(apiErr.Message), "can't parse entities")
}

// replyMarkup maps a keyboard hint to reply_markup; nil leaves the client's
// current keyboard untouched.
func replyMarkup(k *entities.Keyboard) interface{} {
	if k == nil {
		return nil
	}
	if k.Remove {
		return tgbotapi.NewRemoveKeyboard(true)
	}
	if markup := replyKeyboard(k); markup != nil {
		return markup
	}
	return nil
}

func replyKeyboard(k *entities.Keyboard) *tgbotapi.ReplyKeyboardMarkup {
	if k == nil || len(k.Rows) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.KeyboardButton, 0, len(k.Rows))
	for _, row := range k.Rows {
		if len(row) == 0 {
			continue
		}
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	if len(rows) == 0 {
		return nil
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	return &markup
}
